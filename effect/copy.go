package effect

import (
	"fmt"

	"render-core/core"
)

const copyFragSrc = `#version 410 core
in  vec2 uv;
out vec4 outColor;

uniform sampler2DArray source;
uniform float layer;
uniform float scale;

void main() {
    vec4 c = texture(source, vec3(uv, layer));
    outColor = vec4(c.rgb * scale, c.a);
}
`

// CopyEffect draws one layer of an array texture into the current render
// target. Depth arrays show their depth in the red channel.
type CopyEffect struct {
	// Scale multiplies the copied colour.
	Scale float32

	effect *core.ImageEffect
}

func NewCopyEffect(ctx *core.Context) (*CopyEffect, error) {
	e, err := core.NewImageEffect(ctx, copyFragSrc)
	if err != nil {
		return nil, fmt.Errorf("copy shader: %w", err)
	}
	return &CopyEffect{Scale: 1, effect: e}, nil
}

// Apply copies layer of src, which must be a Texture2DArray or a
// DepthTexture2DArray.
func (c *CopyEffect) Apply(src core.Texture, layer uint32, viewport core.Viewport) error {
	if err := c.effect.UseTexture("source", src); err != nil {
		return err
	}
	if err := c.effect.UseUniform("layer", float32(layer)); err != nil {
		return err
	}
	if err := c.effect.UseUniform("scale", c.Scale); err != nil {
		return err
	}
	states := core.RenderStates{
		WriteMask: core.WriteMaskColor,
		DepthTest: core.DepthTestAlways,
		Blend:     core.BlendNone,
	}
	return c.effect.Apply(states, viewport)
}

func (c *CopyEffect) Release() { c.effect.Release() }
