package effect

import (
	"fmt"

	"render-core/core"
)

// toneMapFragSrc applies exposure, optional bloom and AO, then maps HDR to
// display range with gamma 2.2.
const toneMapFragSrc = `#version 410 core
in  vec2 uv;
out vec4 outColor;

uniform sampler2D hdrBuffer;
uniform sampler2D bloomTex;
uniform sampler2D aoTex;
uniform float     exposure;
uniform float     bloomStrength;
uniform bool      hasBloom;
uniform bool      hasAO;
uniform float     aoStrength;

void main() {
    vec3 hdr = texture(hdrBuffer, uv).rgb;

    if (hasBloom) {
        hdr += texture(bloomTex, uv).rgb * bloomStrength;
    }

    // AO darkens linear radiance before mapping.
    if (hasAO) {
        float ao = texture(aoTex, uv).r;
        hdr *= mix(1.0, ao, aoStrength);
    }

    vec3 mapped = vec3(1.0) - exp(-hdr * exposure);
    mapped = pow(mapped, vec3(1.0 / 2.2));

    outColor = vec4(mapped, 1.0);
}
`

// ToneMapEffect resolves an HDR image into the current render target.
type ToneMapEffect struct {
	Exposure      float32
	BloomStrength float32
	AOStrength    float32

	effect *core.ImageEffect
}

func NewToneMapEffect(ctx *core.Context) (*ToneMapEffect, error) {
	e, err := core.NewImageEffect(ctx, toneMapFragSrc)
	if err != nil {
		return nil, fmt.Errorf("tone map shader: %w", err)
	}
	return &ToneMapEffect{
		Exposure:      1,
		BloomStrength: 0.04,
		AOStrength:    1,
		effect:        e,
	}, nil
}

// Apply tone maps hdr. bloom and ao may be nil to skip those inputs.
func (t *ToneMapEffect) Apply(hdr, bloom, ao *core.Texture2D, viewport core.Viewport) error {
	// Disabled inputs still need a sampler binding; hdr stands in.
	bloomTex, aoTex := hdr, hdr
	if bloom != nil {
		bloomTex = bloom
	}
	if ao != nil {
		aoTex = ao
	}
	for name, tex := range map[string]*core.Texture2D{
		"hdrBuffer": hdr,
		"bloomTex":  bloomTex,
		"aoTex":     aoTex,
	} {
		if err := t.effect.UseTexture(name, tex); err != nil {
			return err
		}
	}
	for name, v := range map[string]any{
		"exposure":      t.Exposure,
		"bloomStrength": t.BloomStrength,
		"hasBloom":      bloom != nil,
		"hasAO":         ao != nil,
		"aoStrength":    t.AOStrength,
	} {
		if err := t.effect.UseUniform(name, v); err != nil {
			return err
		}
	}
	states := core.RenderStates{
		WriteMask: core.WriteMaskColor,
		DepthTest: core.DepthTestAlways,
		Blend:     core.BlendNone,
		Cull:      core.CullNone,
	}
	return t.effect.Apply(states, viewport)
}

func (t *ToneMapEffect) Release() { t.effect.Release() }
