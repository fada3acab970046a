package effect

import (
	"fmt"

	"render-core/core"
	"render-core/math"
)

// brightFragSrc keeps pixels whose luminance exceeds the threshold.
const brightFragSrc = `#version 410 core
in  vec2 uv;
out vec4 outColor;

uniform sampler2D hdrBuffer;
uniform float     threshold;

void main() {
    vec3  color = texture(hdrBuffer, uv).rgb;
    float luma  = dot(color, vec3(0.2126, 0.7152, 0.0722));
    outColor = vec4(color * step(threshold, luma), 1.0);
}
`

// blurFragSrc is a single-axis 5-tap Gaussian. texelDir is (1/w, 0) for a
// horizontal pass and (0, 1/h) for a vertical one.
const blurFragSrc = `#version 410 core
in  vec2 uv;
out vec4 outColor;

uniform sampler2D blurTex;
uniform vec2      texelDir;

void main() {
    const float w[5] = float[](0.0625, 0.25, 0.375, 0.25, 0.0625);
    vec3 result = vec3(0.0);
    for (int i = -2; i <= 2; i++) {
        result += texture(blurTex, uv + float(i) * texelDir).rgb * w[i + 2];
    }
    outColor = vec4(result, 1.0);
}
`

// BloomEffect extracts bright areas of an HDR image and blurs them at half
// resolution. The result is read from Output and added by ToneMapEffect.
type BloomEffect struct {
	Threshold float32
	// Passes is the number of horizontal plus vertical blur pairs.
	Passes int

	ctx    *core.Context
	bright *core.ImageEffect
	blur   *core.ImageEffect
	ping   [2]*core.Texture2D
}

func NewBloomEffect(ctx *core.Context, width, height uint32) (*BloomEffect, error) {
	b := &BloomEffect{Threshold: 1, Passes: 5, ctx: ctx}

	var err error
	if b.bright, err = core.NewImageEffect(ctx, brightFragSrc); err != nil {
		return nil, fmt.Errorf("bright-pass shader: %w", err)
	}
	if b.blur, err = core.NewImageEffect(ctx, blurFragSrc); err != nil {
		b.bright.Release()
		return nil, fmt.Errorf("blur shader: %w", err)
	}
	if err := b.Resize(width, height); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// Resize reallocates the half-resolution ping-pong textures for a new
// source size.
func (b *BloomEffect) Resize(width, height uint32) error {
	b.releaseTargets()
	opts := core.DefaultTextureOptions()
	opts.DataType = core.HalfFloat
	for i := range b.ping {
		tex, err := core.NewTexture2D(b.ctx, max(width/2, 1), max(height/2, 1), opts)
		if err != nil {
			b.releaseTargets()
			return fmt.Errorf("bloom target: %w", err)
		}
		b.ping[i] = tex
	}
	return nil
}

// Output is the blurred bright-pass texture from the last Apply.
func (b *BloomEffect) Output() *core.Texture2D { return b.ping[0] }

// Apply runs the bright pass over hdr followed by Passes blur pairs.
func (b *BloomEffect) Apply(hdr *core.Texture2D) error {
	states := core.RenderStates{WriteMask: core.WriteMaskColor, DepthTest: core.DepthTestAlways}
	w, h := b.ping[0].Width(), b.ping[0].Height()
	viewport := core.NewViewport(w, h)

	err := b.ping[0].Write(core.ClearColor(0, 0, 0, 1), func() error {
		if err := b.bright.UseTexture("hdrBuffer", hdr); err != nil {
			return err
		}
		if err := b.bright.UseUniform("threshold", b.Threshold); err != nil {
			return err
		}
		return b.bright.Apply(states, viewport)
	})
	if err != nil {
		return fmt.Errorf("bloom bright pass: %w", err)
	}

	dirs := [2]math.Vec2{
		math.NewVec2(1/float32(w), 0),
		math.NewVec2(0, 1/float32(h)),
	}
	for pass := 0; pass < b.Passes; pass++ {
		for i, dir := range dirs {
			src, dst := b.ping[i], b.ping[1-i]
			err := dst.Write(core.ClearNone(), func() error {
				if err := b.blur.UseTexture("blurTex", src); err != nil {
					return err
				}
				if err := b.blur.UseUniform("texelDir", dir); err != nil {
					return err
				}
				return b.blur.Apply(states, viewport)
			})
			if err != nil {
				return fmt.Errorf("bloom blur pass %d: %w", pass, err)
			}
		}
	}
	return nil
}

func (b *BloomEffect) releaseTargets() {
	for i, tex := range b.ping {
		if tex != nil {
			tex.Release()
			b.ping[i] = nil
		}
	}
}

func (b *BloomEffect) Release() {
	b.releaseTargets()
	if b.bright != nil {
		b.bright.Release()
	}
	if b.blur != nil {
		b.blur.Release()
	}
}
