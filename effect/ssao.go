package effect

import (
	"encoding/binary"
	"fmt"
	gomath "math"
	"math/rand"

	"github.com/furui/fastnoiselite-go"

	"render-core/core"
	"render-core/math"
)

const (
	kernelSize = 64
	noiseSize  = 4
)

// ssaoFragSrc reconstructs view-space position from depth and accumulates
// hemisphere occlusion using a precomputed kernel.
const ssaoFragSrc = `#version 410 core
in  vec2 uv;
out vec4 outAO;

uniform sampler2D depthTex;
uniform sampler2D noiseTex;
uniform vec3  kernel[64];
uniform mat4  proj;
uniform mat4  invProj;
uniform float radius;
uniform float bias;
uniform vec2  noiseScale;

vec3 viewPos(vec2 p) {
    float d  = texture(depthTex, p).r * 2.0 - 1.0;
    vec4 ndc = vec4(p * 2.0 - 1.0, d, 1.0);
    vec4 vp  = invProj * ndc;
    return vp.xyz / vp.w;
}

void main() {
    if (texture(depthTex, uv).r >= 0.9999) { outAO = vec4(1.0); return; }

    vec3 pos = viewPos(uv);
    vec3 N = normalize(cross(dFdx(pos), dFdy(pos)));
    if (dot(N, -pos) < 0.0) N = -N;

    vec3 rnd = texture(noiseTex, uv * noiseScale).xyz;
    rnd.z = 0.0;

    vec3 T   = normalize(rnd - N * dot(rnd, N));
    vec3 B   = cross(N, T);
    mat3 TBN = mat3(T, B, N);

    float occ = 0.0;
    for (int i = 0; i < 64; i++) {
        vec3 s = pos + TBN * kernel[i] * radius;

        vec4 off = proj * vec4(s, 1.0);
        off.xyz /= off.w;
        vec2 suv = clamp(off.xy * 0.5 + 0.5, 0.001, 0.999);

        float geoZ = viewPos(suv).z;
        float rng = smoothstep(0.0, 1.0, radius / max(abs(pos.z - geoZ), 0.0001));
        occ += (geoZ >= s.z + bias ? 1.0 : 0.0) * rng;
    }

    outAO = vec4(1.0 - occ / 64.0, 0.0, 0.0, 1.0);
}
`

// ssaoBlurFragSrc is a 5x5 box blur over the raw occlusion.
const ssaoBlurFragSrc = `#version 410 core
in  vec2 uv;
out vec4 outAO;

uniform sampler2D ssaoTex;

void main() {
    vec2 texel  = 1.0 / vec2(textureSize(ssaoTex, 0));
    float result = 0.0;
    for (int x = -2; x <= 2; x++) {
        for (int y = -2; y <= 2; y++) {
            result += texture(ssaoTex, uv + vec2(x, y) * texel).r;
        }
    }
    outAO = vec4(result / 25.0, 0.0, 0.0, 1.0);
}
`

// SSAOEffect computes screen-space ambient occlusion from a depth texture.
// The blurred occlusion factor is read from Output.
type SSAOEffect struct {
	Radius float32 // hemisphere radius in view-space units
	Bias   float32 // depth bias against self-occlusion

	ctx    *core.Context
	pass   *core.ImageEffect
	blur   *core.ImageEffect
	kernel []math.Vec3
	noise  *core.Texture2D
	raw    *core.Texture2D
	out    *core.Texture2D
}

func NewSSAOEffect(ctx *core.Context, width, height uint32) (*SSAOEffect, error) {
	s := &SSAOEffect{Radius: 0.5, Bias: 0.025, ctx: ctx, kernel: generateKernel()}

	var err error
	if s.pass, err = core.NewImageEffect(ctx, ssaoFragSrc); err != nil {
		return nil, fmt.Errorf("ssao shader: %w", err)
	}
	if s.blur, err = core.NewImageEffect(ctx, ssaoBlurFragSrc); err != nil {
		s.Release()
		return nil, fmt.Errorf("ssao blur shader: %w", err)
	}
	if s.noise, err = newNoiseTexture(ctx); err != nil {
		s.Release()
		return nil, fmt.Errorf("ssao noise: %w", err)
	}
	if err := s.Resize(width, height); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

// generateKernel returns hemisphere samples clustered towards the origin
// for better contact shadows.
func generateKernel() []math.Vec3 {
	rng := rand.New(rand.NewSource(42))
	kernel := make([]math.Vec3, kernelSize)
	for i := range kernel {
		v := math.Vec3{
			X: rng.Float32()*2 - 1,
			Y: rng.Float32()*2 - 1,
			Z: rng.Float32(),
		}.Normalize()
		t := float32(i) / kernelSize
		kernel[i] = v.Mul(math.Lerp(0.1, 1.0, t*t))
	}
	return kernel
}

// newNoiseTexture fills a small tiling texture with XY rotation vectors
// sampled from two decorrelated OpenSimplex2 fields.
func newNoiseTexture(ctx *core.Context) (*core.Texture2D, error) {
	n := fastnoiselite.NewNoise()
	n.SetNoiseType(fastnoiselite.NoiseTypeOpenSimplex2)
	n.FractalType = fastnoiselite.FractalTypeFBm

	data := make([]byte, 0, noiseSize*noiseSize*3*4)
	for y := 0; y < noiseSize; y++ {
		for x := 0; x < noiseSize; x++ {
			fx, fy := fastnoiselite.FNLfloat(x*37), fastnoiselite.FNLfloat(y*37)
			rx := float32(n.GetNoise2D(fx, fy))
			ry := float32(n.GetNoise2D(fx+1000, fy+1000))
			for _, v := range [3]float32{rx, ry, 0} {
				data = binary.LittleEndian.AppendUint32(data, gomath.Float32bits(v))
			}
		}
	}

	opts := core.TextureOptions{
		Format:    core.FormatRGB,
		DataType:  core.Float,
		MinFilter: core.Nearest,
		MagFilter: core.Nearest,
		WrapS:     core.Repeat,
		WrapT:     core.Repeat,
	}
	tex, err := core.NewTexture2D(ctx, noiseSize, noiseSize, opts)
	if err != nil {
		return nil, err
	}
	if err := tex.Fill(data); err != nil {
		tex.Release()
		return nil, err
	}
	return tex, nil
}

// Resize reallocates the occlusion targets.
func (s *SSAOEffect) Resize(width, height uint32) error {
	s.releaseTargets()
	opts := core.DefaultTextureOptions()
	opts.Format, opts.DataType = core.FormatR, core.HalfFloat
	opts.MinFilter, opts.MagFilter = core.Nearest, core.Nearest

	var err error
	if s.raw, err = core.NewTexture2D(s.ctx, width, height, opts); err != nil {
		return fmt.Errorf("ssao target: %w", err)
	}
	if s.out, err = core.NewTexture2D(s.ctx, width, height, opts); err != nil {
		s.releaseTargets()
		return fmt.Errorf("ssao blur target: %w", err)
	}
	return nil
}

// Kernel returns the hemisphere sample offsets.
func (s *SSAOEffect) Kernel() []math.Vec3 { return s.kernel }

// Output is the blurred occlusion from the last Apply; 1 is unoccluded.
func (s *SSAOEffect) Output() *core.Texture2D { return s.out }

// Apply computes occlusion for depth rendered with projection.
func (s *SSAOEffect) Apply(depth *core.DepthTexture2D, projection math.Mat4) error {
	inv, ok := projection.Inverse()
	if !ok {
		return fmt.Errorf("ssao: projection matrix is not invertible")
	}
	w, h := s.raw.Width(), s.raw.Height()
	viewport := core.NewViewport(w, h)
	states := core.RenderStates{WriteMask: core.WriteMaskColor, DepthTest: core.DepthTestAlways}

	err := s.raw.Write(core.ClearColor(1, 1, 1, 1), func() error {
		if err := s.pass.UseTexture("depthTex", depth); err != nil {
			return err
		}
		if err := s.pass.UseTexture("noiseTex", s.noise); err != nil {
			return err
		}
		for name, v := range map[string]any{
			"kernel":     s.kernel,
			"proj":       projection,
			"invProj":    inv,
			"radius":     s.Radius,
			"bias":       s.Bias,
			"noiseScale": math.NewVec2(float32(w)/noiseSize, float32(h)/noiseSize),
		} {
			if err := s.pass.UseUniform(name, v); err != nil {
				return err
			}
		}
		return s.pass.Apply(states, viewport)
	})
	if err != nil {
		return fmt.Errorf("ssao pass: %w", err)
	}

	err = s.out.Write(core.ClearNone(), func() error {
		if err := s.blur.UseTexture("ssaoTex", s.raw); err != nil {
			return err
		}
		return s.blur.Apply(states, viewport)
	})
	if err != nil {
		return fmt.Errorf("ssao blur: %w", err)
	}
	return nil
}

func (s *SSAOEffect) releaseTargets() {
	if s.raw != nil {
		s.raw.Release()
		s.raw = nil
	}
	if s.out != nil {
		s.out.Release()
		s.out = nil
	}
}

func (s *SSAOEffect) Release() {
	s.releaseTargets()
	if s.noise != nil {
		s.noise.Release()
	}
	if s.pass != nil {
		s.pass.Release()
	}
	if s.blur != nil {
		s.blur.Release()
	}
}
