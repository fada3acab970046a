package effect

import (
	"errors"
	"fmt"

	"render-core/core"
	"render-core/math"
)

const skyBakeFragSrc = `#version 410 core
in  vec2 uv;
out vec4 outColor;

uniform int   face;
uniform vec3  zenith;
uniform vec3  horizon;
uniform vec3  ground;
uniform vec3  sunDirection;
uniform vec3  sunColor;

// Direction through texel st of a cube face, in GL face orientation.
vec3 faceDirection(int f, vec2 st) {
    vec2 p = st * 2.0 - 1.0;
    if (f == 0) return vec3( 1.0, -p.y, -p.x);
    if (f == 1) return vec3(-1.0, -p.y,  p.x);
    if (f == 2) return vec3( p.x,  1.0,  p.y);
    if (f == 3) return vec3( p.x, -1.0, -p.y);
    if (f == 4) return vec3( p.x, -p.y,  1.0);
    return vec3(-p.x, -p.y, -1.0);
}

void main() {
    vec3 dir = normalize(faceDirection(face, uv));
    float t = dir.y;

    vec3 color;
    if (t >= 0.0) {
        color = mix(horizon, zenith, pow(t, 0.4));
    } else {
        color = mix(horizon, ground, min(-t * 3.0, 1.0));
    }
    float sun = max(dot(dir, -sunDirection), 0.0);
    color += sunColor * pow(sun, 512.0) * 4.0;
    outColor = vec4(color, 1.0);
}
`

const skyDrawFragSrc = `#version 410 core
in  vec2 uv;
out vec4 outColor;

uniform samplerCube sky;
uniform mat4 viewProjectionInverse;

void main() {
    vec2 ndc  = uv * 2.0 - 1.0;
    vec4 near = viewProjectionInverse * vec4(ndc, -1.0, 1.0);
    vec4 far  = viewProjectionInverse * vec4(ndc,  1.0, 1.0);
    vec3 dir  = normalize(far.xyz / far.w - near.xyz / near.w);
    outColor = vec4(texture(sky, dir).rgb, 1.0);
}
`

// SkyboxEffect bakes a gradient sky with a sun disc into a cube map and
// draws it behind the scene. Bake again after changing the colours.
type SkyboxEffect struct {
	// Zenith is the colour straight up, Horizon at y=0 and Ground below.
	Zenith, Horizon, Ground core.Color
	// SunDirection is the direction sunlight travels.
	SunDirection math.Vec3
	SunColor     core.Color

	cube *core.TextureCubeMap
	bake *core.ImageEffect
	draw *core.ImageEffect
}

func NewSkyboxEffect(ctx *core.Context, size uint32) (*SkyboxEffect, error) {
	s := &SkyboxEffect{
		Zenith:       core.Color{R: 0.10, G: 0.30, B: 0.70, A: 1},
		Horizon:      core.Color{R: 0.60, G: 0.80, B: 1.00, A: 1},
		Ground:       core.Color{R: 0.30, G: 0.25, B: 0.20, A: 1},
		SunDirection: math.Vec3{Y: -1},
	}

	var err error
	if s.bake, err = core.NewImageEffect(ctx, skyBakeFragSrc); err != nil {
		return nil, fmt.Errorf("sky bake shader: %w", err)
	}
	if s.draw, err = core.NewImageEffect(ctx, skyDrawFragSrc); err != nil {
		s.bake.Release()
		return nil, fmt.Errorf("sky shader: %w", err)
	}
	s.cube, err = core.NewTextureCubeMap(ctx, size, core.TextureOptions{
		Format:    core.FormatRGBA,
		DataType:  core.HalfFloat,
		MinFilter: core.Linear,
		MagFilter: core.Linear,
		WrapS:     core.ClampToEdge,
		WrapT:     core.ClampToEdge,
		WrapR:     core.ClampToEdge,
	})
	if err != nil {
		s.bake.Release()
		s.draw.Release()
		return nil, fmt.Errorf("sky cube map: %w", err)
	}
	return s, nil
}

// CubeMap is the baked sky, valid after the first Bake.
func (s *SkyboxEffect) CubeMap() *core.TextureCubeMap { return s.cube }

// Bake renders the six cube faces from the current colours.
func (s *SkyboxEffect) Bake() error {
	viewport := core.NewViewport(s.cube.Width(), s.cube.Height())
	states := core.RenderStates{
		WriteMask: core.WriteMaskColor,
		DepthTest: core.DepthTestAlways,
		Blend:     core.BlendNone,
	}
	for face := core.CubeFacePositiveX; face <= core.CubeFaceNegativeZ; face++ {
		err := s.cube.Write(face, core.ClearNone(), func() error {
			if err := errors.Join(
				s.bake.UseUniform("face", int32(face)),
				s.bake.UseUniform("zenith", s.Zenith.Vec4().XYZ()),
				s.bake.UseUniform("horizon", s.Horizon.Vec4().XYZ()),
				s.bake.UseUniform("ground", s.Ground.Vec4().XYZ()),
				s.bake.UseUniform("sunDirection", s.SunDirection.Normalize()),
				s.bake.UseUniform("sunColor", s.SunColor.Vec4().XYZ()),
			); err != nil {
				return err
			}
			return s.bake.Apply(states, viewport)
		})
		if err != nil {
			return fmt.Errorf("sky face %d: %w", face, err)
		}
	}
	return nil
}

// Apply fills the current render target with the sky as seen by camera.
// It writes colour only, so scene geometry drawn afterwards still depth
// tests against a cleared buffer.
func (s *SkyboxEffect) Apply(camera Camera) error {
	inv, ok := camera.ViewProjection().Inverse()
	if !ok {
		return errors.New("sky: view-projection matrix is not invertible")
	}
	if err := errors.Join(
		s.draw.UseTexture("sky", s.cube),
		s.draw.UseUniform("viewProjectionInverse", inv),
	); err != nil {
		return err
	}
	states := core.RenderStates{
		WriteMask: core.WriteMaskColor,
		DepthTest: core.DepthTestAlways,
		Blend:     core.BlendNone,
	}
	return s.draw.Apply(states, camera.Viewport())
}

func (s *SkyboxEffect) Release() {
	s.bake.Release()
	s.draw.Release()
	s.cube.Release()
}
