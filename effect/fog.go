package effect

import (
	"errors"
	"fmt"

	"render-core/core"
)

const fogFragSrc = `#version 410 core
in  vec2 uv;
out vec4 outColor;

uniform sampler2D depthMap;
uniform mat4  viewProjectionInverse;
uniform vec3  fogColor;
uniform float fogDensity;
uniform float animation;
uniform float time;
uniform vec3  eyePosition;

vec3 worldPos(vec2 p, float depth) {
    vec4 clip = vec4(p * 2.0 - 1.0, depth * 2.0 - 1.0, 1.0);
    vec4 w = viewProjectionInverse * clip;
    return w.xyz / w.w;
}

// Cheap value noise so the haze drifts over time.
float hash(vec3 p) {
    p = fract(p * 0.3183099 + 0.1);
    p *= 17.0;
    return fract(p.x * p.y * p.z * (p.x + p.y + p.z));
}

float noise(vec3 x) {
    vec3 i = floor(x);
    vec3 f = fract(x);
    f = f * f * (3.0 - 2.0 * f);
    return mix(mix(mix(hash(i + vec3(0, 0, 0)), hash(i + vec3(1, 0, 0)), f.x),
                   mix(hash(i + vec3(0, 1, 0)), hash(i + vec3(1, 1, 0)), f.x), f.y),
               mix(mix(hash(i + vec3(0, 0, 1)), hash(i + vec3(1, 0, 1)), f.x),
                   mix(hash(i + vec3(0, 1, 1)), hash(i + vec3(1, 1, 1)), f.x), f.y), f.z);
}

void main() {
    float depth = texture(depthMap, uv).r;
    vec3 pos = worldPos(uv, depth);
    float dist = min(distance(pos, eyePosition), 100.0);

    float variation = 1.0 + animation * (noise(pos * 0.5 + vec3(time)) - 0.5);
    float density = fogDensity * variation;
    float fog = 1.0 - clamp(exp(-density * dist), 0.0, 1.0);

    outColor = vec4(fogColor, fog);
}
`

// FogEffect hazes distant geometry, reading scene depth to find how far
// each pixel is from the eye.
type FogEffect struct {
	Color core.Color
	// Density is the fraction of light absorbed per world unit.
	Density float32
	// Animation scales how much the density varies over time.
	Animation float32

	effect *core.ImageEffect
}

func NewFogEffect(ctx *core.Context, color core.Color, density, animation float32) (*FogEffect, error) {
	e, err := core.NewImageEffect(ctx, fogFragSrc)
	if err != nil {
		return nil, fmt.Errorf("fog shader: %w", err)
	}
	return &FogEffect{Color: color, Density: density, Animation: animation, effect: e}, nil
}

// Apply blends fog over the current render target. time is in milliseconds.
func (f *FogEffect) Apply(camera Camera, depth *core.DepthTexture2D, time float32) error {
	inv, ok := camera.ViewProjection().Inverse()
	if !ok {
		return errors.New("fog: view-projection matrix is not invertible")
	}
	states := core.RenderStates{
		WriteMask: core.WriteMaskColor,
		DepthTest: core.DepthTestAlways,
		Blend:     core.BlendTransparency,
		Cull:      core.CullBack,
	}

	if err := f.effect.UseTexture("depthMap", depth); err != nil {
		return err
	}
	for name, v := range map[string]any{
		"viewProjectionInverse": inv,
		"fogColor":              f.Color.Vec4().XYZ(),
		"fogDensity":            f.Density,
		"animation":             f.Animation,
		"time":                  time / 1000,
		"eyePosition":           camera.Position(),
	} {
		if err := f.effect.UseUniform(name, v); err != nil {
			return err
		}
	}
	return f.effect.Apply(states, camera.Viewport())
}

func (f *FogEffect) Release() { f.effect.Release() }
