package effect

import (
	"errors"
	"fmt"
	stdmath "math"
	"math/rand"

	"render-core/core"
	"render-core/math"
)

// Particle is one live particle.
type Particle struct {
	Position math.Vec3
	Velocity math.Vec3
	Life     float32 // remaining seconds
	MaxLife  float32
	Size     float32 // billboard half-size in world units
	Color    core.Color
}

// ParticleEmitter spawns and integrates particles on the CPU.
type ParticleEmitter struct {
	Position  math.Vec3
	Direction math.Vec3 // mean emission direction, unit length
	Spread    float32   // cone half-angle in radians

	Rate int // particles per second

	MinLife, MaxLife   float32
	MinSpeed, MaxSpeed float32
	MinSize, MaxSize   float32

	// Colour is interpolated from StartColor at birth to EndColor at death.
	StartColor, EndColor core.Color
	Gravity              math.Vec3
	Blend                core.Blend

	// Active stops spawning when false; live particles run out their life.
	Active bool

	Particles []Particle

	pool       int
	spawnAccum float32
	rng        *rand.Rand
}

// NewFountainEmitter returns an emitter spraying water droplets upwards
// from pos.
func NewFountainEmitter(pos math.Vec3, maxParticles int) *ParticleEmitter {
	return &ParticleEmitter{
		Position:   pos,
		Direction:  math.Vec3Up,
		Spread:     0.25,
		Rate:       300,
		MinLife:    0.8,
		MaxLife:    1.4,
		MinSpeed:   4,
		MaxSpeed:   6,
		MinSize:    0.03,
		MaxSize:    0.07,
		StartColor: core.Color{R: 0.75, G: 0.85, B: 1.0, A: 0.8},
		EndColor:   core.Color{R: 0.60, G: 0.75, B: 0.95, A: 0},
		Gravity:    math.Vec3{Y: -9.8},
		Blend:      core.BlendTransparency,
		Active:     true,
		Particles:  make([]Particle, 0, maxParticles),
		pool:       maxParticles,
		rng:        rand.New(rand.NewSource(42)),
	}
}

// Update spawns new particles and advances the live ones by dt seconds.
func (e *ParticleEmitter) Update(dt float32) {
	if e.Active {
		e.spawnAccum += float32(e.Rate) * dt
		for e.spawnAccum >= 1 && len(e.Particles) < e.pool {
			e.spawn()
			e.spawnAccum--
		}
	}

	live := e.Particles[:0]
	for _, p := range e.Particles {
		p.Life -= dt
		if p.Life <= 0 {
			continue
		}
		p.Velocity = p.Velocity.Add(e.Gravity.Mul(dt))
		p.Position = p.Position.Add(p.Velocity.Mul(dt))

		age := 1 - p.Life/p.MaxLife
		p.Color = lerpColor(e.StartColor, e.EndColor, age)
		p.Size = math.Lerp(e.MaxSize, e.MinSize, age)
		live = append(live, p)
	}
	e.Particles = live
}

func (e *ParticleEmitter) Count() int { return len(e.Particles) }

func (e *ParticleEmitter) spawn() {
	life := math.Lerp(e.MinLife, e.MaxLife, e.rng.Float32())
	speed := math.Lerp(e.MinSpeed, e.MaxSpeed, e.rng.Float32())
	e.Particles = append(e.Particles, Particle{
		Position: e.Position,
		Velocity: randomInCone(e.Direction, e.Spread, e.rng).Mul(speed),
		Life:     life,
		MaxLife:  life,
		Size:     e.MaxSize,
		Color:    e.StartColor,
	})
}

// randomInCone returns a unit vector uniformly distributed over the
// spherical cap of half-angle spread around axis.
func randomInCone(axis math.Vec3, spread float32, rng *rand.Rand) math.Vec3 {
	phi := float64(rng.Float32()) * 2 * stdmath.Pi
	cosMin := float32(stdmath.Cos(float64(spread)))
	cosTheta := math.Lerp(cosMin, 1, rng.Float32())
	sinTheta := float32(stdmath.Sqrt(float64(1 - cosTheta*cosTheta)))

	up := math.Vec3Up
	if stdmath.Abs(float64(axis.Dot(up))) > 0.99 {
		up = math.Vec3{X: 1}
	}
	right := axis.Cross(up).Normalize()
	up = right.Cross(axis).Normalize()

	return axis.Mul(cosTheta).
		Add(right.Mul(sinTheta * float32(stdmath.Cos(phi)))).
		Add(up.Mul(sinTheta * float32(stdmath.Sin(phi)))).
		Normalize()
}

func lerpColor(a, b core.Color, t float32) core.Color {
	return core.Color{
		R: math.Lerp(a.R, b.R, t),
		G: math.Lerp(a.G, b.G, t),
		B: math.Lerp(a.B, b.B, t),
		A: math.Lerp(a.A, b.A, t),
	}
}

const particleVertSrc = `#version 410 core
in vec4 center; // xyz position, w half-size
in vec4 tint;

uniform mat4 viewProjection;
uniform vec3 cameraRight;
uniform vec3 cameraUp;

out vec2 vUV;
out vec4 vColor;

void main() {
    const vec2 corners[6] = vec2[6](
        vec2(-1.0, -1.0), vec2( 1.0, -1.0), vec2( 1.0,  1.0),
        vec2(-1.0, -1.0), vec2( 1.0,  1.0), vec2(-1.0,  1.0)
    );
    vec2 c = corners[gl_VertexID];
    vec3 world = center.xyz + (cameraRight * c.x + cameraUp * c.y) * center.w;
    gl_Position = viewProjection * vec4(world, 1.0);
    vUV    = c * 0.5 + 0.5;
    vColor = tint;
}
`

const particleFragSrc = `#version 410 core
in vec2 vUV;
in vec4 vColor;
out vec4 outColor;

void main() {
    float d = length(vUV - vec2(0.5)) * 2.0;
    outColor = vec4(vColor.rgb, vColor.a * clamp(1.0 - d * d, 0.0, 1.0));
}
`

// ParticleEffect draws emitters as camera-facing billboards, one instance
// per particle. It depth tests against the bound target without writing
// depth.
type ParticleEffect struct {
	program *core.Program
	centers *core.VertexBuffer[math.Vec4]
	tints   *core.VertexBuffer[core.Color]

	centerData []math.Vec4
	tintData   []core.Color
}

func NewParticleEffect(ctx *core.Context) (*ParticleEffect, error) {
	p, err := core.NewProgram(ctx, particleVertSrc, particleFragSrc)
	if err != nil {
		return nil, fmt.Errorf("particle shader: %w", err)
	}
	centers, err := core.NewVertexBuffer[math.Vec4](ctx, core.DynamicDraw)
	if err != nil {
		p.Release()
		return nil, err
	}
	tints, err := core.NewVertexBuffer[core.Color](ctx, core.DynamicDraw)
	if err != nil {
		p.Release()
		centers.Release()
		return nil, err
	}
	return &ParticleEffect{program: p, centers: centers, tints: tints}, nil
}

// billboardAxes returns the world-space camera right and up vectors, which
// are the first two columns of a row-vector view-projection.
func billboardAxes(vp math.Mat4) (right, up math.Vec3) {
	right = math.Vec3{X: vp[0][0], Y: vp[1][0], Z: vp[2][0]}.Normalize()
	up = math.Vec3{X: vp[0][1], Y: vp[1][1], Z: vp[2][1]}.Normalize()
	return right, up
}

// Apply draws every live particle of e. An empty emitter draws nothing.
func (pe *ParticleEffect) Apply(camera Camera, e *ParticleEmitter) error {
	if e.Count() == 0 {
		return nil
	}
	pe.centerData = pe.centerData[:0]
	pe.tintData = pe.tintData[:0]
	for _, p := range e.Particles {
		pe.centerData = append(pe.centerData, p.Position.ToVec4(p.Size))
		pe.tintData = append(pe.tintData, p.Color)
	}
	if err := errors.Join(pe.centers.Fill(pe.centerData), pe.tints.Fill(pe.tintData)); err != nil {
		return err
	}

	vp := camera.ViewProjection()
	right, up := billboardAxes(vp)
	if err := errors.Join(
		pe.program.UseInstanceAttribute("center", pe.centers),
		pe.program.UseInstanceAttribute("tint", pe.tints),
		pe.program.UseUniform("viewProjection", vp),
		pe.program.UseUniform("cameraRight", right),
		pe.program.UseUniform("cameraUp", up),
	); err != nil {
		return err
	}
	states := core.RenderStates{
		WriteMask: core.WriteMaskColor,
		DepthTest: core.DepthTestLess,
		Blend:     e.Blend,
		Cull:      core.CullNone,
	}
	return pe.program.DrawInstanced(states, camera.Viewport(), 6, e.Count())
}

func (pe *ParticleEffect) Release() {
	pe.program.Release()
	pe.centers.Release()
	pe.tints.Release()
}
