package effect_test

import (
	"errors"
	"testing"

	"render-core/core"
	"render-core/effect"
	"render-core/internal/software"
	"render-core/math"
)

func newContext(t *testing.T) (*core.Context, *software.Device) {
	t.Helper()
	dev := software.NewDevice(32, 16)
	ctx, err := core.NewContext(dev, core.DefaultContextConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx.SetScreenSize(32, 16)
	t.Cleanup(ctx.Release)
	return ctx, dev
}

func newCamera() *effect.PerspectiveCamera {
	return effect.NewPerspectiveCamera(core.NewViewport(32, 16), math.NewVec3(0, 2, 5), math.Vec3Zero)
}

func TestFogApply(t *testing.T) {
	ctx, dev := newContext(t)
	fog, err := effect.NewFogEffect(ctx, core.Color{R: 0.8, G: 0.8, B: 0.9, A: 1}, 0.2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	defer fog.Release()
	depth, err := core.NewDepthTexture2D(ctx, 32, 16, core.DefaultDepthTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer depth.Release()

	err = ctx.Screen().Write(core.ClearNone(), func() error {
		return fog.Apply(newCamera(), depth, 1500)
	})
	if err != nil {
		t.Fatal(err)
	}

	draws := dev.Draws()
	if len(draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(draws))
	}
	d := draws[0]
	want := core.RenderStates{
		WriteMask: core.WriteMaskColor,
		DepthTest: core.DepthTestAlways,
		Blend:     core.BlendTransparency,
		Cull:      core.CullBack,
	}
	if d.States != want {
		t.Errorf("states = %+v, want %+v", d.States, want)
	}
	if d.Uniforms["fogDensity"] != float32(0.2) {
		t.Errorf("fogDensity = %v", d.Uniforms["fogDensity"])
	}
	if d.Uniforms["time"] != float32(1.5) {
		t.Errorf("time = %v, want seconds", d.Uniforms["time"])
	}
	if d.Uniforms["eyePosition"] != math.NewVec3(0, 2, 5) {
		t.Errorf("eyePosition = %v", d.Uniforms["eyePosition"])
	}
	if d.Textures[0] != depth.ID() {
		t.Errorf("depth map unit = %d", d.Textures[0])
	}
	if d.Viewport != core.NewViewport(32, 16) {
		t.Errorf("viewport = %v", d.Viewport)
	}
}

type singularCamera struct{}

func (singularCamera) ViewProjection() math.Mat4 { return math.Mat4{} }
func (singularCamera) Position() math.Vec3       { return math.Vec3Zero }
func (singularCamera) Viewport() core.Viewport   { return core.NewViewport(4, 4) }

func TestFogSingularCamera(t *testing.T) {
	ctx, dev := newContext(t)
	fog, err := effect.NewFogEffect(ctx, core.ColorWhite, 0.1, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer fog.Release()
	depth, err := core.NewDepthTexture2D(ctx, 4, 4, core.DefaultDepthTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer depth.Release()

	if err := fog.Apply(singularCamera{}, depth, 0); err == nil {
		t.Fatal("expected error for singular view-projection")
	}
	if len(dev.Draws()) != 0 {
		t.Error("draw issued for singular camera")
	}
}

func TestToneMapOptionalInputs(t *testing.T) {
	ctx, dev := newContext(t)
	tm, err := effect.NewToneMapEffect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tm.Release()
	opts := core.DefaultTextureOptions()
	opts.DataType = core.HalfFloat
	hdr, err := core.NewTexture2D(ctx, 32, 16, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer hdr.Release()

	err = ctx.Screen().Write(core.ClearColor(0, 0, 0, 1), func() error {
		return tm.Apply(hdr, nil, nil, ctx.Screen().Viewport())
	})
	if err != nil {
		t.Fatal(err)
	}
	d := dev.Draws()[0]
	if d.Uniforms["hasBloom"] != false || d.Uniforms["hasAO"] != false {
		t.Errorf("flags = %v %v", d.Uniforms["hasBloom"], d.Uniforms["hasAO"])
	}
	for unit, id := range d.Textures {
		if id != hdr.ID() {
			t.Errorf("unit %d = %d, want hdr stand-in %d", unit, id, hdr.ID())
		}
	}
}

func TestToneMapWithoutInput(t *testing.T) {
	ctx, dev := newContext(t)
	tm, err := effect.NewToneMapEffect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tm.Release()

	err = ctx.Screen().Write(core.ClearNone(), func() error {
		return tm.Apply(nil, nil, nil, ctx.Screen().Viewport())
	})
	if !errors.Is(err, core.ErrUnsupportedConfiguration) {
		t.Errorf("err = %v, want unsupported configuration", err)
	}
	if n := len(dev.Draws()); n != 0 {
		t.Errorf("%d draws issued", n)
	}
}

func TestBloomPasses(t *testing.T) {
	ctx, dev := newContext(t)
	bloom, err := effect.NewBloomEffect(ctx, 32, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer bloom.Release()
	bloom.Passes = 2

	hdr, err := core.NewTexture2D(ctx, 32, 16, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer hdr.Release()

	if err := bloom.Apply(hdr); err != nil {
		t.Fatal(err)
	}
	if n := len(dev.Draws()); n != 1+2*bloom.Passes {
		t.Errorf("draws = %d, want %d", n, 1+2*bloom.Passes)
	}
	out := bloom.Output()
	if out.Width() != 16 || out.Height() != 8 {
		t.Errorf("output = %dx%d, want 16x8", out.Width(), out.Height())
	}
	if dev.BoundFramebuffer() != 0 || dev.LiveFramebuffers() != 0 {
		t.Error("bloom left a framebuffer bound")
	}

	// The output cannot be sampled while bloom renders into it.
	err = out.Write(core.ClearNone(), func() error { return bloom.Apply(out) })
	if !errors.Is(err, core.ErrAliasingViolation) {
		t.Errorf("err = %v, want aliasing violation", err)
	}
}

func TestSSAOKernel(t *testing.T) {
	ctx, _ := newContext(t)
	ssao, err := effect.NewSSAOEffect(ctx, 32, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer ssao.Release()

	kernel := ssao.Kernel()
	if len(kernel) != 64 {
		t.Fatalf("kernel size = %d", len(kernel))
	}
	for i, k := range kernel {
		if k.Z < 0 {
			t.Errorf("sample %d below the hemisphere: %v", i, k)
		}
		if l := k.Length(); l > 1.0001 {
			t.Errorf("sample %d outside the unit sphere: %v", i, l)
		}
	}
	if kernel[0].Length() > kernel[63].Length() {
		t.Error("kernel not scaled towards the origin")
	}
}

func TestSSAOApply(t *testing.T) {
	ctx, dev := newContext(t)
	ssao, err := effect.NewSSAOEffect(ctx, 32, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer ssao.Release()
	depth, err := core.NewDepthTexture2D(ctx, 32, 16, core.DefaultDepthTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer depth.Release()

	cam := newCamera()
	if err := ssao.Apply(depth, cam.Projection()); err != nil {
		t.Fatal(err)
	}
	draws := dev.Draws()
	if len(draws) != 2 {
		t.Fatalf("draws = %d, want ssao + blur", len(draws))
	}
	if k, ok := draws[0].Uniforms["kernel"].([]math.Vec3); !ok || len(k) != 64 {
		t.Errorf("kernel uniform = %T", draws[0].Uniforms["kernel"])
	}
	if draws[1].Colors[0].Texture != ssao.Output().ID() {
		t.Error("blur did not write the output texture")
	}
}

func TestCopyLayer(t *testing.T) {
	ctx, dev := newContext(t)
	cp, err := effect.NewCopyEffect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cp.Release()
	layers, err := core.NewTexture2DArray(ctx, 8, 8, 3, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer layers.Release()
	flat, err := core.NewTexture2D(ctx, 8, 8, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer flat.Release()

	err = flat.Write(core.ClearNone(), func() error {
		return cp.Apply(layers, 2, core.NewViewport(8, 8))
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := dev.Draws()[0].Uniforms["layer"]; got != float32(2) {
		t.Errorf("layer = %v", got)
	}

	err = layers.Write([]uint32{0}, core.ClearNone(), func() error {
		return cp.Apply(flat, 0, core.NewViewport(8, 8))
	})
	if !errors.Is(err, core.ErrUnsupportedConfiguration) {
		t.Errorf("copy from a 2D texture: %v", err)
	}
}

func TestSkyboxBakeAndDraw(t *testing.T) {
	ctx, dev := newContext(t)
	sky, err := effect.NewSkyboxEffect(ctx, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer sky.Release()
	sky.SunDirection = math.NewVec3(0, -2, 0)

	if err := sky.Bake(); err != nil {
		t.Fatal(err)
	}
	draws := dev.Draws()
	if len(draws) != 6 {
		t.Fatalf("bake draws = %d, want 6", len(draws))
	}
	for i, d := range draws {
		c := d.Colors[0]
		if c.Texture != sky.CubeMap().ID() || c.Kind != core.TextureKindCubeMap || c.Layer != uint32(i) {
			t.Errorf("face %d attached %+v", i, c)
		}
		if d.Uniforms["face"] != int32(i) {
			t.Errorf("face %d uniform = %v", i, d.Uniforms["face"])
		}
		if d.Viewport != core.NewViewport(8, 8) {
			t.Errorf("face %d viewport = %v", i, d.Viewport)
		}
	}
	if got := draws[0].Uniforms["sunDirection"]; got != math.NewVec3(0, -1, 0) {
		t.Errorf("sunDirection = %v, want normalised", got)
	}

	dev.ResetDraws()
	err = ctx.Screen().Write(core.ClearNone(), func() error {
		return sky.Apply(newCamera())
	})
	if err != nil {
		t.Fatal(err)
	}
	d := dev.Draws()[0]
	if d.Textures[0] != sky.CubeMap().ID() {
		t.Errorf("sky unit = %d", d.Textures[0])
	}
	if d.States.WriteMask != core.WriteMaskColor {
		t.Errorf("write mask = %+v", d.States.WriteMask)
	}
}

func TestSkyboxSamplingItsOwnFace(t *testing.T) {
	ctx, _ := newContext(t)
	sky, err := effect.NewSkyboxEffect(ctx, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer sky.Release()

	err = sky.CubeMap().Write(core.CubeFacePositiveY, core.ClearNone(), func() error {
		return sky.Apply(newCamera())
	})
	if !errors.Is(err, core.ErrAliasingViolation) {
		t.Errorf("drawing the sky into its own cube map: %v", err)
	}
}

func TestParticleEmitterLifecycle(t *testing.T) {
	e := effect.NewFountainEmitter(math.NewVec3(0, 1, 0), 50)
	e.Rate = 100

	e.Update(0.1)
	if e.Count() != 10 {
		t.Fatalf("after 0.1s: %d particles, want 10", e.Count())
	}
	for _, p := range e.Particles {
		if p.Position.Y <= 1 {
			t.Errorf("particle did not rise: %v", p.Position)
		}
		if p.Life <= 0 || p.Life > p.MaxLife {
			t.Errorf("life %v of %v", p.Life, p.MaxLife)
		}
	}

	for range 5 {
		e.Update(0.1)
	}
	if e.Count() != 50 {
		t.Errorf("pool not capped: %d particles", e.Count())
	}

	e.Active = false
	for range 20 {
		e.Update(0.1)
	}
	if e.Count() != 0 {
		t.Errorf("%d particles outlived MaxLife", e.Count())
	}
}

func TestParticleDrawInstanced(t *testing.T) {
	ctx, dev := newContext(t)
	pe, err := effect.NewParticleEffect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer pe.Release()
	e := effect.NewFountainEmitter(math.Vec3Zero, 16)

	err = ctx.Screen().Write(core.ClearNone(), func() error {
		return pe.Apply(newCamera(), e)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(dev.Draws()) != 0 {
		t.Fatal("empty emitter issued a draw")
	}

	e.Update(0.02)
	n := e.Count()
	err = ctx.Screen().Write(core.ClearNone(), func() error {
		return pe.Apply(newCamera(), e)
	})
	if err != nil {
		t.Fatal(err)
	}
	d := dev.Draws()[0]
	if d.Count != 6 || d.Instances != n {
		t.Errorf("draw of %d vertices x %d instances, want 6 x %d", d.Count, d.Instances, n)
	}
	if len(d.Attributes) != 2 {
		t.Errorf("attributes = %v", d.Attributes)
	}
	if d.States.Blend != core.BlendTransparency || d.States.WriteMask.Depth {
		t.Errorf("states = %+v", d.States)
	}
}
