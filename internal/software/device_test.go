package software

import (
	"image/color"
	"strings"
	"testing"

	"render-core/core"
	"render-core/math"
)

const testVertex = `#version 410 core
layout(location = 0) in vec3 position;
in vec2 unusedCoord;
uniform mat4 mvp;
void main() {
	gl_Position = mvp * vec4(position, 1.0);
}`

const testFragment = `#version 410 core
uniform float alpha;
uniform sampler2D albedo;
uniform vec4 palette[4];
// uniform float commented;
/* uniform float blocked; */
uniform float dead;
out vec4 fragColor;
void main() {
	fragColor = texture(albedo, vec2(0.5)) * palette[1] * alpha;
}`

func TestProgramReflection(t *testing.T) {
	d := NewDevice(4, 4)
	id, err := d.CreateProgram(testVertex, testFragment)
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	in := d.ProgramInputs(id)

	want := []core.UniformInfo{
		{Name: "albedo", Type: core.UniformSampler2D, Size: 1},
		{Name: "alpha", Type: core.UniformFloat, Size: 1},
		{Name: "mvp", Type: core.UniformMat4, Size: 1},
		{Name: "palette", Type: core.UniformVec4, Size: 4},
	}
	if len(in.Uniforms) != len(want) {
		t.Fatalf("uniforms = %+v, want %+v", in.Uniforms, want)
	}
	for i := range want {
		if in.Uniforms[i] != want[i] {
			t.Errorf("uniform %d = %+v, want %+v", i, in.Uniforms[i], want[i])
		}
	}
	if len(in.Attributes) != 1 || in.Attributes[0] != "position" {
		t.Errorf("attributes = %v, want [position]", in.Attributes)
	}
}

func TestProgramCompileErrors(t *testing.T) {
	d := NewDevice(4, 4)
	if _, err := d.CreateProgram(testVertex, "#error broken lighting\nvoid main() {}"); err == nil || !strings.Contains(err.Error(), "broken lighting") {
		t.Errorf("#error directive: got %v", err)
	}
	if _, err := d.CreateProgram("void vertex() {}", testFragment); err == nil || !strings.Contains(err.Error(), "missing main") {
		t.Errorf("missing main: got %v", err)
	}
	if d.LivePrograms() != 0 {
		t.Errorf("failed compiles left %d programs", d.LivePrograms())
	}
}

func TestSetUniformTypeCheck(t *testing.T) {
	d := NewDevice(4, 4)
	id, err := d.CreateProgram(testVertex, testFragment)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetUniform(id, "alpha", math.NewVec3(1, 2, 3)); err == nil {
		t.Error("vec3 accepted by a float uniform")
	}
	if err := d.SetUniform(id, "alpha", float32(0.25)); err != nil {
		t.Errorf("float: %v", err)
	}
	if err := d.SetUniform(id, "palette", []math.Vec4{{}, {}}); err != nil {
		t.Errorf("vec4 array: %v", err)
	}
	if err := d.SetUniform(id, "albedo", int32(3)); err != nil {
		t.Errorf("sampler unit: %v", err)
	}
	if err := d.SetUniform(id, "nothere", "ignored"); err != nil {
		t.Errorf("unknown uniform: %v", err)
	}
	if v, ok := d.Uniform(id, "alpha"); !ok || v != float32(0.25) {
		t.Errorf("alpha = %v, %v", v, ok)
	}
}

func TestHalfToFloat32(t *testing.T) {
	tests := []struct {
		in   uint16
		want float32
	}{
		{0x0000, 0},
		{0x3c00, 1},
		{0x3800, 0.5},
		{0xc000, -2},
		{0x7bff, 65504},
		{0x0001, 1.0 / (1 << 24)},
	}
	for _, tt := range tests {
		if got := halfToFloat32(tt.in); got != tt.want {
			t.Errorf("halfToFloat32(%#04x) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func newTexture(t *testing.T, d *Device, f core.InternalFormat, w, h, layers uint32) core.TextureID {
	t.Helper()
	kind := core.TextureKind2D
	if layers > 1 {
		kind = core.TextureKind2DArray
	}
	id, err := d.CreateTexture(core.TextureDesc{Kind: kind, Width: w, Height: h, Depth: layers, Levels: 1, Format: f})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	return id
}

func TestTexSubImage(t *testing.T) {
	d := NewDevice(4, 4)
	id := newTexture(t, d, core.RGBA8, 2, 1, 2)

	if err := d.TexSubImage(id, core.TextureKind2DArray, 0, 1, []byte{255, 0, 0, 255, 0, 0, 255, 255}); err != nil {
		t.Fatal(err)
	}
	img := d.ColorLayer(id, 0, 1)
	if got := img.RGBA64At(0, 0); got != (color.RGBA64{R: 0xffff, A: 0xffff}) {
		t.Errorf("pixel 0 = %v", got)
	}
	if got := img.RGBA64At(1, 0); got != (color.RGBA64{B: 0xffff, A: 0xffff}) {
		t.Errorf("pixel 1 = %v", got)
	}
	if got := d.ColorLayer(id, 0, 0).RGBA64At(0, 0); got != (color.RGBA64{}) {
		t.Errorf("layer 0 was written: %v", got)
	}

	if err := d.TexSubImage(id, core.TextureKind2DArray, 0, 0, []byte{1, 2, 3}); err == nil {
		t.Error("short upload accepted")
	}
	if err := d.TexSubImage(id, core.TextureKind2DArray, 0, 2, make([]byte, 8)); err == nil {
		t.Error("out of range layer accepted")
	}
}

func TestFramebufferCompleteness(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *Device)
		want  string
	}{
		{"empty", func(d *Device) {}, "missing attachment"},
		{"depth as colour", func(d *Device) {
			tex := newTexture(t, d, core.DepthComponent32F, 4, 4, 1)
			d.FramebufferTexture(core.AttachColor, 0, core.TextureKind2D, tex, 0, 0)
			d.DrawBuffers(1)
		}, "format"},
		{"size mismatch", func(d *Device) {
			d.FramebufferTexture(core.AttachColor, 0, core.TextureKind2D, newTexture(t, d, core.RGBA8, 4, 4, 1), 0, 0)
			d.FramebufferTexture(core.AttachDepth, 0, core.TextureKind2D, newTexture(t, d, core.DepthComponent24, 8, 4, 1), 0, 0)
			d.DrawBuffers(1)
		}, "size"},
		{"draw buffers", func(d *Device) {
			d.FramebufferTexture(core.AttachColor, 0, core.TextureKind2D, newTexture(t, d, core.RGBA8, 4, 4, 1), 0, 0)
			d.DrawBuffers(2)
		}, "draw buffers"},
		{"layer range", func(d *Device) {
			d.FramebufferTexture(core.AttachColor, 0, core.TextureKind2DArray, newTexture(t, d, core.RGBA8, 4, 4, 2), 0, 2)
			d.DrawBuffers(1)
		}, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDevice(4, 4)
			fb, err := d.CreateFramebuffer()
			if err != nil {
				t.Fatal(err)
			}
			d.BindFramebuffer(fb)
			tt.setup(d)
			err = d.CheckFramebuffer()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("CheckFramebuffer = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestClearRespectsDrawBuffers(t *testing.T) {
	d := NewDevice(4, 4)
	first := newTexture(t, d, core.RGBA8, 2, 2, 1)
	second := newTexture(t, d, core.RGBA8, 2, 2, 1)
	depth := newTexture(t, d, core.DepthComponent32F, 2, 2, 1)

	fb, _ := d.CreateFramebuffer()
	d.BindFramebuffer(fb)
	d.FramebufferTexture(core.AttachColor, 0, core.TextureKind2D, first, 0, 0)
	d.FramebufferTexture(core.AttachColor, 1, core.TextureKind2D, second, 0, 0)
	d.FramebufferTexture(core.AttachDepth, 0, core.TextureKind2D, depth, 0, 0)
	d.DrawBuffers(1)
	if err := d.CheckFramebuffer(); err != nil {
		t.Fatal(err)
	}

	d.Clear(core.ClearColorAndDepth(1, 1, 1, 1, 0.75))

	white := color.RGBA64{R: 0xffff, G: 0xffff, B: 0xffff, A: 0xffff}
	if got := d.ColorLayer(first, 0, 0).RGBA64At(1, 1); got != white {
		t.Errorf("slot 0 = %v, want white", got)
	}
	if got := d.ColorLayer(second, 0, 0).RGBA64At(1, 1); got != (color.RGBA64{}) {
		t.Errorf("slot 1 outside draw buffers was cleared: %v", got)
	}
	for i, v := range d.DepthLayer(depth, 0) {
		if v != 0.75 {
			t.Fatalf("depth[%d] = %v, want 0.75", i, v)
		}
	}
}

func TestClearScreen(t *testing.T) {
	d := NewDevice(3, 2)
	d.Clear(core.ClearDepth(1))
	if got := d.Screen().RGBA64At(2, 1); got != (color.RGBA64{}) {
		t.Errorf("depth-only clear touched colour: %v", got)
	}
	if d.ScreenDepth()[5] != 1 {
		t.Errorf("screen depth = %v", d.ScreenDepth())
	}
}

func TestGenerateMipmapAverages(t *testing.T) {
	d := NewDevice(4, 4)
	id, err := d.CreateTexture(core.TextureDesc{Kind: core.TextureKind2D, Width: 2, Height: 2, Depth: 1, Levels: 2, Format: core.RGBA8})
	if err != nil {
		t.Fatal(err)
	}
	px := []byte{
		255, 255, 255, 255, 255, 255, 255, 255,
		255, 255, 255, 255, 255, 255, 255, 255,
	}
	if err := d.TexSubImage(id, core.TextureKind2D, 0, 0, px); err != nil {
		t.Fatal(err)
	}
	d.GenerateMipmap(id, core.TextureKind2D)

	top := d.ColorLayer(id, 1, 0)
	if top.Bounds().Dx() != 1 || top.Bounds().Dy() != 1 {
		t.Fatalf("level 1 bounds = %v", top.Bounds())
	}
	if got := top.RGBA64At(0, 0); got.R < 0xff00 || got.A < 0xff00 {
		t.Errorf("level 1 = %v, want white", got)
	}
	if d.MipGenerations(id) != 1 {
		t.Errorf("MipGenerations = %d", d.MipGenerations(id))
	}
}

func TestFailAllocations(t *testing.T) {
	d := NewDevice(4, 4)
	d.FailAllocations = true
	if _, err := d.CreateBuffer(); err == nil {
		t.Error("CreateBuffer succeeded")
	}
	if _, err := d.CreateFramebuffer(); err == nil {
		t.Error("CreateFramebuffer succeeded")
	}
	if d.LiveResources() != 0 {
		t.Errorf("LiveResources = %d", d.LiveResources())
	}
}

func TestDeleteTextureUnbindsUnits(t *testing.T) {
	d := NewDevice(4, 4)
	tex := newTexture(t, d, core.RGBA8, 1, 1, 1)
	d.BindTexture(2, core.TextureKind2D, tex)
	d.DeleteTexture(tex)
	d.DrawArrays(3, 1)
	if units := d.Draws()[0].Textures; len(units) != 0 {
		t.Errorf("units after delete = %v", units)
	}
}
