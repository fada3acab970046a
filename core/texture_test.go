package core_test

import (
	"errors"
	"testing"

	"render-core/core"
	"render-core/internal/software"
)

func TestMipLevelCount(t *testing.T) {
	tests := []struct {
		name          string
		mip           *core.Interpolation
		width, height uint32
		want          uint32
	}{
		{"no filter", nil, 1024, 1024, 1},
		{"one by one", core.Mip(core.Linear), 1, 1, 1},
		{"square", core.Mip(core.Linear), 4, 4, 3},
		{"non power of two", core.Mip(core.Nearest), 5, 3, 3},
		{"wide", core.Mip(core.Linear), 1024, 1, 11},
		{"tall", core.Mip(core.Linear), 2, 300, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.MipLevelCount(tt.mip, tt.width, tt.height); got != tt.want {
				t.Errorf("MipLevelCount(%dx%d) = %d, want %d", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func mippedOptions() core.TextureOptions {
	opts := core.DefaultTextureOptions()
	opts.MipFilter = core.Mip(core.Linear)
	return opts
}

func TestTexture2DArrayShape(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2DArray(ctx, 4, 4, 2, mippedOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	if tex.MipLevels() != 3 {
		t.Errorf("mip levels = %d, want 3", tex.MipLevels())
	}
	if tex.Depth() != 2 {
		t.Errorf("depth = %d, want 2", tex.Depth())
	}
	desc, ok := dev.TextureDesc(tex.ID())
	if !ok || desc.Levels != 3 || desc.Depth != 2 || desc.Format != core.RGBA8 {
		t.Errorf("device desc = %+v", desc)
	}
}

func TestOneByOneDisablesMipFilter(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2D(ctx, 1, 1, mippedOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	if tex.MipLevels() != 1 {
		t.Errorf("mip levels = %d, want 1", tex.MipLevels())
	}
	if dev.SamplerParams(tex.ID()).Mipmapped {
		t.Error("sampler still mip-mapped for a 1x1 texture")
	}
}

func TestWriteSingleLayer(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2DArray(ctx, 4, 4, 2, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	if err := tex.Fill([][]byte{solid(4, 4, 255, 255, 255, 255), solid(4, 4, 255, 255, 255, 255)}); err != nil {
		t.Fatal(err)
	}
	if err := tex.Write([]uint32{1}, core.ClearColor(0, 0, 0, 1), nil); err != nil {
		t.Fatal(err)
	}

	if got := dev.ColorLayer(tex.ID(), 0, 1).RGBA64At(2, 2); got != black {
		t.Errorf("layer 1 = %v, want black", got)
	}
	if got := dev.ColorLayer(tex.ID(), 0, 0).RGBA64At(2, 2); got != white {
		t.Errorf("layer 0 = %v, want untouched white", got)
	}
}

func TestWriteMultipleLayersOnePass(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2DArray(ctx, 8, 8, 3, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()
	effect, err := core.NewImageEffect(ctx, `#version 410 core
layout(location = 0) out vec4 a;
layout(location = 1) out vec4 b;
void main() { a = vec4(1.0); b = vec4(0.0); }
`)
	if err != nil {
		t.Fatal(err)
	}
	defer effect.Release()

	err = tex.Write([]uint32{2, 0}, core.ClearColor(1, 0, 0, 1), func() error {
		return effect.Apply(core.DefaultRenderStates(), core.NewViewport(8, 8))
	})
	if err != nil {
		t.Fatal(err)
	}
	draws := dev.Draws()
	if len(draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(draws))
	}
	if c := draws[0].Colors; len(c) != 2 || c[0].Layer != 2 || c[1].Layer != 0 {
		t.Errorf("attachments = %+v, want slot 0 -> layer 2, slot 1 -> layer 0", c)
	}
	for _, layer := range []uint32{0, 2} {
		if got := dev.ColorLayer(tex.ID(), 0, layer).RGBA64At(0, 0); got != red {
			t.Errorf("layer %d = %v, want red", layer, got)
		}
	}
	if got := dev.ColorLayer(tex.ID(), 0, 1).RGBA64At(0, 0); got == red {
		t.Error("layer 1 cleared but not attached")
	}
}

func TestGenerateMipMapsIdempotent(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2D(ctx, 4, 4, mippedOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()
	if err := tex.Fill(solid(4, 4, 255, 0, 0, 255)); err != nil {
		t.Fatal(err)
	}

	tex.GenerateMipMaps()
	first := dev.ColorLayer(tex.ID(), 1, 0).RGBA64At(0, 0)
	last := dev.ColorLayer(tex.ID(), 2, 0).RGBA64At(0, 0)
	tex.GenerateMipMaps()

	if got := dev.ColorLayer(tex.ID(), 1, 0).RGBA64At(0, 0); got != first {
		t.Errorf("level 1 changed on second generation: %v != %v", got, first)
	}
	if got := dev.ColorLayer(tex.ID(), 2, 0).RGBA64At(0, 0); got != last || got != red {
		t.Errorf("level 2 = %v, want %v", got, red)
	}
}

func TestGenerateMipMapsSingleLevelNoop(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2D(ctx, 4, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()
	tex.GenerateMipMaps()
	if n := dev.MipGenerations(tex.ID()); n != 0 {
		t.Errorf("mip generations = %d, want 0", n)
	}
}

func TestAutoMipMaps(t *testing.T) {
	cfg := core.DefaultContextConfig()
	cfg.AutoMipMaps = true
	ctx, dev := newContextWith(t, cfg)
	tex, err := core.NewTexture2D(ctx, 4, 4, mippedOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	if err := tex.Write(core.ClearColor(1, 1, 1, 1), nil); err != nil {
		t.Fatal(err)
	}
	if n := dev.MipGenerations(tex.ID()); n != 1 {
		t.Errorf("mip generations = %d, want 1", n)
	}
	if err := tex.Write(core.ClearNone(), func() error { return errors.New("abort") }); err == nil {
		t.Fatal("expected error")
	}
	if n := dev.MipGenerations(tex.ID()); n != 1 {
		t.Errorf("mip generations = %d after failed scope, want 1", n)
	}
}

func TestMipsNotImplicit(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2D(ctx, 4, 4, mippedOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()
	if err := tex.Write(core.ClearColor(1, 1, 1, 1), nil); err != nil {
		t.Fatal(err)
	}
	if n := dev.MipGenerations(tex.ID()); n != 0 {
		t.Errorf("mip generations = %d, want 0 without AutoMipMaps", n)
	}
}

func TestTextureUnsupportedConfigurations(t *testing.T) {
	caps := software.DefaultCaps()
	caps.FloatLinearFiltering = false
	caps.MaxArrayLayers = 4
	dev := software.NewDeviceWithCaps(8, 8, caps)
	ctx, err := core.NewContext(dev, core.DefaultContextConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Release()

	srgbFloat := core.DefaultTextureOptions()
	srgbFloat.Format, srgbFloat.DataType = core.FormatSRGBA, core.Float
	linearFloat := core.DefaultTextureOptions()
	linearFloat.DataType = core.Float

	tests := []struct {
		name   string
		create func() error
	}{
		{"zero width", func() error {
			_, err := core.NewTexture2D(ctx, 0, 4, core.DefaultTextureOptions())
			return err
		}},
		{"too large", func() error {
			_, err := core.NewTexture2D(ctx, 8192, 4, core.DefaultTextureOptions())
			return err
		}},
		{"too many layers", func() error {
			_, err := core.NewTexture2DArray(ctx, 4, 4, 5, core.DefaultTextureOptions())
			return err
		}},
		{"srgb float", func() error {
			_, err := core.NewTexture2D(ctx, 4, 4, srgbFloat)
			return err
		}},
		{"linear float", func() error {
			_, err := core.NewTexture2D(ctx, 4, 4, linearFloat)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.create()
			if !errors.Is(err, core.ErrUnsupportedConfiguration) {
				t.Errorf("err = %v, want unsupported configuration", err)
			}
		})
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("live textures = %d after failed creations", dev.LiveTextures())
	}
}

func TestTextureAllocationFailure(t *testing.T) {
	ctx, dev := newContext(t)
	dev.FailAllocations = true
	_, err := core.NewTexture2DArray(ctx, 4, 4, 2, core.DefaultTextureOptions())
	dev.FailAllocations = false
	if !errors.Is(err, core.ErrDeviceResource) {
		t.Errorf("err = %v, want device resource error", err)
	}
}

func TestTextureFillSizeMismatch(t *testing.T) {
	ctx, _ := newContext(t)
	tex, err := core.NewTexture2D(ctx, 4, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()
	if err := tex.Fill(make([]byte, 10)); !errors.Is(err, core.ErrUnsupportedConfiguration) {
		t.Errorf("err = %v", err)
	}
}

func TestTextureReleaseOnce(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2D(ctx, 4, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	tex.Release()
	tex.Release()
	if dev.LiveTextures() != 0 {
		t.Errorf("live textures = %d", dev.LiveTextures())
	}
	if err := tex.Write(core.ClearNone(), nil); !errors.Is(err, core.ErrDeviceResource) {
		t.Errorf("write after release: %v", err)
	}
}

func TestCubeMapFaces(t *testing.T) {
	ctx, dev := newContext(t)
	cube, err := core.NewTextureCubeMap(ctx, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer cube.Release()

	if err := cube.Write(core.CubeFaceNegativeY, core.ClearColor(1, 0, 0, 1), nil); err != nil {
		t.Fatal(err)
	}
	for face := core.CubeFacePositiveX; face <= core.CubeFaceNegativeZ; face++ {
		got := dev.ColorLayer(cube.ID(), 0, uint32(face)).RGBA64At(1, 1)
		if want := face == core.CubeFaceNegativeY; (got == red) != want {
			t.Errorf("face %d = %v, cleared %v", face, got, !want)
		}
	}
}

func TestDepthTextureArrayWrite(t *testing.T) {
	ctx, dev := newContext(t)
	depth, err := core.NewDepthTexture2DArray(ctx, 4, 4, 3, core.DefaultDepthTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer depth.Release()

	if err := depth.Write(1, core.ClearDepth(0.5), nil); err != nil {
		t.Fatal(err)
	}
	if got := dev.DepthLayer(depth.ID(), 1)[0]; got != 0.5 {
		t.Errorf("layer 1 depth = %v, want 0.5", got)
	}
	if got := dev.DepthLayer(depth.ID(), 0)[0]; got != 0 {
		t.Errorf("layer 0 depth = %v, want 0", got)
	}
	if depth.MipLevels() != 1 {
		t.Errorf("depth mip levels = %d", depth.MipLevels())
	}
}

func TestTexture2DFromCPU(t *testing.T) {
	ctx, dev := newContext(t)
	cpu := &core.CPUTexture{
		Width: 2, Height: 2,
		Format: core.FormatRGBA, DataType: core.UnsignedByte,
		Data:      solid(2, 2, 255, 0, 0, 255),
		MinFilter: core.Linear, MagFilter: core.Linear,
		MipFilter: core.Mip(core.Linear),
		WrapS:     core.Repeat, WrapT: core.Repeat,
	}
	tex, err := core.NewTexture2DFromCPU(ctx, cpu)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	if tex.MipLevels() != 2 {
		t.Errorf("mip levels = %d, want 2", tex.MipLevels())
	}
	if got := dev.ColorLayer(tex.ID(), 1, 0).RGBA64At(0, 0); got != red {
		t.Errorf("level 1 = %v, want red", got)
	}
	if p := dev.SamplerParams(tex.ID()); p.WrapS != core.Repeat || !p.Mipmapped {
		t.Errorf("sampler params = %+v", p)
	}
}

func TestTexture2DArrayFromCPUMismatch(t *testing.T) {
	ctx, _ := newContext(t)
	layers := []*core.CPUTexture{
		{Width: 2, Height: 2, Format: core.FormatRGBA, Data: solid(2, 2, 0, 0, 0, 0)},
		{Width: 4, Height: 4, Format: core.FormatRGBA, Data: solid(4, 4, 0, 0, 0, 0)},
	}
	if _, err := core.NewTexture2DArrayFromCPU(ctx, layers, core.DefaultTextureOptions()); !errors.Is(err, core.ErrUnsupportedConfiguration) {
		t.Errorf("err = %v", err)
	}
}

func TestFromCPUNilInputs(t *testing.T) {
	ctx, _ := newContext(t)
	face := &core.CPUTexture{Width: 2, Height: 2, Format: core.FormatRGBA, Data: solid(2, 2, 0, 0, 0, 0)}
	var faces [6]*core.CPUTexture
	for i := range faces {
		faces[i] = face
	}
	faces[3] = nil
	if _, err := core.NewTextureCubeMapFromCPU(ctx, faces); !errors.Is(err, core.ErrUnsupportedConfiguration) {
		t.Errorf("cube err = %v", err)
	}
	if _, err := core.NewTexture2DArrayFromCPU(ctx, []*core.CPUTexture{face, nil}, core.DefaultTextureOptions()); !errors.Is(err, core.ErrUnsupportedConfiguration) {
		t.Errorf("array err = %v", err)
	}
	if _, err := core.NewTexture2DFromCPU(ctx, nil); !errors.Is(err, core.ErrUnsupportedConfiguration) {
		t.Errorf("2d err = %v", err)
	}
}

func TestFormatStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{core.FormatSRGBA.String(), "srgba"},
		{core.Format(200).String(), "channels(200)"},
		{core.Float.String(), "f32"},
		{core.DataType(99).String(), "type(99)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
