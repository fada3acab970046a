package core_test

import (
	"bytes"
	"image/color"
	"testing"

	"render-core/core"
	"render-core/internal/software"
)

func newContext(t *testing.T) (*core.Context, *software.Device) {
	t.Helper()
	return newContextWith(t, core.DefaultContextConfig())
}

func newContextWith(t *testing.T, cfg core.ContextConfig) (*core.Context, *software.Device) {
	t.Helper()
	dev := software.NewDevice(64, 32)
	ctx, err := core.NewContext(dev, cfg)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	ctx.SetScreenSize(64, 32)
	t.Cleanup(ctx.Release)
	return ctx, dev
}

func solid(width, height int, px ...byte) []byte {
	return bytes.Repeat(px, width*height)
}

var (
	white = color.RGBA64{0xffff, 0xffff, 0xffff, 0xffff}
	black = color.RGBA64{0, 0, 0, 0xffff}
	red   = color.RGBA64{0xffff, 0, 0, 0xffff}
)

const fullscreenFragment = `#version 410 core
in vec2 uv;
uniform sampler2D source;
uniform float strength;
out vec4 outColor;
void main() {
    outColor = texture(source, uv) * strength;
}
`

func TestNewContextNilDevice(t *testing.T) {
	if _, err := core.NewContext(nil, core.DefaultContextConfig()); err == nil {
		t.Fatal("expected error for nil device")
	}
}

func TestContextReleasedAfterLastResource(t *testing.T) {
	dev := software.NewDevice(8, 8)
	ctx, err := core.NewContext(dev, core.DefaultContextConfig())
	if err != nil {
		t.Fatal(err)
	}
	tex, err := core.NewTexture2D(ctx, 4, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}

	ctx.Release()
	if dev.Released() {
		t.Fatal("device released while a texture is alive")
	}
	ctx.Release()
	if dev.Released() {
		t.Fatal("second owner release dropped a resource reference")
	}

	tex.Release()
	if !dev.Released() {
		t.Fatal("device not released after the last resource")
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("live textures = %d, want 0", dev.LiveTextures())
	}
}

func TestDefaultContextConfig(t *testing.T) {
	cfg := core.DefaultContextConfig()
	if !cfg.AliasingCheck {
		t.Error("aliasing check should default on")
	}
	if cfg.AutoMipMaps {
		t.Error("auto mip maps should default off")
	}
}
