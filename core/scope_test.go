package core_test

import (
	"errors"
	"testing"

	"render-core/core"
	"render-core/internal/software"
)

func assertRestored(t *testing.T, ctx *core.Context, dev *software.Device, want core.FramebufferID) {
	t.Helper()
	if got := dev.BoundFramebuffer(); got != want {
		t.Errorf("device framebuffer = %d, want %d", got, want)
	}
	if got := ctx.BoundFramebuffer(); got != want {
		t.Errorf("context framebuffer = %d, want %d", got, want)
	}
	if ctx.ScopeDepth() != 0 {
		t.Errorf("scope depth = %d, want 0", ctx.ScopeDepth())
	}
	if dev.LiveFramebuffers() != 0 {
		t.Errorf("live framebuffers = %d, want 0", dev.LiveFramebuffers())
	}
}

func TestWriteScopeRestores(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2D(ctx, 4, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	var inside core.FramebufferID
	err = tex.Write(core.ClearNone(), func() error {
		inside = dev.BoundFramebuffer()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if inside == 0 {
		t.Error("texture framebuffer not bound inside the scope")
	}
	assertRestored(t, ctx, dev, 0)
}

func TestWriteScopeRestoresOnError(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2D(ctx, 4, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	errAbort := errors.New("abort")
	if err := tex.Write(core.ClearNone(), func() error { return errAbort }); !errors.Is(err, errAbort) {
		t.Fatalf("err = %v, want %v", err, errAbort)
	}
	assertRestored(t, ctx, dev, 0)
}

func TestWriteScopeRestoresOnPanic(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2D(ctx, 4, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic swallowed")
			}
		}()
		_ = tex.Write(core.ClearNone(), func() error { panic("boom") })
	}()
	assertRestored(t, ctx, dev, 0)
}

func TestNestedScopes(t *testing.T) {
	ctx, dev := newContext(t)
	outer, err := core.NewTexture2D(ctx, 4, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer outer.Release()
	inner, err := core.NewTexture2D(ctx, 2, 2, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer inner.Release()

	err = outer.Write(core.ClearNone(), func() error {
		outerFB := dev.BoundFramebuffer()
		err := inner.Write(core.ClearColor(1, 0, 0, 1), func() error {
			if ctx.ScopeDepth() != 2 {
				t.Errorf("scope depth = %d, want 2", ctx.ScopeDepth())
			}
			if dev.BoundFramebuffer() == outerFB {
				t.Error("inner scope did not bind its own framebuffer")
			}
			return nil
		})
		if err != nil {
			return err
		}
		if dev.BoundFramebuffer() != outerFB {
			t.Errorf("after inner scope bound = %d, want %d", dev.BoundFramebuffer(), outerFB)
		}
		if ctx.ScopeDepth() != 1 {
			t.Errorf("scope depth = %d, want 1", ctx.ScopeDepth())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	assertRestored(t, ctx, dev, 0)
	if got := dev.ColorLayer(inner.ID(), 0, 0).RGBA64At(0, 0); got != red {
		t.Errorf("inner = %v, want red", got)
	}
}

func TestScreenWrite(t *testing.T) {
	ctx, dev := newContext(t)
	err := ctx.Screen().Write(core.ClearColorAndDepth(1, 0, 0, 1, 1), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := dev.Screen().RGBA64At(10, 10); got != red {
		t.Errorf("screen = %v, want red", got)
	}
	if got := dev.ScreenDepth()[0]; got != 1 {
		t.Errorf("screen depth = %v, want 1", got)
	}
	if v := ctx.Screen().Viewport(); v.Width != 64 || v.Height != 32 {
		t.Errorf("screen viewport = %v", v)
	}
}

func TestRenderTargetArrayLayers(t *testing.T) {
	ctx, dev := newContext(t)
	color, err := core.NewTexture2DArray(ctx, 4, 4, 2, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer color.Release()
	depth, err := core.NewDepthTexture2DArray(ctx, 4, 4, 2, core.DefaultDepthTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer depth.Release()

	rt, err := core.NewRenderTargetArray(ctx, color, depth)
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.Write([]uint32{1}, 1, core.ClearColorAndDepth(1, 0, 0, 1, 1), nil); err != nil {
		t.Fatal(err)
	}
	if got := dev.ColorLayer(color.ID(), 0, 1).RGBA64At(0, 0); got != red {
		t.Errorf("color layer 1 = %v", got)
	}
	if got := dev.DepthLayer(depth.ID(), 1)[3]; got != 1 {
		t.Errorf("depth layer 1 = %v", got)
	}
	if got := dev.DepthLayer(depth.ID(), 0)[3]; got != 0 {
		t.Errorf("depth layer 0 = %v, want untouched", got)
	}
	assertRestored(t, ctx, dev, 0)
}

func TestRenderTargetValidation(t *testing.T) {
	ctx, dev := newContext(t)
	color, err := core.NewTexture2DArray(ctx, 4, 4, 2, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer color.Release()
	small, err := core.NewDepthTexture2D(ctx, 2, 2, core.DefaultDepthTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer small.Release()
	color2D, err := core.NewTexture2D(ctx, 4, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer color2D.Release()

	tests := []struct {
		name  string
		write func() error
	}{
		{"layer out of range", func() error {
			return color.Write([]uint32{2}, core.ClearNone(), nil)
		}},
		{"layer attached twice", func() error {
			return color.Write([]uint32{0, 0}, core.ClearNone(), nil)
		}},
		{"no attachments", func() error {
			return color.Write(nil, core.ClearNone(), nil)
		}},
		{"size mismatch", func() error {
			_, err := core.NewRenderTarget(ctx, color2D, small)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.write(); !errors.Is(err, core.ErrUnsupportedConfiguration) {
				t.Errorf("err = %v, want unsupported configuration", err)
			}
			assertRestored(t, ctx, dev, 0)
		})
	}
}

func TestTooManyAttachments(t *testing.T) {
	caps := software.DefaultCaps()
	caps.MaxColorAttachments = 2
	dev := software.NewDeviceWithCaps(8, 8, caps)
	ctx, err := core.NewContext(dev, core.DefaultContextConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Release()
	tex, err := core.NewTexture2DArray(ctx, 4, 4, 3, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	if err := tex.Write([]uint32{0, 1, 2}, core.ClearNone(), nil); !errors.Is(err, core.ErrUnsupportedConfiguration) {
		t.Errorf("err = %v", err)
	}
}

func TestFramebufferAllocationFailure(t *testing.T) {
	ctx, dev := newContext(t)
	tex, err := core.NewTexture2D(ctx, 4, 4, core.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	dev.FailAllocations = true
	err = tex.Write(core.ClearNone(), func() error {
		t.Error("render ran without a framebuffer")
		return nil
	})
	dev.FailAllocations = false
	if !errors.Is(err, core.ErrDeviceResource) {
		t.Errorf("err = %v, want device resource error", err)
	}
	assertRestored(t, ctx, dev, 0)
}
