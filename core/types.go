package core

import (
	"fmt"

	"render-core/math"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite       = Color{1, 1, 1, 1}
	ColorBlack       = Color{0, 0, 0, 1}
	ColorTransparent = Color{0, 0, 0, 0}
)

// Vec4 returns the colour as a vector for uniform upload.
func (c Color) Vec4() math.Vec4 {
	return math.NewVec4(c.R, c.G, c.B, c.A)
}

// Viewport is a pixel rectangle of the bound render target.
type Viewport struct {
	X, Y          int32
	Width, Height uint32
}

// NewViewport returns a viewport covering a width x height target.
func NewViewport(width, height uint32) Viewport {
	return Viewport{Width: width, Height: height}
}

// AspectRatio returns width / height, or 1 for an empty viewport.
func (v Viewport) AspectRatio() float32 {
	if v.Height == 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

func (v Viewport) validate() error {
	if v.Width == 0 || v.Height == 0 {
		return unsupported("empty viewport %dx%d", v.Width, v.Height)
	}
	return nil
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", v.Width, v.Height, v.X, v.Y)
}

// CPUTexture is decoded pixel data plus the sampler settings that came with
// it, ready to be uploaded with NewTexture2DFromCPU.
type CPUTexture struct {
	Name          string
	Width, Height uint32
	Format        Format
	DataType      DataType
	Data          []byte

	MinFilter Interpolation
	MagFilter Interpolation
	MipFilter *Interpolation
	WrapS     Wrapping
	WrapT     Wrapping
}

// Options returns texture options matching the CPU texture's settings.
func (t *CPUTexture) Options() TextureOptions {
	opts := DefaultTextureOptions()
	opts.Format = t.Format
	opts.DataType = t.DataType
	opts.MinFilter = t.MinFilter
	opts.MagFilter = t.MagFilter
	opts.MipFilter = t.MipFilter
	opts.WrapS = t.WrapS
	opts.WrapT = t.WrapT
	return opts
}
