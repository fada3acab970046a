package core

import (
	"fmt"
	"math/bits"
)

// Format is the channel layout of a colour texture.
type Format uint8

const (
	FormatR Format = iota
	FormatRG
	FormatRGB
	FormatRGBA
	FormatSRGB
	FormatSRGBA
)

func (f Format) channels() int {
	switch f {
	case FormatR:
		return 1
	case FormatRG:
		return 2
	case FormatRGB, FormatSRGB:
		return 3
	}
	return 4
}

func (f Format) String() string {
	names := [...]string{"r", "rg", "rgb", "rgba", "srgb", "srgba"}
	if int(f) < len(names) {
		return names[f]
	}
	return fmt.Sprintf("channels(%d)", uint8(f))
}

// DataType is the scalar type of buffer elements and texture channels.
type DataType uint8

const (
	UnsignedByte DataType = iota
	UnsignedShort
	UnsignedInt
	Int
	HalfFloat
	Float
)

// Size returns the size in bytes of one scalar.
func (t DataType) Size() int {
	switch t {
	case UnsignedByte:
		return 1
	case UnsignedShort, HalfFloat:
		return 2
	}
	return 4
}

func (t DataType) String() string {
	names := [...]string{"u8", "u16", "u32", "i32", "f16", "f32"}
	if int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// DepthFormat is the precision of a depth texture.
type DepthFormat uint8

const (
	Depth16 DepthFormat = iota
	Depth24
	Depth32F
)

type Interpolation uint8

const (
	Nearest Interpolation = iota
	Linear
)

// Mip returns a mip filter setting for TextureOptions.MipFilter.
func Mip(i Interpolation) *Interpolation {
	return &i
}

type Wrapping uint8

const (
	ClampToEdge Wrapping = iota
	Repeat
	MirroredRepeat
)

// InternalFormat is the sized storage format negotiated from a Format and
// DataType pair.
type InternalFormat uint8

const (
	R8 InternalFormat = iota + 1
	RG8
	RGB8
	RGBA8
	SRGB8
	SRGB8Alpha8
	R16F
	RG16F
	RGB16F
	RGBA16F
	R32F
	RG32F
	RGB32F
	RGBA32F
	DepthComponent16
	DepthComponent24
	DepthComponent32F
)

type formatKey struct {
	format   Format
	dataType DataType
}

var internalFormats = map[formatKey]InternalFormat{
	{FormatR, UnsignedByte}:     R8,
	{FormatRG, UnsignedByte}:    RG8,
	{FormatRGB, UnsignedByte}:   RGB8,
	{FormatRGBA, UnsignedByte}:  RGBA8,
	{FormatSRGB, UnsignedByte}:  SRGB8,
	{FormatSRGBA, UnsignedByte}: SRGB8Alpha8,
	{FormatR, HalfFloat}:        R16F,
	{FormatRG, HalfFloat}:       RG16F,
	{FormatRGB, HalfFloat}:      RGB16F,
	{FormatRGBA, HalfFloat}:     RGBA16F,
	{FormatR, Float}:            R32F,
	{FormatRG, Float}:           RG32F,
	{FormatRGB, Float}:          RGB32F,
	{FormatRGBA, Float}:         RGBA32F,
}

func internalFormat(f Format, t DataType) (InternalFormat, error) {
	if in, ok := internalFormats[formatKey{f, t}]; ok {
		return in, nil
	}
	return 0, unsupported("no texture format for %s/%s", f, t)
}

func depthInternalFormat(f DepthFormat) (InternalFormat, error) {
	switch f {
	case Depth16:
		return DepthComponent16, nil
	case Depth24:
		return DepthComponent24, nil
	case Depth32F:
		return DepthComponent32F, nil
	}
	return 0, unsupported("unknown depth format %d", f)
}

// IsDepth reports whether f stores depth values.
func (f InternalFormat) IsDepth() bool {
	return f >= DepthComponent16
}

// IsSRGB reports whether f is stored with the sRGB transfer function.
func (f InternalFormat) IsSRGB() bool {
	return f == SRGB8 || f == SRGB8Alpha8
}

// Channels returns the number of colour channels, or 1 for depth formats.
func (f InternalFormat) Channels() int {
	switch f {
	case R8, R16F, R32F, DepthComponent16, DepthComponent24, DepthComponent32F:
		return 1
	case RG8, RG16F, RG32F:
		return 2
	case RGB8, SRGB8, RGB16F, RGB32F:
		return 3
	}
	return 4
}

// DataType returns the scalar type pixel data for f is uploaded as.
func (f InternalFormat) DataType() DataType {
	switch {
	case f >= R16F && f <= RGBA16F:
		return HalfFloat
	case f >= R32F && f <= RGBA32F, f == DepthComponent32F:
		return Float
	case f == DepthComponent16:
		return UnsignedShort
	case f == DepthComponent24:
		return UnsignedInt
	}
	return UnsignedByte
}

// BytesPerPixel returns the upload size of one pixel.
func (f InternalFormat) BytesPerPixel() int {
	return f.Channels() * f.DataType().Size()
}

func (f InternalFormat) String() string {
	names := [...]string{"none", "r8", "rg8", "rgb8", "rgba8", "srgb8", "srgb8_alpha8",
		"r16f", "rg16f", "rgb16f", "rgba16f", "r32f", "rg32f", "rgb32f", "rgba32f",
		"depth16", "depth24", "depth32f"}
	if int(f) < len(names) {
		return names[f]
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// mipLevels returns the number of levels allocated for a texture: 1 without
// a mip filter, otherwise floor(log2(max(w, h))) + 1.
func mipLevels(mipFilter *Interpolation, width, height uint32) uint32 {
	if mipFilter == nil {
		return 1
	}
	return uint32(bits.Len32(max(width, height, 1)))
}

// MipLevelCount exposes the level count rule for callers sizing uploads.
func MipLevelCount(mipFilter *Interpolation, width, height uint32) uint32 {
	return mipLevels(mipFilter, width, height)
}
