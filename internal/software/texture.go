package software

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"render-core/core"
)

type texture struct {
	desc   core.TextureDesc
	params core.SamplerParams
	// color[level][layer]; nil for depth formats.
	color [][]*image.RGBA64
	// depth[layer], level 0 only.
	depth [][]float32

	mipGenerations int
}

func levelSize(size, level uint32) int {
	return int(max(size>>level, 1))
}

func (d *Device) CreateTexture(desc core.TextureDesc) (core.TextureID, error) {
	if desc.Width == 0 || desc.Height == 0 || desc.Depth == 0 || desc.Levels == 0 {
		return 0, fmt.Errorf("software device: invalid texture shape %dx%dx%d/%d", desc.Width, desc.Height, desc.Depth, desc.Levels)
	}
	id, err := d.allocate()
	if err != nil {
		return 0, err
	}
	t := &texture{desc: desc}
	if desc.Format.IsDepth() {
		t.depth = make([][]float32, desc.Depth)
		for i := range t.depth {
			t.depth[i] = make([]float32, int(desc.Width)*int(desc.Height))
		}
	} else {
		t.color = make([][]*image.RGBA64, desc.Levels)
		for l := range t.color {
			w, h := levelSize(desc.Width, uint32(l)), levelSize(desc.Height, uint32(l))
			t.color[l] = make([]*image.RGBA64, desc.Depth)
			for i := range t.color[l] {
				t.color[l][i] = image.NewRGBA64(image.Rect(0, 0, w, h))
			}
		}
	}
	d.textures[core.TextureID(id)] = t
	return core.TextureID(id), nil
}

func (d *Device) TexParameters(id core.TextureID, _ core.TextureKind, params core.SamplerParams) {
	if t, ok := d.textures[id]; ok {
		t.params = params
	}
}

func (d *Device) TexSubImage(id core.TextureID, _ core.TextureKind, level, layer uint32, data []byte) error {
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("software device: unknown texture %d", id)
	}
	if level >= t.desc.Levels || layer >= t.desc.Depth {
		return fmt.Errorf("software device: level %d layer %d out of range", level, layer)
	}
	f := t.desc.Format
	w, h := levelSize(t.desc.Width, level), levelSize(t.desc.Height, level)
	bpp := f.BytesPerPixel()
	if len(data) < w*h*bpp {
		return fmt.Errorf("software device: %d bytes for %dx%d %s", len(data), w, h, f)
	}

	if f.IsDepth() {
		dst := t.depth[layer]
		for i := range dst {
			dst[i] = float32(decodeScalar(f, data[i*bpp:]))
		}
		return nil
	}

	img := t.color[level][layer]
	channels := f.Channels()
	size := f.DataType().Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := data[(y*w+x)*bpp:]
			v := [4]float64{0, 0, 0, 1}
			for c := 0; c < channels; c++ {
				v[c] = decodeScalar(f, px[c*size:])
			}
			img.SetRGBA64(x, y, toRGBA64(v))
		}
	}
	return nil
}

// decodeScalar reads one channel and returns it normalized to [0, 1] for
// integer formats or as-is for float formats.
func decodeScalar(f core.InternalFormat, b []byte) float64 {
	switch f.DataType() {
	case core.UnsignedByte:
		return float64(b[0]) / 0xff
	case core.UnsignedShort:
		return float64(binary.LittleEndian.Uint16(b)) / 0xffff
	case core.UnsignedInt:
		return float64(binary.LittleEndian.Uint32(b)) / 0xffffffff
	case core.HalfFloat:
		return float64(halfToFloat32(binary.LittleEndian.Uint16(b)))
	case core.Float:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	return 0
}

func halfToFloat32(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h) & 0x3ff
	switch {
	case exp == 0 && mant == 0:
		return math.Float32frombits(sign)
	case exp == 0:
		// subnormal
		f := float32(mant) / 1024 / 16384
		if sign != 0 {
			return -f
		}
		return f
	case exp == 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	}
	return math.Float32frombits(sign | (exp+112)<<23 | mant<<13)
}

func toRGBA64(v [4]float64) color.RGBA64 {
	q := func(f float64) uint16 {
		return uint16(math.Round(min(max(f, 0), 1) * 0xffff))
	}
	return color.RGBA64{R: q(v[0]), G: q(v[1]), B: q(v[2]), A: q(v[3])}
}

func (d *Device) GenerateMipmap(id core.TextureID, _ core.TextureKind) {
	t, ok := d.textures[id]
	if !ok || t.color == nil {
		return
	}
	for l := 1; l < len(t.color); l++ {
		for layer, dst := range t.color[l] {
			src := t.color[l-1][layer]
			draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		}
	}
	t.mipGenerations++
}

func (d *Device) BindTexture(unit uint32, _ core.TextureKind, id core.TextureID) {
	d.units[unit] = id
}

func (d *Device) DeleteTexture(id core.TextureID) {
	delete(d.textures, id)
	for unit, bound := range d.units {
		if bound == id {
			delete(d.units, unit)
		}
	}
}

// ColorLayer returns the pixels of one level and layer of a colour texture.
// The image is the device's storage and must not be modified.
func (d *Device) ColorLayer(id core.TextureID, level, layer uint32) *image.RGBA64 {
	t, ok := d.textures[id]
	if !ok || t.color == nil || int(level) >= len(t.color) || int(layer) >= len(t.color[level]) {
		return nil
	}
	return t.color[level][layer]
}

// DepthLayer returns the depth values of one layer of a depth texture.
func (d *Device) DepthLayer(id core.TextureID, layer uint32) []float32 {
	t, ok := d.textures[id]
	if !ok || t.depth == nil || int(layer) >= len(t.depth) {
		return nil
	}
	return t.depth[layer]
}

// TextureDesc returns the shape a texture was created with.
func (d *Device) TextureDesc(id core.TextureID) (core.TextureDesc, bool) {
	t, ok := d.textures[id]
	if !ok {
		return core.TextureDesc{}, false
	}
	return t.desc, true
}

// SamplerParams returns the sampling parameters last set on a texture.
func (d *Device) SamplerParams(id core.TextureID) core.SamplerParams {
	if t, ok := d.textures[id]; ok {
		return t.params
	}
	return core.SamplerParams{}
}

// MipGenerations counts GenerateMipmap calls that reached a texture.
func (d *Device) MipGenerations(id core.TextureID) int {
	if t, ok := d.textures[id]; ok {
		return t.mipGenerations
	}
	return 0
}
