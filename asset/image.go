package asset

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"render-core/core"
)

// LoadTexture decodes an image file (PNG, JPEG, WebP, BMP or TIFF) into an
// RGBA8 CPU texture with linear mipmapped sampling.
func LoadTexture(path string) (*core.CPUTexture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	t, err := DecodeTexture(path, f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}
	return t, nil
}

func decodeImageBytes(name string, data []byte) (*core.CPUTexture, error) {
	return DecodeTexture(name, bytes.NewReader(data))
}

// DecodeTexture decodes any registered image format into an RGBA8 CPU texture.
func DecodeTexture(name string, r io.Reader) (*core.CPUTexture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return TextureFromImage(name, img), nil
}

// TextureFromImage converts img to tightly packed RGBA8 rows.
func TextureFromImage(name string, img image.Image) *core.CPUTexture {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &core.CPUTexture{
		Name:      name,
		Width:     uint32(b.Dx()),
		Height:    uint32(b.Dy()),
		Format:    core.FormatRGBA,
		DataType:  core.UnsignedByte,
		Data:      rgba.Pix,
		MinFilter: core.Linear,
		MagFilter: core.Linear,
		MipFilter: core.Mip(core.Linear),
		WrapS:     core.Repeat,
		WrapT:     core.Repeat,
	}
}

// SolidTexture returns a 1x1 texture of the given colour.
func SolidTexture(name string, r, g, b, a uint8) *core.CPUTexture {
	return &core.CPUTexture{
		Name:      name,
		Width:     1,
		Height:    1,
		Format:    core.FormatRGBA,
		DataType:  core.UnsignedByte,
		Data:      []byte{r, g, b, a},
		MinFilter: core.Nearest,
		MagFilter: core.Nearest,
		WrapS:     core.Repeat,
		WrapT:     core.Repeat,
	}
}
