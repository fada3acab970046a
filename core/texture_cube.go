package core

import "slices"

type CubeFace uint32

const (
	CubeFacePositiveX CubeFace = iota
	CubeFaceNegativeX
	CubeFacePositiveY
	CubeFaceNegativeY
	CubeFacePositiveZ
	CubeFaceNegativeZ
)

const cubeFaces = 6

// TextureCubeMap is six square colour faces addressed by CubeFace.
type TextureCubeMap struct {
	*texture
}

func NewTextureCubeMap(ctx *Context, size uint32, opts TextureOptions) (*TextureCubeMap, error) {
	t, err := newColorTexture(ctx, TextureKindCubeMap, size, size, cubeFaces, opts)
	if err != nil {
		return nil, err
	}
	return &TextureCubeMap{t}, nil
}

// NewTextureCubeMapFromCPU uploads six faces in CubeFace order.
func NewTextureCubeMapFromCPU(ctx *Context, faces [cubeFaces]*CPUTexture) (*TextureCubeMap, error) {
	if i := slices.Index(faces[:], nil); i >= 0 {
		return nil, unsupported("nil cube face %d", i)
	}
	first := faces[0]
	if first.Width != first.Height {
		return nil, unsupported("cube face is %dx%d, faces must be square", first.Width, first.Height)
	}
	t, err := NewTextureCubeMap(ctx, first.Width, first.Options())
	if err != nil {
		return nil, err
	}
	for i, f := range faces {
		if err := t.FillFace(CubeFace(i), f.Data); err != nil {
			t.Release()
			return nil, err
		}
	}
	t.GenerateMipMaps()
	return t, nil
}

func (t *TextureCubeMap) base() *texture {
	if t == nil {
		return nil
	}
	return t.texture
}

func (t *TextureCubeMap) ID() TextureID      { return t.id }
func (t *TextureCubeMap) Width() uint32      { return t.width }
func (t *TextureCubeMap) Height() uint32     { return t.height }
func (t *TextureCubeMap) Format() Format     { return t.colorFormat }
func (t *TextureCubeMap) DataType() DataType { return t.dataType }
func (t *TextureCubeMap) MipLevels() uint32  { return t.levels }

func (t *TextureCubeMap) FillFace(face CubeFace, data []byte) error {
	return t.upload(uint32(face), data)
}

// Write renders into one face.
func (t *TextureCubeMap) Write(face CubeFace, clear ClearState, render func() error) error {
	return t.ctx.write(target{colors: []attachment{t.layerAttachment(uint32(face))}}, clear, render)
}

func (t *TextureCubeMap) GenerateMipMaps() { t.generateMipMaps() }

func (t *TextureCubeMap) Release() { t.release() }
