package core

import "slices"

// Texture2DArray is an array of equally sized colour layers. Each layer can
// be rendered to independently, and several layers can be written in one pass.
type Texture2DArray struct {
	*texture
}

func NewTexture2DArray(ctx *Context, width, height, depth uint32, opts TextureOptions) (*Texture2DArray, error) {
	t, err := newColorTexture(ctx, TextureKind2DArray, width, height, depth, opts)
	if err != nil {
		return nil, err
	}
	return &Texture2DArray{t}, nil
}

// NewTexture2DArrayFromCPU uploads one CPU texture per layer. All layers
// must share size, format and data type; opts supplies the sampler settings.
func NewTexture2DArrayFromCPU(ctx *Context, layers []*CPUTexture, opts TextureOptions) (*Texture2DArray, error) {
	if len(layers) == 0 {
		return nil, unsupported("texture array without layers")
	}
	if slices.Contains(layers, nil) {
		return nil, unsupported("nil texture array layer")
	}
	first := layers[0]
	for i, l := range layers[1:] {
		if l.Width != first.Width || l.Height != first.Height {
			return nil, unsupported("layer %d is %dx%d, want %dx%d", i+1, l.Width, l.Height, first.Width, first.Height)
		}
		if l.Format != first.Format || l.DataType != first.DataType {
			return nil, unsupported("layer %d format %s/%s differs from %s/%s", i+1, l.Format, l.DataType, first.Format, first.DataType)
		}
	}
	opts.Format, opts.DataType = first.Format, first.DataType
	t, err := NewTexture2DArray(ctx, first.Width, first.Height, uint32(len(layers)), opts)
	if err != nil {
		return nil, err
	}
	for i, l := range layers {
		if err := t.FillLayer(uint32(i), l.Data); err != nil {
			t.Release()
			return nil, err
		}
	}
	t.GenerateMipMaps()
	return t, nil
}

func (t *Texture2DArray) base() *texture {
	if t == nil {
		return nil
	}
	return t.texture
}

func (t *Texture2DArray) ID() TextureID      { return t.id }
func (t *Texture2DArray) Width() uint32      { return t.width }
func (t *Texture2DArray) Height() uint32     { return t.height }
func (t *Texture2DArray) Depth() uint32      { return t.depth }
func (t *Texture2DArray) Format() Format     { return t.colorFormat }
func (t *Texture2DArray) DataType() DataType { return t.dataType }
func (t *Texture2DArray) MipLevels() uint32  { return t.levels }

// FillLayer uploads level 0 of one layer.
func (t *Texture2DArray) FillLayer(layer uint32, data []byte) error {
	return t.upload(layer, data)
}

// Fill uploads level 0 of every layer; len(layers) must equal Depth.
func (t *Texture2DArray) Fill(layers [][]byte) error {
	if len(layers) != int(t.depth) {
		return unsupported("got %d layers of data for a texture with %d", len(layers), t.depth)
	}
	for i, data := range layers {
		if err := t.upload(uint32(i), data); err != nil {
			return err
		}
	}
	return nil
}

// Write renders into the given layers: output slot i of the fragment shader
// writes colorLayers[i]. Depth testing is disabled for the scope.
func (t *Texture2DArray) Write(colorLayers []uint32, clear ClearState, render func() error) error {
	atts := make([]attachment, len(colorLayers))
	for i, layer := range colorLayers {
		atts[i] = t.layerAttachment(layer)
	}
	return t.ctx.write(target{colors: atts}, clear, render)
}

func (t *Texture2DArray) GenerateMipMaps() { t.generateMipMaps() }

func (t *Texture2DArray) Release() { t.release() }
