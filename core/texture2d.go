package core

// Texture2D is a single-layer colour texture.
type Texture2D struct {
	*texture
}

func NewTexture2D(ctx *Context, width, height uint32, opts TextureOptions) (*Texture2D, error) {
	t, err := newColorTexture(ctx, TextureKind2D, width, height, 1, opts)
	if err != nil {
		return nil, err
	}
	return &Texture2D{t}, nil
}

// NewTexture2DFromCPU uploads cpu and builds its mip chain.
func NewTexture2DFromCPU(ctx *Context, cpu *CPUTexture) (*Texture2D, error) {
	if cpu == nil {
		return nil, unsupported("nil CPU texture")
	}
	t, err := NewTexture2D(ctx, cpu.Width, cpu.Height, cpu.Options())
	if err != nil {
		return nil, err
	}
	if err := t.Fill(cpu.Data); err != nil {
		t.Release()
		return nil, err
	}
	t.GenerateMipMaps()
	return t, nil
}

func (t *Texture2D) base() *texture {
	if t == nil {
		return nil
	}
	return t.texture
}

func (t *Texture2D) ID() TextureID      { return t.id }
func (t *Texture2D) Width() uint32      { return t.width }
func (t *Texture2D) Height() uint32     { return t.height }
func (t *Texture2D) Format() Format     { return t.colorFormat }
func (t *Texture2D) DataType() DataType { return t.dataType }
func (t *Texture2D) MipLevels() uint32  { return t.levels }

// Fill uploads level 0. Mip levels are not regenerated.
func (t *Texture2D) Fill(data []byte) error {
	return t.upload(0, data)
}

// Write renders into the texture. Depth testing is disabled for the scope.
func (t *Texture2D) Write(clear ClearState, render func() error) error {
	return t.ctx.write(target{colors: []attachment{t.layerAttachment(0)}}, clear, render)
}

// GenerateMipMaps rebuilds levels 1..N from level 0.
func (t *Texture2D) GenerateMipMaps() { t.generateMipMaps() }

func (t *Texture2D) Release() { t.release() }
