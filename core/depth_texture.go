package core

// DepthTexture2D is a single-layer depth texture.
type DepthTexture2D struct {
	*texture
	depthFormat DepthFormat
}

func NewDepthTexture2D(ctx *Context, width, height uint32, opts DepthTextureOptions) (*DepthTexture2D, error) {
	t, err := newDepthTexture(ctx, TextureKind2D, width, height, 1, opts)
	if err != nil {
		return nil, err
	}
	return &DepthTexture2D{texture: t, depthFormat: opts.Format}, nil
}

func (t *DepthTexture2D) base() *texture {
	if t == nil {
		return nil
	}
	return t.texture
}

func (t *DepthTexture2D) ID() TextureID       { return t.id }
func (t *DepthTexture2D) Width() uint32       { return t.width }
func (t *DepthTexture2D) Height() uint32      { return t.height }
func (t *DepthTexture2D) Format() DepthFormat { return t.depthFormat }
func (t *DepthTexture2D) MipLevels() uint32   { return t.levels }

// Write renders depth only, for example a shadow map.
func (t *DepthTexture2D) Write(clear ClearState, render func() error) error {
	a := t.layerAttachment(0)
	return t.ctx.write(target{depth: &a}, clear, render)
}

func (t *DepthTexture2D) Release() { t.release() }

// DepthTexture2DArray is an array of depth layers.
type DepthTexture2DArray struct {
	*texture
	depthFormat DepthFormat
}

func NewDepthTexture2DArray(ctx *Context, width, height, depth uint32, opts DepthTextureOptions) (*DepthTexture2DArray, error) {
	t, err := newDepthTexture(ctx, TextureKind2DArray, width, height, depth, opts)
	if err != nil {
		return nil, err
	}
	return &DepthTexture2DArray{texture: t, depthFormat: opts.Format}, nil
}

func (t *DepthTexture2DArray) base() *texture {
	if t == nil {
		return nil
	}
	return t.texture
}

func (t *DepthTexture2DArray) ID() TextureID       { return t.id }
func (t *DepthTexture2DArray) Width() uint32       { return t.width }
func (t *DepthTexture2DArray) Height() uint32      { return t.height }
func (t *DepthTexture2DArray) Depth() uint32       { return t.depth }
func (t *DepthTexture2DArray) Format() DepthFormat { return t.depthFormat }
func (t *DepthTexture2DArray) MipLevels() uint32   { return t.levels }

// Write renders depth only into one layer.
func (t *DepthTexture2DArray) Write(layer uint32, clear ClearState, render func() error) error {
	a := t.layerAttachment(layer)
	return t.ctx.write(target{depth: &a}, clear, render)
}

func (t *DepthTexture2DArray) Release() { t.release() }
