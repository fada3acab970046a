package core

// RenderTarget pairs a colour texture with an optional depth texture, or a
// depth texture alone.
type RenderTarget struct {
	ctx   *Context
	color *Texture2D
	depth *DepthTexture2D
}

func NewRenderTarget(ctx *Context, color *Texture2D, depth *DepthTexture2D) (*RenderTarget, error) {
	switch {
	case color == nil && depth == nil:
		return nil, unsupported("render target without attachments")
	case color != nil && depth != nil && (color.width != depth.width || color.height != depth.height):
		return nil, unsupported("colour %dx%d and depth %dx%d differ", color.width, color.height, depth.width, depth.height)
	}
	return &RenderTarget{ctx: ctx, color: color, depth: depth}, nil
}

func (r *RenderTarget) Width() uint32 {
	if r.color != nil {
		return r.color.width
	}
	return r.depth.width
}

func (r *RenderTarget) Height() uint32 {
	if r.color != nil {
		return r.color.height
	}
	return r.depth.height
}

func (r *RenderTarget) Viewport() Viewport { return NewViewport(r.Width(), r.Height()) }

func (r *RenderTarget) Write(clear ClearState, render func() error) error {
	var t target
	if r.color != nil {
		t.colors = []attachment{r.color.layerAttachment(0)}
	}
	if r.depth != nil {
		a := r.depth.layerAttachment(0)
		t.depth = &a
	}
	return r.ctx.write(t, clear, render)
}

// RenderTargetArray renders into layers of a colour array and optionally one
// layer of a depth array.
type RenderTargetArray struct {
	ctx   *Context
	color *Texture2DArray
	depth *DepthTexture2DArray
}

func NewRenderTargetArray(ctx *Context, color *Texture2DArray, depth *DepthTexture2DArray) (*RenderTargetArray, error) {
	switch {
	case color == nil && depth == nil:
		return nil, unsupported("render target without attachments")
	case color != nil && depth != nil && (color.width != depth.width || color.height != depth.height):
		return nil, unsupported("colour %dx%d and depth %dx%d differ", color.width, color.height, depth.width, depth.height)
	}
	return &RenderTargetArray{ctx: ctx, color: color, depth: depth}, nil
}

func (r *RenderTargetArray) Width() uint32 {
	if r.color != nil {
		return r.color.width
	}
	return r.depth.width
}

func (r *RenderTargetArray) Height() uint32 {
	if r.color != nil {
		return r.color.height
	}
	return r.depth.height
}

func (r *RenderTargetArray) Viewport() Viewport { return NewViewport(r.Width(), r.Height()) }

// Write renders into colorLayers (slot i writes colorLayers[i]) and, when
// the target has a depth array, into depthLayer of it.
func (r *RenderTargetArray) Write(colorLayers []uint32, depthLayer uint32, clear ClearState, render func() error) error {
	var t target
	if r.color != nil {
		t.colors = make([]attachment, len(colorLayers))
		for i, layer := range colorLayers {
			t.colors[i] = r.color.layerAttachment(layer)
		}
	} else if len(colorLayers) > 0 {
		return unsupported("colour layers requested from a depth-only target")
	}
	if r.depth != nil {
		a := r.depth.layerAttachment(depthLayer)
		t.depth = &a
	}
	return r.ctx.write(t, clear, render)
}

// Screen is the default framebuffer.
type Screen struct {
	ctx *Context
}

func (s *Screen) Width() uint32      { return s.ctx.screenWidth }
func (s *Screen) Height() uint32     { return s.ctx.screenHeight }
func (s *Screen) Viewport() Viewport { return NewViewport(s.ctx.screenWidth, s.ctx.screenHeight) }

func (s *Screen) Write(clear ClearState, render func() error) error {
	return s.ctx.write(target{screen: true}, clear, render)
}
