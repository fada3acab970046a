package core

import (
	"github.com/sirupsen/logrus"
)

// TextureOptions configure a colour texture. A nil MipFilter allocates a
// single level.
type TextureOptions struct {
	Format    Format
	DataType  DataType
	MinFilter Interpolation
	MagFilter Interpolation
	MipFilter *Interpolation
	WrapS     Wrapping
	WrapT     Wrapping
	WrapR     Wrapping
}

// DefaultTextureOptions is linear filtered, edge clamped RGBA8 without mips.
func DefaultTextureOptions() TextureOptions {
	return TextureOptions{
		Format:    FormatRGBA,
		DataType:  UnsignedByte,
		MinFilter: Linear,
		MagFilter: Linear,
	}
}

// DepthTextureOptions configure a depth texture. Depth textures are never
// mip-mapped.
type DepthTextureOptions struct {
	Format DepthFormat
	Filter Interpolation
	Wrap   Wrapping
	// Compare enables depth comparison sampling for shadow samplers.
	Compare bool
}

func DefaultDepthTextureOptions() DepthTextureOptions {
	return DepthTextureOptions{
		Format: Depth32F,
		Filter: Nearest,
		Wrap:   ClampToEdge,
	}
}

// Texture is any texture that can be bound to a sampler.
type Texture interface {
	base() *texture
}

// texture holds the state shared by every texture type.
type texture struct {
	ctx    *Context
	id     TextureID
	kind   TextureKind
	width  uint32
	height uint32
	depth  uint32
	levels uint32
	format InternalFormat

	colorFormat Format
	dataType    DataType
}

type textureDesc struct {
	kind          TextureKind
	width, height uint32
	depth         uint32
	format        InternalFormat
	mipFilter     *Interpolation
	params        SamplerParams
}

func newTexture(ctx *Context, d textureDesc) (*texture, error) {
	caps := ctx.caps
	switch {
	case d.width == 0 || d.height == 0 || d.depth == 0:
		return nil, unsupported("zero texture dimension %dx%dx%d", d.width, d.height, d.depth)
	case caps.MaxTextureSize > 0 && (d.width > caps.MaxTextureSize || d.height > caps.MaxTextureSize):
		return nil, unsupported("texture size %dx%d exceeds %d", d.width, d.height, caps.MaxTextureSize)
	case d.kind == TextureKind2DArray && caps.MaxArrayLayers > 0 && d.depth > caps.MaxArrayLayers:
		return nil, unsupported("texture array depth %d exceeds %d", d.depth, caps.MaxArrayLayers)
	case !caps.Supports(d.format):
		return nil, unsupported("format %s not supported by device", d.format)
	}
	if d.format.IsDepth() && d.mipFilter != nil {
		return nil, unsupported("mip filtering on depth format %s", d.format)
	}
	if d.format.DataType() == Float && !d.format.IsDepth() && !caps.FloatLinearFiltering {
		if d.params.MinFilter == Linear || d.params.MagFilter == Linear ||
			(d.mipFilter != nil && *d.mipFilter == Linear) {
			return nil, unsupported("linear filtering of %s", d.format)
		}
	}

	levels := mipLevels(d.mipFilter, d.width, d.height)
	params := d.params
	if levels > 1 {
		params.Mipmapped = true
		params.MipFilter = *d.mipFilter
	}

	id, err := ctx.dev.CreateTexture(TextureDesc{
		Kind:   d.kind,
		Width:  d.width,
		Height: d.height,
		Depth:  d.depth,
		Levels: levels,
		Format: d.format,
	})
	if err != nil {
		return nil, &DeviceResourceError{Op: "create texture", Err: err}
	}
	ctx.dev.TexParameters(id, d.kind, params)
	ctx.retain()
	ctx.log.WithFields(logrus.Fields{
		"texture": id,
		"kind":    d.kind,
		"size":    [3]uint32{d.width, d.height, d.depth},
		"levels":  levels,
		"format":  d.format,
	}).Debug("texture created")

	return &texture{
		ctx:    ctx,
		id:     id,
		kind:   d.kind,
		width:  d.width,
		height: d.height,
		depth:  d.depth,
		levels: levels,
		format: d.format,
	}, nil
}

func colorTextureDesc(kind TextureKind, width, height, depth uint32, opts TextureOptions) (textureDesc, error) {
	in, err := internalFormat(opts.Format, opts.DataType)
	if err != nil {
		return textureDesc{}, err
	}
	return textureDesc{
		kind:      kind,
		width:     width,
		height:    height,
		depth:     depth,
		format:    in,
		mipFilter: opts.MipFilter,
		params: SamplerParams{
			MinFilter: opts.MinFilter,
			MagFilter: opts.MagFilter,
			WrapS:     opts.WrapS,
			WrapT:     opts.WrapT,
			WrapR:     opts.WrapR,
		},
	}, nil
}

func newColorTexture(ctx *Context, kind TextureKind, width, height, depth uint32, opts TextureOptions) (*texture, error) {
	d, err := colorTextureDesc(kind, width, height, depth, opts)
	if err != nil {
		return nil, err
	}
	t, err := newTexture(ctx, d)
	if err != nil {
		return nil, err
	}
	t.colorFormat, t.dataType = opts.Format, opts.DataType
	return t, nil
}

func newDepthTexture(ctx *Context, kind TextureKind, width, height, depth uint32, opts DepthTextureOptions) (*texture, error) {
	in, err := depthInternalFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	t, err := newTexture(ctx, textureDesc{
		kind:   kind,
		width:  width,
		height: height,
		depth:  depth,
		format: in,
		params: SamplerParams{
			MinFilter:    opts.Filter,
			MagFilter:    opts.Filter,
			WrapS:        opts.Wrap,
			WrapT:        opts.Wrap,
			WrapR:        opts.Wrap,
			DepthCompare: opts.Compare,
		},
	})
	if err != nil {
		return nil, err
	}
	t.dataType = in.DataType()
	return t, nil
}

func (t *texture) base() *texture { return t }

// upload writes level 0 of one layer.
func (t *texture) upload(layer uint32, data []byte) error {
	if t.id == 0 {
		return &DeviceResourceError{Op: "upload texture", Err: errReleased}
	}
	if layer >= t.depth {
		return unsupported("layer %d out of range [0, %d)", layer, t.depth)
	}
	want := int(t.width) * int(t.height) * t.format.BytesPerPixel()
	if len(data) != want {
		return unsupported("texture data is %d bytes, want %d for %dx%d %s", len(data), want, t.width, t.height, t.format)
	}
	if err := t.ctx.dev.TexSubImage(t.id, t.kind, 0, layer, data); err != nil {
		return &DeviceResourceError{Op: "upload texture", Err: err}
	}
	return nil
}

func (t *texture) generateMipMaps() {
	if t.id == 0 || t.levels <= 1 {
		return
	}
	t.ctx.dev.GenerateMipmap(t.id, t.kind)
}

func (t *texture) release() {
	if t.id == 0 {
		return
	}
	t.ctx.dev.DeleteTexture(t.id)
	t.ctx.log.WithField("texture", t.id).Debug("texture released")
	t.id = 0
	t.ctx.release()
}

func (t *texture) checkLayer(layer uint32) error {
	if layer >= t.depth {
		return unsupported("layer %d out of range [0, %d)", layer, t.depth)
	}
	return nil
}

func (t *texture) layerAttachment(layer uint32) attachment {
	return attachment{tex: t, layer: layer}
}
