package core

// Device handle types. The zero value of every handle means "none"; for
// FramebufferID it is the default framebuffer (the screen).
type (
	BufferID      uint32
	TextureID     uint32
	FramebufferID uint32
	ProgramID     uint32
)

// Device is the capability the core borrows from the graphics API. It is
// the only dependency injected from outside the package. Implementations
// are immediate mode and are used from a single goroutine.
//
// Framebuffer attachment, draw buffer and completeness calls apply to the
// currently bound framebuffer.
type Device interface {
	Caps() Caps

	CreateBuffer() (BufferID, error)
	// BufferData reallocates the buffer storage to exactly len(data) bytes.
	BufferData(target BufferTarget, id BufferID, data []byte, usage BufferUsage) error
	// BufferSubData overwrites existing storage starting at offset.
	BufferSubData(target BufferTarget, id BufferID, offset int, data []byte)
	DeleteBuffer(id BufferID)

	// CreateTexture allocates immutable-shape storage for every level and layer.
	CreateTexture(desc TextureDesc) (TextureID, error)
	TexParameters(id TextureID, kind TextureKind, params SamplerParams)
	TexSubImage(id TextureID, kind TextureKind, level, layer uint32, data []byte) error
	GenerateMipmap(id TextureID, kind TextureKind)
	BindTexture(unit uint32, kind TextureKind, id TextureID)
	DeleteTexture(id TextureID)

	CreateFramebuffer() (FramebufferID, error)
	BindFramebuffer(id FramebufferID)
	FramebufferTexture(point AttachmentPoint, slot uint32, kind TextureKind, tex TextureID, level, layer uint32)
	DrawBuffers(count int)
	CheckFramebuffer() error
	DeleteFramebuffer(id FramebufferID)

	SetViewport(v Viewport)
	SetRenderStates(s RenderStates)
	// Clear clears the attachments of the bound framebuffer selected by
	// c.Mask, ignoring the current write mask.
	Clear(c ClearState)

	CreateProgram(vertexSrc, fragmentSrc string) (ProgramID, error)
	ProgramInputs(id ProgramID) ProgramInputs
	UseProgram(id ProgramID)
	SetUniform(id ProgramID, name string, value any) error
	SetVertexAttribute(id ProgramID, name string, buf BufferID, layout AttributeLayout)
	DisableVertexAttributes(id ProgramID)
	DrawArrays(count, instances int)
	DrawElements(indices BufferID, indexType DataType, count, instances int)
	DeleteProgram(id ProgramID)

	// Release frees the device itself. The Context calls it once, after the
	// last resource created against it was released.
	Release()
}

// Caps describes the limits of a Device.
type Caps struct {
	MaxTextureSize      uint32
	MaxArrayLayers      uint32
	MaxColorAttachments uint32
	MaxTextureUnits     uint32
	// FloatLinearFiltering reports whether 32-bit float textures may be
	// sampled with linear filtering.
	FloatLinearFiltering bool
	// Formats lists the supported internal formats. A nil map means every
	// format is supported.
	Formats map[InternalFormat]bool
}

// Supports reports whether f can be allocated on the device.
func (c Caps) Supports(f InternalFormat) bool {
	if c.Formats == nil {
		return true
	}
	return c.Formats[f]
}

type BufferTarget uint8

const (
	BufferTargetArray BufferTarget = iota
	BufferTargetElementArray
)

// BufferUsage is a hint for how often buffer contents change.
type BufferUsage uint8

const (
	StaticDraw BufferUsage = iota
	DynamicDraw
)

type TextureKind uint8

const (
	TextureKind2D TextureKind = iota
	TextureKind2DArray
	TextureKindCubeMap
)

func (k TextureKind) String() string {
	switch k {
	case TextureKind2D:
		return "2d"
	case TextureKind2DArray:
		return "2d-array"
	case TextureKindCubeMap:
		return "cube"
	}
	return "unknown"
}

// TextureDesc describes the storage CreateTexture allocates. Depth is the
// layer count: 1 for 2D, 6 for cube maps.
type TextureDesc struct {
	Kind          TextureKind
	Width, Height uint32
	Depth         uint32
	Levels        uint32
	Format        InternalFormat
}

// SamplerParams configures how a texture is sampled.
type SamplerParams struct {
	MinFilter Interpolation
	MagFilter Interpolation
	// MipFilter is only meaningful when Mipmapped is set.
	MipFilter Interpolation
	Mipmapped bool

	WrapS, WrapT, WrapR Wrapping
	// DepthCompare enables hardware depth comparison (shadow samplers).
	DepthCompare bool
}

type AttachmentPoint uint8

const (
	AttachColor AttachmentPoint = iota
	AttachDepth
)

// AttributeLayout describes how a vertex buffer feeds a shader attribute.
type AttributeLayout struct {
	Type       DataType
	Components int
	Normalized bool
	// Divisor is 0 for per-vertex data and 1 for per-instance data.
	Divisor uint32
}

type UniformType uint8

const (
	UniformOther UniformType = iota
	UniformFloat
	UniformVec2
	UniformVec3
	UniformVec4
	UniformInt
	UniformUint
	UniformBool
	UniformMat3
	UniformMat4
	UniformSampler2D
	UniformSampler2DArray
	UniformSamplerCube
	UniformSampler2DShadow
	UniformSampler2DArrayShadow
)

// IsSampler reports whether the uniform is bound with a texture.
func (t UniformType) IsSampler() bool {
	return t >= UniformSampler2D
}

// samplerKind returns the texture kind a sampler uniform expects.
func (t UniformType) samplerKind() TextureKind {
	switch t {
	case UniformSampler2DArray, UniformSampler2DArrayShadow:
		return TextureKind2DArray
	case UniformSamplerCube:
		return TextureKindCubeMap
	}
	return TextureKind2D
}

// UniformInfo describes one active uniform. Array uniforms are reported
// once, without the "[0]" suffix, with Size set to the element count.
type UniformInfo struct {
	Name string
	Type UniformType
	Size int
}

// ProgramInputs lists everything a program reads that must be bound before a draw.
type ProgramInputs struct {
	Uniforms   []UniformInfo
	Attributes []string
}
