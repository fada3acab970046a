package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-core/core"
)

// glFormat is the (internal format, pixel format, pixel type) triple a
// core.InternalFormat is allocated and uploaded with.
type glFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

var glFormats = map[core.InternalFormat]glFormat{
	core.R8:                {gl.R8, gl.RED, gl.UNSIGNED_BYTE},
	core.RG8:               {gl.RG8, gl.RG, gl.UNSIGNED_BYTE},
	core.RGB8:              {gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE},
	core.RGBA8:             {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	core.SRGB8:             {gl.SRGB8, gl.RGB, gl.UNSIGNED_BYTE},
	core.SRGB8Alpha8:       {gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE},
	core.R16F:              {gl.R16F, gl.RED, gl.HALF_FLOAT},
	core.RG16F:             {gl.RG16F, gl.RG, gl.HALF_FLOAT},
	core.RGB16F:            {gl.RGB16F, gl.RGB, gl.HALF_FLOAT},
	core.RGBA16F:           {gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT},
	core.R32F:              {gl.R32F, gl.RED, gl.FLOAT},
	core.RG32F:             {gl.RG32F, gl.RG, gl.FLOAT},
	core.RGB32F:            {gl.RGB32F, gl.RGB, gl.FLOAT},
	core.RGBA32F:           {gl.RGBA32F, gl.RGBA, gl.FLOAT},
	core.DepthComponent16:  {gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT, gl.UNSIGNED_SHORT},
	core.DepthComponent24:  {gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT},
	core.DepthComponent32F: {gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT},
}

func textureTarget(k core.TextureKind) uint32 {
	switch k {
	case core.TextureKind2DArray:
		return gl.TEXTURE_2D_ARRAY
	case core.TextureKindCubeMap:
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

func levelSize(size, level uint32) int32 {
	return int32(max(size>>level, 1))
}

// CreateTexture allocates every level with TexImage. GL 4.1 has no
// immutable storage, so the level range is pinned with BASE/MAX_LEVEL.
func (d *Device) CreateTexture(desc core.TextureDesc) (core.TextureID, error) {
	f, ok := glFormats[desc.Format]
	if !ok {
		return 0, fmt.Errorf("no GL format for %s", desc.Format)
	}
	target := textureTarget(desc.Kind)

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(target, id)
	for level := uint32(0); level < desc.Levels; level++ {
		w, h := levelSize(desc.Width, level), levelSize(desc.Height, level)
		switch desc.Kind {
		case core.TextureKind2D:
			gl.TexImage2D(target, int32(level), f.internal, w, h, 0, f.format, f.xtype, nil)
		case core.TextureKind2DArray:
			gl.TexImage3D(target, int32(level), f.internal, w, h, int32(desc.Depth), 0, f.format, f.xtype, nil)
		case core.TextureKindCubeMap:
			for face := uint32(0); face < 6; face++ {
				gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, int32(level), f.internal, w, h, 0, f.format, f.xtype, nil)
			}
		}
	}
	gl.TexParameteri(target, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(target, gl.TEXTURE_MAX_LEVEL, int32(desc.Levels-1))
	gl.BindTexture(target, 0)

	if err := glError("allocate texture"); err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}
	return core.TextureID(id), nil
}

func filter(i core.Interpolation) int32 {
	if i == core.Nearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func minFilter(p core.SamplerParams) int32 {
	if !p.Mipmapped {
		return filter(p.MinFilter)
	}
	switch {
	case p.MinFilter == core.Nearest && p.MipFilter == core.Nearest:
		return gl.NEAREST_MIPMAP_NEAREST
	case p.MinFilter == core.Nearest:
		return gl.NEAREST_MIPMAP_LINEAR
	case p.MipFilter == core.Nearest:
		return gl.LINEAR_MIPMAP_NEAREST
	}
	return gl.LINEAR_MIPMAP_LINEAR
}

func wrap(w core.Wrapping) int32 {
	switch w {
	case core.Repeat:
		return gl.REPEAT
	case core.MirroredRepeat:
		return gl.MIRRORED_REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func (d *Device) TexParameters(id core.TextureID, kind core.TextureKind, p core.SamplerParams) {
	target := textureTarget(kind)
	gl.BindTexture(target, uint32(id))
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, minFilter(p))
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, filter(p.MagFilter))
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, wrap(p.WrapS))
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, wrap(p.WrapT))
	gl.TexParameteri(target, gl.TEXTURE_WRAP_R, wrap(p.WrapR))
	if p.DepthCompare {
		// texture() returns the comparison result for shadow samplers.
		gl.TexParameteri(target, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.TexParameteri(target, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
	}
	gl.BindTexture(target, 0)
}

func (d *Device) TexSubImage(id core.TextureID, kind core.TextureKind, level, layer uint32, data []byte) error {
	var desc struct{ w, h int32 }
	target := textureTarget(kind)
	gl.BindTexture(target, uint32(id))
	gl.GetTexLevelParameteriv(levelQueryTarget(kind), int32(level), gl.TEXTURE_WIDTH, &desc.w)
	gl.GetTexLevelParameteriv(levelQueryTarget(kind), int32(level), gl.TEXTURE_HEIGHT, &desc.h)
	var ifmt int32
	gl.GetTexLevelParameteriv(levelQueryTarget(kind), int32(level), gl.TEXTURE_INTERNAL_FORMAT, &ifmt)

	var f glFormat
	for _, candidate := range glFormats {
		if candidate.internal == ifmt {
			f = candidate
			break
		}
	}
	if f.format == 0 {
		gl.BindTexture(target, 0)
		return fmt.Errorf("texture %d has unknown internal format 0x%X", id, ifmt)
	}

	switch kind {
	case core.TextureKind2D:
		gl.TexSubImage2D(target, int32(level), 0, 0, desc.w, desc.h, f.format, f.xtype, gl.Ptr(data))
	case core.TextureKind2DArray:
		gl.TexSubImage3D(target, int32(level), 0, 0, int32(layer), desc.w, desc.h, 1, f.format, f.xtype, gl.Ptr(data))
	case core.TextureKindCubeMap:
		gl.TexSubImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+layer, int32(level), 0, 0, desc.w, desc.h, f.format, f.xtype, gl.Ptr(data))
	}
	gl.BindTexture(target, 0)
	return glError("upload texture")
}

// levelQueryTarget is the target GetTexLevelParameter accepts for a kind;
// cube maps are queried through one face.
func levelQueryTarget(k core.TextureKind) uint32 {
	if k == core.TextureKindCubeMap {
		return gl.TEXTURE_CUBE_MAP_POSITIVE_X
	}
	return textureTarget(k)
}

func (d *Device) GenerateMipmap(id core.TextureID, kind core.TextureKind) {
	target := textureTarget(kind)
	gl.BindTexture(target, uint32(id))
	gl.GenerateMipmap(target)
	gl.BindTexture(target, 0)
}

func (d *Device) BindTexture(unit uint32, kind core.TextureKind, id core.TextureID) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(textureTarget(kind), uint32(id))
}

func (d *Device) DeleteTexture(id core.TextureID) {
	t := uint32(id)
	gl.DeleteTextures(1, &t)
}
