package asset

import (
	"render-core/core"
	"render-core/math"
)

// CPUMaterial is a metallic-roughness material. Texture fields are nil when
// the material has no such map.
type CPUMaterial struct {
	Name      string
	Albedo    core.Color
	Metallic  float32
	Roughness float32
	Emissive  math.Vec3

	NormalScale       float32
	OcclusionStrength float32

	AlbedoTexture            *core.CPUTexture
	MetallicRoughnessTexture *core.CPUTexture
	NormalTexture            *core.CPUTexture
	OcclusionTexture         *core.CPUTexture
	EmissiveTexture          *core.CPUTexture
}

// DefaultMaterial is white, fully rough and non-metallic.
func DefaultMaterial() *CPUMaterial {
	return &CPUMaterial{
		Name:              "default",
		Albedo:            core.ColorWhite,
		Metallic:          0,
		Roughness:         1,
		NormalScale:       1,
		OcclusionStrength: 1,
	}
}

// Textures returns the non-nil texture maps of the material.
func (m *CPUMaterial) Textures() []*core.CPUTexture {
	var out []*core.CPUTexture
	for _, t := range []*core.CPUTexture{
		m.AlbedoTexture, m.MetallicRoughnessTexture, m.NormalTexture,
		m.OcclusionTexture, m.EmissiveTexture,
	} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
