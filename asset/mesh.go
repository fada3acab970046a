// Package asset loads meshes, materials and textures from disk into CPU
// form and uploads them into core buffers.
package asset

import (
	"render-core/core"
	"render-core/math"
)

// CPUMesh is triangle-list geometry. Every per-vertex slice has one entry
// per position.
type CPUMesh struct {
	Name      string
	Positions []math.Vec3
	Normals   []math.Vec3
	Tangents  []math.Vec3
	UVs       []math.Vec2
	Colors    []core.Color
	Indices   []uint32

	// Material indexes Scene.Materials; -1 means the default material.
	Material int
}

// VertexCount returns the number of vertices.
func (m *CPUMesh) VertexCount() int { return len(m.Positions) }

// Bounds returns the box enclosing every position. An empty mesh has zero
// bounds.
func (m *CPUMesh) Bounds() math.AABB {
	if len(m.Positions) == 0 {
		return math.AABB{}
	}
	b := math.AABB{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		b.Min = math.Vec3{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
		b.Max = math.Vec3{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
	}
	return b
}

// fillDefaults pads missing attributes: normals point up, UVs are zero and
// colours are white.
func (m *CPUMesh) fillDefaults() {
	n := len(m.Positions)
	for len(m.Normals) < n {
		m.Normals = append(m.Normals, math.Vec3{Y: 1})
	}
	for len(m.UVs) < n {
		m.UVs = append(m.UVs, math.Vec2{})
	}
	for len(m.Colors) < n {
		m.Colors = append(m.Colors, core.ColorWhite)
	}
}

// ComputeTangents generates per-vertex tangents for normal mapping from
// positions, normals and UVs. Triangles with a degenerate UV area are
// skipped.
func (m *CPUMesh) ComputeTangents() {
	m.fillDefaults()
	n := len(m.Positions)
	tangents := make([]math.Vec3, n)

	accum := func(i0, i1, i2 uint32) {
		if int(max(i0, i1, i2)) >= n {
			return
		}
		e1 := m.Positions[i1].Sub(m.Positions[i0])
		e2 := m.Positions[i2].Sub(m.Positions[i0])
		d1 := m.UVs[i1].Sub(m.UVs[i0])
		d2 := m.UVs[i2].Sub(m.UVs[i0])

		denom := d1.X*d2.Y - d2.X*d1.Y
		if denom == 0 {
			return
		}
		r := 1 / denom
		t := e1.Mul(d2.Y * r).Sub(e2.Mul(d1.Y * r))
		tangents[i0] = tangents[i0].Add(t)
		tangents[i1] = tangents[i1].Add(t)
		tangents[i2] = tangents[i2].Add(t)
	}

	if len(m.Indices) > 0 {
		for i := 0; i+2 < len(m.Indices); i += 3 {
			accum(m.Indices[i], m.Indices[i+1], m.Indices[i+2])
		}
	} else {
		for i := 0; i+2 < n; i += 3 {
			accum(uint32(i), uint32(i+1), uint32(i+2))
		}
	}

	// Gram-Schmidt against the normal.
	for i, t := range tangents {
		nrm := m.Normals[i]
		t = t.Sub(nrm.Mul(nrm.Dot(t)))
		if t.Dot(t) < 1e-8 {
			if abs(nrm.X) < 0.9 {
				t = math.Vec3{X: 1}.Sub(nrm.Mul(nrm.X))
			} else {
				t = math.Vec3{Y: 1}.Sub(nrm.Mul(nrm.Y))
			}
		}
		tangents[i] = t.Normalize()
	}
	m.Tangents = tangents
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
