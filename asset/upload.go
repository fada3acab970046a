package asset

import (
	"errors"
	"fmt"

	"render-core/core"
	"render-core/math"
)

// Attribute names MeshBuffers binds in shaders.
const (
	AttribPosition = "position"
	AttribNormal   = "normal"
	AttribTangent  = "tangent"
	AttribUV       = "uv"
	AttribColor    = "color"
)

// MeshBuffers is a CPUMesh uploaded to device buffers. Indices is nil for
// non-indexed meshes.
type MeshBuffers struct {
	Positions *core.VertexBuffer[math.Vec3]
	Normals   *core.VertexBuffer[math.Vec3]
	Tangents  *core.VertexBuffer[math.Vec3]
	UVs       *core.VertexBuffer[math.Vec2]
	Colors    *core.VertexBuffer[core.Color]
	Indices   *core.ElementBuffer[uint32]

	vertices int
}

// UploadMesh creates static vertex and element buffers for m. Missing
// attributes are filled with defaults first.
func UploadMesh(ctx *core.Context, m *CPUMesh) (*MeshBuffers, error) {
	if len(m.Positions) == 0 {
		return nil, fmt.Errorf("mesh %q has no vertices", m.Name)
	}
	if len(m.Tangents) != len(m.Positions) {
		m.ComputeTangents()
	}
	m.fillDefaults()

	mb := &MeshBuffers{vertices: len(m.Positions)}
	var err error
	if mb.Positions, err = core.NewVertexBufferWithData(ctx, m.Positions); err != nil {
		return nil, fmt.Errorf("mesh %q positions: %w", m.Name, err)
	}
	if mb.Normals, err = core.NewVertexBufferWithData(ctx, m.Normals); err != nil {
		mb.Release()
		return nil, fmt.Errorf("mesh %q normals: %w", m.Name, err)
	}
	if mb.Tangents, err = core.NewVertexBufferWithData(ctx, m.Tangents); err != nil {
		mb.Release()
		return nil, fmt.Errorf("mesh %q tangents: %w", m.Name, err)
	}
	if mb.UVs, err = core.NewVertexBufferWithData(ctx, m.UVs); err != nil {
		mb.Release()
		return nil, fmt.Errorf("mesh %q uvs: %w", m.Name, err)
	}
	if mb.Colors, err = core.NewVertexBufferWithData(ctx, m.Colors); err != nil {
		mb.Release()
		return nil, fmt.Errorf("mesh %q colors: %w", m.Name, err)
	}
	if len(m.Indices) > 0 {
		if mb.Indices, err = core.NewElementBufferWithData(ctx, m.Indices); err != nil {
			mb.Release()
			return nil, fmt.Errorf("mesh %q indices: %w", m.Name, err)
		}
	}
	return mb, nil
}

// Bind feeds every mesh attribute to p. Attributes p does not read are
// skipped by the program.
func (mb *MeshBuffers) Bind(p *core.Program) error {
	return errors.Join(
		p.UseVertexAttribute(AttribPosition, mb.Positions),
		p.UseVertexAttribute(AttribNormal, mb.Normals),
		p.UseVertexAttribute(AttribTangent, mb.Tangents),
		p.UseVertexAttribute(AttribUV, mb.UVs),
		p.UseVertexAttribute(AttribColor, mb.Colors),
	)
}

// Draw binds the mesh and issues one draw of it.
func (mb *MeshBuffers) Draw(p *core.Program, states core.RenderStates, viewport core.Viewport) error {
	if err := mb.Bind(p); err != nil {
		return err
	}
	if mb.Indices != nil {
		return p.DrawElements(states, viewport, mb.Indices)
	}
	return p.Draw(states, viewport, mb.vertices)
}

func (mb *MeshBuffers) Release() {
	if mb.Positions != nil {
		mb.Positions.Release()
	}
	if mb.Normals != nil {
		mb.Normals.Release()
	}
	if mb.Tangents != nil {
		mb.Tangents.Release()
	}
	if mb.UVs != nil {
		mb.UVs.Release()
	}
	if mb.Colors != nil {
		mb.Colors.Release()
	}
	if mb.Indices != nil {
		mb.Indices.Release()
	}
}
