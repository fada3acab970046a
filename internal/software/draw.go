package software

import (
	"maps"

	"render-core/core"
)

// DrawCall is the device state captured when a draw was issued.
type DrawCall struct {
	Program     core.ProgramID
	Framebuffer core.FramebufferID
	Colors      map[uint32]Attachment
	Depth       *Attachment
	Viewport    core.Viewport
	States      core.RenderStates
	Count       int
	Instances   int
	Indexed     bool
	IndexType   core.DataType
	Uniforms    map[string]any
	Textures    map[uint32]core.TextureID
	Attributes  map[string]core.BufferID
}

func (d *Device) record(call DrawCall) {
	call.Program = d.current
	call.Framebuffer = d.bound
	call.Viewport = d.viewport
	call.States = d.states
	call.Textures = maps.Clone(d.units)
	call.Attributes = maps.Clone(d.attributes)
	if p, ok := d.programs[d.current]; ok {
		call.Uniforms = maps.Clone(p.uniforms)
	}
	if d.bound != 0 {
		call.Colors, call.Depth = d.Attachments(d.bound)
	}
	d.draws = append(d.draws, call)
}

func (d *Device) DrawArrays(count, instances int) {
	d.record(DrawCall{Count: count, Instances: instances})
}

func (d *Device) DrawElements(_ core.BufferID, indexType core.DataType, count, instances int) {
	d.record(DrawCall{Count: count, Instances: instances, Indexed: true, IndexType: indexType})
}

// Draws returns every draw recorded since the last ResetDraws.
func (d *Device) Draws() []DrawCall { return d.draws }

func (d *Device) ResetDraws() { d.draws = nil }
