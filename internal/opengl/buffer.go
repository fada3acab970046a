package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-core/core"
)

func bufferTarget(t core.BufferTarget) uint32 {
	if t == core.BufferTargetElementArray {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func bufferUsage(u core.BufferUsage) uint32 {
	if u == core.DynamicDraw {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

func (d *Device) CreateBuffer() (core.BufferID, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return 0, glError("gen buffer")
	}
	return core.BufferID(id), nil
}

func (d *Device) BufferData(target core.BufferTarget, id core.BufferID, data []byte, usage core.BufferUsage) error {
	t := bufferTarget(target)
	gl.BindBuffer(t, uint32(id))
	if len(data) == 0 {
		gl.BufferData(t, 0, nil, bufferUsage(usage))
	} else {
		gl.BufferData(t, len(data), gl.Ptr(data), bufferUsage(usage))
	}
	gl.BindBuffer(t, 0)
	return glError("buffer data")
}

func (d *Device) BufferSubData(target core.BufferTarget, id core.BufferID, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	t := bufferTarget(target)
	gl.BindBuffer(t, uint32(id))
	gl.BufferSubData(t, offset, len(data), gl.Ptr(data))
	gl.BindBuffer(t, 0)
}

func (d *Device) DeleteBuffer(id core.BufferID) {
	b := uint32(id)
	gl.DeleteBuffers(1, &b)
}
