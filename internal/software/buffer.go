package software

import (
	"fmt"

	"render-core/core"
)

type buffer struct {
	target core.BufferTarget
	usage  core.BufferUsage
	data   []byte
}

func (d *Device) CreateBuffer() (core.BufferID, error) {
	id, err := d.allocate()
	if err != nil {
		return 0, err
	}
	d.buffers[core.BufferID(id)] = &buffer{}
	return core.BufferID(id), nil
}

func (d *Device) BufferData(target core.BufferTarget, id core.BufferID, data []byte, usage core.BufferUsage) error {
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("software device: unknown buffer %d", id)
	}
	if d.FailAllocations {
		return errAllocation
	}
	b.target, b.usage = target, usage
	b.data = append([]byte(nil), data...)
	return nil
}

func (d *Device) BufferSubData(_ core.BufferTarget, id core.BufferID, offset int, data []byte) {
	b, ok := d.buffers[id]
	if !ok || offset+len(data) > len(b.data) {
		return
	}
	copy(b.data[offset:], data)
}

func (d *Device) DeleteBuffer(id core.BufferID) {
	delete(d.buffers, id)
}

// BufferContents returns a copy of the buffer's bytes.
func (d *Device) BufferContents(id core.BufferID) []byte {
	b, ok := d.buffers[id]
	if !ok {
		return nil
	}
	return append([]byte(nil), b.data...)
}

// BufferCapacity returns the allocated size of a buffer in bytes.
func (d *Device) BufferCapacity(id core.BufferID) int {
	if b, ok := d.buffers[id]; ok {
		return len(b.data)
	}
	return -1
}
