// Package software implements core.Device on the CPU. It keeps texture
// contents as images, tracks framebuffer and draw state, and records every
// draw call instead of rasterizing. It backs headless runs and tests.
package software

import (
	"errors"
	"fmt"
	"image"

	"render-core/core"
)

var errAllocation = errors.New("software device: allocation failed")

// Device is a CPU implementation of core.Device. It is not safe for
// concurrent use.
type Device struct {
	caps core.Caps
	next uint32

	buffers      map[core.BufferID]*buffer
	textures     map[core.TextureID]*texture
	framebuffers map[core.FramebufferID]*framebuffer
	programs     map[core.ProgramID]*program

	bound      core.FramebufferID
	viewport   core.Viewport
	states     core.RenderStates
	current    core.ProgramID
	units      map[uint32]core.TextureID
	attributes map[string]core.BufferID

	screen      *image.RGBA64
	screenDepth []float32

	draws    []DrawCall
	released bool

	// FailAllocations makes every Create call fail, as an exhausted device would.
	FailAllocations bool
}

// DefaultCaps are the limits reported by NewDevice.
func DefaultCaps() core.Caps {
	return core.Caps{
		MaxTextureSize:       4096,
		MaxArrayLayers:       256,
		MaxColorAttachments:  8,
		MaxTextureUnits:      16,
		FloatLinearFiltering: true,
	}
}

// NewDevice returns a device whose default framebuffer is width x height.
func NewDevice(width, height int) *Device {
	return NewDeviceWithCaps(width, height, DefaultCaps())
}

func NewDeviceWithCaps(width, height int, caps core.Caps) *Device {
	return &Device{
		caps:         caps,
		buffers:      map[core.BufferID]*buffer{},
		textures:     map[core.TextureID]*texture{},
		framebuffers: map[core.FramebufferID]*framebuffer{},
		programs:     map[core.ProgramID]*program{},
		units:        map[uint32]core.TextureID{},
		attributes:   map[string]core.BufferID{},
		screen:       image.NewRGBA64(image.Rect(0, 0, width, height)),
		screenDepth:  make([]float32, width*height),
	}
}

func (d *Device) Caps() core.Caps { return d.caps }

func (d *Device) allocate() (uint32, error) {
	if d.FailAllocations {
		return 0, errAllocation
	}
	d.next++
	return d.next, nil
}

func (d *Device) Release() {
	d.released = true
}

// Released reports whether Release was called.
func (d *Device) Released() bool { return d.released }

func (d *Device) SetViewport(v core.Viewport) { d.viewport = v }

func (d *Device) SetRenderStates(s core.RenderStates) { d.states = s }

// Viewport returns the last viewport set.
func (d *Device) Viewport() core.Viewport { return d.viewport }

// RenderStates returns the last render states set.
func (d *Device) RenderStates() core.RenderStates { return d.states }

// LiveBuffers returns the number of buffers not yet deleted.
func (d *Device) LiveBuffers() int      { return len(d.buffers) }
func (d *Device) LiveTextures() int     { return len(d.textures) }
func (d *Device) LiveFramebuffers() int { return len(d.framebuffers) }
func (d *Device) LivePrograms() int     { return len(d.programs) }

// LiveResources returns the total number of undeleted device objects.
func (d *Device) LiveResources() int {
	return len(d.buffers) + len(d.textures) + len(d.framebuffers) + len(d.programs)
}

func (d *Device) String() string {
	return fmt.Sprintf("software device (%d buffers, %d textures, %d framebuffers, %d programs)",
		len(d.buffers), len(d.textures), len(d.framebuffers), len(d.programs))
}

var _ core.Device = (*Device)(nil)
