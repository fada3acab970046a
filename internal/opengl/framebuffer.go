package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-core/core"
)

func (d *Device) CreateFramebuffer() (core.FramebufferID, error) {
	var id uint32
	gl.GenFramebuffers(1, &id)
	if id == 0 {
		return 0, glError("gen framebuffer")
	}
	return core.FramebufferID(id), nil
}

func (d *Device) BindFramebuffer(id core.FramebufferID) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(id))
}

func (d *Device) FramebufferTexture(point core.AttachmentPoint, slot uint32, kind core.TextureKind, tex core.TextureID, level, layer uint32) {
	att := uint32(gl.DEPTH_ATTACHMENT)
	if point == core.AttachColor {
		att = gl.COLOR_ATTACHMENT0 + slot
	}
	switch kind {
	case core.TextureKind2DArray:
		gl.FramebufferTextureLayer(gl.FRAMEBUFFER, att, uint32(tex), int32(level), int32(layer))
	case core.TextureKindCubeMap:
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, att, gl.TEXTURE_CUBE_MAP_POSITIVE_X+layer, uint32(tex), int32(level))
	default:
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, att, gl.TEXTURE_2D, uint32(tex), int32(level))
	}
}

// DrawBuffers routes fragment output i to colour attachment i. A depth-only
// framebuffer has no draw or read buffer.
func (d *Device) DrawBuffers(count int) {
	if count == 0 {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
		return
	}
	bufs := make([]uint32, count)
	for i := range bufs {
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
	}
	gl.DrawBuffers(int32(count), &bufs[0])
}

func (d *Device) CheckFramebuffer() error {
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("status=0x%X", status)
	}
	return nil
}

func (d *Device) DeleteFramebuffer(id core.FramebufferID) {
	fb := uint32(id)
	gl.DeleteFramebuffers(1, &fb)
}
