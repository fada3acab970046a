package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-core/core"
)

var depthFuncs = [...]uint32{
	core.DepthTestAlways:         gl.ALWAYS,
	core.DepthTestNever:          gl.NEVER,
	core.DepthTestLess:           gl.LESS,
	core.DepthTestLessOrEqual:    gl.LEQUAL,
	core.DepthTestEqual:          gl.EQUAL,
	core.DepthTestGreater:        gl.GREATER,
	core.DepthTestGreaterOrEqual: gl.GEQUAL,
	core.DepthTestNotEqual:       gl.NOTEQUAL,
}

var blendFactors = [...]uint32{
	core.BlendZero:             gl.ZERO,
	core.BlendOne:              gl.ONE,
	core.BlendSrcAlpha:         gl.SRC_ALPHA,
	core.BlendOneMinusSrcAlpha: gl.ONE_MINUS_SRC_ALPHA,
	core.BlendDstAlpha:         gl.DST_ALPHA,
	core.BlendOneMinusDstAlpha: gl.ONE_MINUS_DST_ALPHA,
	core.BlendSrcColor:         gl.SRC_COLOR,
	core.BlendOneMinusSrcColor: gl.ONE_MINUS_SRC_COLOR,
}

var blendEquations = [...]uint32{
	core.BlendEquationAdd:             gl.FUNC_ADD,
	core.BlendEquationSubtract:        gl.FUNC_SUBTRACT,
	core.BlendEquationReverseSubtract: gl.FUNC_REVERSE_SUBTRACT,
	core.BlendEquationMin:             gl.MIN,
	core.BlendEquationMax:             gl.MAX,
}

func (d *Device) SetViewport(v core.Viewport) {
	gl.Viewport(v.X, v.Y, int32(v.Width), int32(v.Height))
}

func (d *Device) SetRenderStates(s core.RenderStates) {
	m := s.WriteMask
	gl.ColorMask(m.Red, m.Green, m.Blue, m.Alpha)
	gl.DepthMask(m.Depth)

	// Depth writes need the test enabled, so Always is expressed as a
	// passing depth func rather than by disabling GL_DEPTH_TEST.
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(depthFuncs[s.DepthTest])

	if s.Blend.Enabled {
		b := s.Blend
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(blendFactors[b.SrcRGB], blendFactors[b.DstRGB], blendFactors[b.SrcAlpha], blendFactors[b.DstAlpha])
		gl.BlendEquationSeparate(blendEquations[b.RGBEquation], blendEquations[b.AlphaEquation])
	} else {
		gl.Disable(gl.BLEND)
	}

	switch s.Cull {
	case core.CullNone:
		gl.Disable(gl.CULL_FACE)
	case core.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case core.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	case core.CullFrontAndBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT_AND_BACK)
	}
	d.states = s
}

// Clear clears with every colour channel and depth writable, then puts the
// previous write mask back.
func (d *Device) Clear(c core.ClearState) {
	var bits uint32
	if c.Mask&core.ClearMaskColor != 0 {
		gl.ColorMask(true, true, true, true)
		gl.ClearColor(c.Color.R, c.Color.G, c.Color.B, c.Color.A)
		bits |= gl.COLOR_BUFFER_BIT
	}
	if c.Mask&core.ClearMaskDepth != 0 {
		gl.DepthMask(true)
		gl.ClearDepth(float64(c.Depth))
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if bits == 0 {
		return
	}
	gl.Clear(bits)

	m := d.states.WriteMask
	gl.ColorMask(m.Red, m.Green, m.Blue, m.Alpha)
	gl.DepthMask(m.Depth)
}

func (d *Device) DrawArrays(count, instances int) {
	if instances > 1 {
		gl.DrawArraysInstanced(gl.TRIANGLES, 0, int32(count), int32(instances))
		return
	}
	gl.DrawArrays(gl.TRIANGLES, 0, int32(count))
}

func indexType(t core.DataType) uint32 {
	switch t {
	case core.UnsignedByte:
		return gl.UNSIGNED_BYTE
	case core.UnsignedShort:
		return gl.UNSIGNED_SHORT
	}
	return gl.UNSIGNED_INT
}

func (d *Device) DrawElements(indices core.BufferID, t core.DataType, count, instances int) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(indices))
	if instances > 1 {
		gl.DrawElementsInstanced(gl.TRIANGLES, int32(count), indexType(t), nil, int32(instances))
	} else {
		gl.DrawElements(gl.TRIANGLES, int32(count), indexType(t), nil)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
}
