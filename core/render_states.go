package core

// WriteMask selects which attachments a draw writes to.
type WriteMask struct {
	Red, Green, Blue, Alpha bool
	Depth                   bool
}

var (
	WriteMaskColorAndDepth = WriteMask{Red: true, Green: true, Blue: true, Alpha: true, Depth: true}
	WriteMaskColor         = WriteMask{Red: true, Green: true, Blue: true, Alpha: true}
	WriteMaskDepth         = WriteMask{Depth: true}
)

type DepthTest uint8

const (
	DepthTestAlways DepthTest = iota
	DepthTestNever
	DepthTestLess
	DepthTestLessOrEqual
	DepthTestEqual
	DepthTestGreater
	DepthTestGreaterOrEqual
	DepthTestNotEqual
)

type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendSrcColor
	BlendOneMinusSrcColor
)

type BlendEquation uint8

const (
	BlendEquationAdd BlendEquation = iota
	BlendEquationSubtract
	BlendEquationReverseSubtract
	BlendEquationMin
	BlendEquationMax
)

// Blend is the colour blending configuration. A disabled Blend overwrites
// the destination.
type Blend struct {
	Enabled            bool
	SrcRGB, DstRGB     BlendFactor
	SrcAlpha, DstAlpha BlendFactor
	RGBEquation        BlendEquation
	AlphaEquation      BlendEquation
}

var (
	BlendNone         = Blend{}
	BlendTransparency = Blend{
		Enabled: true,
		SrcRGB:  BlendSrcAlpha, DstRGB: BlendOneMinusSrcAlpha,
		SrcAlpha: BlendZero, DstAlpha: BlendOne,
	}
	BlendAdd = Blend{
		Enabled: true,
		SrcRGB:  BlendOne, DstRGB: BlendOne,
		SrcAlpha: BlendOne, DstAlpha: BlendOne,
	}
)

type Cull uint8

const (
	CullNone Cull = iota
	CullBack
	CullFront
	CullFrontAndBack
)

// RenderStates is the full fixed-function state of one draw. Every draw
// sets all of it; nothing carries over from a previous draw.
type RenderStates struct {
	WriteMask WriteMask
	DepthTest DepthTest
	Blend     Blend
	Cull      Cull
}

// DefaultRenderStates writes colour and depth with a less-or-equal depth
// test, no blending and no culling.
func DefaultRenderStates() RenderStates {
	return RenderStates{
		WriteMask: WriteMaskColorAndDepth,
		DepthTest: DepthTestLessOrEqual,
		Blend:     BlendNone,
		Cull:      CullNone,
	}
}

// ClearMask selects the attachment kinds a ClearState clears.
type ClearMask uint8

const (
	ClearMaskColor ClearMask = 1 << iota
	ClearMaskDepth
)

// ClearState is applied once when a write scope is entered.
type ClearState struct {
	Mask  ClearMask
	Color Color
	Depth float32
}

// ClearNone leaves every attachment untouched.
func ClearNone() ClearState { return ClearState{} }

func ClearColor(r, g, b, a float32) ClearState {
	return ClearState{Mask: ClearMaskColor, Color: Color{r, g, b, a}}
}

func ClearDepth(depth float32) ClearState {
	return ClearState{Mask: ClearMaskDepth, Depth: depth}
}

func ClearColorAndDepth(r, g, b, a, depth float32) ClearState {
	return ClearState{Mask: ClearMaskColor | ClearMaskDepth, Color: Color{r, g, b, a}, Depth: depth}
}

// restrict drops the parts of the clear that have no attachment to act on.
func (c ClearState) restrict(hasColor, hasDepth bool) ClearState {
	if !hasColor {
		c.Mask &^= ClearMaskColor
	}
	if !hasDepth {
		c.Mask &^= ClearMaskDepth
	}
	return c
}
