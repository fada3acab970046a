// Package effect contains post-process passes built on core.ImageEffect.
// Each pass draws into whatever render target the caller's write scope has
// bound, or manages its own intermediate textures through nested scopes.
package effect

import (
	"render-core/core"
	"render-core/math"
)

// Camera supplies the view information screen-space passes need.
type Camera interface {
	ViewProjection() math.Mat4
	Position() math.Vec3
	Viewport() core.Viewport
}

// PerspectiveCamera is a fixed look-at camera.
type PerspectiveCamera struct {
	Eye, Target, Up math.Vec3
	FovY            float32 // radians
	Near, Far       float32
	View            core.Viewport
}

func NewPerspectiveCamera(viewport core.Viewport, eye, target math.Vec3) *PerspectiveCamera {
	return &PerspectiveCamera{
		Eye:    eye,
		Target: target,
		Up:     math.Vec3Up,
		FovY:   math.Radians(60),
		Near:   0.1,
		Far:    100,
		View:   viewport,
	}
}

func (c *PerspectiveCamera) ViewMatrix() math.Mat4 {
	return math.Mat4LookAt(c.Eye, c.Target, c.Up)
}

func (c *PerspectiveCamera) Projection() math.Mat4 {
	return math.Mat4Perspective(c.FovY, c.View.AspectRatio(), c.Near, c.Far)
}

func (c *PerspectiveCamera) ViewProjection() math.Mat4 {
	return c.ViewMatrix().Mul(c.Projection())
}

func (c *PerspectiveCamera) Position() math.Vec3     { return c.Eye }
func (c *PerspectiveCamera) Viewport() core.Viewport { return c.View }
