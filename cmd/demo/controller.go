package main

import (
	stdmath "math"
	"slices"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"

	"render-core/effect"
	"render-core/math"
)

// input is the part of the window the controller polls.
type input interface {
	IsKeyPressed(key glfw.Key) bool
	IsMouseButtonPressed(button glfw.MouseButton) bool
	CursorPos() (float64, float64)
}

// collBox is an axis-aligned rectangle in XZ the player cannot walk through.
type collBox struct {
	minX, maxX, minZ, maxZ float32
}

const (
	playerRadius = float32(0.35)
	gravity      = -18.0 // m/s²
	jumpSpeed    = 7.0
)

// resolveCollision pushes pos outside every overlapping box along the axis
// of least penetration.
func resolveCollision(pos math.Vec3, boxes []collBox) math.Vec3 {
	for _, b := range boxes {
		minX, maxX := b.minX-playerRadius, b.maxX+playerRadius
		minZ, maxZ := b.minZ-playerRadius, b.maxZ+playerRadius
		if pos.X <= minX || pos.X >= maxX || pos.Z <= minZ || pos.Z >= maxZ {
			continue
		}

		left, right := pos.X-minX, maxX-pos.X
		front, back := pos.Z-minZ, maxZ-pos.Z
		switch {
		case left <= right && left <= front && left <= back:
			pos.X = minX
		case right <= left && right <= front && right <= back:
			pos.X = maxX
		case front <= left && front <= right && front <= back:
			pos.Z = minZ
		default:
			pos.Z = maxZ
		}
	}
	return pos
}

// walkController moves a camera with WASD and right-drag mouse look, with
// gravity against a y=0 floor.
type walkController struct {
	moveSpeed  float32
	lookSpeed  float32
	yaw, pitch float32 // degrees
	eyeHeight  float32

	lastX, lastY float64
	dragging     bool

	velocityY   float32
	onGround    bool
	jumpWasDown bool

	boxes []collBox
}

func newWalkController() *walkController {
	return &walkController{
		moveSpeed: 6,
		lookSpeed: 0.1,
		yaw:       -90,
		eyeHeight: 1.7,
		onGround:  true,
	}
}

// collideWith adds the XZ footprint of every instance whose name matches
// one of prefixes.
func (wc *walkController) collideWith(s *gpuScene, prefixes ...string) {
	for _, inst := range s.instances {
		if !slices.ContainsFunc(prefixes, func(p string) bool { return strings.HasPrefix(inst.Node, p) }) {
			continue
		}
		b := s.bounds[inst.Mesh].Transform(inst.Transform)
		wc.boxes = append(wc.boxes, collBox{minX: b.Min.X, maxX: b.Max.X, minZ: b.Min.Z, maxZ: b.Max.Z})
	}
}

func (wc *walkController) forward() math.Vec3 {
	yaw, pitch := float64(math.Radians(wc.yaw)), float64(math.Radians(wc.pitch))
	return math.Vec3{
		X: float32(stdmath.Cos(yaw) * stdmath.Cos(pitch)),
		Y: float32(stdmath.Sin(pitch)),
		Z: float32(stdmath.Sin(yaw) * stdmath.Cos(pitch)),
	}.Normalize()
}

func (wc *walkController) Update(in input, camera *effect.PerspectiveCamera, dt float32) {
	// Large steps on the first frames or after a hitch would tunnel through walls.
	dt = min(dt, 0.05)

	if in.IsMouseButtonPressed(glfw.MouseButtonRight) {
		x, y := in.CursorPos()
		if wc.dragging {
			wc.yaw += float32(x-wc.lastX) * wc.lookSpeed
			wc.pitch = math.Clamp(wc.pitch+float32(wc.lastY-y)*wc.lookSpeed, -88, 88)
		}
		wc.lastX, wc.lastY, wc.dragging = x, y, true
	} else {
		wc.dragging = false
	}

	yaw := float64(math.Radians(wc.yaw))
	ahead := math.Vec3{X: float32(stdmath.Cos(yaw)), Z: float32(stdmath.Sin(yaw))}
	right := math.Vec3{X: -ahead.Z, Z: ahead.X}

	step := wc.moveSpeed * dt
	var move math.Vec3
	if in.IsKeyPressed(glfw.KeyW) {
		move = move.Add(ahead.Mul(step))
	}
	if in.IsKeyPressed(glfw.KeyS) {
		move = move.Add(ahead.Mul(-step))
	}
	if in.IsKeyPressed(glfw.KeyD) {
		move = move.Add(right.Mul(step))
	}
	if in.IsKeyPressed(glfw.KeyA) {
		move = move.Add(right.Mul(-step))
	}

	jump := in.IsKeyPressed(glfw.KeySpace)
	if jump && !wc.jumpWasDown && wc.onGround {
		wc.velocityY = jumpSpeed
		wc.onGround = false
	}
	wc.jumpWasDown = jump
	if !wc.onGround {
		wc.velocityY += gravity * dt
	}

	pos := camera.Eye.Add(move)
	pos.Y += wc.velocityY * dt
	if pos.Y <= wc.eyeHeight {
		pos.Y = wc.eyeHeight
		wc.velocityY = 0
		wc.onGround = true
	}
	pos = resolveCollision(pos, wc.boxes)

	camera.Eye = pos
	camera.Target = pos.Add(wc.forward())
}
