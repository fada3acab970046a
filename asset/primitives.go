package asset

import (
	stdmath "math"

	"render-core/math"
)

// CreateSphere generates a UV-sphere mesh.
func CreateSphere(radius float32, segments, rings int) *CPUMesh {
	segments = max(segments, 3)
	rings = max(rings, 2)

	m := &CPUMesh{Name: "Sphere", Material: -1}
	for ring := 0; ring <= rings; ring++ {
		phi := float64(ring) * stdmath.Pi / float64(rings)
		sinPhi, cosPhi := float32(stdmath.Sin(phi)), float32(stdmath.Cos(phi))

		for seg := 0; seg <= segments; seg++ {
			theta := float64(seg) * 2 * stdmath.Pi / float64(segments)
			sinTheta, cosTheta := float32(stdmath.Sin(theta)), float32(stdmath.Cos(theta))

			normal := math.Vec3{X: sinPhi * cosTheta, Y: cosPhi, Z: sinPhi * sinTheta}
			m.Positions = append(m.Positions, normal.Mul(radius))
			m.Normals = append(m.Normals, normal)
			m.UVs = append(m.UVs, math.Vec2{X: float32(seg) / float32(segments), Y: float32(ring) / float32(rings)})
		}
	}

	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments+1)
			m.Indices = append(m.Indices, current, next, current+1, current+1, next, next+1)
		}
	}
	m.ComputeTangents()
	return m
}

// CreatePlane generates a subdivided plane in XZ facing +Y.
func CreatePlane(width, depth float32, subdivisions int) *CPUMesh {
	subdivisions = max(subdivisions, 1)
	halfW, halfD := width/2, depth/2

	m := &CPUMesh{Name: "Plane", Material: -1}
	for z := 0; z <= subdivisions; z++ {
		for x := 0; x <= subdivisions; x++ {
			u := float32(x) / float32(subdivisions)
			v := float32(z) / float32(subdivisions)
			m.Positions = append(m.Positions, math.Vec3{X: -halfW + u*width, Z: -halfD + v*depth})
			m.Normals = append(m.Normals, math.Vec3{Y: 1})
			m.UVs = append(m.UVs, math.Vec2{X: u, Y: v})
		}
	}

	for z := 0; z < subdivisions; z++ {
		for x := 0; x < subdivisions; x++ {
			topLeft := uint32(z*(subdivisions+1) + x)
			topRight := topLeft + 1
			bottomLeft := topLeft + uint32(subdivisions+1)
			bottomRight := bottomLeft + 1
			m.Indices = append(m.Indices, topLeft, bottomLeft, topRight, topRight, bottomLeft, bottomRight)
		}
	}
	m.ComputeTangents()
	return m
}

// CreateCube generates an axis-aligned cube with per-face normals.
func CreateCube(size float32) *CPUMesh {
	h := size / 2
	faces := []struct {
		normal, u, v math.Vec3
	}{
		{math.Vec3{Z: 1}, math.Vec3{X: 1}, math.Vec3{Y: 1}},
		{math.Vec3{Z: -1}, math.Vec3{X: -1}, math.Vec3{Y: 1}},
		{math.Vec3{X: 1}, math.Vec3{Z: -1}, math.Vec3{Y: 1}},
		{math.Vec3{X: -1}, math.Vec3{Z: 1}, math.Vec3{Y: 1}},
		{math.Vec3{Y: 1}, math.Vec3{X: 1}, math.Vec3{Z: -1}},
		{math.Vec3{Y: -1}, math.Vec3{X: 1}, math.Vec3{Z: 1}},
	}

	m := &CPUMesh{Name: "Cube", Material: -1}
	for _, f := range faces {
		base := uint32(len(m.Positions))
		center := f.normal.Mul(h)
		for _, c := range [4]math.Vec2{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}} {
			p := center.Add(f.u.Mul(c.X * h)).Add(f.v.Mul(c.Y * h))
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, f.normal)
			m.UVs = append(m.UVs, math.Vec2{X: (c.X + 1) / 2, Y: (c.Y + 1) / 2})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	m.ComputeTangents()
	return m
}
