package math

// Plane is the half-space Normal·p + D >= 0.
type Plane struct {
	Normal Vec3
	D      float32
}

// DistanceTo returns the signed distance from p to the plane, positive on
// the inside.
func (pl Plane) DistanceTo(p Vec3) float32 {
	return pl.Normal.Dot(p) + pl.D
}

func normalizePlane(v Vec4) Plane {
	n := v.XYZ()
	l := n.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v.W / l}
}

// Frustum holds the six clip planes of a view volume, normals pointing in:
// left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromViewProjection extracts the clip planes of vp (Gribb/Hartmann).
// Clip coordinates are the row vector p*vp, so each clip component is a
// column of vp.
func FrustumFromViewProjection(vp Mat4) Frustum {
	col := func(j int) Vec4 {
		return Vec4{X: vp[0][j], Y: vp[1][j], Z: vp[2][j], W: vp[3][j]}
	}
	x, y, z, w := col(0), col(1), col(2), col(3)

	return Frustum{Planes: [6]Plane{
		normalizePlane(w.Add(x)),
		normalizePlane(w.Sub(x)),
		normalizePlane(w.Add(y)),
		normalizePlane(w.Sub(y)),
		normalizePlane(w.Add(z)),
		normalizePlane(w.Sub(z)),
	}}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
}

// Transform returns the box enclosing the eight corners of b transformed
// by m.
func (b AABB) Transform(m Mat4) AABB {
	var out AABB
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		p := m.TransformPoint(c)
		if i == 0 {
			out = AABB{Min: p, Max: p}
			continue
		}
		out.Min = Vec3{X: min(out.Min.X, p.X), Y: min(out.Min.Y, p.Y), Z: min(out.Min.Z, p.Z)}
		out.Max = Vec3{X: max(out.Max.X, p.X), Y: max(out.Max.Y, p.Y), Z: max(out.Max.Z, p.Z)}
	}
	return out
}

// IntersectsFrustum reports false only when b lies entirely outside one of
// the planes. It tests the corner furthest along each plane normal.
func (b AABB) IntersectsFrustum(f *Frustum) bool {
	for _, pl := range f.Planes {
		p := b.Min
		if pl.Normal.X >= 0 {
			p.X = b.Max.X
		}
		if pl.Normal.Y >= 0 {
			p.Y = b.Max.Y
		}
		if pl.Normal.Z >= 0 {
			p.Z = b.Max.Z
		}
		if pl.DistanceTo(p) < 0 {
			return false
		}
	}
	return true
}
