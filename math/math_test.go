package math

import (
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func mat4Approx(a, b Mat4) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if !approx(a[i][j], b[i][j]) {
				return false
			}
		}
	}
	return true
}

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	if got, want := v1.Add(v2), NewVec3(5, 7, 9); got != want {
		t.Errorf("Add: expected %v, got %v", want, got)
	}
	if got, want := v2.Sub(v1), NewVec3(3, 3, 3); got != want {
		t.Errorf("Sub: expected %v, got %v", want, got)
	}
	if got := v1.Dot(v2); got != 32 {
		t.Errorf("Dot: expected 32, got %v", got)
	}
	if got := Vec3Right.Cross(Vec3Up); got != Vec3Front {
		t.Errorf("Cross: expected %v, got %v", Vec3Front, got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := NewVec3(3, 0, 4).Normalize()
	if !approx(n.Length(), 1) {
		t.Errorf("Normalize: expected length 1, got %v", n.Length())
	}
	if z := Vec3Zero.Normalize(); z != Vec3Zero {
		t.Errorf("Normalize zero: expected zero vector, got %v", z)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
	if got := Clamp(float32(1.5), 0, 1); got != 1 {
		t.Errorf("Clamp float: expected 1, got %v", got)
	}
}

func TestMat4Translation(t *testing.T) {
	m := Mat4Translation(NewVec3(1, 2, 3))
	p := m.TransformPoint(Vec3Zero)
	if p != NewVec3(1, 2, 3) {
		t.Errorf("expected (1,2,3), got %v", p)
	}
}

func TestMat4Inverse(t *testing.T) {
	m := Mat4Translation(NewVec3(1, -2, 3)).
		Mul(Mat4RotationY(0.7)).
		Mul(Mat4Scale(NewVec3(2, 2, 2)))

	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("expected invertible matrix")
	}
	if got := m.Mul(inv); !mat4Approx(got, Mat4Identity()) {
		t.Errorf("m * inverse(m) is not identity: %v", got)
	}
}

func TestMat4InverseSingular(t *testing.T) {
	var zero Mat4
	inv, ok := zero.Inverse()
	if ok {
		t.Error("expected singular matrix to report ok=false")
	}
	if inv != Mat4Identity() {
		t.Errorf("expected identity fallback, got %v", inv)
	}
}

func TestMat4PerspectiveRoundTrip(t *testing.T) {
	proj := Mat4Perspective(Radians(60), 16.0/9.0, 0.1, 100)
	view := Mat4LookAt(NewVec3(0, 2, 5), Vec3Zero, Vec3Up)
	vp := view.Mul(proj)

	inv, ok := vp.Inverse()
	if !ok {
		t.Fatal("view-projection should be invertible")
	}

	world := NewVec3(0.5, 0.25, -1)
	ndc := vp.TransformPoint(world)
	back := inv.TransformPoint(ndc)
	if !approx(back.X, world.X) || !approx(back.Y, world.Y) || !approx(back.Z, world.Z) {
		t.Errorf("round trip: expected %v, got %v", world, back)
	}
}

func TestMat4LookAtOrigin(t *testing.T) {
	view := Mat4LookAt(NewVec3(0, 0, 5), Vec3Zero, Vec3Up)
	p := view.TransformPoint(Vec3Zero)
	if !approx(p.Z, -5) {
		t.Errorf("target should be 5 units in front of the camera, got z=%v", p.Z)
	}
}

func TestMat4Orthographic(t *testing.T) {
	m := Mat4Orthographic(-2, 2, -1, 1, 1, 11)
	tests := []struct {
		in, want Vec3
	}{
		{NewVec3(-2, -1, -1), NewVec3(-1, -1, -1)},
		{NewVec3(2, 1, -11), NewVec3(1, 1, 1)},
		{NewVec3(0, 0, -6), NewVec3(0, 0, 0)},
	}
	for _, tt := range tests {
		got := m.TransformPoint(tt.in)
		if !approx(got.X, tt.want.X) || !approx(got.Y, tt.want.Y) || !approx(got.Z, tt.want.Z) {
			t.Errorf("Orthographic(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFrustumCulling(t *testing.T) {
	view := Mat4LookAt(NewVec3(0, 0, 5), Vec3Zero, Vec3Up)
	f := FrustumFromViewProjection(view.Mul(Mat4Perspective(Radians(60), 1, 0.1, 100)))

	// The near plane faces -Z in world space, towards the scene.
	if n := f.Planes[4].Normal; !approx(n.Z, -1) {
		t.Errorf("near normal = %v", n)
	}
	if d := f.Planes[4].DistanceTo(NewVec3(0, 0, 4.9)); !approx(d, 0) {
		t.Errorf("near plane distance = %v", d)
	}

	unit := AABB{Min: NewVec3(-0.5, -0.5, -0.5), Max: NewVec3(0.5, 0.5, 0.5)}
	tests := []struct {
		name string
		at   Vec3
		want bool
	}{
		{"in front", Vec3Zero, true},
		{"behind", NewVec3(0, 0, 10), false},
		{"far left", NewVec3(-50, 0, 0), false},
		{"beyond far", NewVec3(0, 0, -200), false},
		{"straddling right", NewVec3(3.2, 0, 0), true},
	}
	for _, tt := range tests {
		box := unit.Transform(Mat4Translation(tt.at))
		if got := box.IntersectsFrustum(&f); got != tt.want {
			t.Errorf("%s: IntersectsFrustum = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAABBTransform(t *testing.T) {
	b := AABB{Min: NewVec3(0, 0, 0), Max: NewVec3(1, 2, 3)}
	got := b.Transform(Mat4RotationY(Radians(90)))
	want := AABB{Min: NewVec3(0, 0, -1), Max: NewVec3(3, 2, 0)}
	for _, p := range [][2]Vec3{{got.Min, want.Min}, {got.Max, want.Max}} {
		if !approx(p[0].X, p[1].X) || !approx(p[0].Y, p[1].Y) || !approx(p[0].Z, p[1].Z) {
			t.Errorf("Transform = %+v, want %+v", got, want)
			break
		}
	}
}
