package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places a structure in the world. The pick pass and the ray
// caster both go through ObjectToWorld so the two paths agree on placement.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Dirty    bool
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Dirty:    true,
	}
}

func (t *Transform) SetPosition(p mgl32.Vec3) {
	t.Position = p
	t.Dirty = true
}

func (t *Transform) SetRotation(q mgl32.Quat) {
	t.Rotation = q
	t.Dirty = true
}

func (t *Transform) SetScale(s mgl32.Vec3) {
	t.Scale = s
	t.Dirty = true
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

func (t *Transform) WorldToObject() mgl32.Mat4 {
	// inv(M) = inv(S) * inv(R) * inv(T)
	invScale := mgl32.Scale3D(1.0/t.Scale.X(), 1.0/t.Scale.Y(), 1.0/t.Scale.Z())
	invRotate := t.Rotation.Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

// MaxScale is the factor a world-space radius picks up from this transform.
func (t *Transform) MaxScale() float32 {
	s := t.Scale
	m := abs32(s.X())
	if v := abs32(s.Y()); v > m {
		m = v
	}
	if v := abs32(s.Z()); v > m {
		m = v
	}
	return m
}

// TransformAABB returns the world bounds of a local box by transforming its
// eight corners.
func TransformAABB(m mgl32.Mat4, local [2]mgl32.Vec3) [2]mgl32.Vec3 {
	minB, maxB := local[0], local[1]
	corners := [8]mgl32.Vec3{
		{minB.X(), minB.Y(), minB.Z()},
		{maxB.X(), minB.Y(), minB.Z()},
		{minB.X(), maxB.Y(), minB.Z()},
		{maxB.X(), maxB.Y(), minB.Z()},
		{minB.X(), minB.Y(), maxB.Z()},
		{maxB.X(), minB.Y(), maxB.Z()},
		{minB.X(), maxB.Y(), maxB.Z()},
		{maxB.X(), maxB.Y(), maxB.Z()},
	}

	out := EmptyAABB()
	for _, c := range corners {
		out = GrowAABB(out, m.Mul4x1(c.Vec4(1.0)).Vec3())
	}
	return out
}

func EmptyAABB() [2]mgl32.Vec3 {
	inf := float32(1e30)
	return [2]mgl32.Vec3{{inf, inf, inf}, {-inf, -inf, -inf}}
}

func GrowAABB(b [2]mgl32.Vec3, p mgl32.Vec3) [2]mgl32.Vec3 {
	for i := 0; i < 3; i++ {
		if p[i] < b[0][i] {
			b[0][i] = p[i]
		}
		if p[i] > b[1][i] {
			b[1][i] = p[i]
		}
	}
	return b
}

// PadAABB widens b by r on every axis.
func PadAABB(b [2]mgl32.Vec3, r float32) [2]mgl32.Vec3 {
	pad := mgl32.Vec3{r, r, r}
	return [2]mgl32.Vec3{b[0].Sub(pad), b[1].Add(pad)}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
