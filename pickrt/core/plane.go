package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Plane is a construction plane: a bounded square picked by ray only. It is
// never drawn into the pick buffer and holds no identifiers.
type Plane struct {
	ID      uuid.UUID
	Name    string
	Origin  mgl32.Vec3
	Normal  mgl32.Vec3
	Size    float32 // half extent along each in-plane axis; <= 0 is unbounded
	Visible bool
}

func NewPlane(name string, origin, normal mgl32.Vec3, size float32) *Plane {
	return &Plane{
		ID:      uuid.New(),
		Name:    name,
		Origin:  origin,
		Normal:  normal.Normalize(),
		Size:    size,
		Visible: true,
	}
}

// Axes returns two unit vectors spanning the plane.
func (p *Plane) Axes() (mgl32.Vec3, mgl32.Vec3) {
	n := p.Normal
	ref := mgl32.Vec3{0, 1, 0}
	if abs32(n.Dot(ref)) > 0.9 {
		ref = mgl32.Vec3{1, 0, 0}
	}
	u := ref.Cross(n).Normalize()
	v := n.Cross(u)
	return u, v
}

// Contains reports whether a point already on the plane lies inside its bounds.
func (p *Plane) Contains(q mgl32.Vec3) bool {
	if p.Size <= 0 {
		return true
	}
	u, v := p.Axes()
	d := q.Sub(p.Origin)
	return abs32(d.Dot(u)) <= p.Size && abs32(d.Dot(v)) <= p.Size
}
