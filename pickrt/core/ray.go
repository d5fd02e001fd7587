package core

import "github.com/go-gl/mathgl/mgl32"

// Ray is built fresh for each query. Direction is unit length when the ray
// comes from Camera.ScreenRay, so t measures world distance from Origin.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform maps the ray through m. The direction is not renormalized, so t
// values are preserved between spaces.
func (r Ray) Transform(m mgl32.Mat4) Ray {
	return Ray{
		Origin:    m.Mul4x1(r.Origin.Vec4(1.0)).Vec3(),
		Direction: m.Mul4x1(r.Direction.Vec4(0.0)).Vec3(),
	}
}
