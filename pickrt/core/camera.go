package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the view the pick pass renders from. It mirrors the visible
// render's camera for one query; camera control lives elsewhere.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FovY     float32 // degrees
	Near     float32
	Far      float32
	Width    int
	Height   int
}

func NewCamera(width, height int) *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 0, 5},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     60.0,
		Near:     0.1,
		Far:      1000.0,
		Width:    width,
		Height:   height,
	}
}

func (c *Camera) Aspect() float32 {
	if c.Height == 0 {
		return 1
	}
	return float32(c.Width) / float32(c.Height)
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect(), c.Near, c.Far)
}

// ViewProj uses GL clip conventions, z in [-w, w].
func (c *Camera) ViewProj() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// depthZO remaps GL clip z to the [0, w] range WebGPU depth buffers expect.
var depthZO = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// ViewProjZO is ViewProj with depth remapped to [0, 1]. The pick pass writes
// this depth on both backends.
func (c *Camera) ViewProjZO() mgl32.Mat4 {
	return depthZO.Mul4(c.ViewProj())
}

// ScreenRay builds a world ray through the continuous screen position (x, y),
// origin at the eye. Pixel (px, py) is sampled at its centre by PixelRay.
// ok is false when the view-projection cannot be inverted at that point.
func (c *Camera) ScreenRay(x, y float32) (Ray, bool) {
	return c.Viewport().Ray(x, y)
}

func (c *Camera) PixelRay(px, py int) (Ray, bool) {
	return c.ScreenRay(float32(px)+0.5, float32(py)+0.5)
}

// Project maps a world position to screen pixels and a [0, 1] depth. ok is
// false for points at or behind the eye plane.
func (c *Camera) Project(p mgl32.Vec3) (mgl32.Vec2, float32, bool) {
	return c.Viewport().Project(p)
}

// Unproject is the inverse of Project.
func (c *Camera) Unproject(x, y, depth float32) (mgl32.Vec3, bool) {
	return c.Viewport().Unproject(x, y, depth)
}

// Viewport snapshots the camera's matrices for repeated per-pixel use.
func (c *Camera) Viewport() *Viewport {
	vp := c.ViewProj()
	return &Viewport{
		Eye:      c.Position,
		Width:    c.Width,
		Height:   c.Height,
		ViewProj: vp,
		inv:      vp.Inv(),
	}
}

// Viewport is one camera state with the inverse view-projection cached.
type Viewport struct {
	Eye      mgl32.Vec3
	Width    int
	Height   int
	ViewProj mgl32.Mat4
	inv      mgl32.Mat4
}

func (v *Viewport) Ray(x, y float32) (Ray, bool) {
	if v.Width <= 0 || v.Height <= 0 {
		return Ray{}, false
	}
	ndcX := 2.0*x/float32(v.Width) - 1.0
	ndcY := 1.0 - 2.0*y/float32(v.Height) // Flip Y for NDC

	near := v.inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := v.inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	if abs32(near.W()) < 1e-6 || abs32(far.W()) < 1e-6 {
		return Ray{}, false
	}
	nearP := near.Vec3().Mul(1.0 / near.W())
	farP := far.Vec3().Mul(1.0 / far.W())

	dir := farP.Sub(nearP)
	if dir.Len() < 1e-12 {
		return Ray{}, false
	}
	return Ray{Origin: v.Eye, Direction: dir.Normalize()}, true
}

func (v *Viewport) PixelRay(px, py int) (Ray, bool) {
	return v.Ray(float32(px)+0.5, float32(py)+0.5)
}

func (v *Viewport) Project(p mgl32.Vec3) (mgl32.Vec2, float32, bool) {
	return v.ClipToScreen(v.ViewProj.Mul4x1(p.Vec4(1.0)))
}

// ClipToScreen divides a GL clip-space position and maps it to pixels and a
// [0, 1] depth.
func (v *Viewport) ClipToScreen(clip mgl32.Vec4) (mgl32.Vec2, float32, bool) {
	if clip.W() <= 1e-6 {
		return mgl32.Vec2{}, 0, false
	}
	ndc := clip.Vec3().Mul(1.0 / clip.W())
	x := (ndc.X()*0.5 + 0.5) * float32(v.Width)
	y := (1.0 - (ndc.Y()*0.5 + 0.5)) * float32(v.Height)
	return mgl32.Vec2{x, y}, ndc.Z()*0.5 + 0.5, true
}

func (v *Viewport) Unproject(x, y, depth float32) (mgl32.Vec3, bool) {
	if v.Width <= 0 || v.Height <= 0 {
		return mgl32.Vec3{}, false
	}
	ndc := mgl32.Vec4{
		2.0*x/float32(v.Width) - 1.0,
		1.0 - 2.0*y/float32(v.Height),
		depth*2.0 - 1.0,
		1,
	}
	w := v.inv.Mul4x1(ndc)
	if abs32(w.W()) < 1e-6 {
		return mgl32.Vec3{}, false
	}
	return w.Vec3().Mul(1.0 / w.W()), true
}

// PixelSizeAt returns the world-space height of one pixel at p's view depth.
func (c *Camera) PixelSizeAt(p mgl32.Vec3) float32 {
	if c.Height <= 0 {
		return 0
	}
	d := p.Sub(c.Position).Dot(c.Forward())
	if d < c.Near {
		d = c.Near
	}
	tanHalf := float32(math.Tan(float64(mgl32.DegToRad(c.FovY) / 2.0)))
	return 2.0 * d * tanHalf / float32(c.Height)
}

// Frustum returns the camera's six culling planes.
func (c *Camera) Frustum() [6]mgl32.Vec4 {
	return ExtractFrustum(c.ViewProj())
}

// ExtractFrustum extracts the 6 planes of the frustum from the view-projection matrix.
// Returns planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0 with the normal pointing inside.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4

	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes[0] = r3.Add(r0) // Left
	planes[1] = r3.Sub(r0) // Right
	planes[2] = r3.Add(r1) // Bottom
	planes[3] = r3.Sub(r1) // Top
	planes[4] = r3.Add(r2) // Near (OpenGL-style -1..1)
	planes[5] = r3.Sub(r2) // Far

	for i := 0; i < 6; i++ {
		length := float32(math.Sqrt(float64(planes[i][0]*planes[i][0] + planes[i][1]*planes[i][1] + planes[i][2]*planes[i][2])))
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}

	return planes
}

// AABBInFrustum reports whether any part of the box may be inside all six
// planes. For each plane it tests the box corner furthest along the normal.
func AABBInFrustum(aabb [2]mgl32.Vec3, planes [6]mgl32.Vec4) bool {
	for _, plane := range planes {
		var p mgl32.Vec3
		for k := 0; k < 3; k++ {
			if plane[k] > 0 {
				p[k] = aabb[1][k]
			} else {
				p[k] = aabb[0][k]
			}
		}
		if plane[0]*p[0]+plane[1]*p[1]+plane[2]*p[2]+plane[3] < 0 {
			return false
		}
	}
	return true
}
