package raycast

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/pick/pickrt/core"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	epsilon = 1e-6
	// Relative tolerance under which a cylinder discriminant counts as zero.
	tangentEpsilon = 1e-7
)

// IntersectPlane returns t where the ray meets the infinite plane through p0
// with normal n. Rays parallel to the plane or hitting behind the origin miss.
func IntersectPlane(ray core.Ray, p0, n mgl32.Vec3) (float32, bool) {
	denom := n.Dot(ray.Direction)
	if math32.Abs(denom) < epsilon {
		return 0, false
	}
	t := -n.Dot(ray.Origin.Sub(p0)) / denom
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectTriangle is the Moller-Trumbore test. bary holds the weights of
// v0, v1 and v2 at the hit.
func IntersectTriangle(ray core.Ray, v0, v1, v2 mgl32.Vec3) (t float32, bary mgl32.Vec3, ok bool) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	h := ray.Direction.Cross(e2)
	a := e1.Dot(h)
	if math32.Abs(a) < epsilon {
		return 0, mgl32.Vec3{}, false
	}
	f := 1.0 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, mgl32.Vec3{}, false
	}
	q := s.Cross(e1)
	v := f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, mgl32.Vec3{}, false
	}
	t = f * e2.Dot(q)
	if t <= epsilon {
		return 0, mgl32.Vec3{}, false
	}
	return t, mgl32.Vec3{1 - u - v, u, v}, true
}

// ClosestApproach finds the ray parameter t and the segment parameter s that
// minimize the distance between the ray's line and segment ab. s is clamped
// to [0, 1] before t is solved for, so dist is measured to a point that is
// really on the segment. A degenerate segment is treated as the point a.
func ClosestApproach(ray core.Ray, a, b mgl32.Vec3) (t, s, dist float32) {
	u := ray.Direction
	v := b.Sub(a)
	w := ray.Origin.Sub(a)

	uu := u.Dot(u)
	uv := u.Dot(v)
	vv := v.Dot(v)
	uw := u.Dot(w)
	vw := v.Dot(w)

	if uu < epsilon {
		return 0, 0, w.Len()
	}

	switch denom := uu*vv - uv*uv; {
	case vv < epsilon:
		s = 0
	case denom < epsilon*uu*vv:
		// Parallel: anchor on the ray origin's projection.
		s = vw / vv
	default:
		s = (uu*vw - uv*uw) / denom
	}
	s = clamp01(s)

	t = (s*uv - uw) / uu
	closestRay := ray.At(t)
	closestSeg := a.Add(v.Mul(s))
	return t, s, closestRay.Sub(closestSeg).Len()
}

// IntersectSegment is the "close enough" test used for thin curves and
// point sprites: the ray hits when it passes within radius of the segment in
// front of the origin. t is the ray parameter of closest approach, not a
// surface hit.
func IntersectSegment(ray core.Ray, a, b mgl32.Vec3, radius float32) (t, s float32, ok bool) {
	t, s, dist := ClosestApproach(ray, a, b)
	if t < 0 || dist > radius {
		return 0, 0, false
	}
	return t, s, true
}

// IntersectSphere returns the nearest non-negative t on the sphere surface.
func IntersectSphere(ray core.Ray, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := ray.Origin.Sub(center)
	a := ray.Direction.Dot(ray.Direction)
	if a < epsilon {
		return 0, false
	}
	hb := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := hb*hb - a*c
	if disc < 0 {
		return 0, false
	}
	sq := math32.Sqrt(disc)
	t := (-hb - sq) / a
	if t < 0 {
		t = (-hb + sq) / a
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// CylinderRoots solves for where the ray's line meets the infinite cylinder
// of the given radius around line ab. Both the direction and the origin
// offset are projected onto the plane perpendicular to the axis, leaving a
// quadratic in t. n is the number of distinct roots: 0, 1 at tangency, or 2
// in ascending order.
func CylinderRoots(ray core.Ray, a, b mgl32.Vec3, radius float32) (roots [2]float32, n int) {
	axis := b.Sub(a)
	length := axis.Len()
	if length < epsilon {
		return roots, 0
	}
	axis = axis.Mul(1.0 / length)

	w := ray.Origin.Sub(a)
	dPerp := ray.Direction.Sub(axis.Mul(ray.Direction.Dot(axis)))
	wPerp := w.Sub(axis.Mul(w.Dot(axis)))

	qa := dPerp.Dot(dPerp)
	if qa < epsilon {
		// Parallel to the axis: no side wall hit.
		return roots, 0
	}
	qb := 2 * dPerp.Dot(wPerp)
	qc := wPerp.Dot(wPerp) - radius*radius

	disc := qb*qb - 4*qa*qc
	if math32.Abs(disc) <= tangentEpsilon*qb*qb {
		roots[0] = -qb / (2 * qa)
		return roots, 1
	}
	if disc < 0 {
		return roots, 0
	}
	sq := math32.Sqrt(disc)
	roots[0] = (-qb - sq) / (2 * qa)
	roots[1] = (-qb + sq) / (2 * qa)
	return roots, 2
}

// IntersectCylinder takes the smallest positive root of CylinderRoots and
// keeps it only if the hit lies between the end points. End caps are open.
// s is the hit's axial position in [0, 1].
func IntersectCylinder(ray core.Ray, a, b mgl32.Vec3, radius float32) (t, s float32, ok bool) {
	roots, n := CylinderRoots(ray, a, b, radius)
	t = -1
	for i := 0; i < n; i++ {
		if roots[i] > epsilon {
			t = roots[i]
			break
		}
	}
	if t < 0 {
		return 0, 0, false
	}

	axis := b.Sub(a)
	length := axis.Len()
	h := ray.At(t).Sub(a).Dot(axis) / length
	if h < 0 || h > length {
		return 0, 0, false
	}
	return t, h / length, true
}

// IntersectAABB is the slab test. It returns the entry and exit distances
// clipped to t >= 0; ok is false when the ray misses the box.
func IntersectAABB(ray core.Ray, minB, maxB mgl32.Vec3) (tMin, tMax float32, ok bool) {
	tMin = 0
	tMax = math32.Inf(1)
	for k := 0; k < 3; k++ {
		d := ray.Direction[k]
		o := ray.Origin[k]
		if math32.Abs(d) < 1e-12 {
			if o < minB[k] || o > maxB[k] {
				return 0, 0, false
			}
			continue
		}
		inv := 1.0 / d
		t1 := (minB[k] - o) * inv
		t2 := (maxB[k] - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math32.Max(tMin, t1)
		tMax = math32.Min(tMax, t2)
		if tMin > tMax {
			return 0, 0, false
		}
	}
	return tMin, tMax, true
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
