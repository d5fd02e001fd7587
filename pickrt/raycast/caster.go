package raycast

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/pick/pickrt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// Hit is the closest intersection of one cast. Exactly one of Structure and
// Plane is set.
type Hit struct {
	Structure core.Structure
	Plane     *core.Plane
	Kind      core.ElementKind
	Index     uint32
	T         float32
	Position  mgl32.Vec3
	// Barycentric weights of the hit triangle's corners; zero for other kinds.
	Barycentric mgl32.Vec3
}

// Caster is the analytic pick path. With a Camera, thin curves are tested
// against a band LineWidthPx pixels wide at their depth, as the pick pass
// draws them, and points are widened to at least MinPickRadiusPx pixels so
// sub-pixel spheres stay clickable.
type Caster struct {
	Camera          *core.Camera
	MinPickRadiusPx float32
	LineWidthPx     float32
}

// Cast returns the closest hit across candidates. Hidden structures are
// skipped.
func (c *Caster) Cast(ray core.Ray, candidates []core.Structure) (Hit, bool) {
	best := Hit{T: math32.Inf(1)}
	found := false
	for _, s := range candidates {
		if s == nil || !s.Visible() {
			continue
		}
		if h, ok := c.castStructure(ray, s, best.T); ok {
			best = h
			found = true
		}
	}
	return best, found
}

// CastScene casts against the scene's visible structures through its BVH,
// then against its construction planes. Call Scene.Commit first.
func (c *Caster) CastScene(ray core.Ray, scene *core.Scene) (Hit, bool) {
	best := Hit{T: math32.Inf(1)}
	found := false

	scene.BVH.Traverse(func(minB, maxB mgl32.Vec3) bool {
		b := c.padBounds([2]mgl32.Vec3{minB, maxB})
		tMin, _, ok := IntersectAABB(ray, b[0], b[1])
		return ok && tMin <= best.T
	}, func(i int) {
		if h, ok := c.castStructure(ray, scene.Visible[i], best.T); ok {
			best = h
			found = true
		}
	})

	if h, ok := c.CastPlanes(ray, scene.Planes); ok && h.T < best.T {
		best = h
		found = true
	}
	return best, found
}

// CastPlanes returns the closest visible construction plane hit.
func (c *Caster) CastPlanes(ray core.Ray, planes []*core.Plane) (Hit, bool) {
	best := Hit{T: math32.Inf(1)}
	found := false
	for _, p := range planes {
		if !p.Visible {
			continue
		}
		t, ok := IntersectPlane(ray, p.Origin, p.Normal)
		if !ok || t >= best.T {
			continue
		}
		pos := ray.At(t)
		if !p.Contains(pos) {
			continue
		}
		best = Hit{Plane: p, Kind: core.ElementNone, T: t, Position: pos}
		found = true
	}
	return best, found
}

// CastStructure tests every element of one structure.
func (c *Caster) CastStructure(ray core.Ray, s core.Structure) (Hit, bool) {
	return c.castStructure(ray, s, math32.Inf(1))
}

// CastElement tests a single element. It is how a decoded pick-buffer hit is
// given an exact distance.
func (c *Caster) CastElement(ray core.Ray, s core.Structure, index uint32) (Hit, bool) {
	if index >= s.ElementCount() {
		return Hit{}, false
	}
	m := s.Transform().ObjectToWorld()
	scale := s.Transform().MaxScale()

	switch s.Primitive() {
	case core.PrimitivePoint:
		g := s.(core.PointGeometry)
		return c.point(ray, s, m, g.Points()[index], g.PointRadius()*scale, index)
	case core.PrimitiveLine, core.PrimitiveTube:
		g := s.(core.SegmentGeometry)
		return c.segment(ray, s, m, g, index, scale)
	case core.PrimitiveTriangle:
		g := s.(core.TriangleGeometry)
		best := Hit{T: math32.Inf(1)}
		found := false
		for _, tri := range g.ElementTriangles(index) {
			if h, ok := c.triangle(ray, g, m, tri); ok && h.T < best.T {
				best = h
				found = true
			}
		}
		return best, found
	}
	return Hit{}, false
}

func (c *Caster) castStructure(ray core.Ray, s core.Structure, limit float32) (Hit, bool) {
	b := c.padBounds(core.WorldBounds(s))
	if tMin, _, ok := IntersectAABB(ray, b[0], b[1]); !ok || tMin > limit {
		return Hit{}, false
	}

	m := s.Transform().ObjectToWorld()
	scale := s.Transform().MaxScale()
	best := Hit{T: limit}
	found := false
	keep := func(h Hit, ok bool) {
		if ok && h.T < best.T {
			best = h
			found = true
		}
	}

	switch s.Primitive() {
	case core.PrimitivePoint:
		g := s.(core.PointGeometry)
		r := g.PointRadius() * scale
		for i, p := range g.Points() {
			keep(c.point(ray, s, m, p, r, uint32(i)))
		}
	case core.PrimitiveLine, core.PrimitiveTube:
		g := s.(core.SegmentGeometry)
		for i := range g.Segments() {
			keep(c.segment(ray, s, m, g, uint32(i), scale))
		}
	case core.PrimitiveTriangle:
		g := s.(core.TriangleGeometry)
		for i := range g.Triangles() {
			keep(c.triangle(ray, g, m, i))
		}
	}
	return best, found
}

func (c *Caster) point(ray core.Ray, s core.Structure, m mgl32.Mat4, local mgl32.Vec3, radius float32, index uint32) (Hit, bool) {
	center := m.Mul4x1(local.Vec4(1.0)).Vec3()
	hit := Hit{Structure: s, Kind: core.ElementPoint, Index: index}

	if t, ok := IntersectSphere(ray, center, radius); ok {
		hit.T = t
		hit.Position = ray.At(t)
		return hit, true
	}
	// Sub-pixel spheres still pick within the screen-space tolerance.
	r := c.pickRadius(center, radius)
	if r <= radius {
		return Hit{}, false
	}
	t, _, ok := IntersectSegment(ray, center, center, r)
	if !ok {
		return Hit{}, false
	}
	hit.T = t
	hit.Position = ray.At(t)
	return hit, true
}

func (c *Caster) segment(ray core.Ray, s core.Structure, m mgl32.Mat4, g core.SegmentGeometry, index uint32, scale float32) (Hit, bool) {
	e := g.Segments()[index]
	nodes := g.Nodes()
	a := m.Mul4x1(nodes[e[0]].Vec4(1.0)).Vec3()
	b := m.Mul4x1(nodes[e[1]].Vec4(1.0)).Vec3()
	radius := g.SegmentRadius() * scale

	hit := Hit{Structure: s, Kind: core.ElementEdge, Index: index}
	if s.Primitive() == core.PrimitiveTube {
		t, _, ok := IntersectCylinder(ray, a, b, radius)
		if !ok {
			return Hit{}, false
		}
		hit.T = t
		hit.Position = ray.At(t)
		return hit, true
	}

	_, sParam, _ := ClosestApproach(ray, a, b)
	r := c.lineRadius(a.Add(b.Sub(a).Mul(sParam)), radius)
	t, _, ok := IntersectSegment(ray, a, b, r)
	if !ok {
		return Hit{}, false
	}
	hit.T = t
	hit.Position = ray.At(t)
	return hit, true
}

func (c *Caster) triangle(ray core.Ray, g core.TriangleGeometry, m mgl32.Mat4, tri int) (Hit, bool) {
	idx := g.Triangles()[tri]
	verts := g.Vertices()
	v0 := m.Mul4x1(verts[idx[0]].Vec4(1.0)).Vec3()
	v1 := m.Mul4x1(verts[idx[1]].Vec4(1.0)).Vec3()
	v2 := m.Mul4x1(verts[idx[2]].Vec4(1.0)).Vec3()

	t, bary, ok := IntersectTriangle(ray, v0, v1, v2)
	if !ok {
		return Hit{}, false
	}
	return Hit{
		Structure:   g,
		Kind:        g.ElementKind(),
		Index:       g.TriangleElement(tri),
		T:           t,
		Position:    ray.At(t),
		Barycentric: bary,
	}, true
}

// pickRadius widens radius to the screen-space minimum at p.
func (c *Caster) pickRadius(p mgl32.Vec3, radius float32) float32 {
	if c.Camera == nil || c.MinPickRadiusPx <= 0 {
		return radius
	}
	return math32.Max(radius, c.Camera.PixelSizeAt(p)*c.MinPickRadiusPx)
}

// lineRadius is half the drawn width of a thin curve at p. Without a line
// width it falls back to the point tolerance.
func (c *Caster) lineRadius(p mgl32.Vec3, radius float32) float32 {
	if c.Camera == nil || c.LineWidthPx <= 0 {
		return c.pickRadius(p, radius)
	}
	return c.Camera.PixelSizeAt(p) * c.LineWidthPx * 0.5
}

func (c *Caster) padBounds(b [2]mgl32.Vec3) [2]mgl32.Vec3 {
	px := math32.Max(c.MinPickRadiusPx, c.LineWidthPx*0.5)
	if c.Camera == nil || px <= 0 {
		return b
	}
	// The point deepest along the view has the widest pixel footprint.
	center := b[0].Add(b[1]).Mul(0.5)
	half := b[1].Sub(b[0]).Mul(0.5).Len()
	far := center.Add(c.Camera.Forward().Mul(half))
	return core.PadAABB(b, c.Camera.PixelSizeAt(far)*px)
}
