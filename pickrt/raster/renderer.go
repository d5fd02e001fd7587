package raster

import (
	"github.com/chewxy/math32"
	"github.com/google/uuid"

	"github.com/gekko3d/pick/pickrt/core"
	"github.com/gekko3d/pick/pickrt/raycast"

	"github.com/go-gl/mathgl/mgl32"
)

// IDSource gives the first global identifier of a registered structure.
type IDSource interface {
	Start(owner uuid.UUID) (uint32, bool)
}

// Renderer is the software pick pass. It draws every visible structure with
// its identifiers as flat colors and the depth the visible render uses, so
// occlusion in the pick buffer matches what is on screen.
type Renderer struct {
	IDs         IDSource
	LineWidthPx float32
}

func NewRenderer(src IDSource) *Renderer {
	return &Renderer{IDs: src, LineWidthPx: 3}
}

type drawFunc func(p *pass, s core.Structure, start uint32)

// DrawItem is one structure bound to the routine for its primitive.
type DrawItem struct {
	Structure core.Structure
	Start     uint32
	draw      drawFunc
}

type pass struct {
	vp        *core.Viewport
	target    *Target
	lineWidth float32
}

func drawFor(prim core.Primitive) drawFunc {
	switch prim {
	case core.PrimitivePoint:
		return drawPoints
	case core.PrimitiveLine:
		return drawLines
	case core.PrimitiveTube:
		return drawTubes
	case core.PrimitiveTriangle:
		return drawTriangles
	}
	return nil
}

// Build selects a draw routine per visible structure. Structures without an
// identifier range are not pickable and are left out.
func (r *Renderer) Build(scene *core.Scene) []DrawItem {
	items := make([]DrawItem, 0, len(scene.Visible))
	for _, s := range scene.Visible {
		start, ok := r.IDs.Start(s.ID())
		if !ok {
			continue
		}
		fn := drawFor(s.Primitive())
		if fn == nil {
			continue
		}
		items = append(items, DrawItem{Structure: s, Start: start, draw: fn})
	}
	return items
}

// Render clears target to the camera's viewport size and draws the scene's
// visible set into it. The scene must be committed for cam. It returns the
// number of structures drawn.
func (r *Renderer) Render(scene *core.Scene, cam *core.Camera, target *Target) int {
	target.Resize(cam.Width, cam.Height)
	p := &pass{vp: cam.Viewport(), target: target, lineWidth: r.LineWidthPx}
	items := r.Build(scene)
	for _, it := range items {
		it.draw(p, it.Structure, it.Start)
	}
	return len(items)
}

func drawTriangles(p *pass, s core.Structure, start uint32) {
	g := s.(core.TriangleGeometry)
	mvp := p.vp.ViewProj.Mul4(s.Transform().ObjectToWorld())

	verts := g.Vertices()
	clip := make([]mgl32.Vec4, len(verts))
	for i, v := range verts {
		clip[i] = mvp.Mul4x1(v.Vec4(1.0))
	}
	for i, tri := range g.Triangles() {
		p.clipTriangle(clip[tri[0]], clip[tri[1]], clip[tri[2]], start+g.TriangleElement(i))
	}
}

// drawLines draws each edge as a screen-space quad lineWidth pixels wide.
func drawLines(p *pass, s core.Structure, start uint32) {
	g := s.(core.SegmentGeometry)
	mvp := p.vp.ViewProj.Mul4(s.Transform().ObjectToWorld())
	nodes := g.Nodes()
	half := p.lineWidth * 0.5

	for i, e := range g.Segments() {
		a, b, ok := clipSegmentNear(mvp.Mul4x1(nodes[e[0]].Vec4(1.0)), mvp.Mul4x1(nodes[e[1]].Vec4(1.0)))
		if !ok {
			continue
		}
		sa, okA := p.toScreen(a)
		sb, okB := p.toScreen(b)
		if !okA || !okB {
			continue
		}

		dx, dy := sb.X-sa.X, sb.Y-sa.Y
		l := math32.Sqrt(dx*dx + dy*dy)
		if l < 1e-6 {
			dx, dy, l = 1, 0, 1
		}
		nx, ny := -dy/l*half, dx/l*half

		q0 := screenVert{sa.X + nx, sa.Y + ny, sa.Z}
		q1 := screenVert{sa.X - nx, sa.Y - ny, sa.Z}
		q2 := screenVert{sb.X - nx, sb.Y - ny, sb.Z}
		q3 := screenVert{sb.X + nx, sb.Y + ny, sb.Z}
		id := start + uint32(i)
		p.fillTriangle(q0, q1, q2, id)
		p.fillTriangle(q0, q2, q3, id)
	}
}

// drawPoints draws sphere impostors: every pixel of the projected bounds
// casts its own ray, and pixels that miss the sphere are discarded.
func drawPoints(p *pass, s core.Structure, start uint32) {
	g := s.(core.PointGeometry)
	m := s.Transform().ObjectToWorld()
	r := g.PointRadius() * s.Transform().MaxScale()
	if r <= 0 {
		return
	}

	for i, local := range g.Points() {
		c := m.Mul4x1(local.Vec4(1.0)).Vec3()
		bounds := core.PadAABB([2]mgl32.Vec3{c, c}, r)
		id := start + uint32(i)
		p.impostor(bounds, id, func(ray core.Ray) (float32, bool) {
			return raycast.IntersectSphere(ray, c, r)
		})
	}
}

// drawTubes rasterizes a box around each edge and resolves the exact
// cylinder surface per pixel.
func drawTubes(p *pass, s core.Structure, start uint32) {
	g := s.(core.SegmentGeometry)
	m := s.Transform().ObjectToWorld()
	r := g.SegmentRadius() * s.Transform().MaxScale()
	if r <= 0 {
		return
	}
	nodes := g.Nodes()

	for i, e := range g.Segments() {
		a := m.Mul4x1(nodes[e[0]].Vec4(1.0)).Vec3()
		b := m.Mul4x1(nodes[e[1]].Vec4(1.0)).Vec3()
		bounds := core.PadAABB(core.GrowAABB([2]mgl32.Vec3{a, a}, b), r)
		id := start + uint32(i)
		p.impostor(bounds, id, func(ray core.Ray) (float32, bool) {
			t, _, ok := raycast.IntersectCylinder(ray, a, b, r)
			return t, ok
		})
	}
}

// impostor runs hit for every pixel the world box covers and writes the
// depth of the analytic surface point.
func (p *pass) impostor(bounds [2]mgl32.Vec3, id uint32, hit func(core.Ray) (float32, bool)) {
	x0, y0, x1, y1, ok := p.screenRect(bounds)
	if !ok {
		return
	}
	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			ray, ok := p.vp.PixelRay(px, py)
			if !ok {
				continue
			}
			t, ok := hit(ray)
			if !ok {
				continue // outside the silhouette
			}
			_, depth, ok := p.vp.Project(ray.At(t))
			if !ok {
				continue
			}
			p.target.plot(px, py, depth, id)
		}
	}
}

// screenRect is the pixel rectangle covered by a world box. A box that
// straddles the eye plane covers the whole viewport.
func (p *pass) screenRect(b [2]mgl32.Vec3) (x0, y0, x1, y1 int, ok bool) {
	minX, minY := math32.Inf(1), math32.Inf(1)
	maxX, maxY := math32.Inf(-1), math32.Inf(-1)
	front, behind := 0, 0
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b[i&1][0], b[(i>>1)&1][1], b[(i>>2)&1][2]}
		xy, _, ok := p.vp.Project(corner)
		if !ok {
			behind++
			continue
		}
		front++
		minX, minY = math32.Min(minX, xy.X()), math32.Min(minY, xy.Y())
		maxX, maxY = math32.Max(maxX, xy.X()), math32.Max(maxY, xy.Y())
	}
	if front == 0 {
		return 0, 0, 0, 0, false
	}
	if behind > 0 {
		return p.clampRect(0, 0, float32(p.target.Width), float32(p.target.Height))
	}
	return p.clampRect(minX, minY, maxX, maxY)
}

func (p *pass) clampRect(minX, minY, maxX, maxY float32) (x0, y0, x1, y1 int, ok bool) {
	x0 = max(int(math32.Floor(minX)), 0)
	y0 = max(int(math32.Floor(minY)), 0)
	x1 = min(int(math32.Ceil(maxX)), p.target.Width-1)
	y1 = min(int(math32.Ceil(maxY)), p.target.Height-1)
	return x0, y0, x1, y1, x0 <= x1 && y0 <= y1
}
