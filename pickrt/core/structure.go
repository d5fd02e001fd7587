package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// StructureID is the handle a structure is registered and resolved under.
type StructureID = uuid.UUID

// Structure is the boundary to the geometry source. Positions are in object
// space; Transform places them in the world.
type Structure interface {
	ID() StructureID
	Name() string
	ElementKind() ElementKind
	Primitive() Primitive
	ElementCount() uint32
	Transform() *Transform
	Visible() bool
	SetVisible(bool)
	// LocalBounds includes any radius the primitive is drawn with.
	LocalBounds() [2]mgl32.Vec3
}

// WorldBounds is the world-space box of s under its current transform.
func WorldBounds(s Structure) [2]mgl32.Vec3 {
	return TransformAABB(s.Transform().ObjectToWorld(), s.LocalBounds())
}

// PointGeometry is drawn as one sphere impostor per point.
type PointGeometry interface {
	Structure
	Points() []mgl32.Vec3
	PointRadius() float32
}

// SegmentGeometry is drawn as one quad (thin) or one tube per edge.
type SegmentGeometry interface {
	Structure
	Nodes() []mgl32.Vec3
	Segments() [][2]uint32
	SegmentRadius() float32
}

// TriangleGeometry is drawn as triangles; TriangleElement maps a generated
// triangle back to the element it was cut from.
type TriangleGeometry interface {
	Structure
	Vertices() []mgl32.Vec3
	Triangles() [][3]uint32
	TriangleElement(tri int) uint32
	// ElementTriangles returns the generated triangles of one element.
	ElementTriangles(elem uint32) []int
}

type base struct {
	id        StructureID
	name      string
	transform *Transform
	hidden    bool
	local     [2]mgl32.Vec3
}

func newBase(name string) base {
	return base{
		id:        uuid.New(),
		name:      name,
		transform: NewTransform(),
	}
}

func (b *base) ID() StructureID            { return b.id }
func (b *base) Name() string               { return b.name }
func (b *base) Transform() *Transform      { return b.transform }
func (b *base) Visible() bool              { return !b.hidden }
func (b *base) SetVisible(v bool)          { b.hidden = !v }
func (b *base) LocalBounds() [2]mgl32.Vec3 { return b.local }

func (b *base) WorldAABB() [2]mgl32.Vec3 {
	return TransformAABB(b.transform.ObjectToWorld(), b.local)
}

func boundsOf(ps []mgl32.Vec3, pad float32) [2]mgl32.Vec3 {
	if len(ps) == 0 {
		return [2]mgl32.Vec3{}
	}
	b := EmptyAABB()
	for _, p := range ps {
		b = GrowAABB(b, p)
	}
	return PadAABB(b, pad)
}

// PointCloud picks individual points.
type PointCloud struct {
	base
	points []mgl32.Vec3
	radius float32
}

func NewPointCloud(name string, points []mgl32.Vec3, radius float32) *PointCloud {
	pc := &PointCloud{base: newBase(name), points: points, radius: radius}
	pc.local = boundsOf(points, radius)
	return pc
}

func (pc *PointCloud) ElementKind() ElementKind { return ElementPoint }
func (pc *PointCloud) Primitive() Primitive     { return PrimitivePoint }
func (pc *PointCloud) ElementCount() uint32     { return uint32(len(pc.points)) }
func (pc *PointCloud) Points() []mgl32.Vec3     { return pc.points }
func (pc *PointCloud) PointRadius() float32     { return pc.radius }

// CurveMode selects how curve edges are drawn into the pick buffer.
type CurveMode uint8

const (
	CurveThin CurveMode = iota
	CurveTube
)

// CurveNetwork picks edges between nodes.
type CurveNetwork struct {
	base
	nodes  []mgl32.Vec3
	edges  [][2]uint32
	radius float32
	mode   CurveMode
}

func NewCurveNetwork(name string, nodes []mgl32.Vec3, edges [][2]uint32, radius float32, mode CurveMode) *CurveNetwork {
	cn := &CurveNetwork{base: newBase(name), nodes: nodes, edges: edges, radius: radius, mode: mode}
	cn.local = boundsOf(nodes, radius)
	return cn
}

func (cn *CurveNetwork) ElementKind() ElementKind { return ElementEdge }
func (cn *CurveNetwork) ElementCount() uint32     { return uint32(len(cn.edges)) }
func (cn *CurveNetwork) Nodes() []mgl32.Vec3      { return cn.nodes }
func (cn *CurveNetwork) Segments() [][2]uint32    { return cn.edges }
func (cn *CurveNetwork) SegmentRadius() float32   { return cn.radius }
func (cn *CurveNetwork) Mode() CurveMode          { return cn.mode }

func (cn *CurveNetwork) Primitive() Primitive {
	if cn.mode == CurveTube {
		return PrimitiveTube
	}
	return PrimitiveLine
}

// SetMode switches between thin and tube drawing. Identifiers are unaffected.
func (cn *CurveNetwork) SetMode(m CurveMode) { cn.mode = m }
