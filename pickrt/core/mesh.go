package core

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// SurfaceMesh picks polygon faces. Faces may have any number of corners;
// they are fan-triangulated once at construction and every generated
// triangle remembers the face it came from.
type SurfaceMesh struct {
	base
	vertices  []mgl32.Vec3
	faces     [][]uint32
	tris      [][3]uint32
	triFace   []uint32
	faceStart []uint32 // len(faces)+1 offsets into tris
}

func NewSurfaceMesh(name string, vertices []mgl32.Vec3, faces [][]uint32) *SurfaceMesh {
	m := &SurfaceMesh{base: newBase(name), vertices: vertices, faces: faces}
	m.faceStart = make([]uint32, 0, len(faces)+1)
	for f, face := range faces {
		m.faceStart = append(m.faceStart, uint32(len(m.tris)))
		for k := 1; k+1 < len(face); k++ {
			m.tris = append(m.tris, [3]uint32{face[0], face[k], face[k+1]})
			m.triFace = append(m.triFace, uint32(f))
		}
	}
	m.faceStart = append(m.faceStart, uint32(len(m.tris)))
	m.local = boundsOf(vertices, 0)
	return m
}

func (m *SurfaceMesh) ElementKind() ElementKind { return ElementFace }
func (m *SurfaceMesh) Primitive() Primitive     { return PrimitiveTriangle }
func (m *SurfaceMesh) ElementCount() uint32     { return uint32(len(m.faces)) }
func (m *SurfaceMesh) Vertices() []mgl32.Vec3   { return m.vertices }
func (m *SurfaceMesh) Faces() [][]uint32        { return m.faces }
func (m *SurfaceMesh) Triangles() [][3]uint32   { return m.tris }

func (m *SurfaceMesh) TriangleElement(tri int) uint32 { return m.triFace[tri] }

func (m *SurfaceMesh) ElementTriangles(face uint32) []int {
	return triSpan(m.faceStart, face)
}

// Cell corner tables. Winding is irrelevant to picking since the pass draws
// without culling.
var (
	tetFaces = [][]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}
	hexFaces = [][]int{
		{0, 3, 2, 1}, {4, 5, 6, 7},
		{0, 1, 5, 4}, {1, 2, 6, 5},
		{2, 3, 7, 6}, {3, 0, 4, 7},
	}
)

// VolumeMesh picks tetrahedral and hexahedral cells. Only faces on the
// boundary of the mesh are emitted as triangles.
type VolumeMesh struct {
	base
	vertices  []mgl32.Vec3
	cells     [][]uint32
	tris      [][3]uint32
	triCell   []uint32
	cellStart []uint32
}

// NewVolumeMesh accepts cells of 4 (tet) or 8 (hex) vertex indices; cells of
// other sizes contribute no triangles but keep their element index.
func NewVolumeMesh(name string, vertices []mgl32.Vec3, cells [][]uint32) *VolumeMesh {
	m := &VolumeMesh{base: newBase(name), vertices: vertices, cells: cells}

	faceUse := make(map[[4]uint32]int)
	for _, cell := range cells {
		for _, f := range cellFaces(cell) {
			faceUse[faceKey(cell, f)]++
		}
	}

	m.cellStart = make([]uint32, 0, len(cells)+1)
	for c, cell := range cells {
		m.cellStart = append(m.cellStart, uint32(len(m.tris)))
		for _, f := range cellFaces(cell) {
			if faceUse[faceKey(cell, f)] > 1 {
				continue // interior
			}
			for k := 1; k+1 < len(f); k++ {
				m.tris = append(m.tris, [3]uint32{cell[f[0]], cell[f[k]], cell[f[k+1]]})
				m.triCell = append(m.triCell, uint32(c))
			}
		}
	}
	m.cellStart = append(m.cellStart, uint32(len(m.tris)))
	m.local = boundsOf(vertices, 0)
	return m
}

func (m *VolumeMesh) ElementKind() ElementKind { return ElementCell }
func (m *VolumeMesh) Primitive() Primitive     { return PrimitiveTriangle }
func (m *VolumeMesh) ElementCount() uint32     { return uint32(len(m.cells)) }
func (m *VolumeMesh) Vertices() []mgl32.Vec3   { return m.vertices }
func (m *VolumeMesh) Cells() [][]uint32        { return m.cells }
func (m *VolumeMesh) Triangles() [][3]uint32   { return m.tris }

func (m *VolumeMesh) TriangleElement(tri int) uint32 { return m.triCell[tri] }

func (m *VolumeMesh) ElementTriangles(cell uint32) []int {
	return triSpan(m.cellStart, cell)
}

func cellFaces(cell []uint32) [][]int {
	switch len(cell) {
	case 4:
		return tetFaces
	case 8:
		return hexFaces
	}
	return nil
}

func faceKey(cell []uint32, f []int) [4]uint32 {
	k := [4]uint32{^uint32(0), ^uint32(0), ^uint32(0), ^uint32(0)}
	for i, c := range f {
		k[i] = cell[c]
	}
	sort.Slice(k[:], func(i, j int) bool { return k[i] < k[j] })
	return k
}

func triSpan(starts []uint32, elem uint32) []int {
	if int(elem)+1 >= len(starts) {
		return nil
	}
	out := make([]int, 0, starts[elem+1]-starts[elem])
	for t := starts[elem]; t < starts[elem+1]; t++ {
		out = append(out, int(t))
	}
	return out
}
