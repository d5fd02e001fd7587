package gpu

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/google/uuid"

	"github.com/gekko3d/pick/pickrt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraUniformSize is the size of the Camera block in pick_common.wgsl.
const CameraUniformSize = 96

// IDSource gives the first global identifier of a registered structure.
type IDSource interface {
	Start(owner uuid.UUID) (uint32, bool)
}

// MeshVertex matches MeshIn. Triangles are expanded so every vertex carries
// its element's id.
type MeshVertex struct {
	Pos [3]float32
	ID  uint32
}

// LineInstance matches LineIn.
type LineInstance struct {
	A  [3]float32
	B  [3]float32
	ID uint32
}

// PointInstance matches PointIn.
type PointInstance struct {
	Center [3]float32
	Radius float32
	ID     uint32
}

// TubeInstance matches TubeIn.
type TubeInstance struct {
	A      [3]float32
	B      [3]float32
	Radius float32
	ID     uint32
}

// Batches is one frame's pick geometry in world space, grouped by pipeline.
type Batches struct {
	Mesh   []MeshVertex
	Lines  []LineInstance
	Points []PointInstance
	Tubes  []TubeInstance
	Drawn  int
}

func (b *Batches) Empty() bool {
	return len(b.Mesh) == 0 && len(b.Lines) == 0 && len(b.Points) == 0 && len(b.Tubes) == 0
}

// BuildBatches flattens the committed visible set. Structures the source has
// no range for are skipped.
func BuildBatches(scene *core.Scene, src IDSource) *Batches {
	b := &Batches{}
	for _, s := range scene.Visible {
		start, ok := src.Start(s.ID())
		if !ok {
			continue
		}
		m := s.Transform().ObjectToWorld()
		scale := s.Transform().MaxScale()

		switch s.Primitive() {
		case core.PrimitiveTriangle:
			g := s.(core.TriangleGeometry)
			verts := g.Vertices()
			for i, tri := range g.Triangles() {
				id := start + g.TriangleElement(i)
				for _, vi := range tri {
					b.Mesh = append(b.Mesh, MeshVertex{Pos: world(m, verts[vi]), ID: id})
				}
			}
		case core.PrimitiveLine:
			g := s.(core.SegmentGeometry)
			nodes := g.Nodes()
			for i, e := range g.Segments() {
				b.Lines = append(b.Lines, LineInstance{
					A:  world(m, nodes[e[0]]),
					B:  world(m, nodes[e[1]]),
					ID: start + uint32(i),
				})
			}
		case core.PrimitiveTube:
			g := s.(core.SegmentGeometry)
			nodes := g.Nodes()
			r := g.SegmentRadius() * scale
			for i, e := range g.Segments() {
				b.Tubes = append(b.Tubes, TubeInstance{
					A:      world(m, nodes[e[0]]),
					B:      world(m, nodes[e[1]]),
					Radius: r,
					ID:     start + uint32(i),
				})
			}
		case core.PrimitivePoint:
			g := s.(core.PointGeometry)
			r := g.PointRadius() * scale
			for i, p := range g.Points() {
				b.Points = append(b.Points, PointInstance{Center: world(m, p), Radius: r, ID: start + uint32(i)})
			}
		default:
			continue
		}
		b.Drawn++
	}
	return b
}

func world(m mgl32.Mat4, p mgl32.Vec3) [3]float32 {
	w := mgl32.TransformCoordinate(p, m)
	return [3]float32{w.X(), w.Y(), w.Z()}
}

// PackCamera lays out the Camera uniform: depth-[0,1] view-projection, eye,
// then viewport width, height and line width.
func PackCamera(cam *core.Camera, lineWidthPx float32) []byte {
	buf := make([]byte, CameraUniformSize)
	vp := cam.ViewProjZO()
	for i, v := range vp {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	put := func(off int, vs ...float32) {
		for i, v := range vs {
			binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v))
		}
	}
	put(64, cam.Position.X(), cam.Position.Y(), cam.Position.Z(), 1)
	put(80, float32(cam.Width), float32(cam.Height), lineWidthPx, 0)
	return buf
}

func asBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}
