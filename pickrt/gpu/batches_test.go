package gpu

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/pick/pickrt/core"
	"github.com/gekko3d/pick/pickrt/ids"
)

func TestInstanceLayouts(t *testing.T) {
	// Strides and offsets are mirrored by the vertex attributes in
	// NewPickRenderer and the WGSL inputs.
	assert.Equal(t, uintptr(16), unsafe.Sizeof(MeshVertex{}))
	assert.Equal(t, uintptr(28), unsafe.Sizeof(LineInstance{}))
	assert.Equal(t, uintptr(20), unsafe.Sizeof(PointInstance{}))
	assert.Equal(t, uintptr(32), unsafe.Sizeof(TubeInstance{}))
	assert.Equal(t, uintptr(24), unsafe.Offsetof(LineInstance{}.ID))
	assert.Equal(t, uintptr(28), unsafe.Offsetof(TubeInstance{}.ID))
}

func TestBuildBatches(t *testing.T) {
	alloc := ids.NewAllocator()
	scene := core.NewScene()

	mesh := core.NewSurfaceMesh("quad",
		[]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		[][]uint32{{0, 1, 2, 3}})
	mesh.Transform().SetPosition(mgl32.Vec3{10, 0, 0})
	points := core.NewPointCloud("pts", []mgl32.Vec3{{0, 0, 0}, {1, 1, 1}}, 0.5)
	points.Transform().SetScale(mgl32.Vec3{2, 2, 2})
	tube := core.NewCurveNetwork("tube", []mgl32.Vec3{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}}, [][2]uint32{{0, 1}, {1, 2}}, 0.1, core.CurveTube)
	thin := core.NewCurveNetwork("thin", []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}}, [][2]uint32{{0, 1}}, 0.1, core.CurveThin)
	stray := core.NewPointCloud("unregistered", []mgl32.Vec3{{0, 0, 0}}, 1)

	starts := map[string]uint32{}
	for _, s := range []core.Structure{mesh, points, tube, thin} {
		start, err := alloc.Allocate(s.ID(), s.ElementCount())
		require.NoError(t, err)
		starts[s.Name()] = start
		scene.Add(s)
	}
	scene.Add(stray)
	scene.Commit(nil)

	b := BuildBatches(scene, alloc)
	assert.Equal(t, 4, b.Drawn)
	assert.False(t, b.Empty())

	require.Len(t, b.Mesh, 6)
	for _, v := range b.Mesh {
		assert.Equal(t, starts["quad"], v.ID, "both fan triangles belong to face 0")
		assert.GreaterOrEqual(t, v.Pos[0], float32(10))
	}

	require.Len(t, b.Points, 2)
	assert.Equal(t, starts["pts"]+1, b.Points[1].ID)
	assert.Equal(t, [3]float32{2, 2, 2}, b.Points[1].Center)
	assert.InDelta(t, 1.0, b.Points[1].Radius, 1e-6)

	require.Len(t, b.Tubes, 2)
	assert.Equal(t, starts["tube"]+1, b.Tubes[1].ID)
	assert.Equal(t, [3]float32{0, 2, 0}, b.Tubes[1].B)

	require.Len(t, b.Lines, 1)
	assert.Equal(t, starts["thin"], b.Lines[0].ID)
}

func TestBuildBatchesEmpty(t *testing.T) {
	scene := core.NewScene()
	scene.Commit(nil)
	b := BuildBatches(scene, ids.NewAllocator())
	assert.True(t, b.Empty())
	assert.Nil(t, asBytes(b.Mesh))
}

func TestPackCamera(t *testing.T) {
	cam := core.NewCamera(640, 480)
	buf := PackCamera(cam, 4)
	require.Len(t, buf, CameraUniformSize)

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	vp := cam.ViewProjZO()
	for i := 0; i < 16; i++ {
		assert.Equal(t, vp[i], f(i*4))
	}
	assert.Equal(t, cam.Position.Z(), f(72))
	assert.Equal(t, float32(640), f(80))
	assert.Equal(t, float32(480), f(84))
	assert.Equal(t, float32(4), f(88))
}

func TestAsBytes(t *testing.T) {
	pts := []PointInstance{{ID: 0x010203}, {ID: 7}}
	raw := asBytes(pts)
	require.Len(t, raw, 40)
	assert.Equal(t, uint32(0x010203), binary.LittleEndian.Uint32(raw[16:]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(raw[36:]))
}
