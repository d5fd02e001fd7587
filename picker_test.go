package pick

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/pick/pickrt/core"
	"github.com/gekko3d/pick/pickrt/ids"
)

func testCamera() *core.Camera {
	cam := core.NewCamera(64, 64)
	cam.Position = mgl32.Vec3{0, 0, 10}
	cam.Far = 100
	return cam
}

func testPicker() *Picker {
	return NewPicker(testCamera(), DefaultOptions(), nil)
}

func quad(name string, z float32) *core.SurfaceMesh {
	return core.NewSurfaceMesh(name, []mgl32.Vec3{
		{-2, -2, z}, {0, -2, z}, {0, 2, z}, {-2, 2, z},
		{0, -2, z}, {2, -2, z}, {2, 2, z}, {0, 2, z},
	}, [][]uint32{{0, 1, 2, 3}, {4, 5, 6, 7}})
}

func pixelOf(t *testing.T, p *Picker, w mgl32.Vec3) (int, int) {
	xy, _, ok := p.Camera().Project(w)
	require.True(t, ok)
	return int(xy.X()), int(xy.Y())
}

func TestClickOnEmptySceneIsNone(t *testing.T) {
	p := testPicker()
	_, ok := p.Click(mgl32.Vec2{0, 0}, mgl32.Vec2{0, 0})
	assert.False(t, ok)
	_, ok = p.PickAt(0, 0)
	assert.False(t, ok)
	assert.Zero(t, p.Selection().Len())
}

func TestPickAtResolvesFace(t *testing.T) {
	p := testPicker()
	mesh := quad("quad", 0)
	require.NoError(t, p.Register(mesh))
	start, ok := p.Allocator().Start(mesh.ID())
	require.True(t, ok)

	x, y := pixelOf(t, p, mgl32.Vec3{1, -0.5, 0})
	res, ok := p.PickAt(x, y)
	require.True(t, ok)
	assert.Equal(t, mesh, res.Structure)
	assert.Equal(t, core.ElementFace, res.Kind)
	assert.Equal(t, uint32(1), res.Index)
	assert.Equal(t, start+1, res.GlobalID)
	assert.InDelta(t, 10.0, res.HitDistance, 0.2)
	assert.InDelta(t, 0.0, res.Position.Z(), 1e-3)
}

func TestPickAtDepthFallback(t *testing.T) {
	p := testPicker()
	p.opts.SkipRayRefine = true
	mesh := quad("quad", 0)
	require.NoError(t, p.Register(mesh))

	x, y := pixelOf(t, p, mgl32.Vec3{-1, 0.5, 0})
	res, ok := p.PickAt(x, y)
	require.True(t, ok)
	assert.Equal(t, uint32(0), res.Index)
	assert.InDelta(t, 0.0, res.Position.Z(), 0.05)
}

func TestPickAtOutOfBounds(t *testing.T) {
	p := testPicker()
	require.NoError(t, p.Register(quad("quad", 0)))
	for _, c := range [][2]int{{-1, 10}, {10, -1}, {64, 10}, {10, 64}} {
		_, ok := p.PickAt(c[0], c[1])
		assert.False(t, ok, "(%d, %d)", c[0], c[1])
	}
}

func TestRegisterRejectsEmpty(t *testing.T) {
	p := testPicker()
	empty := core.NewPointCloud("empty", nil, 1)
	err := p.Register(empty)
	assert.ErrorIs(t, err, ids.ErrInvalidRange)
	assert.Nil(t, p.Scene().Get(empty.ID()))
}

func TestRegisterTwiceKeepsRange(t *testing.T) {
	p := testPicker()
	mesh := quad("quad", 0)
	require.NoError(t, p.Register(mesh))
	require.NoError(t, p.Register(mesh))
	assert.Len(t, p.Scene().Structures, 1)
	assert.Len(t, p.Allocator().Ranges(), 1)
}

func TestRemoveDropsStructureAndSelection(t *testing.T) {
	p := testPicker()
	front := quad("front", 1)
	back := quad("back", 0)
	require.NoError(t, p.Register(front))
	require.NoError(t, p.Register(back))

	x, y := pixelOf(t, p, mgl32.Vec3{1, 1, 1})
	res, ok := p.Click(mgl32.Vec2{float32(x), float32(y)}, mgl32.Vec2{float32(x), float32(y)})
	require.True(t, ok)
	require.Equal(t, front, res.Structure)
	assert.True(t, p.Selection().Contains(res.GlobalID))

	assert.True(t, p.Remove(front.ID()))
	assert.False(t, p.Remove(front.ID()))
	assert.Zero(t, p.Selection().Len())

	res, ok = p.PickAt(x, y)
	require.True(t, ok)
	assert.Equal(t, back, res.Structure)
}

func TestHiddenStructureIsNotPicked(t *testing.T) {
	p := testPicker()
	mesh := quad("quad", 0)
	require.NoError(t, p.Register(mesh))
	mesh.SetVisible(false)

	x, y := pixelOf(t, p, mgl32.Vec3{1, 1, 0})
	_, ok := p.PickAt(x, y)
	assert.False(t, ok)
}

func TestPointCloudBufferAndRayAgree(t *testing.T) {
	p := testPicker()
	pts := core.NewPointCloud("pts", []mgl32.Vec3{{-2, 0, 0}, {2, 0, 0}}, 0.5)
	require.NoError(t, p.Register(pts))

	x, y := pixelOf(t, p, mgl32.Vec3{2, 0, 0.5})
	buf, ok := p.PickAt(x, y)
	require.True(t, ok)

	ray, ok := p.Camera().PixelRay(x, y)
	require.True(t, ok)
	cast, ok := p.CastRayPick(ray, []core.Structure{pts})
	require.True(t, ok)

	assert.Equal(t, uint32(1), buf.Index)
	assert.Equal(t, buf.Index, cast.Index)
	assert.Equal(t, buf.GlobalID, cast.GlobalID)
	assert.InDelta(t, cast.HitDistance, buf.HitDistance, 1e-4)
}

func TestCastRayPickWholeSceneIncludesPlanes(t *testing.T) {
	p := testPicker()
	p.AddPlane(core.NewPlane("ground", mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1}, 0))

	ray := core.Ray{Origin: mgl32.Vec3{0, 0, 10}, Direction: mgl32.Vec3{0, 0, -1}}
	res, ok := p.CastRayPick(ray, nil)
	require.True(t, ok)
	require.NotNil(t, res.Plane)
	assert.Equal(t, core.ElementNone, res.Kind)
	assert.Zero(t, res.GlobalID)
	assert.InDelta(t, 15.0, res.HitDistance, 1e-4)

	_, ok = p.CastRayPick(ray, []core.Structure{})
	assert.False(t, ok, "explicit empty candidates ignore the scene")
}

func TestCastRayPickWholeSceneIgnoresFrustum(t *testing.T) {
	p := testPicker()
	// Behind the camera, so never in the pick buffer.
	behind := quad("behind", 20)
	require.NoError(t, p.Register(behind))

	ray := core.Ray{Origin: mgl32.Vec3{0.5, 0.5, 30}, Direction: mgl32.Vec3{0, 0, -1}}
	res, ok := p.CastRayPick(ray, nil)
	require.True(t, ok)
	assert.Equal(t, behind, res.Structure)
	assert.InDelta(t, 10.0, res.HitDistance, 1e-4)
}

func TestCastRayPickFollowsUncommittedMove(t *testing.T) {
	p := testPicker()
	mesh := quad("quad", 0)
	require.NoError(t, p.Register(mesh))
	_, ok := p.PickAt(32, 32)
	require.True(t, ok)

	mesh.Transform().SetPosition(mgl32.Vec3{10, 0, 0})
	ray := core.Ray{Origin: mgl32.Vec3{10.5, 0.5, 10}, Direction: mgl32.Vec3{0, 0, -1}}
	res, ok := p.CastRayPick(ray, []core.Structure{mesh})
	require.True(t, ok)
	assert.Equal(t, uint32(1), res.Index)
	assert.InDelta(t, 10.5, res.Position.X(), 1e-4)
}

func TestClickPrefersNearerOfPlaneAndStructure(t *testing.T) {
	tests := []struct {
		name      string
		planeZ    float32
		wantPlane bool
	}{
		{"plane in front", 2, true},
		{"plane behind", -2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPicker()
			mesh := quad("quad", 0)
			require.NoError(t, p.Register(mesh))
			p.AddPlane(core.NewPlane("cplane", mgl32.Vec3{0, 0, tt.planeZ}, mgl32.Vec3{0, 0, 1}, 0))

			x, y := pixelOf(t, p, mgl32.Vec3{1, 1, 0})
			at := mgl32.Vec2{float32(x), float32(y)}
			res, ok := p.Click(at, at)
			require.True(t, ok)
			if tt.wantPlane {
				assert.NotNil(t, res.Plane)
				assert.Zero(t, p.Selection().Len())
			} else {
				assert.Equal(t, mesh, res.Structure)
				assert.Equal(t, 1, p.Selection().Len())
			}
		})
	}
}

func TestClickIgnoresDrag(t *testing.T) {
	p := testPicker()
	require.NoError(t, p.Register(quad("quad", 0)))
	x, y := pixelOf(t, p, mgl32.Vec3{1, 1, 0})
	press := mgl32.Vec2{float32(x), float32(y)}

	_, ok := p.Click(press, press.Add(mgl32.Vec2{20, 0}))
	assert.False(t, ok)

	_, ok = p.Click(press, press.Add(mgl32.Vec2{1, 1}))
	assert.True(t, ok, "small jitter is still a click")
}

func TestClickBackgroundClearsSelection(t *testing.T) {
	p := testPicker()
	mesh := quad("quad", 0)
	require.NoError(t, p.Register(mesh))
	x, y := pixelOf(t, p, mgl32.Vec3{1, 1, 0})
	at := mgl32.Vec2{float32(x), float32(y)}
	_, ok := p.Click(at, at)
	require.True(t, ok)
	require.Equal(t, 1, p.Selection().Len())

	_, ok = p.Click(mgl32.Vec2{0, 0}, mgl32.Vec2{0, 0})
	assert.False(t, ok)
	assert.Zero(t, p.Selection().Len())
}

func TestProfilerRecordsStages(t *testing.T) {
	p := testPicker()
	require.NoError(t, p.Register(quad("quad", 0)))
	p.PickAt(32, 32)
	assert.Equal(t, []string{"render", "readback", "resolve"}, p.Profiler().Order)
	assert.Equal(t, 1, p.Profiler().Counts["drawn"])
	assert.Contains(t, p.Profiler().GetStatsString(), "readback")
}

func TestSecondBackendPanics(t *testing.T) {
	p := testPicker()
	name, ok := p.Backend()
	require.True(t, ok)
	assert.Equal(t, BackendCPU, name)

	assert.NotPanics(t, func() { p.UseCPU() })
	assert.Panics(t, func() { _ = p.UseWGPU(nil) })
}

func TestBackendIsSafeAlongsideUseCPU(t *testing.T) {
	p := testPicker()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.UseCPU()
		}()
		go func() {
			defer wg.Done()
			name, ok := p.Backend()
			assert.True(t, ok)
			assert.Equal(t, BackendCPU, name)
		}()
	}
	wg.Wait()
}

func TestWGPUPickerWithoutDeviceReportsNoHit(t *testing.T) {
	cam := core.NewCamera(64, 64)
	p := NewPicker(cam, Options{Backend: BackendWGPU}, nil)
	_, ok := p.Backend()
	assert.False(t, ok)
	_, ok = p.PickAt(1, 1)
	assert.False(t, ok)
}
