package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTransformComposition(t *testing.T) {
	tr := NewTransform()
	tr.Position = mgl32.Vec3{10, 20, 30}
	tr.Rotation = mgl32.QuatRotate(mgl32.DegToRad(30), mgl32.Vec3{0, 1, 0})
	tr.Scale = mgl32.Vec3{2, 2, 2}

	identity := tr.ObjectToWorld().Mul4(tr.WorldToObject())

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if !closeEnough(identity.At(i, j), want, 0.001) {
				t.Errorf("Identity element [%d,%d] should be %f, got %f", i, j, want, identity.At(i, j))
			}
		}
	}
}

func TestWorldAABBFollowsTransform(t *testing.T) {
	pc := NewPointCloud("pc", []mgl32.Vec3{{0, 0, 0}, {1, 1, 1}}, 0)
	pc.Transform().SetPosition(mgl32.Vec3{100, 0, 0})
	pc.Transform().SetScale(mgl32.Vec3{2, 2, 2})

	s := NewScene()
	s.Add(pc)
	s.Commit(nil)

	b := pc.WorldAABB()
	if !closeEnough(b[0].X(), 100, 1e-4) || !closeEnough(b[1].X(), 102, 1e-4) {
		t.Errorf("World AABB X should be [100, 102], got [%f, %f]", b[0].X(), b[1].X())
	}
	if pc.Transform().Dirty {
		t.Error("Commit should clear the dirty flag")
	}
	if got := pc.Transform().MaxScale(); got != 2 {
		t.Errorf("MaxScale = %f, want 2", got)
	}
}

func closeEnough(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
