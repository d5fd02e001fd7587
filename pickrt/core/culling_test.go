package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFrustumCulling(t *testing.T) {
	// Camera at origin looking down -Z, 90 deg FOV, Aspect 1.0, Near 1, Far 100
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1.0, 1.0, 100.0)
	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 0, -1},
		mgl32.Vec3{0, 1, 0},
	)
	planes := ExtractFrustum(proj.Mul4(view))

	tests := []struct {
		name     string
		aabbMin  mgl32.Vec3
		aabbMax  mgl32.Vec3
		expected bool
	}{
		{"Inside (center)", mgl32.Vec3{-1, -1, -10}, mgl32.Vec3{1, 1, -5}, true},
		{"Outside (Left)", mgl32.Vec3{-20, -1, -10}, mgl32.Vec3{-15, 1, -5}, false},
		{"Outside (Right)", mgl32.Vec3{15, -1, -10}, mgl32.Vec3{20, 1, -5}, false},
		{"Outside (Behind/Near)", mgl32.Vec3{-1, -1, 2}, mgl32.Vec3{1, 1, 5}, false},
		{"Outside (Far)", mgl32.Vec3{-1, -1, -200}, mgl32.Vec3{1, 1, -150}, false},
		{"Intersecting (Left Plane)", mgl32.Vec3{-15, -1, -10}, mgl32.Vec3{-5, 1, -5}, true},
		{"Encompassing (Huge box)", mgl32.Vec3{-1000, -1000, -1000}, mgl32.Vec3{1000, 1000, 1000}, true},
	}

	for _, tc := range tests {
		aabb := [2]mgl32.Vec3{tc.aabbMin, tc.aabbMax}
		if visible := AABBInFrustum(aabb, planes); visible != tc.expected {
			t.Errorf("Test %s failed: expected %v, got %v", tc.name, tc.expected, visible)
		}
	}
}

func TestSceneCommitCulls(t *testing.T) {
	cam := NewCamera(100, 100)
	cam.Position = mgl32.Vec3{0, 0, 10}

	front := NewPointCloud("front", []mgl32.Vec3{{0, 0, 0}}, 0.5)
	behind := NewPointCloud("behind", []mgl32.Vec3{{0, 0, 20}}, 0.5)
	hidden := NewPointCloud("hidden", []mgl32.Vec3{{0, 0, 0}}, 0.5)
	hidden.SetVisible(false)
	empty := NewPointCloud("empty", nil, 0.5)

	s := NewScene()
	for _, st := range []Structure{front, behind, hidden, empty} {
		s.Add(st)
	}
	s.Commit(cam)

	if len(s.Visible) != 1 || s.Visible[0] != front {
		t.Fatalf("Expected only 'front' visible, got %d structures", len(s.Visible))
	}
	if s.BVH.Empty() {
		t.Fatal("BVH should cover the visible structure")
	}

	// Moving a structure marks it dirty and Commit picks the new bounds up.
	behind.Transform().SetPosition(mgl32.Vec3{0, 0, -30})
	s.Commit(cam)
	if len(s.Visible) != 2 {
		t.Errorf("Expected 2 visible after move, got %d", len(s.Visible))
	}
}

func TestSceneRemove(t *testing.T) {
	s := NewScene()
	a := NewPointCloud("a", []mgl32.Vec3{{0, 0, 0}}, 1)
	b := NewPointCloud("b", []mgl32.Vec3{{1, 0, 0}}, 1)
	s.Add(a)
	s.Add(b)

	if got := s.Remove(a.ID()); got != a {
		t.Fatal("Remove should return the removed structure")
	}
	if s.Get(a.ID()) != nil {
		t.Error("Removed structure still reachable")
	}
	if s.Get(b.ID()) != b {
		t.Error("Other structure lost")
	}
	if s.Remove(a.ID()) != nil {
		t.Error("Second remove should return nil")
	}
}
