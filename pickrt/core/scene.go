package core

import (
	"github.com/gekko3d/pick/pickrt/bvh"

	"github.com/go-gl/mathgl/mgl32"
)

// Scene is the set of pickable structures and construction planes a query
// runs against. Commit refreshes world bounds and the visible set for a
// camera; both pick paths read Visible and BVH afterwards.
type Scene struct {
	Structures []Structure
	Planes     []*Plane

	Visible []Structure
	BVH     *bvh.Tree // over Visible, by index
}

func NewScene() *Scene {
	return &Scene{
		Structures: []Structure{},
	}
}

func (s *Scene) Add(st Structure) {
	s.Structures = append(s.Structures, st)
}

func (s *Scene) Remove(id StructureID) Structure {
	for i, st := range s.Structures {
		if st.ID() == id {
			s.Structures = append(s.Structures[:i], s.Structures[i+1:]...)
			return st
		}
	}
	return nil
}

func (s *Scene) Get(id StructureID) Structure {
	for _, st := range s.Structures {
		if st.ID() == id {
			return st
		}
	}
	return nil
}

func (s *Scene) AddPlane(p *Plane) {
	s.Planes = append(s.Planes, p)
}

func (s *Scene) RemovePlane(p *Plane) {
	for i, o := range s.Planes {
		if o == p {
			s.Planes = append(s.Planes[:i], s.Planes[i+1:]...)
			return
		}
	}
}

// Commit recomputes world bounds from each structure's transform, culls
// hidden and off-screen structures, and rebuilds the BVH over what is left.
// A nil camera skips frustum culling.
func (s *Scene) Commit(cam *Camera) {
	bounds := make(map[StructureID][2]mgl32.Vec3, len(s.Structures))
	for _, st := range s.Structures {
		bounds[st.ID()] = WorldBounds(st)
		st.Transform().Dirty = false
	}

	var planes [6]mgl32.Vec4
	cull := cam != nil
	if cull {
		planes = cam.Frustum()
	}

	s.Visible = s.Visible[:0]
	for _, st := range s.Structures {
		if !st.Visible() || st.ElementCount() == 0 {
			continue
		}
		if cull && !AABBInFrustum(bounds[st.ID()], planes) {
			continue
		}
		s.Visible = append(s.Visible, st)
	}

	aabbs := make([][2]mgl32.Vec3, len(s.Visible))
	for i, st := range s.Visible {
		aabbs[i] = bounds[st.ID()]
	}
	builder := &bvh.Builder{}
	s.BVH = builder.Build(aabbs)
}
