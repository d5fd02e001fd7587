package bvh

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Node is one box of the hierarchy. Leaves hold a single item index in
// LeafFirst; inner nodes have LeafCount 0.
type Node struct {
	Min       mgl32.Vec3
	Max       mgl32.Vec3
	Left      int32
	Right     int32
	LeafFirst int32
	LeafCount int32
}

func (n *Node) IsLeaf() bool { return n.LeafCount > 0 }

type AABBItem struct {
	Min      mgl32.Vec3
	Max      mgl32.Vec3
	Centroid mgl32.Vec3
	Index    int
}

// Tree is a median-split hierarchy over world boxes. Nodes[0] is the root.
type Tree struct {
	Nodes []Node
}

func (t *Tree) Empty() bool { return t == nil || len(t.Nodes) == 0 }

type Builder struct{}

func (b *Builder) Build(aabbs [][2]mgl32.Vec3) *Tree {
	if len(aabbs) == 0 {
		return &Tree{}
	}

	items := make([]AABBItem, len(aabbs))
	for i, bounds := range aabbs {
		items[i] = AABBItem{
			Min:      bounds[0],
			Max:      bounds[1],
			Centroid: bounds[0].Add(bounds[1]).Mul(0.5),
			Index:    i,
		}
	}

	nodes := make([]Node, 0, 2*len(items)-1)
	b.recursiveBuild(items, &nodes)
	return &Tree{Nodes: nodes}
}

func (b *Builder) recursiveBuild(items []AABBItem, nodes *[]Node) int32 {
	idx := int32(len(*nodes))
	*nodes = append(*nodes, Node{Left: -1, Right: -1, LeafFirst: -1, LeafCount: 0})

	minB := mgl32.Vec3{float32(math.Inf(1)), float32(math.Inf(1)), float32(math.Inf(1))}
	maxB := mgl32.Vec3{float32(math.Inf(-1)), float32(math.Inf(-1)), float32(math.Inf(-1))}
	for _, it := range items {
		for k := 0; k < 3; k++ {
			minB[k] = min(minB[k], it.Min[k])
			maxB[k] = max(maxB[k], it.Max[k])
		}
	}

	(*nodes)[idx].Min = minB
	(*nodes)[idx].Max = maxB

	if len(items) == 1 {
		(*nodes)[idx].LeafFirst = int32(items[0].Index)
		(*nodes)[idx].LeafCount = 1
		return idx
	}

	// Split on the longest axis at the centroid median
	extent := maxB.Sub(minB)
	axis := 0
	if extent.Y() > extent.X() {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Centroid[axis] < items[j].Centroid[axis]
	})

	mid := len(items) / 2
	left := b.recursiveBuild(items[:mid], nodes)
	right := b.recursiveBuild(items[mid:], nodes)
	(*nodes)[idx].Left = left
	(*nodes)[idx].Right = right

	return idx
}

// Traverse walks every node whose box passes enter and calls visit with the
// item index of each leaf reached. Order is depth first, left before right.
func (t *Tree) Traverse(enter func(minB, maxB mgl32.Vec3) bool, visit func(index int)) {
	if t.Empty() {
		return
	}
	stack := []int32{0}
	for len(stack) > 0 {
		n := &t.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !enter(n.Min, n.Max) {
			continue
		}
		if n.IsLeaf() {
			visit(int(n.LeafFirst))
			continue
		}
		// Push right first so left is visited first
		stack = append(stack, n.Right, n.Left)
	}
}
