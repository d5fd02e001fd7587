package ids

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateSequence(t *testing.T) {
	a := NewAllocator()
	o1, o0, o2, o3 := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	s1, err := a.Allocate(o1, 10)
	require.NoError(t, err)
	_, err = a.Allocate(o0, 0)
	require.ErrorIs(t, err, ErrInvalidRange)
	s2, err := a.Allocate(o2, 3)
	require.NoError(t, err)
	s3, err := a.Allocate(o3, 3)
	require.NoError(t, err)

	assert.Equal(t, []uint32{1, 11, 14}, []uint32{s1, s2, s3})

	owner, local, ok := a.Lookup(13)
	require.True(t, ok)
	assert.Equal(t, o2, owner)
	assert.Equal(t, uint32(2), local)

	owner, local, ok = a.Lookup(14)
	require.True(t, ok)
	assert.Equal(t, o3, owner)
	assert.Equal(t, uint32(0), local)

	_, _, ok = a.Lookup(17)
	assert.False(t, ok)

	_, ok = a.Start(o0)
	assert.False(t, ok, "rejected owner must not be pickable")
}

func TestAllocateFiveTenThree(t *testing.T) {
	a := NewAllocator()
	var starts []uint32
	for _, n := range []uint32{5, 10, 3} {
		s, err := a.Allocate(uuid.New(), n)
		require.NoError(t, err)
		starts = append(starts, s)
	}
	assert.Equal(t, []uint32{1, 6, 16}, starts)
	assert.Equal(t, uint32(19), a.Next())
}

func TestLookupBackground(t *testing.T) {
	a := NewAllocator()
	_, _, ok := a.Lookup(0)
	assert.False(t, ok)

	_, err := a.Allocate(uuid.New(), 4)
	require.NoError(t, err)
	_, _, ok = a.Lookup(0)
	assert.False(t, ok)
}

func TestLookupEveryElement(t *testing.T) {
	a := NewAllocator()
	counts := []uint32{1, 7, 64, 2, 300}
	for _, n := range counts {
		_, err := a.Allocate(uuid.New(), n)
		require.NoError(t, err)
	}
	for _, r := range a.Ranges() {
		for i := uint32(0); i < r.Count; i++ {
			owner, local, ok := a.Lookup(r.Start + i)
			if !ok || owner != r.Owner || local != i {
				t.Fatalf("Lookup(%d) = (%s, %d, %v), want (%s, %d)", r.Start+i, owner, local, ok, r.Owner, i)
			}
		}
	}
}

func TestRangesDoNotOverlap(t *testing.T) {
	a := NewAllocator()
	for i := 0; i < 50; i++ {
		_, err := a.Allocate(uuid.New(), uint32(i%7+1))
		require.NoError(t, err)
	}
	rs := a.Ranges()
	for i := range rs {
		for j := i + 1; j < len(rs); j++ {
			if rs[i].Start < rs[j].End() && rs[j].Start < rs[i].End() {
				t.Errorf("ranges %v and %v overlap", rs[i], rs[j])
			}
		}
		if i > 0 {
			assert.Greater(t, rs[i].Start, rs[i-1].Start)
		}
	}
}

func TestDeallocateIsolation(t *testing.T) {
	a := NewAllocator()
	oa, ob, oc := uuid.New(), uuid.New(), uuid.New()
	_, err := a.Allocate(oa, 5)
	require.NoError(t, err)
	sb, err := a.Allocate(ob, 5)
	require.NoError(t, err)
	_, err = a.Allocate(oc, 5)
	require.NoError(t, err)

	require.True(t, a.Deallocate(oa))
	assert.False(t, a.Deallocate(oa))

	for i := uint32(0); i < 5; i++ {
		owner, local, ok := a.Lookup(sb + i)
		require.True(t, ok)
		assert.Equal(t, ob, owner)
		assert.Equal(t, i, local)
	}
	_, _, ok := a.Lookup(1)
	assert.False(t, ok, "freed span resolves to nothing")

	// The freed span is never handed out again.
	sd, err := a.Allocate(uuid.New(), 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), sd)
}

func TestAllocateSameOwner(t *testing.T) {
	a := NewAllocator()
	o := uuid.New()
	s1, err := a.Allocate(o, 8)
	require.NoError(t, err)
	s2, err := a.Allocate(o, 8)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
	assert.Equal(t, uint32(9), a.Next())

	_, err = a.Allocate(o, 9)
	assert.ErrorIs(t, err, ErrAlreadyAllocated)

	require.True(t, a.Deallocate(o))
	s3, err := a.Allocate(o, 9)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), s3)
}

func TestAllocateExhausted(t *testing.T) {
	a := NewAllocator()
	big := uuid.New()
	s, err := a.Allocate(big, MaxID-2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s)

	last, err := a.Allocate(uuid.New(), 1)
	require.NoError(t, err)
	assert.Equal(t, MaxID-1, last)

	_, err = a.Allocate(uuid.New(), 1)
	require.ErrorIs(t, err, ErrIdentifierSpaceExhausted)

	// Existing identifiers still resolve.
	owner, local, ok := a.Lookup(MaxID - 2)
	require.True(t, ok)
	assert.Equal(t, big, owner)
	assert.Equal(t, MaxID-3, local)
}

func TestAllocateOverflowDoesNotWrap(t *testing.T) {
	a := NewAllocator()
	_, err := a.Allocate(uuid.New(), ^uint32(0))
	require.ErrorIs(t, err, ErrIdentifierSpaceExhausted)
	assert.Equal(t, uint32(1), a.Next())
}

func TestRangeOfAndLive(t *testing.T) {
	a := NewAllocator()
	o := uuid.New()
	_, err := a.Allocate(uuid.New(), 3)
	require.NoError(t, err)
	_, err = a.Allocate(o, 4)
	require.NoError(t, err)

	r, ok := a.RangeOf(o)
	require.True(t, ok)
	assert.Equal(t, Range{Start: 4, Count: 4, Owner: o}, r)
	assert.Equal(t, uint64(7), a.Live())
}
