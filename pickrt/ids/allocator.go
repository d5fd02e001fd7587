package ids

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrInvalidRange is returned for a zero-element allocation request.
	ErrInvalidRange = errors.New("ids: element count must be positive")
	// ErrIdentifierSpaceExhausted is returned when a range would run past the
	// 24-bit identifier space. Ranges already handed out stay valid.
	ErrIdentifierSpaceExhausted = errors.New("ids: 24-bit identifier space exhausted")
	// ErrAlreadyAllocated is returned when an owner asks for a range of a
	// different size than the one it holds. Resizing is deallocate+allocate.
	ErrAlreadyAllocated = errors.New("ids: owner already holds a range of a different size")
)

// Range is a contiguous block of global identifiers owned by one structure.
type Range struct {
	Start uint32
	Count uint32
	Owner uuid.UUID
}

// End returns one past the last identifier in the range.
func (r Range) End() uint32 { return r.Start + r.Count }

// Contains reports whether id falls inside the range.
func (r Range) Contains(id uint32) bool {
	return id >= r.Start && id < r.End()
}

// Allocator hands out identifier ranges. The counter only moves forward, so
// the range table is sorted by Start in insertion order and a freed span is
// never reused.
type Allocator struct {
	mu      sync.RWMutex
	next    uint32
	ranges  []Range
	byOwner map[uuid.UUID]uint32
}

func NewAllocator() *Allocator {
	return &Allocator{
		next:    1, // 0 is the background
		byOwner: make(map[uuid.UUID]uint32),
	}
}

// Allocate reserves count identifiers for owner and returns the first one.
// Asking again with the same count returns the existing start.
func (a *Allocator) Allocate(owner uuid.UUID, count uint32) (uint32, error) {
	if count == 0 {
		return 0, ErrInvalidRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if start, ok := a.byOwner[owner]; ok {
		r := a.ranges[a.indexOf(start)]
		if r.Count != count {
			return 0, fmt.Errorf("%w: %s holds %d, asked for %d", ErrAlreadyAllocated, owner, r.Count, count)
		}
		return start, nil
	}

	if uint64(a.next)+uint64(count) > uint64(MaxID) {
		return 0, fmt.Errorf("%w: next=%d count=%d", ErrIdentifierSpaceExhausted, a.next, count)
	}

	start := a.next
	a.next += count
	a.ranges = append(a.ranges, Range{Start: start, Count: count, Owner: owner})
	a.byOwner[owner] = start
	return start, nil
}

// Deallocate drops owner's range. Other ranges keep their identifiers.
func (a *Allocator) Deallocate(owner uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	start, ok := a.byOwner[owner]
	if !ok {
		return false
	}
	i := a.indexOf(start)
	a.ranges = append(a.ranges[:i], a.ranges[i+1:]...)
	delete(a.byOwner, owner)
	return true
}

// Lookup resolves a global identifier to its owner and the element index
// local to that owner.
func (a *Allocator) Lookup(id uint32) (uuid.UUID, uint32, bool) {
	if id == Background {
		return uuid.Nil, 0, false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	// First range whose end is past id; it contains id unless id sits in a
	// freed gap.
	i := sort.Search(len(a.ranges), func(i int) bool {
		return a.ranges[i].End() > id
	})
	if i == len(a.ranges) || !a.ranges[i].Contains(id) {
		return uuid.Nil, 0, false
	}
	r := a.ranges[i]
	return r.Owner, id - r.Start, true
}

// Start returns the first identifier held by owner.
func (a *Allocator) Start(owner uuid.UUID) (uint32, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	start, ok := a.byOwner[owner]
	return start, ok
}

// RangeOf returns the full range held by owner.
func (a *Allocator) RangeOf(owner uuid.UUID) (Range, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	start, ok := a.byOwner[owner]
	if !ok {
		return Range{}, false
	}
	return a.ranges[a.indexOf(start)], true
}

// Ranges returns a copy of the live range table, sorted by Start.
func (a *Allocator) Ranges() []Range {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Range, len(a.ranges))
	copy(out, a.ranges)
	return out
}

// Next returns the identifier the next allocation would start at.
func (a *Allocator) Next() uint32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.next
}

// Live returns the number of identifiers currently held across all ranges.
func (a *Allocator) Live() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var n uint64
	for _, r := range a.ranges {
		n += uint64(r.Count)
	}
	return n
}

// indexOf expects the caller to hold the lock and start to be live.
func (a *Allocator) indexOf(start uint32) int {
	return sort.Search(len(a.ranges), func(i int) bool {
		return a.ranges[i].Start >= start
	})
}
