package pick

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Selection is a set of selected global identifiers. Element-level selection
// over large meshes stays compact because identifiers of one structure are
// contiguous.
type Selection struct {
	mu  sync.Mutex
	ids *roaring.Bitmap
}

func NewSelection() *Selection {
	return &Selection{ids: roaring.New()}
}

func (s *Selection) Select(id uint32) {
	s.mu.Lock()
	s.ids.Add(id)
	s.mu.Unlock()
}

func (s *Selection) Deselect(id uint32) {
	s.mu.Lock()
	s.ids.Remove(id)
	s.mu.Unlock()
}

// Toggle flips id and reports whether it is selected afterwards.
func (s *Selection) Toggle(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids.Contains(id) {
		s.ids.Remove(id)
		return false
	}
	s.ids.Add(id)
	return true
}

func (s *Selection) Contains(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids.Contains(id)
}

// RemoveRange drops every identifier in [start, end).
func (s *Selection) RemoveRange(start, end uint32) {
	s.mu.Lock()
	s.ids.RemoveRange(uint64(start), uint64(end))
	s.mu.Unlock()
}

func (s *Selection) Clear() {
	s.mu.Lock()
	s.ids.Clear()
	s.mu.Unlock()
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.ids.GetCardinality())
}

// IDs returns the selected identifiers in increasing order.
func (s *Selection) IDs() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids.ToArray()
}
