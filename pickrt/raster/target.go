package raster

import (
	"fmt"

	"github.com/gekko3d/pick/pickrt/ids"
)

// Target is a CPU pick buffer: an RGBA8 color plane holding encoded
// identifiers and a float depth plane, both row-major from the top left.
type Target struct {
	Width  int
	Height int
	Color  []byte
	Depth  []float32
}

func NewTarget(width, height int) *Target {
	t := &Target{}
	t.Resize(width, height)
	return t
}

// Resize reallocates the planes when the size changes and clears them.
func (t *Target) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if width != t.Width || height != t.Height || t.Color == nil {
		t.Width, t.Height = width, height
		t.Color = make([]byte, width*height*4)
		t.Depth = make([]float32, width*height)
	}
	t.Clear()
}

// Clear resets color to the background and depth to the far plane.
func (t *Target) Clear() {
	for i := range t.Color {
		t.Color[i] = 0
	}
	for i := range t.Depth {
		t.Depth[i] = 1.0
	}
}

func (t *Target) Size() (int, int) { return t.Width, t.Height }

// ReadPixel returns the RGBA texel at (x, y).
func (t *Target) ReadPixel(x, y int) ([4]byte, error) {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return [4]byte{}, fmt.Errorf("raster: pixel (%d, %d) outside %dx%d target", x, y, t.Width, t.Height)
	}
	i := (y*t.Width + x) * 4
	return [4]byte{t.Color[i], t.Color[i+1], t.Color[i+2], t.Color[i+3]}, nil
}

// ID decodes the identifier stored at (x, y); out of range reads as background.
func (t *Target) ID(x, y int) uint32 {
	px, err := t.ReadPixel(x, y)
	if err != nil {
		return ids.Background
	}
	return ids.DecodeRGBA(px)
}

func (t *Target) DepthAt(x, y int) float32 {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return 1.0
	}
	return t.Depth[y*t.Width+x]
}

// plot writes id at (x, y) if depth passes a strict less-than test against
// what is already there. Depths outside [0, 1] are clipped.
func (t *Target) plot(x, y int, depth float32, id uint32) bool {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return false
	}
	if depth < 0 || depth > 1 {
		return false
	}
	i := y*t.Width + x
	if !(depth < t.Depth[i]) {
		return false
	}
	t.Depth[i] = depth
	px := ids.EncodeRGBA(id)
	copy(t.Color[i*4:i*4+4], px[:])
	return true
}
