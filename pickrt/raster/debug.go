package raster

import (
	"image"
	"image/color"
	"io"

	"golang.org/x/image/bmp"

	"github.com/gekko3d/pick/pickrt/ids"
)

// Image returns a false-color view of the pick buffer. Adjacent identifiers
// differ only in the low channel, so ids are scrambled to make neighbouring
// elements distinguishable; the background stays black.
func (t *Target) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			id := t.ID(x, y)
			if id == ids.Background {
				img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
				continue
			}
			h := id * 2654435761 // Knuth multiplicative hash
			img.SetRGBA(x, y, color.RGBA{byte(h >> 24), byte(h >> 16), byte(h >> 8), 255})
		}
	}
	return img
}

// WriteBMP dumps the false-color view for inspection.
func (t *Target) WriteBMP(w io.Writer) error {
	return bmp.Encode(w, t.Image())
}
