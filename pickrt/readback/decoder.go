package readback

import (
	"github.com/google/uuid"

	"github.com/gekko3d/pick/pickrt/ids"
)

// Source is a pick buffer that can hand one texel back to the host. ReadPixel
// blocks until the bytes are available.
type Source interface {
	Size() (width, height int)
	ReadPixel(x, y int) ([4]byte, error)
}

// Resolver maps a global identifier back to its owner.
type Resolver interface {
	Lookup(id uint32) (owner uuid.UUID, local uint32, ok bool)
}

type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Decoder turns a pixel of a rendered pick buffer into an identifier. It
// never fails: out of bounds, background and transfer errors all come back
// as "no hit", the last one logged.
type Decoder struct {
	Source   Source
	Resolver Resolver
	Log      Logger
}

func NewDecoder(src Source, res Resolver, log Logger) *Decoder {
	return &Decoder{Source: src, Resolver: res, Log: log}
}

// PickAt reads and decodes the identifier at (x, y).
func (d *Decoder) PickAt(x, y int) (uint32, bool) {
	w, h := d.Source.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		d.debugf("pick (%d, %d) outside %dx%d viewport", x, y, w, h)
		return ids.Background, false
	}

	px, err := d.Source.ReadPixel(x, y)
	if err != nil {
		if d.Log != nil {
			d.Log.Warnf("pick readback at (%d, %d) failed: %v", x, y, err)
		}
		return ids.Background, false
	}

	id := ids.DecodeRGBA(px)
	if id == ids.Background {
		return ids.Background, false
	}
	return id, true
}

// Resolve is PickAt followed by an allocator lookup. A decoded id that no
// live range owns, such as one whose structure was removed since the pass was
// drawn, is reported as no hit.
func (d *Decoder) Resolve(x, y int) (owner uuid.UUID, local uint32, id uint32, ok bool) {
	id, ok = d.PickAt(x, y)
	if !ok {
		return uuid.Nil, 0, ids.Background, false
	}
	owner, local, ok = d.Resolver.Lookup(id)
	if !ok {
		d.debugf("pick id %d at (%d, %d) has no owner", id, x, y)
		return uuid.Nil, 0, id, false
	}
	return owner, local, id, true
}

func (d *Decoder) debugf(format string, args ...any) {
	if d.Log != nil {
		d.Log.Debugf(format, args...)
	}
}
