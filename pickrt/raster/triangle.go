package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// screenVert is a vertex after the viewport transform: pixels and [0, 1]
// depth. Depth is affine in screen space so it interpolates linearly.
type screenVert struct {
	X, Y, Z float32
}

func edge(a, b screenVert, cx, cy float32) float32 {
	return (b.X-a.X)*(cy-a.Y) - (b.Y-a.Y)*(cx-a.X)
}

// fillTriangle scan-converts one triangle, sampling at pixel centres.
func (p *pass) fillTriangle(v0, v1, v2 screenVert, id uint32) {
	area := edge(v0, v1, v2.X, v2.Y)
	if math32.Abs(area) < 1e-12 {
		return
	}
	x0, y0, x1, y1, ok := p.clampRect(
		math32.Min(v0.X, math32.Min(v1.X, v2.X)),
		math32.Min(v0.Y, math32.Min(v1.Y, v2.Y)),
		math32.Max(v0.X, math32.Max(v1.X, v2.X)),
		math32.Max(v0.Y, math32.Max(v1.Y, v2.Y)),
	)
	if !ok {
		return
	}

	inv := 1.0 / area
	for py := y0; py <= y1; py++ {
		cy := float32(py) + 0.5
		for px := x0; px <= x1; px++ {
			cx := float32(px) + 0.5
			w0 := edge(v1, v2, cx, cy) * inv
			w1 := edge(v2, v0, cx, cy) * inv
			w2 := edge(v0, v1, cx, cy) * inv
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			p.target.plot(px, py, w0*v0.Z+w1*v1.Z+w2*v2.Z, id)
		}
	}
}

// clipTriangle clips a GL clip-space triangle against the near plane,
// projects the remaining polygon and fills it as a fan.
func (p *pass) clipTriangle(a, b, c mgl32.Vec4, id uint32) {
	poly := clipNear([]mgl32.Vec4{a, b, c})
	if len(poly) < 3 {
		return
	}
	verts := make([]screenVert, 0, len(poly))
	for _, v := range poly {
		s, ok := p.toScreen(v)
		if !ok {
			return
		}
		verts = append(verts, s)
	}
	for k := 1; k+1 < len(verts); k++ {
		p.fillTriangle(verts[0], verts[k], verts[k+1], id)
	}
}

func (p *pass) toScreen(clip mgl32.Vec4) (screenVert, bool) {
	xy, z, ok := p.vp.ClipToScreen(clip)
	if !ok {
		return screenVert{}, false
	}
	return screenVert{X: xy.X(), Y: xy.Y(), Z: z}, true
}

func nearDist(v mgl32.Vec4) float32 { return v.Z() + v.W() }

// clipNear is one Sutherland-Hodgman stage against z >= -w.
func clipNear(in []mgl32.Vec4) []mgl32.Vec4 {
	out := make([]mgl32.Vec4, 0, len(in)+1)
	for i := range in {
		cur := in[i]
		next := in[(i+1)%len(in)]
		dc, dn := nearDist(cur), nearDist(next)
		if dc >= 0 {
			out = append(out, cur)
		}
		if (dc >= 0) != (dn >= 0) {
			t := dc / (dc - dn)
			out = append(out, cur.Add(next.Sub(cur).Mul(t)))
		}
	}
	return out
}

// clipSegmentNear trims a clip-space segment to the near plane.
func clipSegmentNear(a, b mgl32.Vec4) (mgl32.Vec4, mgl32.Vec4, bool) {
	da, db := nearDist(a), nearDist(b)
	if da < 0 && db < 0 {
		return a, b, false
	}
	if da < 0 {
		a = a.Add(b.Sub(a).Mul(da / (da - db)))
	} else if db < 0 {
		b = b.Add(a.Sub(b).Mul(db / (db - da)))
	}
	return a, b, true
}
