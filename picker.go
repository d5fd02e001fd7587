package pick

import (
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/pick/pickrt/core"
	"github.com/gekko3d/pick/pickrt/ids"
	"github.com/gekko3d/pick/pickrt/raycast"
	"github.com/gekko3d/pick/pickrt/readback"
)

// Result is one resolved pick. Exactly one of Structure and Plane is set.
type Result struct {
	Structure core.Structure
	Plane     *core.Plane
	Kind      core.ElementKind
	Index     uint32
	// GlobalID is zero for plane hits and for structures that are not
	// registered.
	GlobalID    uint32
	HitDistance float32
	Position    mgl32.Vec3
}

func (r Result) String() string {
	if r.Plane != nil {
		return fmt.Sprintf("plane %q t=%.3f", r.Plane.Name, r.HitDistance)
	}
	if r.Structure == nil {
		return "none"
	}
	return fmt.Sprintf("%s %q %s #%d (id %d) t=%.3f", r.Structure.Primitive(), r.Structure.Name(), r.Kind, r.Index, r.GlobalID, r.HitDistance)
}

// Picker answers "what is under this pixel" for a scene and camera. Every
// query redraws the pick buffer, so it always sees the scene as it is at call
// time.
type Picker struct {
	mu sync.Mutex

	opts      Options
	log       Logger
	alloc     *ids.Allocator
	scene     *core.Scene
	camera    *core.Camera
	caster    *raycast.Caster
	backend   backend
	selection *Selection
	profiler  *Profiler
}

// NewPicker creates a picker over an empty scene. A nil logger is replaced by
// a nop logger.
func NewPicker(cam *core.Camera, opts Options, log Logger) *Picker {
	opts = opts.withDefaults()
	if log == nil {
		log = NewNopLogger()
	}
	if opts.Debug {
		log.SetDebug(true)
	}
	p := &Picker{
		opts:      opts,
		log:       log,
		alloc:     ids.NewAllocator(),
		scene:     core.NewScene(),
		camera:    cam,
		caster:    &raycast.Caster{Camera: cam, MinPickRadiusPx: opts.MinPickRadiusPx, LineWidthPx: opts.LineWidthPx},
		selection: NewSelection(),
		profiler:  NewProfiler(),
	}
	if opts.Backend == BackendCPU {
		p.UseCPU()
	}
	return p
}

func (p *Picker) Scene() *core.Scene        { return p.scene }
func (p *Picker) Camera() *core.Camera      { return p.camera }
func (p *Picker) Allocator() *ids.Allocator { return p.alloc }
func (p *Picker) Selection() *Selection     { return p.selection }
func (p *Picker) Profiler() *Profiler       { return p.profiler }
func (p *Picker) Options() Options          { return p.opts }

// Backend reports the active backend, if one has been chosen.
func (p *Picker) Backend() (BackendName, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return backendName(p.backend)
}

func backendName(b backend) (BackendName, bool) {
	if b == nil {
		return "", false
	}
	return b.Name(), true
}

// Register adds s to the scene and reserves one identifier per element. A
// structure with no elements is rejected with ids.ErrInvalidRange and is not
// added.
func (p *Picker) Register(s core.Structure) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	start, err := p.alloc.Allocate(s.ID(), s.ElementCount())
	if err != nil {
		p.log.Warnf("register %q: %v", s.Name(), err)
		return fmt.Errorf("register %q: %w", s.Name(), err)
	}
	if p.scene.Get(s.ID()) == nil {
		p.scene.Add(s)
	}
	instrumentAllocatedIDs(p.alloc.Live())
	p.log.Debugf("registered %q: ids [%d, %d)", s.Name(), start, start+s.ElementCount())
	return nil
}

// Remove drops a structure, its identifier range and any of its elements
// from the selection. It reports whether the structure was registered.
func (p *Picker) Remove(id core.StructureID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scene.Remove(id)
	r, ok := p.alloc.RangeOf(id)
	if !ok {
		return false
	}
	p.selection.RemoveRange(r.Start, r.End())
	p.alloc.Deallocate(id)
	instrumentAllocatedIDs(p.alloc.Live())
	return true
}

func (p *Picker) AddPlane(pl *core.Plane) {
	p.mu.Lock()
	p.scene.AddPlane(pl)
	p.mu.Unlock()
}

func (p *Picker) RemovePlane(pl *core.Plane) {
	p.mu.Lock()
	p.scene.RemovePlane(pl)
	p.mu.Unlock()
}

// PickAt draws the pick buffer and resolves the pixel at (x, y). Out of
// bounds, background and failed readbacks all report no hit.
func (p *Picker) PickAt(x, y int) (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pickAt(x, y)
}

func (p *Picker) pickAt(x, y int) (Result, bool) {
	start := time.Now()
	if p.backend == nil {
		p.log.Warnf("pick (%d, %d) with no backend installed", x, y)
		instrumentQuery(pathBuffer, resultError, time.Since(start).Seconds())
		return Result{}, false
	}

	p.profiler.BeginScope("render")
	p.scene.Commit(p.camera)
	drawn, err := p.backend.Render(p.scene, p.camera)
	p.profiler.EndScope("render")
	p.profiler.SetCount("drawn", drawn)
	if err != nil {
		p.log.Warnf("pick pass failed: %v", err)
		instrumentQuery(pathBuffer, resultError, time.Since(start).Seconds())
		return Result{}, false
	}

	p.profiler.BeginScope("readback")
	dec := readback.NewDecoder(p.backend.Source(), p.alloc, p.log)
	owner, local, id, ok := dec.Resolve(x, y)
	p.profiler.EndScope("readback")

	p.profiler.BeginScope("resolve")
	var res Result
	if ok {
		res, ok = p.resolve(x, y, owner, local, id)
	}
	p.profiler.EndScope("resolve")

	result := resultMiss
	if ok {
		result = resultHit
	}
	instrumentQuery(pathBuffer, result, time.Since(start).Seconds())
	p.log.Debugf("pick (%d, %d): %s [%s]", x, y, res, p.profiler.Summary())
	return res, ok
}

func (p *Picker) resolve(x, y int, owner core.StructureID, local, id uint32) (Result, bool) {
	s := p.scene.Get(owner)
	if s == nil || !s.Visible() {
		return Result{}, false
	}
	res := Result{Structure: s, Kind: s.ElementKind(), Index: local, GlobalID: id}

	ray, rayOK := p.camera.PixelRay(x, y)
	if !p.opts.SkipRayRefine && rayOK {
		if h, hit := p.caster.CastElement(ray, s, local); hit {
			res.HitDistance = h.T
			res.Position = h.Position
			return res, true
		}
	}
	if d, ok := p.backend.DepthAt(x, y); ok {
		if pos, ok := p.camera.Unproject(float32(x)+0.5, float32(y)+0.5, d); ok {
			res.Position = pos
			res.HitDistance = pos.Sub(p.camera.Position).Len()
			return res, true
		}
	}
	// Last resort: where the pixel ray enters the structure's bounds.
	if rayOK {
		b := core.WorldBounds(s)
		if tMin, _, ok := raycast.IntersectAABB(ray, b[0], b[1]); ok {
			res.HitDistance = math32.Max(tMin, 0)
			res.Position = ray.At(res.HitDistance)
		}
	}
	return res, true
}

// CastRayPick is the analytic path. It returns the closest element hit by
// ray among candidates, or among every visible structure and construction
// plane when candidates is nil. The whole-scene cast is not limited to the
// camera frustum.
func (p *Picker) CastRayPick(ray core.Ray, candidates []core.Structure) (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	var (
		h  raycast.Hit
		ok bool
	)
	if candidates == nil {
		p.scene.Commit(nil)
		h, ok = p.caster.CastScene(ray, p.scene)
	} else {
		h, ok = p.caster.Cast(ray, candidates)
	}

	result := resultMiss
	if ok {
		result = resultHit
	}
	instrumentQuery(pathRay, result, time.Since(start).Seconds())
	if !ok {
		return Result{}, false
	}
	return p.fromHit(h), true
}

func (p *Picker) fromHit(h raycast.Hit) Result {
	res := Result{
		Structure:   h.Structure,
		Plane:       h.Plane,
		Kind:        h.Kind,
		Index:       h.Index,
		HitDistance: h.T,
		Position:    h.Position,
	}
	if h.Structure != nil {
		if start, ok := p.alloc.Start(h.Structure.ID()); ok {
			res.GlobalID = start + h.Index
		}
	}
	return res
}

// Click resolves a press/release pair in pixels. A release farther than
// DragThresholdPx from the press is a drag and selects nothing. Otherwise
// the nearer of the pick-buffer hit and the closest construction plane wins,
// and the selection is replaced by the clicked element; clicking empty space
// clears it.
func (p *Picker) Click(press, release mgl32.Vec2) (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if release.Sub(press).Len() > p.opts.DragThresholdPx {
		p.log.Debugf("drag from %v to %v ignored", press, release)
		return Result{}, false
	}

	x, y := int(math32.Floor(release.X())), int(math32.Floor(release.Y()))
	res, ok := p.pickAt(x, y)

	if ray, rayOK := p.camera.PixelRay(x, y); rayOK && len(p.scene.Planes) > 0 {
		if h, hit := p.caster.CastPlanes(ray, p.scene.Planes); hit && (!ok || h.T < res.HitDistance) {
			res, ok = p.fromHit(h), true
		}
	}

	p.selection.Clear()
	if ok && res.GlobalID != ids.Background {
		p.selection.Select(res.GlobalID)
	}
	if ok {
		p.log.Infof("clicked %s", res)
	}
	return res, ok
}

// Resize follows the viewport. The pick buffer is resized on the next query.
func (p *Picker) Resize(width, height int) {
	p.mu.Lock()
	p.camera.Width, p.camera.Height = width, height
	p.mu.Unlock()
}
