package pick

import (
	"fmt"
	"io"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/pick/pickrt/core"
	"github.com/gekko3d/pick/pickrt/gpu"
	"github.com/gekko3d/pick/pickrt/raster"
	"github.com/gekko3d/pick/pickrt/readback"
)

// BackendName identifies the pick buffer implementation.
type BackendName string

const (
	BackendCPU  BackendName = "cpu"
	BackendWGPU BackendName = "wgpu"
)

// backend draws the pick pass and exposes the result for readback.
type backend interface {
	Name() BackendName
	Render(scene *core.Scene, cam *core.Camera) (int, error)
	Source() readback.Source
	// DepthAt is the [0,1] buffer depth under a pixel, when the backend can
	// read it back.
	DepthAt(x, y int) (float32, bool)
}

type cpuBackend struct {
	renderer *raster.Renderer
	target   *raster.Target
}

func newCPUBackend(ids raster.IDSource, lineWidth float32) *cpuBackend {
	r := raster.NewRenderer(ids)
	r.LineWidthPx = lineWidth
	return &cpuBackend{renderer: r, target: raster.NewTarget(0, 0)}
}

func (b *cpuBackend) Name() BackendName { return BackendCPU }

func (b *cpuBackend) Render(scene *core.Scene, cam *core.Camera) (int, error) {
	return b.renderer.Render(scene, cam, b.target), nil
}

func (b *cpuBackend) Source() readback.Source { return b.target }

func (b *cpuBackend) DepthAt(x, y int) (float32, bool) {
	d := b.target.DepthAt(x, y)
	return d, d < 1
}

type wgpuBackend struct {
	renderer *gpu.PickRenderer
	target   *gpu.Target
}

func newWGPUBackend(device *wgpu.Device, ids gpu.IDSource, lineWidth float32) (*wgpuBackend, error) {
	r, err := gpu.NewPickRenderer(device, ids)
	if err != nil {
		return nil, fmt.Errorf("create pick renderer: %w", err)
	}
	r.LineWidthPx = lineWidth
	return &wgpuBackend{renderer: r, target: gpu.NewTarget(device)}, nil
}

func (b *wgpuBackend) Name() BackendName { return BackendWGPU }

func (b *wgpuBackend) Render(scene *core.Scene, cam *core.Camera) (int, error) {
	return b.renderer.Render(scene, cam, b.target)
}

func (b *wgpuBackend) Source() readback.Source { return b.target }

// Depth24Plus cannot be copied out, so the GPU path never reports depth.
func (b *wgpuBackend) DepthAt(x, y int) (float32, bool) { return 0, false }

func (b *wgpuBackend) release() {
	b.target.Release()
	b.renderer.Release()
}

// ensureSingleBackend enforces one pick backend per Picker.
// If a different backend is already installed, it panics with a clear message.
func (p *Picker) ensureSingleBackend(name BackendName) bool {
	if p.backend == nil {
		return true
	}
	if p.backend.Name() != name {
		p.log.Errorf("Multiple pick backends installed: %s and %s", p.backend.Name(), name)
		panic(fmt.Sprintf("Multiple pick backends installed: %s and %s", p.backend.Name(), name))
	}
	return false
}

// UseCPU installs the software pick backend. It is what NewPicker installs
// unless Options.Backend asks for the GPU.
func (p *Picker) UseCPU() *Picker {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ensureSingleBackend(BackendCPU) {
		return p
	}
	p.backend = newCPUBackend(p.alloc, p.opts.LineWidthPx)
	p.log.Infof("Pick backend selected: %s", BackendCPU)
	return p
}

// UseWGPU installs the device-resident pick backend. Picks before this is
// called report no hit.
func (p *Picker) UseWGPU(device *wgpu.Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ensureSingleBackend(BackendWGPU) {
		return nil
	}
	b, err := newWGPUBackend(device, p.alloc, p.opts.LineWidthPx)
	if err != nil {
		return err
	}
	p.backend = b
	p.log.Infof("Pick backend selected: %s", BackendWGPU)
	return nil
}

// WriteDebugImage dumps the last pick buffer as a false-color BMP. Only the
// CPU backend keeps its buffer on the host.
func (p *Picker) WriteDebugImage(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cb, ok := p.backend.(*cpuBackend)
	if !ok {
		return fmt.Errorf("pick: debug image needs the %s backend", BackendCPU)
	}
	return cb.target.WriteBMP(w)
}

// Close releases device resources held by the backend.
func (p *Picker) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if wb, ok := p.backend.(*wgpuBackend); ok {
		wb.release()
	}
}
