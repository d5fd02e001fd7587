package main

import (
	"flag"
	"math"
	"os"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/pick"
	"github.com/gekko3d/pick/pickrt/core"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	backend := flag.String("backend", string(pick.BackendCPU), "Pick backend: cpu or wgpu")
	width := flag.Int("width", 1280, "Window width")
	height := flag.Int("height", 720, "Window height")
	lineWidth := flag.Float64("line-width", 3, "Thin curve width in the pick buffer, in pixels")
	noRefine := flag.Bool("no-refine", false, "Report buffer depth instead of refining hits with a ray")
	dump := flag.String("dump", "", "Write the CPU pick buffer to this BMP file after each click")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log := pick.NewDefaultLogger("pickview", *debug)

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(*width, *height, "Pick View", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	fbW, fbH := window.GetFramebufferSize()
	cam := core.NewCamera(fbW, fbH)
	cam.Position = mgl32.Vec3{4, 3, 8}

	opts := pick.DefaultOptions()
	opts.Backend = pick.BackendName(*backend)
	opts.LineWidthPx = float32(*lineWidth)
	opts.SkipRayRefine = *noRefine
	opts.Debug = *debug
	picker := pick.NewPicker(cam, opts, log)
	defer picker.Close()

	v := newViewer(window)
	if err := v.init(); err != nil {
		panic(err)
	}
	defer v.release()

	if opts.Backend == pick.BackendWGPU {
		if err := picker.UseWGPU(v.device); err != nil {
			panic(err)
		}
	}

	for _, s := range demoScene() {
		if err := picker.Register(s); err != nil {
			log.Warnf("skipping %q: %v", s.Name(), err)
		}
	}
	picker.AddPlane(core.NewPlane("ground", mgl32.Vec3{0, -1.5, 0}, mgl32.Vec3{0, 1, 0}, 6))

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if width == 0 || height == 0 {
			return
		}
		picker.Resize(width, height)
		v.resize(width, height)
	})

	var press mgl32.Vec2
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		x, y := w.GetCursorPos()
		// Cursor positions are in window coordinates; the pick buffer is in
		// framebuffer pixels.
		winW, _ := w.GetSize()
		fbW, _ := w.GetFramebufferSize()
		scale := float32(fbW) / float32(max(winW, 1))
		at := mgl32.Vec2{float32(x) * scale, float32(y) * scale}

		switch action {
		case glfw.Press:
			press = at
		case glfw.Release:
			if _, ok := picker.Click(press, at); !ok {
				log.Infof("nothing at (%.0f, %.0f)", at.X(), at.Y())
			}
			if *dump != "" {
				writeDump(picker, *dump, log)
			}
		}
	})

	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		fwd := cam.Forward().Mul(float32(yoff) * 0.5)
		cam.Position = cam.Position.Add(fwd)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
		if key == glfw.KeyP && action == glfw.Press {
			log.Infof("selection: %v\n%s", picker.Selection().IDs(), picker.Profiler().GetStatsString())
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		v.render()
	}
}

func writeDump(p *pick.Picker, path string, log pick.Logger) {
	f, err := os.Create(path)
	if err != nil {
		log.Warnf("dump: %v", err)
		return
	}
	defer f.Close()
	if err := p.WriteDebugImage(f); err != nil {
		log.Warnf("dump: %v", err)
	}
}

// demoScene has one structure of each kind.
func demoScene() []core.Structure {
	mesh := core.NewSurfaceMesh("floor tiles", []mgl32.Vec3{
		{-3, -1, -3}, {0, -1, -3}, {0, -1, 0}, {-3, -1, 0},
		{3, -1, -3}, {3, -1, 0}, {0, -1, 3}, {-3, -1, 3},
	}, [][]uint32{{0, 3, 2, 1}, {1, 2, 5, 4}, {3, 7, 6, 2}})

	var pts []mgl32.Vec3
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			pts = append(pts, mgl32.Vec3{float32(i)*0.5 - 1, 1.5, float32(j)*0.5 - 1})
		}
	}
	cloud := core.NewPointCloud("cloud", pts, 0.12)

	helix := make([]mgl32.Vec3, 0, 24)
	edges := make([][2]uint32, 0, 23)
	for i := 0; i < 24; i++ {
		a := float64(i) * 0.5
		helix = append(helix, mgl32.Vec3{2 + 0.6*float32(math.Cos(a)), float32(i)*0.1 - 1, 0.6 * float32(math.Sin(a))})
		if i > 0 {
			edges = append(edges, [2]uint32{uint32(i - 1), uint32(i)})
		}
	}
	tube := core.NewCurveNetwork("helix", helix, edges, 0.08, core.CurveTube)

	wire := core.NewCurveNetwork("wire", []mgl32.Vec3{{-3, 2, -2}, {3, 2, -2}, {3, 2, 2}}, [][2]uint32{{0, 1}, {1, 2}}, 0.02, core.CurveThin)

	tets := core.NewVolumeMesh("tets", []mgl32.Vec3{
		{-2.5, -1, 1}, {-1.5, -1, 1}, {-2, -1, 2}, {-2, 0, 1.5}, {-2, -2, 1.5},
	}, [][]uint32{{0, 1, 2, 3}, {0, 2, 1, 4}})
	tets.Transform().SetPosition(mgl32.Vec3{0, 0.5, 0})

	return []core.Structure{mesh, cloud, tube, wire, tets}
}

// viewer owns the window surface. The visible frame is only cleared; the
// window exists to deliver clicks and to host the device the GPU pick
// backend shares.
type viewer struct {
	window   *glfw.Window
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	surface  *wgpu.Surface
	config   *wgpu.SurfaceConfiguration
}

func newViewer(window *glfw.Window) *viewer {
	return &viewer{window: window}
}

func (v *viewer) init() error {
	v.instance = wgpu.CreateInstance(nil)
	v.surface = v.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(v.window))

	adapter, err := v.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: v.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return err
	}
	v.adapter = adapter

	v.device, err = adapter.RequestDevice(nil)
	if err != nil {
		return err
	}

	width, height := v.window.GetFramebufferSize()
	caps := v.surface.GetCapabilities(adapter)
	v.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	v.surface.Configure(adapter, v.device, v.config)
	return nil
}

func (v *viewer) resize(width, height int) {
	v.config.Width = uint32(width)
	v.config.Height = uint32(height)
	v.surface.Configure(v.adapter, v.device, v.config)
}

func (v *viewer) render() {
	next, err := v.surface.GetCurrentTexture()
	if err != nil {
		return
	}
	defer next.Release()
	view, err := next.CreateView(nil)
	if err != nil {
		return
	}
	defer view.Release()

	encoder, err := v.device.CreateCommandEncoder(nil)
	if err != nil {
		return
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{0.08, 0.08, 0.1, 1},
		}},
	})
	if err := pass.End(); err != nil {
		return
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return
	}
	v.device.GetQueue().Submit(cmd)
	v.surface.Present()
}

func (v *viewer) release() {
	if v.device != nil {
		v.device.Release()
	}
	if v.surface != nil {
		v.surface.Release()
	}
	if v.instance != nil {
		v.instance.Release()
	}
}
