package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/pick/pickrt/core"
	"github.com/gekko3d/pick/pickrt/shaders"
)

// cubeVertices is the length of CUBE in pick_common.wgsl; impostors draw one
// bounding box per instance.
const cubeVertices = 36

// PickRenderer draws the pick pass on the device. It has one pipeline per
// primitive, all sharing the camera bind group, depth test Less with writes,
// and a single id color target with blending off.
type PickRenderer struct {
	Device      *wgpu.Device
	IDs         IDSource
	LineWidthPx float32

	CameraBuf       *wgpu.Buffer
	CameraBindGroup *wgpu.BindGroup

	MeshPipeline  *wgpu.RenderPipeline
	LinePipeline  *wgpu.RenderPipeline
	PointPipeline *wgpu.RenderPipeline
	TubePipeline  *wgpu.RenderPipeline

	MeshBuf  *wgpu.Buffer
	LineBuf  *wgpu.Buffer
	PointBuf *wgpu.Buffer
	TubeBuf  *wgpu.Buffer
}

func NewPickRenderer(device *wgpu.Device, ids IDSource) (*PickRenderer, error) {
	r := &PickRenderer{Device: device, IDs: ids, LineWidthPx: 3}

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "PickCameraBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: CameraUniformSize,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "PickPipelineLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}

	r.CameraBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "PickCameraUB",
		Size:  256,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	r.CameraBindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "PickCameraBG",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.CameraBuf, Size: CameraUniformSize},
		},
	})
	if err != nil {
		return nil, err
	}

	f32x3 := func(offset uint64, loc uint32) wgpu.VertexAttribute {
		return wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x3, Offset: offset, ShaderLocation: loc}
	}
	f32 := func(offset uint64, loc uint32) wgpu.VertexAttribute {
		return wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32, Offset: offset, ShaderLocation: loc}
	}
	u32 := func(offset uint64, loc uint32) wgpu.VertexAttribute {
		return wgpu.VertexAttribute{Format: wgpu.VertexFormatUint32, Offset: offset, ShaderLocation: loc}
	}

	if r.MeshPipeline, err = newPickPipeline(device, layout, "PickMesh", shaders.PickMeshWGSL, wgpu.VertexBufferLayout{
		ArrayStride: uint64(unsafe.Sizeof(MeshVertex{})),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  []wgpu.VertexAttribute{f32x3(0, 0), u32(12, 1)},
	}); err != nil {
		return nil, err
	}
	if r.LinePipeline, err = newPickPipeline(device, layout, "PickLine", shaders.PickLineWGSL, wgpu.VertexBufferLayout{
		ArrayStride: uint64(unsafe.Sizeof(LineInstance{})),
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes:  []wgpu.VertexAttribute{f32x3(0, 0), f32x3(12, 1), u32(24, 2)},
	}); err != nil {
		return nil, err
	}
	if r.PointPipeline, err = newPickPipeline(device, layout, "PickPoint", shaders.PickPointWGSL, wgpu.VertexBufferLayout{
		ArrayStride: uint64(unsafe.Sizeof(PointInstance{})),
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes:  []wgpu.VertexAttribute{f32x3(0, 0), f32(12, 1), u32(16, 2)},
	}); err != nil {
		return nil, err
	}
	if r.TubePipeline, err = newPickPipeline(device, layout, "PickTube", shaders.PickTubeWGSL, wgpu.VertexBufferLayout{
		ArrayStride: uint64(unsafe.Sizeof(TubeInstance{})),
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes:  []wgpu.VertexAttribute{f32x3(0, 0), f32x3(12, 1), f32(24, 2), u32(28, 3)},
	}); err != nil {
		return nil, err
	}
	return r, nil
}

func newPickPipeline(device *wgpu.Device, layout *wgpu.PipelineLayout, label, stage string, buffer wgpu.VertexBufferLayout) (*wgpu.RenderPipeline, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + "Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.Pick(stage)},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	always := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
	return device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + "Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{buffer},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    ColorFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      always,
			StencilBack:       always,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
}

// Render clears target to the camera's size and draws the committed visible
// set into it. It returns the number of structures drawn.
func (r *PickRenderer) Render(scene *core.Scene, cam *core.Camera, target *Target) (int, error) {
	if err := target.Resize(cam.Width, cam.Height); err != nil {
		return 0, err
	}
	b := BuildBatches(scene, r.IDs)

	queue := r.Device.GetQueue()
	queue.WriteBuffer(r.CameraBuf, 0, PackCamera(cam, r.LineWidthPx))
	if err := r.upload(&r.MeshBuf, "PickMeshVB", asBytes(b.Mesh)); err != nil {
		return 0, err
	}
	if err := r.upload(&r.LineBuf, "PickLineIB", asBytes(b.Lines)); err != nil {
		return 0, err
	}
	if err := r.upload(&r.PointBuf, "PickPointIB", asBytes(b.Points)); err != nil {
		return 0, err
	}
	if err := r.upload(&r.TubeBuf, "PickTubeIB", asBytes(b.Tubes)); err != nil {
		return 0, err
	}

	encoder, err := r.Device.CreateCommandEncoder(nil)
	if err != nil {
		return 0, err
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "PickPass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target.ColorView,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{0, 0, 0, 0},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            target.DepthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	pass.SetBindGroup(0, r.CameraBindGroup, nil)

	if n := uint32(len(b.Mesh)); n > 0 {
		pass.SetPipeline(r.MeshPipeline)
		pass.SetVertexBuffer(0, r.MeshBuf, 0, uint64(len(asBytes(b.Mesh))))
		pass.Draw(n, 1, 0, 0)
	}
	if n := uint32(len(b.Lines)); n > 0 {
		pass.SetPipeline(r.LinePipeline)
		pass.SetVertexBuffer(0, r.LineBuf, 0, uint64(len(asBytes(b.Lines))))
		pass.Draw(6, n, 0, 0)
	}
	if n := uint32(len(b.Points)); n > 0 {
		pass.SetPipeline(r.PointPipeline)
		pass.SetVertexBuffer(0, r.PointBuf, 0, uint64(len(asBytes(b.Points))))
		pass.Draw(cubeVertices, n, 0, 0)
	}
	if n := uint32(len(b.Tubes)); n > 0 {
		pass.SetPipeline(r.TubePipeline)
		pass.SetVertexBuffer(0, r.TubeBuf, 0, uint64(len(asBytes(b.Tubes))))
		pass.Draw(cubeVertices, n, 0, 0)
	}
	if err := pass.End(); err != nil {
		return 0, err
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return 0, err
	}
	queue.Submit(cmd)
	return b.Drawn, nil
}

// upload grows buf when data no longer fits, then writes data at offset 0.
func (r *PickRenderer) upload(buf **wgpu.Buffer, label string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	needed := uint64(len(data))
	if *buf == nil || (*buf).GetSize() < needed {
		if *buf != nil {
			(*buf).Release()
		}
		nb, err := r.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  (needed*3/2 + 3) &^ 3,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		*buf = nb
	}
	r.Device.GetQueue().WriteBuffer(*buf, 0, data)
	return nil
}

func (r *PickRenderer) Release() {
	for _, b := range []*wgpu.Buffer{r.MeshBuf, r.LineBuf, r.PointBuf, r.TubeBuf, r.CameraBuf} {
		if b != nil {
			b.Release()
		}
	}
	for _, p := range []*wgpu.RenderPipeline{r.MeshPipeline, r.LinePipeline, r.PointPipeline, r.TubePipeline} {
		if p != nil {
			p.Release()
		}
	}
	if r.CameraBindGroup != nil {
		r.CameraBindGroup.Release()
	}
}
