package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	ColorFormat = wgpu.TextureFormatRGBA8Unorm
	DepthFormat = wgpu.TextureFormatDepth24Plus

	// Copies need 256-byte aligned rows, so a single texel still takes a
	// whole row of staging.
	stagingRowBytes = 256
)

// Target is the offscreen pick buffer: an id color attachment, a depth
// attachment, and a small mappable buffer for single-texel readback.
type Target struct {
	Device *wgpu.Device

	Width, Height int

	Color     *wgpu.Texture
	ColorView *wgpu.TextureView
	Depth     *wgpu.Texture
	DepthView *wgpu.TextureView
	Staging   *wgpu.Buffer
}

func NewTarget(device *wgpu.Device) *Target {
	return &Target{Device: device}
}

func (t *Target) Size() (int, int) { return t.Width, t.Height }

// Resize reallocates the attachments when the viewport changes size.
func (t *Target) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("gpu: invalid pick target size %dx%d", width, height)
	}
	if t.Color != nil && t.Width == width && t.Height == height {
		return nil
	}
	t.releaseTextures()

	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	var err error
	t.Color, err = t.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "PickColor",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        ColorFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return err
	}
	if t.ColorView, err = t.Color.CreateView(nil); err != nil {
		return err
	}

	t.Depth, err = t.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "PickDepth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	if t.DepthView, err = t.Depth.CreateView(nil); err != nil {
		return err
	}

	if t.Staging == nil {
		t.Staging, err = t.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "PickReadback",
			Size:  stagingRowBytes,
			Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
		})
		if err != nil {
			return err
		}
	}

	t.Width, t.Height = width, height
	return nil
}

// ReadPixel copies one texel into the staging buffer and blocks on the device
// until it is mapped. The buffer is unmapped before returning on every path
// that mapped it.
func (t *Target) ReadPixel(x, y int) ([4]byte, error) {
	var px [4]byte
	if t.Color == nil || t.Staging == nil {
		return px, ErrNoTarget
	}
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return px, fmt.Errorf("gpu: pixel (%d, %d) outside %dx%d target", x, y, t.Width, t.Height)
	}

	encoder, err := t.Device.CreateCommandEncoder(nil)
	if err != nil {
		return px, err
	}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  t.Color,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: uint32(x), Y: uint32(y), Z: 0},
		},
		&wgpu.ImageCopyBuffer{
			Buffer: t.Staging,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  stagingRowBytes,
				RowsPerImage: 1,
			},
		},
		&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return px, err
	}
	t.Device.GetQueue().Submit(cmd)

	var (
		status wgpu.BufferMapAsyncStatus
		done   bool
	)
	t.Staging.MapAsync(wgpu.MapModeRead, 0, stagingRowBytes, func(s wgpu.BufferMapAsyncStatus) {
		status, done = s, true
	})
	t.Device.Poll(true, nil)
	if !done {
		return px, fmt.Errorf("%w: callback did not fire", ErrMapFailed)
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return px, fmt.Errorf("%w: status %v", ErrMapFailed, status)
	}

	data := t.Staging.GetMappedRange(0, 4)
	copy(px[:], data)
	t.Staging.Unmap()
	return px, nil
}

func (t *Target) releaseTextures() {
	if t.ColorView != nil {
		t.ColorView.Release()
		t.ColorView = nil
	}
	if t.Color != nil {
		t.Color.Release()
		t.Color = nil
	}
	if t.DepthView != nil {
		t.DepthView.Release()
		t.DepthView = nil
	}
	if t.Depth != nil {
		t.Depth.Release()
		t.Depth = nil
	}
}

func (t *Target) Release() {
	t.releaseTextures()
	if t.Staging != nil {
		t.Staging.Release()
		t.Staging = nil
	}
	t.Width, t.Height = 0, 0
}
