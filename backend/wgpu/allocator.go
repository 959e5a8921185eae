package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/texture"
)

// Allocator creates GPU textures on one device.
type Allocator struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

var _ texture.Allocator = (*Allocator)(nil)

// NewAllocator returns an allocator for device.
func NewAllocator(device *wgpu.Device) *Allocator {
	return &Allocator{device: device, queue: device.Queue()}
}

// Register makes an allocator for device the default texture allocator.
func Register(device *wgpu.Device) {
	a := NewAllocator(device)
	texture.RegisterAllocator(texture.AllocatorWGPU, func() texture.Allocator { return a })
}

// Unregister removes the allocator installed by Register.
func Unregister() {
	texture.UnregisterAllocator(texture.AllocatorWGPU)
}

// Name returns "wgpu".
func (a *Allocator) Name() string { return texture.AllocatorWGPU }

// Allocate creates a GPU texture for desc.
func (a *Allocator) Allocate(desc texture.Descriptor) (texture.Backing, error) {
	tex, err := a.device.CreateTexture(textureDescriptor(desc))
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %q: %w", desc.Label, err)
	}
	mailbox.Logger().Debug("wgpu texture allocated",
		"label", desc.Label,
		"width", desc.Width,
		"height", desc.Height,
		"format", desc.Format)
	return &backing{tex: tex, queue: a.queue, format: desc.Format}, nil
}

// textureDescriptor translates a managed texture descriptor.
func textureDescriptor(desc texture.Descriptor) *wgpu.TextureDescriptor {
	layers := uint32(1)
	if desc.Dimension == gputypes.TextureViewDimensionCube {
		layers = 6
	}
	return &wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),  //nolint:gosec // validated positive by the manager
			Height:             uint32(desc.Height), //nolint:gosec // validated positive by the manager
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	}
}

// backing is one GPU texture.
type backing struct {
	tex    *wgpu.Texture
	queue  *wgpu.Queue
	format gputypes.TextureFormat
}

// Write uploads a densely packed region.
func (b *backing) Write(x, y, w, h int, data []byte) error {
	dst, layout, size, err := writeArgs(b.format, x, y, w, h)
	if err != nil {
		return err
	}
	dst.Texture = b.tex
	if err := b.queue.WriteTexture(dst, data, layout, size); err != nil {
		return fmt.Errorf("wgpu: write texture region (%d,%d %dx%d): %w", x, y, w, h, err)
	}
	return nil
}

// writeArgs builds the WriteTexture arguments for a packed region, minus
// the destination texture.
func writeArgs(format gputypes.TextureFormat, x, y, w, h int) (*wgpu.ImageCopyTexture, *wgpu.ImageDataLayout, *wgpu.Extent3D, error) {
	pitch, rows, ok := texture.PackedLayout(format, w, h)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %v", texture.ErrUnsupportedFormat, format)
	}
	dst := &wgpu.ImageCopyTexture{
		Origin: wgpu.Origin3D{X: uint32(x), Y: uint32(y)}, //nolint:gosec // region validated by the texture
		Aspect: gputypes.TextureAspectAll,
	}
	layout := &wgpu.ImageDataLayout{
		BytesPerRow:  uint32(pitch), //nolint:gosec // bounded by texture width
		RowsPerImage: uint32(rows),  //nolint:gosec // bounded by texture height
	}
	size := &wgpu.Extent3D{
		Width:              uint32(w), //nolint:gosec // region validated by the texture
		Height:             uint32(h), //nolint:gosec // region validated by the texture
		DepthOrArrayLayers: 1,
	}
	return dst, layout, size, nil
}

// Release destroys the GPU texture.
func (b *backing) Release() {
	b.tex.Release()
}
