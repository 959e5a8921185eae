package texture

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
)

// Allocator names.
const (
	AllocatorWGPU     = "wgpu"
	AllocatorSoftware = "software"
)

// Backing is the memory behind one texture.
type Backing interface {
	// Write copies a region of densely packed texel data into the backing.
	// The region has been validated against the texture size and block
	// alignment by the caller.
	Write(x, y, w, h int, data []byte) error

	// Release frees the backing memory. It is called once.
	Release()
}

// Allocator creates texture backings.
type Allocator interface {
	// Name identifies the allocator in logs and statistics.
	Name() string

	// Allocate creates the backing for a validated descriptor.
	Allocate(desc Descriptor) (Backing, error)
}

// allocators selects the allocator for managers created without one.
var allocators = gpucontext.NewRegistry[Allocator](
	gpucontext.WithPriority(AllocatorWGPU, AllocatorSoftware),
)

func init() {
	RegisterAllocator(AllocatorSoftware, func() Allocator { return SoftwareAllocator{} })
}

// RegisterAllocator makes an allocator available under name. Registering
// a name twice replaces the previous factory.
func RegisterAllocator(name string, factory func() Allocator) {
	allocators.Register(name, factory)
}

// UnregisterAllocator removes a registered allocator.
func UnregisterAllocator(name string) {
	allocators.Unregister(name)
}

// DefaultAllocator returns the highest-priority registered allocator:
// wgpu when registered, otherwise software.
func DefaultAllocator() Allocator {
	if a := allocators.Best(); a != nil {
		return a
	}
	return SoftwareAllocator{}
}

// Allocators returns the names of all registered allocators.
func Allocators() []string {
	return allocators.Available()
}

// SoftwareAllocator keeps texel data in CPU memory. It is used in tests,
// headless tools and as the fallback when no GPU is available.
type SoftwareAllocator struct{}

// Name returns "software".
func (SoftwareAllocator) Name() string { return AllocatorSoftware }

// Allocate creates a zeroed CPU backing.
func (SoftwareAllocator) Allocate(desc Descriptor) (Backing, error) {
	layout, ok := layoutFor(desc.Format)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	if !validDimensions(desc.Width, desc.Height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, desc.Width, desc.Height)
	}
	return &SoftwareBacking{
		layout: layout,
		width:  desc.Width,
		data:   make([]byte, layout.dataSize(desc.Width, desc.Height)),
	}, nil
}

// SoftwareBacking is a CPU copy of texel data.
type SoftwareBacking struct {
	mu     sync.RWMutex
	layout texelLayout
	width  int
	data   []byte
}

// Write copies data into the region row of blocks by row of blocks.
func (b *SoftwareBacking) Write(x, y, w, h int, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return ErrTextureReleased
	}

	l := b.layout
	dstStride := l.rowBytes(b.width)
	srcStride := l.rowBytes(w)
	dstX := x / l.blockW * l.blockBytes
	firstRow := y / l.blockH
	for row := range l.rows(h) {
		dst := (firstRow+row)*dstStride + dstX
		src := row * srcStride
		copy(b.data[dst:dst+srcStride], data[src:src+srcStride])
	}
	return nil
}

// Bytes returns a copy of the texel data.
func (b *SoftwareBacking) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.data == nil {
		return nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Release drops the texel data.
func (b *SoftwareBacking) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
}
