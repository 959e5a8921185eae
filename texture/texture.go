package texture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Texture-related errors.
var (
	// ErrTextureReleased is returned when operating on a destroyed texture.
	ErrTextureReleased = errors.New("texture: texture has been released")

	// ErrInvalidDimensions is returned when width or height is
	// non-positive or larger than MaxDimension.
	ErrInvalidDimensions = errors.New("texture: invalid dimensions")

	// ErrUnsupportedFormat is returned for texture formats without a known
	// texel layout.
	ErrUnsupportedFormat = errors.New("texture: unsupported format")

	// ErrRegionOutOfBounds is returned when an update region exceeds the
	// texture or is not block aligned.
	ErrRegionOutOfBounds = errors.New("texture: region out of bounds")

	// ErrDataSize is returned when update data does not match the region.
	ErrDataSize = errors.New("texture: data size does not match region")
)

// MaxDimension is the largest width or height of a texture.
const MaxDimension = 1 << 16

func validDimensions(w, h int) bool {
	return w > 0 && h > 0 && w <= MaxDimension && h <= MaxDimension
}

// ID is a generation-counted texture handle. The low 32 bits are the slot
// index, the high 32 bits the slot generation. The zero ID is invalid.
type ID uint64

// InvalidID is the zero ID.
const InvalidID ID = 0

func makeID(index, gen uint32) ID {
	return ID(uint64(gen)<<32 | uint64(index))
}

// Index returns the arena slot index.
func (id ID) Index() uint32 { return uint32(id) }

// Generation returns the slot generation.
func (id ID) Generation() uint32 { return uint32(id >> 32) }

// IsValid reports whether id could name a texture.
func (id ID) IsValid() bool { return id.Generation() != 0 }

// String returns "tex(index:generation)".
func (id ID) String() string {
	return fmt.Sprintf("tex(%d:%d)", id.Index(), id.Generation())
}

// Descriptor describes a texture to create.
type Descriptor struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the size in texels.
	Width  int
	Height int

	// Format is the texel format.
	Format gputypes.TextureFormat

	// Dimension is how the texture is viewed when bound.
	// Defaults to gputypes.TextureViewDimension2D.
	Dimension gputypes.TextureViewDimension

	// Target is the client's binding target. The manager stores it but
	// never interprets it.
	Target uint32

	// Usage flags. Defaults to DefaultUsage.
	Usage gputypes.TextureUsage
}

// DefaultUsage is the usage for textures created without explicit flags.
const DefaultUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding

// Texture is a texture owned by a Manager.
//
// Texture implements gpucontext.Texture, gpucontext.TextureUpdater and
// gpucontext.TextureRegionUpdater. Updates are serialized per texture.
type Texture struct {
	id        ID
	desc      Descriptor
	layout    texelLayout
	sizeBytes uint64
	manager   *Manager

	mu      sync.Mutex // serializes backing writes
	backing Backing

	refs     int32 // guarded by manager.mu
	released atomic.Bool
}

var (
	_ gpucontext.Texture              = (*Texture)(nil)
	_ gpucontext.TextureUpdater       = (*Texture)(nil)
	_ gpucontext.TextureRegionUpdater = (*Texture)(nil)
)

// ID returns the texture handle.
func (t *Texture) ID() ID { return t.id }

// Width returns the texture width in texels.
func (t *Texture) Width() int { return t.desc.Width }

// Height returns the texture height in texels.
func (t *Texture) Height() int { return t.desc.Height }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// Dimension returns the view dimension.
func (t *Texture) Dimension() gputypes.TextureViewDimension { return t.desc.Dimension }

// Target returns the client binding target the texture was created for.
func (t *Texture) Target() uint32 { return t.desc.Target }

// Label returns the debug label.
func (t *Texture) Label() string { return t.desc.Label }

// SizeBytes returns the texture size in bytes.
func (t *Texture) SizeBytes() uint64 { return t.sizeBytes }

// Manager returns the owning manager.
func (t *Texture) Manager() *Manager { return t.manager }

// IsReleased reports whether the texture has been destroyed.
func (t *Texture) IsReleased() bool { return t.released.Load() }

// Backing returns the allocator backing, or nil once destroyed.
func (t *Texture) Backing() Backing {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.backing
}

// Retain adds a reference on behalf of a new holder.
func (t *Texture) Retain() error {
	return t.manager.retain(t)
}

// Release drops a reference. The texture is destroyed when the last
// reference goes.
func (t *Texture) Release() {
	t.manager.release(t)
}

// UpdateData replaces the full texture contents.
// data must be exactly the texture's data size.
func (t *Texture) UpdateData(data []byte) error {
	return t.UpdateRegion(0, 0, t.desc.Width, t.desc.Height, data)
}

// UpdateRegion uploads a sub-rectangle of texel data with densely packed
// rows. For block-compressed formats the region must be block aligned,
// except where it reaches the texture edge.
func (t *Texture) UpdateRegion(x, y, w, h int, data []byte) error {
	if t.released.Load() {
		return ErrTextureReleased
	}
	if !t.layout.regionValid(x, y, w, h, t.desc.Width, t.desc.Height) {
		return fmt.Errorf("%w: (%d,%d %dx%d) in %dx%d",
			ErrRegionOutOfBounds, x, y, w, h, t.desc.Width, t.desc.Height)
	}
	if want := t.layout.dataSize(w, h); len(data) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrDataSize, len(data), want)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.backing == nil {
		return ErrTextureReleased
	}
	return t.backing.Write(x, y, w, h, data)
}

// destroyBacking frees the backing memory.
func (t *Texture) destroyBacking() {
	t.mu.Lock()
	b := t.backing
	t.backing = nil
	t.mu.Unlock()

	if b != nil {
		b.Release()
	}
}

// PackedLayout returns the row pitch and number of block rows of a densely
// packed w×h region in format f. ok is false for unsupported formats.
func PackedLayout(f gputypes.TextureFormat, w, h int) (bytesPerRow, rows int, ok bool) {
	l, ok := layoutFor(f)
	if !ok {
		return 0, 0, false
	}
	return l.rowBytes(w), l.rows(h), true
}

// texelLayout describes how texels are stored: blockW×blockH texels per
// blockBytes bytes.
type texelLayout struct {
	blockW, blockH int
	blockBytes     int
}

func layoutFor(f gputypes.TextureFormat) (texelLayout, bool) {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return texelLayout{1, 1, 1}, true
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return texelLayout{1, 1, 4}, true
	case gputypes.TextureFormatETC2RGB8Unorm, gputypes.TextureFormatETC2RGB8UnormSrgb,
		gputypes.TextureFormatETC2RGB8A1Unorm, gputypes.TextureFormatETC2RGB8A1UnormSrgb:
		return texelLayout{4, 4, 8}, true
	case gputypes.TextureFormatETC2RGBA8Unorm, gputypes.TextureFormatETC2RGBA8UnormSrgb:
		return texelLayout{4, 4, 16}, true
	default:
		return texelLayout{}, false
	}
}

// rowBytes returns the size of one row of blocks for width texels.
func (l texelLayout) rowBytes(width int) int {
	return (width + l.blockW - 1) / l.blockW * l.blockBytes
}

func (l texelLayout) rows(height int) int {
	return (height + l.blockH - 1) / l.blockH
}

func (l texelLayout) dataSize(w, h int) int {
	return l.rowBytes(w) * l.rows(h)
}

func (l texelLayout) regionValid(x, y, w, h, texW, texH int) bool {
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > texW || y+h > texH {
		return false
	}
	if x%l.blockW != 0 || y%l.blockH != 0 {
		return false
	}
	if w%l.blockW != 0 && x+w != texW {
		return false
	}
	if h%l.blockH != 0 && y+h != texH {
		return false
	}
	return true
}
