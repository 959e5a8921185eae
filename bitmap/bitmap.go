package bitmap

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
)

// Size is a bitmap size in pixels.
type Size struct {
	Width  int
	Height int
}

// IsEmpty reports whether either dimension is non-positive.
func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// String returns "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// WrapMode is the texture addressing applied when the bitmap is sampled
// outside [0, 1].
type WrapMode uint8

const (
	// WrapClampToEdge clamps coordinates to the edge texel. Default.
	WrapClampToEdge WrapMode = iota

	// WrapRepeat tiles the bitmap.
	WrapRepeat
)

// AddressMode returns the GPU sampler address mode for w.
func (w WrapMode) AddressMode() gputypes.AddressMode {
	if w == WrapRepeat {
		return gputypes.AddressModeRepeat
	}
	return gputypes.AddressModeClampToEdge
}

// String returns a string representation of the wrap mode.
func (w WrapMode) String() string {
	switch w {
	case WrapClampToEdge:
		return "ClampToEdge"
	case WrapRepeat:
		return "Repeat"
	default:
		return "Unknown"
	}
}

// Bitmap describes an immutable decoded image. It is a small value; copies
// share the same Storage reference. Each successful constructor call takes
// one storage reference, which Release drops.
//
// The zero Bitmap is invalid.
type Bitmap struct {
	storage *Storage
	size    Size
	format  Format
	wrap    WrapMode
	opaque  bool
}

// Create describes storage as a size.Width×size.Height image in format.
// The wrap mode defaults to WrapClampToEdge and the bitmap is opaque only
// for FormatETC1; use CreateWithOpacity or SetOpaque to override.
//
// Preconditions: storage is non-nil and immutable, both dimensions are
// positive, format is valid and storage holds at least format.DataSize
// bytes.
func Create(storage *Storage, size Size, format Format) (Bitmap, error) {
	return create("Create", storage, size, format, format == FormatETC1)
}

// CreateWithOpacity is Create with an explicit opacity flag.
func CreateWithOpacity(storage *Storage, size Size, format Format, opaque bool) (Bitmap, error) {
	return create("CreateWithOpacity", storage, size, format, opaque)
}

// MustCreate is like Create but panics if a precondition is violated.
func MustCreate(storage *Storage, size Size, format Format) Bitmap {
	b, err := Create(storage, size, format)
	if err != nil {
		panic(err)
	}
	return b
}

// FromCompressed describes ETC1-compressed storage. It skips color type
// translation entirely.
func FromCompressed(storage *Storage, size Size) (Bitmap, error) {
	return create("FromCompressed", storage, size, FormatETC1, true)
}

// MustFromCompressed is like FromCompressed but panics if a precondition
// is violated.
func MustFromCompressed(storage *Storage, size Size) Bitmap {
	b, err := FromCompressed(storage, size)
	if err != nil {
		panic(err)
	}
	return b
}

// FromImage describes a decoded image without copying its pixels.
//
// img must be an *image.RGBA (premultiplied RGBA, becomes FormatRGBA8) or an
// *image.Alpha (becomes FormatAlpha8), with rows packed back to back
// (Stride equal to the row size). Any other color type is a precondition
// violation: this layer does not convert formats. The image's Opaque
// result becomes the bitmap opacity.
//
// The pixel slice is frozen: the caller must not modify img afterwards.
func FromImage(img image.Image) (Bitmap, error) {
	const op = "FromImage"

	var (
		pix    []byte
		stride int
		opaque bool
	)
	switch m := img.(type) {
	case *image.RGBA:
		if m == nil {
			return Bitmap{}, precondition(op, "nil image")
		}
		pix, stride, opaque = m.Pix, m.Stride, m.Opaque()
	case *image.Alpha:
		if m == nil {
			return Bitmap{}, precondition(op, "nil image")
		}
		pix, stride, opaque = m.Pix, m.Stride, m.Opaque()
	case nil:
		return Bitmap{}, precondition(op, "nil image")
	default:
		return Bitmap{}, precondition(op, fmt.Sprintf("unsupported image type %T", img))
	}

	format, ok := FormatForColorModel(img.ColorModel())
	if !ok {
		return Bitmap{}, precondition(op, "unsupported color model")
	}

	bounds := img.Bounds()
	size := Size{Width: bounds.Dx(), Height: bounds.Dy()}
	if size.IsEmpty() {
		return Bitmap{}, precondition(op, "empty image "+size.String())
	}
	if stride != format.RowBytes(size.Width) {
		return Bitmap{}, precondition(op, fmt.Sprintf("rows are not contiguous: stride %d, row %d",
			stride, format.RowBytes(size.Width)))
	}

	need := format.DataSize(size.Width, size.Height)
	if len(pix) < need {
		return Bitmap{}, precondition(op, "pixel buffer too small")
	}

	st := NewStorage(pix[:need:need])
	st.SetImmutable()
	defer st.Unref()

	return create(op, st, size, format, opaque)
}

// MustFromImage is like FromImage but panics if a precondition is violated.
func MustFromImage(img image.Image) Bitmap {
	b, err := FromImage(img)
	if err != nil {
		panic(err)
	}
	return b
}

func create(op string, storage *Storage, size Size, format Format, opaque bool) (Bitmap, error) {
	switch {
	case storage == nil:
		return Bitmap{}, precondition(op, "nil storage")
	case !storage.IsImmutable():
		return Bitmap{}, precondition(op, "storage is not immutable")
	case size.IsEmpty():
		return Bitmap{}, precondition(op, "non-positive size "+size.String())
	case !format.IsValid():
		return Bitmap{}, precondition(op, "invalid format "+format.String())
	}

	format = format.Resolve()
	need, ok := format.dataSize(size.Width, size.Height)
	if !ok {
		return Bitmap{}, precondition(op, fmt.Sprintf("%s %s overflows the addressable size", format, size))
	}
	if storage.Size() < need {
		return Bitmap{}, precondition(op, fmt.Sprintf("storage holds %d bytes, %s %s needs %d",
			storage.Size(), format, size, need))
	}

	storage.Ref()
	return Bitmap{
		storage: storage,
		size:    size,
		format:  format,
		wrap:    WrapClampToEdge,
		opaque:  opaque,
	}, nil
}

// IsValid reports whether b was produced by a successful constructor.
func (b Bitmap) IsValid() bool {
	return b.storage != nil
}

// Storage returns the shared pixel storage.
func (b Bitmap) Storage() *Storage {
	return b.storage
}

// Size returns the bitmap size in pixels.
func (b Bitmap) Size() Size {
	return b.size
}

// Width returns the bitmap width in pixels.
func (b Bitmap) Width() int {
	return b.size.Width
}

// Height returns the bitmap height in pixels.
func (b Bitmap) Height() int {
	return b.size.Height
}

// Format returns the pixel format.
func (b Bitmap) Format() Format {
	return b.format
}

// WrapMode returns the sampling wrap mode.
func (b Bitmap) WrapMode() WrapMode {
	return b.wrap
}

// SetWrapMode sets the sampling wrap mode.
func (b *Bitmap) SetWrapMode(w WrapMode) {
	b.wrap = w
}

// Opaque reports whether every pixel is fully opaque.
func (b Bitmap) Opaque() bool {
	return b.opaque
}

// SetOpaque overrides the opacity flag.
func (b *Bitmap) SetOpaque(opaque bool) {
	b.opaque = opaque
}

// DataSize returns the number of pixel bytes the bitmap describes.
func (b Bitmap) DataSize() int {
	return b.format.DataSize(b.size.Width, b.size.Height)
}

// Release drops the storage reference taken by the constructor and
// invalidates b. Copies of b made earlier still point at the storage but
// must not be released again.
func (b *Bitmap) Release() {
	if b.storage == nil {
		return
	}
	b.storage.Unref()
	b.storage = nil
}

// String returns a short description such as "RGBA8 64x64".
func (b Bitmap) String() string {
	if !b.IsValid() {
		return "Bitmap(invalid)"
	}
	return b.format.String() + " " + b.size.String()
}
