package bitmap

import (
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
)

// Format is the pixel layout of a bitmap.
type Format uint8

const (
	// FormatDefault is the platform default layout. It resolves to
	// FormatRGBA8.
	FormatDefault Format = iota

	// FormatRGBA8 is 32-bit RGBA with premultiplied alpha (4 bytes per pixel).
	FormatRGBA8

	// FormatAlpha8 is an 8-bit alpha-only mask (1 byte per pixel).
	FormatAlpha8

	// FormatETC1 is ETC1 block compression: 4×4 texel blocks of 8 bytes,
	// no alpha channel.
	FormatETC1

	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// BlockWidth and BlockHeight are the texel dimensions of one storage
	// block. Uncompressed formats use 1×1 blocks.
	BlockWidth  int
	BlockHeight int

	// BlockBytes is the size of one block in bytes.
	BlockBytes int

	// HasAlpha indicates if the format carries an alpha channel.
	HasAlpha bool

	// Compressed indicates a block-compressed format.
	Compressed bool

	// TextureFormat is the matching GPU texture format.
	TextureFormat gputypes.TextureFormat
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatDefault: {
		BlockWidth:    1,
		BlockHeight:   1,
		BlockBytes:    4,
		HasAlpha:      true,
		TextureFormat: gputypes.TextureFormatRGBA8Unorm,
	},
	FormatRGBA8: {
		BlockWidth:    1,
		BlockHeight:   1,
		BlockBytes:    4,
		HasAlpha:      true,
		TextureFormat: gputypes.TextureFormatRGBA8Unorm,
	},
	FormatAlpha8: {
		BlockWidth:    1,
		BlockHeight:   1,
		BlockBytes:    1,
		HasAlpha:      true,
		TextureFormat: gputypes.TextureFormatR8Unorm,
	},
	// ETC1 is the RGB8 subset of ETC2.
	FormatETC1: {
		BlockWidth:    4,
		BlockHeight:   4,
		BlockBytes:    8,
		Compressed:    true,
		TextureFormat: gputypes.TextureFormatETC2RGB8Unorm,
	},
}

// Info returns the FormatInfo for this format.
// Unknown formats return the zero FormatInfo.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// IsValid returns true if the format is a known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// Resolve maps FormatDefault to the concrete format it stands for.
func (f Format) Resolve() Format {
	if f == FormatDefault {
		return FormatRGBA8
	}
	return f
}

// IsCompressed returns true for block-compressed formats.
func (f Format) IsCompressed() bool {
	return f.Info().Compressed
}

// HasAlpha returns true if the format carries an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// BytesPerPixel returns the pixel size of an uncompressed format,
// or 0 for compressed formats.
func (f Format) BytesPerPixel() int {
	info := f.Info()
	if info.Compressed {
		return 0
	}
	return info.BlockBytes
}

// TextureFormat returns the GPU texture format used to upload this format.
// Unknown formats map to gputypes.TextureFormatUndefined.
func (f Format) TextureFormat() gputypes.TextureFormat {
	return f.Info().TextureFormat
}

// RowBytes returns the number of bytes in one row of blocks for the given
// width. For uncompressed formats this is one pixel row.
func (f Format) RowBytes(width int) int {
	info := f.Info()
	if info.BlockWidth == 0 {
		return 0
	}
	return ceilDiv(width, info.BlockWidth) * info.BlockBytes
}

// DataSize returns the number of bytes needed for a width×height image,
// or 0 if the format is invalid or the size does not fit in an int.
func (f Format) DataSize(width, height int) int {
	n, _ := f.dataSize(width, height)
	return n
}

// dataSize is DataSize with overflow reported as ok == false.
func (f Format) dataSize(width, height int) (n int, ok bool) {
	info := f.Info()
	if info.BlockHeight == 0 || width <= 0 || height <= 0 {
		return 0, info.BlockHeight != 0
	}
	cols := (width-1)/info.BlockWidth + 1
	rows := (height-1)/info.BlockHeight + 1
	if cols > math.MaxInt/info.BlockBytes {
		return 0, false
	}
	row := cols * info.BlockBytes
	if row > math.MaxInt/rows {
		return 0, false
	}
	return row * rows, true
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatDefault:
		return "Default"
	case FormatRGBA8:
		return "RGBA8"
	case FormatAlpha8:
		return "Alpha8"
	case FormatETC1:
		return "ETC1"
	default:
		return "Unknown"
	}
}

// FormatForColorModel maps a decoded image color model to a bitmap format.
// Only premultiplied RGBA and alpha-only models are supported; this layer
// does not convert between layouts.
func FormatForColorModel(m color.Model) (Format, bool) {
	switch m {
	case color.RGBAModel:
		return FormatRGBA8, true
	case color.AlphaModel:
		return FormatAlpha8, true
	default:
		return FormatDefault, false
	}
}

// FormatForTexture maps a GPU texture format back to a bitmap format.
// sRGB variants share the bitmap format of their linear counterpart.
func FormatForTexture(tf gputypes.TextureFormat) (Format, bool) {
	switch tf {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		return FormatRGBA8, true
	case gputypes.TextureFormatR8Unorm:
		return FormatAlpha8, true
	case gputypes.TextureFormatETC2RGB8Unorm, gputypes.TextureFormatETC2RGB8UnormSrgb:
		return FormatETC1, true
	default:
		return FormatDefault, false
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
