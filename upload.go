package mailbox

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/mailbox/bitmap"
)

// formatted is implemented by textures that report their texel format.
type formatted interface {
	Format() gputypes.TextureFormat
}

// Upload copies bmp's pixels into dst. The pixels stay locked for the
// duration of the copy and are released on every path.
//
// dst must implement gpucontext.TextureUpdater and match the bitmap's
// size. When dst reports its format, the format must match too; no
// conversion is done.
func Upload(dst gpucontext.Texture, bmp bitmap.Bitmap) error {
	if dst == nil {
		return fail("Upload", ErrNilTexture)
	}
	up, ok := dst.(gpucontext.TextureUpdater)
	if !ok {
		return fail("Upload", fmt.Errorf("%w: %T", ErrNotUpdatable, dst))
	}
	if !bmp.IsValid() {
		return fail("Upload", fmt.Errorf("%w: invalid bitmap", bitmap.ErrPrecondition))
	}
	if dst.Width() != bmp.Width() || dst.Height() != bmp.Height() {
		return fail("Upload", fmt.Errorf("%w: bitmap %v, texture %dx%d",
			ErrSizeMismatch, bmp.Size(), dst.Width(), dst.Height()))
	}
	if f, ok := dst.(formatted); ok {
		if got, _ := bitmap.FormatForTexture(f.Format()); got != bmp.Format() {
			return fail("Upload", fmt.Errorf("%w: bitmap %v, texture %v",
				ErrFormatMismatch, bmp.Format(), f.Format()))
		}
	}

	n := bmp.DataSize()
	return bitmap.WithPixels(bmp, func(px []byte) error {
		if err := up.UpdateData(px[:n]); err != nil {
			return fmt.Errorf("mailbox: upload %v: %w", bmp, err)
		}
		return nil
	})
}

func fail(op string, err error) error {
	Logger().Error("mailbox: "+op+" failed", "err", err)
	return err
}
