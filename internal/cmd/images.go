package cmd

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// decodeFile decodes an image file into a tightly packed RGBA image no
// larger than maxSize on either side (0 = no limit).
func decodeFile(path string, maxSize int) (*image.RGBA, string, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return toRGBA(img, maxSize), format, nil
}

// toRGBA converts img to premultiplied RGBA with origin (0,0) and no row
// padding, scaling it down to fit maxSize.
func toRGBA(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := fitSize(b.Dx(), b.Dy(), maxSize)

	if rgba, ok := img.(*image.RGBA); ok && w == b.Dx() && h == b.Dy() &&
		b.Min == (image.Point{}) && rgba.Stride == 4*w {
		return rgba
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	}
	return dst
}

// fitSize scales (w, h) down to fit in a maxSize square, keeping the
// aspect ratio.
func fitSize(w, h, maxSize int) (int, int) {
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return w, h
	}
	if w >= h {
		return maxSize, max(1, h*maxSize/w)
	}
	return max(1, w*maxSize/h), maxSize
}
