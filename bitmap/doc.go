// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package bitmap is the resource bitmap store: a backend-agnostic
// description of decoded image pixels ready for upload to a GPU texture.
//
// A [Bitmap] is a small value that records the pixel [Format], dimensions,
// [WrapMode] and opacity of an image, and holds a shared reference to
// immutable, reference-counted [Storage]. Bitmaps never copy pixels.
//
// # Creating bitmaps
//
//	st := bitmap.NewStorage(pixels) // takes ownership of pixels
//	st.SetImmutable()               // write-once: freeze before sharing
//	bmp, err := bitmap.Create(st, bitmap.Size{Width: 64, Height: 64}, bitmap.FormatRGBA8)
//	st.Unref()                      // bmp holds its own reference
//	defer bmp.Release()
//
// Decoded images in the canonical layouts convert directly:
//
//	bmp, err := bitmap.FromImage(rgba) // *image.RGBA or *image.Alpha
//
// # Pixel access
//
// Pixels are only reachable through a [PixelLock]. Locking pins discardable
// storage so that the memory pool beneath it cannot purge the pages while
// they are read:
//
//	err := bitmap.WithPixels(bmp, func(px []byte) error {
//	    return tex.UpdateData(px)
//	})
//
// # Errors
//
// Violated preconditions (nil or mutable storage, non-positive size,
// unsupported color type) are programmer errors. Constructors return a
// [*PreconditionError] that matches [ErrPrecondition] with errors.Is;
// the Must variants panic instead.
package bitmap
