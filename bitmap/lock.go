package bitmap

import "sync/atomic"

// PixelLock is scoped read access to a bitmap's pixels. Acquire pins the
// storage; Release unpins it. Pixels are valid only between the two.
//
// A PixelLock is owned by one goroutine. Independent locks on the same
// storage may be held concurrently from any number of goroutines.
type PixelLock struct {
	bitmap   Bitmap
	pixels   []byte
	released atomic.Bool
}

// Acquire locks b's storage and returns the guard. Always pair it with
// Release, typically via defer:
//
//	lk, err := bitmap.Acquire(bmp)
//	if err != nil {
//	    return err
//	}
//	defer lk.Release()
//
// Acquire fails with ErrPurged if a discardable pool reclaimed the memory,
// and with a precondition error for an invalid bitmap.
func Acquire(b Bitmap) (*PixelLock, error) {
	if !b.IsValid() {
		return nil, precondition("Acquire", "invalid bitmap")
	}
	data, err := b.storage.lock()
	if err != nil {
		return nil, err
	}
	return &PixelLock{
		bitmap: b,
		pixels: data[:b.DataSize()],
	}, nil
}

// Pixels returns the read-only pixel bytes, or nil after Release.
// Callers must not modify the returned slice.
func (l *PixelLock) Pixels() []byte {
	if l.released.Load() {
		return nil
	}
	return l.pixels
}

// Bitmap returns the locked bitmap.
func (l *PixelLock) Bitmap() Bitmap {
	return l.bitmap
}

// Release unlocks the storage. Calling Release more than once is a
// programmer error; the extra calls are logged and ignored.
func (l *PixelLock) Release() {
	if l.released.Swap(true) {
		slogger().Error("bitmap: pixel lock released twice", "bitmap", l.bitmap.String())
		return
	}
	l.bitmap.storage.unlock()
}

// WithPixels runs fn with b's pixels locked. The lock is released when fn
// returns, including when it panics.
func WithPixels(b Bitmap, fn func(pixels []byte) error) error {
	l, err := Acquire(b)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn(l.Pixels())
}
