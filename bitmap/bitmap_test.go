package bitmap

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// frozen returns immutable storage of n bytes filled with a ramp.
func frozen(n int) *Storage {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	st := NewStorage(data)
	st.SetImmutable()
	return st
}

func TestCreateDefaults(t *testing.T) {
	tests := []struct {
		name       string
		format     Format
		wantFormat Format
		wantOpaque bool
	}{
		{"RGBA8 is translucent", FormatRGBA8, FormatRGBA8, false},
		{"Alpha8 is translucent", FormatAlpha8, FormatAlpha8, false},
		{"ETC1 is opaque", FormatETC1, FormatETC1, true},
		{"Default resolves to RGBA8", FormatDefault, FormatRGBA8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := frozen(1024)
			defer st.Unref()

			b, err := Create(st, Size{Width: 8, Height: 8}, tt.format)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			defer b.Release()

			if b.Format() != tt.wantFormat {
				t.Errorf("Format() = %v, want %v", b.Format(), tt.wantFormat)
			}
			if b.Opaque() != tt.wantOpaque {
				t.Errorf("Opaque() = %v, want %v", b.Opaque(), tt.wantOpaque)
			}
			if b.WrapMode() != WrapClampToEdge {
				t.Errorf("WrapMode() = %v, want ClampToEdge", b.WrapMode())
			}
			if b.Width() != 8 || b.Height() != 8 {
				t.Errorf("size = %v, want 8x8", b.Size())
			}
			if b.Storage() != st {
				t.Error("Storage() should share the input storage, not copy it")
			}
		})
	}
}

func TestCreatePreconditions(t *testing.T) {
	mutable := NewStorage(make([]byte, 64))
	defer mutable.Unref()
	small := frozen(16)
	defer small.Unref()
	ok := frozen(1024)
	defer ok.Unref()

	tests := []struct {
		name    string
		storage *Storage
		size    Size
		format  Format
	}{
		{"nil storage", nil, Size{4, 4}, FormatRGBA8},
		{"mutable storage", mutable, Size{4, 4}, FormatRGBA8},
		{"zero width", ok, Size{0, 4}, FormatRGBA8},
		{"zero height", ok, Size{4, 0}, FormatRGBA8},
		{"negative width", ok, Size{-1, 4}, FormatRGBA8},
		{"zero width ETC1", ok, Size{0, 4}, FormatETC1},
		{"zero width Alpha8", ok, Size{0, 4}, FormatAlpha8},
		{"zero width Default", ok, Size{0, 4}, FormatDefault},
		{"invalid format", ok, Size{4, 4}, Format(42)},
		{"storage too small", small, Size{4, 4}, FormatRGBA8},
		{"byte count overflows", ok, Size{math.MaxInt / 2, math.MaxInt / 2}, FormatRGBA8},
		{"row overflows", ok, Size{math.MaxInt, 1}, FormatRGBA8},
		{"ETC1 byte count overflows", ok, Size{math.MaxInt, math.MaxInt}, FormatETC1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := 0
			if tt.storage != nil {
				refs = tt.storage.RefCount()
			}

			b, err := Create(tt.storage, tt.size, tt.format)
			if !errors.Is(err, ErrPrecondition) {
				t.Fatalf("Create() error = %v, want ErrPrecondition", err)
			}
			var pe *PreconditionError
			if !errors.As(err, &pe) || pe.Op != "Create" {
				t.Errorf("error should be *PreconditionError with Op Create, got %#v", err)
			}
			if b.IsValid() {
				t.Error("failed Create returned a valid bitmap")
			}
			if tt.storage != nil && tt.storage.RefCount() != refs {
				t.Errorf("failed Create changed refcount %d -> %d", refs, tt.storage.RefCount())
			}
		})
	}
}

func TestMustCreatePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("MustCreate with zero width did not panic")
		}
		if err, ok := r.(error); !ok || !errors.Is(err, ErrPrecondition) {
			t.Errorf("panic value = %v, want ErrPrecondition", r)
		}
	}()
	st := frozen(64)
	defer st.Unref()
	MustCreate(st, Size{0, 4}, FormatRGBA8)
}

func TestCreateWithOpacityOverrides(t *testing.T) {
	st := frozen(64)
	defer st.Unref()

	b, err := CreateWithOpacity(st, Size{4, 4}, FormatRGBA8, true)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()
	if !b.Opaque() {
		t.Error("explicit opacity ignored")
	}

	b.SetOpaque(false)
	if b.Opaque() {
		t.Error("SetOpaque(false) ignored")
	}

	b.SetWrapMode(WrapRepeat)
	if b.WrapMode() != WrapRepeat {
		t.Error("SetWrapMode(WrapRepeat) ignored")
	}
}

func TestFromCompressed(t *testing.T) {
	st := frozen(FormatETC1.DataSize(16, 16))
	defer st.Unref()

	b, err := FromCompressed(st, Size{16, 16})
	if err != nil {
		t.Fatalf("FromCompressed() error = %v", err)
	}
	defer b.Release()

	if b.Format() != FormatETC1 {
		t.Errorf("Format() = %v, want ETC1", b.Format())
	}
	if !b.Opaque() {
		t.Error("compressed bitmaps default to opaque")
	}
	if b.DataSize() != 128 {
		t.Errorf("DataSize() = %d, want 128", b.DataSize())
	}

	if _, err := FromCompressed(nil, Size{4, 4}); !errors.Is(err, ErrPrecondition) {
		t.Errorf("FromCompressed(nil) error = %v, want ErrPrecondition", err)
	}
}

func TestFromImageRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	b, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage() error = %v", err)
	}
	defer b.Release()

	if b.Format() != FormatRGBA8 {
		t.Errorf("Format() = %v, want RGBA8", b.Format())
	}
	if !b.Opaque() {
		t.Error("fully opaque image should produce an opaque bitmap")
	}
	if b.Size() != (Size{3, 2}) {
		t.Errorf("Size() = %v, want 3x2", b.Size())
	}

	err = WithPixels(b, func(px []byte) error {
		if &px[0] != &img.Pix[0] {
			t.Error("FromImage copied pixels instead of sharing them")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestFromImageAlpha(t *testing.T) {
	img := image.NewAlpha(image.Rect(0, 0, 4, 4))
	img.SetAlpha(1, 1, color.Alpha{A: 0x80})

	b, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage() error = %v", err)
	}
	defer b.Release()

	if b.Format() != FormatAlpha8 {
		t.Errorf("Format() = %v, want Alpha8", b.Format())
	}
	if b.Opaque() {
		t.Error("translucent alpha image should not be opaque")
	}
}

func TestFromImageOpacity(t *testing.T) {
	translucent := image.NewRGBA(image.Rect(0, 0, 2, 2))
	translucent.SetRGBA(0, 0, color.RGBA{R: 0x40, A: 0x80})
	solid := image.NewAlpha(image.Rect(0, 0, 2, 2))
	for i := range solid.Pix {
		solid.Pix[i] = 0xFF
	}

	tests := []struct {
		name string
		img  image.Image
		want bool
	}{
		{"translucent RGBA", translucent, false},
		{"solid alpha", solid, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := MustFromImage(tt.img)
			defer b.Release()
			if b.Opaque() != tt.want {
				t.Errorf("Opaque() = %v, want %v", b.Opaque(), tt.want)
			}
		})
	}
}

func TestFromImagePreconditions(t *testing.T) {
	wide := image.NewRGBA(image.Rect(0, 0, 8, 4))
	padded := wide.SubImage(image.Rect(0, 0, 4, 4)).(*image.RGBA)

	tests := []struct {
		name string
		img  image.Image
	}{
		{"nil", nil},
		{"typed nil", (*image.RGBA)(nil)},
		{"NRGBA", image.NewNRGBA(image.Rect(0, 0, 4, 4))},
		{"Gray", image.NewGray(image.Rect(0, 0, 4, 4))},
		{"empty", image.NewRGBA(image.Rect(0, 0, 0, 4))},
		{"padded rows", padded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromImage(tt.img); !errors.Is(err, ErrPrecondition) {
				t.Errorf("FromImage() error = %v, want ErrPrecondition", err)
			}
		})
	}
}

func TestFromImageFullWidthSubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 8))
	sub := img.SubImage(image.Rect(0, 4, 4, 8)).(*image.RGBA)

	b, err := FromImage(sub)
	if err != nil {
		t.Fatalf("FromImage(full-width sub image) error = %v", err)
	}
	defer b.Release()
	if b.Size() != (Size{4, 4}) {
		t.Errorf("Size() = %v, want 4x4", b.Size())
	}
}

func TestBitmapReferenceCounting(t *testing.T) {
	st := frozen(64)
	if st.RefCount() != 1 {
		t.Fatalf("new storage RefCount() = %d, want 1", st.RefCount())
	}

	a := MustCreate(st, Size{4, 4}, FormatRGBA8)
	b := MustCreate(st, Size{2, 2}, FormatRGBA8)
	if st.RefCount() != 3 {
		t.Errorf("RefCount() = %d, want 3", st.RefCount())
	}

	st.Unref() // producer lets go
	a.Release()
	if a.IsValid() {
		t.Error("Release should invalidate the bitmap")
	}
	a.Release() // no-op on released bitmap

	// b keeps the storage alive.
	if err := WithPixels(b, func([]byte) error { return nil }); err != nil {
		t.Errorf("storage freed while still referenced: %v", err)
	}

	b.Release()
	if st.RefCount() != 0 {
		t.Errorf("RefCount() = %d, want 0", st.RefCount())
	}
}

func TestBitmapString(t *testing.T) {
	if got := (Bitmap{}).String(); got != "Bitmap(invalid)" {
		t.Errorf("zero String() = %q", got)
	}
	st := frozen(64)
	defer st.Unref()
	b := MustCreate(st, Size{4, 4}, FormatRGBA8)
	defer b.Release()
	if got := b.String(); got != "RGBA8 4x4" {
		t.Errorf("String() = %q, want %q", got, "RGBA8 4x4")
	}
}
