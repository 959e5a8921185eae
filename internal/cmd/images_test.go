package cmd

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/gogpu/mailbox"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"no limit", 1000, 500, 0, 1000, 500},
		{"already fits", 64, 32, 64, 64, 32},
		{"wide", 200, 100, 50, 50, 25},
		{"tall", 100, 400, 100, 25, 100},
		{"sliver keeps one pixel", 1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitSize(tt.w, tt.h, tt.max)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("fitSize(%d, %d, %d) = %dx%d, want %dx%d",
					tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestToRGBA(t *testing.T) {
	t.Run("packed RGBA is reused", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 3, 3))
		if got := toRGBA(src, 0); got != src {
			t.Error("toRGBA copied an already packed image")
		}
	})

	t.Run("sub-image is repacked", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 4, 4))
		src.Set(2, 2, color.RGBA{R: 255, A: 255})
		sub := src.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)

		got := toRGBA(sub, 0)
		if got.Rect != image.Rect(0, 0, 2, 2) || got.Stride != 8 {
			t.Fatalf("rect %v stride %d, want 2x2 at origin with stride 8", got.Rect, got.Stride)
		}
		if c := got.RGBAAt(0, 0); c.R != 255 {
			t.Errorf("pixel (0,0) = %v, want red", c)
		}
	})

	t.Run("gray is converted", func(t *testing.T) {
		src := image.NewGray(image.Rect(0, 0, 2, 1))
		src.SetGray(1, 0, color.Gray{Y: 200})

		got := toRGBA(src, 0)
		if c := got.RGBAAt(1, 0); c != (color.RGBA{R: 200, G: 200, B: 200, A: 255}) {
			t.Errorf("pixel (1,0) = %v", c)
		}
	})
}

func TestDecodeFileMissing(t *testing.T) {
	if _, _, err := decodeFile("does-not-exist.png", 0); err == nil {
		t.Error("decodeFile() of a missing file succeeded")
	}
}

func TestGen(t *testing.T) {
	var buf bytes.Buffer
	genCmd.SetOut(&buf)
	t.Cleanup(func() {
		genCmd.SetOut(nil)
		_ = genCmd.Flags().Set("count", "1")
	})

	if err := genCmd.Flags().Set("count", "3"); err != nil {
		t.Fatal(err)
	}
	if err := runGen(genCmd, nil); err != nil {
		t.Fatal(err)
	}

	lines := strings.Fields(buf.String())
	if len(lines) != 3 {
		t.Fatalf("got %d names, want 3", len(lines))
	}
	seen := make(map[string]bool)
	for _, line := range lines {
		m, err := mailbox.ParseMailbox(line)
		if err != nil {
			t.Errorf("ParseMailbox(%q) error = %v", line, err)
		}
		if m.IsZero() || seen[line] {
			t.Errorf("bad or duplicate mailbox %q", line)
		}
		seen[line] = true
	}

	_ = genCmd.Flags().Set("count", "0")
	if err := runGen(genCmd, nil); err == nil {
		t.Error("runGen with count 0 succeeded")
	}
}
