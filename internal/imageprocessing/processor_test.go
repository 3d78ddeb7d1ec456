package imageprocessing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/rmitchellscott/ditherlab/internal/dither"
)

// gradient builds a horizontal grey ramp for pipeline tests.
func gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(x * 255 / (width - 1))
			img.Set(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

func assertBinary(t *testing.T, img image.Image) {
	t.Helper()
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if r != g || g != b {
				t.Fatalf("(%d,%d) not monochrome", x, y)
			}
			if r != 0 && r != 0xffff {
				t.Fatalf("(%d,%d) not binary: %d", x, y, r)
			}
			if a != 0xffff {
				t.Fatalf("(%d,%d) not opaque", x, y)
			}
		}
	}
}

func TestRenderProducesBinaryImage(t *testing.T) {
	src := gradient(32, 16)
	out, err := Render(src, dither.Default())
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 32 || out.Bounds().Dy() != 16 {
		t.Fatalf("output bounds %v, want 32x16", out.Bounds())
	}
	assertBinary(t, out)
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	src := gradient(16, 8)
	before := make([]byte, len(src.Pix))
	copy(before, src.Pix)

	if _, err := Render(src, dither.Default()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, src.Pix) {
		t.Error("input image was modified")
	}
}

func TestRenderMosaicBlocks(t *testing.T) {
	src := gradient(32, 32)
	s := dither.Default()
	s.PixelSize = 4
	out, err := Render(src, s)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 32 || out.Bounds().Dy() != 32 {
		t.Fatalf("output bounds %v, want 32x32", out.Bounds())
	}
	assertBinary(t, out)

	// Every 4x4 block must be a flat square after the nearest-neighbor
	// upscale.
	for by := 0; by < 32; by += 4 {
		for bx := 0; bx < 32; bx += 4 {
			first, _, _, _ := out.At(bx, by).RGBA()
			for y := by; y < by+4; y++ {
				for x := bx; x < bx+4; x++ {
					if v, _, _, _ := out.At(x, y).RGBA(); v != first {
						t.Fatalf("block (%d,%d) not uniform at (%d,%d)", bx, by, x, y)
					}
				}
			}
		}
	}
}

func TestRenderPixelSizeLargerThanImage(t *testing.T) {
	src := gradient(8, 8)
	s := dither.Default()
	s.PixelSize = 50
	out, err := Render(src, s)
	if err != nil {
		t.Fatal(err)
	}
	// The working image collapses to 1x1, so the output is one flat
	// block at the original size.
	if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 8 {
		t.Fatalf("output bounds %v, want 8x8", out.Bounds())
	}
	first, _, _, _ := out.At(0, 0).RGBA()
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if v, _, _, _ := out.At(x, y).RGBA(); v != first {
				t.Fatalf("expected flat output, differs at (%d,%d)", x, y)
			}
		}
	}
}

func TestRenderRejectsBadSettings(t *testing.T) {
	src := gradient(4, 4)
	if _, err := Render(src, dither.Settings{Method: "sierra", Threshold: 128, PixelSize: 1}); err == nil {
		t.Error("expected error for unknown method")
	}
	if _, err := Render(nil, dither.Default()); err == nil {
		t.Error("expected error for nil image")
	}
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(10, 6)); err != nil {
		t.Fatal(err)
	}

	img, format, err := DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 6 {
		t.Errorf("bounds = %v, want 10x6", img.Bounds())
	}
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeImage([]byte("not an image")); err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestDecodeImageRejectsOversized(t *testing.T) {
	// A valid PNG header claiming 100000x100000 trips the pixel guard
	// from DecodeConfig alone, before any pixel data is needed.
	var buf bytes.Buffer
	buf.Write([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	writeChunk(&buf, "IHDR", func(data *bytes.Buffer) {
		data.Write([]byte{0x00, 0x01, 0x86, 0xA0}) // width 100000
		data.Write([]byte{0x00, 0x01, 0x86, 0xA0}) // height 100000
		data.WriteByte(8)                          // bit depth
		data.WriteByte(0)                          // grayscale
		data.WriteByte(0)
		data.WriteByte(0)
		data.WriteByte(0)
	})

	_, _, err := DecodeImage(buf.Bytes())
	if err == nil {
		t.Fatal("expected error for oversized image")
	}
}
