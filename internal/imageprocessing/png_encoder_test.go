package imageprocessing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func checkerboard(width, height int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, width, height), blackWhitePalette)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetColorIndex(x, y, uint8((x+y)%2))
		}
	}
	return img
}

func TestEncodeMonoPNGRoundTrip(t *testing.T) {
	src := checkerboard(13, 5) // odd width exercises partial row bytes

	data, err := EncodeMonoPNG(src)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stdlib decoder rejected output: %v", err)
	}
	if decoded.Bounds().Dx() != 13 || decoded.Bounds().Dy() != 5 {
		t.Fatalf("decoded bounds %v, want 13x5", decoded.Bounds())
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 13; x++ {
			want := uint8((x + y) % 2 * 255)
			got := color.GrayModel.Convert(decoded.At(x, y)).(color.Gray).Y
			if got != want {
				t.Errorf("(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestEncodeMonoPNGHeader(t *testing.T) {
	data, err := EncodeMonoPNG(checkerboard(8, 8))
	if err != nil {
		t.Fatal(err)
	}

	signature := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	if !bytes.HasPrefix(data, signature) {
		t.Fatal("missing PNG signature")
	}
	// IHDR data starts at offset 16: width(4) height(4) depth(1) type(1).
	if depth := data[24]; depth != 1 {
		t.Errorf("bit depth = %d, want 1", depth)
	}
	if colorType := data[25]; colorType != 0 {
		t.Errorf("color type = %d, want 0 (grayscale)", colorType)
	}
}

func TestEncodeMonoPNGConvertsNonPaletted(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	for x := 0; x < 4; x++ {
		v := uint8(0)
		if x >= 2 {
			v = 255
		}
		src.Set(x, 0, color.NRGBA{v, v, v, 255})
	}

	data, err := EncodeMonoPNG(src)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	for x := 0; x < 4; x++ {
		want := uint8(0)
		if x >= 2 {
			want = 255
		}
		got := color.GrayModel.Convert(decoded.At(x, 0)).(color.Gray).Y
		if got != want {
			t.Errorf("pixel %d = %d, want %d", x, got, want)
		}
	}
}

func TestRenderThumbnailStaysBinaryAndSmall(t *testing.T) {
	out := RenderThumbnail(gradient(640, 480), 240)
	if out.Bounds().Dx() > 240 || out.Bounds().Dy() > 240 {
		t.Fatalf("thumbnail bounds %v exceed 240", out.Bounds())
	}
	// Aspect ratio preserved: 640x480 -> 240x180.
	if out.Bounds().Dx() != 240 || out.Bounds().Dy() != 180 {
		t.Errorf("thumbnail bounds %v, want 240x180", out.Bounds())
	}
	assertBinary(t, out)
}

func TestFitWithinNeverUpscales(t *testing.T) {
	src := gradient(100, 50)
	out := FitWithin(src, 500, 500)
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 50 {
		t.Errorf("small image was rescaled to %v", out.Bounds())
	}
}

func TestScaledDimensions(t *testing.T) {
	tests := []struct {
		name                   string
		srcW, srcH, dstW, dstH int
		wantW, wantH           int
	}{
		{"landscape", 640, 480, 240, 240, 240, 180},
		{"portrait", 480, 640, 240, 240, 180, 240},
		{"extreme ratio floors at 1", 10000, 10, 100, 100, 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ScaledDimensions(tt.srcW, tt.srcH, tt.dstW, tt.dstH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
