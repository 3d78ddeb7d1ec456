package dither

import "testing"

func kernelSum(k diffusionKernel) float64 {
	var sum float64
	for _, tap := range k.taps {
		sum += tap.weight
	}
	return sum / k.divisor
}

func assertForwardOnly(t *testing.T, k diffusionKernel) {
	t.Helper()
	for _, tap := range k.taps {
		if tap.dy < 0 || (tap.dy == 0 && tap.dx <= 0) {
			t.Errorf("tap (%d,%d) points at an already-visited pixel", tap.dx, tap.dy)
		}
	}
}

func TestFloydSteinbergKernel(t *testing.T) {
	// East 7/16, southwest 3/16, south 5/16, southeast 1/16; the full
	// error is conserved.
	want := map[[2]int]float64{
		{1, 0}:  7,
		{-1, 1}: 3,
		{0, 1}:  5,
		{1, 1}:  1,
	}
	if len(floydSteinbergKernel.taps) != len(want) {
		t.Fatalf("got %d taps, want %d", len(floydSteinbergKernel.taps), len(want))
	}
	for _, tap := range floydSteinbergKernel.taps {
		if w, ok := want[[2]int{tap.dx, tap.dy}]; !ok || w != tap.weight {
			t.Errorf("unexpected tap (%d,%d) weight %v", tap.dx, tap.dy, tap.weight)
		}
	}
	if got := kernelSum(floydSteinbergKernel); got != 1 {
		t.Errorf("weights sum to %v, want 1", got)
	}
	assertForwardOnly(t, floydSteinbergKernel)
}

func TestAtkinsonKernel(t *testing.T) {
	// Six equal 1/8 shares; 2/8 of the error is dropped on purpose.
	want := map[[2]int]float64{
		{1, 0}:  1,
		{2, 0}:  1,
		{-1, 1}: 1,
		{0, 1}:  1,
		{1, 1}:  1,
		{0, 2}:  1,
	}
	if len(atkinsonKernel.taps) != len(want) {
		t.Fatalf("got %d taps, want %d", len(atkinsonKernel.taps), len(want))
	}
	for _, tap := range atkinsonKernel.taps {
		if w, ok := want[[2]int{tap.dx, tap.dy}]; !ok || w != tap.weight {
			t.Errorf("unexpected tap (%d,%d) weight %v", tap.dx, tap.dy, tap.weight)
		}
	}
	if got := kernelSum(atkinsonKernel); got != 0.75 {
		t.Errorf("weights sum to %v, want 0.75", got)
	}
	assertForwardOnly(t, atkinsonKernel)
}

func TestFloydSteinbergEastShare(t *testing.T) {
	// [200, 100]: the white cut at 200 leaves error -55, so the east
	// neighbor drops to 100 - 55*7/16 = 75.9375. A threshold of 74
	// keeps it white; any larger share would push it under.
	buf := grayImage(200, 100)
	if err := Process(buf, 2, 1, Settings{Method: FloydSteinberg, Threshold: 74}); err != nil {
		t.Fatal(err)
	}
	assertPixels(t, buf, []byte{255, 255})
}

func TestFloydSteinbergSouthwestShare(t *testing.T) {
	// The bright pixel at (1,0) sends 3/16 of -55 to (0,1):
	// 100 - 10.3125 = 89.6875, still above the 85 cut. The 5/16 south
	// share instead would land at 82.8 and flip it.
	buf := grayImage(
		0, 200,
		100, 0,
	)
	if err := Process(buf, 2, 2, Settings{Method: FloydSteinberg, Threshold: 85}); err != nil {
		t.Fatal(err)
	}
	assertPixels(t, buf, []byte{
		0, 255,
		255, 0,
	})
}

func TestFloydSteinbergSouthShareInColumn(t *testing.T) {
	// In a 1-wide image only the south tap lands: 100 - 55*5/16 =
	// 82.8125. The east share must be clipped, not wrapped to the next
	// row, or the south pixel would fall to 58.75 and go black.
	buf := grayImage(200, 100)
	if err := Process(buf, 1, 2, Settings{Method: FloydSteinberg, Threshold: 80}); err != nil {
		t.Fatal(err)
	}
	assertPixels(t, buf, []byte{255, 255})
}

func TestFloydSteinbergSingleBrightPixel(t *testing.T) {
	// A bright pixel in a black field: the negative error spreads to
	// the four in-bounds targets but flips nothing, and nothing outside
	// the image is touched.
	buf := grayImage(
		0, 0, 0,
		0, 200, 0,
		0, 0, 0,
	)
	if err := Process(buf, 3, 3, Settings{Method: FloydSteinberg, Threshold: 128}); err != nil {
		t.Fatal(err)
	}
	assertPixels(t, buf, []byte{
		0, 0, 0,
		0, 255, 0,
		0, 0, 0,
	})
}

func TestFloydSteinbergCornerClipsAllTaps(t *testing.T) {
	// Bright pixel in the bottom-right corner: every tap is out of
	// bounds and must be skipped without wrapping or panicking.
	buf := grayImage(
		0, 0,
		0, 200,
	)
	if err := Process(buf, 2, 2, Settings{Method: FloydSteinberg, Threshold: 128}); err != nil {
		t.Fatal(err)
	}
	assertPixels(t, buf, []byte{
		0, 0,
		0, 255,
	})
}

func TestAtkinsonEastShare(t *testing.T) {
	// Atkinson sends only 1/8 east: 100 - 55/8 = 93.125 stays white at
	// threshold 90 where the Floyd-Steinberg 7/16 share (75.9) would
	// not.
	buf := grayImage(200, 100)
	if err := Process(buf, 2, 1, Settings{Method: Atkinson, Threshold: 90}); err != nil {
		t.Fatal(err)
	}
	assertPixels(t, buf, []byte{255, 255})
}

func TestAtkinsonReachesTwoRowsDown(t *testing.T) {
	// 1-wide column [200, 100, 100]: the head pixel hits both the south
	// tap and the two-rows-down tap. The bottom pixel lands on
	// 100 - 55/8 - 161.875/8 = 72.89; without the long tap it would sit
	// at 79.77 and stay white at threshold 75.
	buf := grayImage(200, 100, 100)
	if err := Process(buf, 1, 3, Settings{Method: Atkinson, Threshold: 75}); err != nil {
		t.Fatal(err)
	}
	assertPixels(t, buf, []byte{255, 255, 0})
}

func TestAtkinsonSinglePixelClipsAllTaps(t *testing.T) {
	buf := grayImage(200)
	if err := Process(buf, 1, 1, Settings{Method: Atkinson, Threshold: 128}); err != nil {
		t.Fatal(err)
	}
	assertPixels(t, buf, []byte{255})
}
