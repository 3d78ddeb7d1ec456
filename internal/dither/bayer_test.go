package dither

import "testing"

func assertPermutation(t *testing.T, matrix [][]int) {
	t.Helper()
	n := len(matrix)
	seen := make([]bool, n*n)
	for y, row := range matrix {
		if len(row) != n {
			t.Fatalf("row %d has %d entries, want %d", y, len(row), n)
		}
		for x, v := range row {
			if v < 0 || v >= n*n {
				t.Fatalf("value %d at (%d,%d) outside 0..%d", v, x, y, n*n-1)
			}
			if seen[v] {
				t.Fatalf("value %d appears more than once", v)
			}
			seen[v] = true
		}
	}
}

func TestBayerMatricesArePermutations(t *testing.T) {
	assertPermutation(t, bayer4)
	assertPermutation(t, bayer8)
}

func TestBayer4CutAveragesUserThreshold(t *testing.T) {
	// Flat grey 128 at threshold 128: per-pixel cut is
	// (index*255/16 + 128)/2, so only the index-12 position at (0,1)
	// stays black in the top-left 2x2 tile.
	buf := grayImage(128, 128, 128, 128)
	if err := Process(buf, 2, 2, Settings{Method: Bayer4, Threshold: 128}); err != nil {
		t.Fatal(err)
	}
	assertPixels(t, buf, []byte{
		255, 255,
		0, 255,
	})
}

func TestBayer4TilePattern(t *testing.T) {
	// Flat grey 100 at threshold 128 flips exactly the positions whose
	// matrix index is at most 4.
	values := make([]byte, 16)
	for i := range values {
		values[i] = 100
	}
	buf := grayImage(values...)
	if err := Process(buf, 4, 4, Settings{Method: Bayer4, Threshold: 128}); err != nil {
		t.Fatal(err)
	}
	got := monoValues(t, buf)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := byte(0)
			if bayer4[y][x] <= 4 {
				want = 255
			}
			if got[y*4+x] != want {
				t.Errorf("(%d,%d) index %d = %d, want %d", x, y, bayer4[y][x], got[y*4+x], want)
			}
		}
	}
}

func TestBayer8Lookup(t *testing.T) {
	// Grey 40 at threshold 80: the index-0 corner cut is exactly 40, so
	// the corner goes white while the index-32 neighbor stays black.
	buf := grayImage(40, 40)
	if err := Process(buf, 2, 1, Settings{Method: Bayer8, Threshold: 80}); err != nil {
		t.Fatal(err)
	}
	assertPixels(t, buf, []byte{255, 0})
}

func TestBayerTilesWrapByModulo(t *testing.T) {
	// Column 5 of a 6-wide image reuses matrix column 1, so a flat
	// image repeats its pattern with period 4.
	values := make([]byte, 6*4)
	for i := range values {
		values[i] = 128
	}
	buf := grayImage(values...)
	if err := Process(buf, 6, 4, Settings{Method: Bayer4, Threshold: 128}); err != nil {
		t.Fatal(err)
	}
	got := monoValues(t, buf)
	for y := 0; y < 4; y++ {
		for x := 4; x < 6; x++ {
			if got[y*6+x] != got[y*6+x-4] {
				t.Errorf("(%d,%d) = %d, want copy of (%d,%d) = %d", x, y, got[y*6+x], x-4, y, got[y*6+x-4])
			}
		}
	}
}
