package dither

// diffusionTap sends weight/divisor of the quantization error to the
// pixel at (x+dx, y+dy). Taps must only point at not-yet-visited pixels
// under row-major order: dy > 0, or dy == 0 with dx > 0.
type diffusionTap struct {
	dx, dy int
	weight float64
}

type diffusionKernel struct {
	divisor float64
	taps    []diffusionTap
}

var floydSteinbergKernel = diffusionKernel{
	divisor: 16,
	taps: []diffusionTap{
		{1, 0, 7},
		{-1, 1, 3},
		{0, 1, 5},
		{1, 1, 1},
	},
}

// Atkinson deliberately spreads only 6/8 of the error; the rest is
// dropped, which lifts local contrast in highlights and shadows.
var atkinsonKernel = diffusionKernel{
	divisor: 8,
	taps: []diffusionTap{
		{1, 0, 1},
		{2, 0, 1},
		{-1, 1, 1},
		{0, 1, 1},
		{1, 1, 1},
		{0, 2, 1},
	},
}

// diffuse binarizes gray in place, pushing each pixel's quantization
// error onto later pixels through the kernel. Neighbors outside the
// image are skipped, never wrapped.
func diffuse(gray []float64, width, height int, threshold float64, k diffusionKernel) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			old := gray[i]
			newVal := black
			if old >= threshold {
				newVal = white
			}
			gray[i] = newVal
			err := old - newVal
			for _, tap := range k.taps {
				nx, ny := x+tap.dx, y+tap.dy
				if nx < 0 || nx >= width || ny >= height {
					continue
				}
				gray[ny*width+nx] += err * tap.weight / k.divisor
			}
		}
	}
}
