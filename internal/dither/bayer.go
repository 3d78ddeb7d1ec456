package dither

// Classic Bayer index matrices. Each holds every value 0..n*n-1 exactly
// once; lower values flip to white earlier as brightness rises.
var bayer4 = [][]int{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

var bayer8 = [][]int{
	{0, 32, 8, 40, 2, 34, 10, 42},
	{48, 16, 56, 24, 50, 18, 58, 26},
	{12, 44, 4, 36, 14, 46, 6, 38},
	{60, 28, 52, 20, 62, 30, 54, 22},
	{3, 35, 11, 43, 1, 33, 9, 41},
	{51, 19, 59, 27, 49, 17, 57, 25},
	{15, 47, 7, 39, 13, 45, 5, 37},
	{63, 31, 55, 23, 61, 29, 53, 21},
}

// orderedCut binarizes gray in place. The per-pixel cut is the mean of
// the matrix threshold (index scaled to 0..255) and the user threshold,
// so the threshold slider still biases ordered output.
func orderedCut(gray []float64, width, height int, matrix [][]int, threshold float64) {
	n := len(matrix)
	scale := 255.0 / float64(n*n)
	for y := 0; y < height; y++ {
		row := matrix[y%n]
		for x := 0; x < width; x++ {
			cut := (float64(row[x%n])*scale + threshold) / 2
			i := y*width + x
			if gray[i] >= cut {
				gray[i] = white
			} else {
				gray[i] = black
			}
		}
	}
}
