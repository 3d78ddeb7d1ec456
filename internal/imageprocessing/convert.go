package imageprocessing

import (
	"image"
	"image/color"
	"image/draw"
)

// blackWhitePalette is the two-entry palette for finished renders:
// index 0 black, index 1 white.
var blackWhitePalette = color.Palette{
	color.Gray{Y: 0},
	color.Gray{Y: 255},
}

// ToNRGBA copies img into a fresh NRGBA buffer with origin (0,0).
// NRGBA keeps channels straight (not premultiplied), matching the raw
// RGBA sample layout the dither engine expects. Always copies, so the
// engine can mutate the result without touching the caller's image.
func ToNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

// ToPaletted reduces a monochrome image to the two-color palette.
// Pixels at or above mid-grey map to white.
func ToPaletted(img image.Image) *image.Paletted {
	bounds := img.Bounds()
	paletted := image.NewPaletted(image.Rect(0, 0, bounds.Dx(), bounds.Dy()), blackWhitePalette)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			var idx uint8
			if gray.Y >= 128 {
				idx = 1
			}
			paletted.SetColorIndex(x-bounds.Min.X, y-bounds.Min.Y, idx)
		}
	}
	return paletted
}
