package imageprocessing

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// FitWithin scales img down to fit inside maxWidth x maxHeight while
// preserving aspect ratio. Images already inside the box are returned
// unchanged; this never upscales.
func FitWithin(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	if srcWidth <= maxWidth && srcHeight <= maxHeight {
		return img
	}

	newWidth, newHeight := ScaledDimensions(srcWidth, srcHeight, maxWidth, maxHeight)
	resized := image.NewNRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, xdraw.Src, nil)
	return resized
}

// ScaledDimensions returns the largest dimensions that fit within the
// target box at the source aspect ratio, never below 1x1.
func ScaledDimensions(srcWidth, srcHeight, targetWidth, targetHeight int) (int, int) {
	scaleX := float64(targetWidth) / float64(srcWidth)
	scaleY := float64(targetHeight) / float64(srcHeight)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	newWidth := int(float64(srcWidth) * scale)
	newHeight := int(float64(srcHeight) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return newWidth, newHeight
}

// mosaicDown shrinks the working image by the pixel size factor with
// bilinear sampling, so each output pixel averages its source block.
func mosaicDown(img *image.NRGBA, pixelSize int) *image.NRGBA {
	bounds := img.Bounds()
	width := bounds.Dx() / pixelSize
	height := bounds.Dy() / pixelSize
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	small := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(small, small.Bounds(), img, bounds, xdraw.Src, nil)
	return small
}

// mosaicUp blows the processed image back up to the original size with
// nearest-neighbor sampling, keeping every block a hard-edged square of
// pure black or white.
func mosaicUp(img *image.NRGBA, width, height int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return out
}
