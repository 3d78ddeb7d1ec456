package imageprocessing

import (
	"image"

	"github.com/makeworld-the-better-one/dither/v2"
)

// ThumbnailMaxEdge is the default bounding box for render thumbnails.
const ThumbnailMaxEdge = 240

// RenderThumbnail produces a small 1-bit preview of a finished render.
// Plain downscaling blends the dithered pattern into flat grey, so the
// shrunken image is re-dithered back to pure black and white.
func RenderThumbnail(img image.Image, maxEdge int) *image.Paletted {
	if maxEdge < 1 {
		maxEdge = ThumbnailMaxEdge
	}
	small := FitWithin(img, maxEdge, maxEdge)

	ditherer := dither.NewDitherer(blackWhitePalette)
	ditherer.Matrix = dither.FloydSteinberg
	return ToPaletted(ditherer.Dither(small))
}
