package imageprocessing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"net/http"
	"time"

	"github.com/rmitchellscott/ditherlab/internal/config"
	"github.com/rmitchellscott/ditherlab/internal/dither"
)

const (
	// DefaultMaxPixels caps decoded image area before any processing.
	// 40 megapixels of RGBA is already a 160 MB working set.
	DefaultMaxPixels = 40_000_000

	// MaxSourceBytes caps how much of a remote body is read.
	MaxSourceBytes = 64 << 20
)

// MaxPixels returns the effective pixel-count cap, overridable via the
// MAX_PIXELS environment variable.
func MaxPixels() int {
	if n := config.GetInt("MAX_PIXELS", DefaultMaxPixels); n > 0 {
		return n
	}
	return DefaultMaxPixels
}

// Render runs the full pipeline: optional mosaic downscale by the pixel
// size, the dithering pass, and the nearest-neighbor upscale back to the
// input dimensions. The input image is never modified.
func Render(img image.Image, s dither.Settings) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	work := ToNRGBA(img)
	width := work.Bounds().Dx()
	height := work.Bounds().Dy()

	if s.PixelSize > 1 {
		small := mosaicDown(work, s.PixelSize)
		sw := small.Bounds().Dx()
		sh := small.Bounds().Dy()
		if err := dither.Process(small.Pix, sw, sh, s); err != nil {
			return nil, err
		}
		return mosaicUp(small, width, height), nil
	}

	if err := dither.Process(work.Pix, width, height, s); err != nil {
		return nil, err
	}
	return work, nil
}

// SniffImage validates the header of encoded image data and reports
// its dimensions and format without running the full decode.
func SniffImage(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return 0, 0, "", fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if limit := MaxPixels(); cfg.Width*cfg.Height > limit {
		return 0, 0, "", fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, limit)
	}
	return cfg.Width, cfg.Height, format, nil
}

// DecodeImage decodes PNG, JPEG, or GIF data, rejecting images whose
// pixel count exceeds the MaxPixels cap before the full decode runs.
func DecodeImage(data []byte) (image.Image, string, error) {
	if _, _, _, err := SniffImage(data); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// FetchImage downloads raw image data. The caller is responsible for
// validating the URL first.
func FetchImage(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) > MaxSourceBytes {
		return nil, fmt.Errorf("image body exceeds %d bytes", MaxSourceBytes)
	}

	return data, nil
}

// LoadImageFromURL downloads and decodes an image in one step.
func LoadImageFromURL(ctx context.Context, url string, timeout time.Duration) (image.Image, string, error) {
	data, err := FetchImage(ctx, url, timeout)
	if err != nil {
		return nil, "", err
	}
	return DecodeImage(data)
}
