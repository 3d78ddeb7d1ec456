// Package dither converts RGBA pixel data into pure black-and-white
// renditions using ordered, error-diffusion, noise, and plain threshold
// quantization over a shared tone-adjustment pipeline.
package dither

import (
	"fmt"
	"math/rand"
)

const (
	black float64 = 0
	white float64 = 255

	// Uniform noise amplitude for the noise method, in luminance units.
	noiseAmplitude = 30

	// Bound on the contrast factor so the zero-denominator contrast
	// value degrades to a hard cut around 128 instead of Inf/NaN.
	maxContrastFactor = 1e6
)

// Process binarizes buf in place. buf is row-major RGBA, top-to-bottom,
// and must hold exactly width*height*4 bytes. On return every pixel is
// either (0,0,0,255) or (255,255,255,255); the original alpha channel is
// discarded. Each call is independent and keeps no state, so concurrent
// calls over distinct buffers are safe.
func Process(buf []byte, width, height int, s Settings) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if len(buf) != width*height*4 {
		return fmt.Errorf("invalid buffer size: got %d bytes, want %d for %dx%d RGBA", len(buf), width*height*4, width, height)
	}
	if !s.Method.Valid() {
		return fmt.Errorf("unknown dither method %q", s.Method)
	}

	gray := toneMap(buf, width*height, s)
	threshold := float64(s.Threshold)

	switch s.Method {
	case Threshold:
		cutAll(gray, threshold)
	case Bayer4:
		orderedCut(gray, width, height, bayer4, threshold)
	case Bayer8:
		orderedCut(gray, width, height, bayer8, threshold)
	case Noise:
		noiseCut(gray, threshold)
	case FloydSteinberg:
		diffuse(gray, width, height, threshold, floydSteinbergKernel)
	case Atkinson:
		diffuse(gray, width, height, threshold, atkinsonKernel)
	}

	writeMono(buf, gray)
	return nil
}

// toneMap produces the per-pixel working luminance: perceptual luma,
// shifted by brightness, remapped by the contrast curve, clamped to
// [0,255]. Kept in float64 so later error diffusion accumulates
// fractional residue instead of truncating it each step.
func toneMap(buf []byte, n int, s Settings) []float64 {
	gray := make([]float64, n)
	factor := contrastFactor(s.Contrast)
	brightness := float64(s.Brightness)
	for i := 0; i < n; i++ {
		o := i * 4
		// Integer-scaled 0.299/0.587/0.114 luma: exact for equal
		// channels, so a flat grey keeps its exact value.
		luma := (299*float64(buf[o]) + 587*float64(buf[o+1]) + 114*float64(buf[o+2])) / 1000
		gray[i] = clamp(factor*(luma+brightness-128) + 128)
	}
	return gray
}

func contrastFactor(contrast int) float64 {
	c := float64(contrast)
	factor := (259 * (c + 255)) / (255 * (259 - c))
	if factor > maxContrastFactor {
		factor = maxContrastFactor
	} else if factor < -maxContrastFactor {
		factor = -maxContrastFactor
	}
	return factor
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// cutAll applies the plain binary cut: white iff the toned luminance
// reaches the threshold. The >= direction is the package-wide boundary
// policy shared by every method.
func cutAll(gray []float64, threshold float64) {
	for i, g := range gray {
		if g >= threshold {
			gray[i] = white
		} else {
			gray[i] = black
		}
	}
}

// noiseCut perturbs each pixel with uniform noise in
// [-noiseAmplitude, +noiseAmplitude) before the cut. Uses the shared
// math/rand source; runs are deliberately non-reproducible.
func noiseCut(gray []float64, threshold float64) {
	for i, g := range gray {
		if g+(rand.Float64()*2-1)*noiseAmplitude >= threshold {
			gray[i] = white
		} else {
			gray[i] = black
		}
	}
}

func writeMono(buf []byte, gray []float64) {
	for i, g := range gray {
		var v byte
		if g != black {
			v = 255
		}
		o := i * 4
		buf[o] = v
		buf[o+1] = v
		buf[o+2] = v
		buf[o+3] = 255
	}
}
