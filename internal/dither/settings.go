package dither

import (
	"fmt"
	"strings"
)

// Method selects the quantization strategy applied after tone adjustment.
type Method string

const (
	Threshold      Method = "threshold"
	FloydSteinberg Method = "floyd-steinberg"
	Atkinson       Method = "atkinson"
	Bayer4         Method = "bayer4"
	Bayer8         Method = "bayer8"
	Noise          Method = "noise"
)

// methodOrder is the canonical listing order for API responses.
var methodOrder = []Method{Threshold, FloydSteinberg, Atkinson, Bayer4, Bayer8, Noise}

var methodLabels = map[Method]string{
	Threshold:      "Threshold",
	FloydSteinberg: "Floyd-Steinberg",
	Atkinson:       "Atkinson",
	Bayer4:         "Bayer 4x4",
	Bayer8:         "Bayer 8x8",
	Noise:          "Noise",
}

// Methods returns all supported methods in listing order.
func Methods() []Method {
	out := make([]Method, len(methodOrder))
	copy(out, methodOrder)
	return out
}

// Label returns a human-readable name for the method.
func (m Method) Label() string {
	if label, ok := methodLabels[m]; ok {
		return label
	}
	return string(m)
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	_, ok := methodLabels[m]
	return ok
}

// Diffuses reports whether the method propagates quantization error to
// neighboring pixels.
func (m Method) Diffuses() bool {
	return m == FloydSteinberg || m == Atkinson
}

// ParseMethod resolves a method name case-insensitively, accepting
// underscores in place of hyphens.
func ParseMethod(s string) (Method, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	m := Method(name)
	if !m.Valid() {
		return "", fmt.Errorf("unknown dither method %q", s)
	}
	return m, nil
}

// Settings controls a single processing pass. The zero value is not
// usable directly; start from Default and overlay caller input.
type Settings struct {
	Method     Method `json:"method" yaml:"method" binding:"omitempty,oneof=threshold floyd-steinberg atkinson bayer4 bayer8 noise"`
	Threshold  int    `json:"threshold" yaml:"threshold" binding:"min=0,max=255"`
	PixelSize  int    `json:"pixel_size" yaml:"pixel_size" binding:"omitempty,min=1"`
	Contrast   int    `json:"contrast" yaml:"contrast" binding:"min=-100,max=100"`
	Brightness int    `json:"brightness" yaml:"brightness" binding:"min=-100,max=100"`
}

// Default returns the settings used when the caller supplies none.
func Default() Settings {
	return Settings{
		Method:    FloydSteinberg,
		Threshold: 128,
		PixelSize: 1,
	}
}

// Normalize fills gaps left by partial input: an empty method falls back
// to the default, and pixel sizes below 1 are raised to 1.
func (s *Settings) Normalize() {
	if s.Method == "" {
		s.Method = Default().Method
	}
	if s.PixelSize < 1 {
		s.PixelSize = 1
	}
}

// Validate rejects settings outside the supported domain. The engine
// itself only requires a known method; these ranges are the API contract.
func (s Settings) Validate() error {
	if !s.Method.Valid() {
		return fmt.Errorf("unknown dither method %q", s.Method)
	}
	if s.Threshold < 0 || s.Threshold > 255 {
		return fmt.Errorf("threshold %d out of range [0, 255]", s.Threshold)
	}
	if s.PixelSize < 1 {
		return fmt.Errorf("pixel_size %d must be at least 1", s.PixelSize)
	}
	if s.Contrast < -100 || s.Contrast > 100 {
		return fmt.Errorf("contrast %d out of range [-100, 100]", s.Contrast)
	}
	if s.Brightness < -100 || s.Brightness > 100 {
		return fmt.Errorf("brightness %d out of range [-100, 100]", s.Brightness)
	}
	return nil
}
