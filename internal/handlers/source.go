package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rmitchellscott/ditherlab/internal/config"
	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/dither"
	"github.com/rmitchellscott/ditherlab/internal/imageprocessing"
	"github.com/rmitchellscott/ditherlab/internal/utils"
)

// renderRequest is the JSON body accepted by the render and job
// endpoints. Settings stays raw so fields the caller omits keep the
// preset or default values when overlaid.
type renderRequest struct {
	SourceURL string          `json:"source_url"`
	Preset    string          `json:"preset"`
	Settings  json.RawMessage `json:"settings"`
}

// resolvePreset loads the settings of a preset referenced by ID or
// name. An empty reference yields the engine defaults.
func resolvePreset(ref string) (dither.Settings, error) {
	if ref == "" {
		return dither.Default(), nil
	}

	db := database.GetDB()
	presetService := database.NewPresetService(db)

	var preset *database.Preset
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		preset, err = presetService.GetPresetByID(id)
	} else {
		preset, err = presetService.GetPresetByName(ref)
	}
	if err != nil {
		return dither.Default(), fmt.Errorf("preset %q not found", ref)
	}

	return preset.DecodeSettings()
}

// overlaySettings applies a raw JSON settings fragment on top of base.
// Only fields present in the fragment are touched.
func overlaySettings(base dither.Settings, raw json.RawMessage) (dither.Settings, error) {
	s := base
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s); err != nil {
			return s, fmt.Errorf("invalid settings: %w", err)
		}
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// settingsFromForm overlays multipart form fields on top of base.
// A "settings" part holding a JSON fragment is applied first, then the
// individual fields. Absent fields keep their base values.
func settingsFromForm(c *gin.Context, base dither.Settings) (dither.Settings, error) {
	s := base

	if raw := c.PostForm("settings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return s, fmt.Errorf("invalid settings: %w", err)
		}
	}

	if v := c.PostForm("method"); v != "" {
		m, err := dither.ParseMethod(v)
		if err != nil {
			return s, err
		}
		s.Method = m
	}

	intFields := []struct {
		name string
		dst  *int
	}{
		{"threshold", &s.Threshold},
		{"pixel_size", &s.PixelSize},
		{"contrast", &s.Contrast},
		{"brightness", &s.Brightness},
	}
	for _, f := range intFields {
		v := c.PostForm(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("invalid %s %q", f.name, v)
		}
		*f.dst = n
	}

	s.Normalize()
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// isMultipart reports whether the request carries a form upload rather
// than a JSON body.
func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// resolveRenderInput extracts the source image bytes and the effective
// settings from either request shape. The returned format is the
// caller-declared or URL-derived extension hint; the decoder is the
// authority on the real format.
func resolveRenderInput(c *gin.Context) (data []byte, format string, settings dither.Settings, err error) {
	if isMultipart(c) {
		file, header, ferr := c.Request.FormFile("image")
		if ferr != nil {
			return nil, "", settings, fmt.Errorf("no image uploaded")
		}
		defer file.Close()

		data, err = io.ReadAll(file)
		if err != nil {
			return nil, "", settings, fmt.Errorf("failed to read upload: %w", err)
		}

		base, perr := resolvePreset(c.PostForm("preset"))
		if perr != nil {
			return nil, "", settings, perr
		}
		settings, err = settingsFromForm(c, base)
		if err != nil {
			return nil, "", settings, err
		}

		format = strings.TrimPrefix(strings.ToLower(filepathExt(header.Filename)), ".")
		return data, format, settings, nil
	}

	var req renderRequest
	if berr := c.ShouldBindJSON(&req); berr != nil {
		return nil, "", settings, fmt.Errorf("invalid request body: %w", berr)
	}
	if req.SourceURL == "" {
		return nil, "", settings, fmt.Errorf("source_url is required")
	}
	if verr := utils.ValidateURL(req.SourceURL); verr != nil {
		return nil, "", settings, verr
	}

	base, perr := resolvePreset(req.Preset)
	if perr != nil {
		return nil, "", settings, perr
	}
	settings, err = overlaySettings(base, req.Settings)
	if err != nil {
		return nil, "", settings, err
	}

	timeout := config.GetDuration("SOURCE_FETCH_TIMEOUT", 30*time.Second)
	data, err = imageprocessing.FetchImage(c.Request.Context(), req.SourceURL, timeout)
	if err != nil {
		return nil, "", settings, err
	}

	format = strings.TrimPrefix(strings.ToLower(filepathExt(req.SourceURL)), ".")
	return data, format, settings, nil
}

// filepathExt returns the extension of the last path segment, ignoring
// any query string.
func filepathExt(name string) string {
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
