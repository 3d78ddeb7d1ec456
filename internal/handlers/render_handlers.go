package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/imageprocessing"
	"github.com/rmitchellscott/ditherlab/internal/logging"
)

// RenderHandler runs one dithering pass synchronously and returns the
// 1-bit PNG in the response body.
func RenderHandler(c *gin.Context) {
	data, _, settings, err := resolveRenderInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	img, format, err := imageprocessing.DecodeImage(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maxDim := database.GetSystemSettingInt("max_render_dimension", 4096)
	img = imageprocessing.FitWithin(img, maxDim, maxDim)

	start := time.Now()
	rendered, err := imageprocessing.Render(img, settings)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	png, err := imageprocessing.EncodeMonoPNG(rendered)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode result"})
		return
	}

	logging.DebugWithComponent(logging.ComponentAPI, "Synchronous render complete",
		"format", format,
		"method", settings.Method,
		"width", rendered.Bounds().Dx(),
		"height", rendered.Bounds().Dy(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	c.Data(http.StatusOK, "image/png", png)
}
