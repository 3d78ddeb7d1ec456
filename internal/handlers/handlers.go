package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rmitchellscott/ditherlab/internal/auth"
	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/imageprocessing"
	"github.com/rmitchellscott/ditherlab/internal/version"
)

// ConfigHandler returns the public runtime configuration clients need
// before making render calls.
func ConfigHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authEnabled":        auth.Enabled(),
		"maxUploadMB":        database.GetSystemSettingInt("max_upload_mb", 32),
		"maxRenderDimension": database.GetSystemSettingInt("max_render_dimension", 4096),
		"maxImagePixels":     imageprocessing.MaxPixels(),
		"version":            version.String(),
	})
}

// HealthHandler reports liveness and database reachability.
func HealthHandler(c *gin.Context) {
	sqlDB, err := database.GetDB().DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
