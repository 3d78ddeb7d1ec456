package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/dither"
)

// presetRequest is the create/update body. Settings stays raw so the
// stored snapshot is the normalized overlay, not the caller's literal.
type presetRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Settings    json.RawMessage `json:"settings" binding:"required"`
}

func (r *presetRequest) normalizedSettings() (datatypes.JSON, error) {
	s, err := overlaySettings(dither.Default(), r.Settings)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}

// GetPresetsHandler returns all presets, factory entries first.
func GetPresetsHandler(c *gin.Context) {
	presetService := database.NewPresetService(database.GetDB())
	presets, err := presetService.ListPresets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch presets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

// CreatePresetHandler stores a new user preset.
func CreatePresetHandler(c *gin.Context) {
	var req presetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErrorMessage(err)})
		return
	}

	settings, err := req.normalizedSettings()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	presetService := database.NewPresetService(database.GetDB())
	preset, err := presetService.CreatePreset(req.Name, req.Description, settings)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			c.JSON(http.StatusConflict, gin.H{"error": "Preset name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create preset"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"preset": preset})
}

// GetPresetHandler returns a single preset by ID.
func GetPresetHandler(c *gin.Context) {
	presetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preset ID"})
		return
	}

	preset, err := database.NewPresetService(database.GetDB()).GetPresetByID(presetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preset not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preset": preset})
}

// UpdatePresetHandler modifies a user preset. Factory presets are
// read-only.
func UpdatePresetHandler(c *gin.Context) {
	presetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preset ID"})
		return
	}

	var req presetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErrorMessage(err)})
		return
	}

	settings, err := req.normalizedSettings()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	presetService := database.NewPresetService(database.GetDB())
	preset, err := presetService.UpdatePreset(presetID, req.Name, req.Description, settings)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Preset not found"})
		case strings.Contains(err.Error(), "factory presets"):
			c.JSON(http.StatusForbidden, gin.H{"error": "Factory presets cannot be modified"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preset"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"preset": preset})
}

// DeletePresetHandler removes a user preset. Factory presets are
// protected.
func DeletePresetHandler(c *gin.Context) {
	presetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preset ID"})
		return
	}

	presetService := database.NewPresetService(database.GetDB())
	if err := presetService.DeletePreset(presetID); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Preset not found"})
		case strings.Contains(err.Error(), "factory presets"):
			c.JSON(http.StatusForbidden, gin.H{"error": "Factory presets cannot be deleted"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete preset"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preset deleted successfully"})
}
