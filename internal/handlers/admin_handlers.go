package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/pollers"
	"github.com/rmitchellscott/ditherlab/internal/sse"
	"github.com/rmitchellscott/ditherlab/internal/version"
	"github.com/rmitchellscott/ditherlab/internal/workers"
)

// StatusHandler reports database statistics, worker pool metrics, and
// poller state.
func StatusHandler(pool *workers.RenderPool, manager *pollers.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := database.GetDatabaseStats(database.GetDB())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect database stats"})
			return
		}

		pollerState := gin.H{}
		for _, name := range manager.ListPollers() {
			if poller, ok := manager.GetPoller(name); ok {
				pollerState[name] = gin.H{
					"running":  poller.IsRunning(),
					"interval": poller.GetInterval().String(),
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"database":    stats,
			"workers":     pool.GetMetrics(),
			"pollers":     pollerState,
			"sse_clients": sse.GetSSEService().GetClientCount(),
			"version":     version.Get(),
		})
	}
}

// CreateAPIKeyHandler mints a new API key. The clear text appears in
// this response and nowhere else.
func CreateAPIKeyHandler(c *gin.Context) {
	var req struct {
		Name      string     `json:"name" binding:"required"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expiration time must be in the future"})
		return
	}

	keyService := database.NewAPIKeyService(database.GetDB())
	apiKey, keyString, err := keyService.GenerateAPIKey(req.Name, req.ExpiresAt)
	if err != nil {
		if strings.Contains(err.Error(), "maximum number of API keys") {
			c.JSON(http.StatusConflict, gin.H{"error": "Maximum number of API keys reached"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create API key"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"api_key": apiKey, "key": keyString})
}

// GetAPIKeysHandler returns all API keys, newest first.
func GetAPIKeysHandler(c *gin.Context) {
	keyService := database.NewAPIKeyService(database.GetDB())
	apiKeys, err := keyService.ListAPIKeys()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve API keys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_keys": apiKeys})
}

// DeactivateAPIKeyHandler disables a key without deleting its record.
func DeactivateAPIKeyHandler(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid API key ID"})
		return
	}

	keyService := database.NewAPIKeyService(database.GetDB())
	if err := keyService.DeactivateAPIKey(keyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate API key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteAPIKeyHandler removes a key permanently.
func DeleteAPIKeyHandler(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid API key ID"})
		return
	}

	keyService := database.NewAPIKeyService(database.GetDB())
	if err := keyService.DeleteAPIKey(keyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete API key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSettingsHandler returns all system settings.
func GetSettingsHandler(c *gin.Context) {
	var settings []database.SystemSetting
	if err := database.GetDB().Order("key ASC").Find(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettingHandler changes the value of an existing system setting.
// Unknown keys are rejected rather than created.
func UpdateSettingHandler(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErrorMessage(err)})
		return
	}

	if _, err := database.GetSystemSetting(key); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Setting not found"})
		return
	}

	if err := database.SetSystemSetting(key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update setting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
