package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rmitchellscott/ditherlab/internal/config"
	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/logging"
)

var jwtSecret []byte

func init() {
	// Generate a random JWT secret if not provided
	if secret := config.Get("JWT_SECRET", ""); secret != "" {
		jwtSecret = []byte(secret)
	} else {
		jwtSecret = make([]byte, 32)
		rand.Read(jwtSecret)
	}
}

// Enabled reports whether API key authentication is turned on.
func Enabled() bool {
	return config.GetBool("AUTH_ENABLED", false)
}

// extractKey pulls an API key from the Authorization or X-API-Key header.
func extractKey(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	return c.GetHeader("X-API-Key")
}

// isMasterKey checks the static key from the environment, if configured.
func isMasterKey(provided string) bool {
	master := config.Get("API_KEY", "")
	if master == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(master)) == 1
}

// Middleware enforces API key authentication when enabled. Keys are
// accepted as a Bearer token or in the X-API-Key header.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Enabled() {
			c.Next()
			return
		}

		provided := extractKey(c)
		if provided == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			c.Abort()
			return
		}

		if isMasterKey(provided) {
			c.Set("auth_method", "master_key")
			c.Next()
			return
		}

		keyService := database.NewAPIKeyService(database.DB)
		apiKey, err := keyService.ValidateAPIKey(provided)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		c.Set("api_key", apiKey)
		c.Set("auth_method", "api_key")
		c.Next()
	}
}

// ResultAccess authorizes image downloads with either a signed result
// token or the regular API key scheme. Tokens let results be embedded
// in img tags without exposing a key.
func ResultAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Enabled() {
			c.Next()
			return
		}

		if tokenString := c.Query("token"); tokenString != "" {
			jobID, err := VerifyResultToken(tokenString)
			if err != nil || jobID.String() != c.Param("id") {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid result token"})
				c.Abort()
				return
			}
			c.Set("auth_method", "result_token")
			c.Next()
			return
		}

		Middleware()(c)
	}
}

// GetCurrentAPIKey returns the key that authenticated this request, if any.
func GetCurrentAPIKey(c *gin.Context) *database.APIKey {
	if key, exists := c.Get("api_key"); exists {
		return key.(*database.APIKey)
	}
	return nil
}

// GetAuthMethod returns the authentication method used
func GetAuthMethod(c *gin.Context) string {
	if method, exists := c.Get("auth_method"); exists {
		return method.(string)
	}
	return ""
}

// EnsureBootstrapKey issues a first API key when auth is enabled but no
// usable key exists. The clear text is logged exactly once.
func EnsureBootstrapKey() error {
	if !Enabled() {
		return nil
	}
	if config.Get("API_KEY", "") != "" {
		// A static master key is configured, nothing to bootstrap.
		return nil
	}

	keyService := database.NewAPIKeyService(database.DB)
	hasKeys, err := keyService.HasActiveKeys()
	if err != nil {
		return err
	}
	if hasKeys {
		return nil
	}

	record, clearText, err := keyService.GenerateAPIKey("bootstrap", nil)
	if err != nil {
		return err
	}
	logging.WarnWithComponent(logging.ComponentAuth, "Generated bootstrap API key, it will not be shown again",
		"name", record.Name, "key", clearText)
	return nil
}
