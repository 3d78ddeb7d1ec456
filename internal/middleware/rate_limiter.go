package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/logging"
)

// RenderRateLimiter throttles render submissions per client IP using a
// token bucket. Rate and burst come from system settings so they can be
// tuned without a restart.
type RenderRateLimiter struct {
	db      *gorm.DB
	clients map[string]*clientLimiter
	mutex   sync.Mutex
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRenderRateLimiter creates a new render rate limiter
func NewRenderRateLimiter(db *gorm.DB) *RenderRateLimiter {
	rrl := &RenderRateLimiter{
		db:      db,
		clients: make(map[string]*clientLimiter),
	}

	// Evict idle client entries every hour
	go rrl.cleanupRoutine()

	return rrl
}

// RateLimit is a middleware that enforces the per-minute render budget
// for each client IP. A rate of zero disables limiting.
func (rrl *RenderRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		perMinute := rrl.getSettingInt("render_rate_per_minute", 30)
		burst := rrl.getSettingInt("render_burst", 10)
		if perMinute <= 0 {
			c.Next()
			return
		}
		if burst < 1 {
			burst = 1
		}

		ip := c.ClientIP()
		if !rrl.limiterFor(ip, perMinute, burst).Allow() {
			logging.WarnWithComponent(logging.ComponentAPI, "Render rate limit exceeded", "ip", ip)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"rate_limit": perMinute,
				"window":     "1 minute",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// UploadSizeLimit is a middleware that rejects request bodies over the
// configured upload limit.
func (rrl *RenderRateLimiter) UploadSizeLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		maxMB := rrl.getSettingInt("max_upload_mb", 32)
		maxBytes := int64(maxMB) << 20

		if c.Request.ContentLength > maxBytes {
			logging.WarnWithComponent(logging.ComponentAPI, "Upload too large", "size", c.Request.ContentLength, "limit", maxBytes, "ip", c.ClientIP())
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":    "Request payload too large",
				"max_size": fmt.Sprintf("%dMB", maxMB),
			})
			c.Abort()
			return
		}

		// Chunked uploads carry no Content-Length, cap the body read too.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// limiterFor returns the bucket for an IP, refreshing its rate so
// settings changes apply to existing clients.
func (rrl *RenderRateLimiter) limiterFor(ip string, perMinute, burst int) *rate.Limiter {
	rrl.mutex.Lock()
	defer rrl.mutex.Unlock()

	limit := rate.Every(time.Minute / time.Duration(perMinute))
	entry, ok := rrl.clients[ip]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(limit, burst)}
		rrl.clients[ip] = entry
	}
	entry.lastSeen = time.Now()
	if entry.limiter.Limit() != limit {
		entry.limiter.SetLimit(limit)
	}
	if entry.limiter.Burst() != burst {
		entry.limiter.SetBurst(burst)
	}
	return entry.limiter
}

// getSettingInt fetches an integer system setting with a fallback.
func (rrl *RenderRateLimiter) getSettingInt(key string, defaultValue int) int {
	var setting database.SystemSetting
	if err := rrl.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.ErrorWithComponent(logging.ComponentAPI, "Failed to read setting", "key", key, "error", err)
		}
		return defaultValue
	}

	value, err := strconv.Atoi(setting.Value)
	if err != nil {
		return defaultValue
	}
	return value
}

// cleanupRoutine removes idle client entries
func (rrl *RenderRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		rrl.cleanup()
	}
}

// cleanup drops clients not seen for over an hour
func (rrl *RenderRateLimiter) cleanup() {
	rrl.mutex.Lock()
	defer rrl.mutex.Unlock()

	cutoff := time.Now().Add(-time.Hour)
	for ip, entry := range rrl.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(rrl.clients, ip)
		}
	}
}
