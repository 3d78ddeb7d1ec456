package main

import (
	// standard library
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// third-party
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	// internal
	"github.com/rmitchellscott/ditherlab/internal/auth"
	"github.com/rmitchellscott/ditherlab/internal/bootstrap"
	"github.com/rmitchellscott/ditherlab/internal/config"
	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/handlers"
	"github.com/rmitchellscott/ditherlab/internal/logging"
	"github.com/rmitchellscott/ditherlab/internal/middleware"
	"github.com/rmitchellscott/ditherlab/internal/pollers"
	"github.com/rmitchellscott/ditherlab/internal/sse"
	"github.com/rmitchellscott/ditherlab/internal/storage"
	"github.com/rmitchellscott/ditherlab/internal/version"
	"github.com/rmitchellscott/ditherlab/internal/workers"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println(version.String())
		os.Exit(0)
	}

	logging.InfoWithComponent(logging.ComponentStartup, "Starting ditherlab", "version", version.String())

	if err := database.Initialize(); err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, "Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	db := database.GetDB()
	if err := bootstrap.BootstrapFactoryPresets(db); err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, "Failed to load factory presets", "error", err)
		os.Exit(1)
	}

	if err := auth.EnsureBootstrapKey(); err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, "Failed to issue bootstrap API key", "error", err)
		os.Exit(1)
	}

	// Initialize SSE service
	sse.InitializeSSEService()

	store := storage.DefaultResultStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the render worker pool. Queued jobs left over from a
	// previous run are picked up again here.
	pool := workers.NewRenderPool(db, store,
		config.GetInt("RENDER_WORKERS", 2),
		config.GetInt("RENDER_QUEUE_SIZE", 64),
	)
	if err := pool.Start(ctx); err != nil {
		logging.Error("[STARTUP] Failed to start worker pool", "error", err)
		os.Exit(1)
	}

	// Background retention and orphan sweeps
	pollerManager := pollers.NewManager()
	pollerManager.Register(pollers.NewCleanupPoller(db, store))
	pollerManager.Register(pollers.NewOrphanPoller(db, store))

	if err := pollerManager.Start(ctx); err != nil {
		logging.Error("[STARTUP] Failed to start pollers", "error", err)
		os.Exit(1)
	}

	// Start SSE keep-alive service
	sseService := sse.GetSSEService()
	go sseService.KeepAlive(ctx)

	port := config.Get("PORT", "")
	if port == "" {
		port = "8000"
	}
	addr := ":" + port

	if mode := config.Get("GIN_MODE", ""); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Configure CORS for browser-based callers
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		"X-API-Key",
	}
	router.Use(cors.New(corsConfig))

	rateLimiter := middleware.NewRenderRateLimiter(db)

	// Public endpoints (no authentication required)
	router.GET("/api/healthz", handlers.HealthHandler)
	router.GET("/api/config", handlers.ConfigHandler)
	router.GET("/api/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	})

	// Result fetches accept signed URL tokens in place of normal auth
	// so browser <img> tags can load them.
	router.GET("/api/jobs/:id/image", auth.ResultAccess(), handlers.JobImageHandler)
	router.GET("/api/jobs/:id/thumbnail", auth.ResultAccess(), handlers.JobThumbnailHandler)

	// Protected routes (require an API key when auth is enabled)
	api := router.Group("/api")
	api.Use(auth.Middleware())

	api.GET("/methods", handlers.GetMethodsHandler) // GET /api/methods - list dithering methods

	// Render endpoints carry the per-IP rate limit and upload cap
	api.POST("/render",
		rateLimiter.UploadSizeLimit(),
		rateLimiter.RateLimit(),
		handlers.RenderHandler,
	)
	api.POST("/jobs",
		rateLimiter.UploadSizeLimit(),
		rateLimiter.RateLimit(),
		handlers.CreateJobHandler,
	)

	jobs := api.Group("/jobs")
	{
		jobs.GET("", handlers.ListJobsHandler)         // GET /api/jobs - list jobs
		jobs.GET("/events", handlers.JobEventsHandler) // GET /api/jobs/events - SSE job updates
		jobs.GET("/:id", handlers.GetJobHandler)       // GET /api/jobs/:id - job status
		jobs.DELETE("/:id", handlers.DeleteJobHandler) // DELETE /api/jobs/:id - delete job and files
	}

	presets := api.Group("/presets")
	{
		presets.GET("", handlers.GetPresetsHandler)          // GET /api/presets - list presets
		presets.POST("", handlers.CreatePresetHandler)       // POST /api/presets - create preset
		presets.GET("/:id", handlers.GetPresetHandler)       // GET /api/presets/:id - get preset
		presets.PUT("/:id", handlers.UpdatePresetHandler)    // PUT /api/presets/:id - update preset
		presets.DELETE("/:id", handlers.DeletePresetHandler) // DELETE /api/presets/:id - delete preset
	}

	api.GET("/status", handlers.StatusHandler(pool, pollerManager)) // GET /api/status - service status

	admin := api.Group("/admin")
	{
		admin.GET("/keys", handlers.GetAPIKeysHandler)                       // GET /api/admin/keys - list API keys
		admin.POST("/keys", handlers.CreateAPIKeyHandler)                    // POST /api/admin/keys - create API key
		admin.POST("/keys/:id/deactivate", handlers.DeactivateAPIKeyHandler) // POST /api/admin/keys/:id/deactivate - deactivate key
		admin.DELETE("/keys/:id", handlers.DeleteAPIKeyHandler)              // DELETE /api/admin/keys/:id - delete key
		admin.GET("/settings", handlers.GetSettingsHandler)                  // GET /api/admin/settings - list system settings
		admin.PUT("/settings/:key", handlers.UpdateSettingHandler)           // PUT /api/admin/settings/:key - update setting
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logging.Info("[STARTUP] Listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("[STARTUP] Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("[SHUTDOWN] Shutting down server, workers, and pollers")

	// Stop background work first so no new files or rows appear while
	// the HTTP server drains.
	if err := pollerManager.Stop(); err != nil {
		logging.Error("[SHUTDOWN] Error stopping pollers", "error", err)
	}
	if err := pool.Stop(); err != nil {
		logging.Error("[SHUTDOWN] Error stopping worker pool", "error", err)
	}

	// Give a timeout context for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("[SHUTDOWN] Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logging.Info("[SHUTDOWN] Server, workers, and pollers stopped")
}
