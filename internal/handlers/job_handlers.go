package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherlab/internal/auth"
	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/imageprocessing"
	"github.com/rmitchellscott/ditherlab/internal/logging"
	"github.com/rmitchellscott/ditherlab/internal/sse"
	"github.com/rmitchellscott/ditherlab/internal/storage"
	"github.com/rmitchellscott/ditherlab/internal/utils"
)

// CreateJobHandler persists a render job and leaves it queued for the
// worker pool. Responds 202 with the job row and signed result URLs.
func CreateJobHandler(c *gin.Context) {
	data, _, settings, err := resolveRenderInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	width, height, format, err := imageprocessing.SniffImage(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode settings"})
		return
	}

	jobID := uuid.New()
	store := storage.DefaultResultStore()
	sourceKey, err := store.StoreSource(c.Request.Context(), jobID, format, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store source image"})
		return
	}

	db := database.GetDB()
	jobService := database.NewJobService(db)
	job, err := jobService.CreateJob(jobID, settingsJSON, format, sourceKey, width, height, int64(len(data)))
	if err != nil {
		store.Remove(c.Request.Context(), sourceKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	logging.InfoWithComponent(logging.ComponentAPI, "Render job queued",
		"job_id", job.ID,
		"format", format,
		"source_width", width,
		"source_height", height,
		"method", settings.Method,
	)

	sse.GetSSEService().BroadcastJobUpdate(job.ID, job.Status, "Job queued", nil)

	resp := gin.H{"job": job}
	addResultURLs(c, resp, job.ID)
	c.JSON(http.StatusAccepted, resp)
}

// addResultURLs attaches token-signed image URLs to a job response so
// browser <img> tags can fetch results without Authorization headers.
func addResultURLs(c *gin.Context, resp gin.H, jobID uuid.UUID) {
	token, err := auth.SignResultToken(jobID, auth.ResultTokenTTL())
	if err != nil {
		logging.WarnWithComponent(logging.ComponentAPI, "Failed to sign result token", "job_id", jobID, "error", err)
		return
	}
	base := utils.BaseURLFromRequest(c.Request)
	resp["image_url"] = fmt.Sprintf("%s/api/jobs/%s/image?token=%s", base, jobID, token)
	resp["thumbnail_url"] = fmt.Sprintf("%s/api/jobs/%s/thumbnail?token=%s", base, jobID, token)
}

func validJobStatus(status string) bool {
	switch status {
	case database.JobStatusQueued, database.JobStatusProcessing, database.JobStatusCompleted, database.JobStatusFailed:
		return true
	}
	return false
}

// ListJobsHandler returns jobs newest first with pagination.
func ListJobsHandler(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !validJobStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	limitStr := c.DefaultQuery("limit", "50")
	offsetStr := c.DefaultQuery("offset", "0")

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}

	jobService := database.NewJobService(database.GetDB())
	jobs, err := jobService.ListJobs(status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch jobs"})
		return
	}
	totalCount, err := jobService.CountJobs(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":        jobs,
		"total_count": totalCount,
		"limit":       limit,
		"offset":      offset,
	})
}

// GetJobHandler returns one job row, with signed result URLs once the
// job has completed.
func GetJobHandler(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	job, err := database.NewJobService(database.GetDB()).GetJobByID(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	resp := gin.H{"job": job}
	if job.Status == database.JobStatusCompleted {
		addResultURLs(c, resp, job.ID)
	}
	c.JSON(http.StatusOK, resp)
}

// JobImageHandler streams the rendered PNG for a completed job.
func JobImageHandler(c *gin.Context) {
	serveJobFile(c, func(job *database.RenderJob) string { return job.ImagePath })
}

// JobThumbnailHandler streams the thumbnail PNG for a completed job.
func JobThumbnailHandler(c *gin.Context) {
	serveJobFile(c, func(job *database.RenderJob) string { return job.ThumbPath })
}

func serveJobFile(c *gin.Context, pick func(*database.RenderJob) string) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	job, err := database.NewJobService(database.GetDB()).GetJobByID(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	if job.Status != database.JobStatusCompleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result not ready", "status": job.Status})
		return
	}

	key := pick(job)
	if key == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result not available"})
		return
	}

	data, err := storage.DefaultResultStore().Read(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result not available"})
		return
	}

	// Result files are content-addressed and never rewritten.
	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, "image/png", data)
}

// DeleteJobHandler removes a job row and its stored files.
func DeleteJobHandler(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	job, err := database.NewJobService(database.GetDB()).DeleteJob(jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete job"})
		return
	}

	storage.DefaultResultStore().Remove(c.Request.Context(), job.SourcePath, job.ImagePath, job.ThumbPath)
	sse.GetSSEService().BroadcastJobUpdate(jobID, "deleted", "Job deleted", nil)

	c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully"})
}

// JobEventsHandler holds an SSE connection open for job lifecycle
// events until the client goes away.
func JobEventsHandler(c *gin.Context) {
	sseService := sse.GetSSEService()
	client := sseService.AddClient(c.Writer)
	if client == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to establish SSE connection"})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	select {
	case <-client.Done:
		logging.Logf("[SSE] Client %s closed by server", client.ID)
	case <-ctx.Done():
		logging.Logf("[SSE] Client %s disconnected", client.ID)
	}

	sseService.RemoveClient(client.ID)
}
