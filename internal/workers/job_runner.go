package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/imageprocessing"
	"github.com/rmitchellscott/ditherlab/internal/logging"
	"github.com/rmitchellscott/ditherlab/internal/storage"
)

// JobRunner executes the render pipeline for one job: load the source,
// dither it, encode the result, and persist the artifacts.
type JobRunner struct {
	jobs  *database.JobService
	store *storage.ResultStore
}

// NewJobRunner creates a new job runner
func NewJobRunner(jobs *database.JobService, store *storage.ResultStore) *JobRunner {
	return &JobRunner{
		jobs:  jobs,
		store: store,
	}
}

// Run processes one job to completion and records the result. The
// returned job carries the stored artifact paths and timing.
func (r *JobRunner) Run(ctx context.Context, jobID uuid.UUID) (*database.RenderJob, error) {
	start := time.Now()

	job, err := r.jobs.GetJobByID(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	settings, err := job.DecodeSettings()
	if err != nil {
		return job, err
	}

	sourceData, err := r.store.Read(ctx, job.SourcePath)
	if err != nil {
		return job, fmt.Errorf("failed to read source image: %w", err)
	}

	img, _, err := imageprocessing.DecodeImage(sourceData)
	if err != nil {
		return job, fmt.Errorf("failed to decode source image: %w", err)
	}

	maxDim := database.GetSystemSettingInt("max_render_dimension", 4096)
	img = imageprocessing.FitWithin(img, maxDim, maxDim)

	rendered, err := imageprocessing.Render(img, settings)
	if err != nil {
		return job, fmt.Errorf("failed to render image: %w", err)
	}

	resultPNG, err := imageprocessing.EncodeMonoPNG(rendered)
	if err != nil {
		return job, fmt.Errorf("failed to encode result: %w", err)
	}

	resultKey, err := r.store.StoreResult(ctx, job.ID, resultPNG)
	if err != nil {
		return job, err
	}

	// The thumbnail is best effort, a job without one is still complete.
	thumbKey := ""
	thumbEdge := database.GetSystemSettingInt("thumbnail_width", imageprocessing.ThumbnailMaxEdge)
	thumb := imageprocessing.RenderThumbnail(rendered, thumbEdge)
	if thumbPNG, err := imageprocessing.EncodeMonoPNG(thumb); err != nil {
		logging.WarnWithComponent(logging.ComponentWorker, "Failed to encode thumbnail", "job_id", job.ID, "error", err)
	} else if key, err := r.store.StoreThumbnail(ctx, job.ID, thumbPNG); err != nil {
		logging.WarnWithComponent(logging.ComponentWorker, "Failed to store thumbnail", "job_id", job.ID, "error", err)
	} else {
		thumbKey = key
	}

	bounds := rendered.Bounds()
	durationMs := time.Since(start).Milliseconds()
	if err := r.jobs.MarkCompleted(job.ID, resultKey, thumbKey, bounds.Dx(), bounds.Dy(), int64(len(resultPNG)), durationMs); err != nil {
		return job, fmt.Errorf("failed to record completion: %w", err)
	}

	job.Status = database.JobStatusCompleted
	job.ImagePath = resultKey
	job.ThumbPath = thumbKey
	job.Width = bounds.Dx()
	job.Height = bounds.Dy()
	job.ImageSize = int64(len(resultPNG))
	job.DurationMs = durationMs
	return job, nil
}
