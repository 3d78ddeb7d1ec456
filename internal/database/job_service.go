package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobService provides render job-related database operations
type JobService struct {
	db *gorm.DB
}

// NewJobService creates a new job service
func NewJobService(db *gorm.DB) *JobService {
	return &JobService{db: db}
}

// CreateJob records a queued render job pointing at a stored source
// image. The caller picks the ID so the source file can be keyed by it
// before the row exists.
func (s *JobService) CreateJob(id uuid.UUID, settings datatypes.JSON, sourceFormat, sourcePath string, sourceWidth, sourceHeight int, imageSize int64) (*RenderJob, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	job := &RenderJob{
		ID:           id,
		Status:       JobStatusQueued,
		Settings:     settings,
		SourceFormat: sourceFormat,
		SourcePath:   sourcePath,
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
		ImageSize:    imageSize,
	}
	if err := s.db.Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create render job: %w", err)
	}
	return job, nil
}

// GetJobByID retrieves a job by ID.
func (s *JobService) GetJobByID(id uuid.UUID) (*RenderJob, error) {
	var job RenderJob
	if err := s.db.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns jobs newest first, optionally filtered by status.
func (s *JobService) ListJobs(status string, limit, offset int) ([]RenderJob, error) {
	query := s.db.Model(&RenderJob{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var jobs []RenderJob
	if err := query.Offset(offset).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkProcessing transitions a job to processing and counts the attempt.
func (s *JobService) MarkProcessing(id uuid.UUID) error {
	now := time.Now().UTC()
	return s.db.Model(&RenderJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     JobStatusProcessing,
		"started_at": now,
		"attempts":   gorm.Expr("attempts + 1"),
	}).Error
}

// MarkCompleted records the result artifacts and timing for a finished job.
func (s *JobService) MarkCompleted(id uuid.UUID, imagePath, thumbPath string, width, height int, imageSize, durationMs int64) error {
	now := time.Now().UTC()
	return s.db.Model(&RenderJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        JobStatusCompleted,
		"image_path":    imagePath,
		"thumb_path":    thumbPath,
		"width":         width,
		"height":        height,
		"image_size":    imageSize,
		"duration_ms":   durationMs,
		"error_message": "",
		"completed_at":  now,
	}).Error
}

// MarkFailed records a terminal failure with its message.
func (s *JobService) MarkFailed(id uuid.UUID, message string) error {
	now := time.Now().UTC()
	return s.db.Model(&RenderJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        JobStatusFailed,
		"error_message": message,
		"completed_at":  now,
	}).Error
}

// ResetStaleJobs re-queues jobs left in processing by an unclean shutdown.
func (s *JobService) ResetStaleJobs() (int64, error) {
	result := s.db.Model(&RenderJob{}).
		Where("status = ?", JobStatusProcessing).
		Updates(map[string]interface{}{
			"status":     JobStatusQueued,
			"started_at": nil,
		})
	return result.RowsAffected, result.Error
}

// PendingJobs returns queued jobs oldest first for worker pickup.
func (s *JobService) PendingJobs() ([]RenderJob, error) {
	var jobs []RenderJob
	if err := s.db.Where("status = ?", JobStatusQueued).Order("created_at ASC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// DeleteJob removes a job record and returns it so callers can remove
// its stored files.
func (s *JobService) DeleteJob(id uuid.UUID) (*RenderJob, error) {
	job, err := s.GetJobByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// DeleteJobsOlderThan removes finished jobs past the retention cutoff and
// returns the deleted records for file cleanup.
func (s *JobService) DeleteJobsOlderThan(cutoff time.Time) ([]RenderJob, error) {
	var jobs []RenderJob
	err := s.db.Where("status IN ? AND created_at < ?", []string{JobStatusCompleted, JobStatusFailed}, cutoff).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	if err := s.db.Delete(&RenderJob{}, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// CountJobs returns the number of jobs, optionally filtered by status.
func (s *JobService) CountJobs(status string) (int64, error) {
	query := s.db.Model(&RenderJob{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
