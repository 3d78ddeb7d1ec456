package pollers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherlab/internal/config"
	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/logging"
	"github.com/rmitchellscott/ditherlab/internal/storage"
)

// CleanupPoller removes finished jobs past the retention window along
// with their stored files.
type CleanupPoller struct {
	*BasePoller
	db    *gorm.DB
	jobs  *database.JobService
	store *storage.ResultStore
}

// NewCleanupPoller creates a new cleanup poller
func NewCleanupPoller(db *gorm.DB, store *storage.ResultStore) *CleanupPoller {
	interval := config.GetDuration("CLEANUP_INTERVAL", time.Hour)
	enabled := config.Get("CLEANUP_POLLER", "true") != "false"

	cfg := PollerConfig{
		Name:       "cleanup",
		Interval:   interval,
		Enabled:    enabled,
		MaxRetries: 3,
		RetryDelay: 30 * time.Second,
		Timeout:    2 * time.Minute,
	}

	poller := &CleanupPoller{
		db:    db,
		jobs:  database.NewJobService(db),
		store: store,
	}
	poller.BasePoller = NewBasePoller(cfg, poller.poll)
	return poller
}

// poll deletes expired jobs and their stored artifacts
func (p *CleanupPoller) poll(ctx context.Context) error {
	retentionDays := database.GetSystemSettingInt("result_retention_days", 30)
	if retentionDays <= 0 {
		return nil // Retention disabled
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	jobs, err := p.jobs.DeleteJobsOlderThan(cutoff)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	for _, job := range jobs {
		p.store.Remove(ctx, job.SourcePath, job.ImagePath, job.ThumbPath)
	}

	logging.InfoWithComponent(logging.ComponentCleanup, "Removed expired jobs",
		"count", len(jobs), "retention_days", retentionDays)
	return nil
}
