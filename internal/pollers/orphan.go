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

// OrphanPoller sweeps stored files no job references, such as artifacts
// left behind by a crash between writing a file and recording its path.
type OrphanPoller struct {
	*BasePoller
	db    *gorm.DB
	store *storage.ResultStore
}

// NewOrphanPoller creates a new orphan sweep poller
func NewOrphanPoller(db *gorm.DB, store *storage.ResultStore) *OrphanPoller {
	interval := config.GetDuration("ORPHAN_SWEEP_INTERVAL", 24*time.Hour)
	enabled := config.Get("ORPHAN_SWEEP", "true") != "false"

	cfg := PollerConfig{
		Name:       "orphan-sweep",
		Interval:   interval,
		Enabled:    enabled,
		MaxRetries: 2,
		RetryDelay: time.Minute,
		Timeout:    5 * time.Minute,
	}

	poller := &OrphanPoller{
		db:    db,
		store: store,
	}
	poller.BasePoller = NewBasePoller(cfg, poller.poll)
	return poller
}

// poll removes stored files whose keys no job row references
func (p *OrphanPoller) poll(ctx context.Context) error {
	var rows []struct {
		SourcePath string
		ImagePath  string
		ThumbPath  string
	}
	err := p.db.WithContext(ctx).Model(&database.RenderJob{}).
		Select("source_path", "image_path", "thumb_path").
		Find(&rows).Error
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(rows)*3)
	for _, row := range rows {
		for _, key := range []string{row.SourcePath, row.ImagePath, row.ThumbPath} {
			if key != "" {
				known[key] = struct{}{}
			}
		}
	}

	removed, err := p.store.SweepOrphans(ctx, time.Hour, func(key string) bool {
		_, ok := known[key]
		return ok
	})
	if err != nil {
		return err
	}
	if removed > 0 {
		logging.InfoWithComponent(logging.ComponentCleanup, "Swept orphaned files", "count", removed)
	}
	return nil
}
