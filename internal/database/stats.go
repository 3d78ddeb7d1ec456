package database

import (
	"gorm.io/gorm"
)

// DatabaseStats holds statistics about the database
type DatabaseStats struct {
	TotalPresets   int64 `json:"total_presets"`
	FactoryPresets int64 `json:"factory_presets"`
	TotalJobs      int64 `json:"total_jobs"`
	QueuedJobs     int64 `json:"queued_jobs"`
	ProcessingJobs int64 `json:"processing_jobs"`
	CompletedJobs  int64 `json:"completed_jobs"`
	FailedJobs     int64 `json:"failed_jobs"`
	ActiveAPIKeys  int64 `json:"active_api_keys"`
}

// GetDatabaseStats returns database statistics
func GetDatabaseStats(db *gorm.DB) (*DatabaseStats, error) {
	stats := &DatabaseStats{}

	if err := db.Model(&Preset{}).Count(&stats.TotalPresets).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Preset{}).Where("is_factory = ?", true).Count(&stats.FactoryPresets).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&RenderJob{}).Count(&stats.TotalJobs).Error; err != nil {
		return nil, err
	}

	statusCounts := map[string]*int64{
		JobStatusQueued:     &stats.QueuedJobs,
		JobStatusProcessing: &stats.ProcessingJobs,
		JobStatusCompleted:  &stats.CompletedJobs,
		JobStatusFailed:     &stats.FailedJobs,
	}
	for status, target := range statusCounts {
		if err := db.Model(&RenderJob{}).Where("status = ?", status).Count(target).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Model(&APIKey{}).Where("is_active = ?", true).Count(&stats.ActiveAPIKeys).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
