package database

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherlab/internal/logging"
)

// RunMigrations runs any pending database migrations using gormigrate
func RunMigrations() error {
	m := gormigrate.New(DB, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202603140000_initial_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Preset{}, &RenderJob{}, &SystemSetting{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&Preset{}, &RenderJob{}, &SystemSetting{})
			},
		},
		{
			ID: "202604020000_add_api_keys",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&APIKey{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&APIKey{})
			},
		},
		{
			ID: "202605180000_add_job_attempts",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasColumn(&RenderJob{}, "attempts") {
					return nil
				}
				if err := tx.Exec("ALTER TABLE render_jobs ADD COLUMN attempts INTEGER DEFAULT 0").Error; err != nil {
					return fmt.Errorf("failed to add attempts column: %w", err)
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				// SQLite cannot drop columns easily; leave it in place.
				return nil
			},
		},
		{
			ID: "202607090000_add_job_thumbnails",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasColumn(&RenderJob{}, "thumb_path") {
					return nil
				}
				if err := tx.Exec("ALTER TABLE render_jobs ADD COLUMN thumb_path TEXT DEFAULT ''").Error; err != nil {
					return fmt.Errorf("failed to add thumb_path column: %w", err)
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return nil
			},
		},
	})

	// Fresh databases get the full current schema in one step and all
	// migrations marked as applied.
	m.InitSchema(func(tx *gorm.DB) error {
		for _, model := range GetAllModels() {
			if err := tx.AutoMigrate(model); err != nil {
				return fmt.Errorf("failed to migrate %T: %w", model, err)
			}
		}
		return nil
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.DebugWithComponent(logging.ComponentDatabase, "Migrations completed")
	return nil
}
