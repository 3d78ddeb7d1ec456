package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherlab/internal/dither"
)

// Render job lifecycle states.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Preset is a named, reusable settings snapshot.
type Preset struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Settings    datatypes.JSON `gorm:"not null" json:"settings"`
	IsFactory   bool           `gorm:"default:false" json:"is_factory"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate sets UUID if not already set
func (p *Preset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DecodeSettings unpacks the stored settings snapshot.
func (p *Preset) DecodeSettings() (dither.Settings, error) {
	s := dither.Default()
	if len(p.Settings) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(p.Settings, &s); err != nil {
		return s, fmt.Errorf("preset %s has invalid settings: %w", p.Name, err)
	}
	s.Normalize()
	return s, nil
}

// RenderJob is one queued dithering request and its outcome.
type RenderJob struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Status       string         `gorm:"size:16;not null;index;default:'queued'" json:"status"`
	Settings     datatypes.JSON `gorm:"not null" json:"settings"`
	SourceFormat string         `gorm:"size:8" json:"source_format,omitempty"`
	SourceWidth  int            `json:"source_width,omitempty"`
	SourceHeight int            `json:"source_height,omitempty"`
	Width        int            `json:"width,omitempty"`
	Height       int            `json:"height,omitempty"`

	// Storage-relative file paths, never exposed to clients.
	SourcePath string `json:"-"`
	ImagePath  string `json:"-"`
	ThumbPath  string `json:"-"`

	ImageSize    int64  `json:"image_size,omitempty"`
	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`
	Attempts     int    `gorm:"default:0" json:"attempts"`
	DurationMs   int64  `json:"duration_ms,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (j *RenderJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// DecodeSettings unpacks the settings snapshot taken at submit time.
func (j *RenderJob) DecodeSettings() (dither.Settings, error) {
	s := dither.Default()
	if len(j.Settings) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(j.Settings, &s); err != nil {
		return s, fmt.Errorf("job %s has invalid settings: %w", j.ID, err)
	}
	s.Normalize()
	return s, nil
}

// APIKey authenticates API callers when auth is enabled.
type APIKey struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	KeyHash   string     `gorm:"not null;index" json:"-"`            // never return the key
	KeyPrefix string     `gorm:"size:16;not null" json:"key_prefix"` // leading chars for display
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (a *APIKey) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// SystemSetting represents system-wide configuration
type SystemSetting struct {
	Key         string    `gorm:"primaryKey" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// GetAllModels returns all models for auto-migration
func GetAllModels() []interface{} {
	return []interface{}{
		&Preset{},
		&RenderJob{},
		&APIKey{},
		&SystemSetting{},
	}
}
