package database

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PresetService provides preset-related database operations
type PresetService struct {
	db *gorm.DB
}

// NewPresetService creates a new preset service
func NewPresetService(db *gorm.DB) *PresetService {
	return &PresetService{db: db}
}

// CreatePreset stores a new named settings preset.
func (s *PresetService) CreatePreset(name, description string, settings datatypes.JSON) (*Preset, error) {
	var existing Preset
	if err := s.db.Where("LOWER(name) = LOWER(?)", name).First(&existing).Error; err == nil {
		return nil, errors.New("preset with this name already exists")
	}

	preset := &Preset{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Settings:    settings,
	}
	if err := s.db.Create(preset).Error; err != nil {
		return nil, fmt.Errorf("failed to create preset: %w", err)
	}
	return preset, nil
}

// GetPresetByID retrieves a preset by ID.
func (s *PresetService) GetPresetByID(id uuid.UUID) (*Preset, error) {
	var preset Preset
	if err := s.db.First(&preset, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &preset, nil
}

// GetPresetByName retrieves a preset by its unique name.
func (s *PresetService) GetPresetByName(name string) (*Preset, error) {
	var preset Preset
	if err := s.db.First(&preset, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &preset, nil
}

// ListPresets returns all presets, factory entries first, then by name.
func (s *PresetService) ListPresets() ([]Preset, error) {
	var presets []Preset
	if err := s.db.Order("is_factory DESC, name ASC").Find(&presets).Error; err != nil {
		return nil, err
	}
	return presets, nil
}

// UpdatePreset modifies a user preset. Factory presets are read-only.
func (s *PresetService) UpdatePreset(id uuid.UUID, name, description string, settings datatypes.JSON) (*Preset, error) {
	preset, err := s.GetPresetByID(id)
	if err != nil {
		return nil, err
	}
	if preset.IsFactory {
		return nil, errors.New("factory presets cannot be modified")
	}

	preset.Name = name
	preset.Description = description
	preset.Settings = settings
	if err := s.db.Save(preset).Error; err != nil {
		return nil, fmt.Errorf("failed to update preset: %w", err)
	}
	return preset, nil
}

// DeletePreset removes a user preset. Factory presets are protected.
func (s *PresetService) DeletePreset(id uuid.UUID) error {
	preset, err := s.GetPresetByID(id)
	if err != nil {
		return err
	}
	if preset.IsFactory {
		return errors.New("factory presets cannot be deleted")
	}
	return s.db.Delete(preset).Error
}

// UpsertFactoryPreset creates or refreshes a factory preset by name.
// User presets with the same name are left untouched.
func (s *PresetService) UpsertFactoryPreset(name, description string, settings datatypes.JSON) error {
	var preset Preset
	err := s.db.First(&preset, "name = ?", name).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		preset = Preset{
			ID:          uuid.New(),
			Name:        name,
			Description: description,
			Settings:    settings,
			IsFactory:   true,
		}
		return s.db.Create(&preset).Error
	case err != nil:
		return err
	case !preset.IsFactory:
		return nil
	default:
		preset.Description = description
		preset.Settings = settings
		return s.db.Save(&preset).Error
	}
}
