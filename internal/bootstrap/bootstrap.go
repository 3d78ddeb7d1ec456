package bootstrap

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/dither"
	"github.com/rmitchellscott/ditherlab/internal/logging"
)

//go:embed presets.yml
var presetsFile []byte

// factoryPreset is one entry in the embedded preset catalog
type factoryPreset struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Settings    dither.Settings `yaml:"settings"`
}

// BootstrapFactoryPresets syncs the embedded preset catalog into the
// database. Factory presets are refreshed on every start so upgrades
// pick up catalog changes; user presets are never touched.
func BootstrapFactoryPresets(db *gorm.DB) error {
	var catalog struct {
		Presets []factoryPreset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(presetsFile, &catalog); err != nil {
		return fmt.Errorf("failed to parse embedded presets: %w", err)
	}

	presetService := database.NewPresetService(db)
	for _, preset := range catalog.Presets {
		settings := preset.Settings
		settings.Normalize()
		if err := settings.Validate(); err != nil {
			return fmt.Errorf("embedded preset %s is invalid: %w", preset.Name, err)
		}

		encoded, err := json.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to encode preset %s: %w", preset.Name, err)
		}

		if err := presetService.UpsertFactoryPreset(preset.Name, preset.Description, datatypes.JSON(encoded)); err != nil {
			return fmt.Errorf("failed to bootstrap preset %s: %w", preset.Name, err)
		}
	}

	logging.InfoWithComponent(logging.ComponentBootstrap, "Factory presets loaded", "count", len(catalog.Presets))
	return nil
}
