package bootstrap

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestEmbeddedPresetsAreValid(t *testing.T) {
	var catalog struct {
		Presets []factoryPreset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(presetsFile, &catalog); err != nil {
		t.Fatalf("parse embedded presets: %v", err)
	}
	if len(catalog.Presets) == 0 {
		t.Fatal("embedded catalog is empty")
	}

	seen := make(map[string]bool)
	for _, preset := range catalog.Presets {
		if preset.Name == "" {
			t.Error("preset with empty name")
		}
		if seen[preset.Name] {
			t.Errorf("duplicate preset name %q", preset.Name)
		}
		seen[preset.Name] = true

		if preset.Description == "" {
			t.Errorf("preset %q has no description", preset.Name)
		}

		settings := preset.Settings
		settings.Normalize()
		if err := settings.Validate(); err != nil {
			t.Errorf("preset %q: %v", preset.Name, err)
		}
	}
}
