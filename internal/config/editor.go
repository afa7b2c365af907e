package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bunpeg/bunpeg-editor/internal/editor"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

const EditorFilename = "editor.yaml"

// EditorConfig tunes the timeline editor.
type EditorConfig struct {
	timeline.Options `yaml:",inline"`
	DragThresholdPx  float64 `yaml:"drag_threshold_px"`
}

func DefaultEditorConfig() EditorConfig {
	return EditorConfig{
		Options:         timeline.DefaultOptions(),
		DragThresholdPx: editor.DefaultDragThresholdPx,
	}
}

func (e EditorConfig) Validate() error {
	var errs []error
	if e.GridInterval < 0 {
		errs = append(errs, errors.New("grid_interval_seconds must not be negative"))
	}
	if e.SnapTolerance < 0 {
		errs = append(errs, errors.New("snap_tolerance_seconds must not be negative"))
	}
	if e.MinSegmentDuration <= 0 {
		errs = append(errs, errors.New("min_segment_duration_seconds must be positive"))
	}
	if e.DragThresholdPx <= 0 {
		errs = append(errs, errors.New("drag_threshold_px must be positive"))
	}
	return errors.Join(errs...)
}

// LoadEditorFile reads editor settings from YAML. Keys missing from the
// file keep their defaults.
func LoadEditorFile(path string) (EditorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EditorConfig{}, fmt.Errorf("failed to read editor config: %w", err)
	}

	cfg := DefaultEditorConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EditorConfig{}, fmt.Errorf("failed to parse editor config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return EditorConfig{}, fmt.Errorf("invalid editor config %s: %w", path, err)
	}
	return cfg, nil
}

// FindEditorFile searches the working directory, then the data directory.
// Returns empty string if not found (non-fatal).
func FindEditorFile(dataDir string) string {
	locations := []string{
		EditorFilename,
		filepath.Join(dataDir, EditorFilename),
	}
	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// SaveEditorFile writes cfg as YAML, creating the directory if needed.
func SaveEditorFile(cfg EditorConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal editor config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write editor config: %w", err)
	}
	return nil
}
