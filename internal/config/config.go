// Package config persists the operator calibration to a small JSON file.
// Load never fails: a missing or corrupt file yields the factory defaults.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pvillani/soilnode/internal/model"
)

// Load reads the calibration file at path. Absent or unreadable content is
// not an error; the defaults are the fallback by contract.
func Load(path string) model.CalibrationConfig {
	cfg := model.DefaultCalibration()

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("config: read %s: %v (using defaults)", path, err)
		}
		return cfg
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		log.Printf("config: bad JSON in %s: %v (using defaults)", path, err)
		return model.DefaultCalibration()
	}
	cfg.Normalize()
	return cfg
}

// Save writes cfg to path atomically (temp file + rename). Callers log a
// failed save once and never retry.
func Save(path string, cfg model.CalibrationConfig) error {
	cfg.Normalize()
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal calibration: %w", err)
	}

	tmp := path + ".tmp"
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
