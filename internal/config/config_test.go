package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pvillani/soilnode/internal/model"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	got := Load(filepath.Join(t.TempDir(), "nope.json"))
	if got != model.DefaultCalibration() {
		t.Errorf("missing file: got %+v, want defaults", got)
	}
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soilnode.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := Load(path)
	if got != model.DefaultCalibration() {
		t.Errorf("corrupt file: got %+v, want defaults", got)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "soilnode.json")

	want := model.CalibrationConfig{
		DryRef:             3600,
		WetRef:             900,
		DryThresholdPct:    25,
		TargetPct:          70,
		MaxRetries:         3,
		SamplingIntervalMs: 2500,
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := Load(path); got != want {
		t.Errorf("roundtrip: got %+v, want %+v", got, want)
	}
}

func TestSaveNormalizesBeforeWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soilnode.json")

	cfg := model.DefaultCalibration()
	cfg.SamplingIntervalMs = 1 // below the floor
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := Load(path).SamplingIntervalMs; got != 1000 {
		t.Errorf("persisted interval %d, want 1000", got)
	}
}
