package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Tau0 != 1 {
		t.Errorf("expected tau0 1, got %d", cfg.Tau0)
	}
	if len(cfg.TauMultiples) != 2 {
		t.Errorf("expected 2 tau multiples, got %d", len(cfg.TauMultiples))
	}
	if cfg.CondThreshold <= 0 {
		t.Error("cond threshold should be positive")
	}
	if cfg.MinSampleRatio <= 1 {
		t.Error("min sample ratio should exceed 1")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limfit.yaml")

	cfg := DefaultConfig()
	cfg.Tau0 = 3
	cfg.TauMultiples = []int{2, 4}
	cfg.TauDivergence = 0.75

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Tau0 != 3 {
		t.Errorf("expected tau0 3, got %d", got.Tau0)
	}
	if len(got.TauMultiples) != 2 || got.TauMultiples[1] != 4 {
		t.Errorf("tau multiples not preserved: %v", got.TauMultiples)
	}
	if got.TauDivergence != 0.75 {
		t.Errorf("expected tau divergence 0.75, got %f", got.TauDivergence)
	}
}

func TestLoadPartialUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limfit.yaml")
	if err := os.WriteFile(path, []byte("tau0: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tau0 != 2 {
		t.Errorf("expected tau0 2, got %d", cfg.Tau0)
	}
	if cfg.CondThreshold != DefaultCondThreshold {
		t.Errorf("expected default cond threshold, got %g", cfg.CondThreshold)
	}
}

func TestLoadIntoOverlaysPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limfit.yaml")
	if err := os.WriteFile(path, []byte("tau0: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("strict")
	if err := LoadInto(path, cfg); err != nil {
		t.Fatalf("load into: %v", err)
	}
	if cfg.Tau0 != 4 {
		t.Errorf("expected tau0 4 from file, got %d", cfg.Tau0)
	}
	if cfg.CondThreshold != 1e8 {
		t.Errorf("preset cond threshold must survive the overlay, got %g", cfg.CondThreshold)
	}
	if cfg.MinSampleRatio != 10 {
		t.Errorf("preset sample ratio must survive the overlay, got %f", cfg.MinSampleRatio)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("strict")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.CondThreshold != 1e8 {
		t.Errorf("expected cond threshold 1e8, got %g", cfg.CondThreshold)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != 3 {
		t.Fatalf("expected 3 presets, got %d", len(names))
	}
	if names[0] != "default" {
		t.Errorf("expected sorted names, got %v", names)
	}
}

func TestTolerances(t *testing.T) {
	cfg := GetPreset("lenient")
	tol := cfg.Tolerances()
	if tol.TauDivergence != 1.0 {
		t.Errorf("expected tau divergence 1.0, got %f", tol.TauDivergence)
	}
	if tol.QEigenTolerance != 1e-6 {
		t.Errorf("expected q eigen tolerance 1e-6, got %g", tol.QEigenTolerance)
	}
}
