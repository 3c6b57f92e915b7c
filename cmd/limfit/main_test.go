package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/climdyn/limfit/internal/lim"
	"github.com/climdyn/limfit/internal/storage"
	"github.com/climdyn/limfit/internal/synthetic"
)

func resetFlags(t *testing.T) {
	t.Helper()
	prevPreset, prevConfig := preset, configFile
	t.Cleanup(func() {
		preset, configFile = prevPreset, prevConfig
	})
}

func TestResolveConfigFileOverlaysPreset(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "limfit.yaml")
	if err := os.WriteFile(path, []byte("tau0: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	preset = "strict"
	configFile = path

	cfg, err := resolveConfig(&cobra.Command{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Tau0 != 4 {
		t.Errorf("expected tau0 4 from file, got %d", cfg.Tau0)
	}
	if cfg.CondThreshold != 1e8 {
		t.Errorf("preset cond threshold must survive the file overlay, got %g", cfg.CondThreshold)
	}
}

func TestResolveConfigUnknownPreset(t *testing.T) {
	resetFlags(t)
	preset = "nonexistent"

	if _, err := resolveConfig(&cobra.Command{}); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestFitFromArgsReturnsLoadedSeries(t *testing.T) {
	resetFlags(t)

	proc, err := synthetic.New(synthetic.Decay(2, 0.1), synthetic.IsotropicNoise(2, 1), 3)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	series, err := lim.NewSeries([]string{"x", "y"}, proc.Run(2000, 100))
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	path := filepath.Join(t.TempDir(), "data.json")
	if err := storage.SaveDataset(path, series); err != nil {
		t.Fatalf("save: %v", err)
	}

	model, got, err := fitFromArgs(&cobra.Command{}, path)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if model == nil {
		t.Fatal("expected a fitted model")
	}
	if got == nil {
		t.Fatal("expected the loaded series alongside the model")
	}
	if got.Vars() != 2 || got.Steps() != 2000 {
		t.Errorf("unexpected series shape %dx%d", got.Vars(), got.Steps())
	}
	if !mat.Equal(got.Data, series.Data) {
		t.Error("returned series must match the dataset on disk")
	}
}
