package config

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	if got, want := DefaultGameConfig(), hardcodedDefaults(); !reflect.DeepEqual(got, want) {
		t.Errorf("embedded defaults drifted from hardcoded fallback:\n got  %+v\n want %+v", got, want)
	}
	if err := DefaultGameConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadGameCustomPathLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	data := []byte("runner:\n  window_seconds: 10\nscoring:\n  answer_value: 50\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGame(path)
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}
	if cfg.Runner.WindowSeconds != 10 {
		t.Errorf("window_seconds = %v, expected 10", cfg.Runner.WindowSeconds)
	}
	if cfg.Scoring.AnswerValue != 50 {
		t.Errorf("answer_value = %d, expected 50", cfg.Scoring.AnswerValue)
	}
	// Untouched keys keep their defaults
	if cfg.Scoring.TokenEvery != 5 || cfg.Runner.PlayerRow != 340 {
		t.Errorf("unspecified keys should keep defaults, got %+v", cfg.Scoring)
	}
}

func TestLoadGameMissingCustomPath(t *testing.T) {
	if _, err := LoadGame(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing custom config")
	}
}

func TestLoadGameRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("runner:\n  player_row: 9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGame(path); err == nil {
		t.Error("expected validation error for player_row outside the track")
	}
}

func TestDifficultyCurvesNonDecreasing(t *testing.T) {
	cfg := DefaultGameConfig()
	dm := NewDifficultyManager(cfg.Difficulty, cfg.Runner)

	prevSpeed, prevHazard, prevCollect := -1.0, -1.0, -1.0
	for i := 0; i < 100; i++ {
		speed, hazard, collect := dm.Speed(i), dm.HazardChance(i), dm.CollectibleChance(i)
		if speed < prevSpeed || hazard < prevHazard || collect < prevCollect {
			t.Fatalf("curve decreased at index %d: speed %f hazard %f collect %f", i, speed, hazard, collect)
		}
		prevSpeed, prevHazard, prevCollect = speed, hazard, collect
	}

	if dm.HazardChance(1000) > cfg.Runner.Spawn.HazardMax+1e-9 {
		t.Errorf("hazard chance should saturate at %f, got %f", cfg.Runner.Spawn.HazardMax, dm.HazardChance(1000))
	}
	if dm.Speed(1000) != cfg.Runner.Speed.Max {
		t.Errorf("speed should cap at %f, got %f", cfg.Runner.Speed.Max, dm.Speed(1000))
	}
	if dm.HazardChance(0) != cfg.Runner.Spawn.HazardMin {
		t.Errorf("hazard chance at index 0 = %f, expected %f", dm.HazardChance(0), cfg.Runner.Spawn.HazardMin)
	}
}

func TestHazardChanceCurve(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.Runner.Spawn.HazardMin = 0.02
	cfg.Runner.Spawn.HazardMax = 0.10
	cfg.Runner.Spawn.HazardRamp = 0.5
	dm := NewDifficultyManager(cfg.Difficulty, cfg.Runner)

	for _, d := range []int{0, 1, 4} {
		want := 0.02 + 0.08*(1-math.Exp(-0.5*float64(d)))
		if got := dm.HazardChance(d); math.Abs(got-want) > 1e-12 {
			t.Errorf("HazardChance(%d) = %f, expected %f", d, got, want)
		}
	}
}

func TestPresetOffset(t *testing.T) {
	cfg := DefaultGameConfig()
	ApplyPreset(&cfg, DifficultyHard)
	dm := NewDifficultyManager(cfg.Difficulty, cfg.Runner)

	if dm.Effective(0) != OffsetForPreset(DifficultyHard) {
		t.Errorf("Effective(0) = %d, expected hard offset %d", dm.Effective(0), OffsetForPreset(DifficultyHard))
	}
	if ParsePreset("nightmare") != "" {
		t.Error("unknown preset should parse to empty")
	}
}
