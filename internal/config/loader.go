package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/game.yaml
var defaultGameYAML []byte

// DefaultGameConfig returns the embedded default configuration.
// It falls back to hardcoded values if the embedded YAML cannot be parsed.
func DefaultGameConfig() GameConfig {
	var cfg GameConfig
	if err := yaml.Unmarshal(defaultGameYAML, &cfg); err != nil {
		return hardcodedDefaults()
	}
	return cfg
}

// LoadGame loads the game configuration.
// Search order: customPath -> ~/.spacerunner/configs/game.yaml -> ./configs/game.yaml -> embedded default.
// Files are layered over the defaults, so a partial file only overrides what it names.
func LoadGame(customPath string) (GameConfig, error) {
	cfg := DefaultGameConfig()

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, cfg.Validate()
	}

	for _, path := range []string{userConfigPath("game.yaml"), filepath.Join("configs", "game.yaml")} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		layered := cfg
		if err := yaml.Unmarshal(data, &layered); err == nil && layered.Validate() == nil {
			return layered, nil
		}
	}

	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c GameConfig) Validate() error {
	r := c.Runner
	switch {
	case r.TrackLength <= 0:
		return fmt.Errorf("config: runner.track_length must be positive")
	case r.PlayerRow <= 0 || r.PlayerRow >= r.TrackLength:
		return fmt.Errorf("config: runner.player_row must lie inside the track")
	case r.WindowSeconds <= 0:
		return fmt.Errorf("config: runner.window_seconds must be positive")
	case r.Patterns.Single+r.Patterns.Adjacent+r.Patterns.Split <= 0:
		return fmt.Errorf("config: runner.patterns needs at least one positive weight")
	case c.Scoring.TokenEvery <= 0:
		return fmt.Errorf("config: scoring.token_every must be positive")
	}
	return nil
}

// ApplyPreset modifies the config based on a difficulty preset.
func ApplyPreset(cfg *GameConfig, preset DifficultyPreset) {
	if preset == "" {
		return
	}
	cfg.Difficulty.Offset = OffsetForPreset(preset)
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".spacerunner", "configs", filename)
}

func hardcodedDefaults() GameConfig {
	return GameConfig{
		Runner: RunnerConfig{
			TrackLength:   400,
			PlayerRow:     340,
			SpawnPosition: -50,
			DespawnMargin: 50,
			WindowSeconds: 30,
			Easing:        0.2,
			Stars:         40,
			Speed:         SpeedConfig{Base: 5, PerLevel: 0.5, Max: 12},
			Spawn: SpawnConfig{
				HazardMin:           0.012,
				HazardMax:           0.03,
				HazardRamp:          0.15,
				CollectibleBase:     0.025,
				CollectiblePerLevel: 0.0025,
				CollectibleMax:      0.05,
			},
			Patterns:     PatternWeights{Single: 0.6, Adjacent: 0.15, Split: 0.25},
			Collectibles: CollectibleSkin{StarValue: 1, ShipValue: 2, ShipChance: 0.2},
			Collision:    CollisionConfig{HazardBand: 40, CollectibleBand: 30},
		},
		Scoring:    ScoringConfig{AnswerValue: 20, TokenEvery: 5},
		Session:    SessionConfig{DefaultQuestions: 5, MaxQuestions: 30, HandoffDelayMilli: 500},
		Difficulty: DifficultyConfig{Offset: 0, MaxAt: 20},
	}
}
