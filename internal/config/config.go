// Package config provides YAML-based game configuration loading and
// difficulty management for the runner.
package config

// GameConfig contains all tunables for one play-through.
type GameConfig struct {
	Runner     RunnerConfig     `yaml:"runner"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Session    SessionConfig    `yaml:"session"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

// RunnerConfig defines the arcade segment. Positions are in logical units
// along the travel axis; the platform scales them to the terminal.
type RunnerConfig struct {
	TrackLength   float64         `yaml:"track_length"`   // Logical height of the playfield
	PlayerRow     float64         `yaml:"player_row"`     // Fixed row of the player craft
	SpawnPosition float64         `yaml:"spawn_position"` // Where new entities appear (above the top edge)
	DespawnMargin float64         `yaml:"despawn_margin"` // Distance past the track end before culling
	WindowSeconds float64         `yaml:"window_seconds"` // Real-time length of a segment
	Easing        float64         `yaml:"easing"`         // Fraction of the gap the craft closes per frame (cosmetic)
	Speed         SpeedConfig     `yaml:"speed"`
	Spawn         SpawnConfig     `yaml:"spawn"`
	Patterns      PatternWeights  `yaml:"patterns"`
	Collectibles  CollectibleSkin `yaml:"collectibles"`
	Collision     CollisionConfig `yaml:"collision"`
	Stars         int             `yaml:"stars"` // Background starfield size, 0 disables it
}

// SpeedConfig defines how fast entities travel per reference frame.
type SpeedConfig struct {
	Base     float64 `yaml:"base"`
	PerLevel float64 `yaml:"per_level"`
	Max      float64 `yaml:"max"`
}

// SpawnConfig defines per-frame spawn probabilities.
// Hazard chance saturates toward HazardMax; collectible chance grows linearly up to its cap.
type SpawnConfig struct {
	HazardMin           float64 `yaml:"hazard_min"`
	HazardMax           float64 `yaml:"hazard_max"`
	HazardRamp          float64 `yaml:"hazard_ramp"`
	CollectibleBase     float64 `yaml:"collectible_base"`
	CollectiblePerLevel float64 `yaml:"collectible_per_level"`
	CollectibleMax      float64 `yaml:"collectible_max"`
}

// PatternWeights are relative weights of hazard formations.
type PatternWeights struct {
	Single   float64 `yaml:"single"`   // One hazard in a random lane
	Adjacent float64 `yaml:"adjacent"` // Two hazards in neighbouring lanes
	Split    float64 `yaml:"split"`    // Two hazards in the outer lanes
}

// CollectibleSkin defines collectible kinds and their values.
type CollectibleSkin struct {
	StarValue  int     `yaml:"star_value"`
	ShipValue  int     `yaml:"ship_value"`
	ShipChance float64 `yaml:"ship_chance"`
}

// CollisionConfig defines tolerance bands around the player row.
type CollisionConfig struct {
	HazardBand      float64 `yaml:"hazard_band"`
	CollectibleBand float64 `yaml:"collectible_band"`
}

// ScoringConfig defines the reward conversion.
type ScoringConfig struct {
	AnswerValue int `yaml:"answer_value"` // Points per correct answer at session end
	TokenEvery  int `yaml:"token_every"`  // Correct answers per auto-win token
}

// SessionConfig defines session-level limits.
type SessionConfig struct {
	DefaultQuestions  int `yaml:"default_questions"`
	MaxQuestions      int `yaml:"max_questions"`
	HandoffDelayMilli int `yaml:"handoff_delay_ms"` // Pause shown between runner and quiz
}

// DifficultyConfig defines how the question index maps to spawn pressure.
type DifficultyConfig struct {
	Offset int `yaml:"offset"` // Added to the question index before scaling
	MaxAt  int `yaml:"max_at"` // Difficulty index reported as 100% on the HUD
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// ParsePreset maps a CLI value to a preset. Unknown values yield "".
func ParsePreset(s string) DifficultyPreset {
	switch DifficultyPreset(s) {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return DifficultyPreset(s)
	default:
		return ""
	}
}

// OffsetForPreset returns the difficulty offset for a preset.
func OffsetForPreset(preset DifficultyPreset) int {
	switch preset {
	case DifficultyNormal:
		return 3
	case DifficultyHard:
		return 8
	default:
		return 0
	}
}
