package config

import "math"

// DifficultyManager derives spawn pressure and speed from a difficulty index.
// Every curve it returns is non-decreasing in the index.
type DifficultyManager struct {
	cfg    DifficultyConfig
	runner RunnerConfig
}

// NewDifficultyManager creates a new difficulty manager.
func NewDifficultyManager(cfg DifficultyConfig, runner RunnerConfig) *DifficultyManager {
	return &DifficultyManager{cfg: cfg, runner: runner}
}

// Effective returns the index actually used for scaling.
func (d *DifficultyManager) Effective(index int) int {
	if index < 0 {
		index = 0
	}
	return index + d.cfg.Offset
}

// Level returns the HUD difficulty level (0.0 to 1.0).
func (d *DifficultyManager) Level(index int) float64 {
	maxAt := float64(d.cfg.MaxAt)
	if maxAt <= 0 {
		maxAt = 1 // Prevent division by zero
	}
	return clampF(float64(d.Effective(index))/maxAt, 0.0, 1.0)
}

// Speed returns entity travel per reference frame.
func (d *DifficultyManager) Speed(index int) float64 {
	s := d.runner.Speed
	v := s.Base + s.PerLevel*float64(d.Effective(index))
	if s.Max > 0 && v > s.Max {
		v = s.Max
	}
	return v
}

// HazardChance returns the per-frame hazard spawn probability.
// It rises from HazardMin and saturates at HazardMax.
func (d *DifficultyManager) HazardChance(index int) float64 {
	sp := d.runner.Spawn
	lo, hi := sp.HazardMin, sp.HazardMax
	if hi < lo {
		hi = lo
	}
	ramp := 1 - math.Exp(-sp.HazardRamp*float64(d.Effective(index)))
	return clampF(lo+(hi-lo)*ramp, 0, 1)
}

// CollectibleChance returns the per-frame collectible spawn probability.
func (d *DifficultyManager) CollectibleChance(index int) float64 {
	sp := d.runner.Spawn
	v := sp.CollectibleBase + sp.CollectiblePerLevel*float64(d.Effective(index))
	if sp.CollectibleMax > 0 && v > sp.CollectibleMax {
		v = sp.CollectibleMax
	}
	return clampF(v, 0, 1)
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}
