package runner

import (
	"math/rand"

	"github.com/vovakirdan/space-runner/internal/config"
)

// Pattern is a hazard formation placed by a single spawn event.
type Pattern int

const (
	PatternSingle   Pattern = iota // One hazard in a random lane
	PatternAdjacent                // Lanes {0,1} or {1,2}
	PatternSplit                   // Lanes {0,2}
)

// Lanes returns the lanes the formation occupies. Every formation leaves
// at least one lane clear and that lane is one step from any other.
func (p Pattern) Lanes(rng *rand.Rand) []int {
	switch p {
	case PatternAdjacent:
		if rng.Intn(2) == 0 {
			return []int{0, 1}
		}
		return []int{1, 2}
	case PatternSplit:
		return []int{0, 2}
	default:
		return []int{rng.Intn(Lanes)}
	}
}

// spawner decides what enters the track each tick.
type spawner struct {
	cfg *config.RunnerConfig
	rng *rand.Rand
}

// pickPattern draws a formation by the configured weights.
func (s *spawner) pickPattern() Pattern {
	w := s.cfg.Patterns
	total := w.Single + w.Adjacent + w.Split
	if total <= 0 {
		return PatternSingle
	}
	r := s.rng.Float64() * total
	switch {
	case r < w.Single:
		return PatternSingle
	case r < w.Single+w.Adjacent:
		return PatternAdjacent
	default:
		return PatternSplit
	}
}

// hazards returns the hazards for one spawn event. blocked marks lanes that
// already hold a hazard near the spawn line; lanes are dropped from the
// formation until at least one lane stays clear.
func (s *spawner) hazards(blocked [Lanes]bool) []Entity {
	lanes := s.pickPattern().Lanes(s.rng)

	out := make([]Entity, 0, len(lanes))
	for _, lane := range lanes {
		next := blocked
		next[lane] = true
		if allBlocked(next) {
			continue
		}
		blocked = next
		out = append(out, Entity{
			Kind:     Hazard,
			Skin:     SkinAlien,
			Lane:     lane,
			Position: s.cfg.SpawnPosition,
		})
	}
	return out
}

// collectible returns a single star or ship in a random lane.
func (s *spawner) collectible() Entity {
	e := Entity{
		Kind:     Collectible,
		Skin:     SkinStar,
		Lane:     s.rng.Intn(Lanes),
		Position: s.cfg.SpawnPosition,
		Value:    s.cfg.Collectibles.StarValue,
	}
	if s.rng.Float64() < s.cfg.Collectibles.ShipChance {
		e.Skin = SkinShip
		e.Value = s.cfg.Collectibles.ShipValue
	}
	if e.Value < 0 {
		e.Value = 0
	}
	return e
}

// chance converts a per-reference-frame probability to one for dt frames.
func chance(p, dt float64) float64 {
	v := p * dt
	if v > 1 {
		return 1
	}
	return v
}

func allBlocked(b [Lanes]bool) bool {
	for _, v := range b {
		if !v {
			return false
		}
	}
	return true
}
