package runner

import (
	"math/rand"
	"time"

	"github.com/vovakirdan/space-runner/internal/config"
	"github.com/vovakirdan/space-runner/internal/core"
)

// maxFrameStep caps dt so a long stall cannot move an entity across a whole
// collision band in one tick.
const maxFrameStep = 4.0

// TickResult reports what happened during one tick.
type TickResult struct {
	ScoreDeltas     []int // One entry per collectible collected this tick
	HazardHit       bool
	ElapsedExceeded bool
	Skipped         bool // Surface unavailable, nothing advanced
	Ended           bool // Segment already over, tick ignored
}

// EngineState is the complete mutable state of a running segment.
// Only Engine methods write to it.
type EngineState struct {
	Entities          []Entity
	Player            Player
	DifficultyIndex   int
	Speed             float64
	HazardChance      float64
	CollectibleChance float64
	Elapsed           time.Duration
	Frames            int
	Collected         int
	Missed            int
	Over              bool

	lastTick time.Time
	stalled  bool
	stars    []star
}

type star struct {
	X, Y, Speed float64
}

// Engine owns the runner simulation.
type Engine struct {
	cfg     config.RunnerConfig
	diff    *config.DifficultyManager
	spawner *spawner
	fx      *rand.Rand // Cosmetic randomness, kept apart from gameplay draws
	now     func() time.Time
	window  time.Duration
	state   EngineState
}

// New creates an engine. now is the wall clock; nil means time.Now.
func New(cfg config.GameConfig, seed int64, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		cfg:    cfg.Runner,
		diff:   config.NewDifficultyManager(cfg.Difficulty, cfg.Runner),
		fx:     rand.New(rand.NewSource(seed ^ 0x5eed)),
		now:    now,
		window: time.Duration(cfg.Runner.WindowSeconds * float64(time.Second)),
	}
	e.spawner = &spawner{cfg: &e.cfg, rng: rand.New(rand.NewSource(seed))}
	e.state.Over = true
	return e
}

// Reset prepares a fresh segment for the given difficulty index.
// Entities and the timer are cleared; the starfield survives.
func (e *Engine) Reset(difficultyIndex int) {
	stars := e.state.stars
	if len(stars) == 0 {
		stars = e.makeStars()
	}

	e.state = EngineState{
		Entities:          e.state.Entities[:0],
		Player:            Player{Lane: 1, RenderX: laneCentre(1)},
		DifficultyIndex:   difficultyIndex,
		Speed:             e.diff.Speed(difficultyIndex),
		HazardChance:      e.diff.HazardChance(difficultyIndex),
		CollectibleChance: e.diff.CollectibleChance(difficultyIndex),
		lastTick:          e.now(),
		stars:             stars,
	}
}

// Tick advances the segment by dt reference frames (1.0 = one 60 fps frame).
func (e *Engine) Tick(surface Surface, dt float64, intent Intent) TickResult {
	st := &e.state
	if st.Over {
		return TickResult{Ended: true}
	}
	if surface == nil || !surface.Ready() {
		st.stalled = true
		return TickResult{Skipped: true}
	}

	now := e.now()
	if st.stalled {
		// Time spent without a surface does not count toward the window.
		st.lastTick = now
		st.stalled = false
	}
	st.Elapsed += now.Sub(st.lastTick)
	st.lastTick = now
	st.Frames++

	dt = core.ClampF(dt, 0, maxFrameStep)

	e.updateStars(dt)

	st.Player.Lane = Steer(st.Player.Lane, intent)
	target := laneCentre(st.Player.Lane)
	st.Player.RenderX = core.Lerp(st.Player.RenderX, target, core.ClampF(e.cfg.Easing*dt, 0, 1))

	e.spawn(dt)

	for i := range st.Entities {
		st.Entities[i].Position += st.Speed * dt
	}

	var res TickResult
	kept := st.Entities[:0]
	for _, ent := range st.Entities {
		if e.collides(ent) {
			if ent.Kind == Hazard {
				res.HazardHit = true
			} else {
				res.ScoreDeltas = append(res.ScoreDeltas, ent.Value)
				st.Collected++
			}
			continue
		}
		if ent.Position > e.cfg.TrackLength+e.cfg.DespawnMargin {
			st.Missed++
			continue
		}
		kept = append(kept, ent)
	}
	st.Entities = kept

	res.ElapsedExceeded = st.Elapsed >= e.window
	if res.HazardHit || res.ElapsedExceeded {
		st.Over = true
	}
	return res
}

// collides is a single-axis test: same lane and inside the band around the player row.
func (e *Engine) collides(ent Entity) bool {
	if ent.Lane != e.state.Player.Lane {
		return false
	}
	band := e.cfg.Collision.CollectibleBand
	if ent.Kind == Hazard {
		band = e.cfg.Collision.HazardBand
	}
	return core.SpanAround(e.cfg.PlayerRow, band).Contains(ent.Position)
}

func (e *Engine) spawn(dt float64) {
	st := &e.state
	rng := e.spawner.rng

	if rng.Float64() < chance(st.HazardChance, dt) {
		st.Entities = append(st.Entities, e.spawner.hazards(e.blockedNearSpawn())...)
	}
	if rng.Float64() < chance(st.CollectibleChance, dt) {
		st.Entities = append(st.Entities, e.spawner.collectible())
	}
}

// blockedNearSpawn marks lanes holding a hazard close enough to the spawn line
// that a new formation would form one wall with it.
func (e *Engine) blockedNearSpawn() [Lanes]bool {
	var blocked [Lanes]bool
	near := core.SpanAround(e.cfg.SpawnPosition, 2*e.cfg.Collision.HazardBand)
	for _, ent := range e.state.Entities {
		if ent.Kind == Hazard && near.Contains(ent.Position) {
			blocked[ent.Lane] = true
		}
	}
	return blocked
}

func (e *Engine) makeStars() []star {
	stars := make([]star, e.cfg.Stars)
	for i := range stars {
		stars[i] = star{
			X:     e.fx.Float64(),
			Y:     e.fx.Float64() * e.cfg.TrackLength,
			Speed: e.fx.Float64() + 0.5,
		}
	}
	return stars
}

func (e *Engine) updateStars(dt float64) {
	for i := range e.state.stars {
		s := &e.state.stars[i]
		s.Y += s.Speed * dt
		if s.Y > e.cfg.TrackLength {
			s.Y = 0
			s.X = e.fx.Float64()
		}
	}
}

// State returns a copy of the engine state.
func (e *Engine) State() EngineState {
	st := e.state
	st.Entities = append([]Entity(nil), e.state.Entities...)
	return st
}

// Elapsed returns the real time counted toward the current window.
func (e *Engine) Elapsed() time.Duration {
	return e.state.Elapsed
}

// Remaining returns the time left in the window, never negative.
func (e *Engine) Remaining() time.Duration {
	if r := e.window - e.state.Elapsed; r > 0 {
		return r
	}
	return 0
}

// Level returns the HUD difficulty level (0.0 to 1.0).
func (e *Engine) Level() float64 {
	return e.diff.Level(e.state.DifficultyIndex)
}
