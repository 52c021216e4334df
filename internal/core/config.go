package core

import "time"

// RuntimeConfig contains configuration passed to the game at initialization.
type RuntimeConfig struct {
	ScreenW  int    // Screen width in characters
	ScreenH  int    // Screen height in characters
	TickRate int    // Frames per second requested from the platform (default 60)
	Seed     int64  // RNG seed, 0 means derive from time in the platform layer
	PlayerID string // Identity reported to the persistence layer
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 60,
		PlayerID: "player",
	}
}

// FrameInterval returns the wall-clock interval between two scheduled frames.
func (c RuntimeConfig) FrameInterval() time.Duration {
	rate := c.TickRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}

// WithSize returns a copy of the config resized to the given terminal dimensions.
func (c RuntimeConfig) WithSize(w, h int) RuntimeConfig {
	c.ScreenW = w
	c.ScreenH = h
	return c
}
