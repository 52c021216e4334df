// Package core provides fundamental types and utilities for the runner platform.
// It contains no external dependencies (especially no Bubble Tea) to keep game
// logic pure and testable.
package core

// Span is a closed interval along the travel axis of the track.
type Span struct {
	Lo, Hi float64
}

// SpanAround returns the span centred on c with the given half-width.
func SpanAround(c, half float64) Span {
	if half < 0 {
		half = -half
	}
	return Span{Lo: c - half, Hi: c + half}
}

// Contains reports whether v lies inside the span (bounds inclusive).
func (s Span) Contains(v float64) bool {
	return v >= s.Lo && v <= s.Hi
}

// Clamp restricts a value to be within [lo, hi].
func Clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// ClampF restricts a float64 value to be within [lo, hi].
func ClampF(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Lerp moves a toward b by the fraction t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
