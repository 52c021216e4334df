package core

import "testing"

func TestSpanAround(t *testing.T) {
	s := SpanAround(100, -40)
	if s.Lo != 60 || s.Hi != 140 {
		t.Errorf("SpanAround(100, -40) = %+v, expected {60 140}", s)
	}
	if !s.Contains(60) || !s.Contains(140) || s.Contains(140.01) {
		t.Error("Contains should be inclusive at both bounds")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, expected int
	}{
		{1, 0, 2, 1},
		{-1, 0, 2, 0},
		{3, 0, 2, 2},
	}

	for _, tc := range tests {
		if got := Clamp(tc.val, tc.lo, tc.hi); got != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.lo, tc.hi, got, tc.expected)
		}
	}

	if ClampF(1.5, 0, 1) != 1 || ClampF(-0.5, 0, 1) != 0 {
		t.Error("ClampF should clamp to bounds")
	}
}

func TestLerp(t *testing.T) {
	if got := Lerp(0, 100, 0.2); got != 20 {
		t.Errorf("Lerp(0, 100, 0.2) = %f, expected 20", got)
	}
}
