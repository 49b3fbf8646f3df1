package dice

import "math"

// Chance reports whether a uniform draw from src falls below p.
//
// Precondition: src must be non-nil.
// Postcondition: p is clamped to [0, 1]; p <= 0 returns false and p >= 1
// returns true without consuming a draw; otherwise exactly one draw is
// consumed and the result is draw/MaxUint32 < p.
func Chance(src Source, p float64) bool {
	_, ok := chanceDraw(src, p)
	return ok
}

// Pick returns an index in [0, n).
//
// Precondition: src must be non-nil.
// Postcondition: returns 0 without consuming a draw when n <= 1; otherwise
// consumes exactly one draw and returns draw mod n.
func Pick(src Source, n int) int {
	if n <= 1 {
		return 0
	}
	return int(src.Uint32() % uint32(n))
}

// chanceDraw returns the normalized draw used for p (or -1 when none was
// consumed) alongside the outcome.
func chanceDraw(src Source, p float64) (float64, bool) {
	if math.IsNaN(p) || p <= 0 {
		return -1, false
	}
	if p >= 1 {
		return -1, true
	}
	roll := float64(src.Uint32()) / float64(math.MaxUint32)
	return roll, roll < p
}
