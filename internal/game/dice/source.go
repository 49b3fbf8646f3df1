package dice

// lcgMix is XORed into the seed so that small seeds do not start the stream
// in a low-entropy region.
const lcgMix uint64 = 0x9E3779B97F4A7C15

const (
	lcgMultiplier uint64 = 6364136223846793005
	lcgIncrement  uint64 = 1
)

// LCGSource is a 64-bit linear congruential generator emitting the high 32
// bits of its state.
//
// Invariant: two LCGSources constructed from the same seed emit identical
// streams.
type LCGSource struct {
	state uint64
}

// NewLCGSource returns a Source seeded with seed.
//
// Postcondition: the first Uint32 depends only on seed.
func NewLCGSource(seed uint64) *LCGSource {
	return &LCGSource{state: seed ^ lcgMix}
}

// Uint32 advances the generator and returns the high 32 bits of the new state.
func (s *LCGSource) Uint32() uint32 {
	s.state = s.state*lcgMultiplier + lcgIncrement
	return uint32(s.state >> 32)
}

// State returns the raw generator state, for diagnostics.
func (s *LCGSource) State() uint64 {
	return s.state
}
