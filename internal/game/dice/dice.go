// Package dice provides the seeded randomness abstraction used by the combat
// engine. Every random decision in a run flows through one Source so that a
// seed fully determines the trace.
package dice

// Source is the randomness provider for a single run.
//
// Implementations are not required to be safe for concurrent use; each run
// owns its Source exclusively.
type Source interface {
	// Uint32 returns the next value of the stream and advances it.
	Uint32() uint32
}
