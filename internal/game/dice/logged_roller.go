package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged random decisions.
// Every draw is logged at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src must be non-nil. A nil logger is replaced by a no-op logger.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Chance performs a probability check against p and logs the outcome.
//
// Postcondition: same draw consumption as the package-level Chance.
func (r *Roller) Chance(p float64) bool {
	roll, ok := chanceDraw(r.src, p)
	if ce := r.logger.Check(zap.DebugLevel, "chance roll"); ce != nil {
		ce.Write(
			zap.Float64("chance", p),
			zap.Float64("roll", roll),
			zap.Bool("success", ok),
		)
	}
	return ok
}

// Pick selects an index in [0, n) and logs the choice.
//
// Postcondition: same draw consumption as the package-level Pick.
func (r *Roller) Pick(n int) int {
	idx := Pick(r.src, n)
	if ce := r.logger.Check(zap.DebugLevel, "pick"); ce != nil {
		ce.Write(zap.Int("n", n), zap.Int("index", idx))
	}
	return idx
}
