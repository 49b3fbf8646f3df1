package autoplay

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/game/run"
	"github.com/cory-johannsen/overstack/internal/trace"
)

// ErrCallLimit is returned by Drive when the run has not ended after
// Options.MaxCalls step calls.
var ErrCallLimit = errors.New("autoplay: step call limit reached")

// DefaultMaxCalls bounds Drive when Options.MaxCalls is zero.
const DefaultMaxCalls = 100000

// Stepper is the part of a run Drive needs. *run.Run satisfies it.
type Stepper interface {
	Step(dt float64, action *run.Action) run.StepResult
	Snapshot() run.Snapshot
}

type handleStepper struct {
	reg *run.Registry
	h   run.Handle
}

func (s handleStepper) Step(dt float64, action *run.Action) run.StepResult {
	return s.reg.Step(s.h, dt, action)
}

func (s handleStepper) Snapshot() run.Snapshot {
	return s.reg.Snapshot(s.h)
}

// ForHandle adapts a registry handle to a Stepper.
//
// Precondition: reg must not be nil.
func ForHandle(reg *run.Registry, h run.Handle) Stepper {
	if reg == nil {
		panic("autoplay.ForHandle: precondition violated: reg must not be nil")
	}
	return handleStepper{reg: reg, h: h}
}

// Options tune Drive.
type Options struct {
	// MaxCalls bounds the number of Step calls; 0 uses DefaultMaxCalls.
	MaxCalls int
	// Sink receives each call's events; nil discards them.
	Sink   trace.Sink
	Logger *zap.Logger
}

// Summary describes a finished Drive.
type Summary struct {
	Calls     int
	Decisions int
	Events    int
	Result    string
	Ended     bool
}

// Drive steps s by dt per call until the run ends, asking p for an action
// whenever the previous call reported NeedInput. A nil choice falls back to
// the basic attack so the run always makes progress.
//
// Precondition: dt must be positive; s and p must not be nil.
// Postcondition: Returns the summary so far with an error when the context is
// cancelled, the policy fails, a step reports an error, a sink write fails, or
// the call limit is reached.
func Drive(ctx context.Context, s Stepper, p Policy, dt float64, opts Options) (Summary, error) {
	if dt <= 0 {
		return Summary{}, fmt.Errorf("autoplay: step delta must be positive, got %v", dt)
	}
	maxCalls := opts.MaxCalls
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}
	sink := opts.Sink
	if sink == nil {
		sink = trace.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var sum Summary
	needInput := false
	for sum.Calls < maxCalls {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		var action *run.Action
		if needInput {
			a, err := p.Choose(ctx, s.Snapshot(), sum.Decisions)
			if err != nil {
				return sum, fmt.Errorf("autoplay: policy %s: %w", p.Name(), err)
			}
			if a == nil {
				a = run.Basic()
			}
			action = a
			sum.Decisions++
		}

		res := s.Step(dt, action)
		sum.Calls++
		if res.Err != nil {
			return sum, fmt.Errorf("autoplay: step: %w", res.Err)
		}
		sum.Events += len(res.Events)
		if err := sink.Write(res.Events); err != nil {
			return sum, err
		}
		if res.Ended {
			sum.Ended = true
			sum.Result = s.Snapshot().Result
			logger.Debug("autoplay finished",
				zap.String("policy", p.Name()),
				zap.Int("calls", sum.Calls),
				zap.Int("decisions", sum.Decisions),
				zap.String("result", sum.Result),
			)
			return sum, nil
		}
		needInput = res.NeedInput
	}
	return sum, fmt.Errorf("%w (%d)", ErrCallLimit, maxCalls)
}
