// Package trace provides destinations for combat trace events produced by
// stepping a run.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/game/event"
)

// Sink receives the events of each step call in order.
type Sink interface {
	Write(events []event.Event) error
}

// JSONL writes one JSON line per event to an io.Writer.
type JSONL struct {
	mu sync.Mutex
	w  *bufio.Writer
	n  int
}

// NewJSONL wraps w in a buffered JSONL sink. Call Flush before closing w.
func NewJSONL(w io.Writer) *JSONL {
	return &JSONL{w: bufio.NewWriter(w)}
}

// Write appends events as lines.
//
// Postcondition: Returns the first write error; lines before it are buffered.
func (j *JSONL) Write(events []event.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, e := range events {
		b, err := e.MarshalJSON()
		if err != nil {
			return fmt.Errorf("trace: encoding event: %w", err)
		}
		if _, err := j.w.Write(b); err != nil {
			return fmt.Errorf("trace: writing line: %w", err)
		}
		if err := j.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("trace: writing line: %w", err)
		}
		j.n++
	}
	return nil
}

// Lines returns how many lines have been written.
func (j *JSONL) Lines() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.n
}

// Flush writes any buffered lines to the underlying writer.
func (j *JSONL) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("trace: flushing: %w", err)
	}
	return nil
}

// ZapSink logs every event at Debug level.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink logging to logger. A nil logger discards.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// Write logs each event. It never fails.
func (z *ZapSink) Write(events []event.Event) error {
	if !z.logger.Core().Enabled(zap.DebugLevel) {
		return nil
	}
	for _, e := range events {
		z.logger.Debug("trace event",
			zap.Uint32("tick", e.Tick),
			zap.String("kind", string(e.Kind())),
			zap.String("line", e.Line()),
		)
	}
	return nil
}

// Collector keeps every event it is given, for archiving and tests.
type Collector struct {
	mu     sync.Mutex
	events []event.Event
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Write appends events.
func (c *Collector) Write(events []event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
	return nil
}

// Events returns a copy of everything collected.
func (c *Collector) Events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

// Lines returns the collected events as JSON lines.
func (c *Collector) Lines() []string {
	return event.Lines(c.Events())
}

// Len returns the number of collected events.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Count returns how many collected events have kind k.
func (c *Collector) Count(k event.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return event.Count(c.events, k)
}

// Reset discards everything collected.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// Multi fans events out to every sink, in order. All sinks are written even
// when one fails; the errors are joined.
type Multi []Sink

// Write writes events to each non-nil sink.
func (m Multi) Write(events []event.Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Write([]event.Event) error { return nil }
