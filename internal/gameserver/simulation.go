// Package gameserver exposes the run registry over gRPC as
// overstack.sim.v1.SimulationService and archives runs when they end.
package gameserver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/overstack/internal/autoplay"
	"github.com/cory-johannsen/overstack/internal/config"
	"github.com/cory-johannsen/overstack/internal/game/run"
	"github.com/cory-johannsen/overstack/internal/observability"
	"github.com/cory-johannsen/overstack/internal/scripting"
	"github.com/cory-johannsen/overstack/internal/storage"
	"github.com/cory-johannsen/overstack/internal/trace"
)

// Options configures a SimulationServer.
type Options struct {
	// Defaults fill in omitted CreateRun and Autoplay fields.
	Defaults config.SimulationConfig
	// Archive records ended runs; nil disables archiving.
	Archive storage.RunArchive
	// Scripts resolves "script" autoplay policies; nil disables them.
	Scripts *scripting.Manager
	Logger  *zap.Logger
	// Now stamps archive records; nil uses time.Now.
	Now func() time.Time
}

// runState is the server-side bookkeeping for one handle.
type runState struct {
	mu       sync.Mutex
	trace    *trace.Collector
	archived bool
}

// SimulationServer implements SimulationServiceServer over a run.Registry.
type SimulationServer struct {
	reg      *run.Registry
	defaults config.SimulationConfig
	archive  storage.RunArchive
	scripts  autoplay.ScriptCaller
	logger   *zap.Logger
	tracer   oteltrace.Tracer
	now      func() time.Time

	mu     sync.Mutex
	states map[run.Handle]*runState
}

var _ SimulationServiceServer = (*SimulationServer)(nil)

// NewSimulationServer creates a server over reg.
//
// Precondition: reg must be non-nil.
// Postcondition: Returns a server with no tracked runs.
func NewSimulationServer(reg *run.Registry, opts Options) *SimulationServer {
	if reg == nil {
		panic("gameserver.NewSimulationServer: precondition violated: reg must be non-nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &SimulationServer{
		reg:      reg,
		defaults: opts.Defaults,
		archive:  opts.Archive,
		logger:   logger,
		tracer:   observability.Tracer(),
		now:      now,
		states:   make(map[run.Handle]*runState),
	}
	if opts.Scripts != nil {
		s.scripts = opts.Scripts
	}
	if s.defaults.StepDelta <= 0 {
		s.defaults.StepDelta = run.SubStep
	}
	if s.defaults.MaxNodes <= 0 {
		s.defaults.MaxNodes = 6
	}
	if s.defaults.Policy == "" {
		s.defaults.Policy = autoplay.PolicyRotation
	}
	return s
}

func (s *SimulationServer) state(h run.Handle) *runState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[h]
	if !ok {
		st = &runState{trace: trace.NewCollector()}
		s.states[h] = st
	}
	return st
}

func (s *SimulationServer) forget(h run.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, h)
}

// CreateRun registers a run. Fields: seed (number or decimal string),
// max_nodes, traits. Omitted fields use the configured defaults.
func (s *SimulationServer) CreateRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := requestFields(in)
	seed, err := f.seed("seed", s.defaults.Seed)
	if err != nil {
		return nil, err
	}
	maxNodes, err := f.integer("max_nodes", s.defaults.MaxNodes)
	if err != nil {
		return nil, err
	}
	traits, err := f.strings("traits", s.defaults.DefaultTraits)
	if err != nil {
		return nil, err
	}

	info, err := s.reg.Create(seed, maxNodes, traits)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.state(info.Handle)
	s.logger.Info("run created",
		zap.Uint32("handle", uint32(info.Handle)),
		zap.String("run_id", info.ID.String()),
		zap.Uint64("seed", info.Seed),
	)
	return response(infoMap(info))
}

// DestroyRun removes a run. The response reports whether the handle existed.
func (s *SimulationServer) DestroyRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	h, err := requestFields(in).handle()
	if err != nil {
		return nil, err
	}
	ok := s.reg.Destroy(h)
	s.forget(h)
	return response(map[string]any{"destroyed": ok})
}

// ResetRun restarts a run from its seed under a new run ID.
func (s *SimulationServer) ResetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	h, err := requestFields(in).handle()
	if err != nil {
		return nil, err
	}
	st := s.state(h)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !s.reg.Reset(h) {
		s.forget(h)
		return response(map[string]any{"reset": false})
	}
	st.trace.Reset()
	st.archived = false
	info, _ := s.reg.Info(h)
	out := infoMap(info)
	out["reset"] = true
	return response(out)
}

// Step advances a run. Fields: handle, dt, action ("none", "basic",
// "skill"), slot. Events are returned as JSON trace lines. Invalid handles
// and actions are reported in the "error" field, not as RPC errors.
func (s *SimulationServer) Step(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := requestFields(in)
	h, err := f.handle()
	if err != nil {
		return nil, err
	}
	dt, err := f.number("dt", s.defaults.StepDelta)
	if err != nil {
		return nil, err
	}
	kind, err := f.str("action", "none")
	if err != nil {
		return nil, err
	}
	slot, err := f.integer("slot", 0)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "SimulationServer.Step", oteltrace.WithAttributes(
		attribute.Int64("run.handle", int64(h)),
		attribute.String("run.action", kind),
	))
	defer span.End()

	st := s.state(h)
	st.mu.Lock()
	defer st.mu.Unlock()

	res := s.reg.StepWithAction(h, dt, kind, slot)
	if errors.Is(res.Err, run.ErrInvalidHandle) {
		s.forget(h)
	}
	_ = st.trace.Write(res.Events)
	if res.Ended && res.Err == nil {
		s.archiveRun(ctx, h, st)
	}
	span.SetAttributes(attribute.Int("run.events", len(res.Events)))

	return response(map[string]any{
		"events":     stringList(res.Lines()),
		"need_input": res.NeedInput,
		"ended":      res.Ended,
		"error":      res.ErrorString(),
	})
}

// Snapshot returns a run's display state.
func (s *SimulationServer) Snapshot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	h, err := requestFields(in).handle()
	if err != nil {
		return nil, err
	}
	return response(snapshotMap(s.reg.Snapshot(h)))
}

// Autoplay drives a run to its end with a policy. Fields: handle, policy,
// script, dt, max_calls.
func (s *SimulationServer) Autoplay(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := requestFields(in)
	h, err := f.handle()
	if err != nil {
		return nil, err
	}
	name, err := f.str("policy", s.defaults.Policy)
	if err != nil {
		return nil, err
	}
	script, err := f.str("script", "")
	if err != nil {
		return nil, err
	}
	dt, err := f.number("dt", s.defaults.StepDelta)
	if err != nil {
		return nil, err
	}
	maxCalls, err := f.integer("max_calls", s.defaults.MaxCalls)
	if err != nil {
		return nil, err
	}

	policy, err := autoplay.New(name, s.scripts, script)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if _, ok := s.reg.Info(h); !ok {
		return nil, status.Errorf(codes.NotFound, "%v:%d", run.ErrInvalidHandle, h)
	}

	ctx, span := s.tracer.Start(ctx, "SimulationServer.Autoplay", oteltrace.WithAttributes(
		attribute.Int64("run.handle", int64(h)),
		attribute.String("autoplay.policy", policy.Name()),
	))
	defer span.End()

	st := s.state(h)
	st.mu.Lock()
	defer st.mu.Unlock()

	sum, err := autoplay.Drive(ctx, autoplay.ForHandle(s.reg, h), policy, dt, autoplay.Options{
		MaxCalls: maxCalls,
		Sink:     st.trace,
		Logger:   s.logger,
	})
	if sum.Ended {
		s.archiveRun(ctx, h, st)
	}
	if err != nil {
		code := codes.Internal
		switch {
		case errors.Is(err, autoplay.ErrCallLimit):
			code = codes.ResourceExhausted
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			code = codes.Canceled
		case errors.Is(err, run.ErrInvalidAction):
			code = codes.InvalidArgument
		}
		return nil, status.Error(code, err.Error())
	}

	return response(map[string]any{
		"calls":     sum.Calls,
		"decisions": sum.Decisions,
		"events":    sum.Events,
		"result":    sum.Result,
		"ended":     sum.Ended,
	})
}

// GetArchivedRun returns an archived record with its trace. Field: run_id.
func (s *SimulationServer) GetArchivedRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.archive == nil {
		return nil, status.Error(codes.FailedPrecondition, "run archive is not configured")
	}
	raw, err := requestFields(in).str("run_id", "")
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "run_id: %v", err)
	}
	rec, err := s.archive.GetRun(ctx, id)
	if errors.Is(err, storage.ErrRunNotFound) {
		return nil, status.Errorf(codes.NotFound, "run %s is not archived", id)
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := recordMap(rec)
	out["trace"] = stringList(rec.Trace)
	return response(out)
}

// ListArchivedRuns returns the newest archived records without traces.
// Field: limit (default 20).
func (s *SimulationServer) ListArchivedRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.archive == nil {
		return nil, status.Error(codes.FailedPrecondition, "run archive is not configured")
	}
	limit, err := requestFields(in).integer("limit", 20)
	if err != nil {
		return nil, err
	}
	recs, err := s.archive.ListRuns(ctx, limit)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	runs := make([]any, len(recs))
	for i, rec := range recs {
		runs[i] = recordMap(rec)
	}
	return response(map[string]any{"runs": runs})
}

func infoMap(info run.Info) map[string]any {
	return map[string]any{
		"handle":    uint32(info.Handle),
		"run_id":    info.ID.String(),
		"seed":      formatSeed(info.Seed),
		"max_nodes": info.MaxNodes,
		"traits":    stringList(info.Traits),
	}
}

func snapshotMap(snap run.Snapshot) map[string]any {
	return map[string]any{
		"run_state":    snap.RunState,
		"result":       snap.Result,
		"node_index":   snap.NodeIndex,
		"battle_index": snap.BattleIndex,
		"elapsed":      snap.Elapsed,
		"player":       unitMap(snap.Player),
		"enemy":        unitMap(snap.Enemy),
	}
}

func unitMap(u run.UnitView) map[string]any {
	statuses := make([]any, len(u.Statuses))
	for i, st := range u.Statuses {
		statuses[i] = map[string]any{
			"type":     st.Type,
			"stacks":   st.Stacks,
			"duration": st.Duration,
		}
	}
	return map[string]any{
		"hp":       u.HP,
		"max_hp":   u.MaxHP,
		"gauge":    u.Gauge,
		"statuses": statuses,
	}
}

func recordMap(rec storage.RunRecord) map[string]any {
	return map[string]any{
		"run_id":      rec.ID.String(),
		"seed":        formatSeed(rec.Seed),
		"max_nodes":   rec.MaxNodes,
		"traits":      stringList(rec.Traits),
		"result":      rec.Result,
		"final_node":  rec.FinalNode,
		"elapsed":     rec.Elapsed,
		"event_count": rec.EventCount,
		"created_at":  rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
