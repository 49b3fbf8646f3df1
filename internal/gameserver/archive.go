package gameserver

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/game/run"
	"github.com/cory-johannsen/overstack/internal/storage"
)

// archiveRun saves the ended run for h once. Failures are logged and leave
// the run unarchived so a later call retries.
//
// Precondition: st.mu is held.
func (s *SimulationServer) archiveRun(ctx context.Context, h run.Handle, st *runState) {
	if s.archive == nil || st.archived {
		return
	}
	var rec storage.RunRecord
	found := s.reg.With(h, func(info run.Info, r *run.Run) {
		rec = storage.RunRecord{
			ID:         info.ID,
			Seed:       info.Seed,
			MaxNodes:   info.MaxNodes,
			Traits:     info.Traits,
			Result:     r.Result(),
			FinalNode:  r.NodeIndex(),
			Elapsed:    r.Elapsed(),
			EventCount: st.trace.Len(),
			Trace:      st.trace.Lines(),
			CreatedAt:  s.now().UTC(),
		}
	})
	if !found {
		return
	}

	ctx, span := s.tracer.Start(ctx, "SimulationServer.archiveRun")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", rec.ID.String()),
		attribute.Int("run.events", rec.EventCount),
	)

	if err := s.archive.SaveRun(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive failed")
		s.logger.Error("archiving run failed",
			zap.String("run_id", rec.ID.String()),
			zap.Uint32("handle", uint32(h)),
			zap.Error(err),
		)
		return
	}
	st.archived = true
	s.logger.Info("run archived",
		zap.String("run_id", rec.ID.String()),
		zap.String("result", rec.Result),
		zap.Int("events", rec.EventCount),
	)
}

func formatSeed(seed uint64) string {
	return strconv.FormatUint(seed, 10)
}
