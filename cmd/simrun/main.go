// Package main runs one seeded run to completion with an autoplay policy and
// writes its event trace as JSON lines.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/autoplay"
	"github.com/cory-johannsen/overstack/internal/bootstrap"
	"github.com/cory-johannsen/overstack/internal/config"
	"github.com/cory-johannsen/overstack/internal/game/run"
	"github.com/cory-johannsen/overstack/internal/observability"
	"github.com/cory-johannsen/overstack/internal/storage"
	"github.com/cory-johannsen/overstack/internal/trace"
)

// options are the resolved command-line settings.
type options struct {
	cfg    config.Config
	policy string
	script string
	out    string
}

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	seed := flag.Uint64("seed", 0, "run seed (default from config)")
	nodes := flag.Int("nodes", 0, "maximum nodes (default from config)")
	traits := flag.String("traits", "", "comma-separated trait IDs (default from config)")
	policy := flag.String("policy", "", "autoplay policy: basic, rotation, or script (default from config)")
	script := flag.String("script", "", "script name for the script policy, loaded from scripting.script_dir")
	out := flag.String("out", "-", "trace output file; - writes to stdout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	opts := options{cfg: cfg, policy: cfg.Simulation.Policy, script: *script, out: *out}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			opts.cfg.Simulation.Seed = *seed
		case "nodes":
			opts.cfg.Simulation.MaxNodes = *nodes
		case "traits":
			opts.cfg.Simulation.DefaultTraits = splitTraits(*traits)
		case "policy":
			opts.policy = *policy
		}
	})
	if err := opts.cfg.Validate(); err != nil {
		log.Fatalf("invalid settings: %v", err)
	}

	logger, err := observability.NewLogger(opts.cfg.Logging, "simrun")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, opts, os.Stdout, logger); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

func splitTraits(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// execute performs one run. The trace goes to opts.out, or stdout for "-".
func execute(ctx context.Context, opts options, stdout io.Writer, logger *zap.Logger) (err error) {
	start := time.Now()
	sim := opts.cfg.Simulation

	w := stdout
	if opts.out != "-" && opts.out != "" {
		f, ferr := os.Create(opts.out)
		if ferr != nil {
			return fmt.Errorf("creating trace file: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	catalog, err := bootstrap.Catalog(opts.cfg.Content, logger)
	if err != nil {
		return err
	}
	scripts, err := bootstrap.Scripts(opts.cfg.Scripting, logger)
	if err != nil {
		return err
	}
	defer scripts.Close()

	var caller autoplay.ScriptCaller
	if opts.policy == autoplay.PolicyScript {
		caller = scripts
	}
	policy, err := autoplay.New(opts.policy, caller, opts.script)
	if err != nil {
		return err
	}

	archive, closeArchive, err := bootstrap.Archive(ctx, opts.cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeArchive(); err == nil {
			err = cerr
		}
	}()

	reg := run.NewRegistry(catalog, logger)
	info, err := reg.Create(sim.Seed, sim.MaxNodes, sim.DefaultTraits)
	if err != nil {
		return err
	}

	jsonl := trace.NewJSONL(w)
	collector := trace.NewCollector()
	sinks := trace.Multi{jsonl, trace.NewZapSink(logger)}
	if archive != nil {
		sinks = append(sinks, collector)
	}

	sum, driveErr := autoplay.Drive(ctx, autoplay.ForHandle(reg, info.Handle), policy, sim.StepDelta, autoplay.Options{
		MaxCalls: sim.MaxCalls,
		Sink:     sinks,
		Logger:   logger,
	})
	if err := jsonl.Flush(); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	if driveErr != nil {
		return driveErr
	}

	if archive != nil {
		if err := saveRun(ctx, archive, reg, info, collector); err != nil {
			return err
		}
	}

	logger.Info("run complete",
		zap.String("run_id", info.ID.String()),
		zap.Uint64("seed", info.Seed),
		zap.String("policy", policy.Name()),
		zap.String("result", sum.Result),
		zap.Int("events", sum.Events),
		zap.Int("decisions", sum.Decisions),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func saveRun(ctx context.Context, archive storage.RunArchive, reg *run.Registry, info run.Info, c *trace.Collector) error {
	var rec storage.RunRecord
	reg.With(info.Handle, func(info run.Info, r *run.Run) {
		rec = storage.RunRecord{
			ID:         info.ID,
			Seed:       info.Seed,
			MaxNodes:   info.MaxNodes,
			Traits:     info.Traits,
			Result:     r.Result(),
			FinalNode:  r.NodeIndex(),
			Elapsed:    r.Elapsed(),
			EventCount: c.Len(),
			Trace:      c.Lines(),
			CreatedAt:  time.Now().UTC(),
		}
	})
	if rec.ID == uuid.Nil {
		return fmt.Errorf("run %d disappeared before archiving", info.Handle)
	}
	if err := archive.SaveRun(ctx, rec); err != nil {
		return fmt.Errorf("archiving run %s: %w", rec.ID, err)
	}
	return nil
}
