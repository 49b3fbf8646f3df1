// Package main runs the simulation server: the run registry served over gRPC
// with ended runs archived to the configured store.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/bootstrap"
	"github.com/cory-johannsen/overstack/internal/config"
	"github.com/cory-johannsen/overstack/internal/game/run"
	"github.com/cory-johannsen/overstack/internal/gameserver"
	"github.com/cory-johannsen/overstack/internal/observability"
	"github.com/cory-johannsen/overstack/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and OVERSTACK_* environment")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "gameserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal("initializing tracing", zap.Error(err))
	}

	logger.Info("starting simulation server",
		zap.String("grpc_addr", cfg.Server.Addr()),
		zap.String("archive", cfg.Archive.Driver),
	)

	catalog, err := bootstrap.Catalog(cfg.Content, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	scripts, err := bootstrap.Scripts(cfg.Scripting, logger)
	if err != nil {
		logger.Fatal("loading scripts", zap.Error(err))
	}
	defer scripts.Close()

	archive, closeArchive, err := bootstrap.Archive(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening run archive", zap.Error(err))
	}

	reg := run.NewRegistry(catalog, logger)
	svc := gameserver.NewSimulationServer(reg, gameserver.Options{
		Defaults: cfg.Simulation,
		Archive:  archive,
		Scripts:  scripts,
		Logger:   logger,
	})
	grpcServer, healthServer := gameserver.NewGRPCServer(svc, logger)

	lis, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		logger.Fatal("listening", zap.String("addr", cfg.Server.Addr()), zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)
	lifecycle.Add("tracing", &server.FuncService{StopFn: func(ctx context.Context) {
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}})
	lifecycle.Add("archive", server.Closer(closeArchive, logger, "archive"))
	lifecycle.Add("grpc", &server.GRPCService{
		Server:   grpcServer,
		Health:   healthServer,
		Listener: lis,
	})

	logger.Info("simulation server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("simulation server stopped with error", zap.Error(err))
	}
	logger.Info("simulation server stopped", zap.Int("open_runs", reg.Len()))
}
