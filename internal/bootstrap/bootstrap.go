// Package bootstrap builds the shared runtime pieces both binaries need from
// a loaded Config: the enemy catalog, the Lua policy scripts, and the run
// archive.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/config"
	"github.com/cory-johannsen/overstack/internal/game/npc"
	"github.com/cory-johannsen/overstack/internal/game/ruleset"
	"github.com/cory-johannsen/overstack/internal/scripting"
	"github.com/cory-johannsen/overstack/internal/storage"
	"github.com/cory-johannsen/overstack/internal/storage/postgres"
	"github.com/cory-johannsen/overstack/internal/storage/sqlite"
)

// Catalog loads enemy content from cfg.EnemyDir, or the built-in catalog
// when it is empty.
func Catalog(cfg config.ContentConfig, logger *zap.Logger) (*npc.Catalog, error) {
	start := time.Now()
	var (
		catalog *npc.Catalog
		err     error
		source  = "embedded"
	)
	if cfg.EnemyDir == "" {
		catalog, err = npc.LoadEmbedded()
	} else {
		source = cfg.EnemyDir
		catalog, err = npc.LoadDirectory(cfg.EnemyDir)
	}
	if err != nil {
		return nil, fmt.Errorf("loading enemy catalog from %s: %w", source, err)
	}
	logger.Info("enemy catalog loaded",
		zap.String("source", source),
		zap.Int("nodes", catalog.NodeCount()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return catalog, nil
}

// Scripts creates a script manager exposing the player's skill names and
// loads every script under cfg.ScriptDir when it is set.
//
// Postcondition: The caller owns the returned manager and must Close it.
func Scripts(cfg config.ScriptingConfig, logger *zap.Logger) (*scripting.Manager, error) {
	mgr := scripting.NewManager(cfg.InstructionLimit, logger)
	mgr.SkillNames = make([]string, ruleset.SkillSlotCount)
	for i := range mgr.SkillNames {
		mgr.SkillNames[i] = ruleset.SlotSkill(i).Name
	}
	if cfg.ScriptDir == "" {
		return mgr, nil
	}
	names, err := mgr.LoadDir(cfg.ScriptDir)
	if err != nil {
		mgr.Close()
		return nil, fmt.Errorf("loading scripts from %s: %w", cfg.ScriptDir, err)
	}
	logger.Info("policy scripts loaded",
		zap.String("dir", cfg.ScriptDir),
		zap.Strings("scripts", names),
	)
	return mgr, nil
}

// Archive opens the configured run archive. For the "none" driver it returns
// a nil archive and a no-op closer.
//
// Postcondition: closeFn is non-nil whenever err is nil.
func Archive(ctx context.Context, cfg config.Config, logger *zap.Logger) (archive storage.RunArchive, closeFn func() error, err error) {
	start := time.Now()
	switch cfg.Archive.Driver {
	case config.ArchivePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("run archive connected",
			zap.String("driver", config.ArchivePostgres),
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(start)),
		)
		return postgres.NewRunArchiveRepository(pool.DB()), func() error {
			pool.Close()
			return nil
		}, nil
	case config.ArchiveSQLite:
		store, err := sqlite.Open(ctx, cfg.Archive.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite archive: %w", err)
		}
		logger.Info("run archive opened",
			zap.String("driver", config.ArchiveSQLite),
			zap.String("path", cfg.Archive.SQLitePath),
		)
		return store, store.Close, nil
	case config.ArchiveNone, "":
		logger.Info("run archive disabled")
		return nil, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive driver %q", cfg.Archive.Driver)
	}
}
