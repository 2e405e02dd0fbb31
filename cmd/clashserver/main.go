// Package main provides the clash table server. It wires configuration, the
// database, the resolution engines, the Telnet acceptor, and the health endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/coinclash/internal/config"
	"github.com/cory-johannsen/coinclash/internal/frontend/handlers"
	"github.com/cory-johannsen/coinclash/internal/frontend/telnet"
	"github.com/cory-johannsen/coinclash/internal/game/clash"
	"github.com/cory-johannsen/coinclash/internal/game/dice"
	"github.com/cory-johannsen/coinclash/internal/game/lobby"
	"github.com/cory-johannsen/coinclash/internal/game/roll"
	"github.com/cory-johannsen/coinclash/internal/game/session"
	"github.com/cory-johannsen/coinclash/internal/game/skill"
	"github.com/cory-johannsen/coinclash/internal/observability"
	"github.com/cory-johannsen/coinclash/internal/server"
	"github.com/cory-johannsen/coinclash/internal/storage/postgres"
)

// outboxBuffer is how many undelivered blocks a slow client may queue.
const outboxBuffer = 64

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	presetsDir := flag.String("presets", "content/skills", "path to house skill YAML directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "clashserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	presets, err := skill.LoadPresets(*presetsDir)
	if err != nil {
		logger.Fatal("loading house skills", zap.Error(err))
	}
	logger.Info("house skills loaded", zap.Int("count", len(presets)))

	src := newSource(cfg.Game, logger)
	table := handlers.NewTable(
		postgres.NewSkillRepository(pool.DB()),
		presets,
		src,
		clash.NewEngine(src, logger, cfg.Game.MaxClashRounds),
		roll.NewEngine(src, logger, cfg.Game.MaxDiceRerolls),
		lobby.New(cfg.Game.ChallengeWindow, logger),
		session.NewManager(outboxBuffer),
		logger,
	)
	auth := handlers.NewAuthHandler(postgres.NewPlayerRepository(pool.DB()), table, logger)
	acceptor := telnet.NewAcceptor(cfg.Telnet, auth, logger)
	health := server.NewHealthServer(cfg.Health.Addr(), pool, cfg.Health.PingTimeout, cfg.Health.Interval, logger)

	lifecycle := server.NewLifecycle(logger)

	// Stopped last: open challenges expire and their results are broadcast
	// only after the acceptor has stopped taking new sessions.
	tableDone := make(chan struct{})
	lifecycle.Add("table", &server.FuncService{
		StartFn: func() error {
			<-tableDone
			return nil
		},
		StopFn: func() {
			table.Close()
			pool.Close()
			close(tableDone)
		},
	})
	lifecycle.Add("health", health)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("health_addr", cfg.Health.Addr()),
		zap.String("rng", cfg.Game.RNG),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newSource builds the configured randomness source. Draws are logged at debug.
func newSource(cfg config.GameConfig, logger *zap.Logger) dice.Source {
	var src dice.Source
	switch cfg.RNG {
	case config.RNGSeeded:
		logger.Warn("using seeded randomness; outcomes are reproducible", zap.Uint64("seed", cfg.Seed))
		src = dice.NewSeededSource(cfg.Seed)
	default:
		src = dice.NewCryptoSource()
	}
	return dice.NewLoggedSource(src, logger)
}
