// Package main plays a recorded pointer script against a battle without a window.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/app"
	"github.com/cory-johannsen/taktiks/internal/config"
	"github.com/cory-johannsen/taktiks/internal/lifecycle"
	"github.com/cory-johannsen/taktiks/internal/observability"
	"github.com/cory-johannsen/taktiks/internal/replay"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scriptPath := flag.String("script", "", "replay script; empty uses replay.file from the config")
	seed := flag.Uint64("seed", 1, "dice seed; 0 rolls from crypto/rand")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}

	path := cfg.Replay.File
	if *scriptPath != "" {
		path = *scriptPath
	}
	script, err := replay.Load(path)
	if err != nil {
		logger.Fatal("loading replay", zap.Error(err))
	}

	a, err := app.Build(logger, cfg, app.Options{Seed: *seed})
	if err != nil {
		logger.Fatal("building battle", zap.Error(err))
	}
	if err := a.Pool.Start(); err != nil {
		logger.Fatal("starting input dispatch", zap.Error(err))
	}
	runner := replay.NewRunner(logger, a.Battle, a.Hub, a.Pool, cfg.Battle.TickRate, cfg.Replay.FrameInterval)

	lc := lifecycle.New(logger)
	lc.Add("battle", &lifecycle.FuncService{StartFn: lifecycle.Idle, StopFn: a.Close})
	lc.Add("replay", &lifecycle.FuncService{
		StartFn: func(ctx context.Context) error {
			res, err := runner.Run(ctx, script)
			if err != nil {
				return err
			}
			logger.Info("replay result",
				zap.Int("frames", res.Frames),
				zap.Int("turns", res.Turns),
				zap.Int("resolved", res.Resolved),
				zap.Int("winner", res.Winner),
			)
			return nil
		},
	})

	logger.Info("replay starting",
		zap.String("script", path),
		zap.Duration("startup", time.Since(start)),
	)
	runErr := lc.Run(context.Background())
	_ = observability.Sync(logger)
	if runErr != nil {
		os.Exit(1)
	}
}
