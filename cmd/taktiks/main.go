// Package main runs a battle in a window driven by mouse and multi-touch input.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/app"
	"github.com/cory-johannsen/taktiks/internal/config"
	"github.com/cory-johannsen/taktiks/internal/frontend"
	"github.com/cory-johannsen/taktiks/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	seed := flag.Uint64("seed", 0, "dice seed; 0 rolls from crypto/rand")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = observability.Sync(logger) }()

	a, err := app.Build(logger, cfg, app.Options{Seed: *seed})
	if err != nil {
		logger.Fatal("building battle", zap.Error(err))
	}
	defer a.Close()
	if err := a.Pool.Start(); err != nil {
		logger.Fatal("starting input dispatch", zap.Error(err))
	}

	ebiten.SetWindowSize(cfg.Display.Width, cfg.Display.Height)
	ebiten.SetWindowTitle("Taktiks")
	ebiten.SetTPS(cfg.Battle.TickRate)

	logger.Info("window opening", zap.Duration("startup", time.Since(start)))
	if err := ebiten.RunGame(frontend.NewGame(logger, cfg, a.Battle, a.Hub)); err != nil {
		logger.Error("game loop exited", zap.Error(err))
	}
}
