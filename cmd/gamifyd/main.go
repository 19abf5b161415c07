package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/minepulse/gamify-engine/internal/common/bootstrap"
	commonconfig "github.com/minepulse/gamify-engine/internal/common/config"
	"github.com/minepulse/gamify-engine/internal/common/health"
	gapp "github.com/minepulse/gamify-engine/internal/engine/app"
	gconfig "github.com/minepulse/gamify-engine/internal/engine/config"
)

// Version: 빌드 시 ldflags로 주입됨 (예: -ldflags="-X main.Version=1.0.0")
var Version = "dev"

func main() {
	health.Init(Version)

	logger := bootstrap.NewLogger()
	slog.SetDefault(logger)

	finalLogger, err := bootstrap.RunServiceEntrypoint(
		context.Background(),
		logger,
		"gamifyd.log",
		gconfig.LoadFromEnv,
		func(cfg *gconfig.Config) commonconfig.LogConfig { return cfg.Log },
		gapp.Initialize,
	)
	if err != nil {
		logger = finalLogger
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
