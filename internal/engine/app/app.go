package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/minepulse/gamify-engine/internal/common/bootstrap"
	"github.com/minepulse/gamify-engine/internal/common/dbutil"
	"github.com/minepulse/gamify-engine/internal/common/di"
	"github.com/minepulse/gamify-engine/internal/common/httpserver"
	commonmq "github.com/minepulse/gamify-engine/internal/common/mq"
	"github.com/minepulse/gamify-engine/internal/engine/badge"
	gconfig "github.com/minepulse/gamify-engine/internal/engine/config"
	ghttpapi "github.com/minepulse/gamify-engine/internal/engine/httpapi"
	"github.com/minepulse/gamify-engine/internal/engine/intake"
	"github.com/minepulse/gamify-engine/internal/engine/leaderboard"
	"github.com/minepulse/gamify-engine/internal/engine/lottery"
	"github.com/minepulse/gamify-engine/internal/engine/notify"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
	"github.com/minepulse/gamify-engine/internal/engine/reward"
	"github.com/minepulse/gamify-engine/internal/engine/streak"
)

func newBadgeCatalog(cfg *gconfig.Config) (*badge.Catalog, error) {
	if cfg.Reward.BadgeCatalogPath != "" {
		catalog, err := badge.LoadCatalogFile(cfg.Reward.BadgeCatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load badge catalog failed: %w", err)
		}
		return catalog, nil
	}
	catalog, err := badge.DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("load embedded badge catalog failed: %w", err)
	}
	return catalog, nil
}

func newDataValkey(
	ctx context.Context,
	cfg *gconfig.Config,
	logger *slog.Logger,
) (di.DataValkeyClient, func(), error) {
	client, closeFn, err := bootstrap.NewAndPingDataValkeyClient(ctx, cfg.Redis, logger)
	if err != nil {
		return di.DataValkeyClient{}, nil, fmt.Errorf("init valkey failed: %w", err)
	}
	return client, closeFn, nil
}

func newMQValkey(
	ctx context.Context,
	cfg *gconfig.Config,
	logger *slog.Logger,
) (di.MQValkeyClient, func(), error) {
	client, closeFn, err := bootstrap.NewAndPingMQValkeyClient(ctx, cfg.Valkey, logger)
	if err != nil {
		return di.MQValkeyClient{}, nil, fmt.Errorf("init valkey mq failed: %w", err)
	}
	return client, closeFn, nil
}

func newDB(
	ctx context.Context,
	cfg *gconfig.Config,
	logger *slog.Logger,
) (*gorm.DB, func(), error) {
	db, sqlDB, err := dbutil.OpenWithRetry(ctx, func(ctx context.Context) (*gorm.DB, *sql.DB, error) {
		return openPostgres(ctx, cfg.Postgres)
	}, dbutil.DefaultRetryConfig(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres failed: %w", err)
	}

	closeFn := func() {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Warn("postgres_close_failed", "err", closeErr)
		}
	}
	return db, closeFn, nil
}

func newRepository(ctx context.Context, db *gorm.DB) (*repository.Repository, error) {
	repo := repository.New(db)
	if err := repo.AutoMigrate(ctx); err != nil {
		return nil, fmt.Errorf("auto migrate failed: %w", err)
	}
	return repo, nil
}

func newNotifyDispatcher(cfg *gconfig.Config, mqValkey di.MQValkeyClient, logger *slog.Logger) *notify.Dispatcher {
	publisher := commonmq.NewStreamPublisher(mqValkey.Client, logger, commonmq.StreamPublisherConfig{
		Stream: cfg.Valkey.NotifyStreamKey,
		MaxLen: cfg.Valkey.StreamMaxLen,
	})
	return notify.NewDispatcher(publisher, logger)
}

func newRewardEngine(
	cfg *gconfig.Config,
	repo *repository.Repository,
	catalog *badge.Catalog,
	dispatcher *notify.Dispatcher,
	logger *slog.Logger,
) *reward.Engine {
	tracker := streak.NewTracker(cfg.Streak.MinSharesPerWeek)
	return reward.NewEngine(repo, catalog, tracker, dispatcher, logger)
}

func newLeaderboardService(
	cfg *gconfig.Config,
	repo *repository.Repository,
	dataValkey di.DataValkeyClient,
	dispatcher *notify.Dispatcher,
	logger *slog.Logger,
) *leaderboard.Service {
	store := leaderboard.NewSnapshotStore(dataValkey.Client, logger, cfg.Leaderboard.SnapshotRetention)
	return leaderboard.NewService(repo, store, dispatcher, cfg.Leaderboard.TopN, logger)
}

func newLotteryEngine(
	cfg *gconfig.Config,
	repo *repository.Repository,
	dispatcher *notify.Dispatcher,
	logger *slog.Logger,
) *lottery.Engine {
	return lottery.NewEngine(repo, dispatcher, cfg.Lottery.Prizes, logger)
}

func newStreamConsumer(cfg *gconfig.Config, mqValkey di.MQValkeyClient, logger *slog.Logger) *commonmq.StreamConsumer {
	return commonmq.NewStreamConsumer(mqValkey.Client, logger, commonmq.StreamConsumerConfig{
		Stream:              cfg.Valkey.StreamKey,
		Group:               cfg.Valkey.ConsumerGroup,
		Name:                cfg.Valkey.ConsumerName,
		BatchSize:           cfg.Valkey.BatchSize,
		Block:               cfg.Valkey.BlockTimeout,
		Concurrency:         cfg.Valkey.Concurrency,
		ResetGroupOnStartup: cfg.Valkey.ResetConsumerGroupOnStartup,
	})
}

func newHTTPMux(
	repo *repository.Repository,
	catalog *badge.Catalog,
	lb *leaderboard.Service,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	ghttpapi.NewAPI(repo, catalog, lb, logger).Register(mux)
	return mux
}

func newHTTPServer(cfg *gconfig.Config, mux *http.ServeMux) *http.Server {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return httpserver.NewServer(addr, mux, httpserver.ServerOptions{
		ReadHeaderTimeout: cfg.ServerTuning.ReadHeaderTimeout,
		IdleTimeout:       cfg.ServerTuning.IdleTimeout,
		MaxHeaderBytes:    cfg.ServerTuning.MaxHeaderBytes,
	})
}

func newServerApp(
	cfg *gconfig.Config,
	logger *slog.Logger,
	server *http.Server,
	consumer *commonmq.StreamConsumer,
	handler *intake.Handler,
	lb *leaderboard.Service,
	lot *lottery.Engine,
	repo *repository.Repository,
) *bootstrap.ServerApp {
	return bootstrap.NewServerApp(
		"gamify-engine",
		logger,
		server,
		10*time.Second,
		bootstrap.BackgroundTask{
			Name:        "event_intake",
			ErrorLogKey: "event_intake_failed",
			Run: func(ctx context.Context) error {
				return consumer.Run(ctx, handler.HandleStreamMessage)
			},
		},
		bootstrap.BackgroundTask{
			Name:        "leaderboard_scheduler",
			ErrorLogKey: "leaderboard_scheduler_failed",
			Run: func(ctx context.Context) error {
				return runLeaderboardScheduler(ctx, lb, cfg.Leaderboard.RefreshInterval, logger)
			},
		},
		bootstrap.BackgroundTask{
			Name:        "lottery_scheduler",
			ErrorLogKey: "lottery_scheduler_failed",
			Run: func(ctx context.Context) error {
				return runLotteryScheduler(ctx, lot, cfg.Lottery.CheckInterval, logger)
			},
		},
		bootstrap.BackgroundTask{
			Name:        "retention_pruner",
			ErrorLogKey: "retention_pruner_failed",
			Run: func(ctx context.Context) error {
				return runRetentionPruner(ctx, repo, cfg.Retention, logger)
			},
		},
	)
}

func openPostgres(ctx context.Context, cfg gconfig.PostgresConfig) (*gorm.DB, *sql.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("gorm open failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("get sql db failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, nil, fmt.Errorf("db ping failed: %w", err)
	}

	return db, sqlDB, nil
}
