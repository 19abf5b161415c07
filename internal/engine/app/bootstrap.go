package app

import (
	"context"
	"log/slog"

	"github.com/minepulse/gamify-engine/internal/common/bootstrap"
	gconfig "github.com/minepulse/gamify-engine/internal/engine/config"
	"github.com/minepulse/gamify-engine/internal/engine/intake"
)

// Initialize 는 게임화 엔진 의존성을 초기화하고 ServerApp을 반환한다.
func Initialize(ctx context.Context, cfg *gconfig.Config, logger *slog.Logger) (*bootstrap.ServerApp, func(), error) {
	catalog, err := newBadgeCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}

	dataValkeyClient, cleanupDataValkey, err := newDataValkey(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	db, cleanupDB, err := newDB(ctx, cfg, logger)
	if err != nil {
		cleanupDataValkey()
		return nil, nil, err
	}

	repo, err := newRepository(ctx, db)
	if err != nil {
		cleanupDB()
		cleanupDataValkey()
		return nil, nil, err
	}

	mqValkeyClient, cleanupMQValkey, err := newMQValkey(ctx, cfg, logger)
	if err != nil {
		cleanupDB()
		cleanupDataValkey()
		return nil, nil, err
	}

	dispatcher := newNotifyDispatcher(cfg, mqValkeyClient, logger)
	rewardEngine := newRewardEngine(cfg, repo, catalog, dispatcher, logger)
	leaderboardService := newLeaderboardService(cfg, repo, dataValkeyClient, dispatcher, logger)
	lotteryEngine := newLotteryEngine(cfg, repo, dispatcher, logger)

	handler := intake.NewHandler(rewardEngine, logger)
	consumer := newStreamConsumer(cfg, mqValkeyClient, logger)

	httpMux := newHTTPMux(repo, catalog, leaderboardService, logger)
	httpServer := newHTTPServer(cfg, httpMux)

	serverApp := newServerApp(cfg, logger, httpServer, consumer, handler, leaderboardService, lotteryEngine, repo)

	cleanup := func() {
		cleanupMQValkey()
		cleanupDB()
		cleanupDataValkey()
	}

	return serverApp, cleanup, nil
}
