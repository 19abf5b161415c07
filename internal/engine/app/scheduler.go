package app

import (
	"context"
	"log/slog"
	"time"

	gconfig "github.com/minepulse/gamify-engine/internal/engine/config"
	"github.com/minepulse/gamify-engine/internal/engine/leaderboard"
	"github.com/minepulse/gamify-engine/internal/engine/lottery"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
)

// runLeaderboardScheduler: 주기적으로 전체 리더보드 스냅샷을 재계산합니다.
func runLeaderboardScheduler(
	ctx context.Context,
	lb *leaderboard.Service,
	interval time.Duration,
	logger *slog.Logger,
) error {
	lb.RefreshAll(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			lb.RefreshAll(ctx, time.Now())
		}
	}
}

// runLotteryScheduler: 마감된 주차의 추첨이 아직 없으면 실행합니다.
func runLotteryScheduler(
	ctx context.Context,
	lot *lottery.Engine,
	interval time.Duration,
	logger *slog.Logger,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := lot.DrawClosedWeek(ctx, time.Now()); err != nil {
				logger.Warn("lottery_draw_failed", "err", err)
			}
		}
	}
}

// runRetentionPruner: 오래된 추첨 기록과 처리 완료 이벤트를 정리합니다.
func runRetentionPruner(
	ctx context.Context,
	repo *repository.Repository,
	cfg gconfig.RetentionConfig,
	logger *slog.Logger,
) error {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := time.Now().UTC()
			if _, err := repo.PruneDrawsBefore(ctx, now.Add(-cfg.DrawRetention)); err != nil {
				logger.Warn("prune_draws_failed", "err", err)
			}
			if _, err := repo.PruneProcessedEventsBefore(ctx, now.Add(-cfg.ProcessedEventRetention)); err != nil {
				logger.Warn("prune_processed_events_failed", "err", err)
			}
			if _, err := repo.PrunePeriodActivitiesBefore(ctx, now.Add(-cfg.DrawRetention)); err != nil {
				logger.Warn("prune_period_activities_failed", "err", err)
			}
		}
	}
}
