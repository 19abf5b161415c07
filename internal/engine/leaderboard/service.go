// Package leaderboard: 권위 저장소에서 기간별 순위를 주기적으로 재계산해
// 읽기 최적화 캐시에 불변 스냅샷으로 발행한다.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cerrors "github.com/minepulse/gamify-engine/internal/common/errors"
	"github.com/minepulse/gamify-engine/internal/engine/model"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
)

// Notifier: 순위 변동 알림 발행 인터페이스.
type Notifier interface {
	Publish(ctx context.Context, n model.Notification)
}

// Service 는 타입이다.
type Service struct {
	repo     *repository.Repository
	store    *SnapshotStore
	notifier Notifier
	topN     int
	logger   *slog.Logger
}

// NewService 는 인스턴스를 생성한다.
func NewService(repo *repository.Repository, store *SnapshotStore, notifier Notifier, topN int, logger *slog.Logger) *Service {
	if topN <= 0 {
		topN = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, notifier: notifier, topN: topN, logger: logger}
}

// RefreshAll: 모든 기간을 갱신한다. 실패한 기간은 건너뛰고 다음 틱에 재시도
// 한다. 실패해도 이전 스냅샷이 그대로 서비스되므로 즉시 재시도하지 않는다.
func (s *Service) RefreshAll(ctx context.Context, now time.Time) {
	for _, period := range model.AllLeaderboardPeriods {
		if err := s.Refresh(ctx, period, now); err != nil {
			s.logger.Warn("leaderboard_refresh_failed", "period", period, "err", err)
		}
	}
}

// Refresh: 한 기간의 스냅샷을 재계산해 발행한다.
// region 기간은 지역별로 세그먼트를 나눠 각각 발행한다.
func (s *Service) Refresh(ctx context.Context, period model.LeaderboardPeriod, now time.Time) error {
	if period == model.PeriodRegion {
		regions, err := s.repo.ListRegions(ctx)
		if err != nil {
			return cerrors.DatabaseError{Operation: "list regions", Err: err}
		}
		for _, region := range regions {
			if err := s.refreshSegment(ctx, period, region, now); err != nil {
				return err
			}
		}
		return nil
	}
	return s.refreshSegment(ctx, period, s.segmentFor(period, now), now)
}

// segmentFor: 기간의 스냅샷 세그먼트 키 (weekly → ISO 주, monthly → 월, alltime → "").
func (s *Service) segmentFor(period model.LeaderboardPeriod, now time.Time) string {
	switch period {
	case model.PeriodWeekly:
		return model.WeekKey(now)
	case model.PeriodMonthly:
		return model.MonthKey(now)
	default:
		return ""
	}
}

func (s *Service) refreshSegment(ctx context.Context, period model.LeaderboardPeriod, segment string, now time.Time) error {
	rows, err := s.scoreRows(ctx, period, segment)
	if err != nil {
		return cerrors.DatabaseError{Operation: fmt.Sprintf("leaderboard query %s", period), Err: err}
	}

	snap := &Snapshot{
		Period:     period,
		Segment:    segment,
		CapturedAt: now.UTC(),
		Entries:    make([]Entry, 0, len(rows)),
	}
	for i, row := range rows {
		snap.Entries = append(snap.Entries, Entry{
			Rank:     i + 1,
			PlayerID: row.PlayerID,
			Score:    row.Score,
		})
	}

	prev, err := s.store.Current(ctx, period, segment)
	if err != nil {
		// 변동 감지만 포기하고 발행은 계속한다.
		s.logger.Warn("previous_snapshot_read_failed", "period", period, "err", err)
		prev = nil
	}

	if err := s.store.Publish(ctx, snap); err != nil {
		return err
	}

	s.emitRankChanges(ctx, prev, snap)
	return nil
}

// scoreRows: 기간에 맞는 점수 차원으로 상위 N 을 질의한다.
// 시간 창 기간은 최고 난이도, 전체 기간과 지역은 누적 공유 수가 점수다.
func (s *Service) scoreRows(ctx context.Context, period model.LeaderboardPeriod, segment string) ([]repository.ScoreRow, error) {
	switch period {
	case model.PeriodWeekly, model.PeriodMonthly:
		return s.repo.TopByPeriodDifficulty(ctx, segment, s.topN)
	case model.PeriodAllTime:
		return s.repo.TopByTotalShares(ctx, "", s.topN)
	case model.PeriodRegion:
		return s.repo.TopByTotalShares(ctx, segment, s.topN)
	default:
		return nil, fmt.Errorf("unknown leaderboard period: %s", period)
	}
}

// emitRankChanges: 이전 스냅샷 대비 순위가 바뀐 플레이어에게 알림을 보낸다.
func (s *Service) emitRankChanges(ctx context.Context, prev *Snapshot, next *Snapshot) {
	if s.notifier == nil || prev == nil {
		return
	}

	prevRanks := make(map[string]int, len(prev.Entries))
	for _, e := range prev.Entries {
		prevRanks[e.PlayerID] = e.Rank
	}

	for _, e := range next.Entries {
		old, seen := prevRanks[e.PlayerID]
		if !seen || old == e.Rank {
			continue
		}
		s.notifier.Publish(ctx, model.Notification{
			Channel:  model.ChannelUser,
			Type:     model.NotifyRankChanged,
			PlayerID: e.PlayerID,
			Data: map[string]any{
				"period":       string(next.Period),
				"segment":      next.Segment,
				"previousRank": old,
				"rank":         e.Rank,
			},
		})
	}
}

// Current: 기간의 최신 발행 스냅샷.
func (s *Service) Current(ctx context.Context, period model.LeaderboardPeriod, segment string, now time.Time) (*Snapshot, error) {
	if segment == "" && period != model.PeriodAllTime && period != model.PeriodRegion {
		segment = s.segmentFor(period, now)
	}
	return s.store.Current(ctx, period, segment)
}

// OwnRank: 요청 플레이어의 순위 (top-N 밖이어도 계산). 미참여 시 0.
// 스냅샷 전체 스캔 대신 별도 COUNT 질의로 구한다.
func (s *Service) OwnRank(ctx context.Context, period model.LeaderboardPeriod, segment string, playerID string, now time.Time) (int64, error) {
	switch period {
	case model.PeriodWeekly:
		if segment == "" {
			segment = model.WeekKey(now)
		}
		return s.repo.PeriodDifficultyRank(ctx, segment, playerID)
	case model.PeriodMonthly:
		if segment == "" {
			segment = model.MonthKey(now)
		}
		return s.repo.PeriodDifficultyRank(ctx, segment, playerID)
	case model.PeriodAllTime:
		return s.repo.TotalSharesRank(ctx, "", playerID)
	case model.PeriodRegion:
		return s.repo.TotalSharesRank(ctx, segment, playerID)
	default:
		return 0, fmt.Errorf("unknown leaderboard period: %s", period)
	}
}
