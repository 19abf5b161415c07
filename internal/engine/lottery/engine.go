// Package lottery: 주간 활동 비례 가중 추첨.
//
// 기간당 정확히 한 번 추첨한다. lottery_draws 의 기간 유니크 제약이
// compare-and-set 역할이라, 동시 스케줄러가 있어도 이중 추첨이 불가능하다.
// 마감 시점의 티켓 분할 전문을 추첨과 함께 남겨 감사 검증이 가능하다.
package lottery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"

	cerrors "github.com/minepulse/gamify-engine/internal/common/errors"
	"github.com/minepulse/gamify-engine/internal/engine/model"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
)

// Notifier: 당첨 알림 발행 인터페이스.
type Notifier interface {
	Publish(ctx context.Context, n model.Notification)
}

// Engine 는 타입이다.
type Engine struct {
	repo     *repository.Repository
	notifier Notifier
	prizes   []string
	logger   *slog.Logger
}

// NewEngine: prizes 는 자리 순서대로의 상품 이름이며 길이가 상품 수다.
func NewEngine(repo *repository.Repository, notifier Notifier, prizes []string, logger *slog.Logger) *Engine {
	if len(prizes) == 0 {
		prizes = []string{"grand"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, notifier: notifier, prizes: prizes, logger: logger}
}

// Draw: 닫힌 기간 하나를 추첨한다.
// 이미 추첨된 기간이면 DrawConflictError 로 거부하고 기존 결과는 건드리지
// 않는다. 참가자가 없으면 빈 추첨을 기록해 기간을 소진시킨다.
func (e *Engine) Draw(ctx context.Context, periodKey string, now time.Time) (*repository.LotteryDraw, []repository.LotteryResult, error) {
	activities, err := e.repo.ActivitiesForPeriod(ctx, periodKey)
	if err != nil {
		return nil, nil, cerrors.DatabaseError{Operation: "lottery activities", Err: err}
	}

	participants := make([]Participant, 0, len(activities))
	for _, a := range activities {
		participants = append(participants, Participant{PlayerID: a.PlayerID, Tickets: a.Shares})
	}
	partition := BuildPartition(participants)

	winners, err := DrawWinners(partition, len(e.prizes))
	if err != nil {
		return nil, nil, err
	}

	partitionBody, err := json.Marshal(partition)
	if err != nil {
		return nil, nil, err
	}

	draw := &repository.LotteryDraw{
		PeriodKey:        periodKey,
		TotalTickets:     partition.TotalTickets,
		ParticipantCount: len(partition.Ranges),
		PartitionJSON:    string(partitionBody),
		DrawnAt:          now.UTC(),
	}
	results := make([]repository.LotteryResult, 0, len(winners))
	for i, w := range winners {
		results = append(results, repository.LotteryResult{
			PlayerID:     w.PlayerID,
			Placement:    w.Placement,
			TicketNumber: w.TicketNumber,
			Prize:        e.prizes[i],
		})
	}

	if err := e.repo.CreateDraw(ctx, draw, results); err != nil {
		var conflict cerrors.DrawConflictError
		if errors.As(err, &conflict) {
			// 다른 스케줄러가 먼저 추첨했다. 원래 결과는 그대로 둔다.
			e.logger.Info("lottery_already_drawn", "period", periodKey)
			return nil, nil, err
		}
		return nil, nil, cerrors.DatabaseError{Operation: "lottery create draw", Err: err}
	}

	e.logger.Info("lottery_drawn",
		"period", periodKey,
		"participants", draw.ParticipantCount,
		"totalTickets", draw.TotalTickets,
		"winners", len(results),
	)

	if e.notifier != nil {
		for _, res := range results {
			e.notifier.Publish(ctx, model.Notification{
				Channel:  model.ChannelUser,
				Type:     model.NotifyLotteryWon,
				PlayerID: res.PlayerID,
				Data: map[string]any{
					"period":    periodKey,
					"placement": res.Placement,
					"prize":     res.Prize,
				},
			})
		}
	}

	return draw, results, nil
}

// DrawClosedWeek: 가장 최근에 닫힌 ISO 주가 아직 추첨 전이면 추첨한다.
// 기간 경계에서 정확히 발화하는 타이머에 의존하지 않고, 틱마다 지연 감지한다.
func (e *Engine) DrawClosedWeek(ctx context.Context, now time.Time) error {
	periodKey := model.PrevWeekKey(now)

	existing, _, err := e.repo.GetDraw(ctx, periodKey)
	if err != nil {
		return cerrors.DatabaseError{Operation: "lottery get draw", Err: err}
	}
	if existing != nil {
		return nil
	}

	_, _, err = e.Draw(ctx, periodKey, now)
	if cerrors.IsIdempotencyCollision(err) {
		return nil
	}
	return err
}
