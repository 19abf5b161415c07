// Package reward: 이벤트 하나를 플레이어 상태 변화(카운터, 배지, XP, 레벨)로
// 바꾸는 핵심 결정 컴포넌트.
//
// 카운터 갱신과 트리거 평가는 단일 DB 트랜잭션으로 묶여, 동시 이벤트가
// 반쯤 갱신된 카운터를 관찰하지 못한다. 모든 효과는 event_id 에 대해 멱등이다.
package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cerrors "github.com/minepulse/gamify-engine/internal/common/errors"
	"github.com/minepulse/gamify-engine/internal/engine/badge"
	"github.com/minepulse/gamify-engine/internal/engine/model"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
	"github.com/minepulse/gamify-engine/internal/engine/streak"
)

// Notifier: 상태 전이 알림을 전달 계층에 넘기는 인터페이스. best-effort.
type Notifier interface {
	Publish(ctx context.Context, n model.Notification)
}

// Outcome: Process 호출 한 번의 결과 요약.
type Outcome struct {
	BadgesAwarded []badge.Definition
	XPGranted     int64
	NewLevel      int
	LeveledUp     bool
	Duplicate     bool // 재전달된 이벤트 — 효과 없이 성공
}

// Engine 는 타입이다.
type Engine struct {
	repo     *repository.Repository
	catalog  *badge.Catalog
	streaks  *streak.Tracker
	notifier Notifier
	logger   *slog.Logger
}

// NewEngine 는 인스턴스를 생성한다.
func NewEngine(repo *repository.Repository, catalog *badge.Catalog, streaks *streak.Tracker, notifier Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, catalog: catalog, streaks: streaks, notifier: notifier, logger: logger}
}

// Process: 이벤트 하나를 처리한다.
// 순서: 멱등성 삽입 → 카운터 갱신 → 기간 집계 → 스트릭 재계산 → 기본 XP →
// 미획득 배지 트리거 평가 → 배지/XP 기록 → 원장 합계로 레벨 재계산.
// 전부 한 트랜잭션이며, 커밋 후에만 알림을 내보낸다.
func (e *Engine) Process(ctx context.Context, ev model.Event) (Outcome, error) {
	if !model.IsKnownEventType(ev.Type) {
		return Outcome{}, cerrors.UnknownEventTypeError{EventID: ev.EventID, Type: string(ev.Type)}
	}

	var (
		out       Outcome
		prevLevel int
	)

	err := e.repo.Transaction(ctx, func(tx *repository.Repository) error {
		fresh, err := tx.MarkEventProcessed(ctx, ev.EventID, ev.Payload.PlayerID, string(ev.Type), ev.Timestamp)
		if err != nil {
			return err
		}
		if !fresh {
			out.Duplicate = true
			return nil
		}

		delta := counterDeltaFor(ev)
		if err := tx.ApplyCounterDelta(ctx, ev.Payload.PlayerID, delta); err != nil {
			return err
		}

		if delta.ShareInc > 0 || delta.Difficulty > 0 {
			ts := ev.Timestamp.UTC()
			if err := tx.UpsertPeriodActivity(ctx, ev.Payload.PlayerID, model.WeekKey(ts), model.WeekStart(ts), delta.ShareInc, delta.Difficulty); err != nil {
				return err
			}
			if err := tx.UpsertPeriodActivity(ctx, ev.Payload.PlayerID, model.MonthKey(ts), model.MonthStart(ts), delta.ShareInc, delta.Difficulty); err != nil {
				return err
			}
		}

		currentStreak, longestStreak, err := e.streaks.Recompute(ctx, tx, ev.Payload.PlayerID, ev.Timestamp)
		if err != nil {
			return err
		}

		var granted int64
		if base := e.baseXPFor(ev); base > 0 {
			ref := ev.EventID
			if err := tx.AppendLedgerEntry(ctx, &repository.XPLedgerEntry{
				PlayerID: ev.Payload.PlayerID,
				Amount:   base,
				Reason:   string(ev.Type),
				RefID:    &ref,
			}); err != nil {
				return err
			}
			granted += base
		}

		state, err := tx.GetPlayerState(ctx, ev.Payload.PlayerID)
		if err != nil {
			return err
		}
		if state == nil {
			return cerrors.InvariantViolationError{
				Invariant: "player-state-exists",
				Detail:    fmt.Sprintf("player %s missing after counter upsert", ev.Payload.PlayerID),
			}
		}
		prevLevel = state.Level

		earned, err := tx.ListEarnedSlugs(ctx, ev.Payload.PlayerID)
		if err != nil {
			return err
		}

		in := badge.EvalInput{
			Event: ev,
			Counters: badge.Counters{
				ShareCount:     state.ShareCount,
				BestDifficulty: state.BestDifficulty,
				BlocksFound:    state.BlocksFound,
				CurrentStreak:  currentStreak,
				LongestStreak:  longestStreak,
			},
		}

		for _, def := range e.catalog.NewlySatisfied(earned, in) {
			inserted, err := tx.InsertEarnedBadge(ctx, ev.Payload.PlayerID, def.Slug, nil, ev.Timestamp)
			if err != nil {
				return err
			}
			if !inserted {
				// 동시 평가가 먼저 수여했다. 성공으로 취급하고 XP 도 추가하지 않는다.
				e.logger.Debug("badge already awarded by concurrent evaluation",
					"playerId", ev.Payload.PlayerID, "badge", def.Slug)
				continue
			}

			slugRef := def.Slug
			if err := tx.AppendLedgerEntry(ctx, &repository.XPLedgerEntry{
				PlayerID: ev.Payload.PlayerID,
				Amount:   def.XPReward,
				Reason:   "badge_earned",
				RefID:    &slugRef,
			}); err != nil {
				return err
			}
			granted += def.XPReward
			out.BadgesAwarded = append(out.BadgesAwarded, def)
		}

		if err := tx.IncrementBadgeCount(ctx, ev.Payload.PlayerID, len(out.BadgesAwarded)); err != nil {
			return err
		}

		sum, err := tx.SumLedger(ctx, ev.Payload.PlayerID)
		if err != nil {
			return err
		}
		if sum != state.TotalXP+granted {
			return cerrors.InvariantViolationError{
				Invariant: "ledger-sum",
				Detail: fmt.Sprintf("player %s: ledger sum %d != cached %d + granted %d",
					ev.Payload.PlayerID, sum, state.TotalXP, granted),
			}
		}

		out.XPGranted = granted
		out.NewLevel = LevelForXP(sum)
		return tx.SetLevelAndXP(ctx, ev.Payload.PlayerID, sum, out.NewLevel)
	})
	if err != nil {
		if cerrors.IsBadInput(err) || cerrors.IsIdempotencyCollision(err) {
			return Outcome{}, err
		}
		var iv cerrors.InvariantViolationError
		if errors.As(err, &iv) {
			e.logger.Error("invariant violated, aborting without partial effect",
				"eventId", ev.EventID, "error", err)
			return Outcome{}, err
		}
		return Outcome{}, cerrors.DatabaseError{Operation: "reward process", Err: err}
	}

	if out.Duplicate {
		e.logger.Debug("duplicate event redelivered", "eventId", ev.EventID)
		return out, nil
	}

	out.LeveledUp = out.NewLevel > prevLevel
	e.emitNotifications(ctx, ev, out)
	return out, nil
}

// counterDeltaFor: 이벤트 타입이 플레이어 카운터에 가하는 변화량.
func counterDeltaFor(ev model.Event) repository.CounterDelta {
	d := repository.CounterDelta{
		Region:      ev.Payload.Region,
		LastEventAt: ev.Timestamp.UTC(),
	}

	switch ev.Type {
	case model.EventShareSubmitted:
		d.ShareInc = ev.Payload.ShareCount
		if d.ShareInc <= 0 {
			d.ShareInc = 1
		}
		d.Difficulty = ev.Payload.Difficulty
	case model.EventShareBestDiff, model.EventDifficultyUpdate:
		d.Difficulty = ev.Payload.Difficulty
	case model.EventBlockFound:
		d.BlockInc = 1
		d.Difficulty = ev.Payload.Difficulty
	case model.EventMinerConnected, model.EventMinerDisconnected:
		// 접속 이벤트는 카운터를 바꾸지 않는다.
	}
	return d
}

// baseXPFor: 이벤트 자체에 부여되는 기본 XP (카탈로그 reason code 기준).
func (e *Engine) baseXPFor(ev model.Event) int64 {
	per := e.catalog.XPForReason(string(ev.Type))
	if per <= 0 {
		return 0
	}
	if ev.Type == model.EventShareSubmitted && ev.Payload.ShareCount > 1 {
		return per * ev.Payload.ShareCount
	}
	return per
}

func (e *Engine) emitNotifications(ctx context.Context, ev model.Event, out Outcome) {
	if e.notifier == nil {
		return
	}

	for _, def := range out.BadgesAwarded {
		e.notifier.Publish(ctx, model.Notification{
			Channel:  model.ChannelUser,
			Type:     model.NotifyBadgeEarned,
			PlayerID: ev.Payload.PlayerID,
			Data: map[string]any{
				"badge":    def.Slug,
				"name":     def.Name,
				"rarity":   def.Rarity,
				"xpReward": def.XPReward,
			},
		})
	}

	if out.LeveledUp {
		e.notifier.Publish(ctx, model.Notification{
			Channel:  model.ChannelUser,
			Type:     model.NotifyLevelUp,
			PlayerID: ev.Payload.PlayerID,
			Data:     map[string]any{"level": out.NewLevel},
		})
	}

	if ev.Type == model.EventBlockFound {
		e.notifier.Publish(ctx, model.Notification{
			Channel: model.ChannelGlobal,
			Type:    model.NotifyBlockFound,
			Data: map[string]any{
				"playerId":  ev.Payload.PlayerID,
				"blockHash": ev.Payload.BlockHash,
			},
		})
	}
}
