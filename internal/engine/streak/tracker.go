// Package streak: 플레이어별 ISO 주 단위 활동 스트릭을 재계산한다.
//
// 주 경계(월요일 00:00 UTC)는 타이머가 정확히 발화한다고 가정하지 않는다.
// 롤오버는 다음 접근 시점에 지연 감지되고, 스트릭은 증분 신뢰 대신 주간 활동
// 행에서 매번 재계산된다.
package streak

import (
	"context"
	"fmt"
	"time"

	"github.com/minepulse/gamify-engine/internal/engine/model"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
)

// Tracker 는 타입이다.
type Tracker struct {
	minSharesPerWeek int64
	weekWindow       int
}

// NewTracker: minSharesPerWeek 는 해당 주를 활동으로 인정하는 최소 공유 수다.
func NewTracker(minSharesPerWeek int64) *Tracker {
	if minSharesPerWeek <= 0 {
		minSharesPerWeek = 1
	}
	return &Tracker{minSharesPerWeek: minSharesPerWeek, weekWindow: 104}
}

// Recompute: 주간 활동 행에서 현재/최장 스트릭을 재계산해 상태에 기록한다.
// 반드시 주간 활동 upsert 와 같은 트랜잭션 안에서 호출한다.
func (t *Tracker) Recompute(ctx context.Context, repo *repository.Repository, playerID string, now time.Time) (current int, longest int, err error) {
	weeks, err := repo.ListPlayerWeeks(ctx, playerID, t.weekWindow)
	if err != nil {
		return 0, 0, fmt.Errorf("streak recompute failed: %w", err)
	}

	current, longest = t.Lengths(weeks, now)
	if err := repo.SetStreak(ctx, playerID, current, longest, model.WeekStart(now)); err != nil {
		return 0, 0, err
	}
	return current, longest, nil
}

// Lengths: 주간 활동 행(주 시작일 내림차순)에서 스트릭 길이를 계산한다.
// 현재 스트릭은 가장 최근에 닫힌 주에서 끝나는 연속 활동 주의 최대 접미사이며,
// 이번 주가 이미 활동 상태면 이번 주도 포함한다. 최장 스트릭은 창 내 최대
// 연속 구간이다 (저장 시 단조 증가 보장은 상태 갱신 쪽에 있다).
func (t *Tracker) Lengths(weeks []repository.PeriodActivity, now time.Time) (current int, longest int) {
	active := make(map[time.Time]bool, len(weeks))
	for _, w := range weeks {
		if w.Shares >= t.minSharesPerWeek {
			active[w.PeriodStart.UTC()] = true
		}
	}

	thisWeek := model.WeekStart(now)

	cursor := thisWeek
	if !active[cursor] {
		// 이번 주 미활동이면 마지막으로 닫힌 주부터 센다.
		cursor = thisWeek.AddDate(0, 0, -7)
	}
	for active[cursor] {
		current++
		cursor = cursor.AddDate(0, 0, -7)
	}

	// 창 내 최대 연속 구간
	for start := range active {
		prev := start.AddDate(0, 0, 7)
		if active[prev] {
			continue // 연속 구간의 시작점만 센다
		}
		run := 0
		for cur := start; active[cur]; cur = cur.AddDate(0, 0, -7) {
			run++
		}
		if run > longest {
			longest = run
		}
	}

	return current, longest
}
