package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterDelta: 한 이벤트가 플레이어 카운터에 가하는 변화량.
type CounterDelta struct {
	ShareInc    int64
	BlockInc    int64
	Difficulty  float64 // 0 이면 무시, 기존 최고치보다 클 때만 반영
	Region      string  // 빈 문자열이면 기존 값 유지
	LastEventAt time.Time
}

// ApplyCounterDelta: 플레이어 상태 행을 upsert 하며 카운터를 증가시킨다.
// 첫 이벤트면 행을 생성한다. 반드시 보상 트랜잭션 안에서 호출한다.
func (r *Repository) ApplyCounterDelta(ctx context.Context, playerID string, d CounterDelta) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return fmt.Errorf("empty player id")
	}

	entity := PlayerState{
		PlayerID:       playerID,
		Region:         d.Region,
		Level:          1,
		ShareCount:     d.ShareInc,
		BestDifficulty: d.Difficulty,
		BlocksFound:    d.BlockInc,
		LastEventAt:    d.LastEventAt,
	}

	assignments := map[string]any{
		"share_count":   gorm.Expr("\"player_states\".\"share_count\" + ?", d.ShareInc),
		"blocks_found":  gorm.Expr("\"player_states\".\"blocks_found\" + ?", d.BlockInc),
		"last_event_at": d.LastEventAt,
		"updated_at":    d.LastEventAt,
	}
	if d.Difficulty > 0 {
		assignments["best_difficulty"] = gorm.Expr(
			"CASE WHEN ? > \"player_states\".\"best_difficulty\" THEN ? ELSE \"player_states\".\"best_difficulty\" END",
			d.Difficulty, d.Difficulty,
		)
	}
	if strings.TrimSpace(d.Region) != "" {
		assignments["region"] = d.Region
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&entity).Error; err != nil {
		return fmt.Errorf("apply counter delta failed: %w", err)
	}

	return nil
}

// GetPlayerState: 플레이어 상태를 조회한다. 없으면 (nil, nil).
func (r *Repository) GetPlayerState(ctx context.Context, playerID string) (*PlayerState, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	var state PlayerState
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get player state failed: %w", err)
	}
	return &state, nil
}

// SetLevelAndXP: 원장 합계로 재계산된 total_xp/level 을 기록한다.
func (r *Repository) SetLevelAndXP(ctx context.Context, playerID string, totalXP int64, level int) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}

	if err := r.db.WithContext(ctx).
		Model(&PlayerState{}).
		Where("player_id = ?", playerID).
		Updates(map[string]any{"total_xp": totalXP, "level": level}).Error; err != nil {
		return fmt.Errorf("set level and xp failed: %w", err)
	}
	return nil
}

// SetStreak: 재계산된 스트릭 길이를 기록한다. longest 는 단조 증가만 허용한다.
func (r *Repository) SetStreak(ctx context.Context, playerID string, current int, longest int, weekStart time.Time) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}

	if err := r.db.WithContext(ctx).
		Model(&PlayerState{}).
		Where("player_id = ?", playerID).
		Updates(map[string]any{
			"current_streak": current,
			"longest_streak": gorm.Expr(
				"CASE WHEN ? > \"player_states\".\"longest_streak\" THEN ? ELSE \"player_states\".\"longest_streak\" END",
				longest, longest,
			),
			"streak_week_start": weekStart,
		}).Error; err != nil {
		return fmt.Errorf("set streak failed: %w", err)
	}
	return nil
}

// IncrementBadgeCount: 배지 수 캐시를 증가시킨다.
func (r *Repository) IncrementBadgeCount(ctx context.Context, playerID string, by int) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}
	if by == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).
		Model(&PlayerState{}).
		Where("player_id = ?", playerID).
		Update("badge_count", gorm.Expr("\"player_states\".\"badge_count\" + ?", by)).Error; err != nil {
		return fmt.Errorf("increment badge count failed: %w", err)
	}
	return nil
}

// CountPlayers: 전체 플레이어 수 (배지 획득률 분모).
func (r *Repository) CountPlayers(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("db is nil")
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&PlayerState{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count players failed: %w", err)
	}
	return n, nil
}

// ListRegions: 상태 행에 존재하는 지역 목록 (빈 값 제외).
func (r *Repository) ListRegions(ctx context.Context) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	var regions []string
	if err := r.db.WithContext(ctx).
		Model(&PlayerState{}).
		Distinct("region").
		Where("region <> ''").
		Order("region").
		Pluck("region", &regions).Error; err != nil {
		return nil, fmt.Errorf("list regions failed: %w", err)
	}
	return regions, nil
}
