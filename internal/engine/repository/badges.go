package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

// InsertEarnedBadge: 배지 획득 행 삽입을 시도한다.
// (player, badge) 유니크 충돌은 동시 평가가 먼저 수여한 경우다.
// 반환 bool 이 false 면 이미 획득한 상태 — 중복 수여 아님, XP 도 추가하지 않는다.
func (r *Repository) InsertEarnedBadge(ctx context.Context, playerID string, badgeSlug string, contextMeta *string, at time.Time) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("db is nil")
	}

	entity := EarnedBadge{
		PlayerID:  playerID,
		BadgeSlug: badgeSlug,
		Context:   contextMeta,
		EarnedAt:  at,
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "badge_slug"}},
		DoNothing: true,
	}).Create(&entity)
	if res.Error != nil {
		return false, fmt.Errorf("insert earned badge failed: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// ListEarnedSlugs: 플레이어가 이미 획득한 배지 slug 집합.
func (r *Repository) ListEarnedSlugs(ctx context.Context, playerID string) (map[string]bool, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	var slugs []string
	if err := r.db.WithContext(ctx).
		Model(&EarnedBadge{}).
		Where("player_id = ?", playerID).
		Pluck("badge_slug", &slugs).Error; err != nil {
		return nil, fmt.Errorf("list earned slugs failed: %w", err)
	}

	earned := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		earned[s] = true
	}
	return earned, nil
}

// ListEarnedBadges: 플레이어 획득 배지를 획득 시각 최신순으로 조회한다.
func (r *Repository) ListEarnedBadges(ctx context.Context, playerID string) ([]EarnedBadge, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	var rows []EarnedBadge
	if err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list earned badges failed: %w", err)
	}
	return rows, nil
}

// CountEarnedByBadge: 배지별 획득 플레이어 수 (카탈로그 획득률 분자).
func (r *Repository) CountEarnedByBadge(ctx context.Context) (map[string]int64, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	type row struct {
		BadgeSlug string
		N         int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&EarnedBadge{}).
		Select("badge_slug, COUNT(*) AS n").
		Group("badge_slug").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count earned by badge failed: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.BadgeSlug] = r.N
	}
	return counts, nil
}
