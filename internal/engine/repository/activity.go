package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertPeriodActivity: (player, period) 활동 집계 행을 upsert 한다.
// shares 는 누적, best_difficulty 는 기간 내 최고치만 반영한다.
func (r *Repository) UpsertPeriodActivity(ctx context.Context, playerID string, periodKey string, periodStart time.Time, shareInc int64, difficulty float64) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}

	entity := PeriodActivity{
		PlayerID:       playerID,
		PeriodKey:      periodKey,
		PeriodStart:    periodStart,
		Shares:         shareInc,
		BestDifficulty: difficulty,
	}

	assignments := map[string]any{
		"shares": gorm.Expr("\"period_activities\".\"shares\" + ?", shareInc),
	}
	if difficulty > 0 {
		assignments["best_difficulty"] = gorm.Expr(
			"CASE WHEN ? > \"period_activities\".\"best_difficulty\" THEN ? ELSE \"period_activities\".\"best_difficulty\" END",
			difficulty, difficulty,
		)
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "period_key"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&entity).Error; err != nil {
		return fmt.Errorf("upsert period activity failed: %w", err)
	}

	return nil
}

// ListPlayerWeeks: 플레이어의 주간 활동 행을 주 시작일 내림차순으로 조회한다.
// 스트릭 재계산 창으로 쓰인다. weekPrefix 예: "W" 가 포함된 ISO 주 키만.
func (r *Repository) ListPlayerWeeks(ctx context.Context, playerID string, limit int) ([]PeriodActivity, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if limit <= 0 {
		limit = 104
	}

	var rows []PeriodActivity
	if err := r.db.WithContext(ctx).
		Where("player_id = ? AND period_key LIKE ?", playerID, "%-W%").
		Order("period_start DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list player weeks failed: %w", err)
	}
	return rows, nil
}

// ScoreRow: 리더보드 질의 결과 한 행.
type ScoreRow struct {
	PlayerID string
	Score    float64
}

// TopByPeriodDifficulty: 기간 내 최고 난이도 기준 상위 N.
// 동점은 player_id 오름차순으로 깨서 순위가 리프레시 간 안정적이다.
func (r *Repository) TopByPeriodDifficulty(ctx context.Context, periodKey string, limit int) ([]ScoreRow, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	var rows []ScoreRow
	if err := r.db.WithContext(ctx).
		Model(&PeriodActivity{}).
		Select("player_id, best_difficulty AS score").
		Where("period_key = ? AND best_difficulty > 0", periodKey).
		Order("best_difficulty DESC, player_id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("top by period difficulty failed: %w", err)
	}
	return rows, nil
}

// TopByTotalShares: 누적 공유 수 기준 상위 N (전체 기간). region 이 비어있지
// 않으면 해당 지역으로 한정한다.
func (r *Repository) TopByTotalShares(ctx context.Context, region string, limit int) ([]ScoreRow, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	q := r.db.WithContext(ctx).
		Model(&PlayerState{}).
		Select("player_id, CAST(share_count AS REAL) AS score").
		Where("share_count > 0")
	if region != "" {
		q = q.Where("region = ?", region)
	}

	var rows []ScoreRow
	if err := q.
		Order("share_count DESC, player_id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("top by total shares failed: %w", err)
	}
	return rows, nil
}

// PeriodDifficultyRank: 기간 리더보드에서 특정 플레이어의 순위 (1-base).
// 전체 스냅샷 스캔 대신 COUNT 한 번으로 계산한다. 미참여 시 (0, nil).
func (r *Repository) PeriodDifficultyRank(ctx context.Context, periodKey string, playerID string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("db is nil")
	}

	var own PeriodActivity
	res := r.db.WithContext(ctx).
		Where("period_key = ? AND player_id = ?", periodKey, playerID).
		Limit(1).
		Find(&own)
	if res.Error != nil {
		return 0, fmt.Errorf("period rank lookup failed: %w", res.Error)
	}
	if res.RowsAffected == 0 || own.BestDifficulty <= 0 {
		return 0, nil
	}

	var ahead int64
	if err := r.db.WithContext(ctx).
		Model(&PeriodActivity{}).
		Where("period_key = ? AND (best_difficulty > ? OR (best_difficulty = ? AND player_id < ?))",
			periodKey, own.BestDifficulty, own.BestDifficulty, playerID).
		Count(&ahead).Error; err != nil {
		return 0, fmt.Errorf("period rank count failed: %w", err)
	}
	return ahead + 1, nil
}

// TotalSharesRank: 전체 기간 리더보드에서 특정 플레이어의 순위 (1-base).
func (r *Repository) TotalSharesRank(ctx context.Context, region string, playerID string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("db is nil")
	}

	state, err := r.GetPlayerState(ctx, playerID)
	if err != nil {
		return 0, err
	}
	if state == nil || state.ShareCount <= 0 {
		return 0, nil
	}

	q := r.db.WithContext(ctx).
		Model(&PlayerState{}).
		Where("share_count > ? OR (share_count = ? AND player_id < ?)",
			state.ShareCount, state.ShareCount, playerID)
	if region != "" {
		q = q.Where("region = ?", region)
	}

	var ahead int64
	if err := q.Count(&ahead).Error; err != nil {
		return 0, fmt.Errorf("total shares rank count failed: %w", err)
	}
	return ahead + 1, nil
}

// ActivitiesForPeriod: 기간 내 활동이 있는 플레이어 전체를 player_id 오름차순으로
// 조회한다. 추첨 티켓 파티션의 입력이며, 순서가 파티션 안정성을 보장한다.
func (r *Repository) ActivitiesForPeriod(ctx context.Context, periodKey string) ([]PeriodActivity, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	var rows []PeriodActivity
	if err := r.db.WithContext(ctx).
		Where("period_key = ? AND shares > 0", periodKey).
		Order("player_id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("activities for period failed: %w", err)
	}
	return rows, nil
}

// PrunePeriodActivitiesBefore: 보존 기간을 넘긴 집계 행을 삭제한다.
func (r *Repository) PrunePeriodActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("db is nil")
	}

	res := r.db.WithContext(ctx).
		Where("period_start < ?", cutoff).
		Delete(&PeriodActivity{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune period activities failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
