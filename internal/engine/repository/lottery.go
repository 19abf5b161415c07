package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	commonerrors "github.com/minepulse/gamify-engine/internal/common/errors"
)

// CreateDraw: 추첨과 당첨 행을 단일 트랜잭션으로 기록한다.
// period_key 유니크 제약이 compare-and-set 역할을 한다: 이미 추첨된 기간이면
// DrawConflictError 를 돌려주고 기존 결과는 건드리지 않는다.
func (r *Repository) CreateDraw(ctx context.Context, draw *LotteryDraw, results []LotteryResult) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}

	return r.Transaction(ctx, func(tx *Repository) error {
		res := tx.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "period_key"}},
			DoNothing: true,
		}).Create(draw)
		if res.Error != nil {
			return fmt.Errorf("create draw failed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return commonerrors.DrawConflictError{Period: draw.PeriodKey}
		}

		for i := range results {
			results[i].DrawID = draw.ID
		}
		if len(results) > 0 {
			if err := tx.db.Create(&results).Error; err != nil {
				return fmt.Errorf("create draw results failed: %w", err)
			}
		}
		return nil
	})
}

// GetDraw: 기간 키로 추첨을 조회한다. 없으면 (nil, nil).
func (r *Repository) GetDraw(ctx context.Context, periodKey string) (*LotteryDraw, []LotteryResult, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("db is nil")
	}

	var draw LotteryDraw
	res := r.db.WithContext(ctx).
		Where("period_key = ?", periodKey).
		Limit(1).
		Find(&draw)
	if res.Error != nil {
		return nil, nil, fmt.Errorf("get draw failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil, nil
	}

	var results []LotteryResult
	if err := r.db.WithContext(ctx).
		Where("draw_id = ?", draw.ID).
		Order("placement ASC").
		Find(&results).Error; err != nil {
		return nil, nil, fmt.Errorf("get draw results failed: %w", err)
	}
	return &draw, results, nil
}

// ListDraws: 최근 추첨 기록을 최신순으로 조회한다.
func (r *Repository) ListDraws(ctx context.Context, limit int) ([]LotteryDraw, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	var draws []LotteryDraw
	if err := r.db.WithContext(ctx).
		Order("drawn_at DESC").
		Limit(limit).
		Find(&draws).Error; err != nil {
		return nil, fmt.Errorf("list draws failed: %w", err)
	}
	return draws, nil
}

// ResultsForPlayer: 플레이어 당첨 이력을 최신순으로 조회한다.
func (r *Repository) ResultsForPlayer(ctx context.Context, playerID string, limit int) ([]LotteryResult, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	var results []LotteryResult
	if err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("id DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("results for player failed: %w", err)
	}
	return results, nil
}

// PruneDrawsBefore: 보존 기간을 넘긴 추첨과 그 당첨 행을 삭제한다.
func (r *Repository) PruneDrawsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("db is nil")
	}

	var pruned int64
	err := r.Transaction(ctx, func(tx *Repository) error {
		var ids []uint64
		if err := tx.db.
			Model(&LotteryDraw{}).
			Where("drawn_at < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("list prunable draws failed: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.db.Where("draw_id IN ?", ids).Delete(&LotteryResult{}).Error; err != nil {
			return fmt.Errorf("prune draw results failed: %w", err)
		}
		res := tx.db.Where("id IN ?", ids).Delete(&LotteryDraw{})
		if res.Error != nil {
			return fmt.Errorf("prune draws failed: %w", res.Error)
		}
		pruned = res.RowsAffected
		return nil
	})
	return pruned, err
}
