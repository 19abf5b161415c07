package repository

import (
	"context"
	"fmt"
)

// AppendLedgerEntry: XP 원장에 항목을 추가한다. 원장은 append-only 다.
func (r *Repository) AppendLedgerEntry(ctx context.Context, entry *XPLedgerEntry) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append ledger entry failed: %w", err)
	}
	return nil
}

// SumLedger: 플레이어 원장 합계. total_xp 재계산의 유일한 원천이다.
func (r *Repository) SumLedger(ctx context.Context, playerID string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("db is nil")
	}

	var sum int64
	if err := r.db.WithContext(ctx).
		Model(&XPLedgerEntry{}).
		Where("player_id = ?", playerID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error; err != nil {
		return 0, fmt.Errorf("sum ledger failed: %w", err)
	}
	return sum, nil
}

// ListLedger: 플레이어 원장 항목을 최신순으로 조회한다.
func (r *Repository) ListLedger(ctx context.Context, playerID string, limit int) ([]XPLedgerEntry, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	var entries []XPLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list ledger failed: %w", err)
	}
	return entries, nil
}
