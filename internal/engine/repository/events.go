package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

// MarkEventProcessed: 이벤트 멱등성 행을 삽입한다.
// 반환 bool 이 false 면 이미 처리된 event_id 다 (재전달 — 효과 없이 성공).
func (r *Repository) MarkEventProcessed(ctx context.Context, eventID string, playerID string, eventType string, at time.Time) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("db is nil")
	}

	entity := ProcessedEvent{
		EventID:     eventID,
		PlayerID:    playerID,
		EventType:   eventType,
		ProcessedAt: at,
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&entity)
	if res.Error != nil {
		return false, fmt.Errorf("mark event processed failed: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// PruneProcessedEventsBefore: 보존 기간을 넘긴 멱등성 행을 삭제한다.
func (r *Repository) PruneProcessedEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("db is nil")
	}

	res := r.db.WithContext(ctx).
		Where("processed_at < ?", cutoff).
		Delete(&ProcessedEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune processed events failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
