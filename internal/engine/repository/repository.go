package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository: DB 접근을 위한 GORM 기반 리포지토리
// 메서드들은 도메인별 파일로 분리됨:
//   - events.go: 이벤트 멱등성 기록
//   - player_state.go: 플레이어 상태 upsert/조회
//   - ledger.go: XP 원장
//   - badges.go: 배지 획득 기록
//   - activity.go: 기간 활동 집계, 리더보드 질의
//   - lottery.go: 추첨 기록
type Repository struct {
	db *gorm.DB
}

// New: 새로운 Repository 인스턴스를 생성한다.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AutoMigrate: 자동으로 DB 테이블 스키마를 마이그레이션한다.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}
	if err := r.db.WithContext(ctx).AutoMigrate(
		&PlayerState{},
		&XPLedgerEntry{},
		&EarnedBadge{},
		&PeriodActivity{},
		&ProcessedEvent{},
		&LotteryDraw{},
		&LotteryResult{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// Transaction: fn 전체를 단일 DB 트랜잭션으로 실행한다.
// fn 에 넘어가는 리포지토리는 트랜잭션에 바인딩된 사본이다.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}
