package repository

import "time"

// PlayerState: 플레이어별 게임화 상태 (가변, 보상 엔진이 소유)
// total_xp 는 원장 합계의 구체화 캐시다. 원장이 항상 진실이다.
type PlayerState struct {
	PlayerID        string    `gorm:"column:player_id;primaryKey"`
	Region          string    `gorm:"column:region;not null;default:'';index"`
	TotalXP         int64     `gorm:"column:total_xp;not null;default:0"`
	Level           int       `gorm:"column:level;not null;default:1"`
	BadgeCount      int       `gorm:"column:badge_count;not null;default:0"`
	ShareCount      int64     `gorm:"column:share_count;not null;default:0;index"`
	BestDifficulty  float64   `gorm:"column:best_difficulty;not null;default:0"`
	BlocksFound     int64     `gorm:"column:blocks_found;not null;default:0"`
	CurrentStreak   int       `gorm:"column:current_streak;not null;default:0"`
	LongestStreak   int       `gorm:"column:longest_streak;not null;default:0"`
	StreakWeekStart time.Time `gorm:"column:streak_week_start"`
	LastEventAt     time.Time `gorm:"column:last_event_at"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (PlayerState) TableName() string { return "player_states" }

// XPLedgerEntry: XP 원장 (append-only, 수정/삭제 금지)
// 정정은 음수 금액의 새 행으로 기록한다.
type XPLedgerEntry struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID  string    `gorm:"column:player_id;not null;index"`
	Amount    int64     `gorm:"column:amount;not null"`
	Reason    string    `gorm:"column:reason;not null"`
	RefID     *string   `gorm:"column:ref_id"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (XPLedgerEntry) TableName() string { return "xp_ledger_entries" }

// EarnedBadge: 배지 획득 기록
// (player_id, badge_slug) 유니크 제약이 중복 수여를 막는 멱등성 장치다.
type EarnedBadge struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID  string    `gorm:"column:player_id;not null;uniqueIndex:idx_earned_badges_player_badge,priority:1"`
	BadgeSlug string    `gorm:"column:badge_slug;not null;uniqueIndex:idx_earned_badges_player_badge,priority:2;index"`
	Context   *string   `gorm:"column:context"`
	EarnedAt  time.Time `gorm:"column:earned_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (EarnedBadge) TableName() string { return "earned_badges" }

// PeriodActivity: 기간별 활동 집계 (주간/월간)
// period_key 형식: ISO 주 "2026-W35" 또는 월 "2026-08".
// 주간 행은 스트릭 창, 기간 리더보드, 추첨 파티션의 공통 원천이다.
type PeriodActivity struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID       string    `gorm:"column:player_id;not null;uniqueIndex:idx_period_activities_player_period,priority:1"`
	PeriodKey      string    `gorm:"column:period_key;not null;uniqueIndex:idx_period_activities_player_period,priority:2;index"`
	PeriodStart    time.Time `gorm:"column:period_start;not null;index"`
	Shares         int64     `gorm:"column:shares;not null;default:0"`
	BestDifficulty float64   `gorm:"column:best_difficulty;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (PeriodActivity) TableName() string { return "period_activities" }

// ProcessedEvent: 이벤트 멱등성 기록
// event_id 유니크 삽입 실패 = 이미 처리된 재전달. 효과 없이 성공 처리한다.
type ProcessedEvent struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PlayerID    string    `gorm:"column:player_id;not null;index"`
	EventType   string    `gorm:"column:event_type;not null"`
	ProcessedAt time.Time `gorm:"column:processed_at;not null"`
}

func (ProcessedEvent) TableName() string { return "processed_events" }

// LotteryDraw: 기간별 추첨 (기간당 정확히 1회)
// partition_json 은 마감 시점의 티켓 파티션 전문으로, 감사 재현에 쓰인다.
type LotteryDraw struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	PeriodKey        string    `gorm:"column:period_key;not null;uniqueIndex"`
	TotalTickets     int64     `gorm:"column:total_tickets;not null"`
	ParticipantCount int       `gorm:"column:participant_count;not null"`
	PartitionJSON    string    `gorm:"column:partition_json;not null"`
	DrawnAt          time.Time `gorm:"column:drawn_at;not null;index"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (LotteryDraw) TableName() string { return "lottery_draws" }

// LotteryResult: 추첨 당첨 기록 (draw 당 상품 수만큼)
type LotteryResult struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	DrawID       uint64    `gorm:"column:draw_id;not null;index"`
	PlayerID     string    `gorm:"column:player_id;not null;index"`
	Placement    int       `gorm:"column:placement;not null"`
	TicketNumber int64     `gorm:"column:ticket_number;not null"`
	Prize        string    `gorm:"column:prize;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (LotteryResult) TableName() string { return "lottery_results" }
