package model

// NotificationChannel 알림 전달 채널.
type NotificationChannel string

// ChannelUser 는 알림 채널 상수 목록이다.
const (
	ChannelUser   NotificationChannel = "user"
	ChannelGlobal NotificationChannel = "global"
)

// NotificationType 알림 종류.
type NotificationType string

// NotifyBadgeEarned 는 알림 종류 상수 목록이다.
const (
	NotifyBadgeEarned NotificationType = "badge_earned"
	NotifyLevelUp     NotificationType = "level_up"
	NotifyRankChanged NotificationType = "rank_changed"
	NotifyLotteryWon  NotificationType = "lottery_won"
	NotifyBlockFound  NotificationType = "block_found"
)

// Notification: 전달 계층으로 내보내는 알림 작업.
// 전달은 best-effort이며 이 엔진은 재시도하지 않는다.
type Notification struct {
	Channel  NotificationChannel `json:"channel"`
	Type     NotificationType    `json:"type"`
	PlayerID string              `json:"playerId,omitempty"` // user 채널일 때만
	Data     map[string]any      `json:"data"`
}
