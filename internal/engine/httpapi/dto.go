package httpapi

import "time"

type (
	// PlayerSummaryResponse: 플레이어 게임화 요약 응답 DTO
	PlayerSummaryResponse struct {
		PlayerID       string            `json:"playerId"`
		Region         string            `json:"region,omitempty"`
		TotalXP        int64             `json:"totalXp"`
		Level          int               `json:"level"`
		XPForNextLevel int64             `json:"xpForNextLevel"`
		BadgeCount     int               `json:"badgeCount"`
		ShareCount     int64             `json:"shareCount"`
		BestDifficulty float64           `json:"bestDifficulty"`
		BlocksFound    int64             `json:"blocksFound"`
		CurrentStreak  int               `json:"currentStreak"`
		LongestStreak  int               `json:"longestStreak"`
		Badges         []EarnedBadgeDTO `json:"badges"`
		RecentXP       []LedgerEntryDTO `json:"recentXp"`
	}

	// EarnedBadgeDTO: 획득 배지 한 건
	EarnedBadgeDTO struct {
		Slug     string    `json:"slug"`
		Name     string    `json:"name,omitempty"`
		Rarity   string    `json:"rarity,omitempty"`
		EarnedAt time.Time `json:"earnedAt"`
	}

	// LedgerEntryDTO: XP 원장 항목 한 건
	LedgerEntryDTO struct {
		Amount    int64     `json:"amount"`
		Reason    string    `json:"reason"`
		RefID     *string   `json:"refId,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// BadgeCatalogResponse: 배지 카탈로그 응답 DTO
	BadgeCatalogResponse struct {
		Badges []BadgeCatalogEntry `json:"badges"`
	}

	// BadgeCatalogEntry: 카탈로그 한 건 (요청 플레이어의 획득 여부 포함)
	BadgeCatalogEntry struct {
		Slug          string  `json:"slug"`
		Name          string  `json:"name"`
		Category      string  `json:"category"`
		Rarity        string  `json:"rarity"`
		XPReward      int64   `json:"xpReward"`
		Earned        bool    `json:"earned"`
		EarnedPercent float64 `json:"earnedPercent"` // 전체 플레이어 대비 획득률(%)
	}

	// LeaderboardResponse: 리더보드 스냅샷 응답 DTO
	LeaderboardResponse struct {
		Period     string             `json:"period"`
		Segment    string             `json:"segment,omitempty"`
		CapturedAt time.Time          `json:"capturedAt"`
		Entries    []LeaderboardEntry `json:"entries"`
		OwnRank    int64              `json:"ownRank,omitempty"` // top-N 밖이어도 계산, 미참여 시 0
	}

	// LeaderboardEntry: 스냅샷 한 행
	LeaderboardEntry struct {
		Rank     int     `json:"rank"`
		PlayerID string  `json:"playerId"`
		Score    float64 `json:"score"`
	}

	// LotteryHistoryResponse: 추첨 이력 응답 DTO
	LotteryHistoryResponse struct {
		Draws []LotteryDrawDTO `json:"draws"`
	}

	// LotteryDrawDTO: 추첨 한 건
	LotteryDrawDTO struct {
		Period           string    `json:"period"`
		TotalTickets     int64     `json:"totalTickets"`
		ParticipantCount int       `json:"participantCount"`
		DrawnAt          time.Time `json:"drawnAt"`
	}

	// LotteryResultsResponse: 플레이어 당첨 이력 응답 DTO
	LotteryResultsResponse struct {
		PlayerID string          `json:"playerId"`
		Results  []LotteryWinDTO `json:"results"`
	}

	// LotteryWinDTO: 당첨 한 건
	LotteryWinDTO struct {
		Placement    int    `json:"placement"`
		TicketNumber int64  `json:"ticketNumber"`
		Prize        string `json:"prize"`
	}
)
