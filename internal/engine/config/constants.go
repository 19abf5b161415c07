package config

// DefaultLeaderboardTopN 는 리더보드 기본값 상수 목록이다.
const (
	DefaultLeaderboardTopN            = 100
	DefaultLeaderboardRefreshSeconds  = 180
	DefaultSnapshotRetentionDays      = 14
	DefaultLotteryCheckIntervalMin    = 10
	DefaultLotteryPrizeCount          = 3
	DefaultStreakMinSharesPerWeek     = 1
	DefaultRetentionSweepIntervalHour = 24
	DefaultProcessedEventRetentionDay = 30
)

// RedisKeyPrefix 는 Redis 키 상수 목록이다.
const (
	RedisKeyPrefix            = "gamify"
	RedisKeyLeaderboardPrefix = RedisKeyPrefix + ":lb"
	RedisKeyAPICachePrefix    = RedisKeyPrefix + ":api"
)
