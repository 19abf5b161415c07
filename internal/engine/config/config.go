// Package config: 게임화 엔진의 환경 변수 기반 설정.
package config

import (
	"fmt"
	"strings"
	"time"

	commonconfig "github.com/minepulse/gamify-engine/internal/common/config"
)

// ServerConfig: HTTP 서버 설정 alias
type ServerConfig = commonconfig.ServerConfig

// ServerTuningConfig: 서버 튜닝 설정 alias
type ServerTuningConfig = commonconfig.ServerTuningConfig

// RedisConfig: Redis/Valkey 캐시 연결 설정 alias
type RedisConfig = commonconfig.RedisConfig

// ValkeyMQConfig: 이벤트 스트림 소비 설정 alias
type ValkeyMQConfig = commonconfig.ValkeyMQConfig

// LogConfig: 파일 로그 설정 alias
type LogConfig = commonconfig.LogConfig

// PostgresConfig: PostgreSQL 데이터베이스 설정
type PostgresConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// RewardConfig: 보상 엔진 설정
type RewardConfig struct {
	BadgeCatalogPath string // 비어있으면 임베드 카탈로그 사용
}

// StreakConfig: 스트릭 판정 설정
type StreakConfig struct {
	MinSharesPerWeek int64 // 주를 활동으로 인정하는 최소 공유 수
}

// LeaderboardConfig: 리더보드 갱신 설정
type LeaderboardConfig struct {
	RefreshInterval   time.Duration
	TopN              int
	SnapshotRetention time.Duration
}

// LotteryConfig: 추첨 스케줄 설정
type LotteryConfig struct {
	CheckInterval time.Duration // 기간 마감 지연 감지 주기
	Prizes        []string      // 자리 순서대로의 상품 이름
}

// RetentionConfig: 보존 기간 정리 설정
type RetentionConfig struct {
	SweepInterval           time.Duration
	DrawRetention           time.Duration
	ProcessedEventRetention time.Duration
}

// Config: 전체 애플리케이션 설정 구조체
type Config struct {
	Server       ServerConfig
	ServerTuning ServerTuningConfig
	Redis        RedisConfig
	Valkey       ValkeyMQConfig
	Postgres     PostgresConfig
	Reward       RewardConfig
	Streak       StreakConfig
	Leaderboard  LeaderboardConfig
	Lottery      LotteryConfig
	Retention    RetentionConfig
	Log          LogConfig
}

// LoadFromEnv: 환경 변수로부터 전체 애플리케이션 설정을 로드합니다.
func LoadFromEnv() (*Config, error) {
	server, err := commonconfig.ReadServerConfigFromEnv(40310)
	if err != nil {
		return nil, fmt.Errorf("read server config failed: %w", err)
	}
	serverTuning, err := commonconfig.ReadServerTuningConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("read server tuning config failed: %w", err)
	}
	redisCfg, err := readRedisConfig()
	if err != nil {
		return nil, err
	}
	valkey, err := readValkeyMQConfig()
	if err != nil {
		return nil, err
	}
	postgres, err := readPostgresConfig()
	if err != nil {
		return nil, err
	}
	streak, err := readStreakConfig()
	if err != nil {
		return nil, err
	}
	leaderboard, err := readLeaderboardConfig()
	if err != nil {
		return nil, err
	}
	lottery, err := readLotteryConfig()
	if err != nil {
		return nil, err
	}
	retention, err := readRetentionConfig()
	if err != nil {
		return nil, err
	}
	logCfg, err := commonconfig.ReadLogConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("read log config failed: %w", err)
	}

	return &Config{
		Server:       server,
		ServerTuning: serverTuning,
		Redis:        redisCfg,
		Valkey:       valkey,
		Postgres:     postgres,
		Reward: RewardConfig{
			BadgeCatalogPath: commonconfig.StringFromEnv("GAMIFY_BADGE_CATALOG_PATH", ""),
		},
		Streak:      streak,
		Leaderboard: leaderboard,
		Lottery:     lottery,
		Retention:   retention,
		Log:         logCfg,
	}, nil
}

func readRedisConfig() (RedisConfig, error) {
	cfg, err := commonconfig.ReadRedisConfigFromEnv(
		[]string{"CACHE_HOST", "REDIS_HOST"},
		[]string{"CACHE_PORT", "REDIS_PORT"},
		[]string{"CACHE_PASSWORD", "REDIS_PASSWORD"},
		"localhost",
		6379,
		"",
	)
	if err != nil {
		return RedisConfig{}, fmt.Errorf("read redis config failed: %w", err)
	}
	return cfg, nil
}

func readValkeyMQConfig() (ValkeyMQConfig, error) {
	cfg, err := commonconfig.ReadValkeyMQConfigFromEnv(commonconfig.ValkeyMQConfigEnvOptions{
		HostKeys:     []string{"MQ_HOST", "VALKEY_MQ_HOST"},
		PortKeys:     []string{"MQ_PORT", "VALKEY_MQ_PORT"},
		PasswordKeys: []string{"MQ_PASSWORD", "VALKEY_MQ_PASSWORD"},

		TimeoutMillisKeys: []string{"MQ_TIMEOUT", "VALKEY_MQ_TIMEOUT"},
		PoolSizeKeys:      []string{"MQ_CONNECTION_POOL_SIZE", "VALKEY_MQ_CONNECTION_POOL_SIZE"},
		MinIdleKeys:       []string{"MQ_CONNECTION_MIN_IDLE_SIZE", "VALKEY_MQ_CONNECTION_MIN_IDLE_SIZE"},

		ConsumerGroupKeys: []string{"MQ_CONSUMER_GROUP", "VALKEY_MQ_CONSUMER_GROUP"},
		ConsumerNameKeys:  []string{"MQ_CONSUMER_NAME", "VALKEY_MQ_CONSUMER_NAME"},
		ResetConsumerGroupOnStartupKeys: []string{
			"MQ_RESET_CONSUMER_GROUP_ON_STARTUP",
			"VALKEY_MQ_RESET_CONSUMER_GROUP_ON_STARTUP",
		},
		StreamKeyKeys:       []string{"MQ_STREAM_KEY", "VALKEY_MQ_STREAM_KEY"},
		NotifyStreamKeyKeys: []string{"MQ_NOTIFY_STREAM_KEY", "VALKEY_MQ_NOTIFY_STREAM_KEY"},
		BatchSizeKeys:       []string{"MQ_BATCH_SIZE", "VALKEY_MQ_BATCH_SIZE"},
		BlockTimeoutMillisKeys: []string{
			"MQ_READ_TIMEOUT_MS",
			"VALKEY_MQ_READ_TIMEOUT_MS",
		},
		ConcurrencyKeys:  []string{"MQ_CONCURRENCY", "VALKEY_MQ_CONCURRENCY"},
		StreamMaxLenKeys: []string{"MQ_STREAM_MAX_LEN", "VALKEY_MQ_STREAM_MAX_LEN"},

		DefaultHost:          "localhost",
		DefaultPort:          6379,
		DefaultPassword:      "",
		DefaultTimeoutMillis: 5000,
		DefaultPoolSize:      64,
		DefaultMinIdle:       10,

		DefaultConsumerGroup:               commonconfig.DefaultConsumerGroup,
		DefaultConsumerName:                "consumer-1",
		DefaultResetConsumerGroupOnStartup: false,
		DefaultStreamKey:                   commonconfig.DefaultEventStreamKey,
		DefaultNotifyStreamKey:             commonconfig.DefaultNotifyStreamKey,
		DefaultBatchSize:                   commonconfig.MQBatchSize,
		DefaultBlockTimeoutMillis:          commonconfig.MQReadTimeoutMS,
		DefaultConcurrency:                 commonconfig.MQConsumerConcurrency,
		DefaultStreamMaxLen:                commonconfig.MQStreamMaxLen,
	})
	if err != nil {
		return ValkeyMQConfig{}, fmt.Errorf("read valkey mq config failed: %w", err)
	}
	return cfg, nil
}

func readPostgresConfig() (PostgresConfig, error) {
	port, err := commonconfig.IntFromEnv("DB_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, fmt.Errorf("read DB_PORT failed: %w", err)
	}

	return PostgresConfig{
		Host:     commonconfig.StringFromEnv("DB_HOST", "localhost"),
		Port:     port,
		Name:     commonconfig.StringFromEnv("DB_NAME", "gamify"),
		User:     commonconfig.StringFromEnv("DB_USER", "gamify_app"),
		Password: commonconfig.StringFromEnv("DB_PASSWORD", ""),
		SSLMode:  commonconfig.StringFromEnv("DB_SSLMODE", "disable"),
	}, nil
}

func readStreakConfig() (StreakConfig, error) {
	minShares, err := commonconfig.Int64FromEnv("STREAK_MIN_SHARES_PER_WEEK", DefaultStreakMinSharesPerWeek)
	if err != nil {
		return StreakConfig{}, fmt.Errorf("read STREAK_MIN_SHARES_PER_WEEK failed: %w", err)
	}
	if minShares <= 0 {
		return StreakConfig{}, fmt.Errorf("invalid STREAK_MIN_SHARES_PER_WEEK: %d", minShares)
	}
	return StreakConfig{MinSharesPerWeek: minShares}, nil
}

func readLeaderboardConfig() (LeaderboardConfig, error) {
	refresh, err := commonconfig.DurationSecondsFromEnv("LEADERBOARD_REFRESH_SECONDS", DefaultLeaderboardRefreshSeconds)
	if err != nil {
		return LeaderboardConfig{}, fmt.Errorf("read LEADERBOARD_REFRESH_SECONDS failed: %w", err)
	}
	topN, err := commonconfig.IntFromEnv("LEADERBOARD_TOP_N", DefaultLeaderboardTopN)
	if err != nil {
		return LeaderboardConfig{}, fmt.Errorf("read LEADERBOARD_TOP_N failed: %w", err)
	}
	if topN <= 0 {
		return LeaderboardConfig{}, fmt.Errorf("invalid LEADERBOARD_TOP_N: %d", topN)
	}
	retentionDays, err := commonconfig.IntFromEnv("SNAPSHOT_RETENTION_DAYS", DefaultSnapshotRetentionDays)
	if err != nil {
		return LeaderboardConfig{}, fmt.Errorf("read SNAPSHOT_RETENTION_DAYS failed: %w", err)
	}

	return LeaderboardConfig{
		RefreshInterval:   refresh,
		TopN:              topN,
		SnapshotRetention: time.Duration(retentionDays) * 24 * time.Hour,
	}, nil
}

func readLotteryConfig() (LotteryConfig, error) {
	checkMinutes, err := commonconfig.IntFromEnv("LOTTERY_CHECK_INTERVAL_MINUTES", DefaultLotteryCheckIntervalMin)
	if err != nil {
		return LotteryConfig{}, fmt.Errorf("read LOTTERY_CHECK_INTERVAL_MINUTES failed: %w", err)
	}
	prizeCount, err := commonconfig.IntFromEnv("LOTTERY_PRIZE_COUNT", DefaultLotteryPrizeCount)
	if err != nil {
		return LotteryConfig{}, fmt.Errorf("read LOTTERY_PRIZE_COUNT failed: %w", err)
	}
	if prizeCount <= 0 {
		return LotteryConfig{}, fmt.Errorf("invalid LOTTERY_PRIZE_COUNT: %d", prizeCount)
	}

	prizes := commonconfig.StringListFromEnv("LOTTERY_PRIZES", nil)
	if len(prizes) == 0 {
		prizes = defaultPrizes(prizeCount)
	} else if len(prizes) != prizeCount {
		return LotteryConfig{}, fmt.Errorf("LOTTERY_PRIZES has %d entries, LOTTERY_PRIZE_COUNT is %d", len(prizes), prizeCount)
	}

	return LotteryConfig{
		CheckInterval: time.Duration(checkMinutes) * time.Minute,
		Prizes:        prizes,
	}, nil
}

func defaultPrizes(count int) []string {
	names := []string{"grand", "second", "third"}
	prizes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if i < len(names) {
			prizes = append(prizes, names[i])
			continue
		}
		prizes = append(prizes, fmt.Sprintf("consolation-%d", i+1-len(names)))
	}
	return prizes
}

func readRetentionConfig() (RetentionConfig, error) {
	sweepHours, err := commonconfig.IntFromEnv("RETENTION_SWEEP_INTERVAL_HOURS", DefaultRetentionSweepIntervalHour)
	if err != nil {
		return RetentionConfig{}, fmt.Errorf("read RETENTION_SWEEP_INTERVAL_HOURS failed: %w", err)
	}
	drawDays, err := commonconfig.IntFromEnv("DRAW_RETENTION_DAYS", DefaultSnapshotRetentionDays)
	if err != nil {
		return RetentionConfig{}, fmt.Errorf("read DRAW_RETENTION_DAYS failed: %w", err)
	}
	eventDays, err := commonconfig.IntFromEnv("PROCESSED_EVENT_RETENTION_DAYS", DefaultProcessedEventRetentionDay)
	if err != nil {
		return RetentionConfig{}, fmt.Errorf("read PROCESSED_EVENT_RETENTION_DAYS failed: %w", err)
	}

	return RetentionConfig{
		SweepInterval:           time.Duration(sweepHours) * time.Hour,
		DrawRetention:           time.Duration(drawDays) * 24 * time.Hour,
		ProcessedEventRetention: time.Duration(eventDays) * 24 * time.Hour,
	}, nil
}

// PostgresDSN: gorm/pgx 가 사용하는 DSN 문자열을 만든다.
func (p PostgresConfig) PostgresDSN() string {
	parts := []string{
		"host=" + p.Host,
		fmt.Sprintf("port=%d", p.Port),
		"dbname=" + p.Name,
		"user=" + p.User,
		"sslmode=" + p.SSLMode,
	}
	if p.Password != "" {
		parts = append(parts, "password="+p.Password)
	}
	return strings.Join(parts, " ")
}
