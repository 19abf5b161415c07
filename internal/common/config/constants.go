package config

// MQ 공통 상수.
const (
	// MQBatchSize: 이벤트 스트림 배치 크기
	MQBatchSize = 10
	// MQReadTimeoutMS: 이벤트 스트림 읽기 타임아웃(ms)
	MQReadTimeoutMS = 5000
	// MQConsumerConcurrency: 이벤트 소비 동시성
	MQConsumerConcurrency = 8
	// MQStreamMaxLen: 알림 스트림 최대 길이
	MQStreamMaxLen = 10000
)

// 스트림 키 상수.
const (
	// DefaultEventStreamKey: 마이닝 프로토콜 계층이 발행하는 활동 이벤트 스트림 키
	DefaultEventStreamKey = "mining:events"
	// DefaultNotifyStreamKey: 알림 전달 계층으로 내보내는 스트림 키
	DefaultNotifyStreamKey = "gamify:notifications"
	// DefaultConsumerGroup: 게임화 엔진 Consumer Group 이름
	DefaultConsumerGroup = "gamify-engine"
)
