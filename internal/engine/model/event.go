// Package model: 게임화 엔진의 도메인 타입(이벤트, 기간, 알림)을 정의한다.
package model

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"

	cerrors "github.com/minepulse/gamify-engine/internal/common/errors"
)

// EventType: 마이닝 프로토콜 계층이 발행하는 활동 이벤트 타입
type EventType string

// EventShareSubmitted 는 이벤트 타입 상수 목록이다.
const (
	EventShareSubmitted    EventType = "share_submitted"
	EventShareBestDiff     EventType = "share_best_diff"
	EventBlockFound        EventType = "block_found"
	EventMinerConnected    EventType = "miner_connected"
	EventMinerDisconnected EventType = "miner_disconnected"
	EventDifficultyUpdate  EventType = "difficulty_update"
)

// knownEventTypes: 엔진이 해석할 수 있는 이벤트 타입 집합.
// 목록에 없는 타입은 상위 호환성을 위해 로깅 후 무시(ack)된다.
var knownEventTypes = map[EventType]struct{}{
	EventShareSubmitted:    {},
	EventShareBestDiff:     {},
	EventBlockFound:        {},
	EventMinerConnected:    {},
	EventMinerDisconnected: {},
	EventDifficultyUpdate:  {},
}

// IsKnownEventType: 이벤트 타입이 엔진이 해석 가능한 타입인지 확인한다.
func IsKnownEventType(t EventType) bool {
	_, ok := knownEventTypes[t]
	return ok
}

// EventPayload: 이벤트 본문. 타입별로 일부 필드만 사용된다.
type EventPayload struct {
	PlayerID   string  `json:"playerId"`
	Region     string  `json:"region,omitempty"`
	ShareCount int64   `json:"shareCount,omitempty"` // share_submitted 배치 크기 (기본 1)
	Difficulty float64 `json:"difficulty,omitempty"`
	BlockHash  string  `json:"blockHash,omitempty"`
	Worker     string  `json:"worker,omitempty"`
}

// Event: 업스트림 이벤트 봉투. event_id가 멱등성 키다.
type Event struct {
	EventID   string       `json:"event_id"`
	Type      EventType    `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   EventPayload `json:"payload"`
}

// ParseEvent: 스트림 메시지의 JSON 본문을 이벤트 봉투로 파싱한다.
// 필수 필드(event_id, type, payload.playerId)가 없으면 MalformedEventError를 반환한다.
func ParseEvent(raw string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return Event{}, cerrors.MalformedEventError{Reason: "invalid json: " + err.Error()}
	}

	ev.EventID = strings.TrimSpace(ev.EventID)
	if ev.EventID == "" {
		return Event{}, cerrors.MalformedEventError{Reason: "missing event_id"}
	}
	if strings.TrimSpace(string(ev.Type)) == "" {
		return Event{}, cerrors.MalformedEventError{EventID: ev.EventID, Reason: "missing type"}
	}

	ev.Payload.PlayerID = strings.TrimSpace(ev.Payload.PlayerID)
	if ev.Payload.PlayerID == "" {
		return Event{}, cerrors.MalformedEventError{EventID: ev.EventID, Reason: "missing payload.playerId"}
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return ev, nil
}
