// Package notify: 상태 전이 알림을 전달 스트림으로 내보낸다. fire-and-forget 이며,
// 전달 보장/재시도는 전달 계층 소관이다.
package notify

import (
	"context"
	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/minepulse/gamify-engine/internal/common/mq"
	"github.com/minepulse/gamify-engine/internal/engine/model"
)

// Dispatcher 는 타입이다.
type Dispatcher struct {
	publisher *mq.StreamPublisher
	logger    *slog.Logger
}

// NewDispatcher 는 인스턴스를 생성한다.
func NewDispatcher(publisher *mq.StreamPublisher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{publisher: publisher, logger: logger}
}

// Publish: 알림 한 건을 전달 스트림에 XADD 한다.
// 발행 실패는 로깅 후 버린다. 호출자 흐름을 막지 않는다.
func (d *Dispatcher) Publish(ctx context.Context, n model.Notification) {
	if d == nil || d.publisher == nil {
		return
	}

	data, err := json.Marshal(n.Data)
	if err != nil {
		d.logger.Warn("notification_marshal_failed", "type", n.Type, "err", err)
		return
	}

	values := map[string]any{
		"channel": string(n.Channel),
		"type":    string(n.Type),
		"data":    string(data),
	}
	if n.PlayerID != "" {
		values["playerId"] = n.PlayerID
	}

	if _, err := d.publisher.Publish(ctx, values); err != nil {
		d.logger.Warn("notification_publish_failed",
			"type", n.Type, "channel", n.Channel, "err", err)
	}
}
