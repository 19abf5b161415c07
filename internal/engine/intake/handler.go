// Package intake: 마이닝 이벤트 스트림의 소비 진입점.
//
// 컨슈머 그룹의 재전달 때문에 하위 효과는 전부 event_id 에 대해 멱등이어야
// 하며, ack 는 하위 처리가 성공한 뒤에만 수행된다. 영구적으로 손상된 입력만
// 예외로 효과 없이 ack 한다.
package intake

import (
	"context"
	"log/slog"

	cerrors "github.com/minepulse/gamify-engine/internal/common/errors"
	commonmq "github.com/minepulse/gamify-engine/internal/common/mq"
	"github.com/minepulse/gamify-engine/internal/engine/model"
	"github.com/minepulse/gamify-engine/internal/engine/reward"
)

// Handler 는 타입이다.
type Handler struct {
	engine *reward.Engine
	logger *slog.Logger
}

// NewHandler 는 인스턴스를 생성한다.
func NewHandler(engine *reward.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// HandleStreamMessage: 스트림 메시지 한 건을 처리한다.
// 반환 에러의 의미: nil 이면 소비자가 ack 하고, 에러면 ack 하지 않아
// 타임아웃 후 재전달된다. 따라서 일시적 인프라 장애만 에러로 돌려준다.
func (h *Handler) HandleStreamMessage(ctx context.Context, msg commonmq.XMessage) error {
	raw, ok := msg.Values["data"]
	if !ok || raw == "" {
		h.logger.Warn("event_missing_data_field", "id", msg.ID)
		return nil
	}

	ev, err := model.ParseEvent(raw)
	if err != nil {
		// 손상된 이벤트는 재전달해도 결과가 같다. ack 후 버린다.
		h.logger.Warn("event_malformed", "id", msg.ID, "err", err)
		return nil
	}

	out, err := h.engine.Process(ctx, ev)
	switch {
	case err == nil:
	case cerrors.IsBadInput(err):
		h.logger.Warn("event_unsupported", "id", msg.ID, "eventId", ev.EventID, "err", err)
		return nil
	case cerrors.IsIdempotencyCollision(err):
		h.logger.Debug("event_idempotency_collision", "id", msg.ID, "eventId", ev.EventID, "err", err)
		return nil
	case cerrors.IsTransient(err):
		// ack 하지 않는다. 백오프 후 재전달로 재시도된다.
		return err
	default:
		// 불변식 위반 등. 부분 효과 없이 중단됐고, 재전달이 스트림을 막지
		// 않도록 운영자 확인 대상으로만 남긴다.
		h.logger.Error("event_processing_aborted", "id", msg.ID, "eventId", ev.EventID, "err", err)
		return nil
	}

	if out.Duplicate {
		return nil
	}

	if len(out.BadgesAwarded) > 0 || out.LeveledUp {
		h.logger.Info("event_rewarded",
			"eventId", ev.EventID,
			"playerId", ev.Payload.PlayerID,
			"badges", len(out.BadgesAwarded),
			"xp", out.XPGranted,
			"level", out.NewLevel,
		)
	}
	return nil
}
