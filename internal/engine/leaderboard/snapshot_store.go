package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"

	cerrors "github.com/minepulse/gamify-engine/internal/common/errors"
	"github.com/minepulse/gamify-engine/internal/common/valkeyx"
	"github.com/minepulse/gamify-engine/internal/engine/model"
)

// Entry: 스냅샷 한 행.
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"playerId"`
	Score    float64 `json:"score"`
}

// Snapshot: 한 기간의 완성된 리더보드. 한 번 쓰이면 불변이다.
type Snapshot struct {
	Period     model.LeaderboardPeriod `json:"period"`
	Segment    string                  `json:"segment"` // 기간 키 또는 지역, alltime 은 빈 값
	Version    int64                   `json:"version"`
	CapturedAt time.Time               `json:"capturedAt"`
	Entries    []Entry                 `json:"entries"`
}

// SnapshotStore: 버전 키에 스냅샷 본문을 쓰고 포인터 키를 원자적으로 바꿔
// 발행한다. 리더는 포인터가 가리키는 완성본만 보며, 절반 쓰인 스냅샷을
// 관찰할 수 없다. 본문 키의 TTL 이 보존 기간 역할을 한다.
type SnapshotStore struct {
	client    valkey.Client
	logger    *slog.Logger
	retention time.Duration
}

// NewSnapshotStore 는 인스턴스를 생성한다.
func NewSnapshotStore(client valkey.Client, logger *slog.Logger, retention time.Duration) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = 14 * 24 * time.Hour
	}
	return &SnapshotStore{client: client, logger: logger, retention: retention}
}

func segmentOrDefault(segment string) string {
	if segment == "" {
		return "all"
	}
	return segment
}

// versionCounterKey: gamify:lb:{period}:{segment}:ver
func versionCounterKey(period model.LeaderboardPeriod, segment string) string {
	return valkeyx.BuildKey3("gamify:lb", string(period), segmentOrDefault(segment), "ver")
}

// pointerKey: gamify:lb:{period}:{segment}:current
func pointerKey(period model.LeaderboardPeriod, segment string) string {
	return valkeyx.BuildKey3("gamify:lb", string(period), segmentOrDefault(segment), "current")
}

// snapshotKey: gamify:lb:{period}:{segment}:v{n}
func snapshotKey(period model.LeaderboardPeriod, segment string, version int64) string {
	return valkeyx.BuildKey3("gamify:lb", string(period), segmentOrDefault(segment), fmt.Sprintf("v%d", version))
}

// Publish: 스냅샷을 새 버전 키에 쓰고 포인터를 그 키로 바꾼다.
// 포인터 교체 전까지는 어떤 리더에게도 보이지 않으므로, 중간 실패는
// 이전 스냅샷을 그대로 서비스에 남긴다.
func (s *SnapshotStore) Publish(ctx context.Context, snap *Snapshot) error {
	version, err := s.client.Do(ctx,
		s.client.B().Incr().Key(versionCounterKey(snap.Period, snap.Segment)).Build(),
	).AsInt64()
	if err != nil {
		return cerrors.RedisError{Operation: "snapshot version", Err: err}
	}
	snap.Version = version

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	dataKey := snapshotKey(snap.Period, snap.Segment, version)
	if err := s.client.Do(ctx,
		s.client.B().Set().Key(dataKey).Value(string(body)).Ex(s.retention).Build(),
	).Error(); err != nil {
		return cerrors.RedisError{Operation: "snapshot write", Err: err}
	}

	// 원자적 포인터 교체. 여기까지 와야 새 스냅샷이 보인다.
	if err := s.client.Do(ctx,
		s.client.B().Set().Key(pointerKey(snap.Period, snap.Segment)).Value(dataKey).Ex(s.retention).Build(),
	).Error(); err != nil {
		return cerrors.RedisError{Operation: "snapshot pointer swap", Err: err}
	}

	s.logger.Debug("snapshot_published",
		"period", snap.Period, "segment", snap.Segment,
		"version", version, "entries", len(snap.Entries))
	return nil
}

// Current: 포인터가 가리키는 최신 완성 스냅샷을 읽는다. 없으면 (nil, nil).
func (s *SnapshotStore) Current(ctx context.Context, period model.LeaderboardPeriod, segment string) (*Snapshot, error) {
	dataKey, err := s.client.Do(ctx,
		s.client.B().Get().Key(pointerKey(period, segment)).Build(),
	).ToString()
	if err != nil {
		if valkeyx.IsNil(err) {
			return nil, nil
		}
		return nil, cerrors.RedisError{Operation: "snapshot pointer read", Err: err}
	}

	body, err := s.client.Do(ctx, s.client.B().Get().Key(dataKey).Build()).ToString()
	if err != nil {
		if valkeyx.IsNil(err) {
			// 포인터가 만료된 본문을 가리킨다. 다음 리프레시가 복구한다.
			return nil, nil
		}
		return nil, cerrors.RedisError{Operation: "snapshot read", Err: err}
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err)
	}
	return &snap, nil
}
