package badge

import "github.com/minepulse/gamify-engine/internal/engine/model"

// Counters: 트리거 평가에 쓰이는 플레이어 누적 카운터 스냅샷.
// 갱신 직후 같은 트랜잭션 안에서 읽은 값이어야 한다.
type Counters struct {
	ShareCount     int64
	BestDifficulty float64
	BlocksFound    int64
	CurrentStreak  int
	LongestStreak  int
}

// EvalInput: 한 이벤트에 대한 트리거 평가 입력.
type EvalInput struct {
	Event    model.Event
	Counters Counters
}

// predicate 는 배지 한 개의 획득 조건 판정 함수다. 순수 함수여야 한다.
type predicate func(def Definition, in EvalInput) bool

// 트리거 종류별 판정 테이블. 종류 추가 = 엔트리 추가.
var triggerPredicates = map[TriggerType]predicate{
	TriggerCounter: evalCounter,
	TriggerStreak:  evalStreak,
	TriggerEvent:   evalEvent,
	TriggerManual:  func(Definition, EvalInput) bool { return false },
}

func evalCounter(def Definition, in EvalInput) bool {
	switch def.Trigger.Counter {
	case CounterShareCount:
		return float64(in.Counters.ShareCount) >= def.Trigger.Value
	case CounterBestDifficulty:
		return in.Counters.BestDifficulty >= def.Trigger.Value
	case CounterBlocksFound:
		return float64(in.Counters.BlocksFound) >= def.Trigger.Value
	default:
		return false
	}
}

func evalStreak(def Definition, in EvalInput) bool {
	return float64(in.Counters.CurrentStreak) >= def.Trigger.Value
}

func evalEvent(def Definition, in EvalInput) bool {
	return string(in.Event.Type) == def.Trigger.Event
}

// Satisfied: 정의의 트리거가 입력으로 충족되는지 판정한다.
func Satisfied(def Definition, in EvalInput) bool {
	pred, ok := triggerPredicates[def.Trigger.Type]
	if !ok {
		return false
	}
	return pred(def, in)
}

// NewlySatisfied: 아직 획득하지 않은 배지 중 이번 입력으로 충족된 정의를
// 좁은 범위 우선 순서로 돌려준다.
func (c *Catalog) NewlySatisfied(earned map[string]bool, in EvalInput) []Definition {
	var out []Definition
	for _, def := range c.All() {
		if earned[def.Slug] {
			continue
		}
		if Satisfied(def, in) {
			out = append(out, def)
		}
	}
	return out
}
