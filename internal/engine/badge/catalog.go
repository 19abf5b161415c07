package badge

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minepulse/gamify-engine/internal/engine/assets"
)

// TriggerType 배지 트리거 종류.
type TriggerType string

// TriggerCounter 는 트리거 종류 상수 목록이다.
const (
	TriggerCounter TriggerType = "counter"
	TriggerStreak  TriggerType = "streak"
	TriggerEvent   TriggerType = "event"
	TriggerManual  TriggerType = "manual"
)

// CounterName 카운터 트리거가 참조하는 플레이어 카운터.
type CounterName string

// CounterShareCount 는 카운터 이름 상수 목록이다.
const (
	CounterShareCount     CounterName = "share_count"
	CounterBestDifficulty CounterName = "best_difficulty"
	CounterBlocksFound    CounterName = "blocks_found"
)

// BadgeScope 배지 범위. 한 이벤트에서 복수 배지 획득 시 좁은 범위부터 부여한다.
type BadgeScope string

// ScopeSession 은 배지 범위 상수 목록이다.
const (
	ScopeSession BadgeScope = "session"
	ScopeWeekly  BadgeScope = "weekly"
	ScopeAlltime BadgeScope = "alltime"
)

var scopeRank = map[BadgeScope]int{
	ScopeSession: 0,
	ScopeWeekly:  1,
	ScopeAlltime: 2,
}

// Trigger: 배지 획득 조건.
type Trigger struct {
	Type    TriggerType `yaml:"type"`
	Counter CounterName `yaml:"counter,omitempty"`
	Event   string      `yaml:"event,omitempty"`
	Value   float64     `yaml:"value,omitempty"`
}

// Definition: 배지 정의 시드. 런타임에 거의 변하지 않는다.
type Definition struct {
	Slug     string     `yaml:"slug"`
	Name     string     `yaml:"name"`
	Category string     `yaml:"category"`
	Rarity   string     `yaml:"rarity"`
	Scope    BadgeScope `yaml:"scope"`
	XPReward int64      `yaml:"xp_reward"`
	Trigger  Trigger    `yaml:"trigger"`
}

// Catalog: 배지 정의와 액션별 XP 금액의 불변 집합.
type Catalog struct {
	defs      []Definition
	bySlug    map[string]Definition
	xpReasons map[string]int64
}

type catalogFile struct {
	XPReasons map[string]int64 `yaml:"xp_reasons"`
	Badges    []Definition     `yaml:"badges"`
}

// LoadCatalog: YAML 본문에서 카탈로그를 파싱/검증한다.
func LoadCatalog(yamlContent string) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal([]byte(yamlContent), &file); err != nil {
		return nil, fmt.Errorf("unmarshal badge catalog failed: %w", err)
	}

	bySlug := make(map[string]Definition, len(file.Badges))
	for i, def := range file.Badges {
		def.Slug = strings.TrimSpace(def.Slug)
		if def.Slug == "" {
			return nil, fmt.Errorf("badge #%d: empty slug", i)
		}
		if _, dup := bySlug[def.Slug]; dup {
			return nil, fmt.Errorf("badge %q: duplicate slug", def.Slug)
		}
		if _, ok := scopeRank[def.Scope]; !ok {
			return nil, fmt.Errorf("badge %q: unknown scope %q", def.Slug, def.Scope)
		}
		if err := validateTrigger(def); err != nil {
			return nil, err
		}
		if def.XPReward < 0 {
			return nil, fmt.Errorf("badge %q: negative xp reward", def.Slug)
		}
		bySlug[def.Slug] = def
		file.Badges[i] = def
	}

	if file.XPReasons == nil {
		file.XPReasons = make(map[string]int64)
	}

	return &Catalog{defs: file.Badges, bySlug: bySlug, xpReasons: file.XPReasons}, nil
}

func validateTrigger(def Definition) error {
	switch def.Trigger.Type {
	case TriggerCounter:
		switch def.Trigger.Counter {
		case CounterShareCount, CounterBestDifficulty, CounterBlocksFound:
		default:
			return fmt.Errorf("badge %q: unknown counter %q", def.Slug, def.Trigger.Counter)
		}
		if def.Trigger.Value <= 0 {
			return fmt.Errorf("badge %q: counter trigger needs a positive value", def.Slug)
		}
	case TriggerStreak:
		if def.Trigger.Value <= 0 {
			return fmt.Errorf("badge %q: streak trigger needs a positive value", def.Slug)
		}
	case TriggerEvent:
		if strings.TrimSpace(def.Trigger.Event) == "" {
			return fmt.Errorf("badge %q: event trigger needs an event type", def.Slug)
		}
	case TriggerManual:
	default:
		return fmt.Errorf("badge %q: unknown trigger type %q", def.Slug, def.Trigger.Type)
	}
	return nil
}

// DefaultCatalog: 임베드된 시드 카탈로그를 로드한다.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(assets.BadgeCatalogYAML)
}

// LoadCatalogFile: 파일 경로에서 카탈로그를 로드한다 (운영 오버라이드용).
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read badge catalog %q failed: %w", path, err)
	}
	return LoadCatalog(string(raw))
}

// All: 전체 배지 정의를 좁은 범위(session) 우선, 같은 범위 내 slug 순으로 돌려준다.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	sort.SliceStable(out, func(i, j int) bool {
		if scopeRank[out[i].Scope] != scopeRank[out[j].Scope] {
			return scopeRank[out[i].Scope] < scopeRank[out[j].Scope]
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

// Get: slug 로 배지 정의를 조회한다.
func (c *Catalog) Get(slug string) (Definition, bool) {
	def, ok := c.bySlug[slug]
	return def, ok
}

// XPForReason: 액션 reason code 의 기본 XP 금액 (미정의 시 0).
func (c *Catalog) XPForReason(reason string) int64 {
	return c.xpReasons[reason]
}

// Len 는 배지 정의 개수다.
func (c *Catalog) Len() int { return len(c.defs) }
