package reward

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	cerrors "github.com/minepulse/gamify-engine/internal/common/errors"
	"github.com/minepulse/gamify-engine/internal/common/testhelper"
	"github.com/minepulse/gamify-engine/internal/engine/badge"
	"github.com/minepulse/gamify-engine/internal/engine/model"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
	"github.com/minepulse/gamify-engine/internal/engine/streak"
)

type capturedNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (c *capturedNotifier) Publish(_ context.Context, n model.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
}

func (c *capturedNotifier) byType(t model.NotificationType) []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Notification
	for _, n := range c.sent {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *repository.Repository, *capturedNotifier) {
	t.Helper()
	repo := repository.New(testhelper.NewMemoryDB(t))
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	catalog, err := badge.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	notifier := &capturedNotifier{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	engine := NewEngine(repo, catalog, streak.NewTracker(1), notifier, logger)
	return engine, repo, notifier
}

func shareEvent(eventID, playerID string, shares int64, difficulty float64, at time.Time) model.Event {
	return model.Event{
		EventID:   eventID,
		Type:      model.EventShareSubmitted,
		Timestamp: at,
		Payload:   model.EventPayload{PlayerID: playerID, ShareCount: shares, Difficulty: difficulty},
	}
}

func TestProcessFirstShare(t *testing.T) {
	engine, repo, notifier := newTestEngine(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	out, err := engine.Process(ctx, shareEvent("evt-1", "p1", 1, 0, at))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Duplicate {
		t.Fatal("first delivery must not be duplicate")
	}
	if len(out.BadgesAwarded) != 1 || out.BadgesAwarded[0].Slug != "first_share" {
		t.Fatalf("badges = %+v, want first_share", out.BadgesAwarded)
	}
	// 1 base XP + 50 badge XP
	if out.XPGranted != 51 {
		t.Errorf("xp granted = %d, want 51", out.XPGranted)
	}

	state, err := repo.GetPlayerState(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if state.TotalXP != 51 {
		t.Errorf("total xp = %d, want 51", state.TotalXP)
	}
	if state.BadgeCount != 1 {
		t.Errorf("badge count = %d, want 1", state.BadgeCount)
	}
	if state.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1", state.CurrentStreak)
	}

	// Ledger must hold one entry per grant and sum to the cached total.
	entries, err := repo.ListLedger(ctx, "p1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(entries))
	}
	sum, err := repo.SumLedger(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if sum != state.TotalXP {
		t.Errorf("ledger sum %d != cached %d", sum, state.TotalXP)
	}

	if got := notifier.byType(model.NotifyBadgeEarned); len(got) != 1 {
		t.Errorf("badge notifications = %d, want 1", len(got))
	}
}

func TestProcessRedelivery(t *testing.T) {
	engine, repo, notifier := newTestEngine(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	if _, err := engine.Process(ctx, shareEvent("evt-1", "p1", 1, 0, at)); err != nil {
		t.Fatal(err)
	}
	before, _ := repo.GetPlayerState(ctx, "p1")
	sentBefore := len(notifier.sent)

	out, err := engine.Process(ctx, shareEvent("evt-1", "p1", 1, 0, at))
	if err != nil {
		t.Fatalf("redelivery must succeed: %v", err)
	}
	if !out.Duplicate {
		t.Fatal("redelivery must be flagged duplicate")
	}
	if out.XPGranted != 0 || len(out.BadgesAwarded) != 0 {
		t.Errorf("redelivery produced effects: %+v", out)
	}

	after, _ := repo.GetPlayerState(ctx, "p1")
	if after.TotalXP != before.TotalXP || after.ShareCount != before.ShareCount {
		t.Errorf("state changed on redelivery: before=%+v after=%+v", before, after)
	}
	if len(notifier.sent) != sentBefore {
		t.Error("redelivery emitted notifications")
	}
}

func TestProcessMultipleBadgesInOneEvent(t *testing.T) {
	engine, _, notifier := newTestEngine(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	// A 100-share batch with a record difficulty satisfies two session badges
	// and one alltime badge in the same transaction.
	out, err := engine.Process(ctx, shareEvent("evt-1", "p1", 100, 2_000_000, at))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"first_share", "shares_100", "difficulty_1m"}
	if len(out.BadgesAwarded) != len(want) {
		t.Fatalf("badges = %+v, want %v", out.BadgesAwarded, want)
	}
	for i, slug := range want {
		if out.BadgesAwarded[i].Slug != slug {
			t.Errorf("badges[%d] = %s, want %s (narrow scope first)", i, out.BadgesAwarded[i].Slug, slug)
		}
	}

	// Base: 1 XP x 100 shares. Badges: 50 + 100 + 400.
	if out.XPGranted != 650 {
		t.Errorf("xp granted = %d, want 650", out.XPGranted)
	}
	if out.NewLevel != 4 {
		t.Errorf("level = %d, want 4", out.NewLevel)
	}
	if !out.LeveledUp {
		t.Error("expected level-up")
	}
	if got := notifier.byType(model.NotifyLevelUp); len(got) != 1 {
		t.Errorf("level-up notifications = %d, want 1", len(got))
	}
}

func TestProcessBlockFound(t *testing.T) {
	engine, repo, notifier := newTestEngine(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	ev := model.Event{
		EventID:   "evt-blk",
		Type:      model.EventBlockFound,
		Timestamp: at,
		Payload:   model.EventPayload{PlayerID: "p1", Difficulty: 5_000, BlockHash: "00ab"},
	}
	out, err := engine.Process(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}

	var slugs []string
	for _, def := range out.BadgesAwarded {
		slugs = append(slugs, def.Slug)
	}
	found := false
	for _, s := range slugs {
		if s == "block_finder" {
			found = true
		}
	}
	if !found {
		t.Errorf("badges = %v, want block_finder included", slugs)
	}

	state, _ := repo.GetPlayerState(ctx, "p1")
	if state.BlocksFound != 1 {
		t.Errorf("blocks found = %d, want 1", state.BlocksFound)
	}

	global := notifier.byType(model.NotifyBlockFound)
	if len(global) != 1 {
		t.Fatalf("block notifications = %d, want 1", len(global))
	}
	if global[0].Channel != model.ChannelGlobal {
		t.Errorf("block notification channel = %q, want global", global[0].Channel)
	}
}

func TestProcessUnknownType(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	ev := model.Event{
		EventID:   "evt-x",
		Type:      "pool_reconfigured",
		Timestamp: time.Now(),
		Payload:   model.EventPayload{PlayerID: "p1"},
	}
	_, err := engine.Process(ctx, ev)
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if !cerrors.IsBadInput(err) {
		t.Errorf("unknown type should classify as bad input, got %v", err)
	}
}

func TestProcessConnectionEventsAreNeutral(t *testing.T) {
	engine, repo, _ := newTestEngine(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	ev := model.Event{
		EventID:   "evt-conn",
		Type:      model.EventMinerConnected,
		Timestamp: at,
		Payload:   model.EventPayload{PlayerID: "p1", Worker: "rig-1"},
	}
	out, err := engine.Process(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	if out.XPGranted != 0 || len(out.BadgesAwarded) != 0 {
		t.Errorf("connection event produced rewards: %+v", out)
	}

	state, err := repo.GetPlayerState(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if state == nil {
		t.Fatal("connection event should still create the player row")
	}
	if state.ShareCount != 0 {
		t.Errorf("share count = %d, want 0", state.ShareCount)
	}
}

func TestProcessLedgerStaysConsistentAcrossEvents(t *testing.T) {
	engine, repo, _ := newTestEngine(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	ids := []string{"a", "b", "c", "a", "d", "b"} // includes redeliveries
	for i, id := range ids {
		ev := shareEvent("evt-"+id, "p1", 10, 0, at.Add(time.Duration(i)*time.Minute))
		if _, err := engine.Process(ctx, ev); err != nil {
			t.Fatalf("event %s: %v", id, err)
		}
	}

	state, err := repo.GetPlayerState(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	// 4 distinct events x 10 shares
	if state.ShareCount != 40 {
		t.Errorf("share count = %d, want 40", state.ShareCount)
	}
	sum, err := repo.SumLedger(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if sum != state.TotalXP {
		t.Errorf("ledger sum %d != cached total %d", sum, state.TotalXP)
	}
	if got := LevelForXP(sum); got != state.Level {
		t.Errorf("level %d inconsistent with xp %d (want %d)", state.Level, sum, got)
	}
}
