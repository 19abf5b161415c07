package leaderboard

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/minepulse/gamify-engine/internal/common/testhelper"
	"github.com/minepulse/gamify-engine/internal/engine/model"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
)

type recordingNotifier struct{ sent []model.Notification }

func (r *recordingNotifier) Publish(_ context.Context, n model.Notification) {
	r.sent = append(r.sent, n)
}

func newTestService(t *testing.T) (*Service, *repository.Repository, *recordingNotifier) {
	t.Helper()
	repo := repository.New(testhelper.NewMemoryDB(t))
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	client, _ := testhelper.NewMiniValkey(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := NewSnapshotStore(client, logger, time.Hour)
	notifier := &recordingNotifier{}
	return NewService(repo, store, notifier, 100, logger), repo, notifier
}

func TestSnapshotStorePublishAndCurrent(t *testing.T) {
	client, _ := testhelper.NewMiniValkey(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := NewSnapshotStore(client, logger, time.Hour)
	ctx := context.Background()

	t.Run("MissingIsNilNil", func(t *testing.T) {
		snap, err := store.Current(ctx, model.PeriodWeekly, "2026-W35")
		if err != nil {
			t.Fatal(err)
		}
		if snap != nil {
			t.Fatal("expected nil for unpublished board")
		}
	})

	first := &Snapshot{
		Period:     model.PeriodWeekly,
		Segment:    "2026-W35",
		CapturedAt: time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
		Entries: []Entry{
			{Rank: 1, PlayerID: "bob", Score: 900},
			{Rank: 2, PlayerID: "alice", Score: 500},
		},
	}
	if err := store.Publish(ctx, first); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("version = %d, want 1", first.Version)
	}

	got, err := store.Current(ctx, model.PeriodWeekly, "2026-W35")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("snapshot missing after publish")
	}
	if len(got.Entries) != 2 || got.Entries[0].PlayerID != "bob" {
		t.Errorf("entries = %+v", got.Entries)
	}

	t.Run("RepublishSwapsPointer", func(t *testing.T) {
		second := &Snapshot{
			Period:     model.PeriodWeekly,
			Segment:    "2026-W35",
			CapturedAt: time.Date(2026, 8, 27, 13, 0, 0, 0, time.UTC),
			Entries:    []Entry{{Rank: 1, PlayerID: "carol", Score: 1200}},
		}
		if err := store.Publish(ctx, second); err != nil {
			t.Fatal(err)
		}
		if second.Version != 2 {
			t.Errorf("version = %d, want 2", second.Version)
		}

		got, err := store.Current(ctx, model.PeriodWeekly, "2026-W35")
		if err != nil {
			t.Fatal(err)
		}
		if got.Version != 2 || got.Entries[0].PlayerID != "carol" {
			t.Errorf("current = %+v, want version 2 headed by carol", got)
		}
	})

	t.Run("SegmentsIsolated", func(t *testing.T) {
		snap, err := store.Current(ctx, model.PeriodWeekly, "2026-W34")
		if err != nil {
			t.Fatal(err)
		}
		if snap != nil {
			t.Error("other segment leaked a snapshot")
		}
	})
}

func TestRefreshWeekly(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	week := model.WeekKey(now)
	start := model.WeekStart(now)

	seed := map[string]float64{"alice": 500, "bob": 900, "carol": 900}
	for player, diff := range seed {
		if err := repo.UpsertPeriodActivity(ctx, player, week, start, 10, diff); err != nil {
			t.Fatal(err)
		}
	}

	if err := svc.Refresh(ctx, model.PeriodWeekly, now); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	snap, err := svc.Current(ctx, model.PeriodWeekly, "", now)
	if err != nil {
		t.Fatal(err)
	}
	if snap == nil {
		t.Fatal("snapshot not published")
	}

	want := []string{"bob", "carol", "alice"} // difficulty desc, ties by player_id
	if len(snap.Entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(snap.Entries), len(want))
	}
	for i, id := range want {
		if snap.Entries[i].PlayerID != id || snap.Entries[i].Rank != i+1 {
			t.Errorf("entries[%d] = %+v, want %s rank %d", i, snap.Entries[i], id, i+1)
		}
	}

	t.Run("RankChangeNotifications", func(t *testing.T) {
		// alice beats everyone; bob and carol shift down on the next refresh.
		if err := repo.UpsertPeriodActivity(ctx, "alice", week, start, 1, 5000); err != nil {
			t.Fatal(err)
		}
		if err := svc.Refresh(ctx, model.PeriodWeekly, now.Add(time.Minute)); err != nil {
			t.Fatal(err)
		}

		changed := map[string]bool{}
		for _, n := range notifier.sent {
			if n.Type == model.NotifyRankChanged {
				changed[n.PlayerID] = true
			}
		}
		// alice 3->1, bob 1->2, carol 2->3: all three moved.
		for _, id := range []string{"alice", "bob", "carol"} {
			if !changed[id] {
				t.Errorf("expected rank-change notification for %s", id)
			}
		}
	})
}

func TestRefreshRegionSegments(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	seed := []struct {
		player string
		shares int64
		region string
	}{
		{"alice", 100, "eu"},
		{"bob", 200, "us"},
		{"carol", 50, "eu"},
	}
	for _, s := range seed {
		err := repo.ApplyCounterDelta(ctx, s.player, repository.CounterDelta{
			ShareInc: s.shares, Region: s.region, LastEventAt: now,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := svc.Refresh(ctx, model.PeriodRegion, now); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	eu, err := svc.Current(ctx, model.PeriodRegion, "eu", now)
	if err != nil {
		t.Fatal(err)
	}
	if eu == nil || len(eu.Entries) != 2 {
		t.Fatalf("eu snapshot = %+v", eu)
	}
	if eu.Entries[0].PlayerID != "alice" {
		t.Errorf("eu leader = %s, want alice", eu.Entries[0].PlayerID)
	}

	us, err := svc.Current(ctx, model.PeriodRegion, "us", now)
	if err != nil {
		t.Fatal(err)
	}
	if us == nil || len(us.Entries) != 1 || us.Entries[0].PlayerID != "bob" {
		t.Fatalf("us snapshot = %+v", us)
	}
}

func TestOwnRank(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	week := model.WeekKey(now)
	start := model.WeekStart(now)

	for i, player := range []string{"alice", "bob", "carol"} {
		diff := float64((i + 1) * 100)
		if err := repo.UpsertPeriodActivity(ctx, player, week, start, 5, diff); err != nil {
			t.Fatal(err)
		}
		err := repo.ApplyCounterDelta(ctx, player, repository.CounterDelta{
			ShareInc: int64((i + 1) * 10), LastEventAt: now,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	t.Run("WeeklyDefaultsToCurrentWeek", func(t *testing.T) {
		rank, err := svc.OwnRank(ctx, model.PeriodWeekly, "", "carol", now)
		if err != nil {
			t.Fatal(err)
		}
		if rank != 1 {
			t.Errorf("carol weekly rank = %d, want 1", rank)
		}
	})

	t.Run("AllTime", func(t *testing.T) {
		rank, err := svc.OwnRank(ctx, model.PeriodAllTime, "", "alice", now)
		if err != nil {
			t.Fatal(err)
		}
		if rank != 3 {
			t.Errorf("alice alltime rank = %d, want 3", rank)
		}
	})

	t.Run("NonParticipantIsZero", func(t *testing.T) {
		rank, err := svc.OwnRank(ctx, model.PeriodWeekly, "", "ghost", now)
		if err != nil {
			t.Fatal(err)
		}
		if rank != 0 {
			t.Errorf("ghost rank = %d, want 0", rank)
		}
	})
}
