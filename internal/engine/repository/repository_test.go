package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	cerrors "github.com/minepulse/gamify-engine/internal/common/errors"
	"github.com/minepulse/gamify-engine/internal/common/testhelper"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo := New(testhelper.NewMemoryDB(t))
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestMarkEventProcessed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	fresh, err := repo.MarkEventProcessed(ctx, "evt-1", "p1", "share_submitted", at)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Fatal("first insert should be fresh")
	}

	fresh, err = repo.MarkEventProcessed(ctx, "evt-1", "p1", "share_submitted", at)
	if err != nil {
		t.Fatal(err)
	}
	if fresh {
		t.Fatal("redelivered event must not be fresh")
	}

	fresh, err = repo.MarkEventProcessed(ctx, "evt-2", "p1", "share_submitted", at)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Fatal("distinct event id should be fresh")
	}
}

func TestApplyCounterDelta(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	t.Run("CreatesRowOnFirstEvent", func(t *testing.T) {
		err := repo.ApplyCounterDelta(ctx, "p1", CounterDelta{
			ShareInc: 5, Difficulty: 100, Region: "eu", LastEventAt: now,
		})
		if err != nil {
			t.Fatal(err)
		}
		state, err := repo.GetPlayerState(ctx, "p1")
		if err != nil {
			t.Fatal(err)
		}
		if state == nil {
			t.Fatal("state missing")
		}
		if state.ShareCount != 5 {
			t.Errorf("share_count = %d, want 5", state.ShareCount)
		}
		if state.BestDifficulty != 100 {
			t.Errorf("best_difficulty = %v, want 100", state.BestDifficulty)
		}
		if state.Region != "eu" {
			t.Errorf("region = %q, want eu", state.Region)
		}
		if state.Level != 1 {
			t.Errorf("level = %d, want 1", state.Level)
		}
	})

	t.Run("IncrementsAndKeepsBest", func(t *testing.T) {
		err := repo.ApplyCounterDelta(ctx, "p1", CounterDelta{
			ShareInc: 3, BlockInc: 1, Difficulty: 50, LastEventAt: now.Add(time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
		state, _ := repo.GetPlayerState(ctx, "p1")
		if state.ShareCount != 8 {
			t.Errorf("share_count = %d, want 8", state.ShareCount)
		}
		if state.BlocksFound != 1 {
			t.Errorf("blocks_found = %d, want 1", state.BlocksFound)
		}
		// 50 < 100: best difficulty must not regress
		if state.BestDifficulty != 100 {
			t.Errorf("best_difficulty = %v, want 100", state.BestDifficulty)
		}
	})

	t.Run("HigherDifficultyAdvancesBest", func(t *testing.T) {
		if err := repo.ApplyCounterDelta(ctx, "p1", CounterDelta{Difficulty: 900, LastEventAt: now}); err != nil {
			t.Fatal(err)
		}
		state, _ := repo.GetPlayerState(ctx, "p1")
		if state.BestDifficulty != 900 {
			t.Errorf("best_difficulty = %v, want 900", state.BestDifficulty)
		}
	})

	t.Run("EmptyRegionKeepsExisting", func(t *testing.T) {
		if err := repo.ApplyCounterDelta(ctx, "p1", CounterDelta{ShareInc: 1, LastEventAt: now}); err != nil {
			t.Fatal(err)
		}
		state, _ := repo.GetPlayerState(ctx, "p1")
		if state.Region != "eu" {
			t.Errorf("region = %q, want eu", state.Region)
		}
	})

	t.Run("UnknownPlayerIsNilNil", func(t *testing.T) {
		state, err := repo.GetPlayerState(ctx, "ghost")
		if err != nil {
			t.Fatal(err)
		}
		if state != nil {
			t.Fatal("expected nil state for unknown player")
		}
	})
}

func TestInsertEarnedBadge(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	inserted, err := repo.InsertEarnedBadge(ctx, "p1", "first_share", nil, at)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Fatal("first award should insert")
	}

	inserted, err = repo.InsertEarnedBadge(ctx, "p1", "first_share", nil, at)
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Fatal("second award of same badge must be a no-op")
	}

	// Same badge for another player is independent.
	inserted, err = repo.InsertEarnedBadge(ctx, "p2", "first_share", nil, at)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Fatal("award for another player should insert")
	}

	slugs, err := repo.ListEarnedSlugs(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !slugs["first_share"] || len(slugs) != 1 {
		t.Errorf("earned slugs = %v, want only first_share", slugs)
	}

	counts, err := repo.CountEarnedByBadge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["first_share"] != 2 {
		t.Errorf("count = %d, want 2", counts["first_share"])
	}
}

func TestLedger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ref := "evt-1"
	for _, amount := range []int64{50, 100, -30} {
		entry := &XPLedgerEntry{PlayerID: "p1", Amount: amount, Reason: "test", RefID: &ref}
		if err := repo.AppendLedgerEntry(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}

	sum, err := repo.SumLedger(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if sum != 120 {
		t.Errorf("sum = %d, want 120", sum)
	}

	sum, err = repo.SumLedger(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if sum != 0 {
		t.Errorf("empty ledger sum = %d, want 0", sum)
	}

	entries, err := repo.ListLedger(ctx, "p1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Amount != -30 {
		t.Errorf("entries[0].Amount = %d, want -30", entries[0].Amount)
	}
}

func TestPeriodActivityQueries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	const period = "2026-W35"

	seed := []struct {
		player string
		shares int64
		diff   float64
	}{
		{"alice", 10, 500},
		{"bob", 30, 900},
		{"carol", 20, 900}, // ties with bob on difficulty
		{"idle", 0, 0},
	}
	for _, s := range seed {
		if err := repo.UpsertPeriodActivity(ctx, s.player, period, start, s.shares, s.diff); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("TopByPeriodDifficulty", func(t *testing.T) {
		rows, err := repo.TopByPeriodDifficulty(ctx, period, 10)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"bob", "carol", "alice"} // tie broken by player_id asc
		if len(rows) != len(want) {
			t.Fatalf("len = %d, want %d", len(rows), len(want))
		}
		for i, id := range want {
			if rows[i].PlayerID != id {
				t.Errorf("rows[%d] = %s, want %s", i, rows[i].PlayerID, id)
			}
		}
	})

	t.Run("PeriodDifficultyRank", func(t *testing.T) {
		cases := map[string]int64{"bob": 1, "carol": 2, "alice": 3, "idle": 0, "ghost": 0}
		for player, want := range cases {
			rank, err := repo.PeriodDifficultyRank(ctx, period, player)
			if err != nil {
				t.Fatal(err)
			}
			if rank != want {
				t.Errorf("rank(%s) = %d, want %d", player, rank, want)
			}
		}
	})

	t.Run("ActivitiesForPeriodOrderedAndFiltered", func(t *testing.T) {
		rows, err := repo.ActivitiesForPeriod(ctx, period)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"alice", "bob", "carol"} // idle has zero shares
		if len(rows) != len(want) {
			t.Fatalf("len = %d, want %d", len(rows), len(want))
		}
		for i, id := range want {
			if rows[i].PlayerID != id {
				t.Errorf("rows[%d] = %s, want %s", i, rows[i].PlayerID, id)
			}
		}
	})

	t.Run("UpsertAccumulates", func(t *testing.T) {
		if err := repo.UpsertPeriodActivity(ctx, "alice", period, start, 5, 400); err != nil {
			t.Fatal(err)
		}
		rows, err := repo.ActivitiesForPeriod(ctx, period)
		if err != nil {
			t.Fatal(err)
		}
		if rows[0].Shares != 15 {
			t.Errorf("alice shares = %d, want 15", rows[0].Shares)
		}
		// 400 < 500: period best must not regress
		if rows[0].BestDifficulty != 500 {
			t.Errorf("alice best = %v, want 500", rows[0].BestDifficulty)
		}
	})

	t.Run("Prune", func(t *testing.T) {
		deleted, err := repo.PrunePeriodActivitiesBefore(ctx, start.AddDate(0, 0, 7))
		if err != nil {
			t.Fatal(err)
		}
		if deleted != 4 {
			t.Errorf("deleted = %d, want 4", deleted)
		}
	})
}

func TestTotalSharesRank(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seed := []struct {
		player string
		shares int64
		region string
	}{
		{"alice", 100, "eu"},
		{"bob", 200, "us"},
		{"carol", 100, "eu"}, // ties with alice
	}
	for _, s := range seed {
		err := repo.ApplyCounterDelta(ctx, s.player, CounterDelta{
			ShareInc: s.shares, Region: s.region, LastEventAt: now,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	t.Run("Global", func(t *testing.T) {
		cases := map[string]int64{"bob": 1, "alice": 2, "carol": 3}
		for player, want := range cases {
			rank, err := repo.TotalSharesRank(ctx, "", player)
			if err != nil {
				t.Fatal(err)
			}
			if rank != want {
				t.Errorf("rank(%s) = %d, want %d", player, rank, want)
			}
		}
	})

	t.Run("RegionScoped", func(t *testing.T) {
		rank, err := repo.TotalSharesRank(ctx, "eu", "carol")
		if err != nil {
			t.Fatal(err)
		}
		if rank != 2 {
			t.Errorf("eu rank(carol) = %d, want 2", rank)
		}
	})

	t.Run("ListRegions", func(t *testing.T) {
		regions, err := repo.ListRegions(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(regions) != 2 {
			t.Errorf("regions = %v, want [eu us]", regions)
		}
	})
}

func TestCreateDraw(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 31, 0, 5, 0, 0, time.UTC)

	draw := &LotteryDraw{
		PeriodKey:        "2026-W35",
		TotalTickets:     60,
		ParticipantCount: 3,
		PartitionJSON:    `{"ranges":[],"totalTickets":60}`,
		DrawnAt:          at,
	}
	results := []LotteryResult{
		{PlayerID: "bob", Placement: 1, TicketNumber: 12, Prize: "grand"},
		{PlayerID: "alice", Placement: 2, TicketNumber: 44, Prize: "second"},
	}
	if err := repo.CreateDraw(ctx, draw, results); err != nil {
		t.Fatal(err)
	}

	t.Run("SecondDrawRejected", func(t *testing.T) {
		dup := &LotteryDraw{
			PeriodKey:        "2026-W35",
			TotalTickets:     1,
			ParticipantCount: 1,
			PartitionJSON:    "{}",
			DrawnAt:          at.Add(time.Hour),
		}
		err := repo.CreateDraw(ctx, dup, []LotteryResult{{PlayerID: "mallory", Placement: 1, Prize: "grand"}})
		var conflict cerrors.DrawConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected DrawConflictError, got %v", err)
		}
		if conflict.Period != "2026-W35" {
			t.Errorf("conflict period = %q", conflict.Period)
		}
		if !cerrors.IsIdempotencyCollision(err) {
			t.Error("draw conflict should classify as idempotency collision")
		}
	})

	t.Run("OriginalResultsUntouched", func(t *testing.T) {
		got, gotResults, err := repo.GetDraw(ctx, "2026-W35")
		if err != nil {
			t.Fatal(err)
		}
		if got == nil {
			t.Fatal("draw missing")
		}
		if got.TotalTickets != 60 {
			t.Errorf("total tickets = %d, want 60", got.TotalTickets)
		}
		if len(gotResults) != 2 {
			t.Fatalf("results = %d, want 2", len(gotResults))
		}
		if gotResults[0].PlayerID != "bob" || gotResults[0].Placement != 1 {
			t.Errorf("first result = %+v", gotResults[0])
		}
	})

	t.Run("MissingPeriodIsNil", func(t *testing.T) {
		got, _, err := repo.GetDraw(ctx, "2026-W01")
		if err != nil {
			t.Fatal(err)
		}
		if got != nil {
			t.Fatal("expected nil draw for undrawn period")
		}
	})

	t.Run("ResultsForPlayer", func(t *testing.T) {
		wins, err := repo.ResultsForPlayer(ctx, "bob", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(wins) != 1 || wins[0].Prize != "grand" {
			t.Errorf("wins = %+v", wins)
		}
	})

	t.Run("PruneDeletesResultsToo", func(t *testing.T) {
		deleted, err := repo.PruneDrawsBefore(ctx, at.Add(time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		if deleted != 1 {
			t.Errorf("deleted = %d, want 1", deleted)
		}
		wins, err := repo.ResultsForPlayer(ctx, "bob", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(wins) != 0 {
			t.Errorf("results survived prune: %+v", wins)
		}
	})
}
