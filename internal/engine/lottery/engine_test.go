package lottery

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	cerrors "github.com/minepulse/gamify-engine/internal/common/errors"
	"github.com/minepulse/gamify-engine/internal/common/testhelper"
	"github.com/minepulse/gamify-engine/internal/engine/model"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
)

type noopNotifier struct{ sent []model.Notification }

func (n *noopNotifier) Publish(_ context.Context, msg model.Notification) {
	n.sent = append(n.sent, msg)
}

func newTestLottery(t *testing.T, prizes []string) (*Engine, *repository.Repository, *noopNotifier) {
	t.Helper()
	repo := repository.New(testhelper.NewMemoryDB(t))
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	notifier := &noopNotifier{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewEngine(repo, notifier, prizes, logger), repo, notifier
}

func seedWeek(t *testing.T, repo *repository.Repository, periodKey string, start time.Time, shares map[string]int64) {
	t.Helper()
	ctx := context.Background()
	for player, n := range shares {
		if err := repo.UpsertPeriodActivity(ctx, player, periodKey, start, n, 0); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDraw(t *testing.T) {
	engine, repo, notifier := newTestLottery(t, []string{"grand", "second"})
	ctx := context.Background()
	start := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 24, 0, 10, 0, 0, time.UTC)
	const period = "2026-W34"

	seedWeek(t, repo, period, start, map[string]int64{"alice": 10, "bob": 20, "carol": 30})

	draw, results, err := engine.Draw(ctx, period, now)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if draw.TotalTickets != 60 {
		t.Errorf("total tickets = %d, want 60", draw.TotalTickets)
	}
	if draw.ParticipantCount != 3 {
		t.Errorf("participants = %d, want 3", draw.ParticipantCount)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].PlayerID == results[1].PlayerID {
		t.Error("same player won both seats")
	}
	if results[0].Prize != "grand" || results[1].Prize != "second" {
		t.Errorf("prizes = %s/%s", results[0].Prize, results[1].Prize)
	}

	t.Run("PartitionPersistedForAudit", func(t *testing.T) {
		stored, _, err := repo.GetDraw(ctx, period)
		if err != nil {
			t.Fatal(err)
		}
		var partition Partition
		if err := json.Unmarshal([]byte(stored.PartitionJSON), &partition); err != nil {
			t.Fatalf("unmarshal partition: %v", err)
		}
		if partition.TotalTickets != 60 || len(partition.Ranges) != 3 {
			t.Errorf("partition = %+v", partition)
		}
		// player_id ascending keeps the partition reproducible
		if partition.Ranges[0].PlayerID != "alice" || partition.Ranges[2].PlayerID != "carol" {
			t.Errorf("partition out of order: %+v", partition.Ranges)
		}
	})

	t.Run("SecondDrawRejected", func(t *testing.T) {
		_, _, err := engine.Draw(ctx, period, now.Add(time.Hour))
		if !cerrors.IsIdempotencyCollision(err) {
			t.Fatalf("expected draw conflict, got %v", err)
		}

		stored, storedResults, err := repo.GetDraw(ctx, period)
		if err != nil {
			t.Fatal(err)
		}
		if !stored.DrawnAt.Equal(draw.DrawnAt) {
			t.Error("original draw timestamp changed")
		}
		if len(storedResults) != 2 || storedResults[0].PlayerID != results[0].PlayerID {
			t.Error("original results changed")
		}
	})

	t.Run("WinnersNotified", func(t *testing.T) {
		won := 0
		for _, n := range notifier.sent {
			if n.Type == model.NotifyLotteryWon {
				won++
			}
		}
		if won != 2 {
			t.Errorf("lottery notifications = %d, want 2", won)
		}
	})
}

func TestDrawEmptyPeriod(t *testing.T) {
	engine, repo, _ := newTestLottery(t, nil)
	ctx := context.Background()
	now := time.Date(2026, 8, 24, 0, 10, 0, 0, time.UTC)

	draw, results, err := engine.Draw(ctx, "2026-W34", now)
	if err != nil {
		t.Fatalf("empty draw: %v", err)
	}
	if draw.ParticipantCount != 0 || len(results) != 0 {
		t.Errorf("expected empty draw, got %+v / %d results", draw, len(results))
	}

	// The period is exhausted even with no participants.
	stored, _, err := repo.GetDraw(ctx, "2026-W34")
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil {
		t.Fatal("empty draw was not recorded")
	}
}

func TestDrawClosedWeek(t *testing.T) {
	engine, repo, _ := newTestLottery(t, []string{"grand"})
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC) // within 2026-W35

	prevStart := model.WeekStart(now).AddDate(0, 0, -7)
	seedWeek(t, repo, model.PrevWeekKey(now), prevStart, map[string]int64{"alice": 5})

	if err := engine.DrawClosedWeek(ctx, now); err != nil {
		t.Fatalf("first check: %v", err)
	}
	stored, results, err := repo.GetDraw(ctx, model.PrevWeekKey(now))
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil {
		t.Fatal("closed week was not drawn")
	}
	if len(results) != 1 || results[0].PlayerID != "alice" {
		t.Errorf("results = %+v", results)
	}

	// Subsequent ticks within the same week are no-ops.
	if err := engine.DrawClosedWeek(ctx, now.Add(time.Hour)); err != nil {
		t.Fatalf("second check: %v", err)
	}
	draws, err := repo.ListDraws(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(draws) != 1 {
		t.Errorf("draws = %d, want 1", len(draws))
	}
}
