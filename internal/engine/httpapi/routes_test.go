package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/minepulse/gamify-engine/internal/common/testhelper"
	"github.com/minepulse/gamify-engine/internal/engine/badge"
	"github.com/minepulse/gamify-engine/internal/engine/leaderboard"
	"github.com/minepulse/gamify-engine/internal/engine/model"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
)

func newTestAPI(t *testing.T) (*http.ServeMux, *repository.Repository, *leaderboard.Service) {
	t.Helper()
	repo := repository.New(testhelper.NewMemoryDB(t))
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	catalog, err := badge.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	client, _ := testhelper.NewMiniValkey(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := leaderboard.NewSnapshotStore(client, logger, time.Hour)
	lb := leaderboard.NewService(repo, store, nil, 100, logger)

	mux := http.NewServeMux()
	NewAPI(repo, catalog, lb, logger).Register(mux)
	return mux, repo, lb
}

func getJSON(t *testing.T, mux *http.ServeMux, path string, wantStatus int, out any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("GET %s = %d, want %d (body: %s)", path, rec.Code, wantStatus, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
}

func TestPlayerSummaryEndpoint(t *testing.T) {
	mux, repo, _ := newTestAPI(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	t.Run("NotFound", func(t *testing.T) {
		getJSON(t, mux, "/api/gamify/players/ghost", http.StatusNotFound, nil)
	})

	err := repo.ApplyCounterDelta(ctx, "p1", repository.CounterDelta{
		ShareInc: 42, Region: "eu", LastEventAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.InsertEarnedBadge(ctx, "p1", "first_share", nil, now); err != nil {
		t.Fatal(err)
	}
	ref := "evt-1"
	if err := repo.AppendLedgerEntry(ctx, &repository.XPLedgerEntry{
		PlayerID: "p1", Amount: 51, Reason: "share_submitted", RefID: &ref,
	}); err != nil {
		t.Fatal(err)
	}

	t.Run("Summary", func(t *testing.T) {
		var resp PlayerSummaryResponse
		getJSON(t, mux, "/api/gamify/players/p1", http.StatusOK, &resp)
		if resp.PlayerID != "p1" || resp.Region != "eu" {
			t.Errorf("resp = %+v", resp)
		}
		if resp.ShareCount != 42 {
			t.Errorf("share count = %d, want 42", resp.ShareCount)
		}
		if len(resp.Badges) != 1 || resp.Badges[0].Slug != "first_share" {
			t.Errorf("badges = %+v", resp.Badges)
		}
		if resp.Badges[0].Name == "" {
			t.Error("badge name not resolved from catalog")
		}
		if len(resp.RecentXP) != 1 || resp.RecentXP[0].Amount != 51 {
			t.Errorf("recent xp = %+v", resp.RecentXP)
		}
		if resp.XPForNextLevel != 100 {
			t.Errorf("xp for next level = %d, want 100", resp.XPForNextLevel)
		}
	})
}

func TestBadgeCatalogEndpoint(t *testing.T) {
	mux, repo, _ := newTestAPI(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	for _, player := range []string{"p1", "p2"} {
		err := repo.ApplyCounterDelta(ctx, player, repository.CounterDelta{ShareInc: 1, LastEventAt: now})
		if err != nil {
			t.Fatal(err)
		}
	}
	if _, err := repo.InsertEarnedBadge(ctx, "p1", "first_share", nil, now); err != nil {
		t.Fatal(err)
	}

	var resp BadgeCatalogResponse
	getJSON(t, mux, "/api/gamify/badges?playerId=p1", http.StatusOK, &resp)

	var firstShare *BadgeCatalogEntry
	for i := range resp.Badges {
		if resp.Badges[i].Slug == "first_share" {
			firstShare = &resp.Badges[i]
		}
	}
	if firstShare == nil {
		t.Fatal("first_share missing from catalog response")
	}
	if !firstShare.Earned {
		t.Error("first_share should be earned for p1")
	}
	// 1 of 2 players holds the badge
	if firstShare.EarnedPercent != 50 {
		t.Errorf("earned percent = %v, want 50", firstShare.EarnedPercent)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	mux, repo, lb := newTestAPI(t)
	ctx := context.Background()
	now := time.Now().UTC()
	week := model.WeekKey(now)
	start := model.WeekStart(now)

	for i, player := range []string{"alice", "bob"} {
		if err := repo.UpsertPeriodActivity(ctx, player, week, start, 5, float64((i+1)*100)); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("UnknownPeriod", func(t *testing.T) {
		getJSON(t, mux, "/api/gamify/leaderboards/hourly", http.StatusBadRequest, nil)
	})

	t.Run("RegionNeedsSegment", func(t *testing.T) {
		getJSON(t, mux, "/api/gamify/leaderboards/region", http.StatusBadRequest, nil)
	})

	t.Run("NoSnapshotYet", func(t *testing.T) {
		getJSON(t, mux, "/api/gamify/leaderboards/weekly", http.StatusNotFound, nil)
	})

	if err := lb.Refresh(ctx, model.PeriodWeekly, now); err != nil {
		t.Fatal(err)
	}

	t.Run("Snapshot", func(t *testing.T) {
		var resp LeaderboardResponse
		getJSON(t, mux, "/api/gamify/leaderboards/weekly", http.StatusOK, &resp)
		if len(resp.Entries) != 2 {
			t.Fatalf("entries = %+v", resp.Entries)
		}
		if resp.Entries[0].PlayerID != "bob" || resp.Entries[0].Rank != 1 {
			t.Errorf("leader = %+v, want bob rank 1", resp.Entries[0])
		}
	})

	t.Run("OwnRank", func(t *testing.T) {
		var resp LeaderboardResponse
		getJSON(t, mux, "/api/gamify/leaderboards/weekly?playerId=alice", http.StatusOK, &resp)
		if resp.OwnRank != 2 {
			t.Errorf("own rank = %d, want 2", resp.OwnRank)
		}
	})
}

func TestLotteryEndpoints(t *testing.T) {
	mux, repo, _ := newTestAPI(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 0, 10, 0, 0, time.UTC)

	draw := &repository.LotteryDraw{
		PeriodKey:        "2026-W34",
		TotalTickets:     60,
		ParticipantCount: 3,
		PartitionJSON:    "{}",
		DrawnAt:          at,
	}
	results := []repository.LotteryResult{
		{PlayerID: "bob", Placement: 1, TicketNumber: 12, Prize: "grand"},
	}
	if err := repo.CreateDraw(ctx, draw, results); err != nil {
		t.Fatal(err)
	}

	t.Run("History", func(t *testing.T) {
		var resp LotteryHistoryResponse
		getJSON(t, mux, "/api/gamify/lottery/draws", http.StatusOK, &resp)
		if len(resp.Draws) != 1 || resp.Draws[0].Period != "2026-W34" {
			t.Errorf("draws = %+v", resp.Draws)
		}
	})

	t.Run("PlayerResults", func(t *testing.T) {
		var resp LotteryResultsResponse
		getJSON(t, mux, "/api/gamify/lottery/players/bob", http.StatusOK, &resp)
		if len(resp.Results) != 1 || resp.Results[0].Prize != "grand" {
			t.Errorf("results = %+v", resp.Results)
		}
	})

	t.Run("NoWins", func(t *testing.T) {
		var resp LotteryResultsResponse
		getJSON(t, mux, "/api/gamify/lottery/players/alice", http.StatusOK, &resp)
		if len(resp.Results) != 0 {
			t.Errorf("results = %+v", resp.Results)
		}
	})
}
