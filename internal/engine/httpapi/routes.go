// Package httpapi: 게임화 상태의 읽기 전용 API. 프레젠테이션 계층이 소비한다.
package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/minepulse/gamify-engine/internal/common/cache"
	commonhealth "github.com/minepulse/gamify-engine/internal/common/health"
	commonhttputil "github.com/minepulse/gamify-engine/internal/common/httputil"
	"github.com/minepulse/gamify-engine/internal/engine/badge"
	"github.com/minepulse/gamify-engine/internal/engine/leaderboard"
	"github.com/minepulse/gamify-engine/internal/engine/model"
	"github.com/minepulse/gamify-engine/internal/engine/repository"
	"github.com/minepulse/gamify-engine/internal/engine/reward"
)

const (
	recentLedgerLimit   = 20
	earnedStatsCacheKey = "earned-stats"
)

const (
	apiErrorInvalidRequest  = "INVALID_REQUEST"
	apiErrorPlayerNotFound  = "PLAYER_NOT_FOUND"
	apiErrorSnapshotMissing = "SNAPSHOT_NOT_READY"
	apiErrorInternalError   = "INTERNAL_ERROR"
)

// earnedStats: 배지별 획득 플레이어 수와 전체 플레이어 수의 묶음.
type earnedStats struct {
	counts  map[string]int64
	players int64
}

// API 는 타입이다.
type API struct {
	repo        *repository.Repository
	catalog     *badge.Catalog
	leaderboard *leaderboard.Service
	statsCache  *cache.TTLLRU[earnedStats]
	logger      *slog.Logger
}

// NewAPI 는 인스턴스를 생성한다.
func NewAPI(repo *repository.Repository, catalog *badge.Catalog, lb *leaderboard.Service, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		repo:        repo,
		catalog:     catalog,
		leaderboard: lb,
		statsCache:  cache.NewTTLLRU[earnedStats](4, 30*time.Second),
		logger:      logger,
	}
}

// Register HTTP API 라우트 등록.
func (a *API) Register(mux *http.ServeMux) {
	// GET /health - 헬스체크
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_ = commonhttputil.WriteJSON(w, http.StatusOK, commonhealth.Get())
	})

	// GET /api/gamify/players/{playerId} - 플레이어 요약
	mux.HandleFunc("GET /api/gamify/players/{playerId}", a.handlePlayerSummary)

	// GET /api/gamify/badges - 배지 카탈로그 (획득 여부/획득률 포함)
	mux.HandleFunc("GET /api/gamify/badges", a.handleBadgeCatalog)

	// GET /api/gamify/leaderboards/{period} - 리더보드 스냅샷
	mux.HandleFunc("GET /api/gamify/leaderboards/{period}", a.handleLeaderboard)

	// GET /api/gamify/lottery/draws - 추첨 이력
	mux.HandleFunc("GET /api/gamify/lottery/draws", a.handleLotteryHistory)

	// GET /api/gamify/lottery/players/{playerId} - 플레이어 당첨 이력
	mux.HandleFunc("GET /api/gamify/lottery/players/{playerId}", a.handleLotteryResults)

	a.logger.Info("gamify_http_api_registered")
}

func (a *API) handlePlayerSummary(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimSpace(r.PathValue("playerId"))
	if playerID == "" {
		_ = commonhttputil.WriteErrorJSON(w, http.StatusBadRequest, apiErrorInvalidRequest, "missing playerId")
		return
	}

	state, err := a.repo.GetPlayerState(r.Context(), playerID)
	if err != nil {
		a.logger.Error("PLAYER_SUMMARY_FAILED", "playerId", playerID, "err", err)
		_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, apiErrorInternalError, "lookup failed")
		return
	}
	if state == nil {
		_ = commonhttputil.WriteErrorJSON(w, http.StatusNotFound, apiErrorPlayerNotFound, "player not found")
		return
	}

	earned, err := a.repo.ListEarnedBadges(r.Context(), playerID)
	if err != nil {
		a.logger.Error("PLAYER_BADGES_FAILED", "playerId", playerID, "err", err)
		_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, apiErrorInternalError, "lookup failed")
		return
	}

	ledger, err := a.repo.ListLedger(r.Context(), playerID, recentLedgerLimit)
	if err != nil {
		a.logger.Error("PLAYER_LEDGER_FAILED", "playerId", playerID, "err", err)
		_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, apiErrorInternalError, "lookup failed")
		return
	}

	resp := PlayerSummaryResponse{
		PlayerID:       state.PlayerID,
		Region:         state.Region,
		TotalXP:        state.TotalXP,
		Level:          state.Level,
		XPForNextLevel: reward.XPForNextLevel(state.Level),
		BadgeCount:     state.BadgeCount,
		ShareCount:     state.ShareCount,
		BestDifficulty: state.BestDifficulty,
		BlocksFound:    state.BlocksFound,
		CurrentStreak:  state.CurrentStreak,
		LongestStreak:  state.LongestStreak,
		Badges:         make([]EarnedBadgeDTO, 0, len(earned)),
		RecentXP:       make([]LedgerEntryDTO, 0, len(ledger)),
	}
	for _, b := range earned {
		dto := EarnedBadgeDTO{Slug: b.BadgeSlug, EarnedAt: b.EarnedAt}
		if def, ok := a.catalog.Get(b.BadgeSlug); ok {
			dto.Name = def.Name
			dto.Rarity = def.Rarity
		}
		resp.Badges = append(resp.Badges, dto)
	}
	for _, e := range ledger {
		resp.RecentXP = append(resp.RecentXP, LedgerEntryDTO{
			Amount:    e.Amount,
			Reason:    e.Reason,
			RefID:     e.RefID,
			CreatedAt: e.CreatedAt,
		})
	}

	_ = commonhttputil.WriteJSON(w, http.StatusOK, resp)
}

func (a *API) handleBadgeCatalog(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimSpace(r.URL.Query().Get("playerId"))

	earned := map[string]bool{}
	if playerID != "" {
		var err error
		earned, err = a.repo.ListEarnedSlugs(r.Context(), playerID)
		if err != nil {
			a.logger.Error("CATALOG_EARNED_FAILED", "playerId", playerID, "err", err)
			_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, apiErrorInternalError, "lookup failed")
			return
		}
	}

	stats, ok := a.statsCache.Get(earnedStatsCacheKey)
	if !ok {
		counts, err := a.repo.CountEarnedByBadge(r.Context())
		if err != nil {
			a.logger.Error("CATALOG_COUNTS_FAILED", "err", err)
			_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, apiErrorInternalError, "lookup failed")
			return
		}
		players, err := a.repo.CountPlayers(r.Context())
		if err != nil {
			a.logger.Error("CATALOG_PLAYERS_FAILED", "err", err)
			_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, apiErrorInternalError, "lookup failed")
			return
		}
		stats = earnedStats{counts: counts, players: players}
		a.statsCache.Set(earnedStatsCacheKey, stats)
	}

	resp := BadgeCatalogResponse{Badges: make([]BadgeCatalogEntry, 0, a.catalog.Len())}
	for _, def := range a.catalog.All() {
		entry := BadgeCatalogEntry{
			Slug:     def.Slug,
			Name:     def.Name,
			Category: def.Category,
			Rarity:   def.Rarity,
			XPReward: def.XPReward,
			Earned:   earned[def.Slug],
		}
		if stats.players > 0 {
			entry.EarnedPercent = float64(stats.counts[def.Slug]) / float64(stats.players) * 100
		}
		resp.Badges = append(resp.Badges, entry)
	}

	_ = commonhttputil.WriteJSON(w, http.StatusOK, resp)
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	period := model.LeaderboardPeriod(strings.TrimSpace(r.PathValue("period")))
	switch period {
	case model.PeriodWeekly, model.PeriodMonthly, model.PeriodAllTime, model.PeriodRegion:
	default:
		_ = commonhttputil.WriteErrorJSON(w, http.StatusBadRequest, apiErrorInvalidRequest, "unknown period")
		return
	}

	segment := strings.TrimSpace(r.URL.Query().Get("segment"))
	if period == model.PeriodRegion && segment == "" {
		_ = commonhttputil.WriteErrorJSON(w, http.StatusBadRequest, apiErrorInvalidRequest, "region period needs segment")
		return
	}

	now := time.Now()
	snap, err := a.leaderboard.Current(r.Context(), period, segment, now)
	if err != nil {
		a.logger.Error("LEADERBOARD_READ_FAILED", "period", period, "err", err)
		_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, apiErrorInternalError, "lookup failed")
		return
	}
	if snap == nil {
		_ = commonhttputil.WriteErrorJSON(w, http.StatusNotFound, apiErrorSnapshotMissing, "no snapshot yet")
		return
	}

	resp := LeaderboardResponse{
		Period:     string(snap.Period),
		Segment:    snap.Segment,
		CapturedAt: snap.CapturedAt,
		Entries:    make([]LeaderboardEntry, 0, len(snap.Entries)),
	}
	for _, e := range snap.Entries {
		resp.Entries = append(resp.Entries, LeaderboardEntry{Rank: e.Rank, PlayerID: e.PlayerID, Score: e.Score})
	}

	if playerID := strings.TrimSpace(r.URL.Query().Get("playerId")); playerID != "" {
		rank, err := a.leaderboard.OwnRank(r.Context(), period, segment, playerID, now)
		if err != nil {
			a.logger.Warn("OWN_RANK_FAILED", "period", period, "playerId", playerID, "err", err)
		} else {
			resp.OwnRank = rank
		}
	}

	_ = commonhttputil.WriteJSON(w, http.StatusOK, resp)
}

func (a *API) handleLotteryHistory(w http.ResponseWriter, r *http.Request) {
	draws, err := a.repo.ListDraws(r.Context(), 20)
	if err != nil {
		a.logger.Error("LOTTERY_HISTORY_FAILED", "err", err)
		_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, apiErrorInternalError, "lookup failed")
		return
	}

	resp := LotteryHistoryResponse{Draws: make([]LotteryDrawDTO, 0, len(draws))}
	for _, d := range draws {
		resp.Draws = append(resp.Draws, LotteryDrawDTO{
			Period:           d.PeriodKey,
			TotalTickets:     d.TotalTickets,
			ParticipantCount: d.ParticipantCount,
			DrawnAt:          d.DrawnAt,
		})
	}
	_ = commonhttputil.WriteJSON(w, http.StatusOK, resp)
}

func (a *API) handleLotteryResults(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimSpace(r.PathValue("playerId"))
	if playerID == "" {
		_ = commonhttputil.WriteErrorJSON(w, http.StatusBadRequest, apiErrorInvalidRequest, "missing playerId")
		return
	}

	results, err := a.repo.ResultsForPlayer(r.Context(), playerID, 20)
	if err != nil {
		a.logger.Error("LOTTERY_RESULTS_FAILED", "playerId", playerID, "err", err)
		_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, apiErrorInternalError, "lookup failed")
		return
	}

	resp := LotteryResultsResponse{PlayerID: playerID, Results: make([]LotteryWinDTO, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, LotteryWinDTO{
			Placement:    res.Placement,
			TicketNumber: res.TicketNumber,
			Prize:        res.Prize,
		})
	}
	_ = commonhttputil.WriteJSON(w, http.StatusOK, resp)
}
