package httpapi

import (
	"net/http"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/fixture"
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
)

type statisticRequest struct {
	PlayerID  string           `json:"player_id" validate:"required"`
	FixtureID string           `json:"fixture_id" validate:"required"`
	Position  string           `json:"position" validate:"required,oneof=GK DEF MID FWD"`
	Values    map[string]int64 `json:"values"`
}

type statisticsIngestRequest struct {
	Statistics []statisticRequest `json:"statistics" validate:"required,min=1,dive"`
}

type fixtureRequest struct {
	ID        string    `json:"id" validate:"required"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	KickoffAt time.Time `json:"kickoff_at"`
	Status    string    `json:"status"`
}

type fixturesIngestRequest struct {
	Fixtures []fixtureRequest `json:"fixtures" validate:"required,min=1,dive"`
}

func (h *Handler) IngestStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestStatistics")
	defer span.End()

	var req statisticsIngestRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]matchstat.Statistic, 0, len(req.Statistics))
	for _, stat := range req.Statistics {
		values := make(map[matchstat.StatType]int64, len(stat.Values))
		for key, value := range stat.Values {
			values[matchstat.StatType(key)] = value
		}
		items = append(items, matchstat.Statistic{
			PlayerID:  stat.PlayerID,
			FixtureID: stat.FixtureID,
			Position:  matchstat.Position(stat.Position),
			Values:    values,
		})
	}

	result, err := h.statisticsService.UpsertStatistics(ctx, items)
	if err != nil {
		h.logger.WarnContext(ctx, "ingest statistics failed", "count", len(items), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) IngestFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestFixtures")
	defer span.End()

	var req fixturesIngestRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]fixture.Fixture, 0, len(req.Fixtures))
	for _, item := range req.Fixtures {
		items = append(items, fixture.Fixture{
			ID:        item.ID,
			HomeTeam:  item.HomeTeam,
			AwayTeam:  item.AwayTeam,
			KickoffAt: item.KickoffAt,
			Status:    item.Status,
		})
	}

	result, err := h.statisticsService.UpsertFixtures(ctx, items)
	if err != nil {
		h.logger.WarnContext(ctx, "ingest fixtures failed", "count", len(items), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
