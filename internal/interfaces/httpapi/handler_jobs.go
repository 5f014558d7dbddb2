package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fantasy-contest/internal/usecase"
)

type settlementSweepRequest struct {
	CompetitionID string `json:"competition_id"`
	Direct        bool   `json:"direct"`
}

type settleJobRequest struct {
	CompetitionID string `json:"competition_id" validate:"required"`
	DispatchID    string `json:"dispatch_id"`
}

// RunSettlementSweep is called by the external scheduler. An empty body
// sweeps every due competition.
func (h *Handler) RunSettlementSweep(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSettlementSweep")
	defer span.End()

	var req settlementSweepRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobOrchestrator.RunSettlementSweep(ctx, usecase.SweepInput{
		CompetitionID: req.CompetitionID,
		Direct:        req.Direct,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "settlement sweep failed", "competition_id", req.CompetitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// SettleCompetitionJob is the queue delivery target of one enqueued
// settlement.
func (h *Handler) SettleCompetitionJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SettleCompetitionJob")
	defer span.End()

	var req settleJobRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobOrchestrator.SettleCompetitionJob(ctx, usecase.SettleJobInput{
		CompetitionID: req.CompetitionID,
		DispatchID:    req.DispatchID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "settle competition job failed", "competition_id", req.CompetitionID, "dispatch_id", req.DispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, settlementResultToDTO(result))
}
