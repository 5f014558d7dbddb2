package httpapi

import (
	"net/http"
)

func (h *Handler) LockCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LockCompetition")
	defer span.End()

	competitionID := r.PathValue("competitionID")
	item, err := h.competitionService.LockCompetition(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "lock competition failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(item, 0))
}

func (h *Handler) SettleCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SettleCompetition")
	defer span.End()

	competitionID := r.PathValue("competitionID")
	result, err := h.settlementService.TriggerSettlement(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "settle competition failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, settlementResultToDTO(result))
}

func (h *Handler) GetSettlementView(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSettlementView")
	defer span.End()

	competitionID := r.PathValue("competitionID")
	view, err := h.competitionService.GetSettlementView(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get settlement view failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, settlementViewToDTO(view))
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWallet")
	defer span.End()

	userID := r.PathValue("userID")
	statement, err := h.walletService.GetStatement(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "get wallet failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, walletToDTO(statement))
}

func (h *Handler) ListDispatchEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDispatchEvents")
	defer span.End()

	competitionID := r.PathValue("competitionID")
	events, err := h.jobDispatchRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list dispatch events failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]dispatchEventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, dispatchEventToDTO(event))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
