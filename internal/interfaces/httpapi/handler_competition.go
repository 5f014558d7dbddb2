package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fantasy-contest/internal/usecase"
)

type squadRequest struct {
	Squad []usecase.SlotInput `json:"squad"`
}

func (h *Handler) JoinCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinCompetition")
	defer span.End()

	input, err := h.squadInput(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entry, err := h.competitionService.Join(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "join competition failed", "competition_id", input.CompetitionID, "user_id", input.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, entryToDTO(entry, true))
}

func (h *Handler) UpdateSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateSquad")
	defer span.End()

	input, err := h.squadInput(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entry, err := h.competitionService.UpdateSquad(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "update squad failed", "competition_id", input.CompetitionID, "user_id", input.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryToDTO(entry, true))
}

func (h *Handler) squadInput(r *http.Request) (usecase.JoinInput, error) {
	var req squadRequest
	if err := decodeJSON(r, &req, false); err != nil {
		return usecase.JoinInput{}, err
	}

	userID, _ := userIDFromContext(r.Context())
	return usecase.JoinInput{
		CompetitionID: r.PathValue("competitionID"),
		UserID:        userID,
		Squad:         req.Squad,
	}, nil
}
