package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/fantasy-contest/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
	"github.com/riskibarqy/fantasy-contest/internal/usecase"
)

type Handler struct {
	competitionService *usecase.CompetitionService
	settlementService  *usecase.SettlementService
	statisticsService  *usecase.StatisticsService
	walletService      *usecase.WalletService
	jobOrchestrator    *usecase.JobOrchestratorService
	jobDispatchRepo    jobscheduler.Repository
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	competitionService *usecase.CompetitionService,
	settlementService *usecase.SettlementService,
	statisticsService *usecase.StatisticsService,
	walletService *usecase.WalletService,
	jobOrchestrator *usecase.JobOrchestratorService,
	jobDispatchRepo jobscheduler.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		competitionService: competitionService,
		settlementService:  settlementService,
		statisticsService:  statisticsService,
		walletService:      walletService,
		jobOrchestrator:    jobOrchestrator,
		jobDispatchRepo:    jobDispatchRepo,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// decodeJSON rejects unknown fields. An empty body leaves out untouched
// when allowEmpty is set.
func decodeJSON(r *http.Request, out any, allowEmpty bool) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(out); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
