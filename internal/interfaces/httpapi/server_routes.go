package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerUserRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("POST /v1/competitions/{competitionID}/entries", RequireUser(http.HandlerFunc(handler.JoinCompetition)))
	mux.Handle("PUT /v1/competitions/{competitionID}/entries/me/squad", RequireUser(http.HandlerFunc(handler.UpdateSquad)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("POST /v1/admin/competitions/{competitionID}/lock", RequireAdminToken(adminToken, http.HandlerFunc(handler.LockCompetition)))
	mux.Handle("POST /v1/admin/competitions/{competitionID}/settle", RequireAdminToken(adminToken, http.HandlerFunc(handler.SettleCompetition)))
	mux.Handle("GET /v1/admin/competitions/{competitionID}/settlement", RequireAdminToken(adminToken, http.HandlerFunc(handler.GetSettlementView)))
	mux.Handle("GET /v1/admin/competitions/{competitionID}/dispatches", RequireAdminToken(adminToken, http.HandlerFunc(handler.ListDispatchEvents)))
	mux.Handle("GET /v1/admin/users/{userID}/wallet", RequireAdminToken(adminToken, http.HandlerFunc(handler.GetWallet)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/settlement-sweep", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSettlementSweep)))
	mux.Handle("POST /v1/internal/jobs/settle", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SettleCompetitionJob)))
}

func registerIngestionRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/ingestion/fixtures", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestFixtures)))
	mux.Handle("POST /v1/internal/ingestion/statistics", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestStatistics)))
}
