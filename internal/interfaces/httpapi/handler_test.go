package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-contest/internal/platform/id"
	"github.com/riskibarqy/fantasy-contest/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdminToken = "admin-secret"
	testJobToken   = "job-secret"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	ctx := context.Background()
	wallets := memory.NewWalletRepository()
	competitions := memory.NewCompetitionRepository(wallets)
	fixtures := memory.NewFixtureRepository(nil)
	stats := memory.NewMatchStatRepository(nil)
	dispatches := memory.NewJobDispatchRepository()
	notifications := memory.NewNotificationRecorder(nil)
	require.NoError(t, memory.Seed(ctx, competitions, fixtures, stats))

	compService := usecase.NewCompetitionService(competitions, fixtures, id.NewSequence("entry"), nil)
	distributor := usecase.NewPrizeDistributor(competitions, notifications, usecase.PrizeDistributorConfig{CurrencyScale: 2}, nil)
	settlementService := usecase.NewSettlementService(
		competitions,
		stats,
		memory.NewRulesRepository(),
		memory.NewSettlementLocker(),
		compService,
		distributor,
		id.NewSequence("run"),
		usecase.SettlementConfig{LockTTL: time.Minute},
		nil,
	)
	jobs := usecase.NewJobOrchestratorService(competitions, compService, settlementService, nil, dispatches, usecase.JobOrchestratorConfig{Workers: 2}, nil)

	handler := NewHandler(
		compService,
		settlementService,
		usecase.NewStatisticsService(stats, fixtures, nil),
		usecase.NewWalletService(wallets),
		jobs,
		dispatches,
		nil,
	)
	return NewRouter(handler, nil, RouterConfig{
		AdminToken:       testAdminToken,
		InternalJobToken: testJobToken,
	})
}

func doRequest(t *testing.T, router http.Handler, method, path string, headers map[string]string, body string) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out), "body=%s", rec.Body.String())
	return rec.Code, out
}

func dataOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data object, got %#v", body)
	return data
}

func finishSeedFixtures(t *testing.T, router http.Handler) {
	t.Helper()

	status, body := doRequest(t, router, http.MethodPost, "/v1/internal/ingestion/fixtures",
		map[string]string{headerInternalJobToken: testJobToken},
		`{"fixtures":[{"id":"fx-persija-persib","status":"FT"},{"id":"fx-bali-persebaya","status":"FINISHED"}]}`,
	)
	require.Equal(t, http.StatusOK, status, "body=%#v", body)
	assert.EqualValues(t, 2, dataOf(t, body)["frozen"])
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	status, body := doRequest(t, newTestRouter(t), http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", dataOf(t, body)["status"])
}

func TestRouter_JoinCompetition(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	path := "/v1/competitions/" + memory.CompetitionIDDemoCup + "/entries"
	squad := `{"squad":[{"main_player_id":"idn-fwd-01","main_fixture_id":"fx-persija-persib","substitute_player_id":"idn-gk-01","substitute_fixture_id":"fx-persija-persib","star_rating":"2"}]}`

	status, _ := doRequest(t, router, http.MethodPost, path, nil, squad)
	require.Equal(t, http.StatusUnauthorized, status)

	user := map[string]string{headerUserID: "user-citra"}
	status, body := doRequest(t, router, http.MethodPost, path, user, squad)
	require.Equal(t, http.StatusCreated, status, "body=%#v", body)
	entry := dataOf(t, body)
	assert.Equal(t, "user-citra", entry["user_id"])
	assert.Equal(t, memory.CompetitionIDDemoCup, entry["competition_id"])

	status, _ = doRequest(t, router, http.MethodPost, path, user, squad)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, router, http.MethodPost, path, map[string]string{headerUserID: "user-dewi"}, `{"squad":[],"extra":true}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_UpdateSquadRejectsForeignFixture(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	status, body := doRequest(t, router, http.MethodPut,
		"/v1/competitions/"+memory.CompetitionIDDemoCup+"/entries/me/squad",
		map[string]string{headerUserID: "user-andi"},
		`{"squad":[{"main_player_id":"idn-fwd-01","main_fixture_id":"fx-unknown","substitute_player_id":"idn-gk-01","substitute_fixture_id":"fx-persija-persib","star_rating":"1"}]}`,
	)
	require.Equal(t, http.StatusBadRequest, status)
	errorObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INVALID_ARGUMENT", errorObj["status"])
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	path := "/v1/admin/competitions/" + memory.CompetitionIDDemoPeer + "/settle"

	status, _ := doRequest(t, router, http.MethodPost, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, router, http.MethodPost, path, map[string]string{headerAdminToken: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, router, http.MethodPost, "/v1/internal/jobs/settlement-sweep", map[string]string{headerAdminToken: testAdminToken}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_SettleCompetitionPaysOnce(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	admin := map[string]string{headerAdminToken: testAdminToken}
	finishSeedFixtures(t, router)

	settlePath := "/v1/admin/competitions/" + memory.CompetitionIDDemoPeer + "/settle"
	status, body := doRequest(t, router, http.MethodPost, settlePath, admin, "")
	require.Equal(t, http.StatusOK, status, "body=%#v", body)
	result := dataOf(t, body)
	assert.Equal(t, "finished", result["outcome"])
	assert.Equal(t, "4500", result["distributed"])
	assert.EqualValues(t, 1, result["winners"])

	status, body = doRequest(t, router, http.MethodPost, settlePath, admin, "")
	require.Equal(t, http.StatusOK, status)
	result = dataOf(t, body)
	assert.Equal(t, "skipped", result["outcome"])
	assert.Equal(t, "already_settled", result["reason"])

	status, body = doRequest(t, router, http.MethodGet, "/v1/admin/users/user-budi/wallet", admin, "")
	require.Equal(t, http.StatusOK, status)
	walletBody := dataOf(t, body)
	assert.Equal(t, "4500", walletBody["balance"])
	credits, ok := walletBody["credits"].([]any)
	require.True(t, ok)
	require.Len(t, credits, 1)

	status, body = doRequest(t, router, http.MethodGet, "/v1/admin/competitions/"+memory.CompetitionIDDemoPeer+"/settlement", admin, "")
	require.Equal(t, http.StatusOK, status)
	view := dataOf(t, body)
	assert.Equal(t, "finished", view["competition"].(map[string]any)["status"])
	entries, ok := view["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	assert.Equal(t, "user-budi", first["user_id"])
	assert.Equal(t, "36", first["score"])
}

func TestRouter_IngestStatisticsAfterFreezeIsSkipped(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	finishSeedFixtures(t, router)

	status, body := doRequest(t, router, http.MethodPost, "/v1/internal/ingestion/statistics",
		map[string]string{headerInternalJobToken: testJobToken},
		`{"statistics":[{"player_id":"idn-fwd-01","fixture_id":"fx-persija-persib","position":"FWD","values":{"minutes_played":90,"goals":5}}]}`,
	)
	require.Equal(t, http.StatusOK, status, "body=%#v", body)
	result := dataOf(t, body)
	assert.EqualValues(t, 1, result["received"])
	assert.EqualValues(t, 0, result["applied"])
	assert.EqualValues(t, 1, result["skipped"])
}

func TestRouter_SettlementSweepDirect(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	finishSeedFixtures(t, router)

	status, body := doRequest(t, router, http.MethodPost, "/v1/internal/jobs/settlement-sweep",
		map[string]string{headerInternalJobToken: testJobToken}, "")
	require.Equal(t, http.StatusOK, status, "body=%#v", body)
	result := dataOf(t, body)
	assert.Equal(t, "direct", result["mode"])
	assert.EqualValues(t, 2, result["settled"])

	status, body = doRequest(t, router, http.MethodGet,
		"/v1/admin/competitions/"+memory.CompetitionIDDemoPeer+"/dispatches",
		map[string]string{headerAdminToken: testAdminToken}, "")
	require.Equal(t, http.StatusOK, status)
	events, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
	event := events[0].(map[string]any)
	assert.Equal(t, "settle", event["job_name"])
	assert.Equal(t, "completed", event["status"])
}

func TestRouter_LockCompetitionRejectsFinished(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	admin := map[string]string{headerAdminToken: testAdminToken}
	finishSeedFixtures(t, router)

	status, _ := doRequest(t, router, http.MethodPost, "/v1/admin/competitions/"+memory.CompetitionIDDemoCup+"/settle", admin, "")
	require.Equal(t, http.StatusOK, status)

	status, body := doRequest(t, router, http.MethodPost, "/v1/admin/competitions/"+memory.CompetitionIDDemoCup+"/lock", admin, "")
	require.Equal(t, http.StatusConflict, status, "body=%#v", body)

	status, _ = doRequest(t, router, http.MethodPost, "/v1/admin/competitions/cmp-missing/lock", admin, "")
	assert.Equal(t, http.StatusNotFound, status)
}
