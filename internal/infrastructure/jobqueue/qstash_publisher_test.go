package jobqueue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/platform/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueSendsQStashHeaders(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotDedup, gotDelay, gotForward, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotDedup = r.Header.Get("Upstash-Deduplication-Id")
		gotDelay = r.Header.Get("Upstash-Delay")
		gotForward = r.Header.Get("Upstash-Forward-X-Internal-Job-Token")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          srv.URL,
		Token:            "qs-token",
		TargetBaseURL:    "https://contest.example.com",
		InternalJobToken: "job-secret",
	}, nil)

	err := p.Enqueue(context.Background(), "v1/internal/jobs/settle", map[string]any{"competition_id": "cmp-1"}, 1500*time.Millisecond, " settle-cmp-1 ")
	require.NoError(t, err)

	assert.Equal(t, "/v2/publish/https://contest.example.com/v1/internal/jobs/settle", gotPath)
	assert.Equal(t, "Bearer qs-token", gotAuth)
	assert.Equal(t, "settle-cmp-1", gotDedup)
	assert.Equal(t, "2s", gotDelay)
	assert.Equal(t, "job-secret", gotForward)
	assert.JSONEq(t, `{"competition_id":"cmp-1"}`, gotBody)
}

func TestEnqueueRejectsBadConfiguration(t *testing.T) {
	t.Parallel()

	p := NewQStashPublisher(QStashPublisherConfig{BaseURL: "ftp://qstash", TargetBaseURL: "https://contest.example.com"}, nil)
	err := p.Enqueue(context.Background(), "/v1/internal/jobs/settle", nil, 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QSTASH_BASE_URL")

	err = p.Enqueue(context.Background(), "  ", nil, 0, "")
	require.Error(t, err)
}

func TestEnqueueOpensCircuitOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       srv.URL,
		TargetBaseURL: "https://contest.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, nil)

	for i := 0; i < 2; i++ {
		err := p.Enqueue(context.Background(), "/v1/internal/jobs/settle", nil, 0, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errTransient))
	}

	err := p.Enqueue(context.Background(), "/v1/internal/jobs/settle", nil, 0, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientErrorsDoNotTripCircuit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:        srv.URL,
		TargetBaseURL:  "https://contest.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	}, nil)

	for i := 0; i < 3; i++ {
		err := p.Enqueue(context.Background(), "/v1/internal/jobs/settle", nil, 0, "")
		require.Error(t, err)
		assert.False(t, errors.Is(err, resilience.ErrCircuitOpen))
	}
}

func TestCurlPreviewMasksSecrets(t *testing.T) {
	t.Parallel()

	got := curlPreview("https://qstash.example/v2/publish/x", "/v1/internal/jobs/settle", "5s", 3, "d-1", `{"a":"it's"}`, true)
	assert.Contains(t, got, "Bearer ***")
	assert.Contains(t, got, "Upstash-Forward-X-Internal-Job-Token: ***")
	assert.Contains(t, got, "Upstash-Retries: 3")
	assert.True(t, strings.HasPrefix(got, "curl -X POST "))
	assert.Contains(t, got, `'{"a":"it'"'"'s"}'`)
}
