package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipanski/flycheap/internal/domain"
	"github.com/lipanski/flycheap/internal/handler"
)

// mockStatus is a test double for handler.StatusProvider.
type mockStatus struct {
	status func() domain.WatchStatus
}

func (m *mockStatus) Status() domain.WatchStatus { return m.status() }

// compile-time check: mockStatus must satisfy handler.StatusProvider.
var _ handler.StatusProvider = (*mockStatus)(nil)

// ---- helpers ---------------------------------------------------------------

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// ---- GET /status -----------------------------------------------------------

func TestGetStatus_beforeFirstRound(t *testing.T) {
	next := time.Date(2016, 3, 1, 12, 0, 0, 0, time.UTC)
	status := &mockStatus{status: func() domain.WatchStatus {
		return domain.WatchStatus{
			RequestsPerDay: 8, RequestsPerRound: 2, RoundsPerDay: 4,
			Interval: "6h0m0s", NextRunAt: next,
		}
	}}
	h := handler.NewServer(status, nil, nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.EqualValues(t, 8, body["requests_per_day"])
	assert.EqualValues(t, 2, body["requests_per_round"])
	assert.EqualValues(t, 4, body["rounds_per_day"])
	assert.Equal(t, "6h0m0s", body["interval"])
	assert.Equal(t, "2016-03-01T12:00:00Z", body["next_run_at"])
	assert.Nil(t, body["last_round"])
}

func TestGetStatus_withLastRound(t *testing.T) {
	round := domain.RoundSummary{
		ID:         uuid.New(),
		StartedAt:  time.Date(2016, 3, 1, 6, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2016, 3, 1, 6, 0, 3, 0, time.UTC),
		Requests:   2, Failed: 1, Offers: 4, Skipped: 1,
	}
	status := &mockStatus{status: func() domain.WatchStatus {
		return domain.WatchStatus{LastRound: &round}
	}}
	h := handler.NewServer(status, nil, nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body domain.WatchStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.LastRound)
	assert.Equal(t, round.ID, body.LastRound.ID)
	assert.Equal(t, 1, body.LastRound.Failed)
	assert.Equal(t, 4, body.LastRound.Offers)
	assert.True(t, round.FinishedAt.Equal(body.LastRound.FinishedAt))
}

// ---- GET /openapi.yaml -----------------------------------------------------

func TestGetOpenAPI_servesDocument(t *testing.T) {
	doc := []byte("openapi: 3.0.3\n")
	h := handler.NewServer(&mockStatus{}, nil, doc).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Equal(t, doc, rec.Body.Bytes())
}

// ---- routing ---------------------------------------------------------------

func TestRouter_unknownPath(t *testing.T) {
	h := handler.NewServer(&mockStatus{}, nil, nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error.Code)
}

func TestRouter_writeMethod(t *testing.T) {
	h := handler.NewServer(&mockStatus{}, nil, nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", decodeError(t, rec).Error.Code)
}
