package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/optibench/internal/config"
	"github.com/aristath/optibench/internal/modules/benchmarker"
	"github.com/aristath/optibench/internal/modules/results"
	testhelpers "github.com/aristath/optibench/internal/testing"
)

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()

	dataDir := t.TempDir()
	cfg := &config.Config{DataDir: dataDir}

	db, cleanup := testhelpers.NewTestDB(t, "catalog")
	t.Cleanup(cleanup)

	catalog, err := results.NewCatalog(testhelpers.GetRawConnection(db), zerolog.Nop())
	require.NoError(t, err)

	return New(Config{
		Log:     zerolog.Nop(),
		Config:  cfg,
		Catalog: catalog,
		Hub:     NewHub(zerolog.Nop()),
		Port:    0,
	}), cfg
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)

	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "optibench", body["service"])
}

func TestHandleResultsMissingIndex(t *testing.T) {
	s, _ := newTestServer(t)

	request := httptest.NewRequest(http.MethodGet, "/api/results", nil)
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHandleResultsServesIndexFile(t *testing.T) {
	s, cfg := newTestServer(t)

	index := results.NewIndex()
	require.NoError(t, index.ToFile(cfg.ResultsPath()))

	request := httptest.NewRequest(http.MethodGet, "/api/results", nil)
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
}

func TestHandleListRuns(t *testing.T) {
	s, _ := newTestServer(t)

	require.NoError(t, s.catalog.Save(results.Run{
		ID:            "run-1",
		Configuration: "SLSQP",
		Problem:       "Rosenbrock",
		StartedAt:     time.Now(),
		Feasible:      true,
	}))
	require.NoError(t, s.catalog.Save(results.Run{
		ID:            "run-2",
		Configuration: "COBYLA",
		Problem:       "Rosenbrock",
		StartedAt:     time.Now(),
	}))

	request := httptest.NewRequest(http.MethodGet, "/api/runs/", nil)
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var runs []results.Run
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &runs))
	assert.Len(t, runs, 2)

	// Filter by configuration
	request = httptest.NewRequest(http.MethodGet, "/api/runs/?configuration=SLSQP", nil)
	recorder = httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}

func TestHandleRunsSummary(t *testing.T) {
	s, _ := newTestServer(t)

	require.NoError(t, s.catalog.Save(results.Run{
		ID:               "run-1",
		Configuration:    "SLSQP",
		Problem:          "Rosenbrock",
		StartedAt:        time.Now(),
		ExecutionSeconds: 2,
		Feasible:         true,
	}))

	request := httptest.NewRequest(http.MethodGet, "/api/runs/summary", nil)
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var summary []results.RunSummary
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &summary))
	require.Len(t, summary, 1)
	assert.Equal(t, "SLSQP", summary[0].Configuration)
	assert.Equal(t, 1, summary[0].Runs)
}

func TestHandleStartRunWithoutScenario(t *testing.T) {
	s, _ := newTestServer(t)

	request := httptest.NewRequest(http.MethodPost, "/api/runs/", strings.NewReader(`{"overwrite":true}`))
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestRunGuardRejectsConcurrentRuns(t *testing.T) {
	guard := newRunGuard()

	require.True(t, guard.tryAcquire())
	assert.False(t, guard.tryAcquire())

	guard.release()
	assert.True(t, guard.tryAcquire())
}

func TestReportStaticFiles(t *testing.T) {
	s, cfg := newTestServer(t)

	require.NoError(t, os.MkdirAll(cfg.ReportDir(), 0o755))
	page := filepath.Join(cfg.ReportDir(), "index.rst")
	require.NoError(t, os.WriteFile(page, []byte("Benchmarking report\n"), 0o644))

	request := httptest.NewRequest(http.MethodGet, "/report/index.rst", nil)
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Benchmarking report")
}

func TestHubBroadcastsToWebSocketClients(t *testing.T) {
	s, _ := newTestServer(t)

	httpServer := httptest.NewServer(s.Router())
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws/runs"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Wait for the subscription to register before publishing.
	require.Eventually(t, func() bool {
		return s.hub.Subscribers() == 1
	}, time.Second, 10*time.Millisecond)

	sink := s.hub.Sink()
	sink(benchmarker.Event{
		Type:          benchmarker.EventRunStarted,
		Configuration: "SLSQP",
		Timestamp:     time.Now(),
	})

	var event benchmarker.Event
	require.NoError(t, wsjson.Read(ctx, conn, &event))
	assert.Equal(t, benchmarker.EventRunStarted, event.Type)
	assert.Equal(t, "SLSQP", event.Configuration)
}

func TestHubDropsEventsForSlowSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	events := hub.subscribe()
	defer hub.unsubscribe(events)

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish(benchmarker.Event{Type: benchmarker.EventInstanceFinished})
	}

	// The buffer is full but Publish never blocked.
	assert.Len(t, events, subscriberBuffer)
}
