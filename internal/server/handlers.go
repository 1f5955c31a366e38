package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/optibench/internal/modules/benchmarker"
)

// runGuard serialises benchmark runs launched through the API. A second
// POST while a run is in flight is rejected instead of queued.
type runGuard struct {
	mu      sync.Mutex
	running bool
}

func newRunGuard() *runGuard {
	return &runGuard{}
}

// tryAcquire marks a run as in flight. It returns false when one already is.
func (g *runGuard) tryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	return true
}

func (g *runGuard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = false
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "optibench",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystem reports the host the benchmarks run on together with the
// current CPU and memory load.
// GET /api/system
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	environment := benchmarker.CaptureEnvironment()

	// 100ms sampling window keeps the endpoint responsive
	cpuAvg := 0.0
	if percentages, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percentages) > 0 {
		cpuAvg = percentages[0]
	} else if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read CPU usage")
	}

	memUsed := 0.0
	if memory, err := mem.VirtualMemory(); err == nil {
		memUsed = memory.UsedPercent
	} else {
		s.log.Warn().Err(err).Msg("Failed to read memory usage")
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"environment":    environment,
		"fingerprint":    environment.Fingerprint(),
		"cpu_percent":    cpuAvg,
		"memory_percent": memUsed,
	})
}

// handleResults serves the results index file as-is.
// GET /api/results
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil {
		s.writeError(w, http.StatusServiceUnavailable, "results are not available")
		return
	}

	data, err := os.ReadFile(s.cfg.ResultsPath())
	if err != nil {
		if os.IsNotExist(err) {
			s.writeError(w, http.StatusNotFound, "no results have been produced yet")
			return
		}
		s.log.Error().Err(err).Msg("Failed to read results index")
		s.writeError(w, http.StatusInternalServerError, "failed to read results index")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write results response")
	}
}

// handleListRuns lists recorded runs, optionally filtered by configuration.
// GET /api/runs?configuration=<name>
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.writeError(w, http.StatusServiceUnavailable, "the run catalog is not available")
		return
	}

	var err error
	var runs interface{}
	if configuration := r.URL.Query().Get("configuration"); configuration != "" {
		runs, err = s.catalog.ByConfiguration(configuration)
	} else {
		runs, err = s.catalog.List()
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list runs")
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	s.writeJSON(w, http.StatusOK, runs)
}

// handleRunsSummary aggregates the catalog per algorithm configuration.
// GET /api/runs/summary
func (s *Server) handleRunsSummary(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.writeError(w, http.StatusServiceUnavailable, "the run catalog is not available")
		return
	}

	summary, err := s.catalog.Summary()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to summarise runs")
		s.writeError(w, http.StatusInternalServerError, "failed to summarise runs")
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// handleStartRun launches the configured scenario in the background.
// Only one run at a time is allowed.
// POST /api/runs
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no scenario is configured")
		return
	}

	var request struct {
		Overwrite bool `json:"overwrite"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if !s.runGuard.tryAcquire() {
		s.writeError(w, http.StatusConflict, "a benchmark run is already in progress")
		return
	}

	go func() {
		defer s.runGuard.release()
		if err := s.orchestrator.Run(context.Background(), request.Overwrite); err != nil {
			s.log.Error().Err(err).Msg("Benchmark run failed")
			return
		}
		s.log.Info().Msg("Benchmark run finished")
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":    "started",
		"overwrite": request.Overwrite,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}
