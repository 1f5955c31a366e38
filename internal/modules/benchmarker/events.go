package benchmarker

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies the progress events emitted during a benchmark.
type EventType string

const (
	// EventRunStarted marks the start of a benchmark execution.
	EventRunStarted EventType = "run_started"
	// EventInstanceFinished marks the completion of one problem instance.
	EventInstanceFinished EventType = "instance_finished"
	// EventInstanceSkipped marks a problem instance already present in the
	// results index.
	EventInstanceSkipped EventType = "instance_skipped"
	// EventRunFinished marks the end of a benchmark execution.
	EventRunFinished EventType = "run_finished"
)

// Event is a progress notification of a benchmark execution.
type Event struct {
	Type          EventType `json:"type"`
	RunID         uuid.UUID `json:"run_id"`
	Configuration string    `json:"configuration,omitempty"`
	Problem       string    `json:"problem,omitempty"`
	Instance      int       `json:"instance,omitempty"`
	HistoryPath   string    `json:"history_path,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventSink receives benchmark progress events. Implementations must not
// block: the runner calls them inline between problem instances.
type EventSink func(event Event)
