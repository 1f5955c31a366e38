package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/optibench/internal/modules/benchmarker"
)

const (
	// How long a single event write may take before the subscriber is dropped.
	publishTimeout = 5 * time.Second

	// Buffered events per subscriber. Slow consumers lose events rather
	// than stalling the benchmark loop.
	subscriberBuffer = 64
)

// Hub fans benchmark progress events out to WebSocket subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan benchmarker.Event]struct{}
	log         zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan benchmarker.Event]struct{}),
		log:         log.With().Str("component", "progress_hub").Logger(),
	}
}

// Sink returns an event sink that publishes to the hub. Pass it to the
// benchmark runner.
func (h *Hub) Sink() benchmarker.EventSink {
	return h.Publish
}

// Publish sends an event to every subscriber. Subscribers with a full
// buffer are skipped.
func (h *Hub) Publish(event benchmarker.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for subscriber := range h.subscribers {
		select {
		case subscriber <- event:
		default:
			h.log.Warn().
				Str("event", string(event.Type)).
				Msg("Dropping event for slow subscriber")
		}
	}
}

// Subscribers reports how many connections are currently listening.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) subscribe() chan benchmarker.Event {
	events := make(chan benchmarker.Event, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[events] = struct{}{}
	h.mu.Unlock()
	return events
}

func (h *Hub) unsubscribe(events chan benchmarker.Event) {
	h.mu.Lock()
	delete(h.subscribers, events)
	h.mu.Unlock()
}

// ServeHTTP upgrades the request to a WebSocket and streams progress
// events as JSON until the client disconnects.
// GET /ws/runs
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	events := h.subscribe()
	defer h.unsubscribe(events)

	h.log.Debug().Msg("Progress subscriber connected")

	// Reads are discarded, but the read loop surfaces client disconnects.
	readCtx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(readCtx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readCtx.Done():
			h.log.Debug().Msg("Progress subscriber disconnected")
			return
		case event := <-events:
			writeCtx, cancelWrite := context.WithTimeout(readCtx, publishTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			cancelWrite()
			if err != nil {
				h.log.Debug().Err(err).Msg("Failed to write progress event")
				return
			}
		}
	}
}
