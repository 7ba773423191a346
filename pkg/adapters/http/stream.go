package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/tower/pkg/domain"
)

// allColumns is the subscription key that receives every column's events.
const allColumns = ""

// Message is one SSE frame: the event type and its JSON payload.
type Message struct {
	Event string
	Data  []byte
}

// StreamManager fans solve events out to SSE subscribers, keyed by column name.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
	logger      *slog.Logger
}

type subscriber struct {
	ch    chan Message
	types map[string]bool // nil accepts every event type
}

func (s *subscriber) wants(event string) bool {
	return s.types == nil || s.types[event]
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[*subscriber]struct{}),
		logger:      slog.Default(),
	}
}

// Subscribe registers a buffered channel for column. An empty column receives everything,
// and types, when given, restricts the event types delivered.
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(column string, types ...string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sub := &subscriber{ch: make(chan Message, 64)}
	if len(types) > 0 {
		sub.types = make(map[string]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}
	if _, ok := sm.subscribers[column]; !ok {
		sm.subscribers[column] = make(map[*subscriber]struct{})
	}
	sm.subscribers[column][sub] = struct{}{}

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[column]; ok {
				delete(subs, sub)
				close(sub.ch)
				if len(subs) == 0 {
					delete(sm.subscribers, column)
				}
			}
		})
	}
}

// Subscribers reports how many channels listen on column.
func (sm *StreamManager) Subscribers(column string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[column])
}

// Broadcast sends an event to the column's subscribers and to the catch-all ones.
// Slow subscribers lose messages rather than block the solver.
func (sm *StreamManager) Broadcast(column, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		sm.logger.Warn("SSE: event encode failed", "event", event, "err", err)
		return
	}
	msg := Message{Event: event, Data: data}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	keys := []string{column}
	if column != allColumns {
		keys = append(keys, allColumns)
	}
	for _, key := range keys {
		for sub := range sm.subscribers[key] {
			if !sub.wants(event) {
				continue
			}
			select {
			case sub.ch <- msg:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping message", "column", column, "event", event)
			}
		}
	}
}

// Hooks broadcasts every lifecycle event. Install them on the engine.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSolveStart: func(e *domain.SolveEvent) {
			sm.Broadcast(e.Column, string(e.Type), e)
		},
		OnIteration: func(e *domain.IterationEvent) {
			sm.Broadcast(e.Column, string(e.Type), e)
		},
		OnStageFallback: func(e *domain.StageEvent) {
			sm.Broadcast(e.Column, string(e.Type), e)
		},
		OnSolveEnd: func(e *domain.SolveEvent) {
			sm.Broadcast(e.Column, string(e.Type), e)
		},
	}
}

// SubscribeEvents handles GET /events (SSE).
// column narrows the stream to one column; types is a comma list of event types.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var types []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			types = append(types, strings.TrimSpace(t))
		}
	}

	column := r.URL.Query().Get("column")
	ch, cancel := s.Streams.Subscribe(column, types...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Info("SSE: subscribed", "column", column)

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: client disconnected", "column", column)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}
