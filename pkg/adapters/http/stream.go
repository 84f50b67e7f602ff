package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/canvass/internal/logging"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // session key -> set of channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for key. The returned function removes and closes it.
func (sm *StreamManager) Subscribe(key string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[key]; !ok {
		sm.subscribers[key] = make(map[chan string]struct{})
	}
	sm.subscribers[key][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[key]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, key)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of key without blocking.
func (sm *StreamManager) Broadcast(key string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[key] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "session", key)
		}
	}
}

// Count returns the number of subscribers of key.
func (sm *StreamManager) Count(key string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[key])
}

// CloseAll closes every open stream.
func (sm *StreamManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for key, subs := range sm.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(sm.subscribers, key)
	}
}

// SubscribeEvents handles GET /{survey}/{session}/events (SSE).
// The optional "watch" query parameter filters diffs by field: cursor, status, answers, skipped.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	surveyID := chi.URLParam(r, "survey")
	if _, err := s.Engine.Catalog().Survey(surveyID); err != nil {
		s.writeError(w, r, nil, err)
		return
	}
	key := domain.SessionKey{SurveyID: surveyID, SessionID: chi.URLParam(r, "session")}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			watch = append(watch, strings.TrimSpace(f))
		}
	}

	ch, cancel := s.Streams.Subscribe(key.String())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.logger.Debug("SSE: client subscribed", "survey_id", key.SurveyID, "session_id", key.SessionID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "survey_id", key.SurveyID, "session_id", key.SessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !matchesWatch(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func matchesWatch(msg string, watch []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch field {
		case "cursor":
			if diff.Cursor != nil {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		case "answers":
			if len(diff.Answered) > 0 {
				return true
			}
		case "skipped":
			if len(diff.Skipped) > 0 {
				return true
			}
		}
	}
	return false
}
