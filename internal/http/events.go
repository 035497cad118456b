package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// handleEvents streams ledger change events over Server-Sent Events. Clients
// treat any event as a hint to re-fetch; the stream carries topics and touched
// account ids, never entity payloads.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream not available")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := s.notifier.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	slog.InfoContext(r.Context(), "Event stream opened")

	for {
		select {
		case <-r.Context().Done():
			slog.InfoContext(r.Context(), "Event stream closed")
			return
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(struct {
				Topic      string   `json:"topic"`
				AccountIDs []string `json:"account_ids,omitempty"`
			}{string(event.Topic), event.AccountIDs})
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("event: change\ndata: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
