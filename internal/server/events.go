package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lazypower/takenote/internal/store"
)

const heartbeatInterval = 30 * time.Second

// handleEvents streams one server-sent event per committed change so the
// editor can re-query the views it shows. ?table= narrows the stream and
// may repeat.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var tables []store.Table
	for _, name := range r.URL.Query()["table"] {
		tables = append(tables, store.Table(name))
	}
	changes, cancel := s.db.Subscribe(tables...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: ready\ndata: {\"version\":%d}\n\n", s.db.Version())
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case c, ok := <-changes:
			if !ok {
				return
			}
			data, err := json.Marshal(c)
			if err != nil {
				s.log.Error().Err(err).Msg("encode change event")
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: change\ndata: %s\n\n", c.Version, data)
			flusher.Flush()
		}
	}
}
