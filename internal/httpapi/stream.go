package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// streamHeartbeat keeps idle connections alive through proxies that
// close quiet streams.
const streamHeartbeat = 25 * time.Second

// Stream serves marketplace lifecycle events over Server-Sent Events.
// Each notification goes out as a named event (event: rent_paid) with a
// JSON payload, so browser clients can addEventListener per lifecycle
// stage instead of demultiplexing onmessage.
func (a *API) Stream(w http.ResponseWriter, r *http.Request) {
	if a.stream == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := a.stream.Subscribe(ctx)

	_, _ = io.WriteString(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case ev, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		case <-heartbeat.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// recentEvents replays the newest archived events for operators. The
// endpoint answers 503 when the service runs without a Postgres archive.
func (a *API) recentEvents(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		writeError(w, r, http.StatusServiceUnavailable, "event archive disabled")
		return
	}
	if _, ok := caller(w, r); !ok {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 500 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = v
	}

	events, err := a.archive.RecentEvents(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "event archive error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": events})
}
