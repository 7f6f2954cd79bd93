package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clientworkaccess-cmd/integration--hub/internal/logging"
)

// eventsKeepAlive is the interval of comment lines on idle event streams.
const eventsKeepAlive = 15 * time.Second

// handleEvents streams state snapshots as Server-Sent Events. Each event is
// named "state" and carries the snapshot version as its ID. The stream
// ends when the client leaves or the server context is shut down.
func (s *HTTPServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.sc.Context(), cancel)
	defer stop()

	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.WarnContext(ctx, "event stream not supported by response writer", logging.Err(err))
		return
	}

	metrics := s.sc.Metrics()
	metrics.IncrementStateSubscribers(ctx)
	defer metrics.DecrementStateSubscribers(ctx)

	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()

	snapshots := s.sc.Hub().Watch(ctx)
	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				s.logger.ErrorContext(ctx, "failed to encode snapshot", logging.Err(err))
				return
			}
			if _, err := fmt.Fprintf(w, "event: state\nid: %d\ndata: %s\n\n", snap.Version, data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
