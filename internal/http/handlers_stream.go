package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// handleStream pushes live snapshots of the user's transaction list as
// server-sent events. The first event carries the current state; later
// events follow each observed mutation.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIUser(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	snapshots, cancel := s.store.Hub().Subscribe(r.Context(), user.UID)
	defer cancel()

	s.logger.InfoContext(r.Context(), "Snapshot stream opened",
		log.FieldUID, user.UID,
		log.FieldOperation, log.OpSubscribe)

	for snap := range snapshots {
		payload, err := json.Marshal(map[string]any{
			"transactions": toTransactionListJSON(snap.Transactions),
			"summary":      toSummaryJSON(core.Summarize(snap.Transactions)),
			"count":        len(snap.Transactions),
		})
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Snapshot encoding failed",
				log.FieldUID, user.UID,
				log.FieldError, err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}
}
