package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"uid":          user.UID,
		"email":        user.Email,
		"display_name": user.DisplayName,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIUser(w, r)
	if !ok {
		return
	}

	txs, err := s.listTransactions(r.Context(), user.UID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed",
			log.FieldUID, user.UID,
			log.FieldOperation, log.OpList,
			log.FieldError, err)
		writeJSONError(w, http.StatusInternalServerError, "list failed")
		return
	}

	filter := parseFilter(r)
	if filter.Type == "all" {
		filter.Type = ""
	}
	filtered := filter.Apply(txs)

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": toTransactionListJSON(filtered),
		"count":        len(filtered),
		"categories":   core.DistinctCategories(txs),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIUser(w, r)
	if !ok {
		return
	}

	payload, err := decodeTransactionPayload(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := payload.toDraft()
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.Create(r.Context(), user.UID, draft)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateList(user.UID)
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	payload, err := decodeTransactionPayload(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := payload.toDraft()
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.Update(r.Context(), user.UID, id, draft, time.Now().UTC()); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateList(user.UID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIUser(w, r)
	if !ok {
		return
	}

	// Deletion is destructive and unconfirmed requests are refused; the
	// UI asks the user first and then sends confirm=true.
	if r.URL.Query().Get("confirm") != "true" {
		writeJSONError(w, http.StatusBadRequest, "deletion must be confirmed with confirm=true")
		return
	}

	if err := s.store.Delete(r.Context(), user.UID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateList(user.UID)
	w.WriteHeader(http.StatusNoContent)
}
