package http

import (
	"net/http"

	"subwise/internal/core"
	"subwise/internal/log"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	subs, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	matched := query.Apply(subs)
	writeJSON(w, http.StatusOK, listResponse{Subscriptions: core.Records(matched), Count: len(matched)})
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	fields, err := req.Fields()
	if err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := s.store.Add(r.Context(), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "subscription created via API",
		log.FieldSubscriptionID, sub.ID)
	w.Header().Set("Location", "/api/subscriptions/"+sub.ID)
	writeJSON(w, http.StatusCreated, sub.Record())
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub.Record())
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.Patch()
	if err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := s.store.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub.Record())
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.store.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub.Record())
}

// handleDeleteSubscription answers 204 for absent ids as well.
func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
