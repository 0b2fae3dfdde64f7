package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

// HandleListBlacklist lists the organization's blacklist entries
func (s *RESTServer) HandleListBlacklist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFromContext(r)

	entries, err := s.store.ListBlacklistEntries(ctx, claims.OrganizationID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}

// HandleCreateBlacklistEntry adds a blacklist entry
func (s *RESTServer) HandleCreateBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)

	var req struct {
		Company string `json:"company" validate:"max=200"`
		Domain  string `json:"domain" validate:"max=200"`
		Reason  string `json:"reason" validate:"max=500"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Company == "" && req.Domain == "" {
		s.respondError(w, http.StatusBadRequest, "either company or domain is required")
		return
	}

	entry := &models.BlacklistEntry{
		OrganizationID: claims.OrganizationID,
		Company:        req.Company,
		Domain:         req.Domain,
		Reason:         req.Reason,
	}

	if err := s.store.CreateBlacklistEntry(r.Context(), entry); err != nil {
		if err == storage.ErrDuplicateKey {
			s.respondError(w, http.StatusConflict, "entry already exists")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, entry)
}

// HandleDeleteBlacklistEntry removes a blacklist entry
func (s *RESTServer) HandleDeleteBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFromContext(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	if err := s.store.DeleteBlacklistEntry(ctx, claims.OrganizationID, id); err != nil {
		s.respondStoreError(w, err, "entry not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
