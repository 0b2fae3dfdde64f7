package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/pkg/joburl"
)

// HandleCreateClaim attempts to claim a job URL for the caller. A lost
// attempt is a 200 with granted=false: claims are advisory and the UI
// shows who holds it.
func (s *RESTServer) HandleCreateClaim(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)

	var req struct {
		JobURL string `json:"jobUrl" validate:"required,url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobURL, err := joburl.Normalize(req.JobURL)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid job url")
		return
	}

	result, err := s.claims.TryClaim(r.Context(), s.store, claims.OrganizationID, jobURL,
		claims.UserID, claims.Name, time.Now().UTC())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// HandleListClaims lists active claims for an organization
func (s *RESTServer) HandleListClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFromContext(r)

	orgID, err := uuid.Parse(chi.URLParam(r, "org_id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid organization id")
		return
	}
	if orgID != claims.OrganizationID {
		s.respondError(w, http.StatusForbidden, "organization mismatch")
		return
	}

	all, err := s.store.ListClaims(ctx, orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Expired rows survive until the compaction sweep; filter them here.
	now := time.Now().UTC()
	active := all[:0]
	for _, c := range all {
		if !c.Expired(now) {
			active = append(active, c)
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"claims": active,
		"total":  len(active),
	})
}

// HandleDeleteClaim releases a claim by id
func (s *RESTServer) HandleDeleteClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFromContext(r)

	orgID, err := uuid.Parse(chi.URLParam(r, "org_id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid organization id")
		return
	}
	if orgID != claims.OrganizationID {
		s.respondError(w, http.StatusForbidden, "organization mismatch")
		return
	}

	claimID, err := uuid.Parse(chi.URLParam(r, "claim_id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	if err := s.store.DeleteClaimByID(ctx, orgID, claimID); err != nil {
		s.respondStoreError(w, err, "claim not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
