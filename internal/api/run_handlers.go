package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/recruitflow/recruitflow-server/internal/admission"
)

// denialStatus maps a policy denial onto its HTTP status: quota,
// warmup and blacklist are 403 (plan/policy forbids it); claim and
// duplicate are 409 (contention with existing state).
func denialStatus(code admission.DenialCode) int {
	switch code {
	case admission.DenialClaimed, admission.DenialDuplicate:
		return http.StatusConflict
	default:
		return http.StatusForbidden
	}
}

// HandleCreateRun runs a creation request through the admission
// pipeline and either queues the run or returns the policy denial
func (s *RESTServer) HandleCreateRun(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)

	var req struct {
		JobURL  string `json:"jobUrl" validate:"required,url"`
		Title   string `json:"title" validate:"max=500"`
		Company string `json:"company" validate:"max=200"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.pipeline.Admit(r.Context(), &admission.Request{
		OrgID:      claims.OrganizationID,
		MemberID:   claims.UserID,
		MemberName: claims.Name,
		JobURL:     req.JobURL,
		Title:      req.Title,
		Company:    req.Company,
	})
	if err != nil {
		if errors.Is(err, admission.ErrInvalidRequest) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).
			Str("org_id", claims.OrganizationID.String()).
			Msg("Admission pipeline failed")
		s.respondError(w, http.StatusInternalServerError, "admission failed")
		return
	}

	if !result.Admitted() {
		s.respondJSON(w, denialStatus(result.Denial.Code), result.Denial)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"runId":   result.Run.ID,
		"status":  result.Run.Status,
		"message": "Run queued for outreach",
	})
}

// HandleListRuns lists the caller's organization runs
func (s *RESTServer) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFromContext(r)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	runs, total, err := s.store.ListRuns(ctx, claims.OrganizationID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"total": total,
	})
}

// HandleGetRun gets a run
func (s *RESTServer) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFromContext(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := s.store.GetRun(ctx, claims.OrganizationID, id)
	if err != nil {
		s.respondStoreError(w, err, "run not found")
		return
	}

	s.respondJSON(w, http.StatusOK, run)
}
