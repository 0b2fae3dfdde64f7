package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recruitflow/recruitflow-server/internal/storage"
)

// ========== Service handlers ==========

// HandleHealth health check
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// HandleRoot root handler
func (s *RESTServer) HandleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": s.config.Server.Name,
		"version": s.config.Server.Version,
		"health":  "/api/v1/health",
	})
}

// ========== Usage handlers ==========

// HandleGetUsage returns the current-period counters and limits for
// the caller's organization
func (s *RESTServer) HandleGetUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFromContext(r)

	org, err := s.store.GetOrganization(ctx, claims.OrganizationID)
	if err != nil {
		s.respondStoreError(w, err, "organization not found")
		return
	}

	limits, err := s.store.GetPlanLimits(ctx, org.Plan)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	counter, err := s.store.GetOrCreateUsageCounter(ctx, org.ID, time.Now().UTC())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"plan":        org.Plan,
		"periodStart": counter.PeriodStart,
		"periodEnd":   counter.PeriodEnd,
		"usage": map[string]interface{}{
			"runs":      counter.RunsUsed,
			"prospects": counter.ProspectsUsed,
			"messages":  counter.MessagesUsed,
		},
		"limits": map[string]interface{}{
			"runs":      limits.RunsLimit,
			"prospects": limits.ProspectsLimit,
			"messages":  limits.MessagesLimit,
		},
	})
}

// ========== Helper methods ==========

// respondJSON responds with JSON
func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError responds with error
func (s *RESTServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondStoreError maps a storage read failure onto 404 or 500
func (s *RESTServer) respondStoreError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	s.respondError(w, http.StatusInternalServerError, err.Error())
}
