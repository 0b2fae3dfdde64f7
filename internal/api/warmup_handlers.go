package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/admission"
	"github.com/recruitflow/recruitflow-server/internal/models"
)

// HandleGetWarmup returns an organization's warmup progress and
// today's remaining allowances
func (s *RESTServer) HandleGetWarmup(w http.ResponseWriter, r *http.Request) {
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

	now := time.Now().UTC()

	status, err := s.store.GetOrCreateWarmupStatus(ctx, orgID, now)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	day := status.DaySinceStart(now)
	completed := status.Completed || day > models.WarmupDays

	daysRemaining := 0
	if !completed {
		daysRemaining = models.WarmupDays - day + 1
	}

	// Stale daily counters read as zero; the write path reconciles them.
	dailyRuns := status.DailyRunsCreated
	dailyInvites := status.DailyInvitesSent
	if !models.SameUTCDay(status.LastResetDate, now) {
		dailyRuns = 0
		dailyInvites = 0
	}

	runLimit := models.UnlimitedLimit
	inviteLimit := models.UnlimitedLimit
	if !completed {
		runLimit = admission.WarmupDailyLimit(day, models.WarmupActionRun)
		inviteLimit = admission.WarmupDailyLimit(day, models.WarmupActionInvite)
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"organizationId": orgID,
		"startDate":      status.StartDate,
		"daysSinceStart": day,
		"daysRemaining":  daysRemaining,
		"completed":      completed,
		"today": map[string]interface{}{
			"runsCreated":  dailyRuns,
			"runsLimit":    runLimit,
			"invitesSent":  dailyInvites,
			"invitesLimit": inviteLimit,
		},
		"totals": map[string]interface{}{
			"runsCreated": status.TotalRunsCreated,
			"invitesSent": status.TotalInvitesSent,
		},
	})
}
