package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

// warmupBand is one row of the progressive ramp, boundary-inclusive on
// both ends.
type warmupBand struct {
	fromDay int
	toDay   int
	runs    int
	invites int
}

var warmupSchedule = []warmupBand{
	{1, 2, 1, 3},
	{3, 4, 1, 5},
	{5, 7, 2, 10},
	{8, 10, 3, 15},
	{11, 14, 4, 20},
}

// WarmupDailyLimit returns the daily cap for an action on the given
// warmup day, or -1 for unlimited (day > 14).
func WarmupDailyLimit(day int, action models.WarmupAction) int {
	for _, band := range warmupSchedule {
		if day >= band.fromDay && day <= band.toDay {
			if action == models.WarmupActionInvite {
				return band.invites
			}
			return band.runs
		}
	}
	return models.UnlimitedLimit
}

// WarmupResult is the outcome of a warmup check.
type WarmupResult struct {
	Allowed        bool   `json:"allowed"`
	Action         string `json:"action"`
	Current        int    `json:"current"`
	Limit          int    `json:"limit"`
	DaysSinceStart int    `json:"daysSinceStart"`
	DaysRemaining  int    `json:"daysRemaining"`
	Completed      bool   `json:"completed"`
}

// CheckWarmup evaluates the progressive daily cap for an action.
//
// The daily-reset reconcile and the completed ratchet are written back
// through the given store, so callers needing atomicity with the
// subsequent commit must pass a transaction store; the reset is then
// either committed with the admission or discarded and re-derived on
// the next check.
func CheckWarmup(ctx context.Context, st storage.Store, orgID uuid.UUID, action models.WarmupAction, now time.Time) (*WarmupResult, error) {
	status, err := st.GetOrCreateWarmupStatus(ctx, orgID, now)
	if err != nil {
		return nil, fmt.Errorf("get warmup status: %w", err)
	}

	day := status.DaySinceStart(now)

	result := &WarmupResult{
		Action:         string(action),
		DaysSinceStart: day,
		Completed:      status.Completed,
	}
	if day <= models.WarmupDays {
		result.DaysRemaining = models.WarmupDays - day + 1
	}

	// Once completed, the ratchet bypasses all schedule lookups.
	if status.Completed {
		result.Allowed = true
		result.Limit = models.UnlimitedLimit
		return result, nil
	}

	// The ratchet fires the first time a check runs past the ramp.
	if day > models.WarmupDays {
		status.Completed = true
		if err := st.SaveWarmupStatus(ctx, status); err != nil {
			return nil, fmt.Errorf("complete warmup: %w", err)
		}
		result.Allowed = true
		result.Completed = true
		result.Limit = models.UnlimitedLimit
		return result, nil
	}

	// Reconcile stale daily counters before reading them.
	if !models.SameUTCDay(status.LastResetDate, now) {
		status.DailyRunsCreated = 0
		status.DailyInvitesSent = 0
		status.LastResetDate = now
		if err := st.SaveWarmupStatus(ctx, status); err != nil {
			return nil, fmt.Errorf("reset warmup counters: %w", err)
		}
	}

	result.Current = status.Daily(action)
	result.Limit = WarmupDailyLimit(day, action)
	result.Allowed = result.Current < result.Limit

	return result, nil
}

// Denial converts a failed warmup check into its denial. The message
// carries the day number and tomorrow's limit for the UI.
func (r *WarmupResult) Denial() *Denial {
	tomorrow := WarmupDailyLimit(r.DaysSinceStart+1, models.WarmupAction(r.Action))

	var tomorrowText string
	if tomorrow == models.UnlimitedLimit {
		tomorrowText = "unlimited"
	} else {
		tomorrowText = fmt.Sprintf("%d", tomorrow)
	}

	return &Denial{
		Code: DenialWarmup,
		Message: fmt.Sprintf("Warmup day %d: daily %s limit reached (%d/%d). Tomorrow's limit: %s",
			r.DaysSinceStart, r.Action, r.Current, r.Limit, tomorrowText),
		Context: models.Variables{
			"action":         r.Action,
			"current":        r.Current,
			"limit":          r.Limit,
			"daysSinceStart": r.DaysSinceStart,
			"daysRemaining":  r.DaysRemaining,
			"tomorrowLimit":  tomorrow,
		},
	}
}
