package models

import (
	"time"

	"github.com/google/uuid"
)

// WarmupAction identifies a rate-limited action during warmup.
type WarmupAction string

const (
	WarmupActionRun    WarmupAction = "run"
	WarmupActionInvite WarmupAction = "invite"
)

// WarmupDays is the length of the progressive ramp. Past this the
// organization is considered warmed up permanently.
const WarmupDays = 14

// WarmupStatus is the per-organization warmup record, created lazily on
// first check. Daily counters are only valid for LastResetDate == today
// (UTC); any read or write reconciles this first.
type WarmupStatus struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`

	StartDate     time.Time `json:"startDate" db:"start_date"`
	LastResetDate time.Time `json:"lastResetDate" db:"last_reset_date"`

	DailyRunsCreated int `json:"dailyRunsCreated" db:"daily_runs_created"`
	DailyInvitesSent int `json:"dailyInvitesSent" db:"daily_invites_sent"`

	TotalRunsCreated int `json:"totalRunsCreated" db:"total_runs_created"`
	TotalInvitesSent int `json:"totalInvitesSent" db:"total_invites_sent"`

	// Completed is a one-way ratchet: once true it never reverts and
	// all schedule lookups are bypassed.
	Completed bool `json:"completed" db:"completed"`
}

// DaySinceStart returns the 1-based warmup day number for the given
// time: the start date itself is day 1.
func (w *WarmupStatus) DaySinceStart(now time.Time) int {
	start := truncateUTC(w.StartDate)
	today := truncateUTC(now)
	return int(today.Sub(start).Hours()/24) + 1
}

// Daily returns the daily counter for an action.
func (w *WarmupStatus) Daily(action WarmupAction) int {
	if action == WarmupActionInvite {
		return w.DailyInvitesSent
	}
	return w.DailyRunsCreated
}

// SameUTCDay reports whether a and b fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	return truncateUTC(a).Equal(truncateUTC(b))
}

func truncateUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
