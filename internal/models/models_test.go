package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaySinceStart(t *testing.T) {
	start := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	status := &WarmupStatus{StartDate: start}

	tests := []struct {
		now time.Time
		day int
	}{
		// The start date itself is day 1 regardless of time of day.
		{time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC), 1},
		{time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC), 1},
		{time.Date(2025, 6, 2, 0, 0, 1, 0, time.UTC), 2},
		{time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC), 14},
		{time.Date(2025, 6, 15, 0, 0, 1, 0, time.UTC), 15},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.day, status.DaySinceStart(tt.now), "now=%s", tt.now)
	}
}

func TestSameUTCDay(t *testing.T) {
	assert.True(t, SameUTCDay(
		time.Date(2025, 6, 1, 0, 0, 1, 0, time.UTC),
		time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC),
	))
	assert.False(t, SameUTCDay(
		time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC),
		time.Date(2025, 6, 2, 0, 0, 1, 0, time.UTC),
	))

	// Comparison is in UTC, not local wall clock.
	est := time.FixedZone("EST", -5*3600)
	assert.False(t, SameUTCDay(
		time.Date(2025, 6, 1, 22, 0, 0, 0, est), // 03:00 June 2 UTC
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	))
}

func TestPeriodBounds(t *testing.T) {
	now := time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), PeriodStart(now))
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), PeriodEnd(now))

	// December rolls into the next year.
	dec := time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), PeriodEnd(dec))
}

func TestClaimExpired(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	claim := &JobClaim{ExpiresAt: now}

	assert.True(t, claim.Expired(now))
	assert.True(t, claim.Expired(now.Add(time.Second)))
	assert.False(t, claim.Expired(now.Add(-time.Second)))
}

func TestRunStatus(t *testing.T) {
	assert.True(t, RunStatusCompleted.IsTerminal())
	assert.True(t, RunStatusFailed.IsTerminal())
	assert.False(t, RunStatusQueued.IsTerminal())
	assert.False(t, RunStatusRunning.IsTerminal())

	assert.True(t, RunStatusQueued.Valid())
	assert.False(t, RunStatus("weird").Valid())
}

func TestMatchesCompany(t *testing.T) {
	entry := &BlacklistEntry{Company: "Acme Corp"}

	assert.True(t, entry.MatchesCompany("acme corp"))
	assert.True(t, entry.MatchesCompany("ACME CORP"))
	assert.True(t, entry.MatchesCompany("Acme Corp Recruiting"))
	assert.True(t, entry.MatchesCompany("Acme"))
	assert.False(t, entry.MatchesCompany("Globex"))
	assert.False(t, entry.MatchesCompany(""))
	assert.False(t, (&BlacklistEntry{}).MatchesCompany("Acme"))
}
