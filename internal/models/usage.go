package models

import (
	"time"

	"github.com/google/uuid"
)

// UnlimitedLimit is the sentinel meaning "no limit" on a plan metric.
const UnlimitedLimit = -1

// Metric identifies a usage metric tracked per billing period.
type Metric string

const (
	MetricRuns      Metric = "runs"
	MetricProspects Metric = "prospects"
	MetricMessages  Metric = "messages"
)

// PlanLimits holds per-tier limits. A limit of -1 means unlimited.
type PlanLimits struct {
	Plan           string `json:"plan" db:"plan"`
	RunsLimit      int    `json:"runsLimit" db:"runs_limit"`
	ProspectsLimit int    `json:"prospectsLimit" db:"prospects_limit"`
	MessagesLimit  int    `json:"messagesLimit" db:"messages_limit"`
}

// Limit returns the limit for a metric.
func (p *PlanLimits) Limit(m Metric) int {
	switch m {
	case MetricRuns:
		return p.RunsLimit
	case MetricProspects:
		return p.ProspectsLimit
	case MetricMessages:
		return p.MessagesLimit
	default:
		return 0
	}
}

// UsageCounter is the per-organization counter record for one billing
// period. Mutated only by successful admissions, webhook/event
// ingestion, or period rollover.
type UsageCounter struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`

	RunsUsed      int `json:"runsUsed" db:"runs_used"`
	ProspectsUsed int `json:"prospectsUsed" db:"prospects_used"`
	MessagesUsed  int `json:"messagesUsed" db:"messages_used"`

	PeriodStart time.Time `json:"periodStart" db:"period_start"`
	PeriodEnd   time.Time `json:"periodEnd" db:"period_end"`
}

// Used returns the used count for a metric.
func (u *UsageCounter) Used(m Metric) int {
	switch m {
	case MetricRuns:
		return u.RunsUsed
	case MetricProspects:
		return u.ProspectsUsed
	case MetricMessages:
		return u.MessagesUsed
	default:
		return 0
	}
}

// PeriodStart returns the UTC start of the calendar-month billing
// period containing t.
func PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PeriodEnd returns the UTC start of the period following the one
// containing t.
func PeriodEnd(t time.Time) time.Time {
	return PeriodStart(t).AddDate(0, 1, 0)
}
