package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether the status is final.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusQueued, RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// Run is one admitted unit of outreach automation targeting a job
// posting. Runs are created only by a successful admission commit; the
// job URL is unique per organization and doubles as the duplicate
// detection key.
type Run struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`
	CreatedBy      uuid.UUID `json:"createdBy" db:"created_by"`

	JobURL  string    `json:"jobUrl" db:"job_url"`
	Title   string    `json:"title,omitempty" db:"title"`
	Company string    `json:"company,omitempty" db:"company"`
	Status  RunStatus `json:"status" db:"status"`

	ProspectsContacted int `json:"prospectsContacted" db:"prospects_contacted"`
	InvitesSent        int `json:"invitesSent" db:"invites_sent"`

	StartedAt  *time.Time `json:"startedAt,omitempty" db:"started_at"`
	FinishedAt *time.Time `json:"finishedAt,omitempty" db:"finished_at"`
	Error      string     `json:"error,omitempty" db:"error"`
}
