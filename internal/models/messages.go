package models

import (
	"time"

	"github.com/google/uuid"
)

// RunQueuedMessage is published to the outreach executor when an
// admitted run is handed off.
type RunQueuedMessage struct {
	RunID          uuid.UUID `json:"runId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	CreatedBy      uuid.UUID `json:"createdBy"`
	JobURL         string    `json:"jobUrl"`
	Title          string    `json:"title,omitempty"`
	Company        string    `json:"company,omitempty"`
	QueuedAt       time.Time `json:"queuedAt"`
}

// OutreachEventType classifies executor progress events.
type OutreachEventType string

const (
	OutreachEventStarted   OutreachEventType = "started"
	OutreachEventProgress  OutreachEventType = "progress"
	OutreachEventCompleted OutreachEventType = "completed"
	OutreachEventFailed    OutreachEventType = "failed"
)

// OutreachEvent is a progress callback from the outreach executor,
// delivered over NATS or the HTTP webhook. Counts are deltas, not
// totals.
type OutreachEvent struct {
	RunID          uuid.UUID         `json:"runId"`
	OrganizationID uuid.UUID         `json:"organizationId"`
	Type           OutreachEventType `json:"type"`

	ProspectsContacted int `json:"prospectsContacted,omitempty"`
	InvitesSent        int `json:"invitesSent,omitempty"`
	MessagesSent       int `json:"messagesSent,omitempty"`

	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// MemberSyncMessage is the payload of the identity-provider member sync
// webhook. The organization is created on first sync.
type MemberSyncMessage struct {
	OrganizationID   uuid.UUID `json:"organizationId"`
	OrganizationName string    `json:"organizationName"`
	Plan             string    `json:"plan,omitempty"`

	MemberID uuid.UUID `json:"memberId"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
}
