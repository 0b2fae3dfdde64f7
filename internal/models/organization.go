package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a team/tenant. It owns all quota, warmup,
// claim and blacklist state and is created on first team-member sync.
type Organization struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name string `json:"name" db:"name"`

	// Plan is the billing tier key resolved against plan_limits.
	Plan string `json:"plan" db:"plan"`

	IsActive bool `json:"isActive" db:"is_active"`

	// WebhookSecretHash is the bcrypt hash of the secret third-party
	// webhook callers authenticate with. Never serialized.
	WebhookSecretHash string `json:"-" db:"webhook_secret_hash"`
}

// Member represents a team member within an organization, synced from
// the identity provider. The bearer identity on API requests resolves
// to a member.
type Member struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`

	Email    string `json:"email" db:"email"`
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"isActive" db:"is_active"`
}
