package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimTTL is how long a job claim stays exclusive after being granted.
const ClaimTTL = 24 * time.Hour

// JobClaim is a time-boxed advisory exclusivity marker on a job URL:
// at most one non-expired claim exists per (organization, job URL).
// Claims protect in-progress selection only; they are not transactional
// locks, and absence of a claim does not imply absence of a prior run.
type JobClaim struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`

	JobURL     string    `json:"jobUrl" db:"job_url"`
	HolderID   uuid.UUID `json:"holderId" db:"holder_id"`
	HolderName string    `json:"holderName" db:"holder_name"`
	ClaimedAt  time.Time `json:"claimedAt" db:"claimed_at"`
	ExpiresAt  time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the claim has lapsed at the given time.
// Expiry is evaluated lazily at read time; there is no background sweep
// on the request path.
func (c *JobClaim) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
