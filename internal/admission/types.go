package admission

import (
	"errors"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

// ErrInvalidRequest marks admission requests rejected before any
// policy runs (bad URL, missing fields). The API maps it to 400.
var ErrInvalidRequest = errors.New("invalid request")

// DenialCode identifies which policy denied an admission request.
type DenialCode string

const (
	DenialQuota     DenialCode = "usage_limit_exceeded"
	DenialWarmup    DenialCode = "warmup_limit"
	DenialClaimed   DenialCode = "job_claimed_by_other"
	DenialBlacklist DenialCode = "company_blacklisted"
	DenialDuplicate DenialCode = "duplicate_job_url"
)

// Denial is a policy rejection. Denials are values, not errors: every
// one is non-fatal and user-actionable, and no mutation was performed.
type Denial struct {
	Code    DenialCode       `json:"error"`
	Message string           `json:"message"`
	Context models.Variables `json:"context,omitempty"`
}

// Request is a run creation request entering the pipeline.
type Request struct {
	OrgID      uuid.UUID
	MemberID   uuid.UUID
	MemberName string

	JobURL  string
	Title   string
	Company string
}

// Result is the outcome of an admission attempt: exactly one of Run
// and Denial is set.
type Result struct {
	Run    *models.Run
	Denial *Denial
}

// Admitted reports whether the request passed all policies.
func (r *Result) Admitted() bool {
	return r.Run != nil
}
