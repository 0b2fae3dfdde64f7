package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlacklistEntry is an organization-maintained denylist entry. Either
// Company or Domain (or both) may be set.
type BlacklistEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`

	Company string `json:"company,omitempty" db:"company"`
	Domain  string `json:"domain,omitempty" db:"domain"`
	Reason  string `json:"reason,omitempty" db:"reason"`
}

// MatchesCompany reports whether the entry's company and the candidate
// company match as case-insensitive substrings in either direction:
// "Acme Corp" matches both "ACME corp" and "Acme Corp Recruiting".
func (e *BlacklistEntry) MatchesCompany(company string) bool {
	if e.Company == "" || company == "" {
		return false
	}
	a := strings.ToLower(strings.TrimSpace(e.Company))
	b := strings.ToLower(strings.TrimSpace(company))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
