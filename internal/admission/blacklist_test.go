package admission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

func TestCheckBlacklistCompanyMatch(t *testing.T) {
	st := storage.NewMemoryStore()
	orgID := uuid.New()

	require.NoError(t, st.CreateBlacklistEntry(context.Background(), &models.BlacklistEntry{
		OrganizationID: orgID,
		Company:        "Acme Corp",
		Reason:         "client conflict",
	}))

	tests := []struct {
		company string
		match   bool
	}{
		{"Acme Corp", true},
		{"ACME CORP", true},
		{"Acme Corp Recruiting", true}, // entry is substring of candidate
		{"Acme", true},                 // candidate is substring of entry
		{"Globex", false},
		{"", false},
	}

	for _, tt := range tests {
		entry, err := CheckBlacklist(context.Background(), st, orgID, tt.company, "https://jobs.other.com/p")
		require.NoError(t, err)
		if tt.match {
			assert.NotNil(t, entry, "company %q should match", tt.company)
		} else {
			assert.Nil(t, entry, "company %q should not match", tt.company)
		}
	}
}

func TestCheckBlacklistDomainMatch(t *testing.T) {
	st := storage.NewMemoryStore()
	orgID := uuid.New()

	require.NoError(t, st.CreateBlacklistEntry(context.Background(), &models.BlacklistEntry{
		OrganizationID: orgID,
		Domain:         "acme.com",
	}))

	entry, err := CheckBlacklist(context.Background(), st, orgID, "Globex", "https://jobs.acme.com/posting/1")
	require.NoError(t, err)
	assert.NotNil(t, entry)

	entry, err = CheckBlacklist(context.Background(), st, orgID, "Globex", "https://jobs.globex.com/posting/1")
	require.NoError(t, err)
	assert.Nil(t, entry)

	// The domain may appear anywhere in the URL, not just the host:
	// aggregators often carry the employer's domain in the path.
	entry, err = CheckBlacklist(context.Background(), st, orgID, "Globex", "https://boards.example.com/jobs/acme.com/123")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestCheckBlacklistCompanyRuleTakesPrecedence(t *testing.T) {
	st := storage.NewMemoryStore()
	orgID := uuid.New()

	require.NoError(t, st.CreateBlacklistEntry(context.Background(), &models.BlacklistEntry{
		OrganizationID: orgID,
		Company:        "Acme Corp",
		Domain:         "example.com",
	}))

	// Both companies present: the entry is judged on the company rule
	// alone, so a non-matching company is admitted even though the
	// domain would hit.
	entry, err := CheckBlacklist(context.Background(), st, orgID, "Other Corp", "https://jobs.example.com/p")
	require.NoError(t, err)
	assert.Nil(t, entry)

	// No candidate company: the entry falls back to the domain rule.
	entry, err = CheckBlacklist(context.Background(), st, orgID, "", "https://jobs.example.com/p")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestCheckBlacklistScopedToOrg(t *testing.T) {
	st := storage.NewMemoryStore()
	orgA, orgB := uuid.New(), uuid.New()

	require.NoError(t, st.CreateBlacklistEntry(context.Background(), &models.BlacklistEntry{
		OrganizationID: orgA,
		Company:        "Acme Corp",
	}))

	entry, err := CheckBlacklist(context.Background(), st, orgB, "Acme Corp", "https://jobs.acme.com/p")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestBlacklistDenial(t *testing.T) {
	entry := &models.BlacklistEntry{
		ID:      uuid.New(),
		Company: "Acme Corp",
		Reason:  "client conflict",
	}

	denial := BlacklistDenial(entry)
	assert.Equal(t, DenialBlacklist, denial.Code)
	assert.Contains(t, denial.Message, "Acme Corp")
	assert.Contains(t, denial.Message, "client conflict")

	// Domain-only entries name the domain instead.
	denial = BlacklistDenial(&models.BlacklistEntry{Domain: "acme.com"})
	assert.Contains(t, denial.Message, "acme.com")
}
