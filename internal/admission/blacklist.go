package admission

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
	"github.com/recruitflow/recruitflow-server/pkg/joburl"
)

// CheckBlacklist scans the organization's denylist for a match against
// the candidate company name or job URL. First match wins; entry order
// is unspecified since any match is a definitive reject. Pure read.
//
// Entry sets are expected to be small (tens of rows), so a linear scan
// per admission is fine.
func CheckBlacklist(ctx context.Context, st storage.Store, orgID uuid.UUID, company, jobURL string) (*models.BlacklistEntry, error) {
	entries, err := st.ListBlacklistEntries(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list blacklist entries: %w", err)
	}

	for _, entry := range entries {
		// An entry with a company name is judged on the company rule
		// when the candidate has one too; the domain rule only applies
		// when the company comparison could not be made.
		if entry.Company != "" && company != "" {
			if entry.MatchesCompany(company) {
				return entry, nil
			}
			continue
		}
		if entry.Domain != "" && joburl.ContainsDomain(jobURL, entry.Domain) {
			return entry, nil
		}
	}

	return nil, nil
}

// BlacklistDenial builds the denial for a matched entry.
func BlacklistDenial(entry *models.BlacklistEntry) *Denial {
	target := entry.Company
	if target == "" {
		target = entry.Domain
	}

	msg := fmt.Sprintf("Company is on your organization's blacklist (%s)", target)
	if entry.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, entry.Reason)
	}

	return &Denial{
		Code:    DenialBlacklist,
		Message: msg,
		Context: models.Variables{
			"entryId": entry.ID,
			"company": entry.Company,
			"domain":  entry.Domain,
			"reason":  entry.Reason,
		},
	}
}
