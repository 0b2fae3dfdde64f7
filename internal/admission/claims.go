package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

// ClaimManager grants time-boxed exclusive claims on job URLs so two
// team members do not work the same posting concurrently. Claims are
// advisory: they protect in-progress selection, not completed
// submission (that is the duplicate detector's job).
type ClaimManager struct {
	ttl time.Duration
}

// NewClaimManager creates a claim manager. A zero TTL falls back to
// the 24h default.
func NewClaimManager(ttl time.Duration) *ClaimManager {
	if ttl <= 0 {
		ttl = models.ClaimTTL
	}
	return &ClaimManager{ttl: ttl}
}

// ClaimResult is the outcome of a claim attempt.
type ClaimResult struct {
	Granted bool             `json:"granted"`
	HeldBy  string           `json:"heldBy,omitempty"`
	Claim   *models.JobClaim `json:"claim,omitempty"`
}

// TryClaim grants a claim if the URL is unclaimed, the existing claim
// has expired, or the requester already holds it (idempotent re-claim,
// refreshing the TTL). Expiry is evaluated lazily against now; expired
// rows are overwritten, never swept here.
func (m *ClaimManager) TryClaim(ctx context.Context, st storage.Store, orgID uuid.UUID, jobURL string, holderID uuid.UUID, holderName string, now time.Time) (*ClaimResult, error) {
	existing, err := st.GetClaim(ctx, orgID, jobURL)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get claim: %w", err)
	}

	if existing != nil && !existing.Expired(now) && existing.HolderID != holderID {
		return &ClaimResult{Granted: false, HeldBy: existing.HolderName, Claim: existing}, nil
	}

	claim := &models.JobClaim{
		OrganizationID: orgID,
		JobURL:         jobURL,
		HolderID:       holderID,
		HolderName:     holderName,
		ClaimedAt:      now,
		ExpiresAt:      now.Add(m.ttl),
	}
	if existing != nil {
		claim.ID = existing.ID
		claim.CreatedAt = existing.CreatedAt
	}

	if err := st.UpsertClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("upsert claim: %w", err)
	}

	return &ClaimResult{Granted: true, Claim: claim}, nil
}

// Holder returns the active claim on a URL, or nil if unclaimed or
// expired.
func (m *ClaimManager) Holder(ctx context.Context, st storage.Store, orgID uuid.UUID, jobURL string, now time.Time) (*models.JobClaim, error) {
	claim, err := st.GetClaim(ctx, orgID, jobURL)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if claim.Expired(now) {
		return nil, nil
	}
	return claim, nil
}

// Release removes the claim on a URL. Called by the pipeline the
// moment a run is created for it: the permanent duplicate-detection
// record takes over from the soft lock.
func (m *ClaimManager) Release(ctx context.Context, st storage.Store, orgID uuid.UUID, jobURL string) error {
	return st.DeleteClaim(ctx, orgID, jobURL)
}

// Denial converts a lost claim attempt into its denial. The UI treats
// it as informational, not an error.
func (r *ClaimResult) Denial() *Denial {
	ctx := models.Variables{"heldBy": r.HeldBy}
	if r.Claim != nil {
		ctx["claimedAt"] = r.Claim.ClaimedAt
		ctx["expiresAt"] = r.Claim.ExpiresAt
	}
	return &Denial{
		Code:    DenialClaimed,
		Message: fmt.Sprintf("This job is currently claimed by %s", r.HeldBy),
		Context: ctx,
	}
}
