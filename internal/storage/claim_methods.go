package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

// ========== Job Claim Methods ==========

// GetClaim gets the claim on a job URL, expired or not. Expiry is the
// caller's concern (lazy evaluation at read time).
func (s *PostgresStore) GetClaim(ctx context.Context, orgID uuid.UUID, jobURL string) (*models.JobClaim, error) {
	query := `
        SELECT id, created_at, updated_at, organization_id, job_url,
               holder_id, holder_name, claimed_at, expires_at
        FROM job_claims
        WHERE organization_id = $1 AND job_url = $2`

	claim := &models.JobClaim{}
	err := s.getDB().QueryRowContext(ctx, query, orgID, jobURL).Scan(
		&claim.ID, &claim.CreatedAt, &claim.UpdatedAt, &claim.OrganizationID,
		&claim.JobURL, &claim.HolderID, &claim.HolderName, &claim.ClaimedAt, &claim.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return claim, nil
}

// UpsertClaim writes a claim, replacing any previous claim row for the
// same (organization, job URL). Expired rows are overwritten by the
// next claimant rather than swept.
func (s *PostgresStore) UpsertClaim(ctx context.Context, claim *models.JobClaim) error {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}

	now := time.Now()
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = now
	}
	claim.UpdatedAt = now

	query := `
        INSERT INTO job_claims (id, created_at, updated_at, organization_id, job_url,
                                holder_id, holder_name, claimed_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (organization_id, job_url) DO UPDATE
        SET updated_at = EXCLUDED.updated_at,
            holder_id = EXCLUDED.holder_id,
            holder_name = EXCLUDED.holder_name,
            claimed_at = EXCLUDED.claimed_at,
            expires_at = EXCLUDED.expires_at`

	_, err := s.getDB().ExecContext(ctx, query,
		claim.ID, claim.CreatedAt, claim.UpdatedAt, claim.OrganizationID, claim.JobURL,
		claim.HolderID, claim.HolderName, claim.ClaimedAt, claim.ExpiresAt,
	)

	return err
}

// DeleteClaim deletes the claim on a job URL
func (s *PostgresStore) DeleteClaim(ctx context.Context, orgID uuid.UUID, jobURL string) error {
	_, err := s.getDB().ExecContext(ctx,
		`DELETE FROM job_claims WHERE organization_id = $1 AND job_url = $2`, orgID, jobURL)
	return err
}

// DeleteClaimByID deletes a claim by its ID
func (s *PostgresStore) DeleteClaimByID(ctx context.Context, orgID, claimID uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx,
		`DELETE FROM job_claims WHERE organization_id = $1 AND id = $2`, orgID, claimID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListClaims lists all claim rows for an organization
func (s *PostgresStore) ListClaims(ctx context.Context, orgID uuid.UUID) ([]*models.JobClaim, error) {
	query := `
        SELECT id, created_at, updated_at, organization_id, job_url,
               holder_id, holder_name, claimed_at, expires_at
        FROM job_claims
        WHERE organization_id = $1
        ORDER BY claimed_at DESC`

	rows, err := s.getDB().QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*models.JobClaim
	for rows.Next() {
		claim := &models.JobClaim{}
		if err := rows.Scan(
			&claim.ID, &claim.CreatedAt, &claim.UpdatedAt, &claim.OrganizationID,
			&claim.JobURL, &claim.HolderID, &claim.HolderName, &claim.ClaimedAt, &claim.ExpiresAt,
		); err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}

	return claims, rows.Err()
}

// DeleteClaimsExpiredBefore removes claims whose expiry is older than
// the cutoff (maintenance compaction).
func (s *PostgresStore) DeleteClaimsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.getDB().ExecContext(ctx,
		`DELETE FROM job_claims WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
