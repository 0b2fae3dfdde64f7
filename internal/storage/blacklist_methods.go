package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

// ========== Blacklist Methods ==========

// CreateBlacklistEntry creates a blacklist entry
func (s *PostgresStore) CreateBlacklistEntry(ctx context.Context, entry *models.BlacklistEntry) error {
	if entry.Company == "" && entry.Domain == "" {
		return ErrInvalidData
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
        INSERT INTO blacklist_entries (id, created_at, updated_at, organization_id, company, domain, reason)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.getDB().ExecContext(ctx, query,
		entry.ID, entry.CreatedAt, entry.UpdatedAt, entry.OrganizationID,
		entry.Company, entry.Domain, entry.Reason,
	)

	return err
}

// DeleteBlacklistEntry deletes a blacklist entry
func (s *PostgresStore) DeleteBlacklistEntry(ctx context.Context, orgID, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx,
		`DELETE FROM blacklist_entries WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListBlacklistEntries lists all blacklist entries for an organization
func (s *PostgresStore) ListBlacklistEntries(ctx context.Context, orgID uuid.UUID) ([]*models.BlacklistEntry, error) {
	query := `
        SELECT id, created_at, updated_at, organization_id, company, domain, reason
        FROM blacklist_entries
        WHERE organization_id = $1
        ORDER BY created_at`

	rows, err := s.getDB().QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.BlacklistEntry
	for rows.Next() {
		entry := &models.BlacklistEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.CreatedAt, &entry.UpdatedAt, &entry.OrganizationID,
			&entry.Company, &entry.Domain, &entry.Reason,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
