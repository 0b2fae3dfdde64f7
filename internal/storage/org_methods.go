package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

// ========== Organization Methods ==========

// CreateOrganization creates a new organization
func (s *PostgresStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}

	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now

	query := `
        INSERT INTO organizations (id, created_at, updated_at, name, plan, is_active, webhook_secret_hash)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.getDB().ExecContext(ctx, query,
		org.ID, org.CreatedAt, org.UpdatedAt, org.Name, org.Plan, org.IsActive, org.WebhookSecretHash,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetOrganization gets an organization by ID
func (s *PostgresStore) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	query := `
        SELECT id, created_at, updated_at, name, plan, is_active, webhook_secret_hash
        FROM organizations
        WHERE id = $1`

	org := &models.Organization{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&org.ID, &org.CreatedAt, &org.UpdatedAt, &org.Name, &org.Plan,
		&org.IsActive, &org.WebhookSecretHash,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return org, nil
}

// UpdateOrganization updates an organization
func (s *PostgresStore) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now()

	query := `
        UPDATE organizations
        SET updated_at = $2, name = $3, plan = $4, is_active = $5, webhook_secret_hash = $6
        WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		org.ID, org.UpdatedAt, org.Name, org.Plan, org.IsActive, org.WebhookSecretHash,
	)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListOrganizations lists organizations
func (s *PostgresStore) ListOrganizations(ctx context.Context, limit, offset int) ([]*models.Organization, int64, error) {
	var total int64
	if err := s.getDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, created_at, updated_at, name, plan, is_active, webhook_secret_hash
        FROM organizations
        ORDER BY created_at
        LIMIT $1 OFFSET $2`

	rows, err := s.getDB().QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org := &models.Organization{}
		if err := rows.Scan(
			&org.ID, &org.CreatedAt, &org.UpdatedAt, &org.Name, &org.Plan,
			&org.IsActive, &org.WebhookSecretHash,
		); err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, org)
	}

	return orgs, total, rows.Err()
}

// LockOrganization takes a row lock on the organization for the
// remainder of the transaction. Outside a transaction this is a no-op
// read and provides no exclusion.
func (s *PostgresStore) LockOrganization(ctx context.Context, id uuid.UUID) error {
	var got uuid.UUID
	err := s.getDB().QueryRowContext(ctx,
		`SELECT id FROM organizations WHERE id = $1 FOR UPDATE`, id).Scan(&got)

	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

// ========== Member Methods ==========

// UpsertMember creates or updates a member by ID
func (s *PostgresStore) UpsertMember(ctx context.Context, member *models.Member) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}

	now := time.Now()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now

	query := `
        INSERT INTO members (id, created_at, updated_at, organization_id, email, name, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE
        SET updated_at = EXCLUDED.updated_at,
            email = EXCLUDED.email,
            name = EXCLUDED.name,
            is_active = EXCLUDED.is_active`

	_, err := s.getDB().ExecContext(ctx, query,
		member.ID, member.CreatedAt, member.UpdatedAt, member.OrganizationID,
		member.Email, member.Name, member.IsActive,
	)

	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return ErrDuplicateKey
	}
	return err
}

// GetMember gets a member by ID
func (s *PostgresStore) GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	query := `
        SELECT id, created_at, updated_at, organization_id, email, name, is_active
        FROM members
        WHERE id = $1`

	member := &models.Member{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&member.ID, &member.CreatedAt, &member.UpdatedAt, &member.OrganizationID,
		&member.Email, &member.Name, &member.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return member, nil
}

// ListMembers lists members of an organization
func (s *PostgresStore) ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Member, int64, error) {
	var total int64
	if err := s.getDB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM members WHERE organization_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, created_at, updated_at, organization_id, email, name, is_active
        FROM members
        WHERE organization_id = $1
        ORDER BY created_at
        LIMIT $2 OFFSET $3`

	rows, err := s.getDB().QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member := &models.Member{}
		if err := rows.Scan(
			&member.ID, &member.CreatedAt, &member.UpdatedAt, &member.OrganizationID,
			&member.Email, &member.Name, &member.IsActive,
		); err != nil {
			return nil, 0, err
		}
		members = append(members, member)
	}

	return members, total, rows.Err()
}

// ========== Plan Limit Methods ==========

// GetPlanLimits gets limits for a plan tier
func (s *PostgresStore) GetPlanLimits(ctx context.Context, plan string) (*models.PlanLimits, error) {
	query := `
        SELECT plan, runs_limit, prospects_limit, messages_limit
        FROM plan_limits
        WHERE plan = $1`

	limits := &models.PlanLimits{}
	err := s.getDB().QueryRowContext(ctx, query, plan).Scan(
		&limits.Plan, &limits.RunsLimit, &limits.ProspectsLimit, &limits.MessagesLimit,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return limits, nil
}
