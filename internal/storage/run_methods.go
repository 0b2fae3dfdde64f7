package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

const runColumns = `id, created_at, updated_at, organization_id, created_by, job_url,
               title, company, status, prospects_contacted, invites_sent,
               started_at, finished_at, error`

// ========== Run Methods ==========

// CreateRun creates a run. The (organization_id, job_url) unique
// constraint backs duplicate detection; a violation maps to
// ErrDuplicateKey.
func (s *PostgresStore) CreateRun(ctx context.Context, run *models.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = models.RunStatusQueued
	}

	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now

	query := `
        INSERT INTO runs (id, created_at, updated_at, organization_id, created_by, job_url,
                          title, company, status, prospects_contacted, invites_sent,
                          started_at, finished_at, error)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.getDB().ExecContext(ctx, query,
		run.ID, run.CreatedAt, run.UpdatedAt, run.OrganizationID, run.CreatedBy, run.JobURL,
		run.Title, run.Company, run.Status, run.ProspectsContacted, run.InvitesSent,
		run.StartedAt, run.FinishedAt, run.Error,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

func scanRun(row interface{ Scan(dest ...interface{}) error }) (*models.Run, error) {
	run := &models.Run{}
	err := row.Scan(
		&run.ID, &run.CreatedAt, &run.UpdatedAt, &run.OrganizationID, &run.CreatedBy,
		&run.JobURL, &run.Title, &run.Company, &run.Status,
		&run.ProspectsContacted, &run.InvitesSent,
		&run.StartedAt, &run.FinishedAt, &run.Error,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun gets a run by ID within an organization
func (s *PostgresStore) GetRun(ctx context.Context, orgID, id uuid.UUID) (*models.Run, error) {
	query := `
        SELECT ` + runColumns + `
        FROM runs
        WHERE organization_id = $1 AND id = $2`

	run, err := scanRun(s.getDB().QueryRowContext(ctx, query, orgID, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// GetRunByJobURL gets a run by its job URL, regardless of status
func (s *PostgresStore) GetRunByJobURL(ctx context.Context, orgID uuid.UUID, jobURL string) (*models.Run, error) {
	query := `
        SELECT ` + runColumns + `
        FROM runs
        WHERE organization_id = $1 AND job_url = $2`

	run, err := scanRun(s.getDB().QueryRowContext(ctx, query, orgID, jobURL))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// ListRuns lists runs for an organization, newest first
func (s *PostgresStore) ListRuns(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Run, int64, error) {
	var total int64
	if err := s.getDB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE organization_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT ` + runColumns + `
        FROM runs
        WHERE organization_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`

	rows, err := s.getDB().QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}

	return runs, total, rows.Err()
}

// UpdateRun updates a run's mutable fields
func (s *PostgresStore) UpdateRun(ctx context.Context, run *models.Run) error {
	run.UpdatedAt = time.Now()

	query := `
        UPDATE runs
        SET updated_at = $3, status = $4, prospects_contacted = $5, invites_sent = $6,
            started_at = $7, finished_at = $8, error = $9
        WHERE organization_id = $1 AND id = $2`

	result, err := s.getDB().ExecContext(ctx, query,
		run.OrganizationID, run.ID, run.UpdatedAt, run.Status,
		run.ProspectsContacted, run.InvitesSent,
		run.StartedAt, run.FinishedAt, run.Error,
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

// AddRunProgress adds prospect/invite deltas to a run's totals
func (s *PostgresStore) AddRunProgress(ctx context.Context, orgID, runID uuid.UUID, prospects, invites int) error {
	query := `
        UPDATE runs
        SET prospects_contacted = prospects_contacted + $3,
            invites_sent = invites_sent + $4,
            updated_at = $5
        WHERE organization_id = $1 AND id = $2`

	result, err := s.getDB().ExecContext(ctx, query, orgID, runID, prospects, invites, time.Now())
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListQueuedRunsBefore returns runs still queued that were created
// before the cutoff
func (s *PostgresStore) ListQueuedRunsBefore(ctx context.Context, cutoff time.Time) ([]*models.Run, error) {
	query := `
        SELECT ` + runColumns + `
        FROM runs
        WHERE status = $1 AND created_at < $2
        ORDER BY created_at`

	rows, err := s.getDB().QueryContext(ctx, query, models.RunStatusQueued, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// CountRunsInPeriod counts runs created within a billing period
func (s *PostgresStore) CountRunsInPeriod(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (int, error) {
	var count int
	err := s.getDB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE organization_id = $1 AND created_at >= $2 AND created_at < $3`,
		orgID, periodStart, periodEnd).Scan(&count)
	return count, err
}
