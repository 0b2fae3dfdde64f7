package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

// ========== Warmup Methods ==========

// GetOrCreateWarmupStatus returns the organization's warmup record,
// creating it lazily with today as day 1 of the ramp.
func (s *PostgresStore) GetOrCreateWarmupStatus(ctx context.Context, orgID uuid.UUID, now time.Time) (*models.WarmupStatus, error) {
	today := utcDate(now)

	insert := `
        INSERT INTO warmup_statuses (id, created_at, updated_at, organization_id, start_date, last_reset_date)
        VALUES ($1, $2, $2, $3, $4, $4)
        ON CONFLICT (organization_id) DO NOTHING`

	if _, err := s.getDB().ExecContext(ctx, insert, uuid.New(), time.Now(), orgID, today); err != nil {
		return nil, err
	}

	query := `
        SELECT id, created_at, updated_at, organization_id, start_date, last_reset_date,
               daily_runs_created, daily_invites_sent, total_runs_created, total_invites_sent, completed
        FROM warmup_statuses
        WHERE organization_id = $1`

	status := &models.WarmupStatus{}
	err := s.getDB().QueryRowContext(ctx, query, orgID).Scan(
		&status.ID, &status.CreatedAt, &status.UpdatedAt, &status.OrganizationID,
		&status.StartDate, &status.LastResetDate,
		&status.DailyRunsCreated, &status.DailyInvitesSent,
		&status.TotalRunsCreated, &status.TotalInvitesSent, &status.Completed,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return status, nil
}

// SaveWarmupStatus persists counter and flag changes
func (s *PostgresStore) SaveWarmupStatus(ctx context.Context, status *models.WarmupStatus) error {
	status.UpdatedAt = time.Now()

	query := `
        UPDATE warmup_statuses
        SET updated_at = $2, last_reset_date = $3,
            daily_runs_created = $4, daily_invites_sent = $5,
            total_runs_created = $6, total_invites_sent = $7,
            completed = completed OR $8
        WHERE organization_id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		status.OrganizationID, status.UpdatedAt, utcDate(status.LastResetDate),
		status.DailyRunsCreated, status.DailyInvitesSent,
		status.TotalRunsCreated, status.TotalInvitesSent, status.Completed,
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

// IncrementWarmup bumps the daily and total counters for an action.
// Stale daily counters (last_reset_date before today) are zeroed in the
// same statement so the reset cannot be lost between a read and a
// write.
func (s *PostgresStore) IncrementWarmup(ctx context.Context, orgID uuid.UUID, action models.WarmupAction, amount int, now time.Time) error {
	if _, err := s.GetOrCreateWarmupStatus(ctx, orgID, now); err != nil {
		return err
	}

	today := utcDate(now)

	var query string
	if action == models.WarmupActionInvite {
		query = `
            UPDATE warmup_statuses
            SET daily_invites_sent = CASE WHEN last_reset_date = $3 THEN daily_invites_sent + $2 ELSE $2 END,
                daily_runs_created = CASE WHEN last_reset_date = $3 THEN daily_runs_created ELSE 0 END,
                total_invites_sent = total_invites_sent + $2,
                last_reset_date = $3,
                updated_at = $4
            WHERE organization_id = $1`
	} else {
		query = `
            UPDATE warmup_statuses
            SET daily_runs_created = CASE WHEN last_reset_date = $3 THEN daily_runs_created + $2 ELSE $2 END,
                daily_invites_sent = CASE WHEN last_reset_date = $3 THEN daily_invites_sent ELSE 0 END,
                total_runs_created = total_runs_created + $2,
                last_reset_date = $3,
                updated_at = $4
            WHERE organization_id = $1`
	}

	result, err := s.getDB().ExecContext(ctx, query, orgID, amount, today, time.Now())
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func utcDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
