package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

// ========== Usage Counter Methods ==========

// GetOrCreateUsageCounter returns the counter for the billing period
// containing now, creating a zeroed row on first touch (lazy rollover).
func (s *PostgresStore) GetOrCreateUsageCounter(ctx context.Context, orgID uuid.UUID, now time.Time) (*models.UsageCounter, error) {
	periodStart := models.PeriodStart(now)
	periodEnd := models.PeriodEnd(now)

	insert := `
        INSERT INTO usage_counters (id, created_at, updated_at, organization_id, period_start, period_end)
        VALUES ($1, $2, $2, $3, $4, $5)
        ON CONFLICT (organization_id, period_start) DO NOTHING`

	if _, err := s.getDB().ExecContext(ctx, insert,
		uuid.New(), time.Now(), orgID, periodStart, periodEnd); err != nil {
		return nil, err
	}

	query := `
        SELECT id, created_at, updated_at, organization_id,
               runs_used, prospects_used, messages_used, period_start, period_end
        FROM usage_counters
        WHERE organization_id = $1 AND period_start = $2`

	counter := &models.UsageCounter{}
	err := s.getDB().QueryRowContext(ctx, query, orgID, periodStart).Scan(
		&counter.ID, &counter.CreatedAt, &counter.UpdatedAt, &counter.OrganizationID,
		&counter.RunsUsed, &counter.ProspectsUsed, &counter.MessagesUsed,
		&counter.PeriodStart, &counter.PeriodEnd,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return counter, nil
}

// IncrementUsage bumps a metric for the current period. A non-negative
// limit makes the update conditional: if used + amount would exceed the
// limit no row changes and ErrLimitReached is returned.
func (s *PostgresStore) IncrementUsage(ctx context.Context, orgID uuid.UUID, metric models.Metric, amount, limit int, now time.Time) error {
	column, err := usageColumn(metric)
	if err != nil {
		return err
	}

	// Ensure the period row exists before updating it.
	if _, err := s.GetOrCreateUsageCounter(ctx, orgID, now); err != nil {
		return err
	}

	query := fmt.Sprintf(`
        UPDATE usage_counters
        SET %[1]s = %[1]s + $3, updated_at = $4
        WHERE organization_id = $1 AND period_start = $2`, column)

	args := []interface{}{orgID, models.PeriodStart(now), amount, time.Now()}

	if limit != models.UnlimitedLimit {
		query += fmt.Sprintf(` AND %[1]s + $3 <= $5`, column)
		args = append(args, limit)
	}

	result, err := s.getDB().ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrLimitReached
	}

	return nil
}

// SetUsageRuns overwrites runs_used for a period. Used by the
// consistency sweep to repair drift.
func (s *PostgresStore) SetUsageRuns(ctx context.Context, orgID uuid.UUID, periodStart time.Time, runsUsed int) error {
	query := `
        UPDATE usage_counters
        SET runs_used = $3, updated_at = $4
        WHERE organization_id = $1 AND period_start = $2`

	result, err := s.getDB().ExecContext(ctx, query, orgID, periodStart, runsUsed, time.Now())
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListActiveOrgIDs returns organizations with a counter row for the
// given period start.
func (s *PostgresStore) ListActiveOrgIDs(ctx context.Context, periodStart time.Time) ([]uuid.UUID, error) {
	rows, err := s.getDB().QueryContext(ctx,
		`SELECT organization_id FROM usage_counters WHERE period_start = $1`, periodStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func usageColumn(metric models.Metric) (string, error) {
	switch metric {
	case models.MetricRuns:
		return "runs_used", nil
	case models.MetricProspects:
		return "prospects_used", nil
	case models.MetricMessages:
		return "messages_used", nil
	default:
		return "", fmt.Errorf("%w: unknown metric %q", ErrInvalidData, metric)
	}
}
