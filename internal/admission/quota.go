package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

// QuotaResult is the outcome of a quota check.
type QuotaResult struct {
	Allowed   bool   `json:"allowed"`
	Metric    string `json:"metric"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// CheckQuota compares current-period usage of a metric against the
// plan limit. A limit of -1 always allows. Pure read, no side effects.
func CheckQuota(ctx context.Context, st storage.Store, orgID uuid.UUID, limits *models.PlanLimits, metric models.Metric, now time.Time) (*QuotaResult, error) {
	counter, err := st.GetOrCreateUsageCounter(ctx, orgID, now)
	if err != nil {
		return nil, fmt.Errorf("get usage counter: %w", err)
	}

	used := counter.Used(metric)
	limit := limits.Limit(metric)

	result := &QuotaResult{
		Metric: string(metric),
		Used:   used,
		Limit:  limit,
	}

	if limit == models.UnlimitedLimit {
		result.Allowed = true
		result.Remaining = models.UnlimitedLimit
		return result, nil
	}

	result.Allowed = used < limit
	result.Remaining = limit - used
	if result.Remaining < 0 {
		result.Remaining = 0
	}

	return result, nil
}

// Denial converts a failed quota check into its denial.
func (r *QuotaResult) Denial() *Denial {
	return &Denial{
		Code:    DenialQuota,
		Message: fmt.Sprintf("Monthly %s limit reached (%d/%d used)", r.Metric, r.Used, r.Limit),
		Context: models.Variables{
			"metric": r.Metric,
			"used":   r.Used,
			"limit":  r.Limit,
		},
	}
}
