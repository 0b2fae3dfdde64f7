package admission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

// FindDuplicate looks up a prior run for the same (organization,
// job URL), regardless of its status. Returns nil when no run exists.
// Pure read.
func FindDuplicate(ctx context.Context, st storage.Store, orgID uuid.UUID, jobURL string) (*models.Run, error) {
	run, err := st.GetRunByJobURL(ctx, orgID, jobURL)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find duplicate run: %w", err)
	}
	return run, nil
}

// DuplicateDenial builds the denial for an existing run. It points the
// caller at the prior work rather than reporting an error.
func DuplicateDenial(run *models.Run) *Denial {
	return &Denial{
		Code:    DenialDuplicate,
		Message: fmt.Sprintf("A run for this job already exists (status: %s)", run.Status),
		Context: models.Variables{
			"runId":     run.ID,
			"createdBy": run.CreatedBy,
			"createdAt": run.CreatedAt,
			"status":    run.Status,
		},
	}
}
