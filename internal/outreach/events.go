package outreach

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

// ApplyEvent applies an executor progress event to the run and the
// organization's counters. Shared by the NATS subscriber and the HTTP
// webhook surface.
//
// Counter bumps here are fail-open: they happen after the executor
// already performed the work, and a failed bump under-counts rather
// than blocking ingestion. The maintenance sweep repairs run-counter
// drift.
func ApplyEvent(ctx context.Context, st storage.Store, event *models.OutreachEvent) error {
	run, err := st.GetRun(ctx, event.OrganizationID, event.RunID)
	if err != nil {
		return fmt.Errorf("get run %s: %w", event.RunID, err)
	}

	now := time.Now().UTC()

	switch event.Type {
	case models.OutreachEventStarted:
		if run.Status == models.RunStatusQueued {
			run.Status = models.RunStatusRunning
			run.StartedAt = &now
			if err := st.UpdateRun(ctx, run); err != nil {
				return fmt.Errorf("mark run running: %w", err)
			}
		}

	case models.OutreachEventProgress:
		if err := applyProgress(ctx, st, run, event, now); err != nil {
			return err
		}

	case models.OutreachEventCompleted:
		if err := applyProgress(ctx, st, run, event, now); err != nil {
			return err
		}
		run.Status = models.RunStatusCompleted
		run.FinishedAt = &now
		if err := st.UpdateRun(ctx, run); err != nil {
			return fmt.Errorf("mark run completed: %w", err)
		}

	case models.OutreachEventFailed:
		run.Status = models.RunStatusFailed
		run.Error = event.Error
		run.FinishedAt = &now
		if err := st.UpdateRun(ctx, run); err != nil {
			return fmt.Errorf("mark run failed: %w", err)
		}

	default:
		return fmt.Errorf("%w: unknown event type %q", storage.ErrInvalidData, event.Type)
	}

	log.Debug().
		Str("run_id", event.RunID.String()).
		Str("type", string(event.Type)).
		Msg("Applied outreach event")

	return nil
}

func applyProgress(ctx context.Context, st storage.Store, run *models.Run, event *models.OutreachEvent, now time.Time) error {
	if event.ProspectsContacted == 0 && event.InvitesSent == 0 && event.MessagesSent == 0 {
		return nil
	}

	if event.ProspectsContacted > 0 || event.InvitesSent > 0 {
		if err := st.AddRunProgress(ctx, event.OrganizationID, run.ID, event.ProspectsContacted, event.InvitesSent); err != nil {
			return fmt.Errorf("add run progress: %w", err)
		}
	}

	// Usage bumps are unconditional: the work already happened.
	if event.ProspectsContacted > 0 {
		if err := st.IncrementUsage(ctx, event.OrganizationID, models.MetricProspects,
			event.ProspectsContacted, models.UnlimitedLimit, now); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID.String()).Msg("Failed to count prospects usage")
		}
	}
	if event.MessagesSent > 0 {
		if err := st.IncrementUsage(ctx, event.OrganizationID, models.MetricMessages,
			event.MessagesSent, models.UnlimitedLimit, now); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID.String()).Msg("Failed to count messages usage")
		}
	}
	if event.InvitesSent > 0 {
		if err := st.IncrementWarmup(ctx, event.OrganizationID, models.WarmupActionInvite,
			event.InvitesSent, now); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID.String()).Msg("Failed to count invites toward warmup")
		}
	}

	return nil
}
