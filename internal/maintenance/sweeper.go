package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/recruitflow/recruitflow-server/internal/admission"
	"github.com/recruitflow/recruitflow-server/internal/config"
	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

// Sweeper runs the periodic consistency passes: usage reconciliation
// (commit-phase failures under-count rather than being retried by
// clients), expired-claim compaction (the request path never sweeps),
// and re-dispatch of queued runs whose handoff publish was lost.
type Sweeper struct {
	store     storage.Store
	publisher admission.Publisher
	cfg       config.MaintenanceConfig
	cron      *cron.Cron
}

// NewSweeper creates a sweeper. publisher may be nil; re-dispatch is
// then skipped.
func NewSweeper(store storage.Store, publisher admission.Publisher, cfg config.MaintenanceConfig) *Sweeper {
	if cfg.SweepTimeout <= 0 {
		cfg.SweepTimeout = 2 * time.Minute
	}
	return &Sweeper{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		cron:      cron.New(),
	}
}

// Start schedules the sweep. An empty schedule disables it.
func (s *Sweeper) Start() error {
	if s.cfg.Schedule == "" {
		log.Info().Msg("Maintenance sweeper disabled (no schedule)")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SweepTimeout)
		defer cancel()

		if err := s.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Maintenance sweep failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Info().Str("schedule", s.cfg.Schedule).Msg("Maintenance sweeper started")
	return nil
}

// Stop stops the schedule, waiting for a running sweep
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunOnce performs a single sweep
func (s *Sweeper) RunOnce(ctx context.Context) error {
	now := time.Now().UTC()

	if err := s.reconcileUsage(ctx, now); err != nil {
		return err
	}
	if err := s.compactClaims(ctx, now); err != nil {
		return err
	}
	return s.redispatchQueued(ctx, now)
}

// reconcileUsage recomputes runs_used from the runs table for every
// organization active this period and repairs drift.
func (s *Sweeper) reconcileUsage(ctx context.Context, now time.Time) error {
	periodStart := models.PeriodStart(now)
	periodEnd := models.PeriodEnd(now)

	ids, err := s.store.ListActiveOrgIDs(ctx, periodStart)
	if err != nil {
		return err
	}

	for _, orgID := range ids {
		count, err := s.store.CountRunsInPeriod(ctx, orgID, periodStart, periodEnd)
		if err != nil {
			return err
		}

		counter, err := s.store.GetOrCreateUsageCounter(ctx, orgID, now)
		if err != nil {
			return err
		}

		if counter.RunsUsed != count {
			log.Warn().
				Str("org_id", orgID.String()).
				Int("counter", counter.RunsUsed).
				Int("actual", count).
				Msg("Repairing usage counter drift")

			if err := s.store.SetUsageRuns(ctx, orgID, periodStart, count); err != nil {
				return err
			}
		}
	}

	return nil
}

// compactClaims removes claim rows expired beyond the grace period
func (s *Sweeper) compactClaims(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.cfg.ClaimGrace)

	removed, err := s.store.DeleteClaimsExpiredBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Compacted expired claims")
	}
	return nil
}

// redispatchQueued republishes handoff messages for runs stuck in
// queued state
func (s *Sweeper) redispatchQueued(ctx context.Context, now time.Time) error {
	if s.publisher == nil {
		return nil
	}

	cutoff := now.Add(-s.cfg.RedispatchAfter)
	runs, err := s.store.ListQueuedRunsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, run := range runs {
		msg := &models.RunQueuedMessage{
			RunID:          run.ID,
			OrganizationID: run.OrganizationID,
			CreatedBy:      run.CreatedBy,
			JobURL:         run.JobURL,
			Title:          run.Title,
			Company:        run.Company,
			QueuedAt:       run.CreatedAt,
		}

		if err := s.publisher.PublishRunQueued(ctx, msg); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID.String()).Msg("Re-dispatch publish failed")
			continue
		}

		log.Info().Str("run_id", run.ID.String()).Msg("Re-dispatched queued run")
	}

	return nil
}
