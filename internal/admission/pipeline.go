package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
	"github.com/recruitflow/recruitflow-server/pkg/joburl"
)

// Publisher hands admitted runs off to the external outreach executor.
type Publisher interface {
	PublishRunQueued(ctx context.Context, msg *models.RunQueuedMessage) error
}

// Pipeline combines the five admission policies into one atomic
// decision. Evaluation order is fixed: quota, warmup, claim,
// blacklist, duplicate; the first denial short-circuits. On approval
// the run insert, self-claim release and counter increments commit as
// a single transaction.
//
// All checks and the commit run under a per-organization critical
// section (a row lock on the organization), closing the
// check-then-act race between concurrent requests from the same
// organization. The counter increments are additionally conditional on
// their ceilings as a guard against writers outside the pipeline.
type Pipeline struct {
	store     storage.Store
	claims    *ClaimManager
	publisher Publisher

	now func() time.Time
}

// NewPipeline creates an admission pipeline. publisher may be nil, in
// which case admitted runs stay queued until the maintenance sweep
// re-dispatches them.
func NewPipeline(store storage.Store, claims *ClaimManager, publisher Publisher) *Pipeline {
	return &Pipeline{
		store:     store,
		claims:    claims,
		publisher: publisher,
		now:       time.Now,
	}
}

// Admit runs a creation request through all five policies and, if all
// pass, commits the run. A returned error means a store fault: nothing
// was mutated and the caller may retry the whole request.
func (p *Pipeline) Admit(ctx context.Context, req *Request) (*Result, error) {
	jobURL, err := joburl.Normalize(req.JobURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	now := p.now().UTC()

	tx, err := p.store.BeginTx(ctx)
	if err != nil {
		pipelineErrors.Inc()
		return nil, fmt.Errorf("begin admission tx: %w", err)
	}
	defer tx.Rollback()

	result, err := p.evaluate(ctx, tx, req, jobURL, now)
	if err != nil {
		pipelineErrors.Inc()
		return nil, err
	}

	if result.Admitted() {
		if err := tx.Commit(); err != nil {
			pipelineErrors.Inc()
			return nil, fmt.Errorf("commit admission: %w", err)
		}
		p.handoff(ctx, result.Run)
	}

	recordDecision(result)
	return result, nil
}

// evaluate runs the policy checks and, on approval, the commit-phase
// mutations, all against the transaction store.
func (p *Pipeline) evaluate(ctx context.Context, tx storage.Store, req *Request, jobURL string, now time.Time) (*Result, error) {
	// Serialize concurrent admissions for the same organization.
	if err := tx.LockOrganization(ctx, req.OrgID); err != nil {
		return nil, fmt.Errorf("lock organization: %w", err)
	}

	org, err := tx.GetOrganization(ctx, req.OrgID)
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}

	limits, err := tx.GetPlanLimits(ctx, org.Plan)
	if err != nil {
		return nil, fmt.Errorf("get plan limits for %q: %w", org.Plan, err)
	}

	// 1. Monthly quota
	quota, err := CheckQuota(ctx, tx, req.OrgID, limits, models.MetricRuns, now)
	if err != nil {
		return nil, err
	}
	if !quota.Allowed {
		return &Result{Denial: quota.Denial()}, nil
	}

	// 2. Warmup throttle
	warmup, err := CheckWarmup(ctx, tx, req.OrgID, models.WarmupActionRun, now)
	if err != nil {
		return nil, err
	}
	if !warmup.Allowed {
		return &Result{Denial: warmup.Denial()}, nil
	}

	// 3. Job claim: deny only when held by someone else
	holder, err := p.claims.Holder(ctx, tx, req.OrgID, jobURL, now)
	if err != nil {
		return nil, err
	}
	if holder != nil && holder.HolderID != req.MemberID {
		return &Result{Denial: (&ClaimResult{HeldBy: holder.HolderName, Claim: holder}).Denial()}, nil
	}

	// 4. Blacklist
	entry, err := CheckBlacklist(ctx, tx, req.OrgID, req.Company, jobURL)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return &Result{Denial: BlacklistDenial(entry)}, nil
	}

	// 5. Duplicate detection
	dup, err := FindDuplicate(ctx, tx, req.OrgID, jobURL)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return &Result{Denial: DuplicateDenial(dup)}, nil
	}

	// Commit phase: run insert, claim release, counter increments.
	run := &models.Run{
		OrganizationID: req.OrgID,
		CreatedBy:      req.MemberID,
		JobURL:         jobURL,
		Title:          req.Title,
		Company:        req.Company,
		Status:         models.RunStatusQueued,
	}

	if err := tx.CreateRun(ctx, run); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Lost a race with another writer; same answer as step 5,
			// pointing at the run that won.
			winner, lookupErr := tx.GetRunByJobURL(ctx, req.OrgID, jobURL)
			if lookupErr != nil {
				return nil, fmt.Errorf("get winning run: %w", lookupErr)
			}
			return &Result{Denial: DuplicateDenial(winner)}, nil
		}
		return nil, fmt.Errorf("create run: %w", err)
	}

	// The soft lock's job ends where the duplicate record begins.
	if err := p.claims.Release(ctx, tx, req.OrgID, jobURL); err != nil {
		return nil, fmt.Errorf("release claim: %w", err)
	}

	if err := tx.IncrementUsage(ctx, req.OrgID, models.MetricRuns, 1, limits.RunsLimit, now); err != nil {
		if errors.Is(err, storage.ErrLimitReached) {
			return &Result{Denial: quota.Denial()}, nil
		}
		return nil, fmt.Errorf("increment usage: %w", err)
	}

	if err := tx.IncrementWarmup(ctx, req.OrgID, models.WarmupActionRun, 1, now); err != nil {
		return nil, fmt.Errorf("increment warmup: %w", err)
	}

	return &Result{Run: run}, nil
}

// handoff publishes the queued run to the outreach executor. Publish
// failures are fail-open: the run stays queued and the maintenance
// sweep re-dispatches it.
func (p *Pipeline) handoff(ctx context.Context, run *models.Run) {
	if p.publisher == nil {
		return
	}

	msg := &models.RunQueuedMessage{
		RunID:          run.ID,
		OrganizationID: run.OrganizationID,
		CreatedBy:      run.CreatedBy,
		JobURL:         run.JobURL,
		Title:          run.Title,
		Company:        run.Company,
		QueuedAt:       run.CreatedAt,
	}

	if err := p.publisher.PublishRunQueued(ctx, msg); err != nil {
		log.Warn().Err(err).
			Str("run_id", run.ID.String()).
			Msg("Failed to publish run handoff, leaving queued for re-dispatch")
	}
}
