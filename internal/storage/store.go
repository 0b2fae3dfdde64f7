package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidData  = errors.New("invalid data")

	// ErrLimitReached means a conditional counter increment found the
	// ceiling already hit and made no change.
	ErrLimitReached = errors.New("limit reached")
)

// Store defines the storage interface
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// LockOrganization takes the per-organization critical section for
	// the remainder of the current transaction. Valid only inside a
	// transaction; the admission pipeline serializes on it.
	LockOrganization(ctx context.Context, id uuid.UUID) error

	// Organization methods
	CreateOrganization(ctx context.Context, org *models.Organization) error
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, org *models.Organization) error
	ListOrganizations(ctx context.Context, limit, offset int) ([]*models.Organization, int64, error)

	// Member methods
	UpsertMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error)
	ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Member, int64, error)

	// Plan limit methods
	GetPlanLimits(ctx context.Context, plan string) (*models.PlanLimits, error)

	// Usage counter methods. Counters are lazily created for the
	// billing period containing now.
	GetOrCreateUsageCounter(ctx context.Context, orgID uuid.UUID, now time.Time) (*models.UsageCounter, error)
	// IncrementUsage bumps a metric for the current period. When limit
	// is not models.UnlimitedLimit the update is conditional on
	// used+amount <= limit and returns ErrLimitReached otherwise.
	IncrementUsage(ctx context.Context, orgID uuid.UUID, metric models.Metric, amount, limit int, now time.Time) error
	// SetUsageRuns overwrites runs_used for a period (consistency sweep).
	SetUsageRuns(ctx context.Context, orgID uuid.UUID, periodStart time.Time, runsUsed int) error
	// ListActiveOrgIDs returns organizations with a counter row for the
	// period starting at periodStart.
	ListActiveOrgIDs(ctx context.Context, periodStart time.Time) ([]uuid.UUID, error)

	// Warmup methods
	GetOrCreateWarmupStatus(ctx context.Context, orgID uuid.UUID, now time.Time) (*models.WarmupStatus, error)
	SaveWarmupStatus(ctx context.Context, status *models.WarmupStatus) error
	// IncrementWarmup bumps the daily and total counters for an action,
	// resetting stale daily counters first.
	IncrementWarmup(ctx context.Context, orgID uuid.UUID, action models.WarmupAction, amount int, now time.Time) error

	// Job claim methods
	GetClaim(ctx context.Context, orgID uuid.UUID, jobURL string) (*models.JobClaim, error)
	UpsertClaim(ctx context.Context, claim *models.JobClaim) error
	DeleteClaim(ctx context.Context, orgID uuid.UUID, jobURL string) error
	DeleteClaimByID(ctx context.Context, orgID, claimID uuid.UUID) error
	ListClaims(ctx context.Context, orgID uuid.UUID) ([]*models.JobClaim, error)
	DeleteClaimsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Blacklist methods
	CreateBlacklistEntry(ctx context.Context, entry *models.BlacklistEntry) error
	DeleteBlacklistEntry(ctx context.Context, orgID, id uuid.UUID) error
	ListBlacklistEntries(ctx context.Context, orgID uuid.UUID) ([]*models.BlacklistEntry, error)

	// Run methods
	CreateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, orgID, id uuid.UUID) (*models.Run, error)
	GetRunByJobURL(ctx context.Context, orgID uuid.UUID, jobURL string) (*models.Run, error)
	ListRuns(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Run, int64, error)
	UpdateRun(ctx context.Context, run *models.Run) error
	// AddRunProgress adds prospect/invite deltas to a run's totals.
	AddRunProgress(ctx context.Context, orgID, runID uuid.UUID, prospects, invites int) error
	// ListQueuedRunsBefore returns runs still queued whose creation is
	// older than the cutoff (handoff re-dispatch).
	ListQueuedRunsBefore(ctx context.Context, cutoff time.Time) ([]*models.Run, error)
	CountRunsInPeriod(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (int, error)

	// Close the store
	Close() error
}
