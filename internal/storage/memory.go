package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

// memoryData holds all tables of the in-memory store.
type memoryData struct {
	organizations map[uuid.UUID]*models.Organization
	members       map[uuid.UUID]*models.Member
	planLimits    map[string]*models.PlanLimits
	usage         map[string]*models.UsageCounter // orgID|periodStart
	warmups       map[uuid.UUID]*models.WarmupStatus
	claims        map[string]*models.JobClaim // orgID|jobURL
	blacklist     map[uuid.UUID]*models.BlacklistEntry
	runs          map[uuid.UUID]*models.Run
}

// MemoryStore implements Store using in-memory maps. This
// implementation is for testing only - data is lost on restart.
//
// Transactions take the store-wide mutex for their whole lifetime and
// snapshot the data, so Rollback restores the pre-transaction state and
// LockOrganization's per-organization critical section is subsumed by
// the global lock.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData

	// set on transaction stores
	parent   *MemoryStore
	snapshot *memoryData
}

// NewMemoryStore creates a new in-memory store seeded with the default
// plan tiers.
func NewMemoryStore() *MemoryStore {
	data := &memoryData{
		organizations: make(map[uuid.UUID]*models.Organization),
		members:       make(map[uuid.UUID]*models.Member),
		planLimits:    make(map[string]*models.PlanLimits),
		usage:         make(map[string]*models.UsageCounter),
		warmups:       make(map[uuid.UUID]*models.WarmupStatus),
		claims:        make(map[string]*models.JobClaim),
		blacklist:     make(map[uuid.UUID]*models.BlacklistEntry),
		runs:          make(map[uuid.UUID]*models.Run),
	}

	data.planLimits["starter"] = &models.PlanLimits{Plan: "starter", RunsLimit: 10, ProspectsLimit: 500, MessagesLimit: 1000}
	data.planLimits["growth"] = &models.PlanLimits{Plan: "growth", RunsLimit: 50, ProspectsLimit: 2500, MessagesLimit: 5000}
	data.planLimits["scale"] = &models.PlanLimits{Plan: "scale", RunsLimit: -1, ProspectsLimit: -1, MessagesLimit: -1}

	return &MemoryStore{mu: &sync.Mutex{}, data: data}
}

// SetPlanLimits overrides a plan tier (test helper).
func (s *MemoryStore) SetPlanLimits(limits *models.PlanLimits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *limits
	s.data.planLimits[limits.Plan] = &clone
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		organizations: make(map[uuid.UUID]*models.Organization, len(d.organizations)),
		members:       make(map[uuid.UUID]*models.Member, len(d.members)),
		planLimits:    make(map[string]*models.PlanLimits, len(d.planLimits)),
		usage:         make(map[string]*models.UsageCounter, len(d.usage)),
		warmups:       make(map[uuid.UUID]*models.WarmupStatus, len(d.warmups)),
		claims:        make(map[string]*models.JobClaim, len(d.claims)),
		blacklist:     make(map[uuid.UUID]*models.BlacklistEntry, len(d.blacklist)),
		runs:          make(map[uuid.UUID]*models.Run, len(d.runs)),
	}
	for k, v := range d.organizations {
		cv := *v
		c.organizations[k] = &cv
	}
	for k, v := range d.members {
		cv := *v
		c.members[k] = &cv
	}
	for k, v := range d.planLimits {
		cv := *v
		c.planLimits[k] = &cv
	}
	for k, v := range d.usage {
		cv := *v
		c.usage[k] = &cv
	}
	for k, v := range d.warmups {
		cv := *v
		c.warmups[k] = &cv
	}
	for k, v := range d.claims {
		cv := *v
		c.claims[k] = &cv
	}
	for k, v := range d.blacklist {
		cv := *v
		c.blacklist[k] = &cv
	}
	for k, v := range d.runs {
		cv := *v
		c.runs[k] = &cv
	}
	return c
}

func usageKey(orgID uuid.UUID, periodStart time.Time) string {
	return orgID.String() + "|" + periodStart.UTC().Format("2006-01")
}

func claimKey(orgID uuid.UUID, jobURL string) string {
	return orgID.String() + "|" + jobURL
}

// BeginTx starts a transaction: the global lock is held until Commit
// or Rollback.
func (s *MemoryStore) BeginTx(ctx context.Context) (Store, error) {
	s.mu.Lock()
	return &MemoryStore{mu: s.mu, data: s.data, parent: s, snapshot: s.data.clone()}, nil
}

// Commit releases the transaction lock keeping the changes
func (s *MemoryStore) Commit() error {
	if s.parent == nil {
		return nil
	}
	s.snapshot = nil
	s.mu.Unlock()
	return nil
}

// Rollback restores the snapshot and releases the lock
func (s *MemoryStore) Rollback() error {
	if s.parent == nil || s.snapshot == nil {
		return nil
	}
	*s.parent.data = *s.snapshot
	s.snapshot = nil
	s.mu.Unlock()
	return nil
}

// lock takes the store lock outside transactions only
func (s *MemoryStore) lock() func() {
	if s.parent != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// LockOrganization verifies the organization exists; exclusion comes
// from the transaction-wide lock.
func (s *MemoryStore) LockOrganization(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.organizations[id]; !ok {
		return ErrNotFound
	}
	return nil
}

// Close closes the store
func (s *MemoryStore) Close() error {
	return nil
}

// ========== Organization Methods ==========

func (s *MemoryStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	defer s.lock()()

	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	if _, exists := s.data.organizations[org.ID]; exists {
		return ErrDuplicateKey
	}

	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now

	clone := *org
	s.data.organizations[org.ID] = &clone
	return nil
}

func (s *MemoryStore) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	defer s.lock()()

	org, ok := s.data.organizations[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *org
	return &clone, nil
}

func (s *MemoryStore) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	defer s.lock()()

	if _, ok := s.data.organizations[org.ID]; !ok {
		return ErrNotFound
	}
	org.UpdatedAt = time.Now()
	clone := *org
	s.data.organizations[org.ID] = &clone
	return nil
}

func (s *MemoryStore) ListOrganizations(ctx context.Context, limit, offset int) ([]*models.Organization, int64, error) {
	defer s.lock()()

	var orgs []*models.Organization
	for _, org := range s.data.organizations {
		clone := *org
		orgs = append(orgs, &clone)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].CreatedAt.Before(orgs[j].CreatedAt) })

	total := int64(len(orgs))
	orgs = page(orgs, limit, offset)
	return orgs, total, nil
}

// ========== Member Methods ==========

func (s *MemoryStore) UpsertMember(ctx context.Context, member *models.Member) error {
	defer s.lock()()

	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	now := time.Now()
	if existing, ok := s.data.members[member.ID]; ok {
		member.CreatedAt = existing.CreatedAt
	} else if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now

	clone := *member
	s.data.members[member.ID] = &clone
	return nil
}

func (s *MemoryStore) GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	defer s.lock()()

	member, ok := s.data.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *member
	return &clone, nil
}

func (s *MemoryStore) ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Member, int64, error) {
	defer s.lock()()

	var members []*models.Member
	for _, m := range s.data.members {
		if m.OrganizationID == orgID {
			clone := *m
			members = append(members, &clone)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })

	total := int64(len(members))
	members = page(members, limit, offset)
	return members, total, nil
}

// ========== Plan Limit Methods ==========

func (s *MemoryStore) GetPlanLimits(ctx context.Context, plan string) (*models.PlanLimits, error) {
	defer s.lock()()

	limits, ok := s.data.planLimits[plan]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *limits
	return &clone, nil
}

// ========== Usage Counter Methods ==========

func (s *MemoryStore) GetOrCreateUsageCounter(ctx context.Context, orgID uuid.UUID, now time.Time) (*models.UsageCounter, error) {
	defer s.lock()()
	counter := s.getOrCreateUsageLocked(orgID, now)
	clone := *counter
	return &clone, nil
}

func (s *MemoryStore) getOrCreateUsageLocked(orgID uuid.UUID, now time.Time) *models.UsageCounter {
	key := usageKey(orgID, models.PeriodStart(now))
	if counter, ok := s.data.usage[key]; ok {
		return counter
	}
	counter := &models.UsageCounter{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		OrganizationID: orgID,
		PeriodStart:    models.PeriodStart(now),
		PeriodEnd:      models.PeriodEnd(now),
	}
	s.data.usage[key] = counter
	return counter
}

func (s *MemoryStore) IncrementUsage(ctx context.Context, orgID uuid.UUID, metric models.Metric, amount, limit int, now time.Time) error {
	defer s.lock()()

	counter := s.getOrCreateUsageLocked(orgID, now)
	if limit != models.UnlimitedLimit && counter.Used(metric)+amount > limit {
		return ErrLimitReached
	}

	switch metric {
	case models.MetricRuns:
		counter.RunsUsed += amount
	case models.MetricProspects:
		counter.ProspectsUsed += amount
	case models.MetricMessages:
		counter.MessagesUsed += amount
	default:
		return ErrInvalidData
	}
	counter.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetUsageRuns(ctx context.Context, orgID uuid.UUID, periodStart time.Time, runsUsed int) error {
	defer s.lock()()

	counter, ok := s.data.usage[usageKey(orgID, periodStart)]
	if !ok {
		return ErrNotFound
	}
	counter.RunsUsed = runsUsed
	counter.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListActiveOrgIDs(ctx context.Context, periodStart time.Time) ([]uuid.UUID, error) {
	defer s.lock()()

	var ids []uuid.UUID
	for _, counter := range s.data.usage {
		if counter.PeriodStart.Equal(models.PeriodStart(periodStart)) {
			ids = append(ids, counter.OrganizationID)
		}
	}
	return ids, nil
}

// ========== Warmup Methods ==========

func (s *MemoryStore) GetOrCreateWarmupStatus(ctx context.Context, orgID uuid.UUID, now time.Time) (*models.WarmupStatus, error) {
	defer s.lock()()
	status := s.getOrCreateWarmupLocked(orgID, now)
	clone := *status
	return &clone, nil
}

func (s *MemoryStore) getOrCreateWarmupLocked(orgID uuid.UUID, now time.Time) *models.WarmupStatus {
	if status, ok := s.data.warmups[orgID]; ok {
		return status
	}
	today := utcDate(now)
	status := &models.WarmupStatus{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		OrganizationID: orgID,
		StartDate:      today,
		LastResetDate:  today,
	}
	s.data.warmups[orgID] = status
	return status
}

func (s *MemoryStore) SaveWarmupStatus(ctx context.Context, status *models.WarmupStatus) error {
	defer s.lock()()

	existing, ok := s.data.warmups[status.OrganizationID]
	if !ok {
		return ErrNotFound
	}

	status.UpdatedAt = time.Now()
	clone := *status
	clone.Completed = existing.Completed || status.Completed
	clone.LastResetDate = utcDate(status.LastResetDate)
	s.data.warmups[status.OrganizationID] = &clone
	return nil
}

func (s *MemoryStore) IncrementWarmup(ctx context.Context, orgID uuid.UUID, action models.WarmupAction, amount int, now time.Time) error {
	defer s.lock()()

	status := s.getOrCreateWarmupLocked(orgID, now)
	today := utcDate(now)

	if !status.LastResetDate.Equal(today) {
		status.DailyRunsCreated = 0
		status.DailyInvitesSent = 0
		status.LastResetDate = today
	}

	if action == models.WarmupActionInvite {
		status.DailyInvitesSent += amount
		status.TotalInvitesSent += amount
	} else {
		status.DailyRunsCreated += amount
		status.TotalRunsCreated += amount
	}
	status.UpdatedAt = time.Now()
	return nil
}

// ========== Job Claim Methods ==========

func (s *MemoryStore) GetClaim(ctx context.Context, orgID uuid.UUID, jobURL string) (*models.JobClaim, error) {
	defer s.lock()()

	claim, ok := s.data.claims[claimKey(orgID, jobURL)]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *claim
	return &clone, nil
}

func (s *MemoryStore) UpsertClaim(ctx context.Context, claim *models.JobClaim) error {
	defer s.lock()()

	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	now := time.Now()
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = now
	}
	claim.UpdatedAt = now

	clone := *claim
	s.data.claims[claimKey(claim.OrganizationID, claim.JobURL)] = &clone
	return nil
}

func (s *MemoryStore) DeleteClaim(ctx context.Context, orgID uuid.UUID, jobURL string) error {
	defer s.lock()()
	delete(s.data.claims, claimKey(orgID, jobURL))
	return nil
}

func (s *MemoryStore) DeleteClaimByID(ctx context.Context, orgID, claimID uuid.UUID) error {
	defer s.lock()()

	for key, claim := range s.data.claims {
		if claim.OrganizationID == orgID && claim.ID == claimID {
			delete(s.data.claims, key)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListClaims(ctx context.Context, orgID uuid.UUID) ([]*models.JobClaim, error) {
	defer s.lock()()

	var claims []*models.JobClaim
	for _, claim := range s.data.claims {
		if claim.OrganizationID == orgID {
			clone := *claim
			claims = append(claims, &clone)
		}
	}
	sort.Slice(claims, func(i, j int) bool { return claims[i].ClaimedAt.After(claims[j].ClaimedAt) })
	return claims, nil
}

func (s *MemoryStore) DeleteClaimsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	defer s.lock()()

	var removed int64
	for key, claim := range s.data.claims {
		if claim.ExpiresAt.Before(cutoff) {
			delete(s.data.claims, key)
			removed++
		}
	}
	return removed, nil
}

// ========== Blacklist Methods ==========

func (s *MemoryStore) CreateBlacklistEntry(ctx context.Context, entry *models.BlacklistEntry) error {
	defer s.lock()()

	if entry.Company == "" && entry.Domain == "" {
		return ErrInvalidData
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	clone := *entry
	s.data.blacklist[entry.ID] = &clone
	return nil
}

func (s *MemoryStore) DeleteBlacklistEntry(ctx context.Context, orgID, id uuid.UUID) error {
	defer s.lock()()

	entry, ok := s.data.blacklist[id]
	if !ok || entry.OrganizationID != orgID {
		return ErrNotFound
	}
	delete(s.data.blacklist, id)
	return nil
}

func (s *MemoryStore) ListBlacklistEntries(ctx context.Context, orgID uuid.UUID) ([]*models.BlacklistEntry, error) {
	defer s.lock()()

	var entries []*models.BlacklistEntry
	for _, entry := range s.data.blacklist {
		if entry.OrganizationID == orgID {
			clone := *entry
			entries = append(entries, &clone)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries, nil
}

// ========== Run Methods ==========

func (s *MemoryStore) CreateRun(ctx context.Context, run *models.Run) error {
	defer s.lock()()

	for _, existing := range s.data.runs {
		if existing.OrganizationID == run.OrganizationID && existing.JobURL == run.JobURL {
			return ErrDuplicateKey
		}
	}

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = models.RunStatusQueued
	}
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now

	clone := *run
	s.data.runs[run.ID] = &clone
	return nil
}

func (s *MemoryStore) GetRun(ctx context.Context, orgID, id uuid.UUID) (*models.Run, error) {
	defer s.lock()()

	run, ok := s.data.runs[id]
	if !ok || run.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	clone := *run
	return &clone, nil
}

func (s *MemoryStore) GetRunByJobURL(ctx context.Context, orgID uuid.UUID, jobURL string) (*models.Run, error) {
	defer s.lock()()

	for _, run := range s.data.runs {
		if run.OrganizationID == orgID && run.JobURL == jobURL {
			clone := *run
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListRuns(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Run, int64, error) {
	defer s.lock()()

	var runs []*models.Run
	for _, run := range s.data.runs {
		if run.OrganizationID == orgID {
			clone := *run
			runs = append(runs, &clone)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })

	total := int64(len(runs))
	runs = page(runs, limit, offset)
	return runs, total, nil
}

func (s *MemoryStore) UpdateRun(ctx context.Context, run *models.Run) error {
	defer s.lock()()

	existing, ok := s.data.runs[run.ID]
	if !ok || existing.OrganizationID != run.OrganizationID {
		return ErrNotFound
	}
	run.UpdatedAt = time.Now()
	clone := *run
	clone.CreatedAt = existing.CreatedAt
	s.data.runs[run.ID] = &clone
	return nil
}

func (s *MemoryStore) AddRunProgress(ctx context.Context, orgID, runID uuid.UUID, prospects, invites int) error {
	defer s.lock()()

	run, ok := s.data.runs[runID]
	if !ok || run.OrganizationID != orgID {
		return ErrNotFound
	}
	run.ProspectsContacted += prospects
	run.InvitesSent += invites
	run.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListQueuedRunsBefore(ctx context.Context, cutoff time.Time) ([]*models.Run, error) {
	defer s.lock()()

	var runs []*models.Run
	for _, run := range s.data.runs {
		if run.Status == models.RunStatusQueued && run.CreatedAt.Before(cutoff) {
			clone := *run
			runs = append(runs, &clone)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.Before(runs[j].CreatedAt) })
	return runs, nil
}

func (s *MemoryStore) CountRunsInPeriod(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (int, error) {
	defer s.lock()()

	count := 0
	for _, run := range s.data.runs {
		if run.OrganizationID == orgID &&
			!run.CreatedAt.Before(periodStart) && run.CreatedAt.Before(periodEnd) {
			count++
		}
	}
	return count, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
