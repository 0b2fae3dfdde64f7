package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

func testOrg(t *testing.T, st Store) *models.Organization {
	t.Helper()
	org := &models.Organization{
		ID:       uuid.New(),
		Name:     "Test Org",
		Plan:     "starter",
		IsActive: true,
	}
	require.NoError(t, st.CreateOrganization(context.Background(), org))
	return org
}

func TestTransactionCommit(t *testing.T) {
	st := NewMemoryStore()
	org := testOrg(t, st)
	ctx := context.Background()

	tx, err := st.BeginTx(ctx)
	require.NoError(t, err)

	run := &models.Run{
		OrganizationID: org.ID,
		CreatedBy:      uuid.New(),
		JobURL:         "https://jobs.acme.com/p/1",
		Status:         models.RunStatusQueued,
	}
	require.NoError(t, tx.CreateRun(ctx, run))
	require.NoError(t, tx.Commit())

	stored, err := st.GetRun(ctx, org.ID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.JobURL, stored.JobURL)
}

func TestTransactionRollback(t *testing.T) {
	st := NewMemoryStore()
	org := testOrg(t, st)
	ctx := context.Background()

	tx, err := st.BeginTx(ctx)
	require.NoError(t, err)

	run := &models.Run{
		OrganizationID: org.ID,
		CreatedBy:      uuid.New(),
		JobURL:         "https://jobs.acme.com/p/1",
		Status:         models.RunStatusQueued,
	}
	require.NoError(t, tx.CreateRun(ctx, run))
	require.NoError(t, tx.IncrementUsage(ctx, org.ID, models.MetricRuns, 1, models.UnlimitedLimit, time.Now()))
	require.NoError(t, tx.Rollback())

	// Nothing from the transaction survives.
	_, err = st.GetRun(ctx, org.ID, run.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	counter, err := st.GetOrCreateUsageCounter(ctx, org.ID, time.Now())
	require.NoError(t, err)
	assert.Zero(t, counter.RunsUsed)
}

func TestRollbackAfterCommitIsNoop(t *testing.T) {
	st := NewMemoryStore()
	org := testOrg(t, st)
	ctx := context.Background()

	tx, err := st.BeginTx(ctx)
	require.NoError(t, err)

	run := &models.Run{
		OrganizationID: org.ID,
		CreatedBy:      uuid.New(),
		JobURL:         "https://jobs.acme.com/p/1",
		Status:         models.RunStatusQueued,
	}
	require.NoError(t, tx.CreateRun(ctx, run))
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback())

	_, err = st.GetRun(ctx, org.ID, run.ID)
	assert.NoError(t, err)
}

func TestIncrementUsageConditional(t *testing.T) {
	st := NewMemoryStore()
	org := testOrg(t, st)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.IncrementUsage(ctx, org.ID, models.MetricRuns, 9, 10, now))
	require.NoError(t, st.IncrementUsage(ctx, org.ID, models.MetricRuns, 1, 10, now))

	// At the ceiling the increment refuses and changes nothing.
	err := st.IncrementUsage(ctx, org.ID, models.MetricRuns, 1, 10, now)
	assert.ErrorIs(t, err, ErrLimitReached)

	counter, err := st.GetOrCreateUsageCounter(ctx, org.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 10, counter.RunsUsed)

	// Unlimited bypasses the ceiling.
	require.NoError(t, st.IncrementUsage(ctx, org.ID, models.MetricProspects, 100, models.UnlimitedLimit, now))
}

func TestUsagePeriodIsolation(t *testing.T) {
	st := NewMemoryStore()
	org := testOrg(t, st)
	ctx := context.Background()
	june := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	july := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, st.IncrementUsage(ctx, org.ID, models.MetricRuns, 5, models.UnlimitedLimit, june))

	counter, err := st.GetOrCreateUsageCounter(ctx, org.ID, july)
	require.NoError(t, err)
	assert.Zero(t, counter.RunsUsed)
	assert.Equal(t, models.PeriodStart(july), counter.PeriodStart)

	counter, err = st.GetOrCreateUsageCounter(ctx, org.ID, june)
	require.NoError(t, err)
	assert.Equal(t, 5, counter.RunsUsed)
}

func TestIncrementWarmupDailyReset(t *testing.T) {
	st := NewMemoryStore()
	orgID := uuid.New()
	ctx := context.Background()
	day1 := time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 11, 1, 0, 0, 0, time.UTC)

	require.NoError(t, st.IncrementWarmup(ctx, orgID, models.WarmupActionRun, 1, day1))
	require.NoError(t, st.IncrementWarmup(ctx, orgID, models.WarmupActionInvite, 3, day1))

	// Crossing a UTC midnight resets the daily counters, totals keep.
	require.NoError(t, st.IncrementWarmup(ctx, orgID, models.WarmupActionRun, 1, day2))

	status, err := st.GetOrCreateWarmupStatus(ctx, orgID, day2)
	require.NoError(t, err)
	assert.Equal(t, 1, status.DailyRunsCreated)
	assert.Equal(t, 0, status.DailyInvitesSent)
	assert.Equal(t, 2, status.TotalRunsCreated)
	assert.Equal(t, 3, status.TotalInvitesSent)
}

func TestSaveWarmupStatusCompletedRatchet(t *testing.T) {
	st := NewMemoryStore()
	orgID := uuid.New()
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	status, err := st.GetOrCreateWarmupStatus(ctx, orgID, now)
	require.NoError(t, err)

	status.Completed = true
	require.NoError(t, st.SaveWarmupStatus(ctx, status))

	// Writing completed=false back does not un-complete.
	status.Completed = false
	require.NoError(t, st.SaveWarmupStatus(ctx, status))

	stored, err := st.GetOrCreateWarmupStatus(ctx, orgID, now)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
}

func TestCreateRunDuplicateKey(t *testing.T) {
	st := NewMemoryStore()
	org := testOrg(t, st)
	ctx := context.Background()

	run := &models.Run{
		OrganizationID: org.ID,
		CreatedBy:      uuid.New(),
		JobURL:         "https://jobs.acme.com/p/1",
		Status:         models.RunStatusQueued,
	}
	require.NoError(t, st.CreateRun(ctx, run))

	err := st.CreateRun(ctx, &models.Run{
		OrganizationID: org.ID,
		CreatedBy:      uuid.New(),
		JobURL:         "https://jobs.acme.com/p/1",
		Status:         models.RunStatusQueued,
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// Same URL in another organization is fine.
	other := testOrg(t, st)
	assert.NoError(t, st.CreateRun(ctx, &models.Run{
		OrganizationID: other.ID,
		CreatedBy:      uuid.New(),
		JobURL:         "https://jobs.acme.com/p/1",
		Status:         models.RunStatusQueued,
	}))
}

func TestDeleteClaimsExpiredBefore(t *testing.T) {
	st := NewMemoryStore()
	orgID := uuid.New()
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	stale := &models.JobClaim{
		OrganizationID: orgID,
		JobURL:         "https://jobs.acme.com/p/1",
		HolderID:       uuid.New(),
		ExpiresAt:      now.Add(-8 * 24 * time.Hour),
	}
	recent := &models.JobClaim{
		OrganizationID: orgID,
		JobURL:         "https://jobs.acme.com/p/2",
		HolderID:       uuid.New(),
		ExpiresAt:      now.Add(-time.Hour),
	}
	active := &models.JobClaim{
		OrganizationID: orgID,
		JobURL:         "https://jobs.acme.com/p/3",
		HolderID:       uuid.New(),
		ExpiresAt:      now.Add(time.Hour),
	}
	for _, c := range []*models.JobClaim{stale, recent, active} {
		require.NoError(t, st.UpsertClaim(ctx, c))
	}

	removed, err := st.DeleteClaimsExpiredBefore(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	claims, err := st.ListClaims(ctx, orgID)
	require.NoError(t, err)
	assert.Len(t, claims, 2)
}

func TestListQueuedRunsBefore(t *testing.T) {
	st := NewMemoryStore()
	org := testOrg(t, st)
	ctx := context.Background()

	oldRun := &models.Run{
		OrganizationID: org.ID,
		CreatedBy:      uuid.New(),
		JobURL:         "https://jobs.acme.com/p/1",
		Status:         models.RunStatusQueued,
	}
	require.NoError(t, st.CreateRun(ctx, oldRun))

	freshRun := &models.Run{
		OrganizationID: org.ID,
		CreatedBy:      uuid.New(),
		JobURL:         "https://jobs.acme.com/p/2",
		Status:         models.RunStatusQueued,
	}
	require.NoError(t, st.CreateRun(ctx, freshRun))

	runningRun := &models.Run{
		OrganizationID: org.ID,
		CreatedBy:      uuid.New(),
		JobURL:         "https://jobs.acme.com/p/3",
		Status:         models.RunStatusRunning,
	}
	require.NoError(t, st.CreateRun(ctx, runningRun))

	// Only queued runs older than the cutoff are returned.
	runs, err := st.ListQueuedRunsBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, models.RunStatusQueued, r.Status)
	}

	runs, err = st.ListQueuedRunsBefore(ctx, time.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestCountRunsInPeriod(t *testing.T) {
	st := NewMemoryStore()
	org := testOrg(t, st)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, u := range []string{"https://a.com/1", "https://a.com/2", "https://a.com/3"} {
		require.NoError(t, st.CreateRun(ctx, &models.Run{
			OrganizationID: org.ID,
			CreatedBy:      uuid.New(),
			JobURL:         u,
			Status:         models.RunStatusQueued,
		}))
	}

	count, err := st.CountRunsInPeriod(ctx, org.ID, models.PeriodStart(now), models.PeriodEnd(now))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestUpsertMember(t *testing.T) {
	st := NewMemoryStore()
	org := testOrg(t, st)
	ctx := context.Background()

	member := &models.Member{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Email:          "alice@example.com",
		Name:           "Alice",
		IsActive:       true,
	}
	require.NoError(t, st.UpsertMember(ctx, member))

	member.Name = "Alice B"
	require.NoError(t, st.UpsertMember(ctx, member))

	stored, err := st.GetMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice B", stored.Name)

	members, total, err := st.ListMembers(ctx, org.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, members, 1)
}
