package admission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

const testJobURL = "https://jobs.acme.com/posting/123"

func TestTryClaimUnclaimed(t *testing.T) {
	st := storage.NewMemoryStore()
	m := NewClaimManager(0)
	orgID := uuid.New()
	alice := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	result, err := m.TryClaim(context.Background(), st, orgID, testJobURL, alice, "Alice", now)
	require.NoError(t, err)

	assert.True(t, result.Granted)
	require.NotNil(t, result.Claim)
	assert.Equal(t, alice, result.Claim.HolderID)
	assert.Equal(t, now.Add(models.ClaimTTL), result.Claim.ExpiresAt)
}

func TestTryClaimHeldByOther(t *testing.T) {
	st := storage.NewMemoryStore()
	m := NewClaimManager(0)
	orgID := uuid.New()
	alice, bob := uuid.New(), uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	_, err := m.TryClaim(context.Background(), st, orgID, testJobURL, alice, "Alice", now)
	require.NoError(t, err)

	result, err := m.TryClaim(context.Background(), st, orgID, testJobURL, bob, "Bob", now.Add(time.Hour))
	require.NoError(t, err)

	assert.False(t, result.Granted)
	assert.Equal(t, "Alice", result.HeldBy)

	denial := result.Denial()
	assert.Equal(t, DenialClaimed, denial.Code)
	assert.Contains(t, denial.Message, "Alice")
}

func TestTryClaimIdempotentReclaim(t *testing.T) {
	st := storage.NewMemoryStore()
	m := NewClaimManager(0)
	orgID := uuid.New()
	alice := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	first, err := m.TryClaim(context.Background(), st, orgID, testJobURL, alice, "Alice", now)
	require.NoError(t, err)

	// Re-claim by the holder refreshes the TTL and keeps the row.
	later := now.Add(6 * time.Hour)
	second, err := m.TryClaim(context.Background(), st, orgID, testJobURL, alice, "Alice", later)
	require.NoError(t, err)

	assert.True(t, second.Granted)
	assert.Equal(t, first.Claim.ID, second.Claim.ID)
	assert.Equal(t, later.Add(models.ClaimTTL), second.Claim.ExpiresAt)
}

func TestTryClaimExpiredTakeover(t *testing.T) {
	st := storage.NewMemoryStore()
	m := NewClaimManager(0)
	orgID := uuid.New()
	alice, bob := uuid.New(), uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	_, err := m.TryClaim(context.Background(), st, orgID, testJobURL, alice, "Alice", now)
	require.NoError(t, err)

	// Past the TTL the row is dead weight and any member may take over.
	after := now.Add(models.ClaimTTL + time.Minute)
	result, err := m.TryClaim(context.Background(), st, orgID, testJobURL, bob, "Bob", after)
	require.NoError(t, err)

	assert.True(t, result.Granted)
	assert.Equal(t, bob, result.Claim.HolderID)
}

func TestHolder(t *testing.T) {
	st := storage.NewMemoryStore()
	m := NewClaimManager(0)
	orgID := uuid.New()
	alice := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	holder, err := m.Holder(context.Background(), st, orgID, testJobURL, now)
	require.NoError(t, err)
	assert.Nil(t, holder)

	_, err = m.TryClaim(context.Background(), st, orgID, testJobURL, alice, "Alice", now)
	require.NoError(t, err)

	holder, err = m.Holder(context.Background(), st, orgID, testJobURL, now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, alice, holder.HolderID)

	// Expired claims read as unclaimed.
	holder, err = m.Holder(context.Background(), st, orgID, testJobURL, now.Add(models.ClaimTTL+time.Minute))
	require.NoError(t, err)
	assert.Nil(t, holder)
}

func TestRelease(t *testing.T) {
	st := storage.NewMemoryStore()
	m := NewClaimManager(0)
	orgID := uuid.New()
	alice := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	_, err := m.TryClaim(context.Background(), st, orgID, testJobURL, alice, "Alice", now)
	require.NoError(t, err)

	require.NoError(t, m.Release(context.Background(), st, orgID, testJobURL))

	_, err = st.GetClaim(context.Background(), orgID, testJobURL)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClaimManagerCustomTTL(t *testing.T) {
	st := storage.NewMemoryStore()
	m := NewClaimManager(2 * time.Hour)
	orgID := uuid.New()
	alice := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	result, err := m.TryClaim(context.Background(), st, orgID, testJobURL, alice, "Alice", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour), result.Claim.ExpiresAt)
}
