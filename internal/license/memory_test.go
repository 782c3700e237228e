package license

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPurchaseMonthly(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return base }

	lic, err := store.Purchase(context.Background(), TierMonthly)
	require.NoError(t, err)

	assert.True(t, keyPattern.MatchString(lic.Key))
	assert.Equal(t, TierMonthly, lic.Tier)
	assert.Equal(t, base, lic.CreatedAt)
	assert.Equal(t, base.Add(30*24*time.Hour), lic.ExpiresAt)
	assert.False(t, lic.Revoked)

	status, err := store.Status(context.Background(), lic.Key)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, TierMonthly, status.Tier)
	require.NotNil(t, status.ExpiresAt)
	assert.Equal(t, lic.ExpiresAt, *status.ExpiresAt)
}

func TestMemoryPurchaseYearly(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return base }

	lic, err := store.Purchase(context.Background(), TierYearly)
	require.NoError(t, err)
	assert.Equal(t, base.Add(365*24*time.Hour), lic.ExpiresAt)
}

func TestMemoryPurchaseInvalidTier(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Purchase(context.Background(), "weekly")
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestMemoryStatusUnknownKey(t *testing.T) {
	store := NewMemoryStore()

	status, err := store.Status(context.Background(), "PLS-DEAD-BEEF-DEAD-BEEF-0000")
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.Empty(t, status.Tier)
	assert.Nil(t, status.ExpiresAt)
}

func TestMemoryStatusExpired(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	store.Now = func() time.Time { return now }

	lic, err := store.Purchase(context.Background(), TierMonthly)
	require.NoError(t, err)

	now = base.Add(30*24*time.Hour - time.Second)
	status, err := store.Status(context.Background(), lic.Key)
	require.NoError(t, err)
	assert.True(t, status.Active)

	now = base.Add(30 * 24 * time.Hour)
	status, err = store.Status(context.Background(), lic.Key)
	require.NoError(t, err)
	assert.False(t, status.Active)
}

func TestMemoryRevokeExpired(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	store.Now = func() time.Time { return now }

	monthly, err := store.Purchase(context.Background(), TierMonthly)
	require.NoError(t, err)
	yearly, err := store.Purchase(context.Background(), TierYearly)
	require.NoError(t, err)

	now = base.Add(31 * 24 * time.Hour)
	n, err := store.RevokeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	status, err := store.Status(context.Background(), monthly.Key)
	require.NoError(t, err)
	assert.False(t, status.Active)

	status, err = store.Status(context.Background(), yearly.Key)
	require.NoError(t, err)
	assert.True(t, status.Active)

	// Second sweep finds nothing new.
	n, err = store.RevokeExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryConcurrentPurchases(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	keys := make([]string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lic, err := store.Purchase(context.Background(), TierMonthly)
			if assert.NoError(t, err) {
				keys[i] = lic.Key
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	for _, k := range keys {
		_, dup := seen[k]
		assert.False(t, dup)
		seen[k] = struct{}{}
	}
}
