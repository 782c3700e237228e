package license

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestStore starts a PostgreSQL container and opens a store against it.
// The schema is applied by NewPostgresStore itself.
func setupTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	store, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err, "failed to open store")

	t.Cleanup(func() {
		store.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
	return store
}

func TestPostgresPurchaseAndStatus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	lic, err := store.Purchase(ctx, TierMonthly)
	require.NoError(t, err)
	assert.True(t, keyPattern.MatchString(lic.Key))
	assert.Equal(t, TierMonthly, lic.Tier)
	assert.False(t, lic.Revoked)
	assert.InDelta(t, 30*24*time.Hour, lic.ExpiresAt.Sub(lic.CreatedAt), float64(time.Minute))

	status, err := store.Status(ctx, lic.Key)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, TierMonthly, status.Tier)
	require.NotNil(t, status.ExpiresAt)
	assert.WithinDuration(t, lic.ExpiresAt, *status.ExpiresAt, time.Second)
}

func TestPostgresStatusUnknownKey(t *testing.T) {
	store := setupTestStore(t)

	status, err := store.Status(context.Background(), "PLS-0000-0000-0000-0000-0000")
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.Empty(t, status.Tier)
	assert.Nil(t, status.ExpiresAt)
}

func TestPostgresPurchaseInvalidTier(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Purchase(context.Background(), "forever")
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestPostgresRevokeExpired(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	live, err := store.Purchase(ctx, TierYearly)
	require.NoError(t, err)

	// Insert an already-expired row directly; Purchase cannot create one.
	expiredKey, err := GenerateKey()
	require.NoError(t, err)
	_, err = store.pool.Exec(ctx,
		`INSERT INTO licenses (license_key, tier, expires_at) VALUES ($1, $2, NOW() - INTERVAL '1 day')`,
		expiredKey, TierMonthly)
	require.NoError(t, err)

	n, err := store.RevokeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	status, err := store.Status(ctx, expiredKey)
	require.NoError(t, err)
	assert.False(t, status.Active)

	status, err = store.Status(ctx, live.Key)
	require.NoError(t, err)
	assert.True(t, status.Active)

	n, err = store.RevokeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
