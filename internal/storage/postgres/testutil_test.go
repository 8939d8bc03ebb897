package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Skythrill256/yield-ranker-sub006/internal/storage/migrations"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage/postgres"
)

// newTestPool starts a throwaway Postgres, applies the embedded schema and
// tears everything down with the test.
func newTestPool(t *testing.T) *postgres.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres integration test needs docker")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("yieldrank"),
		tcpostgres.WithUsername("yieldrank"),
		tcpostgres.WithPassword("yieldrank"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPoolWithOptions(ctx, dsn, postgres.PoolOptions{MaxConns: 4})
	require.NoError(t, err, "connect to postgres")
	t.Cleanup(pool.Close)

	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	require.NoError(t, err, "apply postgres migrations")
	require.NotEmpty(t, applied)

	again, err := migrations.RunPostgresMigrations(ctx, pool)
	require.NoError(t, err)
	require.Empty(t, again, "migrations must be recorded")

	return pool
}

func ptr[T any](v T) *T {
	return &v
}
