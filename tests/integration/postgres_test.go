//go:build integration

package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/platinummonkey/beacon/pkg/config"
	"github.com/platinummonkey/beacon/pkg/datastore"
	"github.com/platinummonkey/beacon/pkg/health"
	"github.com/platinummonkey/beacon/pkg/metrics"
	"github.com/platinummonkey/beacon/pkg/monitor"
)

// setupPostgres starts a PostgreSQL container and returns an open pool.
// The container is terminated when the test ends.
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker/Podman not available, skipping integration tests")
	}
	provider.Close()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("beacon_test"),
		postgres.WithUsername("beacon"),
		postgres.WithPassword("beacon_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := datastore.OpenSQL(ctx, datastore.SQLConfig{
		Driver:   "postgres",
		URL:      connStr,
		MaxConns: 5,
		Timeout:  10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLProbe_Postgres(t *testing.T) {
	db := setupPostgres(t)

	res := (&health.SQLProbe{DB: db, DegradedLatency: time.Second}).Check(context.Background())
	assert.Equal(t, health.StatusHealthy, res.Status, res.Message)
	assert.Equal(t, "database", res.Name)
}

func TestMonitor_MeasuresPostgresAccess(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	cfg := config.Default()
	cfg.Export.Directory = t.TempDir()
	cfg.Health.WritableDir = t.TempDir()
	mon, err := monitor.New(ctx, cfg, monitor.Options{DB: db})
	require.NoError(t, err)
	defer mon.Stop(ctx)

	_, err = db.ExecContext(ctx, `CREATE TABLE users (id SERIAL PRIMARY KEY, name TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO users (name) VALUES ('ada'), ('grace'), ('linus')`)
	require.NoError(t, err)

	names, err := metrics.MeasureDataAccess(ctx, mon.Recorder(), "db.users.list", func(ctx context.Context) ([]string, error) {
		rows, err := db.QueryContext(ctx, `SELECT name FROM users ORDER BY id`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var out []string
		for rows.Next() {
			var n string
			if err := rows.Scan(&n); err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, rows.Err()
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ada", "grace", "linus"}, names)

	_, err = metrics.MeasureDataAccess(ctx, mon.Recorder(), "db.users.missing", func(ctx context.Context) (int, error) {
		var n int
		err := db.QueryRowContext(ctx, `SELECT count(*) FROM no_such_table`).Scan(&n)
		return n, err
	}, nil)
	require.Error(t, err)

	da := mon.Recorder().DataAccessMetrics()
	require.Len(t, da, 2)
	assert.Equal(t, "users", da[0].Category)
	assert.Equal(t, 3, da[0].RecordCount)
	assert.True(t, da[0].Success)
	assert.False(t, da[1].Success)

	snap := mon.CollectSnapshot(ctx)
	assert.Equal(t, health.StatusHealthy, snap.Health.Status)
	assert.Equal(t, 2, snap.Performance.Database.TotalQueries)
	assert.Equal(t, 1, snap.Performance.Database.Failures)
}
