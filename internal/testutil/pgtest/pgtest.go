// Package pgtest connects tests to the PostgreSQL instance named by the
// TEST_DATABASE environment variable. Tests that need it are skipped when
// the variable is unset.
package pgtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// EnvVar holds the connection string of the test database.
const EnvVar = "TEST_DATABASE"

// ConnString returns the test database connection string or skips t.
func ConnString(t testing.TB) string {
	t.Helper()
	s := os.Getenv(EnvVar)
	if s == "" {
		t.Skipf("%s not set", EnvVar)
	}
	return s
}

// ParseConfig returns a pool config that forwards server notices to t.
func ParseConfig(t testing.TB) *pgxpool.Config {
	t.Helper()
	config, err := pgxpool.ParseConfig(ConnString(t))
	require.NoError(t, err)

	config.ConnConfig.OnNotice = func(_ *pgconn.PgConn, n *pgconn.Notice) {
		t.Logf("PostgreSQL %s: %s", n.Severity, n.Message)
	}
	return config
}

// Pool opens a pool that is closed when the test ends.
func Pool(ctx context.Context, t testing.TB) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.NewWithConfig(ctx, ParseConfig(t))
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	t.Cleanup(pool.Close)
	return pool
}

// Schema creates a throwaway schema, runs ddl inside it and drops it with
// everything in it when the test ends.
func Schema(ctx context.Context, t testing.TB, pool *pgxpool.Pool, name, ddl string) {
	t.Helper()
	ident := pgx.Identifier{name}.Sanitize()
	_, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS "+ident+" CASCADE; CREATE SCHEMA "+ident)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+ident+" CASCADE")
	})

	if ddl == "" {
		return
	}
	_, err = pool.Exec(ctx, "SET search_path TO "+ident+"; "+ddl+"; RESET search_path")
	require.NoError(t, err)
}
