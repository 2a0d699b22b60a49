package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/airdrop-paywall/internal/migrations"
)

var (
	pgOnce      sync.Once
	pgContainer *postgres.PostgresContainer
	pgDSN       string
	pgErr       error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func startPostgres() {
	defer func() {
		if r := recover(); r != nil {
			pgErr = fmt.Errorf("start postgres: %v", r)
		}
	}()
	ctx := context.Background()
	pgContainer, pgErr = postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if pgErr != nil {
		return
	}
	pgDSN, pgErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
}

func setupSQLite(t *testing.T) *Storage {
	t.Helper()
	storage, err := New(DriverSQLite, "file:"+filepath.Join(t.TempDir(), "paywall.db"))
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB.DB, DriverSQLite))
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func setupPostgres(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	pgOnce.Do(startPostgres)
	if pgErr != nil {
		t.Skipf("postgres container unavailable: %v", pgErr)
	}

	storage, err := New(DriverPostgres, pgDSN)
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB.DB, DriverPostgres))
	_, err = storage.DB.Exec(`TRUNCATE users, consumed_transactions`)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

// forEachBackend прогоняет тест на каждом поддерживаемом драйвере.
func forEachBackend(t *testing.T, fn func(t *testing.T, s *Storage)) {
	t.Run(DriverSQLite, func(t *testing.T) { fn(t, setupSQLite(t)) })
	t.Run(DriverPostgres, func(t *testing.T) { fn(t, setupPostgres(t)) })
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hashOf(c byte) string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = c
	}
	return string(b)
}
