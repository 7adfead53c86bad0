package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	healthcheck "github.com/vladislavdragonenkov/orderdesk/internal/health"
)

const testSeed = `
partners:
  - id: partner-1
    name: Toko Maju
products:
  - id: product-1
    name: Kopi Bubuk
    buyPrice: "10000"
    sellPrice: "12500"
    unit: pack
`

func writeSeed(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSeed), 0o600))
	return path
}

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	t.Parallel()

	deps, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverMemory,
		SeedFile:      writeSeed(t),
	}, log.WithField("test", "memory-storage"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, deps.close()) })

	require.NotNil(t, deps.repo)
	require.NotNil(t, deps.outboxRepo)

	partner, err := deps.catalog.FindPartner(context.Background(), "partner-1")
	require.NoError(t, err)
	require.NotNil(t, partner)
	require.Equal(t, "Toko Maju", partner.Name)

	check := deps.storageChecker.Check(context.Background())
	require.Equal(t, healthcheck.StatusHealthy, check.Status)
}

func TestInitRuntimeDependencies_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverPostgres,
	}, log.WithField("test", "postgres-missing-dsn"))
	require.ErrorContains(t, err, "postgres dsn is required")
}

func TestInitRuntimeDependencies_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: "redis",
	}, nil)
	require.ErrorContains(t, err, `unsupported storage driver "redis"`)
}

func TestInitRuntimeDependencies_SQLite(t *testing.T) {
	t.Parallel()

	deps, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "orderdesk.db"),
		SeedFile:      writeSeed(t),
	}, log.WithField("test", "sqlite-storage"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, deps.close()) })

	products, err := deps.catalog.FindProducts(context.Background(), []string{"product-1"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Kopi Bubuk", products[0].Name)

	check := deps.storageChecker.Check(context.Background())
	require.Equal(t, healthcheck.StatusHealthy, check.Status)
}

func TestInitRuntimeDependencies_BrokenSeedClosesStorage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("partners:\n  - name: no id\n"), 0o600))

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverMemory,
		SeedFile:      path,
	}, log.WithField("test", "broken-seed"))
	require.ErrorContains(t, err, "id is required")
}
