// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alchemorsel/nutrilabel/internal/infrastructure/config"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/persistence/postgres"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/persistence/sqlite"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// IntegrationEnv enables tests that start containers
const IntegrationEnv = "NUTRILABEL_INTEGRATION"

// SkipUnlessIntegration skips container-backed tests unless enabled
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() || os.Getenv(IntegrationEnv) == "" {
		t.Skipf("set %s=1 to run container-backed tests", IntegrationEnv)
	}
}

// SetupSQLite returns a migrated in-memory database closed at test end
func SetupSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := sqlite.SetupDatabase("", logger.Default.LogMode(logger.Silent))
	require.NoError(t, err, "Failed to open in-memory database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Username string
	Password string
}

// DefaultDatabaseConfig returns the default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "postgres:15-alpine",
		Database: "nutrilabel_test",
		Username: "test_user",
		Password: "test_password",
	}
}

// SetupPostgres starts a PostgreSQL container and returns a migrated
// connection to it. The container is terminated at test end.
func SetupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	SkipUnlessIntegration(t)

	cfg := DefaultDatabaseConfig()
	ctx := context.Background()
	port := nat.Port("5432/tcp")

	dsnFor := func(host string, p nat.Port) string {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, p.Port(), cfg.Username, cfg.Password, cfg.Database)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.Image,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"POSTGRES_DB":       cfg.Database,
				"POSTGRES_USER":     cfg.Username,
				"POSTGRES_PASSWORD": cfg.Password,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
				wait.ForSQL(port, "pgx", dsnFor),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	db, err := postgres.ConnectDSN(ctx, dsnFor(host, mapped), config.DatabaseConfig{
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		LogLevel:     "silent",
		AutoMigrate:  true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err, "Failed to connect to postgres container")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SetupRedis starts a Redis container and returns a configuration for it
func SetupRedis(t *testing.T) *config.RedisConfig {
	t.Helper()
	SkipUnlessIntegration(t)

	ctx := context.Background()
	port := nat.Port("6379/tcp")

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{string(port)},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start redis container")

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	return &config.RedisConfig{
		Enabled:      true,
		Host:         host,
		Port:         mapped.Int(),
		PoolSize:     5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
