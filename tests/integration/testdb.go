//go:build integration

// Package integration runs the marketplace stores against a real PostgreSQL
// started with testcontainers. Run with: go test -tags integration ./tests/integration/...
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/marketplace/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// server is the one container shared by every test in the package
var server *pgServer

func TestMain(m *testing.M) {
	os.Exit(runWithPostgres(m))
}

func runWithPostgres(m *testing.M) int {
	ctx := context.Background()
	srv, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		return 1
	}
	defer srv.stop()
	server = srv
	return m.Run()
}

type pgServer struct {
	container *tcpostgres.PostgresContainer
	admin     *sql.DB
	baseDSN   *url.URL
	seq       atomic.Int64
}

func startPostgres(ctx context.Context) (*pgServer, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("postgres"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return nil, err
	}

	raw, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	base, err := url.Parse(raw)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	admin, err := sql.Open("postgres", raw)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return &pgServer{container: container, admin: admin, baseDSN: base}, nil
}

func (s *pgServer) stop() {
	_ = s.admin.Close()
	if err := s.container.Terminate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "terminate postgres: %v\n", err)
	}
}

// TestDB is a freshly migrated database private to one test
type TestDB struct {
	DB   *gorm.DB
	Name string
}

// NewTestDB creates a new database on the shared server, applies the SQL
// migrations to it and drops it when the test ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	require.NotNil(t, server, "postgres server not started")

	name := fmt.Sprintf("marketplace_test_%d", server.seq.Add(1))
	_, err := server.admin.Exec("CREATE DATABASE " + name)
	require.NoError(t, err, "create database %s", name)

	dsn := *server.baseDSN
	dsn.Path = "/" + name

	sqlDB, err := sql.Open("postgres", dsn.String())
	require.NoError(t, err)
	// enough connections for the contention tests to really overlap
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)

	m, err := migration.New(sqlDB, migrationsDir(t), zap.NewNop())
	require.NoError(t, err, "create migrator")
	require.NoError(t, m.Up(), "apply migrations")

	level := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = logger.Info
	}
	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(level),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "open gorm")

	t.Cleanup(func() {
		_ = sqlDB.Close()
		if _, err := server.admin.Exec("DROP DATABASE IF EXISTS " + name + " WITH (FORCE)"); err != nil {
			t.Logf("drop database %s: %v", name, err)
		}
	})
	return &TestDB{DB: db, Name: name}
}

// migrationsDir walks up from this file to the module's migrations directory
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	for dir := filepath.Dir(file); dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	t.Fatal("migrations directory not found")
	return ""
}
