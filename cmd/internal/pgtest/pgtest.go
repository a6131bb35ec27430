//go:build integration

// Package pgtest starts a throwaway PostgreSQL for integration tests.
//
// Set TASKER_TEST_DATABASE_URL to reuse an existing database instead of
// starting a container. Either way the schema is migrated once per test binary.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"tasker/cmd/internal/migrations"
)

var (
	once      sync.Once
	dsn       string
	container tc.Container
	setupErr  error
)

// Main wraps m.Run and tears the container down afterwards.
func Main(m *testing.M) {
	code := m.Run()
	if container != nil {
		_ = container.Terminate(context.Background())
	}
	os.Exit(code)
}

func setup() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	if raw := strings.TrimSpace(os.Getenv("TASKER_TEST_DATABASE_URL")); raw != "" {
		dsn = raw
	} else {
		c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
			ContainerRequest: tc.ContainerRequest{
				Image:        "postgres:16-alpine",
				ExposedPorts: []string{"5432/tcp"},
				Env: map[string]string{
					"POSTGRES_USER":     "postgres",
					"POSTGRES_PASSWORD": "password",
					"POSTGRES_DB":       "tasker_test",
				},
				WaitingFor: wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(2 * time.Minute),
			},
			Started: true,
		})
		if err != nil {
			setupErr = fmt.Errorf("start postgres: %w", err)
			return
		}
		container = c

		host, err := c.Host(ctx)
		if err != nil {
			setupErr = err
			return
		}
		port, err := c.MappedPort(ctx, "5432")
		if err != nil {
			setupErr = err
			return
		}
		dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/tasker_test?sslmode=disable", host, port.Port())
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		setupErr = fmt.Errorf("connect: %w", err)
		return
	}
	defer pool.Close()

	if err := migrations.UpPool(ctx, pool); err != nil {
		setupErr = err
	}
}

// Pool returns a fresh pool against a migrated, emptied database.
// The pool is closed when the test ends.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	once.Do(setup)
	if setupErr != nil {
		t.Fatalf("pgtest: %v", setupErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgtest: connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `TRUNCATE users, refresh_tokens, tasks CASCADE`); err != nil {
		t.Fatalf("pgtest: truncate: %v", err)
	}
	return pool
}
