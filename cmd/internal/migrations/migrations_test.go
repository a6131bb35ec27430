package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestUp_Success(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, got *sql.DB, d string, opts ...goose.OptionsFunc) error {
		if got != db {
			return errors.New("unexpected db")
		}
		if d != "sql" {
			return errors.New("unexpected dir")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	require.NoError(t, Up(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUp_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	err := Up(context.Background(), db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestUpPool_NilPool(t *testing.T) {
	require.Error(t, UpPool(context.Background(), nil))
}

func TestFS_ContainsInitMigration(t *testing.T) {
	b, err := fs.ReadFile(FS, "sql/00001_init.sql")
	require.NoError(t, err)

	s := string(b)
	require.True(t, strings.Contains(s, "-- +goose Up"))
	require.True(t, strings.Contains(s, "-- +goose Down"))
	for _, table := range []string{"users", "refresh_tokens", "tasks"} {
		require.Contains(t, s, "CREATE TABLE "+table+" (")
	}
	require.Contains(t, s, "uq_users_email_norm")
}
