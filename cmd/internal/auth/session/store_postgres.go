package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tasker/cmd/identity/ids"
	"tasker/cmd/internal/pgutil"
	"tasker/cmd/security/token"
)

// PostgresStore implements Store using PostgreSQL (refresh_tokens).
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore creates a Postgres-backed refresh record store in the default schema.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, table: pgutil.Ident(pgutil.DefaultSchema, "refresh_tokens")}
}

// Create inserts a new record.
func (s *PostgresStore) Create(ctx context.Context, rec Record) error {
	return insertRecord(ctx, s.pool, s.table, rec)
}

// GetActive loads an unrevoked record by id and owner.
func (s *PostgresStore) GetActive(ctx context.Context, id, userID string) (Record, error) {
	if !ids.ValidID(id) || !ids.ValidID(userID) {
		return Record{}, ErrSessionNotFound
	}

	var rec Record
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, user_id::text, token_hash, expires_at, revoked_at, created_at
		FROM `+s.table+`
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
	`, id, userID).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.TokenHash,
		&rec.ExpiresAt,
		&rec.RevokedAt,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// RevokeAndReplace performs rotation in one transaction.
//
// The conditional UPDATE is the serialization point: when two refreshes race on
// the same record, the second UPDATE blocks on the row lock, then re-evaluates
// "revoked_at IS NULL" against the committed row and matches nothing.
func (s *PostgresStore) RevokeAndReplace(ctx context.Context, oldID string, now time.Time, next Record) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE `+s.table+`
		SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`, oldID, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrSessionRevoked
	}

	if err := insertRecord(ctx, tx, s.table, next); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RevokeMatching locks the candidate row, compares hashes in constant time, then revokes it.
func (s *PostgresStore) RevokeMatching(ctx context.Context, id, userID, tokenHash string, now time.Time) (bool, error) {
	if !ids.ValidID(id) || !ids.ValidID(userID) {
		return false, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stored string
	err = tx.QueryRow(ctx, `
		SELECT token_hash
		FROM `+s.table+`
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
		FOR UPDATE
	`, id, userID).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !token.EqualHex64(stored, tokenHash) {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `UPDATE `+s.table+` SET revoked_at = $2 WHERE id = $1`, id, now); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRecord(ctx context.Context, db execer, table string, rec Record) error {
	_, err := db.Exec(ctx, `
		INSERT INTO `+table+` (id, user_id, token_hash, expires_at, revoked_at, created_at)
		VALUES ($1, $2, $3, $4, NULL, $5)
	`, rec.ID, rec.UserID, rec.TokenHash, rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		if pgutil.IsForeignKeyViolation(err) {
			return fmt.Errorf("session: insert record: %w", ErrUserNotFound)
		}
		return fmt.Errorf("session: insert record: %w", err)
	}
	return nil
}
