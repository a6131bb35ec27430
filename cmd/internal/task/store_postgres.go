package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tasker/cmd/identity/ids"
	"tasker/cmd/internal/pgutil"
)

// PostgresStore implements Store over the tasks table.
// The pgx pool is owned by the caller; this store must NOT close it.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore builds a store in the default schema.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, table: pgutil.Ident(pgutil.DefaultSchema, "tasks")}
}

const taskColumns = `id::text, title, status::text, user_id::text, created_at, updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var (
		t      Task
		status string
	)
	if err := row.Scan(&t.ID, &t.Title, &status, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Task{}, err
	}
	t.Status = Status(status)
	t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
	return t, nil
}

func (s *PostgresStore) Create(ctx context.Context, t Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table+` (id, title, status, user_id, created_at, updated_at)
		VALUES ($1, $2, $3::task_status, $4, $5, $6)
	`, t.ID, t.Title, string(t.Status), t.UserID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if pgutil.IsForeignKeyViolation(err) {
			return fmt.Errorf("task: owner does not exist: %w", ErrNotFound)
		}
		if pgutil.IsInvalidTextRepresentation(err) {
			return &InputError{Field: "status", Message: "is not a known status"}
		}
		return fmt.Errorf("task: create: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, owner string) ([]Task, error) {
	if !ids.ValidID(owner) {
		return []Task{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM `+s.table+`
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	defer rows.Close()

	out := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("task: list: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, owner, id string) (Task, error) {
	if !ids.ValidID(owner) || !ids.ValidID(id) {
		return Task{}, ErrNotFound
	}
	t, err := scanTask(s.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM `+s.table+`
		WHERE id = $1 AND user_id = $2
	`, id, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, fmt.Errorf("task: get: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Update(ctx context.Context, owner, id string, p Patch) (Task, error) {
	if !ids.ValidID(owner) || !ids.ValidID(id) {
		return Task{}, ErrNotFound
	}
	var status *string
	if p.Status != nil {
		v := string(*p.Status)
		status = &v
	}

	t, err := scanTask(s.pool.QueryRow(ctx, `
		UPDATE `+s.table+`
		SET title      = COALESCE($3, title),
		    status     = COALESCE($4::task_status, status),
		    updated_at = $5
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		id, owner, p.Title, status, p.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		if pgutil.IsInvalidTextRepresentation(err) {
			return Task{}, &InputError{Field: "status", Message: "is not a known status"}
		}
		return Task{}, fmt.Errorf("task: update: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Delete(ctx context.Context, owner, id string) error {
	if !ids.ValidID(owner) || !ids.ValidID(id) {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("task: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
