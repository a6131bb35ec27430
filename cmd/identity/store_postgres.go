package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tasker/cmd/identity/ids"
	"tasker/cmd/internal/pgutil"
)

// PostgresStore implements identity persistence over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Schema/table identifiers are quoted with pgx.Identifier.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the Postgres schema used by the store (default "public").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		v, err := pgutil.CheckSchema(schema)
		if err != nil {
			return fmt.Errorf("identity: %w", err)
		}
		s.schema = v
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: pgutil.DefaultSchema,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const userColumns = `id::text, email, email_norm, name, created_at, updated_at`

// CreateUser inserts a new user row.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	email, name, now, err := in.check(op)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:        ids.NewID(),
		Email:     email,
		EmailNorm: NormalizeEmail(email),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+pgutil.Ident(s.schema, "users")+` (
		     id, email, email_norm, password_hash, name, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		u.ID, u.Email, u.EmailNorm, in.PasswordHash, u.Name, now,
	)
	if err != nil {
		if c, ok := pgutil.UniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: conflictField(c)}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserAuthByEmail loads a user and its password digest by (normalized) email.
func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	norm := NormalizeEmail(email)
	if norm == "" {
		return UserAuth{}, invalid(op, "email is required")
	}

	var ua UserAuth
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, password_hash
		   FROM `+pgutil.Ident(s.schema, "users")+`
		  WHERE email_norm = $1`,
		norm,
	).Scan(
		&ua.ID, &ua.Email, &ua.EmailNorm, &ua.Name, &ua.CreatedAt, &ua.UpdatedAt,
		&ua.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
		}
		return UserAuth{}, fmt.Errorf("%s: %w", op, err)
	}
	ua.CreatedAt, ua.UpdatedAt = ua.CreatedAt.UTC(), ua.UpdatedAt.UTC()
	return ua, nil
}

// GetUserByID loads the public user projection.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if !ids.ValidID(id) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+`
		   FROM `+pgutil.Ident(s.schema, "users")+`
		  WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.EmailNorm, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	u.CreatedAt, u.UpdatedAt = u.CreatedAt.UTC(), u.UpdatedAt.UTC()
	return u, nil
}

// Ping checks pool connectivity; readiness probes use it.
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func conflictField(constraint string) string {
	switch constraint {
	case "uq_users_email_norm":
		return "email"
	default:
		return "unique"
	}
}
