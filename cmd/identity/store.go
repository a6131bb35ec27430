package identity

import (
	"context"
	"strings"
	"time"
)

// User is tasker's security principal. It never carries the password digest.
type User struct {
	ID        string
	Email     string
	EmailNorm string
	Name      *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserAuth is a User plus the stored password digest, returned only for login.
type UserAuth struct {
	User
	PasswordHash string
}

// CreateUserInput describes a new user. PasswordHash must already be a digest.
type CreateUserInput struct {
	Email        string
	Name         *string
	PasswordHash string
	Now          time.Time
}

// Store is the user persistence boundary.
//
// Contract:
// - Email uniqueness is enforced on the normalized form; duplicates return ConflictError{Field: "email"}.
// - Missing rows return NotFoundError{Resource: "user"}.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)
	GetUserByID(ctx context.Context, id string) (User, error)
}

func (in CreateUserInput) check(op string) (email string, name *string, now time.Time, err error) {
	email = strings.TrimSpace(in.Email)
	if email == "" {
		return "", nil, time.Time{}, invalid(op, "email is required")
	}
	if in.PasswordHash == "" {
		return "", nil, time.Time{}, invalid(op, "password hash is required")
	}
	now = in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return email, trimPtr(in.Name), now.UTC(), nil
}

