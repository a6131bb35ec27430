package identity

import (
	"context"
	"sync"

	"tasker/cmd/identity/ids"
)

// MemoryStore is a mutex-guarded in-process Store used by tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]UserAuth
	byEmail map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]UserAuth),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	email, name, now, err := in.check(op)
	if err != nil {
		return User{}, err
	}
	norm := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[norm]; taken {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	u := User{
		ID:        ids.NewID(),
		Email:     email,
		EmailNorm: norm,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[u.ID] = UserAuth{User: u, PasswordHash: in.PasswordHash}
	s.byEmail[norm] = u.ID
	return u, nil
}

func (s *MemoryStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return UserAuth{}, invalid(op, "email is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[norm]
	if !ok {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	return s.byID[id], nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ua, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return ua.User, nil
}

// Delete removes a user out of band. Tests use it to simulate a vanished account.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ua, ok := s.byID[id]; ok {
		delete(s.byEmail, ua.EmailNorm)
		delete(s.byID, id)
	}
}
