package session

import (
	"context"
	"sync"
	"time"

	"tasker/cmd/security/token"
)

// MemoryStore is a mutex-guarded Store used by tests and local runs.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

func (s *MemoryStore) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.RevokedAt = nil
	s.recs[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetActive(ctx context.Context, id, userID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[id]
	if !ok || rec.UserID != userID || rec.RevokedAt != nil {
		return Record{}, ErrSessionNotFound
	}
	return rec, nil
}

func (s *MemoryStore) RevokeAndReplace(ctx context.Context, oldID string, now time.Time, next Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.recs[oldID]
	if !ok || old.RevokedAt != nil {
		return ErrSessionRevoked
	}
	t := now
	old.RevokedAt = &t
	s.recs[oldID] = old

	next.RevokedAt = nil
	s.recs[next.ID] = next
	return nil
}

func (s *MemoryStore) RevokeMatching(ctx context.Context, id, userID, tokenHash string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[id]
	if !ok || rec.UserID != userID || rec.RevokedAt != nil || !token.EqualHex64(rec.TokenHash, tokenHash) {
		return false, nil
	}
	t := now
	rec.RevokedAt = &t
	s.recs[id] = rec
	return true, nil
}

// Get returns a record regardless of state. Tests use it to inspect revocation.
func (s *MemoryStore) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	return rec, ok
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

// SetExpiry overwrites a record's stored expiry. Tests use it to simulate an
// elapsed record whose token signature is still valid.
func (s *MemoryStore) SetExpiry(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recs[id]; ok {
		rec.ExpiresAt = at
		s.recs[id] = rec
	}
}
