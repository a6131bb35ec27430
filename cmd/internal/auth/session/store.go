package session

import (
	"context"
	"time"
)

// Record mirrors a refresh_tokens row: the server-side half of one issued refresh token.
//
// A record is active iff RevokedAt is nil and ExpiresAt is after now.
// Records are revoked at most once and never deleted.
type Record struct {
	ID        string // equals the token's tokenId claim
	UserID    string
	TokenHash string // 64-char hex, see cmd/security/token
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Active reports whether the record is unrevoked and unexpired at now.
func (r Record) Active(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}

// Store abstracts persistence for refresh-token records.
//
// Implementations must make RevokeAndReplace atomic: the old record transitions
// out of its unrevoked state at most once, and the replacement exists iff that
// transition happened.
type Store interface {
	// Create inserts a new, unrevoked record.
	Create(ctx context.Context, rec Record) error

	// GetActive loads the unrevoked record with id owned by userID.
	// It returns ErrSessionNotFound when no such row exists. It does not check expiry.
	GetActive(ctx context.Context, id, userID string) (Record, error)

	// RevokeAndReplace sets revoked_at = now on oldID only if it is still unrevoked,
	// and inserts next in the same transaction. Returns ErrSessionRevoked if the
	// conditional update matched nothing.
	RevokeAndReplace(ctx context.Context, oldID string, now time.Time, next Record) error

	// RevokeMatching revokes the unrevoked record matching id, userID and tokenHash.
	// It reports whether a record was revoked; no match is not an error.
	RevokeMatching(ctx context.Context, id, userID, tokenHash string, now time.Time) (bool, error)
}
