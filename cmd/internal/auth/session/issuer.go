package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tasker/cmd/identity"
	"tasker/cmd/identity/ids"
	"tasker/cmd/security/token"
)

// AccessClaims is the identity envelope carried by access tokens.
type AccessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims is carried by refresh tokens. TokenID names the server-side Record.
type RefreshClaims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	TokenID string `json:"tokenId"`
	jwt.RegisteredClaims
}

// Pair is a freshly minted access/refresh token pair.
type Pair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Minted is a Pair plus the Record that must be persisted for its refresh token.
type Minted struct {
	Pair
	Record Record
}

// Issuer mints and verifies the two token families.
type Issuer struct {
	cfg     Config
	access  []byte
	refresh []byte
	hasher  token.Hasher
	store   Store
}

// NewIssuer builds an Issuer. The config is validated again here so a
// hand-built Config cannot bypass the secret rules.
func NewIssuer(cfg Config, store Store) (*Issuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: nil record store", ErrConfig)
	}
	h, err := token.NewHasher([]byte(cfg.TokenHMACKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return &Issuer{
		cfg:     cfg,
		access:  []byte(cfg.AccessSecret),
		refresh: []byte(cfg.RefreshSecret),
		hasher:  h,
		store:   store,
	}, nil
}

// Mint signs a new pair for u and builds the matching Record without persisting anything.
func (i *Issuer) Mint(u identity.User, now time.Time) (Minted, error) {
	now = now.UTC()
	tokenID := ids.NewID()

	ac := AccessClaims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.AccessTokenTTL)),
		},
	}
	accessTok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, ac).SignedString(i.access)
	if err != nil {
		return Minted{}, fmt.Errorf("session: sign access token: %w", err)
	}

	rc := RefreshClaims{
		UserID:  u.ID,
		Email:   u.Email,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.RefreshTokenTTL)),
		},
	}
	refreshTok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString(i.refresh)
	if err != nil {
		return Minted{}, fmt.Errorf("session: sign refresh token: %w", err)
	}

	return Minted{
		Pair: Pair{
			AccessToken:      accessTok,
			AccessExpiresAt:  ac.ExpiresAt.Time,
			RefreshToken:     refreshTok,
			RefreshExpiresAt: rc.ExpiresAt.Time,
		},
		Record: Record{
			ID:        tokenID,
			UserID:    u.ID,
			TokenHash: i.hasher.Hash(refreshTok),
			// Same second-precision instant as the embedded exp.
			ExpiresAt: rc.ExpiresAt.Time,
			CreatedAt: now,
		},
	}, nil
}

// IssuePair mints a pair and persists exactly one new Record.
func (i *Issuer) IssuePair(ctx context.Context, u identity.User, now time.Time) (Pair, error) {
	m, err := i.Mint(u, now)
	if err != nil {
		return Pair{}, err
	}
	if err := i.store.Create(ctx, m.Record); err != nil {
		return Pair{}, err
	}
	return m.Pair, nil
}

// VerifyAccess validates an access token against the access secret.
func (i *Issuer) VerifyAccess(tok string, now time.Time) (AccessClaims, error) {
	var c AccessClaims
	if err := i.parse(tok, &c, i.access, now); err != nil {
		return AccessClaims{}, err
	}
	if c.UserID == "" || c.Email == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	return c, nil
}

// VerifyRefresh validates a refresh token against the refresh secret and requires a tokenId.
func (i *Issuer) VerifyRefresh(tok string, now time.Time) (RefreshClaims, error) {
	var c RefreshClaims
	if err := i.parse(tok, &c, i.refresh, now); err != nil {
		return RefreshClaims{}, err
	}
	if c.UserID == "" || c.Email == "" || c.TokenID == "" {
		return RefreshClaims{}, ErrInvalidToken
	}
	if c.ID != "" && c.ID != c.TokenID {
		return RefreshClaims{}, ErrInvalidToken
	}
	return c, nil
}

// HMACEnabled reports whether refresh-token hashes are keyed.
func (i *Issuer) HMACEnabled() bool { return i.hasher.HMACEnabled() }

// HashToken returns the stored form of a refresh token.
func (i *Issuer) HashToken(tok string) string { return i.hasher.Hash(tok) }

// MatchesToken compares a refresh token with a stored hash in constant time.
func (i *Issuer) MatchesToken(tok, storedHex string) bool { return i.hasher.Matches(tok, storedHex) }

const maxTokenLen = 4096

func (i *Issuer) parse(tok string, claims jwt.Claims, key []byte, now time.Time) error {
	// Basic sanity bounds to avoid pathological inputs.
	if tok == "" || len(tok) > maxTokenLen {
		return ErrInvalidToken
	}

	p := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(i.cfg.ClockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	t, err := p.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) { return key, nil })
	if err != nil || !t.Valid {
		return ErrInvalidToken
	}
	return nil
}
