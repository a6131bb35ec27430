package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"tasker/cmd/identity"
)

// PasswordHasher is the subset of cmd/security/password the service needs.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, digest, password string) bool
	VerifyDummy(ctx context.Context, password string)
}

// EventRecorder counts auth outcomes. metrics.Registry implements it.
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

// PublicUser is the client-facing user projection. It never includes the password digest.
type PublicUser struct {
	ID    string
	Email string
	Name  *string
}

// AuthResult is returned by Register, Login and Refresh.
type AuthResult struct {
	Pair
	User PublicUser
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

// Service orchestrates registration, login, refresh rotation, logout and "who am I".
type Service struct {
	users     identity.Store
	passwords PasswordHasher
	issuer    *Issuer
	records   Store

	log    *slog.Logger
	events EventRecorder
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the audit logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithEventRecorder sets the auth outcome counter.
func WithEventRecorder(r EventRecorder) Option {
	return func(s *Service) { s.events = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the session core. Records are persisted through the issuer's store.
func NewService(users identity.Store, passwords PasswordHasher, issuer *Issuer, opts ...Option) *Service {
	s := &Service{
		users:     users,
		passwords: passwords,
		issuer:    issuer,
		records:   issuer.store,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Issuer exposes the token issuer (the auth gate verifies access tokens with it).
func (s *Service) Issuer() *Issuer { return s.issuer }

// Register creates a user and issues its first token pair.
func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	const event = "register"

	email := strings.TrimSpace(in.Email)

	// Pre-check gives a clean conflict without paying for a hash; the unique
	// constraint still decides races below.
	if _, err := s.users.GetUserAuthByEmail(ctx, email); err == nil {
		s.audit(ctx, event, outcomeConflict, "")
		return AuthResult{}, ErrEmailTaken
	} else if !identity.IsNotFound(err) {
		s.reject(ctx, event, err)
		return AuthResult{}, err
	}

	digest, err := s.passwords.Hash(ctx, in.Password)
	if err != nil {
		s.reject(ctx, event, err)
		return AuthResult{}, err
	}

	u, err := s.users.CreateUser(ctx, identity.CreateUserInput{
		Email:        email,
		Name:         in.Name,
		PasswordHash: digest,
		Now:          s.now(),
	})
	if err != nil {
		if identity.IsConflict(err) {
			s.audit(ctx, event, outcomeConflict, "")
			return AuthResult{}, ErrEmailTaken
		}
		s.reject(ctx, event, err)
		return AuthResult{}, err
	}

	pair, err := s.issuer.IssuePair(ctx, u, s.now())
	if err != nil {
		s.fail(ctx, event, err)
		return AuthResult{}, err
	}

	s.audit(ctx, event, outcomeSuccess, u.ID)
	return AuthResult{Pair: pair, User: toPublicUser(u)}, nil
}

// Login verifies credentials and issues a token pair.
// Unknown email and wrong password both return ErrInvalidCredentials after similar work.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	const event = "login"

	ua, err := s.users.GetUserAuthByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) || identity.IsInvalidInput(err) {
			s.passwords.VerifyDummy(ctx, password)
			s.audit(ctx, event, outcomeInvalidCredentials, "")
			return AuthResult{}, ErrInvalidCredentials
		}
		s.fail(ctx, event, err)
		return AuthResult{}, err
	}

	if !s.passwords.Verify(ctx, ua.PasswordHash, password) {
		s.audit(ctx, event, outcomeInvalidCredentials, ua.ID)
		return AuthResult{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(ctx, ua.User, s.now())
	if err != nil {
		s.fail(ctx, event, err)
		return AuthResult{}, err
	}

	s.audit(ctx, event, outcomeSuccess, ua.ID)
	return AuthResult{Pair: pair, User: toPublicUser(ua.User)}, nil
}

// Refresh redeems a refresh token exactly once and returns a new pair.
//
// Order matters: signature, then active record, then stored expiry, then hash,
// then the atomic revoke-and-replace. A refresh token is single-use.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	const event = "refresh"
	now := s.now()

	claims, err := s.issuer.VerifyRefresh(strings.TrimSpace(refreshToken), now)
	if err != nil {
		s.audit(ctx, event, outcomeInvalidToken, "")
		return AuthResult{}, ErrInvalidToken
	}

	rec, err := s.records.GetActive(ctx, claims.TokenID, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.audit(ctx, event, outcomeNotFound, claims.UserID)
			return AuthResult{}, ErrSessionNotFound
		}
		s.fail(ctx, event, err)
		return AuthResult{}, err
	}

	// Stored expiry is checked without leeway, independently of the JWT exp.
	if !now.Before(rec.ExpiresAt) {
		s.audit(ctx, event, outcomeExpired, claims.UserID)
		return AuthResult{}, ErrSessionExpired
	}

	if !s.issuer.MatchesToken(strings.TrimSpace(refreshToken), rec.TokenHash) {
		s.audit(ctx, event, outcomeMismatch, claims.UserID)
		return AuthResult{}, ErrTokenMismatch
	}

	u, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			s.audit(ctx, event, outcomeNotFound, claims.UserID)
			return AuthResult{}, ErrSessionNotFound
		}
		s.fail(ctx, event, err)
		return AuthResult{}, err
	}

	m, err := s.issuer.Mint(u, now)
	if err != nil {
		s.fail(ctx, event, err)
		return AuthResult{}, err
	}

	if err := s.records.RevokeAndReplace(ctx, rec.ID, now, m.Record); err != nil {
		if errors.Is(err, ErrSessionRevoked) {
			s.audit(ctx, event, outcomeRevoked, claims.UserID)
			return AuthResult{}, ErrSessionRevoked
		}
		s.fail(ctx, event, err)
		return AuthResult{}, err
	}

	s.audit(ctx, event, outcomeSuccess, u.ID)
	return AuthResult{Pair: m.Pair, User: toPublicUser(u)}, nil
}

// Logout revokes the record behind a refresh token.
// Tokens that fail verification are treated as already logged out; only store
// failures are returned.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const event = "logout"
	now := s.now()

	refreshToken = strings.TrimSpace(refreshToken)
	claims, err := s.issuer.VerifyRefresh(refreshToken, now)
	if err != nil {
		s.audit(ctx, event, outcomeNoop, "")
		return nil
	}

	revoked, err := s.records.RevokeMatching(ctx, claims.TokenID, claims.UserID, s.issuer.HashToken(refreshToken), now)
	if err != nil {
		s.fail(ctx, event, err)
		return err
	}
	if !revoked {
		s.audit(ctx, event, outcomeNoop, claims.UserID)
		return nil
	}

	s.audit(ctx, event, outcomeSuccess, claims.UserID)
	return nil
}

// CurrentUser returns the public projection of userID.
func (s *Service) CurrentUser(ctx context.Context, userID string) (PublicUser, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if identity.IsNotFound(err) {
			return PublicUser{}, ErrUserNotFound
		}
		return PublicUser{}, err
	}
	return toPublicUser(u), nil
}

func toPublicUser(u identity.User) PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
