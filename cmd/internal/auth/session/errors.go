package session

import "errors"

var (
	// ErrInvalidToken is returned when a token fails signature, structure, issuer or expiry checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSessionNotFound is returned when no active record matches the token (missing or revoked).
	ErrSessionNotFound = errors.New("session not found or revoked")

	// ErrSessionExpired is returned when the stored record expiry has passed.
	ErrSessionExpired = errors.New("session expired")

	// ErrTokenMismatch is returned when the presented token does not hash to the stored value.
	ErrTokenMismatch = errors.New("refresh token mismatch")

	// ErrSessionRevoked is returned when the record was revoked between lookup and rotation
	// (a concurrent refresh or logout won).
	ErrSessionRevoked = errors.New("session revoked")

	// ErrEmailTaken is returned by Register when the normalized email already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is the single outcome for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotFound is returned by CurrentUser when the user row is gone.
	ErrUserNotFound = errors.New("user not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// IsRefreshRejected reports whether err is one of the refresh-token outcomes
// that callers must surface as a uniform unauthorized response.
func IsRefreshRejected(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrTokenMismatch) ||
		errors.Is(err, ErrSessionRevoked)
}
