// Package gate rejects unauthenticated requests before they reach a handler
// and threads the verified identity into it.
package gate

import (
	"context"
	"net/http"
	"strings"
	"time"

	"tasker/cmd/internal/auth/session"
	"tasker/cmd/internal/httpx"
)

// Identity is the caller resolved from a valid access token.
type Identity struct {
	UserID string
	Email  string
}

// HandlerFunc is an http.HandlerFunc that also receives the caller's Identity.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, id Identity)

// Verifier checks access tokens. *session.Issuer implements it.
type Verifier interface {
	VerifyAccess(tok string, now time.Time) (session.AccessClaims, error)
}

// Gate guards handlers behind a bearer access token.
type Gate struct {
	verifier Verifier
	now      func() time.Time
}

// New returns a Gate backed by v.
func New(v Verifier) *Gate {
	return &Gate{verifier: v, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock returns a copy of g using now as its time source.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	cp := *g
	cp.now = now
	return &cp
}

// Require wraps next so it only runs for requests carrying a valid access token.
func (g *Gate) Require(next HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, present := bearerToken(r)
		if !present {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeMissingToken, httpx.MsgMissingToken)
			return
		}
		if raw == "" {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, httpx.MsgInvalidToken)
			return
		}

		claims, err := g.verifier.VerifyAccess(raw, g.now())
		if err != nil || claims.UserID == "" {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, httpx.MsgInvalidToken)
			return
		}

		id := Identity{UserID: claims.UserID, Email: claims.Email}
		httpx.AddLogField(r.Context(), "user_id", id.UserID)
		next(w, r.WithContext(WithIdentity(r.Context(), id)), id)
	}
}

type identityKey struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the Identity stored by Require, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// bearerToken returns the credential from "Authorization: Bearer <token>".
// present is false only when the header is absent or blank; a header with the
// wrong scheme yields ("", true).
func bearerToken(r *http.Request) (tok string, present bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	scheme, rest, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(rest), true
}
