package session

import (
	"context"
	"log/slog"

	"tasker/cmd/identity"
	"tasker/cmd/security/password"
)

const (
	outcomeSuccess            = "success"
	outcomeConflict           = "conflict"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeInvalidToken       = "invalid_token"
	outcomeNotFound           = "not_found"
	outcomeExpired            = "expired"
	outcomeMismatch           = "mismatch"
	outcomeRevoked            = "revoked"
	outcomeNoop               = "noop"
	outcomeInvalidInput       = "invalid_input"
	outcomeError              = "error"
)

// audit emits one structured line and one counter increment per auth outcome.
// Tokens, passwords and emails are never logged.
func (s *Service) audit(ctx context.Context, event, outcome, userID string) {
	if s.events != nil {
		s.events.AuthEvent(event, outcome)
	}

	level := slog.LevelInfo
	if outcome != outcomeSuccess && outcome != outcomeNoop {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{slog.String("outcome", outcome)}
	if userID != "" {
		attrs = append(attrs, slog.String("user_id", userID))
	}
	s.log.LogAttrs(ctx, level, "auth."+event, attrs...)
}

func (s *Service) fail(ctx context.Context, event string, err error) {
	if s.events != nil {
		s.events.AuthEvent(event, outcomeError)
	}
	s.log.LogAttrs(ctx, slog.LevelError, "auth."+event+".fail", slog.Any("err", err))
}

// reject audits caller mistakes (policy, malformed input) as such and
// everything else as a failure.
func (s *Service) reject(ctx context.Context, event string, err error) {
	if password.IsPolicyViolation(err) || identity.IsInvalidInput(err) {
		s.audit(ctx, event, outcomeInvalidInput, "")
		return
	}
	s.fail(ctx, event, err)
}
