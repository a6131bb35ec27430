package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"tasker/cmd/identity"
	"tasker/cmd/internal/auth/session"
	"tasker/cmd/internal/task"
	"tasker/cmd/security/password"
)

// Stable error codes.
const (
	CodeInvalidJSON         = "invalid_json"
	CodeValidationFailed    = "validation_failed"
	CodeConflict            = "conflict"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeInvalidRefreshToken = "invalid_refresh_token"
	CodeMissingToken        = "missing_token"
	CodeInvalidToken        = "invalid_token"
	CodeNotFound            = "not_found"
	CodeInternal            = "internal_error"
)

// Uniform external messages. Unauthorized outcomes never reveal which check failed.
const (
	MsgInvalidCredentials  = "invalid email or password"
	MsgInvalidRefreshToken = "invalid or expired refresh token"
	MsgMissingToken        = "missing bearer token"
	MsgInvalidToken        = "invalid or expired token"
	msgInternal            = "internal error"
)

// Errors translates service failures into status codes and the JSON envelope.
// It is the only place that mapping happens.
type Errors struct {
	log        *slog.Logger
	production bool
}

// NewErrors builds a translator. In production, 500 responses carry a generic message.
func NewErrors(log *slog.Logger, production bool) *Errors {
	if log == nil {
		log = slog.Default()
	}
	return &Errors{log: log, production: production}
}

// WriteServiceError maps err onto a response.
func (e *Errors) WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		decodeErr *DecodeError
		validErr  *ValidationError
		inputErr  *task.InputError
	)

	switch {
	case errors.As(err, &decodeErr):
		WriteError(w, http.StatusBadRequest, CodeInvalidJSON, decodeErr.Error())
	case errors.As(err, &validErr):
		WriteFieldErrors(w, http.StatusBadRequest, CodeValidationFailed, validErr.Error(), validErr.Fields)
	case errors.As(err, &inputErr):
		fe := Invalid(inputErr.Field, inputErr.Message)
		WriteFieldErrors(w, http.StatusBadRequest, CodeValidationFailed, fe.Error(), fe.Fields)
	case password.IsPolicyViolation(err):
		fe := Invalid("password", policyMessage(err))
		WriteFieldErrors(w, http.StatusBadRequest, CodeValidationFailed, fe.Error(), fe.Fields)
	case identity.IsInvalidInput(err):
		WriteError(w, http.StatusBadRequest, CodeValidationFailed, "invalid input")

	case errors.Is(err, session.ErrEmailTaken):
		WriteError(w, http.StatusConflict, CodeConflict, "email already registered")

	case errors.Is(err, session.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, CodeInvalidCredentials, MsgInvalidCredentials)
	case session.IsRefreshRejected(err):
		WriteError(w, http.StatusUnauthorized, CodeInvalidRefreshToken, MsgInvalidRefreshToken)

	case errors.Is(err, task.ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, "task not found")
	case errors.Is(err, session.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, "user not found")

	default:
		e.log.ErrorContext(r.Context(), "http.internal_error",
			"err", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
		)
		msg := msgInternal
		if !e.production {
			msg = err.Error()
		}
		WriteError(w, http.StatusInternalServerError, CodeInternal, msg)
	}
}

func policyMessage(err error) string {
	switch {
	case errors.Is(err, password.ErrPasswordTooShort):
		return "is too short"
	case errors.Is(err, password.ErrPasswordTooLong):
		return "is too long"
	default:
		return "is too weak"
	}
}
