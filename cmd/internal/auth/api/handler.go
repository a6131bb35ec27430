// Package authapi exposes the session service over HTTP.
package authapi

import (
	"context"
	"net/http"

	"tasker/cmd/internal/auth/gate"
	"tasker/cmd/internal/auth/session"
	"tasker/cmd/internal/httpx"
)

// Sessions is the subset of *session.Service the handlers call.
type Sessions interface {
	Register(ctx context.Context, in session.RegisterInput) (session.AuthResult, error)
	Login(ctx context.Context, email, password string) (session.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (session.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context, userID string) (session.PublicUser, error)
}

// Handler wires HTTP auth endpoints to the session service.
type Handler struct {
	sessions Sessions
	gate     *gate.Gate
	errs     *httpx.Errors
}

// NewHandler constructs an auth Handler.
func NewHandler(sessions Sessions, g *gate.Gate, errs *httpx.Errors) *Handler {
	return &Handler{sessions: sessions, gate: g, errs: errs}
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.HandleFunc("GET /auth/me", h.gate.Require(h.handleMe))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.sessions.Register(r.Context(), session.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.errs.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAuthResponse(res))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAuthResponse(res))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.errs.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAuthResponse(res))
}

// handleLogout answers 200 for any token string; only a malformed body or a
// store failure produces an error.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.sessions.Logout(r.Context(), req.RefreshToken); err != nil {
		h.errs.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request, id gate.Identity) {
	u, err := h.sessions.CurrentUser(r.Context(), id.UserID)
	if err != nil {
		h.errs.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// decode reads and validates a request body, writing the error response itself.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, httpx.MaxBodyBytes, dst); err != nil {
		h.errs.WriteServiceError(w, r, err)
		return false
	}
	if err := httpx.Validate(dst); err != nil {
		h.errs.WriteServiceError(w, r, err)
		return false
	}
	return true
}

func toUserResponse(u session.PublicUser) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

func toAuthResponse(res session.AuthResult) authResponse {
	return authResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         toUserResponse(res.User),
	}
}
