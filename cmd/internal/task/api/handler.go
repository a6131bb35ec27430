// Package taskapi exposes owner-scoped task CRUD over HTTP.
package taskapi

import (
	"context"
	"net/http"
	"time"

	"tasker/cmd/identity/ids"
	"tasker/cmd/internal/auth/gate"
	"tasker/cmd/internal/httpx"
	"tasker/cmd/internal/task"
)

// Tasks is the subset of *task.Service the handlers call.
type Tasks interface {
	Create(ctx context.Context, owner string, in task.CreateInput) (task.Task, error)
	List(ctx context.Context, owner string) ([]task.Task, error)
	Get(ctx context.Context, owner, id string) (task.Task, error)
	Update(ctx context.Context, owner, id string, in task.UpdateInput) (task.Task, error)
	Delete(ctx context.Context, owner, id string) error
}

// Titles are trimmed and length-checked by the service.
type createRequest struct {
	Title  string  `json:"title" validate:"required"`
	Status *string `json:"status" validate:"omitempty,taskstatus"`
}

type updateRequest struct {
	Title  *string `json:"title"`
	Status *string `json:"status" validate:"omitempty,taskstatus"`
}

type taskResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Handler serves /tasks. Every route sits behind the gate.
type Handler struct {
	tasks Tasks
	gate  *gate.Gate
	errs  *httpx.Errors
}

// NewHandler constructs a task Handler.
func NewHandler(tasks Tasks, g *gate.Gate, errs *httpx.Errors) *Handler {
	return &Handler{tasks: tasks, gate: g, errs: errs}
}

// Register wires task routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /tasks", h.gate.Require(h.handleList))
	mux.HandleFunc("POST /tasks", h.gate.Require(h.handleCreate))
	mux.HandleFunc("GET /tasks/{taskId}", h.gate.Require(h.withTaskID(h.handleGet)))
	mux.HandleFunc("PATCH /tasks/{taskId}", h.gate.Require(h.withTaskID(h.handleUpdate)))
	mux.HandleFunc("DELETE /tasks/{taskId}", h.gate.Require(h.withTaskID(h.handleDelete)))
}

type idHandlerFunc func(w http.ResponseWriter, r *http.Request, id gate.Identity, taskID string)

// withTaskID rejects malformed path ids before the service sees them.
func (h *Handler) withTaskID(next idHandlerFunc) gate.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, id gate.Identity) {
		taskID := r.PathValue("taskId")
		if !ids.ValidID(taskID) {
			h.errs.WriteServiceError(w, r, httpx.Invalid("taskId", "must be a valid UUID"))
			return
		}
		next(w, r, id, taskID)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, id gate.Identity) {
	list, err := h.tasks.List(r.Context(), id.UserID)
	if err != nil {
		h.errs.WriteServiceError(w, r, err)
		return
	}

	out := make([]taskResponse, len(list))
	for i, t := range list {
		out[i] = toResponse(t)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request, id gate.Identity) {
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}

	t, err := h.tasks.Create(r.Context(), id.UserID, task.CreateInput{
		Title:  req.Title,
		Status: toStatus(req.Status),
	})
	if err != nil {
		h.errs.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toResponse(t))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id gate.Identity, taskID string) {
	t, err := h.tasks.Get(r.Context(), id.UserID, taskID)
	if err != nil {
		h.errs.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id gate.Identity, taskID string) {
	var req updateRequest
	if !h.decode(w, r, &req) {
		return
	}

	t, err := h.tasks.Update(r.Context(), id.UserID, taskID, task.UpdateInput{
		Title:  req.Title,
		Status: toStatus(req.Status),
	})
	if err != nil {
		h.errs.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id gate.Identity, taskID string) {
	if err := h.tasks.Delete(r.Context(), id.UserID, taskID); err != nil {
		h.errs.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

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

func toStatus(s *string) *task.Status {
	if s == nil {
		return nil
	}
	st := task.Status(*s)
	return &st
}

func toResponse(t task.Task) taskResponse {
	return taskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Status:    string(t.Status),
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
