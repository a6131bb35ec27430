// Package task implements owner-scoped task CRUD.
//
// Every id-addressed operation filters by (id, owner); a task owned by someone
// else is indistinguishable from a missing one.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is a task's workflow state.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// MaxTitleLen is the longest accepted title, in characters.
const MaxTitleLen = 200

// Task is one owned task record.
type Task struct {
	ID        string
	Title     string
	Status    Status
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput describes a new task. Status defaults to TODO.
type CreateInput struct {
	Title  string
	Status *Status
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title  *string
	Status *Status
}

// Empty reports whether the update changes nothing.
func (in UpdateInput) Empty() bool { return in.Title == nil && in.Status == nil }

var (
	// ErrNotFound is returned when no task matches (id, owner).
	ErrNotFound = errors.New("task not found")

	// ErrInvalidInput is the kind behind every InputError.
	ErrInvalidInput = errors.New("invalid task input")
)

// InputError names the offending field.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidInput, e.Field, e.Message)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func normalizeTitle(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", &InputError{Field: "title", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(t) > MaxTitleLen {
		return "", &InputError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", MaxTitleLen)}
	}
	return t, nil
}

func checkStatus(s Status) error {
	if !s.Valid() {
		return &InputError{Field: "status", Message: "must be one of TODO, IN_PROGRESS, DONE"}
	}
	return nil
}
