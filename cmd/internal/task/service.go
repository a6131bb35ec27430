package task

import (
	"context"
	"time"

	"tasker/cmd/identity/ids"
)

// Service applies input rules and forces ownership before touching the store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService builds a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock returns a copy of s using now as its time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Create stores a new task owned by owner, whatever the input says.
func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (Task, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return Task{}, err
	}
	status := StatusTodo
	if in.Status != nil {
		if err := checkStatus(*in.Status); err != nil {
			return Task{}, err
		}
		status = *in.Status
	}

	now := s.now()
	t := Task{
		ID:        ids.NewID(),
		Title:     title,
		Status:    status,
		UserID:    owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// List returns owner's tasks, newest first.
func (s *Service) List(ctx context.Context, owner string) ([]Task, error) {
	return s.store.List(ctx, owner)
}

// Get returns one of owner's tasks.
func (s *Service) Get(ctx context.Context, owner, id string) (Task, error) {
	if !ids.ValidID(id) {
		return Task{}, ErrNotFound
	}
	return s.store.Get(ctx, owner, id)
}

// Update changes only the supplied fields and bumps updated_at.
func (s *Service) Update(ctx context.Context, owner, id string, in UpdateInput) (Task, error) {
	if !ids.ValidID(id) {
		return Task{}, ErrNotFound
	}

	p := Patch{UpdatedAt: s.now()}
	if in.Title != nil {
		title, err := normalizeTitle(*in.Title)
		if err != nil {
			return Task{}, err
		}
		p.Title = &title
	}
	if in.Status != nil {
		if err := checkStatus(*in.Status); err != nil {
			return Task{}, err
		}
		st := *in.Status
		p.Status = &st
	}
	return s.store.Update(ctx, owner, id, p)
}

// Delete removes one of owner's tasks.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if !ids.ValidID(id) {
		return ErrNotFound
	}
	return s.store.Delete(ctx, owner, id)
}
