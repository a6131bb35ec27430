package task

import (
	"context"
	"time"
)

// Patch is a validated UpdateInput plus the new updated_at.
type Patch struct {
	Title     *string
	Status    *Status
	UpdatedAt time.Time
}

// Store is task persistence. Every method except Create is scoped by owner and
// returns ErrNotFound when (id, owner) matches nothing.
type Store interface {
	Create(ctx context.Context, t Task) error
	List(ctx context.Context, owner string) ([]Task, error)
	Get(ctx context.Context, owner, id string) (Task, error)
	Update(ctx context.Context, owner, id string, p Patch) (Task, error)
	Delete(ctx context.Context, owner, id string) error
}
