package task

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a mutex-guarded Store used by tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	seq   uint64
	tasks map[string]memTask
}

type memTask struct {
	Task
	seq uint64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]memTask)}
}

func (s *MemoryStore) Create(ctx context.Context, t Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.tasks[t.ID] = memTask{Task: t, seq: s.seq}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, owner string) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]memTask, 0)
	for _, t := range s.tasks {
		if t.UserID == owner {
			rows = append(rows, t)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	out := make([]Task, len(rows))
	for i, r := range rows {
		out[i] = r.Task
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, owner, id string) (Task, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != owner {
		return Task{}, ErrNotFound
	}
	return t.Task, nil
}

func (s *MemoryStore) Update(ctx context.Context, owner, id string, p Patch) (Task, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != owner {
		return Task{}, ErrNotFound
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	t.UpdatedAt = p.UpdatedAt
	s.tasks[id] = t
	return t.Task, nil
}

func (s *MemoryStore) Delete(ctx context.Context, owner, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != owner {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}
