package password

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Observer receives hasher pool occupancy changes. It may be nil.
type Observer interface {
	HashStarted()
	HashFinished()
}

// Hasher hashes and verifies passwords on a bounded pool of slots.
type Hasher struct {
	cfg Config
	sem *semaphore.Weighted
	obs Observer

	dummyOnce sync.Once
	dummy     string
}

// NewHasher builds a Hasher. A nil observer is allowed.
func NewHasher(cfg Config, obs Observer) *Hasher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers()
	}
	return &Hasher{
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(workers)),
		obs: obs,
	}
}

// Hash validates password against policy and returns its bcrypt digest.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.cfg.Validate(password); err != nil {
		return "", err
	}

	var out []byte
	err := h.run(ctx, func() error {
		var err error
		out, err = bcrypt.GenerateFromPassword([]byte(password), h.cfg.effectiveCost())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(out), nil
}

// Verify reports whether password matches digest.
// It returns false for mismatches, malformed digests, and cancelled contexts.
func (h *Hasher) Verify(ctx context.Context, digest, password string) bool {
	var ok bool
	_ = h.run(ctx, func() error {
		ok = bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
		return nil
	})
	return ok
}

// Prime computes the throwaway digest used by VerifyDummy.
// Call it at startup so the first unknown-email login does not pay for it.
func (h *Hasher) Prime() {
	h.dummyOnce.Do(func() {
		out, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing-only"), h.cfg.effectiveCost())
		if err == nil {
			h.dummy = string(out)
		}
	})
}

// VerifyDummy burns the same CPU as a real Verify against a throwaway digest.
// Login uses it when the account does not exist so both failure paths take similar time.
func (h *Hasher) VerifyDummy(ctx context.Context, password string) {
	h.Prime()
	if h.dummy == "" {
		return
	}
	_ = h.Verify(ctx, h.dummy, password)
}

func (h *Hasher) run(ctx context.Context, fn func() error) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	if h.obs != nil {
		h.obs.HashStarted()
		defer h.obs.HashFinished()
	}
	return fn()
}
