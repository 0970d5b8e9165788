package authflowrepo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.Mutex
	states map[string]AuthFlowState
	now    func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]AuthFlowState),
		now:    time.Now,
	}
}

// WithClock replaces the time source used for expiry checks.
func (r *InMemoryRepo) WithClock(now func() time.Time) *InMemoryRepo {
	r.now = now
	return r
}

// Save stores an auth flow state until its ExpiresAt
func (r *InMemoryRepo) Save(_ context.Context, state string, authState *AuthFlowState) error {
	if state == "" {
		return ErrEmptyState
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Stored by value so callers cannot modify it afterwards
	r.states[state] = *authState
	return nil
}

// Take removes and returns an auth flow state. Expired states are reported as not found.
func (r *InMemoryRepo) Take(_ context.Context, state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, ErrEmptyState
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authState, exists := r.states[state]
	if !exists {
		return nil, ErrStateNotFound
	}
	delete(r.states, state)

	if !r.now().Before(authState.ExpiresAt) {
		return nil, ErrStateNotFound
	}
	return &authState, nil
}

// Len returns the number of stored states, expired or not.
func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Cleanup removes expired states and returns how many were removed.
func (r *InMemoryRepo) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for state, authState := range r.states {
		if !now.Before(authState.ExpiresAt) {
			delete(r.states, state)
			removed++
		}
	}
	return removed
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (r *InMemoryRepo) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Cleanup(); removed > 0 {
				log.Debug().Int("removed", removed).Msg("Expired auth flow states removed")
			}
		}
	}
}
