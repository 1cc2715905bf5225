package service

import (
	"sync"

	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/pkg/errors"
)

// inflightTracker holds one MutationState per key. A key that was never seen
// is Idle.
type inflightTracker struct {
	mu     sync.Mutex
	states map[string]domain.MutationState
}

func newInflightTracker() *inflightTracker {
	return &inflightTracker{states: make(map[string]domain.MutationState)}
}

// Begin moves key to Pending, refusing if a mutation is already in flight.
func (t *inflightTracker) Begin(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.stateLocked(key)
	if current.IsPending() {
		return &errors.ErrAlreadyInFlight{Key: key}
	}
	if !current.CanTransitionTo(domain.MutationStatePending) {
		return &errors.ErrInvalidStateTransition{From: current, To: domain.MutationStatePending}
	}
	t.states[key] = domain.MutationStatePending
	return nil
}

// Finish resolves a Pending key to Reconciled or Failed.
func (t *inflightTracker) Finish(key string, ok bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := domain.MutationStateFailed
	if ok {
		next = domain.MutationStateReconciled
	}
	current := t.stateLocked(key)
	if !current.CanTransitionTo(next) {
		return &errors.ErrInvalidStateTransition{From: current, To: next}
	}
	t.states[key] = next
	return nil
}

// Forget drops key, returning it to Idle.
func (t *inflightTracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, key)
}

func (t *inflightTracker) State(key string) domain.MutationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked(key)
}

func (t *inflightTracker) stateLocked(key string) domain.MutationState {
	if s, ok := t.states[key]; ok {
		return s
	}
	return domain.MutationStateIdle
}
