// ABOUTME: Optimistic update transaction with exact rollback
// ABOUTME: Snapshot, apply a tentative value, then commit the server's value or restore the snapshot
package forms

import (
	"context"
	"sync"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseCommitted
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled back"
	}
	return "idle"
}

// Optimistic holds a value that callers may change before the server confirms.
// Only one transaction runs at a time.
type Optimistic[T any] struct {
	mu       sync.Mutex
	value    T
	phase    Phase
	onChange func(T)
}

// NewOptimistic wraps initial. onChange sees every visible value: tentative,
// committed and restored.
func NewOptimistic[T any](initial T, onChange func(T)) *Optimistic[T] {
	return &Optimistic[T]{value: initial, onChange: onChange}
}

func (o *Optimistic[T]) Value() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

func (o *Optimistic[T]) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Reset replaces the value from outside a transaction, e.g. after a refetch.
// It is ignored while a transaction is pending.
func (o *Optimistic[T]) Reset(v T) bool {
	o.mu.Lock()
	if o.phase == PhasePending {
		o.mu.Unlock()
		return false
	}
	o.value = v
	o.mu.Unlock()
	o.notify(v)
	return true
}

// Apply shows tentative(current) immediately, then runs commit. On success
// the committed value replaces the tentative one; on failure the snapshot
// taken before apply is restored and commit's error returned.
func (o *Optimistic[T]) Apply(ctx context.Context, tentative func(T) T, commit func(context.Context, T) (T, error)) (T, error) {
	o.mu.Lock()
	if o.phase == PhasePending {
		v := o.value
		o.mu.Unlock()
		return v, ErrPending
	}
	snapshot := o.value
	next := tentative(snapshot)
	o.value, o.phase = next, PhasePending
	o.mu.Unlock()
	o.notify(next)

	confirmed, err := commit(ctx, next)

	o.mu.Lock()
	if err != nil {
		o.value, o.phase = snapshot, PhaseRolledBack
		o.mu.Unlock()
		o.notify(snapshot)
		return snapshot, err
	}
	o.value, o.phase = confirmed, PhaseCommitted
	o.mu.Unlock()
	o.notify(confirmed)
	return confirmed, nil
}

func (o *Optimistic[T]) notify(v T) {
	if o.onChange != nil {
		o.onChange(v)
	}
}
