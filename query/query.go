// ABOUTME: Generic cache-backed query bound to a changing parameter value
// ABOUTME: Each params value maps to one cache key; stale keys never reach the caller
package query

import (
	"context"
	"sync"

	"github.com/harperreed/crmview/cache"
)

// State is what a view renders. Data holds the last good result for the
// current key and stays set while revalidating or after an error.
type State[T any] struct {
	Status  cache.Status
	Data    T
	HasData bool
	Err     error
}

func (s State[T]) Loading() bool {
	return s.Status == cache.StatusLoading
}

// Validating is true while any fetch for the current key is in flight.
func (s State[T]) Validating() bool {
	return s.Status == cache.StatusLoading || s.Status == cache.StatusRevalidating
}

// KeyFunc maps params to a cache key. Returning false disables fetching.
type KeyFunc[P any] func(P) (string, bool)

type FetchFunc[P, T any] func(context.Context, P) (T, error)

// Query follows one cache key at a time. Changing params subscribes to the
// new key and bumps a generation counter; notifications carrying an older
// generation are dropped, so a slow response for a previous key can never
// replace what the caller sees for the current one.
type Query[P, T any] struct {
	m        *cache.Manager
	keyFn    KeyFunc[P]
	fetch    FetchFunc[P, T]
	onChange func(State[T])

	mu      sync.Mutex
	params  P
	key     string
	enabled bool
	gen     uint64
	unsub   func()
	closed  bool
}

// New starts following params immediately. onChange may be nil and is
// called from background goroutines.
func New[P, T any](m *cache.Manager, params P, keyFn KeyFunc[P], fetch FetchFunc[P, T], onChange func(State[T])) *Query[P, T] {
	q := &Query[P, T]{m: m, keyFn: keyFn, fetch: fetch, onChange: onChange}
	q.SetParams(params)
	return q
}

func (q *Query[P, T]) Params() P {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.params
}

// Key is the cache key currently followed, or "" when disabled.
func (q *Query[P, T]) Key() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.enabled {
		return ""
	}
	return q.key
}

// SetParams switches to the key for p. Data cached under the previous key is kept.
func (q *Query[P, T]) SetParams(p P) {
	key, enabled := q.keyFn(p)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.params = p
	if enabled && q.enabled && key == q.key && q.unsub != nil {
		q.mu.Unlock()
		return
	}
	old := q.unsub
	q.gen++
	gen := q.gen
	q.key, q.enabled, q.unsub = key, enabled, nil
	q.mu.Unlock()

	if old != nil {
		old()
	}
	if enabled {
		loader := cache.LoaderFor(func(ctx context.Context) (T, error) {
			return q.fetch(ctx, p)
		})
		unsub := q.m.Subscribe(key, loader, func(cache.Snapshot) { q.changed(gen) })

		q.mu.Lock()
		if q.gen != gen || q.closed {
			q.mu.Unlock()
			unsub()
			return
		}
		q.unsub = unsub
		q.mu.Unlock()
	}
	q.changed(gen)
}

// State reads the current key's entry.
func (q *Query[P, T]) State() State[T] {
	q.mu.Lock()
	key, enabled := q.key, q.enabled
	q.mu.Unlock()

	if !enabled {
		return State[T]{Status: cache.StatusIdle}
	}
	snap := q.m.Get(key)
	s := State[T]{Status: snap.Status, Err: snap.Err}
	if v, ok := snap.Data.(T); ok && snap.HasData {
		s.Data, s.HasData = v, true
	}
	return s
}

// Refresh forces revalidation of the current key.
func (q *Query[P, T]) Refresh() {
	if key := q.Key(); key != "" {
		q.m.Revalidate(key)
	}
}

// Mutate replaces the current key's data locally.
func (q *Query[P, T]) Mutate(v T) {
	if key := q.Key(); key != "" {
		q.m.Mutate(key, v)
	}
}

func (q *Query[P, T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.gen++
	unsub := q.unsub
	q.unsub = nil
	q.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (q *Query[P, T]) changed(gen uint64) {
	q.mu.Lock()
	current := q.gen == gen && !q.closed
	q.mu.Unlock()
	if current && q.onChange != nil {
		q.onChange(q.State())
	}
}
