// ABOUTME: Keyed stale-while-revalidate cache shared by every query
// ABOUTME: One fetch in flight per key; superseded results are dropped by generation
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("cache: manager closed")

// DefaultDedupeInterval is how long a result counts as fresh for new subscribers.
const DefaultDedupeInterval = 2 * time.Second

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusRevalidating
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusRevalidating:
		return "revalidating"
	case StatusError:
		return "error"
	}
	return "idle"
}

// Snapshot is a point-in-time copy of one entry. Data is the last good
// result and survives revalidation and errors.
type Snapshot struct {
	Key        string
	Status     Status
	Data       any
	HasData    bool
	Err        error
	UpdatedAt  time.Time
	Generation uint64
}

// Loader fetches the value for a key. Decode restores a persisted value and
// may be nil, in which case the key is never persisted.
type Loader struct {
	Fetch  func(ctx context.Context) (any, error)
	Decode func(raw []byte) (any, error)
}

// LoaderFor adapts a typed fetch function and gives it JSON persistence.
func LoaderFor[T any](fetch func(ctx context.Context) (T, error)) Loader {
	return Loader{
		Fetch: func(ctx context.Context) (any, error) {
			return fetch(ctx)
		},
		Decode: func(raw []byte) (any, error) {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// Store persists successful results between processes.
type Store interface {
	Load(key string) (payload []byte, fetchedAt time.Time, ok bool, err error)
	Save(key string, payload []byte, fetchedAt time.Time) error
	DeletePrefix(prefix string) error
	Close() error
}

type entry struct {
	key       string
	loader    Loader
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	stale     bool
	seeded    bool
	restored  bool

	gen      uint64
	inflight bool
	// wake is closed when the in-flight fetch finishes or is superseded.
	wake chan struct{}

	subs map[uint64]func(Snapshot)
}

// Manager owns every cache entry. Pass one Manager to all queries of a session.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextSub uint64
	closed  bool

	store  Store
	dedupe time.Duration
	now    func() time.Time
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Manager)

func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithDedupeInterval(d time.Duration) Option {
	return func(m *Manager) { m.dedupe = d }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		entries: map[string]*entry{},
		dedupe:  DefaultDedupeInterval,
		now:     time.Now,
		logger:  zerolog.Nop(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("component", "cache").Logger()
	return m
}

type notice struct {
	subs []func(Snapshot)
	snap Snapshot
}

func (n notice) fire() {
	for _, fn := range n.subs {
		fn(n.snap)
	}
}

type notices []notice

func (ns notices) fire() {
	for _, n := range ns {
		n.fire()
	}
}

// Subscribe registers fn for changes to key and starts a fetch when the key
// has no data or its data is older than the dedupe interval. fn runs without
// the manager lock held and must not block.
func (m *Manager) Subscribe(key string, loader Loader, fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return func() {}
	}
	e := m.entryLocked(key, loader)
	m.nextSub++
	id := m.nextSub
	e.subs[id] = fn

	var n notice
	switch {
	case e.inflight:
		lookups.WithLabelValues("joined").Inc()
	case m.needsFetchLocked(e, m.dedupe):
		if e.hasData {
			lookups.WithLabelValues("stale").Inc()
		} else {
			lookups.WithLabelValues("miss").Inc()
		}
		m.launchLocked(e)
		n = m.noticeLocked(e)
	default:
		lookups.WithLabelValues("hit").Inc()
	}
	m.mu.Unlock()
	n.fire()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(e.subs, id)
			m.mu.Unlock()
		})
	}
}

// Get returns the current snapshot of key without fetching.
func (m *Manager) Get(key string) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Snapshot{Key: key, Status: StatusIdle}
	}
	return m.snapshotLocked(e)
}

// Fetch returns data for key no older than maxAge, joining an in-flight
// fetch or starting one. maxAge <= 0 always waits for a new result.
func (m *Manager) Fetch(ctx context.Context, key string, loader Loader, maxAge time.Duration) (any, error) {
	fresh := false
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, ErrClosed
		}
		e := m.entryLocked(key, loader)
		if e.hasData && !e.stale && !e.inflight && (fresh || (maxAge > 0 && m.now().Sub(e.updatedAt) <= maxAge)) {
			data := e.data
			m.mu.Unlock()
			lookups.WithLabelValues("hit").Inc()
			return data, nil
		}

		var n notice
		if e.inflight {
			lookups.WithLabelValues("joined").Inc()
		} else {
			lookups.WithLabelValues("miss").Inc()
			m.launchLocked(e)
			n = m.noticeLocked(e)
		}
		if e.wake == nil {
			e.wake = make(chan struct{})
		}
		wake, gen := e.wake, e.gen
		m.mu.Unlock()
		n.fire()

		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		m.mu.Lock()
		if e.gen == gen && !e.inflight {
			data, err := e.data, e.err
			m.mu.Unlock()
			if err != nil {
				return nil, err
			}
			return data, nil
		}
		// Superseded while waiting: whatever replaced it is at least as new.
		fresh = true
		m.mu.Unlock()
	}
}

// Revalidate starts a new fetch of key even if one is already in flight.
// The older fetch's result is discarded.
func (m *Manager) Revalidate(key string) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok || m.closed || e.loader.Fetch == nil {
		m.mu.Unlock()
		return
	}
	m.supersedeLocked(e)
	m.launchLocked(e)
	n := m.noticeLocked(e)
	m.mu.Unlock()
	n.fire()
}

// Mutate writes value as the current data for key and drops any in-flight result.
func (m *Manager) Mutate(key string, value any) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	e := m.entryLocked(key, Loader{})
	m.supersedeLocked(e)
	e.data, e.hasData, e.err = value, true, nil
	e.updatedAt, e.stale, e.restored = m.now(), false, false
	n := m.noticeLocked(e)
	at := e.updatedAt
	m.mu.Unlock()

	m.persist(key, value, at)
	n.fire()
}

// Invalidate marks every key starting with prefix stale. Keys with
// subscribers refetch now, the rest on their next read.
func (m *Manager) Invalidate(prefix string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	var ns notices
	for key, e := range m.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		e.stale = true
		if len(e.subs) > 0 && e.loader.Fetch != nil {
			m.supersedeLocked(e)
			m.launchLocked(e)
			ns = append(ns, m.noticeLocked(e))
		} else if e.inflight {
			m.supersedeLocked(e)
		}
	}
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.DeletePrefix(prefix); err != nil {
			m.logger.Warn().Err(err).Str("prefix", prefix).Msg("failed to drop persisted entries")
		}
	}
	ns.fire()
}

// Close cancels outstanding fetches, waits for them and closes the store.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

func (m *Manager) entryLocked(key string, loader Loader) *entry {
	e, ok := m.entries[key]
	if !ok {
		e = &entry{key: key, subs: map[uint64]func(Snapshot){}}
		m.entries[key] = e
	}
	if loader.Fetch != nil {
		e.loader = loader
	}
	if !e.seeded && !e.hasData && m.store != nil && e.loader.Decode != nil {
		e.seeded = true
		m.seedLocked(e)
	}
	return e
}

func (m *Manager) seedLocked(e *entry) {
	raw, at, ok, err := m.store.Load(e.key)
	if err != nil {
		m.logger.Warn().Err(err).Str("key", e.key).Msg("failed to load persisted entry")
		return
	}
	if !ok {
		return
	}
	v, err := e.loader.Decode(raw)
	if err != nil {
		m.logger.Debug().Err(err).Str("key", e.key).Msg("discarding undecodable persisted entry")
		return
	}
	e.data, e.hasData, e.updatedAt, e.restored = v, true, at, true
}

func (m *Manager) needsFetchLocked(e *entry, freshFor time.Duration) bool {
	if e.inflight || e.loader.Fetch == nil {
		return false
	}
	return !e.hasData || e.stale || e.restored || m.now().Sub(e.updatedAt) >= freshFor
}

// supersedeLocked detaches the in-flight fetch so its result is ignored.
func (m *Manager) supersedeLocked(e *entry) {
	e.gen++
	e.inflight = false
	e.wakeLocked()
}

func (e *entry) wakeLocked() {
	if e.wake != nil {
		close(e.wake)
		e.wake = nil
	}
}

func (m *Manager) launchLocked(e *entry) {
	e.inflight = true
	gen, loader := e.gen, e.loader

	inflight.Inc()
	m.wg.Add(1)
	go m.run(e, gen, loader)
}

func (m *Manager) run(e *entry, gen uint64, loader Loader) {
	defer m.wg.Done()
	defer inflight.Dec()

	val, err := loader.Fetch(m.ctx)

	m.mu.Lock()
	if e.gen != gen {
		m.mu.Unlock()
		fetches.WithLabelValues("discarded").Inc()
		m.logger.Debug().Str("key", e.key).Uint64("generation", gen).Msg("discarded superseded result")
		return
	}
	e.inflight = false
	e.wakeLocked()
	if err != nil {
		e.err = err
		fetches.WithLabelValues("error").Inc()
		m.logger.Debug().Err(err).Str("key", e.key).Msg("fetch failed")
	} else {
		e.data, e.hasData, e.err = val, true, nil
		e.updatedAt, e.stale, e.restored = m.now(), false, false
		fetches.WithLabelValues("success").Inc()
	}
	n := m.noticeLocked(e)
	at := e.updatedAt
	persist := err == nil && loader.Decode != nil
	m.mu.Unlock()

	if persist {
		m.persist(e.key, val, at)
	}
	n.fire()
}

func (m *Manager) persist(key string, value any, at time.Time) {
	if m.store == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		m.logger.Debug().Err(err).Str("key", key).Msg("value not persistable")
		return
	}
	if err := m.store.Save(key, raw, at); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("failed to persist entry")
	}
}

func (m *Manager) noticeLocked(e *entry) notice {
	n := notice{snap: m.snapshotLocked(e)}
	for _, fn := range e.subs {
		n.subs = append(n.subs, fn)
	}
	return n
}

func (m *Manager) snapshotLocked(e *entry) Snapshot {
	s := Snapshot{
		Key:        e.key,
		Data:       e.data,
		HasData:    e.hasData,
		Err:        e.err,
		UpdatedAt:  e.updatedAt,
		Generation: e.gen,
	}
	switch {
	case e.inflight && !e.hasData:
		s.Status = StatusLoading
	case e.inflight:
		s.Status = StatusRevalidating
	case e.err != nil:
		s.Status = StatusError
	case e.hasData:
		s.Status = StatusReady
	default:
		s.Status = StatusIdle
	}
	return s
}
