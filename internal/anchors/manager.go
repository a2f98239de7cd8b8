// Package anchors maintains a user's anchor list and drives it from drops,
// manual entry and deletes.
package anchors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nikbrunner/anchors/internal/model"
	"github.com/nikbrunner/anchors/internal/storage"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrPersistence     = errors.New("failed to save anchors")
	ErrInvalidEntry    = errors.New("entry needs an identifier and a label")
	ErrClosed          = errors.New("anchor manager is closed")
)

// Manager owns the anchor list of one user. Operations are executed one at a
// time, in submission order, by a single worker goroutine.
type Manager struct {
	store  storage.FlagStore
	ref    storage.Ref
	logger *slog.Logger

	ops       chan operation
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	cached model.List // nil when unknown or possibly stale
}

type operation struct {
	ctx    context.Context
	run    func(ctx context.Context) (model.List, error)
	result chan<- result
}

type result struct {
	list model.List
	err  error
}

// NewManager creates a Manager for user backed by store and starts its worker.
// Call Close to stop it.
func NewManager(store storage.FlagStore, user string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		store:  store,
		ref:    storage.LinksRef(user),
		logger: logger.With("user", user),
		ops:    make(chan operation),
		done:   make(chan struct{}),
	}
	go m.work()
	return m
}

// User returns the user the manager is bound to.
func (m *Manager) User() string {
	return m.ref.User
}

// Close stops the worker. Operations submitted afterwards fail with ErrClosed.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// List returns the last list known to match durable state.
// ok is false before the first successful operation or after a failed write.
func (m *Manager) List() (list model.List, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cached == nil {
		return nil, false
	}
	return m.cached.Clone(), true
}

// Load returns the stored list. A missing value is an empty list.
func (m *Manager) Load(ctx context.Context) (model.List, error) {
	return m.submit(ctx, func(ctx context.Context) (model.List, error) {
		return m.load(ctx)
	})
}

// Append adds entry at the end of the list and returns the new list.
func (m *Manager) Append(ctx context.Context, entry model.Entry) (model.List, error) {
	if !entry.Valid() {
		return nil, ErrInvalidEntry
	}
	return m.AppendAll(ctx, []model.Entry{entry})
}

// AppendAll adds entries in order with a single write.
func (m *Manager) AppendAll(ctx context.Context, entries []model.Entry) (model.List, error) {
	for _, e := range entries {
		if !e.Valid() {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidEntry, e)
		}
	}
	return m.AppendAllFunc(ctx, func(model.List) []model.Entry { return entries })
}

// AppendAllFunc appends whatever pick returns for the current list, with a
// single write. pick runs inside the queued operation, so no other write can
// land between reading the list and appending to it.
func (m *Manager) AppendAllFunc(ctx context.Context, pick func(current model.List) []model.Entry) (model.List, error) {
	return m.submit(ctx, func(ctx context.Context) (model.List, error) {
		list, err := m.load(ctx)
		if err != nil {
			return nil, err
		}

		entries := pick(list.Clone())
		for _, e := range entries {
			if !e.Valid() {
				return nil, fmt.Errorf("%w: %+v", ErrInvalidEntry, e)
			}
		}
		if len(entries) == 0 {
			return list, nil
		}

		next := append(list.Clone(), entries...)
		if err := m.save(ctx, next); err != nil {
			return nil, err
		}
		return next.Clone(), nil
	})
}

// RemoveAt removes the entry at index. An index outside the list leaves it
// unchanged; the current list is returned together with ErrIndexOutOfRange.
func (m *Manager) RemoveAt(ctx context.Context, index int) (model.List, error) {
	return m.submit(ctx, func(ctx context.Context) (model.List, error) {
		list, err := m.load(ctx)
		if err != nil {
			return nil, err
		}
		if !list.InRange(index) {
			return list, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(list))
		}

		next := make(model.List, 0, len(list)-1)
		next = append(next, list[:index]...)
		next = append(next, list[index+1:]...)
		if err := m.save(ctx, next); err != nil {
			return nil, err
		}
		return next.Clone(), nil
	})
}

// submit queues fn and waits for its result. An operation whose caller has
// stopped waiting before it starts is skipped; once started it runs to
// completion.
func (m *Manager) submit(ctx context.Context, fn func(context.Context) (model.List, error)) (model.List, error) {
	res := make(chan result, 1)

	select {
	case m.ops <- operation{ctx: ctx, run: fn, result: res}:
	case <-m.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-res:
		return r.list, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) work() {
	for {
		select {
		case <-m.done:
			return
		case op := <-m.ops:
			select {
			case <-m.done:
				op.result <- result{err: ErrClosed}
				return
			default:
			}
			if err := op.ctx.Err(); err != nil {
				op.result <- result{err: err}
				continue
			}
			list, err := op.run(context.WithoutCancel(op.ctx))
			op.result <- result{list: list, err: err}
		}
	}
}

// load reads and decodes the stored list and refreshes the cache.
func (m *Manager) load(ctx context.Context) (model.List, error) {
	raw, ok, err := m.store.GetFlag(ctx, m.ref)
	if err != nil {
		m.invalidate()
		return nil, fmt.Errorf("load anchors: %w", err)
	}

	list := model.List{}
	if ok {
		if err := json.Unmarshal(raw, &list); err != nil {
			m.invalidate()
			return nil, fmt.Errorf("decode anchors: %w", err)
		}
		if list == nil {
			list = model.List{}
		}
	}

	m.setCached(list)
	return list, nil
}

// save writes list. On failure the cache is dropped so nothing trusts the
// unsaved list.
func (m *Manager) save(ctx context.Context, list model.List) error {
	data, err := json.Marshal(list)
	if err != nil {
		m.invalidate()
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := m.store.SetFlag(ctx, m.ref, data); err != nil {
		m.invalidate()
		m.logger.ErrorContext(ctx, "anchor list write failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	m.setCached(list)
	m.logger.DebugContext(ctx, "anchor list saved", "count", len(list))
	return nil
}

func (m *Manager) setCached(list model.List) {
	m.mu.Lock()
	m.cached = list.Clone()
	m.mu.Unlock()
}

func (m *Manager) invalidate() {
	m.mu.Lock()
	m.cached = nil
	m.mu.Unlock()
}

// Registry hands out one Manager per user so each user gets its own queue.
type Registry struct {
	store  storage.FlagStore
	logger *slog.Logger

	mu       sync.Mutex
	managers map[string]*Manager
}

// NewRegistry creates a Registry over store.
func NewRegistry(store storage.FlagStore, logger *slog.Logger) *Registry {
	return &Registry{
		store:    store,
		logger:   logger,
		managers: map[string]*Manager{},
	}
}

// For returns the manager of user, creating it on first use.
func (r *Registry) For(user string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[user]; ok {
		return m
	}
	m := NewManager(r.store, user, r.logger)
	r.managers[user] = m
	return m
}

// Close stops every manager.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for user, m := range r.managers {
		m.Close()
		delete(r.managers, user)
	}
}
