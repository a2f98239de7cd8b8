package anchors_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nikbrunner/anchors/internal/anchors"
	"github.com/nikbrunner/anchors/internal/model"
	"github.com/nikbrunner/anchors/internal/storage"
	"gotest.tools/v3/assert"
)

// flakyStore wraps a MemoryFlagStore and fails writes or reads on demand.
type flakyStore struct {
	*storage.MemoryFlagStore

	mu        sync.Mutex
	failWrite error
	failRead  error
	writes    int
	delay     time.Duration
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryFlagStore: storage.NewMemoryFlagStore()}
}

func (s *flakyStore) GetFlag(ctx context.Context, ref storage.Ref) ([]byte, bool, error) {
	s.mu.Lock()
	err, delay := s.failRead, s.delay
	s.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	// Widens the read-modify-write window for interleaving tests
	time.Sleep(delay)
	return s.MemoryFlagStore.GetFlag(ctx, ref)
}

func (s *flakyStore) SetFlag(ctx context.Context, ref storage.Ref, value []byte) error {
	s.mu.Lock()
	err := s.failWrite
	s.writes++
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryFlagStore.SetFlag(ctx, ref, value)
}

func (s *flakyStore) setFailWrite(err error) {
	s.mu.Lock()
	s.failWrite = err
	s.mu.Unlock()
}

func (s *flakyStore) setFailRead(err error) {
	s.mu.Lock()
	s.failRead = err
	s.mu.Unlock()
}

func entry(id string) model.Entry {
	return model.Entry{Identifier: "Actor." + id, Label: id}
}

func newManager(t *testing.T, store storage.FlagStore) *anchors.Manager {
	t.Helper()
	m := anchors.NewManager(store, "alice", nil)
	t.Cleanup(m.Close)
	return m
}

func TestManager_LoadEmpty(t *testing.T) {
	m := newManager(t, storage.NewMemoryFlagStore())

	list, err := m.Load(context.Background())
	assert.NilError(t, err)
	assert.Assert(t, list != nil)
	assert.Equal(t, len(list), 0)
}

func TestManager_LoadIsIdempotent(t *testing.T) {
	m := newManager(t, storage.NewMemoryFlagStore())
	ctx := context.Background()

	_, err := m.Append(ctx, entry("a"))
	assert.NilError(t, err)

	first, err := m.Load(ctx)
	assert.NilError(t, err)
	second, err := m.Load(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, first, second)
}

func TestManager_AppendRoundTrip(t *testing.T) {
	m := newManager(t, storage.NewMemoryFlagStore())
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		before, err := m.Load(ctx)
		assert.NilError(t, err)

		appended, err := m.Append(ctx, entry(id))
		assert.NilError(t, err)
		assert.Equal(t, len(appended), len(before)+1)
		assert.Equal(t, appended[i], entry(id), "appended at the end")

		loaded, err := m.Load(ctx)
		assert.NilError(t, err)
		assert.DeepEqual(t, appended, loaded)
	}
}

func TestManager_AppendRejectsInvalidEntry(t *testing.T) {
	store := newFlakyStore()
	m := newManager(t, store)

	_, err := m.Append(context.Background(), model.Entry{Identifier: "Actor.a"})
	assert.ErrorIs(t, err, anchors.ErrInvalidEntry)
	assert.Equal(t, store.writes, 0)
}

func TestManager_RemoveAt(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{"first", 0, []string{"b", "c", "d"}},
		{"middle", 2, []string{"a", "b", "d"}},
		{"last", 3, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(t, storage.NewMemoryFlagStore())
			ctx := context.Background()
			_, err := m.AppendAll(ctx, []model.Entry{entry("a"), entry("b"), entry("c"), entry("d")})
			assert.NilError(t, err)

			list, err := m.RemoveAt(ctx, tt.index)
			assert.NilError(t, err)

			var got []string
			for _, e := range list {
				got = append(got, e.Label)
			}
			assert.DeepEqual(t, got, tt.want)

			loaded, err := m.Load(ctx)
			assert.NilError(t, err)
			assert.DeepEqual(t, loaded, list)
		})
	}
}

func TestManager_RemoveAtOutOfRange(t *testing.T) {
	store := newFlakyStore()
	m := newManager(t, store)
	ctx := context.Background()

	before, err := m.AppendAll(ctx, []model.Entry{entry("a"), entry("b")})
	assert.NilError(t, err)
	writes := store.writes

	for _, idx := range []int{-1, 2, 100} {
		list, err := m.RemoveAt(ctx, idx)
		assert.ErrorIs(t, err, anchors.ErrIndexOutOfRange)
		assert.DeepEqual(t, list, before)
	}

	assert.Equal(t, store.writes, writes, "out of range removal must not write")
	after, err := m.Load(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, after, before)
}

func TestManager_WriteFailureKeepsDurableState(t *testing.T) {
	store := newFlakyStore()
	m := newManager(t, store)
	ctx := context.Background()

	saved, err := m.Append(ctx, entry("a"))
	assert.NilError(t, err)

	cached, ok := m.List()
	assert.Assert(t, ok)
	assert.DeepEqual(t, cached, saved)

	store.setFailWrite(errors.New("disk full"))

	_, err = m.Append(ctx, entry("b"))
	assert.ErrorIs(t, err, anchors.ErrPersistence)
	assert.ErrorContains(t, err, "disk full")

	_, err = m.RemoveAt(ctx, 0)
	assert.ErrorIs(t, err, anchors.ErrPersistence)

	_, ok = m.List()
	assert.Assert(t, !ok, "cache must be invalidated after a failed write")

	store.setFailWrite(nil)
	reloaded, err := m.Load(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, reloaded, saved)
}

func TestManager_ReadFailure(t *testing.T) {
	store := newFlakyStore()
	m := newManager(t, store)
	ctx := context.Background()

	store.setFailRead(errors.New("io error"))

	_, err := m.Load(ctx)
	assert.ErrorContains(t, err, "io error")

	_, err = m.Append(ctx, entry("a"))
	assert.ErrorContains(t, err, "io error")
	assert.Equal(t, store.writes, 0, "no write may follow a failed read")
}

func TestManager_CorruptValue(t *testing.T) {
	store := storage.NewMemoryFlagStore()
	ctx := context.Background()
	assert.NilError(t, store.SetFlag(ctx, storage.LinksRef("alice"), []byte(`{"not":"a list"}`)))

	m := newManager(t, store)
	_, err := m.Load(ctx)
	assert.ErrorContains(t, err, "decode anchors")
}

func TestManager_SerializesConcurrentAppends(t *testing.T) {
	store := newFlakyStore()
	store.delay = time.Millisecond
	m := newManager(t, store)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Append(ctx, entry(fmt.Sprintf("e%02d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NilError(t, err)
	}

	list, err := m.Load(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(list), n, "no append may be lost")

	seen := map[string]bool{}
	for _, e := range list {
		assert.Assert(t, !seen[e.Identifier], "duplicate %s", e.Identifier)
		seen[e.Identifier] = true
	}
}

func TestManager_AppendAllFuncSeesCurrentList(t *testing.T) {
	m := newManager(t, newFlakyStore())
	ctx := context.Background()

	_, err := m.Append(ctx, entry("a"))
	assert.NilError(t, err)

	var seen model.List
	list, err := m.AppendAllFunc(ctx, func(current model.List) []model.Entry {
		seen = current
		return []model.Entry{entry("b")}
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, seen, model.List{entry("a")})
	assert.DeepEqual(t, list, model.List{entry("a"), entry("b")})
}

func TestManager_AppendAllFuncRejectsInvalidPick(t *testing.T) {
	store := newFlakyStore()
	m := newManager(t, store)
	ctx := context.Background()

	_, err := m.AppendAllFunc(ctx, func(model.List) []model.Entry {
		return []model.Entry{entry("ok"), {Identifier: "  "}}
	})
	assert.ErrorIs(t, err, anchors.ErrInvalidEntry)
	assert.Equal(t, store.writes, 0)

	list, err := m.Load(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(list), 0)
}

func TestManager_AppendAllFuncNothingPickedSkipsWrite(t *testing.T) {
	store := newFlakyStore()
	m := newManager(t, store)

	list, err := m.AppendAllFunc(context.Background(), func(model.List) []model.Entry { return nil })
	assert.NilError(t, err)
	assert.Equal(t, len(list), 0)
	assert.Equal(t, store.writes, 0)
}

func TestManager_CancelledBeforeStart(t *testing.T) {
	store := newFlakyStore()
	m := newManager(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Append(ctx, entry("a"))
	assert.ErrorIs(t, err, context.Canceled)

	list, err := m.Load(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(list), 0)
}

func TestManager_Closed(t *testing.T) {
	m := anchors.NewManager(storage.NewMemoryFlagStore(), "alice", nil)
	m.Close()
	m.Close()

	_, err := m.Load(context.Background())
	assert.ErrorIs(t, err, anchors.ErrClosed)
}

func TestRegistry_PerUserManagers(t *testing.T) {
	store := storage.NewMemoryFlagStore()
	r := anchors.NewRegistry(store, nil)
	defer r.Close()
	ctx := context.Background()

	alice := r.For("alice")
	assert.Equal(t, r.For("alice"), alice, "same manager for the same user")

	_, err := alice.Append(ctx, entry("a"))
	assert.NilError(t, err)

	bob, err := r.For("bob").Load(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(bob), 0)
}
