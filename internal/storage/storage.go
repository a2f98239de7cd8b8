package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Namespace and key under which the anchor list of a user is stored.
const (
	Namespace = "anchor-links-pad"
	LinksKey  = "links"
)

var ErrInvalidRef = errors.New("storage: user, namespace and key are required")

// Ref addresses one user-scoped flag value.
type Ref struct {
	User      string
	Namespace string
	Key       string
}

// LinksRef returns the ref of the anchor list for user.
func LinksRef(user string) Ref {
	return Ref{User: user, Namespace: Namespace, Key: LinksKey}
}

func (r Ref) validate() error {
	if r.User == "" || r.Namespace == "" || r.Key == "" {
		return fmt.Errorf("%w: %+v", ErrInvalidRef, r)
	}
	return nil
}

// FlagStore persists opaque JSON values scoped to a user.
// A missing value is reported with ok=false and a nil error.
type FlagStore interface {
	GetFlag(ctx context.Context, ref Ref) (value []byte, ok bool, err error)
	SetFlag(ctx context.Context, ref Ref, value []byte) error
}

// flagFile is the on-disk layout of JSONFlagStore: user -> namespace -> key -> value.
type flagFile map[string]map[string]map[string]json.RawMessage

// JSONFlagStore implements FlagStore using a single JSON file.
type JSONFlagStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONFlagStore creates a new JSONFlagStore with the given file path.
func NewJSONFlagStore(path string) *JSONFlagStore {
	return &JSONFlagStore{path: path}
}

// Path returns the storage file path.
func (s *JSONFlagStore) Path() string {
	return s.path
}

// GetFlag reads one value from the JSON file.
func (s *JSONFlagStore) GetFlag(_ context.Context, ref Ref) ([]byte, bool, error) {
	if err := ref.validate(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := s.read()
	if err != nil {
		return nil, false, err
	}

	value, ok := flags[ref.User][ref.Namespace][ref.Key]
	if !ok {
		return nil, false, nil
	}

	// The file is indented, so values come back compacted
	var out bytes.Buffer
	if err := json.Compact(&out, value); err != nil {
		return nil, false, fmt.Errorf("storage: decode %s.%s: %w", ref.Namespace, ref.Key, err)
	}
	return out.Bytes(), true, nil
}

// SetFlag writes one value, replacing the whole file atomically.
func (s *JSONFlagStore) SetFlag(_ context.Context, ref Ref, value []byte) error {
	if err := ref.validate(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("storage: value for %s.%s is not valid JSON", ref.Namespace, ref.Key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := s.read()
	if err != nil {
		return err
	}

	if flags[ref.User] == nil {
		flags[ref.User] = map[string]map[string]json.RawMessage{}
	}
	if flags[ref.User][ref.Namespace] == nil {
		flags[ref.User][ref.Namespace] = map[string]json.RawMessage{}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, value); err != nil {
		return err
	}
	flags[ref.User][ref.Namespace][ref.Key] = json.RawMessage(compact.Bytes())

	return s.write(flags)
}

// read loads the file. A missing file is an empty store.
func (s *JSONFlagStore) read() (flagFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return flagFile{}, nil
		}
		return nil, err
	}

	flags := flagFile{}
	if err := json.Unmarshal(data, &flags); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", s.path, err)
	}
	return flags, nil
}

// write replaces the file through a temp file and rename so readers never see
// a half-written file.
func (s *JSONFlagStore) write(flags flagFile) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(flags, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// MemoryFlagStore is an in-memory FlagStore for tests and ephemeral sessions.
type MemoryFlagStore struct {
	mu     sync.RWMutex
	values map[Ref][]byte
}

func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{values: map[Ref][]byte{}}
}

func (s *MemoryFlagStore) GetFlag(_ context.Context, ref Ref) ([]byte, bool, error) {
	if err := ref.validate(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	value, ok := s.values[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *MemoryFlagStore) SetFlag(_ context.Context, ref Ref, value []byte) error {
	if err := ref.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.values[ref] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

// Open opens the backend selected by cfg.
func Open(cfg *Config) (FlagStore, func() error, error) {
	switch cfg.Backend {
	case BackendJSON:
		return NewJSONFlagStore(filepath.Join(cfg.DataDir, "flags.json")), func() error { return nil }, nil
	case BackendSQLite, "":
		s, err := NewSQLiteFlagStore(filepath.Join(cfg.DataDir, "flags.db"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case BackendMemory:
		return NewMemoryFlagStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
