// Package settings is the key/value surface for UI preferences. Values are
// opaque strings; the package never validates them.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lazypower/takenote/internal/store"
)

// Known keys.
const (
	KeyTheme       = "theme"
	KeyFontSize    = "fontSize"
	KeyLineHeight  = "lineHeight"
	KeyEditorWidth = "editorWidth"
)

// Defaults are returned by Value and All for keys that were never set.
var Defaults = map[string]string{
	KeyTheme:       "system",
	KeyFontSize:    "medium",
	KeyLineHeight:  "default",
	KeyEditorWidth: "standard",
}

// DefaultCacheSize bounds the number of cached keys.
const DefaultCacheSize = 128

// ErrEmptyKey is returned when a setting key is blank.
var ErrEmptyKey = errors.New("empty setting key")

// Store caches settings in front of the note store. The cache is filled
// once by Load, read through on a miss and written through on Set. Writes
// made by anything else, such as an import, are picked up on the next read
// because the settings table version moves.
type Store struct {
	db    *store.DB
	cache *lru.Cache[string, string]

	mu      sync.Mutex
	version uint64

	// committed runs right after Set's transaction commits. Nil outside tests.
	committed func()
}

// New returns a Store with an empty cache of the given size.
func New(db *store.DB, size int) (*Store, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("settings cache: %w", err)
	}
	return &Store{db: db, cache: cache}, nil
}

// Load fills the cache from the store.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Reload drops the cache and fills it again.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Store) load(ctx context.Context) error {
	version := s.db.TableVersion(store.TableSettings)
	var all []store.Setting
	err := s.db.View(ctx, func(tx *store.Tx) error {
		var err error
		all, err = tx.AllSettings(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	s.cache.Purge()
	for _, st := range all {
		s.cache.Add(st.Key, st.Value)
	}
	s.version = version
	return nil
}

func (s *Store) syncLocked(ctx context.Context) error {
	if s.db.TableVersion(store.TableSettings) == s.version {
		return nil
	}
	return s.load(ctx)
}

// Get returns the stored value for key and whether it was set.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncLocked(ctx); err != nil {
		return "", false, err
	}
	if v, ok := s.cache.Get(key); ok {
		return v, true, nil
	}

	var st *store.Setting
	err := s.db.View(ctx, func(tx *store.Tx) error {
		var err error
		st, err = tx.GetSetting(ctx, key)
		return err
	})
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	if st == nil {
		return "", false, nil
	}
	s.cache.Add(key, st.Value)
	return st.Value, true, nil
}

// Value returns the stored value for key, or its default.
func (s *Store) Value(ctx context.Context, key string) (string, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return Defaults[key], nil
	}
	return v, nil
}

// Set persists value under key and updates the cache.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.db.Version()
	if err := s.syncLocked(ctx); err != nil {
		return err
	}
	err := s.db.Update(ctx, func(tx *store.Tx) error {
		return tx.PutSetting(ctx, store.Setting{Key: key, Value: value})
	})
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	if s.committed != nil {
		s.committed()
	}

	// The write landed at before+1 only if nothing else committed around it.
	if s.db.TableVersion(store.TableSettings) != before+1 {
		return s.load(ctx)
	}
	s.cache.Add(key, value)
	s.version = before + 1
	return nil
}

// All returns every stored setting merged over the defaults.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	var all []store.Setting
	err := s.db.View(ctx, func(tx *store.Tx) error {
		var err error
		all, err = tx.AllSettings(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("all settings: %w", err)
	}

	out := make(map[string]string, len(Defaults)+len(all))
	for k, v := range Defaults {
		out[k] = v
	}
	for _, st := range all {
		out[st.Key] = st.Value
	}
	return out, nil
}
