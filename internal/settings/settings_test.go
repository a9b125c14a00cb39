package settings

import (
	"context"
	"testing"

	"github.com/lazypower/takenote/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*Store, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := New(db, 0)
	require.NoError(t, err)
	require.NoError(t, s.Load(context.Background()))
	return s, db
}

func TestGetUnset(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	v, ok, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)

	v, err = s.Value(ctx, KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "system", v)
}

func TestSetWritesThrough(t *testing.T) {
	s, db := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyFontSize, "large"))

	v, ok, err := s.Get(ctx, KeyFontSize)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "large", v)

	require.NoError(t, db.View(ctx, func(tx *store.Tx) error {
		st, err := tx.GetSetting(ctx, KeyFontSize)
		require.NotNil(t, st)
		assert.Equal(t, "large", st.Value)
		return err
	}))
}

func TestSetSeesWriteCommittedAlongside(t *testing.T) {
	s, db := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, KeyTheme, "light"))

	// Another writer commits between Set's transaction and its cache update.
	s.committed = func() {
		require.NoError(t, db.Update(ctx, func(tx *store.Tx) error {
			return tx.PutSetting(ctx, store.Setting{Key: KeyTheme, Value: "dark"})
		}))
	}
	require.NoError(t, s.Set(ctx, KeyFontSize, "large"))
	s.committed = nil

	v, ok, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	v, err = s.Value(ctx, KeyFontSize)
	require.NoError(t, err)
	assert.Equal(t, "large", v)
}

func TestSetSkipsReloadWhenAlone(t *testing.T) {
	s, db := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyTheme, "light"))
	assert.Equal(t, db.TableVersion(store.TableSettings), s.version)
	assert.Equal(t, db.Version(), s.version)
}

func TestExternalWriteIsVisible(t *testing.T) {
	s, db := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyTheme, "dark"))
	_, _, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)

	// Simulates an import replacing the settings table.
	require.NoError(t, db.Update(ctx, func(tx *store.Tx) error {
		if err := tx.Clear(ctx, store.TableSettings); err != nil {
			return err
		}
		return tx.PutSetting(ctx, store.Setting{Key: KeyLineHeight, Value: "loose"})
	}))

	_, ok, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.False(t, ok, "stale cached theme survived an external clear")

	v, err := s.Value(ctx, KeyLineHeight)
	require.NoError(t, err)
	assert.Equal(t, "loose", v)
}

func TestLoadPrefillsCache(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.Update(ctx, func(tx *store.Tx) error {
		return tx.PutSetting(ctx, store.Setting{Key: KeyEditorWidth, Value: "wide"})
	}))

	s, err := New(db, 4)
	require.NoError(t, err)
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 1, s.cache.Len())

	v, ok := s.cache.Get(KeyEditorWidth)
	assert.True(t, ok)
	assert.Equal(t, "wide", v)
}

func TestAllMergesDefaults(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyTheme, "dark"))
	require.NoError(t, s.Set(ctx, "sidebarWidth", "240"))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		KeyTheme:       "dark",
		KeyFontSize:    "medium",
		KeyLineHeight:  "default",
		KeyEditorWidth: "standard",
		"sidebarWidth": "240",
	}, all)
}

func TestSetEmptyKey(t *testing.T) {
	s, _ := testStore(t)
	assert.ErrorIs(t, s.Set(context.Background(), "", "x"), ErrEmptyKey)
}
