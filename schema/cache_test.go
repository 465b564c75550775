package schema_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/compress"
	"github.com/quantforge/sbe/schema"
)

func TestCacheStore_SaveLoad_RoundTrip(t *testing.T) {
	s, err := schema.Parse([]byte(orderSchemaXML))
	require.NoError(t, err)

	store, err := schema.NewCacheStore(compress.Zstd)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "order.schema.cache")

	require.NoError(t, store.Save(path, []byte(orderSchemaXML), s))

	loaded, ok, err := store.Load(path, []byte(orderSchemaXML))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, s.ID, loaded.ID)
	require.Len(t, loaded.Messages, 1)
	require.Equal(t, s.Messages[0].Name, loaded.Messages[0].Name)
}

func TestCacheStore_Load_StaleSourceMisses(t *testing.T) {
	s, err := schema.Parse([]byte(orderSchemaXML))
	require.NoError(t, err)

	store, err := schema.NewCacheStore(compress.None)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "order.schema.cache")
	require.NoError(t, store.Save(path, []byte(orderSchemaXML), s))

	_, ok, err := store.Load(path, []byte(orderSchemaXML+"<!-- changed -->"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheStore_Load_MissingFile(t *testing.T) {
	store, err := schema.NewCacheStore(compress.None)
	require.NoError(t, err)

	_, ok, err := store.Load(filepath.Join(t.TempDir(), "missing"), []byte("x"))
	require.NoError(t, err)
	require.False(t, ok)
}
