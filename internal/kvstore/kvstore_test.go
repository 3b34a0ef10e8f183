package kvstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type document struct {
	Name  string   `yaml:"name"`
	Count int      `yaml:"count"`
	Tags  []string `yaml:"tags"`
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	in := document{Name: "rules", Count: 3, Tags: []string{"a", "b"}}
	require.NoError(t, store.Put("rules", in))

	var out document
	found, err := store.Get("rules", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestFileStoreAbsentKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var out document
	found, err := store.Get("missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStorePutReplaces(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("doc", document{Name: "first"}))
	require.NoError(t, store.Put("doc", document{Name: "second"}))

	var out document
	found, err := store.Get("doc", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", out.Name)
}

func TestFileStoreDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put("doc", document{Name: "x"}))
	require.NoError(t, store.Delete("doc"))

	var out document
	found, err := store.Get("doc", &out)
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete("doc"))
}

func TestFileStoreCommitsWholeFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put("doc", document{Name: "x"}))

	// No temp file is left behind after a committed write.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.yaml", entries[0].Name())
	assert.Equal(t, filepath.Ext(entries[0].Name()), ".yaml")
}
