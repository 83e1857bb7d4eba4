package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, store.Names())
	assert.DirExists(t, filepath.Dir(path))
}

func TestSaveAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	store, err := Open(path)
	require.NoError(t, err)

	md := volume.Metadata{
		Basis:       volume.IdentityBasis([3]int{4, 4, 2}),
		Information: volume.Information{ValueUnit: "HU", ValueRange: volume.Range{Min: -5, Max: 5}},
	}
	store.Put("brain", State{Mode: "folder", Folder: "/data", Filter: "*.raw", Metadata: &md})
	require.NoError(t, store.Save())
	assert.NoFileExists(t, path+".tmp")

	reopened, err := Open(path)
	require.NoError(t, err)
	st, ok := reopened.Get("brain")
	require.True(t, ok)
	assert.Equal(t, "*.raw", st.Filter)
	require.NotNil(t, st.Metadata)
	assert.True(t, md.Basis.Equal(st.Metadata.Basis))
	assert.Equal(t, "HU", st.Metadata.Information.ValueUnit)
	assert.False(t, st.SavedAt.IsZero())
}

func TestPutKeepsExplicitTimestamp(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.Put("a", State{Mode: "file", SavedAt: at})
	st, _ := store.Get("a")
	assert.Equal(t, at, st.SavedAt)
}

func TestDeleteAndNames(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)
	store.Put("b", State{Mode: "file"})
	store.Put("a", State{Mode: "file"})

	assert.Equal(t, []string{"a", "b"}, store.Names())
	assert.True(t, store.Delete("a"))
	assert.False(t, store.Delete("a"))
	assert.Equal(t, []string{"b"}, store.Names())
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "s.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse session file")
}
