package watermark

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xb10c/mempoolnote/src/test"
)

func TestFileStore_CreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)

	store, err := NewFileStore(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	id, err := store.LastPaymentID()
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	store, err := NewFileStore(path)
	require.NoError(t, err)

	first := test.GeneratePaymentID("first")
	require.NoError(t, store.SetLastPaymentID(first))

	// a new store on the same file sees the stored id
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	id, err := reopened.LastPaymentID()
	require.NoError(t, err)
	assert.Equal(t, first, id)

	second := test.GeneratePaymentID("second")
	require.NoError(t, reopened.SetLastPaymentID(second))
	b, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, second, string(b))

	matches, err := filepath.Glob(path + ".tmp*")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStore_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	id := test.GeneratePaymentID("edited")
	require.NoError(t, ioutil.WriteFile(path, []byte(id+"\n"), 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := store.LastPaymentID()
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestFileStore_MissingDirectory(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "missing", DefaultFile))
	assert.Error(t, err)
}
