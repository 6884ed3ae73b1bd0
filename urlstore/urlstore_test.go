package urlstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a store in a temp directory
func setupTestStore(t *testing.T) *Store {
	return New(filepath.Join(t.TempDir(), "urls.txt"))
}

// TestAppend_ThenAppendAgain verifies appends accumulate across calls
func TestAppend_ThenAppendAgain(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Append([]string{"http://a", "http://b"}))
	require.NoError(t, store.Append([]string{"http://c"}))

	links, err := store.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a", "http://b", "http://c"}, links)
}

// TestAppend_OneLinePerURL verifies the on-disk format
func TestAppend_OneLinePerURL(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Append([]string{"http://a", "http://b"}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "http://a\nhttp://b\n", string(data))
}

// TestAppend_KeepsDuplicates verifies no deduplication happens
func TestAppend_KeepsDuplicates(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Append([]string{"http://a"}))
	require.NoError(t, store.Append([]string{"http://a"}))

	links, err := store.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a", "http://a"}, links)
}

// TestAppend_Empty verifies appending nothing creates an empty log
func TestAppend_Empty(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Append(nil))

	_, err := os.Stat(store.Path())
	require.NoError(t, err, "log file should exist")

	links, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, links)
}

// TestReadAll_Missing verifies a missing log reads as empty
func TestReadAll_Missing(t *testing.T) {
	store := setupTestStore(t)

	links, err := store.ReadAll()
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)
}

// TestReadAll_TrimsAndSkipsBlankLines verifies hand-edited logs are tolerated
func TestReadAll_TrimsAndSkipsBlankLines(t *testing.T) {
	store := setupTestStore(t)
	content := "  http://a  \n\n\t\nhttp://b\r\nhttp://c"
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0o600))

	links, err := store.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a", "http://b", "http://c"}, links)
}

// TestReadAll_LongLine verifies long venue URLs survive
func TestReadAll_LongLine(t *testing.T) {
	store := setupTestStore(t)
	long := "http://example.com/" + strings.Repeat("x", 100*1024)

	require.NoError(t, store.Append([]string{long}))

	links, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, long, links[0])
}
