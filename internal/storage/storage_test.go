package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingStore_Stage(t *testing.T) {
	store, err := NewStagingStore(t.TempDir())
	require.NoError(t, err)

	path, size, err := store.Stage("images", "screen.png", strings.NewReader("png bytes"))
	require.NoError(t, err)

	assert.Equal(t, int64(len("png bytes")), size)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(content))

	// field-{timestamp}-{uuid}{ext}
	name := filepath.Base(path)
	assert.Regexp(t, regexp.MustCompile(`^images-\d+-[0-9a-f-]{36}\.png$`), name)
}

func TestStagingStore_StageUniqueNames(t *testing.T) {
	store, err := NewStagingStore(t.TempDir())
	require.NoError(t, err)

	first, _, err := store.Stage("images", "a.png", strings.NewReader("one"))
	require.NoError(t, err)
	second, _, err := store.Stage("images", "a.png", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestStagingStore_Remove(t *testing.T) {
	store, err := NewStagingStore(t.TempDir())
	require.NoError(t, err)

	path, _, err := store.Stage("images", "screen.png", strings.NewReader("png bytes"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStagingStore_RemoveOutsideBaseDir(t *testing.T) {
	store, err := NewStagingStore(t.TempDir())
	require.NoError(t, err)

	outside := filepath.Join(t.TempDir(), "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))

	err = store.Remove(outside)
	require.Error(t, err)
	_, statErr := os.Stat(outside)
	assert.NoError(t, statErr, "files outside the staging directory must not be touched")
}

func TestStagingStore_Sweep(t *testing.T) {
	store, err := NewStagingStore(t.TempDir())
	require.NoError(t, err)

	stale, _, err := store.Stage("images", "old.png", strings.NewReader("old"))
	require.NoError(t, err)
	fresh, _, err := store.Stage("images", "new.png", strings.NewReader("new"))
	require.NoError(t, err)

	// Age the first file past the cutoff
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	removed, err := store.Sweep(time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestStagedFileName(t *testing.T) {
	withDot := StagedFileName("images", ".png")
	assert.True(t, strings.HasPrefix(withDot, "images-"))
	assert.True(t, strings.HasSuffix(withDot, ".png"))

	withoutDot := StagedFileName("images", "png")
	assert.True(t, strings.HasSuffix(withoutDot, ".png"))

	noExt := StagedFileName("images", "")
	assert.False(t, strings.HasSuffix(noExt, "."))
}
