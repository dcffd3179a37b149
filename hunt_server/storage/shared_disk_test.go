package storage_test

import (
	"ar_hunt/hunt_server/storage"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedDiskReadWriteDelete(t *testing.T) {
	store := storage.NewSharedDisk(t.TempDir())

	require.NoError(t, store.Write("assets/event_image.png", strings.NewReader("png-bytes")))

	exists, err := store.Exists("assets/event_image.png")
	require.NoError(t, err)
	assert.True(t, exists)

	size, err := store.Size("assets/event_image.png")
	require.NoError(t, err)
	assert.EqualValues(t, len("png-bytes"), size)

	file, err := store.Read("assets/event_image.png")
	require.NoError(t, err)
	data, err := io.ReadAll(file)
	file.Close()
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete("assets/event_image.png"))
	exists, err = store.Exists("assets/event_image.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSharedDiskStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store := storage.NewSharedDisk(root)

	require.NoError(t, store.Write("../../escape.txt", strings.NewReader("x")))
	exists, err := store.Exists("escape.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.Read("")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}

func TestSharedDiskUsage(t *testing.T) {
	store := storage.NewSharedDisk(t.TempDir())
	usage, err := store.Usage()
	require.NoError(t, err)
	assert.Greater(t, usage.TotalBytes, uint64(0))
	assert.LessOrEqual(t, usage.FreeBytes, usage.TotalBytes)
}
