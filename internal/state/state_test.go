package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"slotwatch/internal/components/chrono"

	"github.com/stretchr/testify/require"
)

var testClock = chrono.FixedImpl{At: time.Date(2024, time.May, 20, 9, 30, 0, 0, time.UTC)}

type clearingStore interface {
	Store
	Clearer
}

func exerciseStore(t *testing.T, store clearingStore) {
	ctx := context.Background()

	_, found, err := store.Read(ctx)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.Write(ctx, "3rd June 2024"))
	value, found, err := store.Read(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "3rd June 2024", value)

	require.NoError(t, store.Write(ctx, "1st June 2024"))
	value, _, err = store.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, "1st June 2024", value)

	require.NoError(t, store.Clear(ctx))
	_, found, err = store.Read(ctx)
	require.NoError(t, err)
	require.False(t, found)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	exerciseStore(t, NewFileStore(path))
}

func TestFileStoreRawContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	store := NewFileStore(path)
	require.NoError(t, store.Write(context.Background(), "3rd June 2024"))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "3rd June 2024", string(contents))
}

func TestFileStoreErrors(t *testing.T) {
	dir := t.TempDir()
	// reading or writing a directory fails
	store := NewFileStore(dir)

	_, _, err := store.Read(context.Background())
	require.ErrorIs(t, err, ErrRead)

	err = store.Write(context.Background(), "x")
	require.ErrorIs(t, err, ErrWrite)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, ":memory:", testClock)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)

	require.NoError(t, store.Write(ctx, "9th July 2024"))
	updatedAt, err := store.UpdatedAt(ctx)
	require.NoError(t, err)
	require.Equal(t, testClock.At.Unix(), updatedAt)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, Config{Path: filepath.Join(dir, "log.txt")}, testClock)
	require.NoError(t, err)
	require.IsType(t, FileStore{}, store)

	store, err = Open(ctx, Config{Driver: "sqlite", Path: filepath.Join(dir, "state.db")}, testClock)
	require.NoError(t, err)
	require.IsType(t, SQLStore{}, store)
	require.NoError(t, store.Write(ctx, "1st June 2024"))

	// reopening sees the value written before
	reopened, err := Open(ctx, Config{Driver: "sqlite", Path: filepath.Join(dir, "state.db")}, testClock)
	require.NoError(t, err)
	value, found, err := reopened.Read(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "1st June 2024", value)

	_, err = Open(ctx, Config{Driver: "libsql"}, testClock)
	require.Error(t, err)

	_, err = Open(ctx, Config{Driver: "redis"}, testClock)
	require.Error(t, err)
}
