package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RecordAndRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx,
		Entry{RunID: "run-1", TMDBID: 550, MovieID: 40, Title: "Fight Club", Actors: []int{1, 2, 3}, Directors: []int{4}, CreatedAt: at},
		Entry{RunID: "run-1", TMDBID: 680, MovieID: 55, Title: "Pulp Fiction", Genres: []int{9}},
		Entry{RunID: "run-2", TMDBID: 13, MovieID: 60, Title: "Forrest Gump"},
	))

	entries, err := store.Run(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Fight Club", entries[0].Title)
	assert.Equal(t, 550, entries[0].TMDBID)
	assert.Equal(t, 40, entries[0].MovieID)
	assert.Equal(t, []int{1, 2, 3}, entries[0].Actors)
	assert.Equal(t, []int{4}, entries[0].Directors)
	assert.Equal(t, []int{}, entries[0].Writers)
	assert.True(t, at.Equal(entries[0].CreatedAt))

	assert.Equal(t, "Pulp Fiction", entries[1].Title)
	assert.Equal(t, []int{9}, entries[1].Genres)
	assert.False(t, entries[1].CreatedAt.IsZero())

	none, err := store.Run(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_MovieNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Entry{RunID: "a", TMDBID: 550, MovieID: 1, Title: "Fight Club"}))
	require.NoError(t, store.Record(ctx, Entry{RunID: "b", TMDBID: 550, MovieID: 2, Title: "Fight Club"}))

	entries, err := store.Movie(ctx, 550)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].RunID)
	assert.Equal(t, "a", entries[1].RunID)
}

func TestSQLiteStore_RecordNothing(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Record(context.Background()))
}

func TestSQLiteStore_CloseWithoutConnect(t *testing.T) {
	assert.NoError(t, NewSQLiteStore("unused.db").Close())
}
