package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lepinkainen/bmn/internal/cache"
	"github.com/lepinkainen/bmn/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTMDBCache(t *testing.T) {
	t.Helper()

	require.NoError(t, cache.ResetGlobalCache())
	viper.Reset()
	t.Cleanup(func() {
		_ = cache.ResetGlobalCache()
		viper.Reset()
	})

	env := testutil.NewTestEnv(t)
	viper.Set("cache.dbfile", env.Path("tmdb-cache.db"))
	viper.Set("cache.ttl", "24h")

	_, err := cache.GetGlobalCache()
	require.NoError(t, err)
}

func TestCachedClient_PersonServedFromCache(t *testing.T) {
	setupTMDBCache(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"id": 819, "name": "Edward Norton", "biography": "Actor."})
	}))
	defer server.Close()

	cached := newTestClient(server.URL).Cached()

	for i := 0; i < 3; i++ {
		person, err := cached.GetPersonDetails(context.Background(), 819)
		require.NoError(t, err)
		assert.Equal(t, "Edward Norton", person.Name)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCachedClient_MovieAndCredits(t *testing.T) {
	setupTMDBCache(t)

	var movieCalls, creditCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/550":
			atomic.AddInt32(&movieCalls, 1)
			testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"id": 550, "title": "Fight Club"})
		case "/movie/550/credits":
			atomic.AddInt32(&creditCalls, 1)
			testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"id": 550, "cast": []map[string]any{{"id": 1, "name": "A"}}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	cached := newTestClient(server.URL).Cached()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		details, err := cached.GetMovieDetails(ctx, 550)
		require.NoError(t, err)
		assert.Equal(t, "Fight Club", details.Title)

		credits, err := cached.GetMovieCredits(ctx, 550)
		require.NoError(t, err)
		assert.Len(t, credits.Cast, 1)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&movieCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&creditCalls))
}

func TestCachedClient_EmptySearchNotCached(t *testing.T) {
	setupTMDBCache(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"page": 1, "results": []any{}})
	}))
	defer server.Close()

	cached := newTestClient(server.URL).Cached()

	for i := 0; i < 2; i++ {
		_, err := cached.SearchMovies(context.Background(), "Nothing Here", 1, false)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "the_room", normalizeQuery("  The Room "))
	assert.Equal(t, "troll_2", normalizeQuery("Troll 2"))
	assert.Equal(t, "plan_9_from_outer_space_", normalizeQuery("Plan 9 from Outer Space!"))
}
