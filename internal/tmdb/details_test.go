package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lepinkainen/bmn/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMovieDetails_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/movie/550", r.URL.Path)
		require.Equal(t, "credits", r.URL.Query().Get("append_to_response"))

		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{
			"id":             550,
			"imdb_id":        "tt0137523",
			"title":          "Fight Club",
			"original_title": "Fight Club",
			"release_date":   "1999-10-15",
			"runtime":        139,
			"budget":         63000000,
			"revenue":        100853753,
			"vote_average":   8.4,
			"genres":         []map[string]any{{"id": 18, "name": "Drama"}},
			"production_companies": []map[string]any{
				{"id": 508, "name": "Regency Enterprises", "logo_path": "/regency.png", "origin_country": "US"},
			},
			"production_countries": []map[string]any{{"iso_3166_1": "US", "name": "United States of America"}},
			"spoken_languages":     []map[string]any{{"iso_639_1": "en", "name": "English", "english_name": "English"}},
			"credits": map[string]any{
				"cast": []map[string]any{{"id": 819, "name": "Edward Norton", "character": "The Narrator", "order": 0}},
				"crew": []map[string]any{{"id": 7467, "name": "David Fincher", "job": "Director"}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	details, err := client.GetMovieDetails(context.Background(), 550)
	require.NoError(t, err)

	assert.Equal(t, "Fight Club", details.Title)
	assert.Equal(t, "1999", details.Year())
	assert.Equal(t, "tt0137523", details.IMDbID)
	assert.Equal(t, int64(63000000), details.Budget)
	assert.Equal(t, []Genre{{ID: 18, Name: "Drama"}}, details.Genres)
	assert.Equal(t, "US", details.ProductionCompanies[0].OriginCountry)
	assert.Equal(t, "US", details.ProductionCountries[0].ISO3166)
	assert.Equal(t, "English", details.SpokenLanguages[0].EnglishName)
	require.NotNil(t, details.Credits)
	assert.Equal(t, "The Narrator", details.Credits.Cast[0].Character)
	assert.Equal(t, "Director", details.Credits.Crew[0].Job)
}

func TestGetMovieDetails_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code": 34, "status_message": "The resource you requested could not be found."}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	details, err := client.GetMovieDetails(context.Background(), 999999)
	require.Error(t, err)
	assert.Nil(t, details)
	assert.Contains(t, err.Error(), "get movie 999999")
}

func TestGetPersonDetails_NullDates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/person/287", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":287,"name":"Brad Pitt","biography":"An actor.","birthday":"1963-12-18","deathday":null,"place_of_birth":"Shawnee, Oklahoma, USA","profile_path":"/brad.jpg"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	person, err := client.GetPersonDetails(context.Background(), 287)
	require.NoError(t, err)
	assert.Equal(t, "Brad Pitt", person.Name)
	assert.Equal(t, "1963-12-18", person.Birthday)
	assert.Empty(t, person.Deathday)
	assert.Equal(t, "Shawnee, Oklahoma, USA", person.PlaceOfBirth)
}

func TestGetGenres_Memoised(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "/genre/movie/list", r.URL.Path)
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{
			"genres": []map[string]any{{"id": 27, "name": "Horror"}, {"id": 35, "name": "Comedy"}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	first, err := client.GetGenres(context.Background())
	require.NoError(t, err)
	second, err := client.GetGenres(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
