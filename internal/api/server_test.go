package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bmn/internal/enrichment"
	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
	"github.com/lepinkainen/bmn/internal/experiment"
	"github.com/lepinkainen/bmn/internal/prefetch"
	"github.com/lepinkainen/bmn/internal/processor"
	"github.com/lepinkainen/bmn/internal/tmdb"
	"github.com/lepinkainen/bmn/internal/tmdb/tmdbtest"
	"github.com/lepinkainen/bmn/internal/wordpress"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCatalog struct {
	query string
	page  int
	adult bool
	err   error
}

func (f *fakeCatalog) SearchMovies(_ context.Context, query string, page int, adult bool) (*tmdb.SearchPage, error) {
	f.query, f.page, f.adult = query, page, adult
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.SearchPage{Page: page, TotalPages: 1, TotalResults: 1, Results: []tmdb.SearchResult{
		{ID: 550, Title: "Fight Club", ReleaseDate: "1999-10-15"},
	}}, nil
}

func (f *fakeCatalog) GetGenres(context.Context) ([]tmdb.Genre, error) {
	return []tmdb.Genre{{ID: 18, Name: "Drama"}}, nil
}

type fakeCreator struct {
	draft     *experiment.Draft
	updatedID int
	err       error
}

func (f *fakeCreator) Create(_ context.Context, d *experiment.Draft, progress processor.ProgressFunc) (*wordpress.Experiment, error) {
	f.draft = d
	if f.err != nil {
		return nil, f.err
	}
	progress(processor.Progress{Current: 1, Total: 1, CurrentMovie: "Fight Club", Status: processor.StatusProcessing})
	progress(processor.Progress{Current: 1, Total: 1, CurrentMovie: "Complete", Status: processor.StatusComplete})
	return &wordpress.Experiment{ID: 12, Number: 3, Title: "Experiment #003"}, nil
}

func (f *fakeCreator) Update(_ context.Context, id int, d *experiment.Draft, progress processor.ProgressFunc) (*wordpress.Experiment, error) {
	f.draft, f.updatedID = d, id
	if f.err != nil {
		return nil, f.err
	}
	progress(processor.Progress{Current: 1, Total: 1, CurrentMovie: "Complete", Status: processor.StatusComplete})
	return &wordpress.Experiment{ID: id, Number: 3, Title: d.Title}, nil
}

type fakeSite struct {
	deleted []int
	err     error
}

func (f *fakeSite) GetExperiment(_ context.Context, id int) (*wordpress.Experiment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &wordpress.Experiment{ID: id, Number: 1, Title: "Experiment #001"}, nil
}

func (f *fakeSite) ListExperiments(_ context.Context, page, perPage int) (*wordpress.ExperimentList, error) {
	return &wordpress.ExperimentList{Experiments: []wordpress.Experiment{{ID: 1}}, Total: 1, TotalPages: page + perPage}, nil
}

func (f *fakeSite) DeleteExperiment(_ context.Context, id int) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeSite) DiscoverPlatforms(context.Context) ([]wordpress.Platform, string) {
	return wordpress.MapPlatformNames(wordpress.FallbackPlatforms), "fallback"
}

type testServer struct {
	handler http.Handler
	catalog *fakeCatalog
	creator *fakeCreator
	site    *fakeSite
	cache   *prefetch.Cache
	movies  *tmdbtest.Catalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	movies := tmdbtest.NewCatalog()
	movies.AddMovie(tmdbtest.FightClub(3))
	ts := &testServer{
		catalog: &fakeCatalog{},
		creator: &fakeCreator{},
		site:    &fakeSite{},
		cache:   prefetch.New(enrichment.NewEngine(movies, enrichment.DefaultPolicy())),
		movies:  movies,
	}
	ts.handler = NewServer(ts.catalog, ts.cache, ts.creator, ts.site).Router()
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDKept(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/search?q=fight+club&page=2&adult=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[tmdb.SearchPage](t, rec)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 550, page.Results[0].ID)
	assert.Equal(t, "fight club", ts.catalog.query)
	assert.Equal(t, 2, ts.catalog.page)
	assert.True(t, ts.catalog.adult)

	rec = ts.do(t, http.MethodGet, "/api/search?q=x&page=zero", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ts.catalog.page)
}

func TestSearch_Errors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Contains(t, body.Error, "q is required")
	assert.NotEmpty(t, body.RequestID)

	ts.catalog.err = bmnerrors.NewRateLimitError("slow down")
	rec = ts.do(t, http.MethodGet, "/api/search?q=x", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	ts.catalog.err = errors.New("connection refused")
	rec = ts.do(t, http.MethodGet, "/api/search?q=x", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGenres(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/genres", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"genres":[{"id":18,"name":"Drama"}]}`, rec.Body.String())
}

func TestPrefetchLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/prefetch", `{"tmdbId":550,"title":"Fight Club"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TMDBID     int                 `json:"tmdbId"`
		IsEnriched bool                `json:"isEnriched"`
		Data       enrichment.Snapshot `json:"enrichmentData"`
		Progress   []prefetch.Progress `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 550, body.TMDBID)
	assert.True(t, body.IsEnriched)
	assert.Len(t, body.Data.Actors, 3)
	require.NotEmpty(t, body.Progress)
	assert.Equal(t, prefetch.StatusFetching, body.Progress[0].Status)
	assert.Equal(t, prefetch.StatusComplete, body.Progress[len(body.Progress)-1].Status)

	rec = ts.do(t, http.MethodGet, "/api/prefetch", "")
	assert.JSONEq(t, `{"ids":[550]}`, rec.Body.String())

	rec = ts.do(t, http.MethodDelete, "/api/prefetch/550", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, ts.cache.IsCached(550))

	ts.do(t, http.MethodPost, "/api/prefetch", `{"tmdbId":550,"title":"Fight Club"}`)
	rec = ts.do(t, http.MethodDelete, "/api/prefetch", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, ts.cache.IDs())
	assert.Equal(t, 2, ts.movies.DetailCalls(550))
}

func TestPrefetch_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/prefetch", `{"title":"No ID"}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/prefetch", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodDelete, "/api/prefetch/abc", "").Code)
}

func TestPrefetch_FailureIsReported(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/prefetch", `{"tmdbId":999,"title":"Unknown"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["isEnriched"])
	assert.Contains(t, body["enrichmentError"], "not found")
}

func TestCreateExperiment(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/experiments",
		`{"title":"Night","platforms":["Discord"],"movies":[{"tmdbId":550,"title":"Fight Club"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Experiment wordpress.Experiment `json:"experiment"`
		Progress   []processor.Progress `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 12, body.Experiment.ID)
	require.Len(t, body.Progress, 2)
	assert.Equal(t, processor.StatusComplete, body.Progress[1].Status)

	require.NotNil(t, ts.creator.draft)
	assert.Equal(t, "Night", ts.creator.draft.Title)
	assert.Equal(t, []string{"Discord"}, ts.creator.draft.Platforms)
	assert.Equal(t, 550, ts.creator.draft.Movies[0].TMDBID)
	assert.Empty(t, ts.creator.draft.Poster)
}

func TestCreateExperiment_Errors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/experiments", `{"movies":[{"title":"No ID"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, ts.creator.draft)

	ts.creator.err = &bmnerrors.AuthRequiredError{StatusCode: http.StatusUnauthorized, Message: "token expired"}
	rec = ts.do(t, http.MethodPost, "/api/experiments", `{"movies":[]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateExperiment(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/experiments/12",
		`{"title":"Renamed","removeMovies":[4],"movies":[{"tmdbId":550,"title":"Fight Club"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Experiment wordpress.Experiment `json:"experiment"`
		Progress   []processor.Progress `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 12, body.Experiment.ID)
	assert.Equal(t, "Renamed", body.Experiment.Title)
	require.Len(t, body.Progress, 1)

	assert.Equal(t, 12, ts.creator.updatedID)
	assert.Equal(t, []int{4}, ts.creator.draft.RemoveMovies)
	assert.Equal(t, 550, ts.creator.draft.Movies[0].TMDBID)
}

func TestUpdateExperiment_Errors(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/api/experiments/abc", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/api/experiments/3", `{"removeMovies":[-1]}`).Code)
	assert.Zero(t, ts.creator.updatedID)

	ts.creator.err = errors.New("failed to load experiment 3: unexpected status 404")
	assert.Equal(t, http.StatusBadGateway, ts.do(t, http.MethodPut, "/api/experiments/3", `{"title":"x"}`).Code)
}

func TestExperimentReads(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/experiments/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[wordpress.Experiment](t, rec).ID)

	rec = ts.do(t, http.MethodGet, "/api/experiments?page=2&per_page=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 102, decode[wordpress.ExperimentList](t, rec).TotalPages, "per_page is capped at 100")

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/experiments/0", "").Code)
}

func TestDeleteExperiment(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodDelete, "/api/experiments/9", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int{9}, ts.site.deleted)

	ts.site.err = errors.New("unexpected status 500")
	rec = ts.do(t, http.MethodDelete, "/api/experiments/9", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPlatforms(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/platforms", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Platforms []wordpress.Platform `json:"platforms"`
		Source    string               `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fallback", body.Source)
	require.Len(t, body.Platforms, 4)
	assert.True(t, body.Platforms[0].IsDefault)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://portal.test")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	restricted := NewServer(ts.catalog, ts.cache, ts.creator, ts.site, WithAllowOrigins([]string{"http://portal.test"})).Router()
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	restricted.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
