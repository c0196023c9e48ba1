package wordpress

import (
	"context"
	"net/http"
	"testing"

	"github.com/lepinkainen/bmn/internal/config"
	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
	"github.com/lepinkainen/bmn/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_TokenAuth(t *testing.T) {
	mux := http.NewServeMux()
	var authHeader string
	mux.HandleFunc("GET /wp-json/wp/v2/users/me", func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 1, "name": "Curator"})
	})
	_, client := newTestSite(t, mux)

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TokenAuth, client.State())
	assert.Equal(t, "Bearer jwt-123", authHeader)
	assert.Equal(t, "Curator", user.Name)
}

func TestAuthenticate_FallsBackToBasic(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /wp-json/jwt-auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"code": "rest_no_route", "message": "No route"})
	})
	var authHeaders []string
	mux.HandleFunc("GET /wp-json/wp/v2/users/me", func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 1})
	})

	server := newServer(t, mux)
	client := NewClient(config.WordPressConfig{BaseURL: server, Username: "curator", Password: "secret"},
		WithRateLimiter(ratelimit.New("test", 1000)))

	require.NoError(t, client.Authenticate(context.Background()))
	assert.Equal(t, BasicAuth, client.State())

	_, err := client.CurrentUser(context.Background())
	require.NoError(t, err)

	want := "Basic " + basicToken("curator", "secret")
	assert.Equal(t, []string{want, want}, authHeaders)
}

func TestAuthenticate_BothFail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /wp-json/jwt-auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]string{"message": "bad password"})
	})
	mux.HandleFunc("GET /wp-json/wp/v2/users/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
	})

	server := newServer(t, mux)
	client := NewClient(config.WordPressConfig{BaseURL: server, Username: "curator", Password: "wrong"},
		WithRateLimiter(ratelimit.New("test", 1000)))

	err := client.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, bmnerrors.IsAuthRequiredError(err))
	assert.Equal(t, Unauthenticated, client.State())

	// requests surface the same error instead of going out anonymously
	_, err = client.GetPost(context.Background(), PostTypeMovies, 1)
	assert.True(t, bmnerrors.IsAuthRequiredError(err))
}

func TestAuthenticate_NoCredentials(t *testing.T) {
	client := NewClient(config.WordPressConfig{BaseURL: "http://127.0.0.1:0"})

	err := client.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, bmnerrors.IsAuthRequiredError(err))
	assert.Equal(t, Unauthenticated, client.State())
}

func TestAnonymousRequestsWithoutCredentials(t *testing.T) {
	mux := http.NewServeMux()
	var authHeader string
	mux.HandleFunc("GET /wp-json/wp/v2/movies/7", func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 7})
	})
	server := newServer(t, mux)
	client := NewClient(config.WordPressConfig{BaseURL: server}, WithRateLimiter(ratelimit.New("test", 1000)))

	post, err := client.GetPost(context.Background(), PostTypeMovies, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, post.ID)
	assert.Empty(t, authHeader)
	assert.Equal(t, Unauthenticated, client.State())
}

func TestUnauthorizedResponseLogsOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wp-json/wp/v2/movies/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"code": "jwt_auth_invalid_token", "message": "Expired token"})
	})
	_, client := newTestSite(t, mux)

	require.NoError(t, client.Authenticate(context.Background()))
	require.Equal(t, TokenAuth, client.State())

	_, err := client.GetPost(context.Background(), PostTypeMovies, 7)
	require.Error(t, err)

	var authErr *bmnerrors.AuthRequiredError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Contains(t, err.Error(), "Expired token")
	assert.Equal(t, Unauthenticated, client.State())
}

func TestLogout(t *testing.T) {
	_, client := newTestSite(t, http.NewServeMux())

	require.NoError(t, client.Authenticate(context.Background()))
	client.Logout()

	assert.Equal(t, Unauthenticated, client.State())
	assert.Equal(t, "unauthenticated", client.State().String())
}

func TestAuthStateString(t *testing.T) {
	assert.Equal(t, "token", TokenAuth.String())
	assert.Equal(t, "basic", BasicAuth.String())
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
}
