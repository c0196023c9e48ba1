package tmdb

import (
	"net/http"
	"testing"
	"time"

	"github.com/lepinkainen/bmn/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(baseURL),
		WithRateLimiter(ratelimit.New("test", 1000)),
		WithRetryAttempts(1),
	}
	return NewClient("test-api-key", append(base, opts...)...)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("key")

	assert.Equal(t, "key", client.apiKey)
	assert.Equal(t, defaultBaseURL, client.baseURL)
	assert.Equal(t, defaultImageBaseURL, client.imageBaseURL)
	assert.Equal(t, defaultMaxAttempts, client.retryAttempts)
	require.NotNil(t, client.rateLimiter)
	assert.Equal(t, "TMDB", client.rateLimiter.Name())

	httpClient, ok := client.httpClient.(*http.Client)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, httpClient.Timeout)
}

func TestClientOptions(t *testing.T) {
	custom := &http.Client{}
	limiter := ratelimit.New("custom", 1)

	client := NewClient("key",
		WithBaseURL("http://example.test/3/"),
		WithImageBaseURL("http://img.example.test/t/p/"),
		WithHTTPClient(custom),
		WithRetryAttempts(5),
		WithRateLimiter(limiter),
	)

	assert.Equal(t, "http://example.test/3", client.baseURL)
	assert.Equal(t, "http://img.example.test/t/p", client.imageBaseURL)
	assert.Same(t, custom, client.httpClient)
	assert.Equal(t, 5, client.retryAttempts)
	assert.Same(t, limiter, client.rateLimiter)
}

func TestClientOptionsIgnoreZeroValues(t *testing.T) {
	client := NewClient("key",
		WithBaseURL(""),
		WithImageBaseURL(""),
		WithHTTPClient(nil),
		WithRetryAttempts(0),
		WithRateLimiter(nil),
	)

	assert.Equal(t, defaultBaseURL, client.baseURL)
	assert.Equal(t, defaultImageBaseURL, client.imageBaseURL)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, defaultMaxAttempts, client.retryAttempts)
	assert.NotNil(t, client.rateLimiter)
}

func TestImageURL(t *testing.T) {
	client := NewClient("key")

	tests := []struct {
		name string
		path string
		size string
		want string
	}{
		{"profile", "/abc.jpg", "w300", "https://image.tmdb.org/t/p/w300/abc.jpg"},
		{"default size", "/poster.jpg", "", "https://image.tmdb.org/t/p/w500/poster.jpg"},
		{"original", "/backdrop.jpg", "original", "https://image.tmdb.org/t/p/original/backdrop.jpg"},
		{"missing slash", "logo.png", "w300", "https://image.tmdb.org/t/p/w300/logo.png"},
		{"empty path", "", "w300", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.ImageURL(tt.path, tt.size))
		})
	}
}
