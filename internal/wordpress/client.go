// Package wordpress is a client for the WordPress REST API with the Pods
// content-modeling plugin. It persists experiments, movies and every
// related entity as custom post types.
package wordpress

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lepinkainen/bmn/internal/config"
	"github.com/lepinkainen/bmn/internal/ratelimit"
)

const (
	defaultRatePerSecond = 5
	defaultMaxImageWidth = 1000
	defaultTimeout       = 30 * time.Second
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to one WordPress site. It is safe for concurrent use.
// Construct it once at startup and pass it to whatever needs it.
type Client struct {
	siteURL  string
	apiURL   string
	username string
	password string

	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	maxImageWidth int
	maxImageBytes int64

	mu    sync.Mutex
	state AuthState
	token string
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// NewClient creates a client for the site described by cfg. No network
// calls are made until the first request.
func NewClient(cfg config.WordPressConfig, opts ...Option) *Client {
	siteURL := strings.TrimSuffix(cfg.BaseURL, "/")
	apiURL := strings.TrimSuffix(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = siteURL + "/wp-json/wp/v2"
	}

	client := &Client{
		siteURL:       siteURL,
		apiURL:        apiURL,
		username:      cfg.Username,
		password:      cfg.Password,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		rateLimiter:   ratelimit.New("WordPress", defaultRatePerSecond),
		maxImageWidth: defaultMaxImageWidth,
		maxImageBytes: defaultMaxImageBytes,
		state:         Unauthenticated,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithRateLimiter sets a custom rate limiter for the client.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

// WithMaxImageWidth sets the width above which remote images are downscaled before upload.
func WithMaxImageWidth(width int) Option {
	return func(client *Client) {
		if width > 0 {
			client.maxImageWidth = width
		}
	}
}

// SiteURL returns the WordPress site root.
func (c *Client) SiteURL() string {
	return c.siteURL
}
