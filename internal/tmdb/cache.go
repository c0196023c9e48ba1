package tmdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/lepinkainen/bmn/internal/cache"
)

const cacheTable = "tmdb_cache"

// CachedClient serves detail lookups through the persistent SQLite cache.
// Genre lists always go to the network.
type CachedClient struct {
	*Client
}

// Cached wraps the client so movie, credit and person lookups are read through the cache.
func (c *Client) Cached() *CachedClient {
	return &CachedClient{Client: c}
}

// GetMovieDetails fetches movie details with caching.
// Cache key format: movie_{tmdb_id}
func (c *CachedClient) GetMovieDetails(ctx context.Context, movieID int) (*MovieDetails, error) {
	details, _, err := cache.GetOrFetch(cacheTable, fmt.Sprintf("movie_%d", movieID), func() (*MovieDetails, error) {
		return c.Client.GetMovieDetails(ctx, movieID)
	})
	return details, err
}

// GetMovieCredits fetches credits with caching.
// Cache key format: credits_{tmdb_id}
func (c *CachedClient) GetMovieCredits(ctx context.Context, movieID int) (*Credits, error) {
	credits, _, err := cache.GetOrFetch(cacheTable, fmt.Sprintf("credits_%d", movieID), func() (*Credits, error) {
		return c.Client.GetMovieCredits(ctx, movieID)
	})
	return credits, err
}

// GetPersonDetails fetches a person with caching.
// Cache key format: person_{tmdb_id}
func (c *CachedClient) GetPersonDetails(ctx context.Context, personID int) (*Person, error) {
	person, _, err := cache.GetOrFetch(cacheTable, fmt.Sprintf("person_%d", personID), func() (*Person, error) {
		return c.Client.GetPersonDetails(ctx, personID)
	})
	return person, err
}

// SearchMovies performs a cached search. Empty pages are not stored.
// Cache key format: search_{normalized_query}_{page}_{adult}
func (c *CachedClient) SearchMovies(ctx context.Context, query string, page int, includeAdult bool) (*SearchPage, error) {
	key := fmt.Sprintf("search_%s_%d_%t", normalizeQuery(query), page, includeAdult)
	result, _, err := cache.GetOrFetchWithPolicy(cacheTable, key, func() (*SearchPage, error) {
		return c.Client.SearchMovies(ctx, query, page, includeAdult)
	}, func(p *SearchPage) bool {
		return p != nil && len(p.Results) > 0
	})
	return result, err
}

// normalizeQuery normalizes a query string for use as a cache key.
func normalizeQuery(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, normalized)
}
