package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// SearchMovies runs a paginated title search. Pages start at 1.
func (c *Client) SearchMovies(ctx context.Context, query string, page int, includeAdult bool) (*SearchPage, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", strconv.FormatBool(includeAdult))

	var result SearchPage
	if err := c.getJSON(ctx, c.endpoint("/search/movie", params), &result); err != nil {
		return nil, fmt.Errorf("search movies %q: %w", query, err)
	}
	if result.Results == nil {
		result.Results = []SearchResult{}
	}
	return &result, nil
}
