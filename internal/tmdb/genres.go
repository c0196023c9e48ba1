package tmdb

import (
	"context"
	"fmt"
)

// GetGenres returns the movie genre list. The first successful response is
// kept for the lifetime of the client.
func (c *Client) GetGenres(ctx context.Context) ([]Genre, error) {
	c.mu.RLock()
	if c.genres != nil {
		genres := c.genres
		c.mu.RUnlock()
		return genres, nil
	}
	c.mu.RUnlock()

	var response struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.getJSON(ctx, c.endpoint("/genre/movie/list", nil), &response); err != nil {
		return nil, fmt.Errorf("get genres: %w", err)
	}
	if response.Genres == nil {
		response.Genres = []Genre{}
	}

	c.mu.Lock()
	c.genres = response.Genres
	c.mu.Unlock()

	return response.Genres, nil
}
