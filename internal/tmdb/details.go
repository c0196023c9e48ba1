package tmdb

import (
	"context"
	"fmt"
	"net/url"
)

// GetMovieDetails fetches the full movie record, with credits appended in the same request.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int) (*MovieDetails, error) {
	params := url.Values{}
	params.Set("append_to_response", "credits")

	var details MovieDetails
	if err := c.getJSON(ctx, c.endpoint(fmt.Sprintf("/movie/%d", movieID), params), &details); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", movieID, err)
	}
	return &details, nil
}

// GetMovieCredits fetches cast and crew for a movie.
func (c *Client) GetMovieCredits(ctx context.Context, movieID int) (*Credits, error) {
	var credits Credits
	if err := c.getJSON(ctx, c.endpoint(fmt.Sprintf("/movie/%d/credits", movieID), nil), &credits); err != nil {
		return nil, fmt.Errorf("get credits for movie %d: %w", movieID, err)
	}
	return &credits, nil
}

// GetPersonDetails fetches a person's biography, birth and death data.
func (c *Client) GetPersonDetails(ctx context.Context, personID int) (*Person, error) {
	var person Person
	if err := c.getJSON(ctx, c.endpoint(fmt.Sprintf("/person/%d", personID), nil), &person); err != nil {
		return nil, fmt.Errorf("get person %d: %w", personID, err)
	}
	return &person, nil
}
