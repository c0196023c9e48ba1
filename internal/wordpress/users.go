package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// User is a WordPress user, as used for experiment hosts.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CurrentUser returns the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.doJSON(ctx, http.MethodGet, c.apiEndpoint("/users/me", nil), nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &user, nil
}

// ListUsers returns the first page of site users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	params := url.Values{}
	params.Set("per_page", "100")

	var users []User
	if _, err := c.doJSON(ctx, http.MethodGet, c.apiEndpoint("/users", params), nil, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
