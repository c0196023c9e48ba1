package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
)

// AuthState is the client's authentication state.
//
//	Unauthenticated --Authenticate--> TokenAuth   (JWT issued)
//	Unauthenticated --Authenticate--> BasicAuth   (JWT failed, basic credentials accepted)
//	TokenAuth|BasicAuth --401-------> Unauthenticated
//	any --Logout--------------------> Unauthenticated
type AuthState int

const (
	Unauthenticated AuthState = iota
	TokenAuth
	BasicAuth
)

func (s AuthState) String() string {
	switch s {
	case TokenAuth:
		return "token"
	case BasicAuth:
		return "basic"
	default:
		return "unauthenticated"
	}
}

// State returns the current authentication state.
func (c *Client) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Authenticate tries JWT authentication and falls back to basic
// authentication (application passwords). When both fail the client stays
// Unauthenticated and an AuthRequiredError is returned.
func (c *Client) Authenticate(ctx context.Context) error {
	if !c.hasCredentials() {
		c.setState(Unauthenticated, "")
		return bmnerrors.NewAuthRequiredError(0, "no WordPress credentials configured")
	}

	token, err := c.requestToken(ctx)
	if err == nil {
		c.setState(TokenAuth, token)
		slog.Debug("WordPress authenticated", "method", TokenAuth)
		return nil
	}
	slog.Debug("JWT authentication failed, trying basic auth", "error", err)

	status, err := c.checkBasic(ctx)
	if err == nil {
		c.setState(BasicAuth, basicToken(c.username, c.password))
		slog.Debug("WordPress authenticated", "method", BasicAuth)
		return nil
	}

	c.setState(Unauthenticated, "")
	return bmnerrors.NewAuthRequiredError(status, fmt.Sprintf("token and basic authentication failed: %v", err))
}

// Logout drops any held credentials.
func (c *Client) Logout() {
	c.setState(Unauthenticated, "")
}

func (c *Client) hasCredentials() bool {
	return c.username != "" && c.password != ""
}

func (c *Client) setState(state AuthState, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.token = token
}

// ensureAuthenticated authenticates lazily. Without configured credentials
// requests go out anonymously, which is enough for public reads.
func (c *Client) ensureAuthenticated(ctx context.Context) error {
	if c.State() != Unauthenticated || !c.hasCredentials() {
		return nil
	}
	return c.Authenticate(ctx)
}

func (c *Client) authorize(req *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case TokenAuth:
		req.Header.Set("Authorization", "Bearer "+c.token)
	case BasicAuth:
		req.Header.Set("Authorization", "Basic "+c.token)
	}
}

func (c *Client) requestToken(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": c.username, "password": c.password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.siteURL+"/wp-json/jwt-auth/v1/token", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("jwt token request returned %d: %s", resp.StatusCode, apiMessage(body))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode jwt token: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("jwt token response had no token")
	}
	return out.Token, nil
}

func (c *Client) checkBasic(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/users/me", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Basic "+basicToken(c.username, c.password))

	resp, err := c.send(ctx, req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("basic auth check returned %d: %s", resp.StatusCode, apiMessage(body))
	}
	return resp.StatusCode, nil
}

func basicToken(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
