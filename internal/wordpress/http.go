package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
)

type request struct {
	method      string
	url         string
	body        []byte
	contentType string
	headers     map[string]string
}

func (c *Client) apiEndpoint(path string, params url.Values) string {
	endpoint := c.apiURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return endpoint
}

// send applies rate limiting and performs the request without touching auth state.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

// do performs an authenticated request and maps error statuses. The caller
// owns the returned body on success.
func (c *Client) do(ctx context.Context, r request) (*http.Response, error) {
	if err := c.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	c.authorize(req)

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := apiMessage(raw)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.Logout()
		return nil, bmnerrors.NewAuthRequiredError(resp.StatusCode, msg)
	case http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return nil, bmnerrors.NewRateLimitErrorWithRetry("wordpress: rate limit exceeded", time.Duration(retryAfter)*time.Second)
	}
	return nil, fmt.Errorf("wordpress: unexpected status %d: %s", resp.StatusCode, msg)
}

// doJSON sends in (if any) as JSON and decodes the response into out (if any).
func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out any) (http.Header, error) {
	r := request{method: method, url: endpoint}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r.body = payload
		r.contentType = "application/json"
	}

	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", method, endpoint, err)
		}
	}
	return resp.Header, nil
}

// apiMessage extracts the "message" from a WordPress error body, or returns the trimmed body.
func apiMessage(body []byte) string {
	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wpErr); err == nil && wpErr.Message != "" {
		return wpErr.Message
	}
	return strings.TrimSpace(string(body))
}

func headerInt(h http.Header, key string, fallback int) int {
	if v, err := strconv.Atoi(h.Get(key)); err == nil {
		return v
	}
	return fallback
}

func decodeBody(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
