// Package cloudflare is a small client for the parts of the Cloudflare v4 REST
// API needed to publish a local service through a Cloudflare Tunnel: tunnels,
// their connector tokens and remote configuration, zones and DNS records.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Cloudflare v4 API root.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// Client talks to the Cloudflare API on behalf of one account.
type Client struct {
	httpClient *http.Client
	apiToken   string
	accountID  string
	baseURL    string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// NewClient creates a client authenticated with a bearer API token.
func NewClient(apiToken, accountID string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiToken:   apiToken,
		accountID:  accountID,
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccountID returns the account the client operates on.
func (c *Client) AccountID() string {
	return c.accountID
}

// ErrorDetail is one entry of the "errors" array of an API response.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is returned for non-2xx responses and for bodies reporting
// "success": false.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Errors     []ErrorDetail
	Body       string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cloudflare api: %s %s: status %d", e.Method, e.Path, e.StatusCode)
	if len(e.Errors) > 0 {
		msgs := make([]string, 0, len(e.Errors))
		for _, d := range e.Errors {
			if d.Code != 0 {
				msgs = append(msgs, fmt.Sprintf("%s (code %d)", d.Message, d.Code))
			} else {
				msgs = append(msgs, d.Message)
			}
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(msgs, "; "))
	} else if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	return b.String()
}

// HasStatus reports whether err is an *APIError with the given HTTP status.
func HasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type envelope[T any] struct {
	Success  bool            `json:"success"`
	Errors   []ErrorDetail   `json:"errors"`
	Messages json.RawMessage `json:"messages"`
	Result   T               `json:"result"`
}

// call performs one API request and returns the decoded "result" member.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T
	if c == nil {
		return zero, errors.New("nil cloudflare client")
	}

	var bodyReader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return zero, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return zero, fmt.Errorf("read response of %s %s: %w", method, path, err)
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 400 || decodeErr == nil && !env.Success {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       strings.TrimSpace(string(raw)),
		}
		if decodeErr == nil {
			apiErr.Errors = env.Errors
		} else {
			// Salvage the error list when the result member has an unexpected shape.
			var loose envelope[json.RawMessage]
			if json.Unmarshal(raw, &loose) == nil {
				apiErr.Errors = loose.Errors
			}
		}
		return zero, apiErr
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("decode response of %s %s: %w", method, path, decodeErr)
	}
	return env.Result, nil
}
