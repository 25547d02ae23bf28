package ts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultRepository is the canonical Thunderstore instance.
const DefaultRepository = "https://thunderstore.io"

// HTTPDoer defines the HTTP operations required by Client.
// This allows injection of test doubles for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to a single Thunderstore repository instance.
// The zero value is not usable; construct with NewClient.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the service account token sent on authenticated calls.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.httpClient = doer }
}

// NewClient creates a client for the given repository base URL.
// An empty repository falls back to DefaultRepository.
func NewClient(repository string, opts ...Option) *Client {
	if repository == "" {
		repository = DefaultRepository
	}
	c := &Client{
		baseURL:    strings.TrimRight(repository, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the repository base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get issues a GET request and returns the open response body.
// The caller owns the body and must close it.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	return c.do(req)
}

// getJSON issues a GET request and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding response from %s", url)
	}
	return nil
}

// postJSON issues a POST request with a JSON body and decodes the JSON
// response into out. A nil out discards the response body.
func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encoding request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding response from %s", url)
	}
	return nil
}

// do executes the request, attaching auth when configured, and converts
// non-2xx responses into errors carrying the response body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting %s", req.URL)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &APIError{
			Status: resp.StatusCode,
			URL:    req.URL.String(),
			Body:   strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

// APIError is a non-2xx response from the repository, with as much of the
// response body as was read.
type APIError struct {
	Status int
	URL    string
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API request to %s failed with status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("API request to %s failed with status %d: %s", e.URL, e.Status, e.Body)
}
