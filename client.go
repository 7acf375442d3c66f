package shark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the Shark (Ayla field) API host.
	DefaultBaseURL = "https://ads-field-39a9391a.aylanetworks.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
)

// Clock returns the current time. It is replaceable for tests.
type Clock func() time.Time

// Client is a Shark cloud API client bound to a single account.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	creds      Credentials
	app        appIdentity
	httpClient *http.Client
	logger     *slog.Logger
	now        Clock

	mu      sync.RWMutex
	session *Session
	// logins counts stored sign-ins; a refresh started under an older count
	// is discarded.
	logins uint64

	refreshGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP request timeout.
// This option can be applied in any order relative to other options.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithClock replaces the clock used for token expiry bookkeeping.
func WithClock(now Clock) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client for the given account. No network call is made;
// call Login before using any other operation.
// Returns ErrInvalidCredentials if a credential field is missing or the mobile
// OS is unknown.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	app, ok := appIdentities[creds.MobileOS]
	if !ok || creds.Email == "" || creds.Password == "" {
		return nil, ErrInvalidCredentials
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		creds:   creds,
		app:     app,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// request describes one outbound call. Headers are merged over the defaults.
type request struct {
	method  string
	path    string
	body    any
	headers http.Header
}

// call runs the full pipeline for an authenticated endpoint: refresh the
// session if needed, send, then validate the body against s.
func (c *Client) call(ctx context.Context, endpoint Endpoint, req request, s schema) (any, error) {
	if err := c.ensureFreshToken(ctx); err != nil {
		return nil, err
	}
	data, err := c.do(ctx, endpoint, req, true)
	if err != nil {
		return nil, err
	}
	return parseResponse(endpoint, s, data)
}

// do sends a request and returns the body of a 2xx response. Non-2xx answers
// become RequestRejectedError; everything else becomes PipelineError.
func (c *Client) do(ctx context.Context, endpoint Endpoint, req request, withToken bool) ([]byte, error) {
	op := string(endpoint)
	if req.method == "" {
		req.method = http.MethodGet
	}

	var reqBody io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, newPipelineError(op, fmt.Errorf("failed to marshal request body: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, reqBody)
	if err != nil {
		return nil, newPipelineError(op, fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if withToken {
		if token := c.accessToken(); token != "" {
			httpReq.Header.Set("Authorization", "auth_token "+token)
		}
	}
	for name, values := range req.headers {
		httpReq.Header.Del(name)
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	c.LogRequest(ctx, req.method, req.path)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.LogResponse(ctx, req.method, req.path, 0, time.Since(start))
		return nil, newPipelineError(op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	c.LogResponse(ctx, req.method, req.path, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newPipelineError(op, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, handleError(op, resp.StatusCode, respBody)
	}

	return respBody, nil
}

// handleError converts a non-2xx response into a RequestRejectedError. A body
// that is not {"error": "..."} becomes a PipelineError naming the status.
func handleError(op string, statusCode int, body []byte) error {
	msg, err := parseErrorBody(body)
	if err != nil {
		return newPipelineError(op, fmt.Errorf("status %d %s: %w", statusCode, http.StatusText(statusCode), err))
	}
	return &RequestRejectedError{StatusCode: statusCode, Message: msg}
}

// normalize runs a normalization step, turning a panic into a PipelineError.
func normalize[T any](endpoint Endpoint, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPipelineError(string(endpoint), r)
		}
	}()
	result, err = fn()
	if err != nil {
		var zero T
		return zero, newPipelineError(string(endpoint), err)
	}
	return result, nil
}
