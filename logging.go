package shark

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// WithLogger configures a structured logger for the client.
// When set, the client logs API requests, responses and token refreshes.
// Errors are returned to the caller, not logged.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	client, _ := shark.NewClient(creds, shark.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// LoggingTransport wraps an http.RoundTripper and logs requests/responses.
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper with logging.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()

	if t.Logger != nil {
		t.Logger.LogAttrs(req.Context(), slog.LevelDebug, "http_request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
		)
	}

	resp, err := base.RoundTrip(req)
	duration := time.Since(start)

	if t.Logger != nil {
		if err != nil {
			t.Logger.LogAttrs(req.Context(), slog.LevelError, "http_error",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Duration("duration", duration),
				slog.String("error", err.Error()),
			)
		} else {
			t.Logger.LogAttrs(req.Context(), statusLevel(resp.StatusCode), "http_response",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", duration),
			)
		}
	}

	return resp, err
}

// LogRequest logs an API request. This is the low-level logging method
// used internally and can be used for custom request logging.
func (c *Client) LogRequest(ctx context.Context, method, path string) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "api_request",
		slog.String("method", method),
		slog.String("path", path),
	)
}

// LogResponse logs an API response. A zero status means no response arrived.
func (c *Client) LogResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(ctx, statusLevel(statusCode), "api_response",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", statusCode),
		slog.Duration("duration", duration),
	)
}

func statusLevel(statusCode int) slog.Level {
	switch {
	case statusCode == 0 || statusCode >= 500:
		return slog.LevelError
	case statusCode >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// NewLoggingClient creates a client whose HTTP transport is wrapped with
// LoggingTransport. It logs wire-level events only; use WithLogger instead for
// pipeline events such as token refreshes.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	client, err := shark.NewLoggingClient(creds, logger)
func NewLoggingClient(creds Credentials, logger *slog.Logger, opts ...Option) (*Client, error) {
	httpClient := &http.Client{
		Timeout: DefaultTimeout,
		Transport: &LoggingTransport{
			Base:   http.DefaultTransport,
			Logger: logger,
		},
	}

	allOpts := append([]Option{WithHTTPClient(httpClient)}, opts...)

	return NewClient(creds, allOpts...)
}
