package shark

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// expiringSoonWindow is how long before expiry a token is refreshed.
const expiringSoonWindow = 30 * time.Minute

const refreshKey = "refresh"

// TokenStatus describes the freshness of the current access token.
type TokenStatus int

const (
	// TokenUnauthenticated means no token has been issued yet.
	TokenUnauthenticated TokenStatus = iota
	// TokenExpired means the token's expiry has passed.
	TokenExpired
	// TokenExpiringSoon means less than 30 minutes remain.
	TokenExpiringSoon
	// TokenFresh means the token can be used as is.
	TokenFresh
)

// String implements fmt.Stringer.
func (s TokenStatus) String() string {
	switch s {
	case TokenExpired:
		return "expired"
	case TokenExpiringSoon:
		return "expiring_soon"
	case TokenFresh:
		return "fresh"
	default:
		return "unauthenticated"
	}
}

// Status classifies the session at the given instant.
func (s *Session) Status(now time.Time) TokenStatus {
	if s == nil || s.AccessToken == "" {
		return TokenUnauthenticated
	}
	if !now.Before(s.ExpiresAt) {
		return TokenExpired
	}
	if !now.Before(s.ExpiresAt.Add(-expiringSoonWindow)) {
		return TokenExpiringSoon
	}
	return TokenFresh
}

// TokenStatus returns the freshness of the current session.
func (c *Client) TokenStatus() TokenStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.Status(c.now())
}

// Session returns a copy of the current session, or nil before Login.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// IsAuthenticated returns true if a session exists and has not expired.
func (c *Client) IsAuthenticated() bool {
	switch c.TokenStatus() {
	case TokenFresh, TokenExpiringSoon:
		return true
	default:
		return false
	}
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

// storeLogin replaces the session with a newly signed-in one.
func (c *Client) storeLogin(s Session) {
	c.mu.Lock()
	c.session = &s
	c.logins++
	c.mu.Unlock()
}

// storeRefresh replaces the session unless a Login completed after the
// refresh started. It reports whether the session was stored.
func (c *Client) storeRefresh(s Session, logins uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.logins != logins {
		return false
	}
	c.session = &s
	return true
}

// Login signs in with the client's credentials and stores the issued session.
// It never retries.
func (c *Client) Login(ctx context.Context) error {
	body := map[string]any{
		"user": map[string]any{
			"email":    c.creds.Email,
			"password": c.creds.Password,
			"application": map[string]string{
				"app_id":     c.app.ID,
				"app_secret": c.app.Secret,
			},
		},
	}
	session, err := c.requestSession(ctx, EndpointSignIn, "/users/sign_in.json", body)
	if err != nil {
		return err
	}
	c.storeLogin(session)
	return nil
}

// RefreshAccessToken exchanges the stored refresh token for a new session.
// Concurrent callers share a single in-flight refresh. The refresh itself is
// detached from ctx so one caller giving up does not fail the others; ctx
// only bounds how long this caller waits.
func (c *Client) RefreshAccessToken(ctx context.Context) error {
	return c.sharedRefresh(ctx, false)
}

// ensureFreshToken refreshes an expired or expiring session before a call.
// An unauthenticated client is let through; the server rejects the request.
func (c *Client) ensureFreshToken(ctx context.Context) error {
	switch c.TokenStatus() {
	case TokenExpired, TokenExpiringSoon:
		return c.sharedRefresh(ctx, true)
	default:
		return nil
	}
}

// sharedRefresh runs one refresh for all concurrent callers. With onlyIfStale
// set, a session that became fresh while waiting to enter the flight is kept.
func (c *Client) sharedRefresh(ctx context.Context, onlyIfStale bool) error {
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		if onlyIfStale && c.TokenStatus() == TokenFresh {
			return nil, nil
		}
		return nil, c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return newPipelineError(string(EndpointRefreshToken), ctx.Err())
	}
}

func (c *Client) refresh(ctx context.Context) error {
	c.mu.RLock()
	var refreshToken string
	if c.session != nil {
		refreshToken = c.session.RefreshToken
	}
	logins := c.logins
	c.mu.RUnlock()

	if refreshToken == "" {
		return newPipelineError(string(EndpointRefreshToken), ErrNoSession)
	}

	if c.httpClient.Timeout == 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	body := map[string]any{
		"user": map[string]string{"refresh_token": refreshToken},
	}
	session, err := c.requestSession(ctx, EndpointRefreshToken, "/users/refresh_token.json", body)
	if err != nil {
		return err
	}

	if !c.storeRefresh(session, logins) {
		if c.logger != nil {
			c.logger.LogAttrs(ctx, slog.LevelDebug, "token_refresh_discarded")
		}
		return nil
	}
	if c.logger != nil {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "token_refresh",
			slog.Time("expires_at", session.ExpiresAt),
		)
	}
	return nil
}

// requestSession posts to a token endpoint and returns the issued session.
func (c *Client) requestSession(ctx context.Context, endpoint Endpoint, path string, body any) (Session, error) {
	data, err := c.do(ctx, endpoint, request{method: http.MethodPost, path: path, body: body}, false)
	if err != nil {
		return Session{}, err
	}

	issuedAt := c.now()
	raw, err := parseResponse(endpoint, sessionSchema, data)
	if err != nil {
		return Session{}, err
	}

	return normalize(endpoint, func() (Session, error) {
		return normalizeSession(raw, issuedAt), nil
	})
}

// secondsToDuration converts a server-declared lifetime, clamping values that
// would overflow time.Duration.
func secondsToDuration(secs float64) time.Duration {
	if secs <= 0 {
		return 0
	}
	if secs >= math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs * float64(time.Second))
}
