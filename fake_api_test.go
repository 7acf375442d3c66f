package shark

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var testCreds = Credentials{
	Email:    "user@example.com",
	Password: "hunter2",
	MobileOS: MobileOSiOS,
}

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeAPI emulates the sign-in, refresh and device endpoints.
type fakeAPI struct {
	t testing.TB

	expiresIn    int
	refreshDelay time.Duration

	logins    atomic.Int32
	refreshes atomic.Int32
	requests  atomic.Int32

	mu           sync.Mutex
	generation   int
	accessToken  string
	refreshToken string

	// lastWrite holds the decoded body of the most recent datapoint POST.
	lastWrite     map[string]any
	lastWritePath string

	devices    string
	properties map[string]string
}

func newFakeAPI(t testing.TB) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{
		t:         t,
		expiresIn: 86400,
		devices: `[
			{"device": {"dsn": "AC000W000000001", "product_name": "Living Room", "model": "RV1001AE",
			            "sw_version": "1.2.3", "connection_status": "online", "mac": "aa:bb", "lan_ip": "10.0.0.5"}},
			{"device": {"dsn": "AC000W000000002", "product_name": "Upstairs", "model": "RV2001",
			            "sw_version": "2.0.0", "connection_status": "offline", "product_class": null}}
		]`,
		properties: map[string]string{
			"GET_Operating_Mode": `{"property": {"name": "GET_Operating_Mode", "base_type": "integer",
				"product_name": "Living Room", "value": 3, "read_only": true, "data_updated_at": null}}`,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/sign_in.json", api.handleSignIn)
	mux.HandleFunc("POST /users/refresh_token.json", api.handleRefresh)
	mux.HandleFunc("GET /apiv1/devices.json", api.authed(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, api.devices)
	}))
	mux.HandleFunc("GET /apiv1/dsns/{dsn}/data.json", api.authed(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"datum": {"key": "name", "value": {"room": "kitchen"}, "dsn": %q}}]`, r.PathValue("dsn"))
	}))
	mux.HandleFunc("GET /apiv1/dsns/{dsn}/properties.json", api.authed(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"property": {"name": "GET_Battery_Capacity", "base_type": "integer", "value": 87}},
			{"property": {"name": "SET_Operating_Mode", "base_type": "integer", "value": null, "direction": "input"}}]`)
	}))
	mux.HandleFunc("GET /apiv1/dsns/{dsn}/properties/{file}", api.authed(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSuffix(r.PathValue("file"), ".json")
		body, ok := api.properties[name]
		if !ok {
			writeJSONError(w, http.StatusNotFound, "property not found")
			return
		}
		fmt.Fprint(w, body)
	}))
	mux.HandleFunc("POST /apiv1/dsns/{dsn}/properties/{name}/datapoints.json", api.authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad body")
			return
		}
		api.mu.Lock()
		api.lastWrite = body
		api.lastWritePath = r.URL.Path
		api.mu.Unlock()

		dp, _ := body["datapoint"].(map[string]any)
		json.NewEncoder(w).Encode(map[string]any{
			"datapoint": map[string]any{
				"value":      dp["value"],
				"created_at": "2024-05-01T12:00:00Z",
				"updated_at": "2024-05-01T12:00:00Z",
				"echo":       false,
			},
		})
	}))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return api, server
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// issue rotates the token pair and writes a session body.
func (a *fakeAPI) issue(w http.ResponseWriter) {
	a.mu.Lock()
	a.generation++
	a.accessToken = fmt.Sprintf("access-%d", a.generation)
	a.refreshToken = fmt.Sprintf("refresh-%d", a.generation)
	body := map[string]any{
		"access_token":  a.accessToken,
		"refresh_token": a.refreshToken,
		"expires_in":    a.expiresIn,
		"role":          "EndUser",
		"role_tags":     []any{},
	}
	a.mu.Unlock()
	json.NewEncoder(w).Encode(body)
}

func (a *fakeAPI) handleSignIn(w http.ResponseWriter, r *http.Request) {
	a.logins.Add(1)
	var body struct {
		User struct {
			Email       string `json:"email"`
			Password    string `json:"password"`
			Application struct {
				AppID     string `json:"app_id"`
				AppSecret string `json:"app_secret"`
			} `json:"application"`
		} `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if body.User.Application.AppID == "" || body.User.Application.AppSecret == "" {
		writeJSONError(w, http.StatusBadRequest, "missing application")
		return
	}
	if body.User.Email != testCreds.Email || body.User.Password != testCreds.Password {
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	a.issue(w)
}

func (a *fakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	a.refreshes.Add(1)
	if a.refreshDelay > 0 {
		time.Sleep(a.refreshDelay)
	}
	var body struct {
		User struct {
			RefreshToken string `json:"refresh_token"`
		} `json:"user"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	valid := body.User.RefreshToken != "" && body.User.RefreshToken == a.refreshToken
	a.mu.Unlock()
	if !valid {
		writeJSONError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	a.issue(w)
}

func (a *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := a.currentAccessToken()
		if token == "" || r.Header.Get("Authorization") != "auth_token "+token {
			writeJSONError(w, http.StatusUnauthorized, "Your access token is invalid or expired")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		next(w, r)
	}
}

func (a *fakeAPI) currentAccessToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accessToken
}

// newTestClient returns a client pointed at server and driven by clock.
func newTestClient(t *testing.T, server *httptest.Server, clock *testClock, opts ...Option) *Client {
	t.Helper()
	all := append([]Option{WithBaseURL(server.URL), WithClock(clock.Now)}, opts...)
	client, err := NewClient(testCreds, all...)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}
