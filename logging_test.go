package shark

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client, err := NewClient(testCreds, WithLogger(logger))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if client.logger != logger {
		t.Error("logger not set")
	}
}

func TestLoggingTransport(t *testing.T) {
	t.Run("logs successful request", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := &http.Client{Transport: &LoggingTransport{Logger: logger}}
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/apiv1/devices.json", nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		output := buf.String()
		if !strings.Contains(output, "http_request") {
			t.Error("expected http_request log")
		}
		if !strings.Contains(output, "http_response") {
			t.Error("expected http_response log")
		}
		if !strings.Contains(output, "path=/apiv1/devices.json") {
			t.Errorf("expected path in log, got %s", output)
		}
	})

	t.Run("logs error response", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := &http.Client{Transport: &LoggingTransport{Base: http.DefaultTransport, Logger: logger}}
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/test", nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if !strings.Contains(buf.String(), "level=ERROR") {
			t.Errorf("expected ERROR level for 500, got %s", buf.String())
		}
	})

	t.Run("logs transport error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		client := &http.Client{Transport: &LoggingTransport{Logger: logger}}
		req, _ := http.NewRequest(http.MethodGet, url+"/test", nil)
		if _, err := client.Do(req); err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(buf.String(), "http_error") {
			t.Errorf("expected http_error log, got %s", buf.String())
		}
	})

	t.Run("nil logger", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := &http.Client{Transport: &LoggingTransport{}}
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
	})
}

func TestClient_LogRequestResponse(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client, _ := NewClient(testCreds, WithLogger(logger))

	ctx := context.Background()
	client.LogRequest(ctx, http.MethodGet, "/apiv1/devices.json")
	client.LogResponse(ctx, http.MethodGet, "/apiv1/devices.json", http.StatusNotFound, 5*time.Millisecond)
	client.LogResponse(ctx, http.MethodGet, "/apiv1/devices.json", 0, time.Second)

	output := buf.String()
	for _, want := range []string{"api_request", "api_response", "status=404", "level=WARN", "level=ERROR"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in log, got %s", want, output)
		}
	}

	silent, _ := NewClient(testCreds)
	silent.LogRequest(ctx, http.MethodGet, "/")
	silent.LogResponse(ctx, http.MethodGet, "/", 200, 0)
}

func TestClient_LogsTokenRefresh(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_, server := newFakeAPI(t)
	client := newTestClient(t, server, newTestClock(), WithLogger(logger))
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := client.RefreshAccessToken(context.Background()); err != nil {
		t.Fatalf("RefreshAccessToken failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"msg":"token_refresh"`) {
		t.Errorf("expected token_refresh log, got %s", output)
	}
	if strings.Contains(output, "access-") || strings.Contains(output, "hunter2") {
		t.Error("secrets must not be logged")
	}
}

func TestNewLoggingClient(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, server := newFakeAPI(t)
	client, err := NewLoggingClient(testCreds, logger, WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewLoggingClient failed: %v", err)
	}
	if _, ok := client.httpClient.Transport.(*LoggingTransport); !ok {
		t.Error("transport is not a LoggingTransport")
	}
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "http_response") {
		t.Errorf("expected transport log, got %s", output)
	}
	if strings.Contains(output, "api_response") {
		t.Errorf("request logged twice: %s", output)
	}
	if n := strings.Count(output, "http_response"); n != 1 {
		t.Errorf("got %d http_response entries for one call, want 1", n)
	}
}

func TestWithLogger_SingleEntryPerCall(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, server := newFakeAPI(t)
	client := newTestClient(t, server, newTestClock(), WithLogger(logger))
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	output := buf.String()
	if n := strings.Count(output, "api_response"); n != 1 {
		t.Errorf("got %d api_response entries, want 1: %s", n, output)
	}
	if strings.Contains(output, "http_response") {
		t.Errorf("unexpected transport log: %s", output)
	}
}

func TestStatusLevel(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{0, slog.LevelError},
		{200, slog.LevelDebug},
		{204, slog.LevelDebug},
		{401, slog.LevelWarn},
		{404, slog.LevelWarn},
		{500, slog.LevelError},
		{503, slog.LevelError},
	}
	for _, tt := range tests {
		if got := statusLevel(tt.status); got != tt.want {
			t.Errorf("statusLevel(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
