package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.UserAgent = "TestApp/1.0.0"
	return cfg
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "default config",
			mutate:      func(*Config) {},
			expectError: false,
		},
		{
			name:        "empty base url",
			mutate:      func(c *Config) { c.BaseURL = "" },
			expectError: true,
			errorMsg:    "base_url is required",
		},
		{
			name:        "relative base url",
			mutate:      func(c *Config) { c.BaseURL = "/pacesapi" },
			expectError: true,
			errorMsg:    `base_url must be an absolute URL (got "/pacesapi")`,
		},
		{
			name:        "empty origin",
			mutate:      func(c *Config) { c.Origin = "" },
			expectError: true,
			errorMsg:    "origin is required",
		},
		{
			name:        "empty user agent",
			mutate:      func(c *Config) { c.UserAgent = "" },
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name:        "zero fetch timeout",
			mutate:      func(c *Config) { c.FetchTimeout = 0 },
			expectError: true,
			errorMsg:    "timeouts must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			client, err := New(cfg)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
				if client == nil {
					t.Error("Client is nil")
				}
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Origin != "https://www.onepa.gov.sg" {
		t.Errorf("Origin = %q", cfg.Origin)
	}
	if cfg.FetchTimeout != 120*time.Second {
		t.Errorf("FetchTimeout = %v, want 120s", cfg.FetchTimeout)
	}
	if cfg.SlotRequestTimeout != 60*time.Second {
		t.Errorf("SlotRequestTimeout = %v, want 60s", cfg.SlotRequestTimeout)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Origin = "https://www.onepa.gov.sg/"

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if client.Origin() != "https://www.onepa.gov.sg" {
		t.Errorf("Origin() = %q", client.Origin())
	}
}

func TestClassifyError(t *testing.T) {
	client := &Client{logger: zerolog.Nop()}

	tests := []struct {
		name       string
		statusCode int
		err        error
		expected   ErrorClass
	}{
		{name: "network error", err: io.EOF, expected: ErrorClassNetwork},
		{name: "client error 404", statusCode: 404, expected: ErrorClassClient},
		{name: "client error 400", statusCode: 400, expected: ErrorClassClient},
		{name: "server error 500", statusCode: 500, expected: ErrorClassServer},
		{name: "server error 503", statusCode: 503, expected: ErrorClassServer},
		{name: "redirect 302", statusCode: 302, expected: ErrorClassUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if tt.statusCode > 0 {
				resp = &http.Response{StatusCode: tt.statusCode}
			}

			result := client.classifyError(resp, tt.err)
			if result != tt.expected {
				t.Errorf("classifyError() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestGetJSON_HeadersAndQuery(t *testing.T) {
	var gotUA, gotAccept, gotQuery, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotQuery = r.URL.Query().Get("facility")
		gotPath = r.URL.Path
		w.Write([]byte(`{"data": {"results": []}}`))
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL + "/pacesapi"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	var out struct {
		Data struct {
			Results []any `json:"results"`
		} `json:"data"`
	}
	params := map[string][]string{"facility": {"BADMINTON COURTS"}}
	if err := client.GetJSON(context.Background(), SearchEndpoint, params, &out); err != nil {
		t.Fatalf("GetJSON() failed: %v", err)
	}

	if gotUA != "TestApp/1.0.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotQuery != "BADMINTON COURTS" {
		t.Errorf("facility query = %q", gotQuery)
	}
	if gotPath != "/pacesapi"+SearchEndpoint {
		t.Errorf("path = %q", gotPath)
	}
}

func TestGetJSON_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantClass ErrorClass
		wantShape bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, wantClass: ErrorClassServer},
		{name: "not found", status: http.StatusNotFound, body: `{}`, wantClass: ErrorClassClient},
		{name: "malformed json", status: http.StatusOK, body: `<html>`, wantClass: ErrorClassDecode, wantShape: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := New(testConfig(server.URL))
			if err != nil {
				t.Fatalf("Failed to create client: %v", err)
			}

			var out map[string]any
			err = client.GetJSON(context.Background(), SearchEndpoint, nil, &out)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := ClassOf(err); got != tt.wantClass {
				t.Errorf("ClassOf() = %q, want %q (err: %v)", got, tt.wantClass, err)
			}
			if errors.Is(err, ErrUnexpectedShape) != tt.wantShape {
				t.Errorf("errors.Is(ErrUnexpectedShape) = %v, want %v", !tt.wantShape, tt.wantShape)
			}
		})
	}
}

func TestGetJSON_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := New(testConfig(url))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	var out map[string]any
	err = client.GetJSON(context.Background(), SearchEndpoint, nil, &out)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected *RequestError, got %v", err)
	}
	if reqErr.ErrorClass != ErrorClassNetwork {
		t.Errorf("ErrorClass = %q, want network", reqErr.ErrorClass)
	}
}

func TestSession_HonoursContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	session := client.NewSession()
	defer session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out map[string]any
	err = session.GetJSON(ctx, SlotsEndpoint, nil, &out)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

func TestSession_OwnTransport(t *testing.T) {
	client, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	a := client.NewSession()
	b := client.NewSession()
	defer a.Close()
	defer b.Close()

	if a.transport == nil || b.transport == nil {
		t.Fatal("sessions should own a transport when none is configured")
	}
	if a.transport == b.transport {
		t.Error("sessions must not share a connection pool")
	}
}

func TestRequestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	before := testutil.ToFloat64(onepaRequestsTotal.WithLabelValues(SlotsEndpoint, "503"))

	var out map[string]any
	_ = client.GetJSON(context.Background(), SlotsEndpoint, nil, &out)

	after := testutil.ToFloat64(onepaRequestsTotal.WithLabelValues(SlotsEndpoint, "503"))
	if after-before != 1 {
		t.Errorf("onepa_requests_total{status=503} delta = %v, want 1", after-before)
	}
}
