// Package client provides the HTTP client for the onePA booking service with
// error classification, JSON decoding and per-fetch connection pools.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for onePA client operations.
var (
	onepaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onepa_requests_total",
		Help: "Total onePA requests by endpoint and status",
	}, []string{"endpoint", "status"})

	onepaRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "onepa_request_duration_seconds",
		Help:    "onePA request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"endpoint"})

	onepaErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onepa_errors_total",
		Help: "Total onePA errors by class",
	}, []string{"class"})
)

// Remote endpoints, relative to Config.BaseURL.
const (
	// SearchEndpoint lists outlets (paged) and reports outlet-level availability.
	SearchEndpoint = "/facilitysearch/searchjson"

	// SlotsEndpoint reports time-slot availability for one outlet on one date.
	SlotsEndpoint = "/facilityavailability/GetFacilitySlots"
)

// DateLayout is the date format expected by both endpoints.
const DateLayout = "02/01/2006"

// Client talks to the onePA booking service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://www.onepa.gov.sg/pacesapi".
	BaseURL string

	// Origin is the public site origin used to build absolute booking URLs.
	Origin string

	// UserAgent header sent with every request.
	UserAgent string

	// RequestTimeout bounds single requests made outside a fetch session
	// (outlet directory listing).
	RequestTimeout time.Duration

	// FetchTimeout is the shared budget for all requests of one fetch call.
	FetchTimeout time.Duration

	// SlotRequestTimeout bounds each slot-detail request inside a fetch.
	SlotRequestTimeout time.Duration

	// Transport overrides the connection pool (for testing). When nil every
	// session gets its own clone of http.DefaultTransport.
	Transport http.RoundTripper
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:            "https://www.onepa.gov.sg/pacesapi",
		Origin:             "https://www.onepa.gov.sg",
		UserAgent:          "onepa-availability/0.1.0",
		RequestTimeout:     30 * time.Second,
		FetchTimeout:       120 * time.Second,
		SlotRequestTimeout: 60 * time.Second,
	}
}

// New creates a new onePA client.
func New(cfg Config) (*Client, error) {
	if err := validateAbsoluteURL("base_url", cfg.BaseURL); err != nil {
		return nil, err
	}
	if err := validateAbsoluteURL("origin", cfg.Origin); err != nil {
		return nil, err
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.RequestTimeout <= 0 || cfg.FetchTimeout <= 0 || cfg.SlotRequestTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be positive")
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Origin = strings.TrimRight(cfg.Origin, "/")

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		baseURL: cfg.BaseURL,
		config:  cfg,
		logger:  log.With().Str("component", "onepa-client").Logger(),
	}, nil
}

func validateAbsoluteURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL (got %q)", field, raw)
	}
	return nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Origin returns the public site origin without a trailing slash.
func (c *Client) Origin() string {
	return c.config.Origin
}

// GetJSON performs a GET request on the shared connection pool and decodes
// the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.getJSON(ctx, c.httpClient, endpoint, params, out)
}

// Session is a connection pool dedicated to one fetch call.
type Session struct {
	client     *Client
	httpClient *http.Client
	transport  *http.Transport
}

// NewSession opens a fresh connection pool. Callers must Close it once the
// fetch completes; sessions are not meant to be reused.
func (c *Client) NewSession() *Session {
	s := &Session{client: c}

	rt := c.config.Transport
	if rt == nil {
		s.transport = http.DefaultTransport.(*http.Transport).Clone()
		rt = s.transport
	}
	s.httpClient = &http.Client{Transport: rt}

	return s
}

// GetJSON performs a GET request on the session's pool and decodes the JSON
// body into out. Deadlines come from ctx.
func (s *Session) GetJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	return s.client.getJSON(ctx, s.httpClient, endpoint, params, out)
}

// Close releases idle connections held by the session.
func (s *Session) Close() {
	if s.transport != nil {
		s.transport.CloseIdleConnections()
	}
}

func (c *Client) getJSON(ctx context.Context, hc *http.Client, endpoint string, params url.Values, out any) error {
	body, err := c.get(ctx, hc, endpoint, params)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		onepaErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Malformed JSON response")
		return fmt.Errorf("%w: decode %s: %v", ErrUnexpectedShape, endpoint, err)
	}

	return nil
}

// get executes one request and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, hc *http.Client, endpoint string, params url.Values) ([]byte, error) {
	target := c.baseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	defer func() {
		onepaRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("query", req.URL.RawQuery).
		Msg("Executing onePA request")

	resp, err := hc.Do(req)
	if err != nil {
		errClass := c.classifyError(nil, err)
		onepaErrorsTotal.WithLabelValues(string(errClass)).Inc()
		onepaRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, &RequestError{
			Endpoint:   endpoint,
			ErrorClass: errClass,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	onepaRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := c.classifyError(resp, nil)
		onepaErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("onePA request error")

		// Drain so the connection can be reused by sibling requests.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &RequestError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		onepaErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &RequestError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	return body, nil
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}
