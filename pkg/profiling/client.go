package profiling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/hmcoe/skillprofile/internal/config"
	"github.com/hmcoe/skillprofile/pkg/metrics"
)

// Client is a typed HTTP client for the profiling API. It adds per-request
// timeouts, retries with backoff for idempotent calls, and a circuit breaker.
type Client struct {
	base   *url.URL
	cfg    config.ClientConfig
	client *http.Client

	// simple circuit breaker state
	failures  int32
	openUntil int64 // unix nano
	closed    int32 // atomic flag for Close()
}

// NewClient creates a new profiling API client.
func NewClient(cfg config.ClientConfig, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{
		base:   u,
		cfg:    cfg,
		client: httpClient,
	}
	logger.Info("profiling: NewClient created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return c, nil
}

func NewDefaultClient(cfg config.ClientConfig) (*Client, error) {
	defaultClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return NewClient(cfg, defaultClient)
}

// package-level logger for pkg/profiling; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/profiling. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.failures) < int32(c.cfg.CircuitFailureThreshold) {
		return false
	}

	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}

	// attempt half-open: reset failures and allow a request
	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *Client) recordFailure() {
	v := atomic.AddInt32(&c.failures, 1)
	if v >= int32(c.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

// Close releases any resources held by the client. Currently this will close
// idle connections on the underlying HTTP transport when supported. Close is
// idempotent and safe to call multiple times.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.client != nil && c.client.Transport != nil {
		if tr, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
		}
	}
	return nil
}

// request describes one API call. Mutating calls never retry; only GETs are
// replayed after transport failures. The op names the call in metrics.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   any
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do executes one API call and returns the raw response body for 2xx
// statuses. Non-2xx statuses are mapped onto the error taxonomy in errors.go.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	if c.isCircuitOpen() {
		return nil, ErrCircuitOpen
	}

	retries := 0
	if req.method == http.MethodGet {
		retries = c.cfg.Retries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			time.Sleep(c.cfg.Backoff * time.Duration(attempt))
			if c.isCircuitOpen() {
				return nil, ErrCircuitOpen
			}
		}

		body, err := c.doOnce(ctx, req)
		if err == nil {
			atomic.StoreInt32(&c.failures, 0)
			return body, nil
		}

		lastErr = err
		// API-level failures (4xx) are final; only transport errors count
		// against the circuit and are worth retrying.
		if _, ok := err.(*APIError); ok || isTaxonomy(err) {
			return nil, err
		}
		c.recordFailure()
	}

	return nil, fmt.Errorf("profiling api request failed: %w", lastErr)
}

func (c *Client) doOnce(ctx context.Context, req request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var rd io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.method, c.resolve(req.path, req.query), rd)
	if err != nil {
		return nil, err
	}
	if req.body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		hreq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.client.Do(hreq)
	if err != nil {
		metrics.RecordUpstreamCall(req.op, "transport_error")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordUpstreamCall(req.op, "transport_error")
		return nil, err
	}

	latency := time.Since(start)
	metrics.RecordUpstreamLatency(float64(latency.Milliseconds()))
	outcome := "ok"
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "error"
	}
	metrics.RecordUpstreamCall(req.op, outcome)

	logger.Debug("profiling: request",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", latency),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, body)
	}

	return body, nil
}
