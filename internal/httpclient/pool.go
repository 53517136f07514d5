// Package httpclient provides the single shared connection pool every
// provider adapter issues requests through. Timeout, keepalive, and HTTP/2
// behavior live here so adapters never configure their own *http.Client.
package httpclient

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// Config bounds the shared pool.
type Config struct {
	MaxConnsTotal int
	MaxIdlePerHost int
	KeepAliveExpiry time.Duration
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
 MaxConnsTotal: 200,
 MaxIdlePerHost: 20,
 KeepAliveExpiry: 90 * time.Second,
 ConnectTimeout: 5 * time.Second,
 RequestTimeout: 30 * time.Second,
 UserAgent: "openecon-data/1.0 (+query pipeline)",
	}
}

// Pool is the shared HTTP client used by every adapter through A.
type Pool struct {
	cfg Config
	client *http.Client
}

func New(cfg Config) *Pool {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
 Proxy: http.ProxyFromEnvironment,
 DialContext: dialer.DialContext,
 ForceAttemptHTTP2: true,
 MaxConnsPerHost: cfg.MaxConnsTotal,
 MaxIdleConnsPerHost: cfg.MaxIdlePerHost,
 IdleConnTimeout: cfg.KeepAliveExpiry,
	}
	return &Pool{
 cfg: cfg,
 client: &http.Client{
 Transport: transport,
 Timeout: cfg.RequestTimeout,
 },
	}
}

// Response is the uniform outcome of a pool call.
type Response struct {
	Status int
	Body []byte
	ElapsedMs int64
	Header http.Header
}

// Get issues a GET. It never returns an error for a successful 4xx/5xx;
// callers (adapters) decide whether that is DataNotAvailableError,
// UpstreamError, or RateLimitError.
func (p *Pool) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
 return nil, err
	}
	return p.do(req, headers)
}

// PostJSON issues a POST with a JSON body, same return shape as Get.
func (p *Pool) PostJSON(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
 return nil, err
	}
	if headers == nil {
 headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"
	return p.do(req, headers)
}

func (p *Pool) do(req *http.Request, headers map[string]string) (*Response, error) {
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	for k, v := range headers {
 req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
 if ctxErr := req.Context().Err(); ctxErr != nil {
 log.Debug().Str("url", scrub(req.URL.String())).Msg("request deadline exceeded")
 return nil, &TimeoutError{URL: req.URL.String()}
 }
 return nil, &NetworkError{URL: req.URL.String(), Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
 return nil, &NetworkError{URL: req.URL.String(), Cause: err}
	}

	return &Response{
 Status: resp.StatusCode,
 Body: data,
 ElapsedMs: elapsed.Milliseconds(),
 Header: resp.Header,
	}, nil
}

// logSecretParams keeps debug logs free of API keys; kept as its own small
// copy rather than importing internal/cache, whose Fingerprint owns the
// canonical scrubbing used for cache keys.
var logSecretParams = map[string]bool{
	"api_key": true, "apikey": true, "key": true, "token": true,
	"access_token": true, "access_key": true, "app_id": true, "subscription-key": true,
}

// scrub redacts query-string secrets before logging.
func scrub(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
 return rawURL
	}
	q := u.Query()
	changed := false
	for k := range q {
 if logSecretParams[k] {
 q.Set(k, "***")
 changed = true
 }
	}
	if changed {
 u.RawQuery = q.Encode()
	}
	return u.String()
}

type TimeoutError struct{ URL string }

func (e *TimeoutError) Error() string { return "timeout: " + e.URL }

type NetworkError struct {
	URL string
	Cause error
}

func (e *NetworkError) Error() string { return "network error: " + e.URL }
func (e *NetworkError) Unwrap() error { return e.Cause }
