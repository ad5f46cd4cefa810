package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 1 << 20
	requestIDHeader     = "X-Request-ID"
)

// HTTPClient implements Adapter over net/http.
type HTTPClient struct {
	baseURL      *url.URL
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodyBytes int64
	injectors    []HeaderInjector
	logger       *zap.Logger
	newID        func() string
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy of the
// client given to WithHTTPClient, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

// WithMaxBodyBytes limits how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *HTTPClient) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithInjectors appends header injectors applied to every request.
func WithInjectors(injectors ...HeaderInjector) Option {
	return func(c *HTTPClient) {
		for _, inj := range injectors {
			if inj != nil {
				c.injectors = append(c.injectors, inj)
			}
		}
	}
}

// WithLogger sets the logger; request bodies are never logged.
func WithLogger(logger *zap.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDFunc overrides request id generation.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *HTTPClient) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewHTTPClient builds a client rooted at baseURL.
func NewHTTPClient(baseURL string, options ...Option) (*HTTPClient, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("transport: base url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("transport: base url %q must be http or https", trimmed)
	}

	c := &HTTPClient{
		baseURL:      parsed,
		client:       &http.Client{Timeout: defaultTimeout},
		userAgent:    "go-formpipe",
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       zap.NewNop(),
		newID:        func() string { return uuid.NewString() },
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.timeout > 0 {
		client := *c.client
		client.Timeout = c.timeout
		c.client = &client
	}
	return c, nil
}

// With returns a shallow copy carrying additional injectors, typically the
// per-request session cookie forwarder.
func (c *HTTPClient) With(injectors ...HeaderInjector) *HTTPClient {
	clone := *c
	clone.injectors = append(append([]HeaderInjector(nil), c.injectors...), injectors...)
	return &clone
}

// Resolve joins path onto the base URL, preserving the base path prefix.
func (c *HTTPClient) Resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}
	out := *c.baseURL
	out.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	out.RawQuery = ref.RawQuery
	return out.String()
}

// Do performs the request.
func (c *HTTPClient) Do(ctx context.Context, req Request) (Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target := c.Resolve(req.Path)

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{}, &Error{Method: method, URL: target, Err: err}
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	requestID := httpReq.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = c.newID()
		httpReq.Header.Set(requestIDHeader, requestID)
	}
	for _, inj := range c.injectors {
		inj.Inject(httpReq.Header)
	}

	started := time.Now()
	res, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Warn("transport request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return Response{}, &Error{Method: method, URL: target, Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, c.maxBodyBytes+1))
	if err != nil {
		return Response{}, &Error{Method: method, URL: target, Err: err}
	}
	if int64(len(data)) > c.maxBodyBytes {
		return Response{}, &Error{Method: method, URL: target, Err: ErrBodyTooLarge}
	}

	c.logger.Debug("transport request",
		zap.String("method", method),
		zap.String("url", target),
		zap.String("request_id", requestID),
		zap.Int("status", res.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)
	return Response{Status: res.StatusCode, Header: res.Header.Clone(), Body: data}, nil
}
