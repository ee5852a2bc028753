package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	headerContentType = "Content-Type"
	headerRequestID   = "X-Request-ID"
	headerUserAgent   = "User-Agent"
	contentTypeJSON   = "application/json"
	userAgent         = "go-storefront/1.0"
)

// Client performs JSON requests against the storefront API.
// It holds no session state: authenticated calls carry the caller's token source.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP client timeout; zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// FilePart is a file carried in a multipart request.
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// Multipart is a multipart/form-data body.
type Multipart struct {
	Fields map[string]string
	Files  []FilePart
}

// Request describes one API call.
type Request struct {
	Name      string             // operation name used for logs and metrics, e.g. "cart.add"
	Method    string             // HTTP method
	Path      string             // path below the base URL
	Body      any                // JSON body, ignored when Multipart is set
	Multipart *Multipart         // multipart body
	Tokens    oauth2.TokenSource // bearer token source; nil for public endpoints
}

// Do performs the request and decodes a 2xx JSON response into result (which may be nil).
// Non-2xx responses return *Error. A token source that yields no token returns
// errors.ErrAuthRequired without touching the network.
func (c *Client) Do(ctx context.Context, r Request, result any) error {
	name := r.Name
	if name == "" {
		name = r.Method + " " + r.Path
	}

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return fmt.Errorf("[api %s] %w", name, err)
	}

	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set(headerUserAgent, userAgent)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(name, 0, time.Since(started))
		c.logger.Debug().Str("op", name).Str("request_id", requestID).Err(err).Msg("api request failed")
		return fmt.Errorf("[api %s] request failed: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(started)
	c.metrics.ObserveRequest(name, resp.StatusCode, elapsed)
	c.logger.Debug().
		Str("op", name).
		Str("method", r.Method).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Str("request_id", requestID).
		Msg("api request")
	if err != nil {
		return fmt.Errorf("[api %s] read response: %w", name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, body)
	}

	if result != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("[api %s] %w: %v", name, errors.ErrInvalidResponse, err)
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.Multipart != nil:
		buf, ct, err := encodeMultipart(r.Multipart)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body, contentType = bytes.NewReader(data), contentTypeJSON
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}

	if r.Tokens != nil {
		token, err := r.Tokens.Token()
		if err != nil || token == nil || token.AccessToken == "" {
			return nil, errors.ErrAuthRequired
		}
		token.SetAuthHeader(req)
	}
	return req, nil
}

func encodeMultipart(m *Multipart) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("multipart field %s: %w", k, err)
		}
	}
	for _, f := range m.Files {
		part, err := w.CreateFormFile(f.Field, f.FileName)
		if err != nil {
			return nil, "", fmt.Errorf("multipart file %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("multipart file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("multipart close: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, name, path string, tokens oauth2.TokenSource, result any) error {
	return c.Do(ctx, Request{Name: name, Method: http.MethodGet, Path: path, Tokens: tokens}, result)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, name, path string, tokens oauth2.TokenSource, body, result any) error {
	return c.Do(ctx, Request{Name: name, Method: http.MethodPost, Path: path, Body: body, Tokens: tokens}, result)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, name, path string, tokens oauth2.TokenSource, body, result any) error {
	return c.Do(ctx, Request{Name: name, Method: http.MethodPut, Path: path, Body: body, Tokens: tokens}, result)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, name, path string, tokens oauth2.TokenSource, result any) error {
	return c.Do(ctx, Request{Name: name, Method: http.MethodDelete, Path: path, Tokens: tokens}, result)
}
