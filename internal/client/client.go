package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for New.
const (
	DefaultAPIPrefix   = "/api"
	DefaultListTimeout = 15 * time.Second
)

// Client provides HTTP methods for the assistant REST API.
type Client struct {
	baseURL     string
	apiPrefix   string
	token       string
	httpClient  *http.Client
	listTimeout time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Its Timeout applies to every
// call, including chat turns, so leave it zero unless that is intended.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithListTimeout bounds ListSessions and SessionHistory. Zero disables it.
func WithListTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.listTimeout = d
	}
}

// WithAPIPrefix sets the API prefix. Default is "/api".
func WithAPIPrefix(prefix string) Option {
	return func(client *Client) {
		client.apiPrefix = "/" + strings.Trim(prefix, "/")
		if client.apiPrefix == "/" {
			client.apiPrefix = ""
		}
	}
}

// WithBearerToken sends "Authorization: Bearer <token>" on every request.
func WithBearerToken(token string) Option {
	return func(client *Client) {
		client.token = token
	}
}

// WithRateLimit caps chat turns at perMinute requests per minute.
// Zero or negative disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(client *Client) {
		if perMinute <= 0 {
			client.limiter = nil
			return
		}
		client.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(client *Client) {
		client.logger = l
	}
}

// New creates a client for the service at baseURL (e.g. "http://localhost:8000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiPrefix:   DefaultAPIPrefix,
		httpClient:  &http.Client{},
		listTimeout: DefaultListTimeout,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) apiURL(path string) string {
	return c.baseURL + c.apiPrefix + path
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListSessions returns the recent sessions, most recent first.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	ctx, cancel := c.listContext(ctx)
	defer cancel()

	var sessions []SessionSummary
	if err := c.getJSON(ctx, "list sessions", "/chat/sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SessionHistory returns the stored transcript of a session.
func (c *Client) SessionHistory(ctx context.Context, sessionID string) ([]TranscriptEntry, error) {
	ctx, cancel := c.listContext(ctx)
	defer cancel()

	var entries []TranscriptEntry
	if err := c.getJSON(ctx, "session history", "/chat/sessions/"+url.PathEscape(sessionID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Chat sends one chat turn and waits for the reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	const op = "chat"

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limit: %w", op, err)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal: %w", op, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL("/chat"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp ChatResponse
	if _, err := c.do(op, httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Analyze uploads a document for contract risk analysis.
// sessionID may be empty, in which case the field is omitted.
func (c *Client) Analyze(ctx context.Context, sessionID, filename string, r io.Reader) (*Analysis, error) {
	const op = "analyze"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", op, filename, err)
	}
	if sessionID != "" {
		if err := mw.WriteField("session_id", sessionID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL("/chat/analyze"), &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var analysis Analysis
	raw, err := c.do(op, httpReq, &analysis)
	if err != nil {
		return nil, err
	}
	analysis.Raw = raw
	return &analysis, nil
}

func (c *Client) listContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.listTimeout > 0 {
		return context.WithTimeout(ctx, c.listTimeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL(path), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.do(op, req, out)
	return err
}

// do sends req, checks the status and decodes a JSON body into out.
// It returns the raw body on success.
func (c *Client) do(op string, req *http.Request, out any) (json.RawMessage, error) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "url", req.URL.Path, "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.logger.Debug("request done",
		"op", op,
		"method", req.Method,
		"url", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: serverDetail(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	return json.RawMessage(body), nil
}
