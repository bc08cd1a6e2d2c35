// ABOUTME: HTTP client for the conversation backend REST API
// ABOUTME: Adds bearer auth and retries once with a fresh token after a 401

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the backend API root used when none is configured.
const DefaultBaseURL = "http://localhost:8080/api/v1"

var (
	// ErrUnauthorized matches 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches 404 responses.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// Unwrap lets errors.Is match the sentinel for the status code.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// TokenSource supplies bearer tokens.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	// Invalidate forces the next Token call to obtain a fresh token.
	Invalidate()
}

// Options tune a Client. Zero values use defaults.
type Options struct {
	Timeout      time.Duration
	HistoryLimit int
	HTTPClient   *http.Client
}

// Client talks JSON over HTTP to the backend.
type Client struct {
	baseURL      string
	http         *http.Client
	tokens       TokenSource
	historyLimit int
	logger       *slog.Logger
}

// New creates a client for baseURL. tokens may be nil for the unauthenticated
// endpoints (login and refresh).
func New(baseURL string, tokens TokenSource, opts Options, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		http:         hc,
		tokens:       tokens,
		historyLimit: opts.HistoryLimit,
		logger:       logger.With("component", "backend"),
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one request. in is JSON encoded when non-nil; out is decoded when
// non-nil and the response has a body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = b
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.tokens != nil {
			token, err := c.tokens.Token(ctx)
			if err != nil {
				return fmt.Errorf("getting token: %w", err)
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil && attempt == 0 {
			drain(resp)
			c.logger.Debug("token rejected, refreshing", "path", path)
			c.tokens.Invalidate()
			continue
		}

		err = decodeResponse(resp, out)
		if err != nil {
			c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		}
		return err
	}
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		drain(resp)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

func userPath(userID string, rest ...string) string {
	var b strings.Builder
	b.WriteString("/users/")
	b.WriteString(url.PathEscape(userID))
	for _, r := range rest {
		b.WriteByte('/')
		b.WriteString(r)
	}
	return b.String()
}
