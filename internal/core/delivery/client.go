// Package delivery posts rendered notifications to an ntfy server.
package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/solatis/ntfyrelay/internal/core/config"
)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 512

// StatusError reports a non-2xx response from the notification server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notification server returned %d: %s", e.StatusCode, e.Body)
}

// Result describes one completed delivery attempt.
type Result struct {
	StatusCode int
	Duration   time.Duration
}

// Client sends notifications with bearer-token auth.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client for cfg.URLBase using apiKey (may be empty).
func NewClient(cfg *config.RelayConfig, apiKey string, httpClient *http.Client) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URLBase, "/"),
		apiKey:     apiKey,
		timeout:    cfg.RequestTimeout,
		httpClient: httpClient,
	}, nil
}

// Send posts message to {base}/{topic}. A non-empty title is sent in the
// Title header. Returns *StatusError for non-2xx responses; the Result is
// populated whenever a response was received.
func (c *Client) Send(ctx context.Context, topic, title, message string) (Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + "/" + url.PathEscape(topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if title != "" {
		req.Header.Set("Title", headerSafe(title))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Duration: time.Since(start)}, fmt.Errorf("failed to deliver to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	result := Result{StatusCode: resp.StatusCode, Duration: time.Since(start)}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return result, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return result, nil
}

// headerSafe folds a rendered title onto one line.
// Header values cannot carry CR/LF; multi-line titles come from loop blocks.
func headerSafe(s string) string {
	return strings.Join(strings.Fields(strings.NewReplacer("\r", " ", "\n", " ").Replace(s)), " ")
}
