package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/apperr"
	"github.com/young1lin/exa-bridge/internal/config"
	"github.com/young1lin/exa-bridge/internal/metrics"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

const (
	defaultBaseURL     = "https://api.exa.ai"
	defaultWebsetsPath = "/websets/v0"
	maxBodyBytes       = 10 << 20
	maxErrorMessage    = 500
)

// Client talks to the Exa Search and Websets APIs. One call is one round trip.
type Client struct {
	apiKey      string
	baseURL     string
	websetsPath string
	client      *http.Client
}

// NewClient creates a new Exa client
func NewClient(cfg *config.ProviderConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	websetsPath := cfg.WebsetsPath
	if websetsPath == "" {
		websetsPath = defaultWebsetsPath
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		websetsPath: "/" + strings.Trim(websetsPath, "/"),
		client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

// do sends one request and decodes a 2xx JSON body into out
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out interface{}) error {
	log := logger.FromContext(ctx)

	if c.apiKey == "" {
		return &apperr.AuthError{Message: "EXA_API_KEY is not set"}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveProvider(op, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &apperr.ProviderError{Op: op, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	metrics.ObserveProvider(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return &apperr.ProviderError{Op: op, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}
	if len(data) > maxBodyBytes {
		return &apperr.ProviderError{Op: op, StatusCode: resp.StatusCode, Message: "response body exceeds 10 MiB"}
	}

	log.Debug("exa response",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperr.ProviderError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, data),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &apperr.ProviderError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    "failed to parse response",
			Cause:      err,
		}
	}
	return nil
}

// errorMessage pulls a message out of an error body, falling back to the raw text
func errorMessage(status int, body []byte) string {
	var parsed struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if msg := rawMessage(parsed.Error); msg != "" {
			return msg
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	if r := []rune(text); len(r) > maxErrorMessage {
		text = string(r[:maxErrorMessage]) + "..."
	}
	return text
}

// rawMessage handles both {"error": "msg"} and {"error": {"message": "msg"}}
func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Message
	}
	return ""
}

func (c *Client) websetPath(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return c.websetsPath + "/websets/" + strings.Join(escaped, "/")
}

func pageQuery(cursor string, limit int) url.Values {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}
