package weekfitter

import (
	"bytes"
	"context"
	"encoding/json"
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
	RequestIDHeader = "X-Request-ID"

	contentTypeJSON = "application/json"
)

// Client talks to the weekfitter REST backend. It is safe for concurrent use
// once constructed.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	requestID  func() string
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must use http or https", baseURL)
	}

	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
		requestID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the backend root the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *Client) jsonRequest(method, path string, query url.Values, payload any) (request, error) {
	req := request{method: method, path: path, query: query}
	if payload == nil {
		return req, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("encode json body: %w", err)
	}
	req.body = bytes.NewReader(body)
	req.contentType = contentTypeJSON
	return req, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	target := *c.baseURL
	target.Path = strings.TrimRight(target.Path, "/") + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	return target.String()
}

func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), r.body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := c.requestID()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json, text/plain")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: request failed: %w", r.method, r.path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", r.method, r.path, readErr)
	}

	c.logger.Debug("backend request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     r.method,
			Path:       r.path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
		}
	}
	return payload, nil
}

func decodeJSON[T any](payload []byte, what string) (T, error) {
	var decoded T
	if len(bytes.TrimSpace(payload)) == 0 {
		return decoded, nil
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return decoded, fmt.Errorf("decode %s: %w", what, err)
	}
	return decoded, nil
}

func ownerQuery(email string) url.Values {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return nil
	}
	return url.Values{"email": []string{trimmed}}
}

func plainText(payload []byte) string {
	return strings.Trim(strings.TrimSpace(string(payload)), `"`)
}
