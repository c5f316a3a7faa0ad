package restapi

// Package restapi implements the stateless JSON client for the external
// authentication service. All requests carry a bearer access token header
// when one is stored; a 401 from any authenticated endpoint surfaces as
// ErrSessionInvalid regardless of which operation hit it.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uniapply/uniapply-go/internal/apierrors"
	"github.com/uniapply/uniapply-go/internal/ports"
)

// DefaultTimeout is the request timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

// ClientOptions groups dependencies for Client.
type ClientOptions struct {
	BaseURL    string
	Tokens     ports.TokenProvider
	Timeout    time.Duration // optional, defaults to DefaultTimeout
	HTTPClient *http.Client  // optional; when set, Timeout is ignored
	Logger     *slog.Logger  // optional
}

// Client is the JSON transport under the AuthAPI adapter.
type Client struct {
	baseURL string
	tokens  ports.TokenProvider
	http    *http.Client
	logger  *slog.Logger
}

// NewClient constructs a Client from options.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("restapi: base URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		tokens:  opts.Tokens,
		http:    httpClient,
		logger:  logger,
	}, nil
}

// errorBody is the JSON shape of service error responses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do executes a JSON request authenticated with the stored access token
// (when present) and decodes a 2xx response body into dst. dst may be nil
// for empty responses.
func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	token := ""
	if c.tokens != nil {
		token = c.tokens.AccessToken(ctx)
	}
	return c.execute(ctx, method, path, body, dst, token)
}

// doWithRefreshToken authenticates with the stored refresh token instead
// of the access token. Only the refresh endpoint uses it.
func (c *Client) doWithRefreshToken(ctx context.Context, method, path string, body, dst any) error {
	token := ""
	if c.tokens != nil {
		token = c.tokens.RefreshToken(ctx)
	}
	if token == "" {
		return &apierrors.APIError{Status: http.StatusUnauthorized, Code: "missing_refresh_token"}
	}
	return c.execute(ctx, method, path, body, dst, token)
}

func (c *Client) execute(ctx context.Context, method, path string, body, dst any, token string) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("auth api transport failure",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %s %s: %v", apierrors.ErrNetwork, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}

	if dst == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// decodeError maps a non-2xx response to *APIError. An unreadable or
// non-JSON error body still yields a usable APIError keyed by status.
func (c *Client) decodeError(resp *http.Response) error {
	var eb errorBody
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &eb)
	}
	apiErr := &apierrors.APIError{
		Status:  resp.StatusCode,
		Code:    eb.Error,
		Message: eb.Message,
	}
	c.logger.Debug("auth api error response",
		slog.Int("status", resp.StatusCode),
		slog.String("code", apiErr.Code),
	)
	return apiErr
}
