package signingClient

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

	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	signPath   = "/sign"
	verifyPath = "/verify"

	// RequestIDHeader carries a per-request id the service may log
	RequestIDHeader = "X-Request-Id"

	// cap on how much of an error body is kept for logs
	maxErrorBodyBytes = 512
)

// Config configures the signing service client
type Config struct {
	// BaseURL is the service root, e.g. http://127.0.0.1:5000
	BaseURL string
	// Timeout bounds each round trip. 0 means no client-side timeout.
	Timeout time.Duration
	// RequestsPerSecond throttles outgoing requests; 0 disables throttling
	RequestsPerSecond float64
}

// DefaultConfig returns the configuration used when none is given
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://127.0.0.1:5000",
		Timeout: 10 * time.Second,
	}
}

// Client talks JSON over HTTP to the signing service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a signing service client
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative")
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests per second cannot be negative")
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// SetHttpClient replaces the underlying HTTP client
func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

// Sign requests a signature for message
func (c *Client) Sign(ctx context.Context, message types.Message) (types.Signature, error) {
	var resp types.SignResponse
	if err := c.post(ctx, "sign", signPath, &types.SignRequest{Message: message}, &resp); err != nil {
		return "", err
	}

	if resp.Signature == nil {
		return "", &types.ProtocolError{Op: "sign", Reason: "response is missing the signature field"}
	}

	return *resp.Signature, nil
}

// Verify asks the service whether signature is valid for message
func (c *Client) Verify(ctx context.Context, message types.Message, signature types.Signature) (bool, error) {
	var resp types.VerifyResponse
	req := &types.VerifyRequest{Message: message, Signature: signature}
	if err := c.post(ctx, "verify", verifyPath, req, &resp); err != nil {
		return false, err
	}

	if resp.Valid == nil {
		return false, &types.ProtocolError{Op: "verify", Reason: "response is missing the valid field"}
	}

	return *resp.Valid, nil
}

// post sends in as JSON to path and decodes a 2xx response body into out.
func (c *Client) post(ctx context.Context, op, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		// request types are plain strings; this is a programming error
		return errors.Wrapf(err, "failed to marshal %s request", op)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &types.TransportError{Op: op, Err: errors.Wrap(err, "rate limiter")}
		}
	}

	requestID := uuid.New().String()
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &types.TransportError{Op: op, Err: errors.Wrapf(err, "failed to build request to %s", endpoint)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	c.logger.Sugar().Debugw("Sending request to signing service",
		"op", op,
		"url", endpoint,
		"request_id", requestID,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Sugar().Warnw("Signing service unreachable",
			"op", op,
			"url", endpoint,
			"request_id", requestID,
			"error", err,
		)
		return &types.TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.Sugar().Warnw("Signing service returned error",
			"op", op,
			"request_id", requestID,
			"status_code", resp.StatusCode,
			"body", string(snippet),
		)
		return &types.ProtocolError{Op: op, StatusCode: resp.StatusCode, Reason: "unexpected status " + resp.Status}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		// the connection broke mid-body
		return &types.TransportError{Op: op, Err: errors.Wrap(err, "failed to read response body")}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Sugar().Warnw("Failed to decode response from signing service",
			"op", op,
			"request_id", requestID,
			"error", err,
		)
		return &types.ProtocolError{Op: op, StatusCode: resp.StatusCode, Reason: "response is not the expected JSON object", Err: err}
	}

	c.logger.Sugar().Debugw("Signing service responded",
		"op", op,
		"request_id", requestID,
		"status_code", resp.StatusCode,
		"duration", time.Since(start),
	)
	return nil
}
