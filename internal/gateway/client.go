// Package gateway issues requests to the remote catalog/cart/coupon/booking API
// and is the single place that decides whether a response means success.
package gateway

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

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jafarshop/servicecart/internal/config"
	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/internal/identity"
	"github.com/jafarshop/servicecart/pkg/errors"
)

const (
	headerLocalization = "X-localization"
	headerZoneID       = "zoneId"
	maxErrorBody       = 512
)

type Client struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	successCodes map[string]string
	localization string
	zoneID       string
	logger       *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new remote API client
func NewClient(cfg config.APIConfig, logger *zap.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient:   &http.Client{Timeout: timeout},
		successCodes: cfg.SuccessCodes,
		localization: cfg.Localization,
		zoneID:       cfg.ZoneID,
		logger:       logger,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call executes ep for id and returns the envelope content on success.
// Network failures and non-2xx statuses yield *errors.ErrTransport; a 2xx
// envelope whose response_code does not signal success yields
// *errors.ErrRejected.
func (c *Client) Call(ctx context.Context, ep Endpoint, id domain.Identity, query url.Values, body interface{}) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &errors.ErrTransport{Message: "rate limiter", Cause: err}
		}
	}

	endpoint := c.baseURL + ep.Path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.localization != "" {
		req.Header.Set(headerLocalization, c.localization)
	}
	if c.zoneID != "" {
		req.Header.Set(headerZoneID, c.zoneID)
	}
	for key, values := range identity.ResolveHeaders(id) {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Remote request failed",
			zap.String("endpoint", ep.Name),
			zap.Error(err),
		)
		return nil, &errors.ErrTransport{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ErrTransport{StatusCode: resp.StatusCode, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("Remote request",
		zap.String("endpoint", ep.Name),
		zap.String("method", ep.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		terr := &errors.ErrTransport{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
		c.logger.Warn("Remote request returned non-success status",
			zap.String("endpoint", ep.Name),
			zap.Int("status", resp.StatusCode),
			zap.String("message", terr.Message),
		)
		return nil, terr
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &errors.ErrTransport{
			StatusCode: resp.StatusCode,
			Message:    "malformed envelope",
			Cause:      err,
		}
	}

	if !IsSuccess(env.ResponseCode, c.pinnedCode(ep)) {
		c.logger.Info("Remote request rejected",
			zap.String("endpoint", ep.Name),
			zap.String("response_code", env.ResponseCode),
			zap.String("message", env.Message),
		)
		return nil, &errors.ErrRejected{
			Code:    env.ResponseCode,
			Message: env.Message,
			Errors:  env.Errors,
		}
	}

	return env.Content, nil
}

// pinnedCode returns the configured literal for ep, falling back to the
// endpoint's own pin.
func (c *Client) pinnedCode(ep Endpoint) string {
	if code, ok := c.successCodes[ep.Name]; ok {
		return code
	}
	return ep.SuccessCode
}

// errorMessage extracts a readable message from a non-2xx body, preferring
// the envelope message when the server sent one.
func errorMessage(raw []byte) string {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if len(env.Errors) > 0 {
			return env.Errors[0]
		}
	}
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	return strings.TrimSpace(string(raw))
}
