package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/tracing"
	"mercator-hq/callisto/pkg/usage"
)

const (
	// usagePath is the upstream endpoint serving the account usage report.
	usagePath = "/api/oauth/usage"

	// userAgent identifies the client the upstream endpoint expects.
	userAgent = "claude-code/2.0.32"

	// betaFlag is the anthropic-beta header value that unlocks the OAuth
	// usage endpoint.
	betaFlag = "oauth-2025-04-20"

	defaultBaseURL        = "https://api.anthropic.com"
	defaultRequestTimeout = 30 * time.Second
	defaultConnectTimeout = 5 * time.Second
)

// TokenSource supplies the OAuth access token attached to usage requests.
// *credentials.Source satisfies this interface.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client fetches usage snapshots from the upstream usage API.
// It performs a single attempt per call: the snapshot cache and poller
// cadence make in-client retries redundant.
type Client struct {
	// config contains the upstream endpoint and timeout settings
	config config.UpstreamConfig

	// creds supplies the OAuth access token for each request
	creds TokenSource

	// client is the HTTP client with connection pooling
	client *http.Client

	// logger is the component logger
	logger *slog.Logger
}

// New creates a usage API client. Zero config fields fall back to the
// standard endpoint and timeouts.
func New(cfg config.UpstreamConfig, creds TokenSource) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}

	// Create HTTP transport with connection pooling
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		config: cfg,
		creds:  creds,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		logger: slog.Default().With("component", "usage_client"),
	}
}

// Fetch retrieves the current usage snapshot from the upstream API.
//
// Credential errors from the token source pass through unchanged so
// callers can match credentials.ErrNoCredential and credentials.ErrExpired.
// Timeouts surface as *TimeoutError, non-200 responses as *UpstreamError,
// and undecodable 200 bodies as *ParseError.
func (c *Client) Fetch(ctx context.Context) (usage.Snapshot, error) {
	var snap usage.Snapshot

	token, err := c.creds.Token(ctx)
	if err != nil {
		return snap, err
	}

	url := c.config.BaseURL + usagePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return snap, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("anthropic-beta", betaFlag)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	tracing.Inject(ctx, req.Header)

	c.logger.Debug("fetching usage snapshot", "url", url)

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return snap, &TimeoutError{Timeout: c.config.RequestTimeout}
		}
		return snap, fmt.Errorf("usage request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return snap, &ParseError{Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		upErr := newUpstreamError(resp.StatusCode, body)
		c.logger.Warn("usage fetch failed",
			"status", resp.StatusCode,
			"error_type", upErr.Type,
		)
		return snap, upErr
	}

	if err := json.Unmarshal(body, &snap); err != nil {
		return snap, &ParseError{
			RawResponse: string(body),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	c.logger.Debug("usage snapshot fetched",
		"five_hour_utilization", snap.FiveHour.Utilization,
		"seven_day_utilization", snap.SevenDay.Utilization,
	)
	return snap, nil
}

// isTimeout reports whether err is a deadline or network timeout rather
// than an explicit cancellation.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
