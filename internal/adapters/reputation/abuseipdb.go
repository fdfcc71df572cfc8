// Package reputation queries an AbuseIPDB-compatible check endpoint for the
// abuse confidence score of an address.
package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultURL is the public AbuseIPDB check endpoint.
const DefaultURL = "https://api.abuseipdb.com/api/v2/check"

// maxResponseBytes bounds the body read from the service.
const maxResponseBytes = 1 << 20

// ClientConfig configures the reputation client.
type ClientConfig struct {
	URL               string        // Check endpoint (default: DefaultURL)
	Timeout           time.Duration // Per-request timeout (default: 10s)
	RequestsPerSecond float64       // Pacing across all lookups (default: 5)
	MaxAgeDays        int           // Report age considered (default: 90)
}

// DefaultClientConfig returns production defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:               DefaultURL,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 5,
		MaxAgeDays:        90,
	}
}

// Client implements ports.ReputationClient over HTTP.
//
// Thread Safety: Safe for concurrent use; the limiter is shared by all callers.
type Client struct {
	http       *http.Client
	endpoint   string
	maxAgeDays int
	limiter    *rate.Limiter
}

type checkResponse struct {
	Data struct {
		AbuseConfidenceScore *int `json:"abuseConfidenceScore"`
	} `json:"data"`
}

// NewClient creates a client. Zero fields of config take their defaults.
func NewClient(config ClientConfig) *Client {
	defaults := DefaultClientConfig()
	if config.URL == "" {
		config.URL = defaults.URL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if config.MaxAgeDays <= 0 {
		config.MaxAgeDays = defaults.MaxAgeDays
	}

	return &Client{
		http:       &http.Client{Timeout: config.Timeout},
		endpoint:   config.URL,
		maxAgeDays: config.MaxAgeDays,
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}
}

// Score returns the abuse confidence of address, clamped to [0, 100].
// Transport failures, non-2xx statuses and payloads without a score are
// errors; the caller decides how to degrade.
func (c *Client) Score(ctx context.Context, address, credential string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return 0, fmt.Errorf("invalid reputation endpoint: %w", err)
	}
	q := u.Query()
	q.Set("ipAddress", address)
	q.Set("maxAgeInDays", strconv.Itoa(c.maxAgeDays))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build reputation request: %w", err)
	}
	req.Header.Set("Key", credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("reputation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, fmt.Errorf("failed to read reputation response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("reputation service returned status %d", resp.StatusCode)
	}

	var payload checkResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("failed to parse reputation response: %w", err)
	}
	if payload.Data.AbuseConfidenceScore == nil {
		return 0, fmt.Errorf("reputation response has no confidence score")
	}

	score := min(max(*payload.Data.AbuseConfidenceScore, 0), 100)
	log.Debug().Str("ip", address).Int("score", score).Msg("Reputation lookup")
	return score, nil
}
