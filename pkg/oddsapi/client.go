package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/celebrum-odds/internal/config"
	"github.com/irfndi/celebrum-odds/internal/telemetry"
)

// Client represents the odds provider HTTP client
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	apiKey     string
	regions    string
	markets    []string

	mu    sync.RWMutex
	quota Quota
}

// NewClient creates a new odds provider client instance
func NewClient(cfg *config.OddsAPIConfig) *Client {
	regions := cfg.Regions
	if regions == "" {
		regions = "us"
	}
	markets := cfg.Markets
	if len(markets) == 0 {
		markets = []string{"h2h", "spreads", "totals"}
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		BaseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		regions: regions,
		markets: markets,
	}
}

// GetSports lists the sports the provider currently covers
func (c *Client) GetSports(ctx context.Context) ([]Sport, error) {
	var sports []Sport
	if err := c.makeRequest(ctx, "/sports/", url.Values{}, &sports); err != nil {
		return nil, err
	}
	return sports, nil
}

// GetOdds retrieves decimal prices for every upcoming event of a sport
func (c *Client) GetOdds(ctx context.Context, sportKey string) ([]Event, error) {
	params := url.Values{}
	params.Set("regions", c.regions)
	params.Set("markets", strings.Join(c.markets, ","))
	params.Set("oddsFormat", "decimal")

	var events []Event
	path := fmt.Sprintf("/sports/%s/odds", url.PathEscape(sportKey))
	if err := c.makeRequest(ctx, path, params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Quota returns the usage reported by the most recent response
func (c *Client) Quota() Quota {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.quota
}

// makeRequest is a helper method to make GET requests to the provider
func (c *Client) makeRequest(ctx context.Context, path string, params url.Values, result interface{}) (err error) {
	ctx, span := telemetry.GetExternalTracer().Start(ctx, "oddsapi.GET "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	params.Set("apiKey", c.apiKey)
	endpoint := c.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Celebrum-Odds/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Error closing odds provider response body")
		}
	}()

	c.recordQuota(resp.Header)
	span.SetAttributes(telemetry.Int64Attribute("http.status_code", int64(resp.StatusCode)))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errorResp.Message}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

func (c *Client) recordQuota(h http.Header) {
	remaining, errRemaining := strconv.Atoi(h.Get("x-requests-remaining"))
	used, errUsed := strconv.Atoi(h.Get("x-requests-used"))
	if errRemaining != nil && errUsed != nil {
		return
	}
	last, _ := strconv.Atoi(h.Get("x-requests-last"))

	c.mu.Lock()
	c.quota = Quota{Remaining: remaining, Used: used, Last: last}
	c.mu.Unlock()
}

// APIError is returned for non-2xx provider responses
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("odds api error (%d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether the failure is worth retrying
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Close closes the HTTP client (if needed for cleanup)
func (c *Client) Close() error {
	c.HTTPClient.CloseIdleConnections()
	return nil
}
