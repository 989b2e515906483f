// Package opendota implements the upstream match-data provider against the
// OpenDota API.
package opendota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"dotasync/internal/domain"
)

// DefaultBaseURL is the public OpenDota API endpoint.
const DefaultBaseURL = "https://api.opendota.com/api"

// Config holds OpenDota client configuration.
type Config struct {
	BaseURL string
	APIKey  string // empty for free-tier (keyless) operation
	// RateLimitRPS paces outgoing calls; the free tier allows roughly one
	// call per second sustained. Zero defaults to 1.
	RateLimitRPS float64
	Timeout      time.Duration
}

// Client calls the OpenDota API, pacing requests through a token bucket and
// appending a usage ledger entry for every call it makes, successful or not.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	ledger  domain.APICallRepository
	logger  *slog.Logger
}

var _ domain.MatchProvider = (*Client)(nil)

// NewClient creates an OpenDota client that records its calls in the ledger.
func NewClient(cfg Config, ledger domain.APICallRepository, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
		ledger:  ledger,
		logger:  logger,
	}
}

// HasAPIKey reports whether a metered key is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// matchHistoryRow mirrors one element of /players/{id}/matches.
type matchHistoryRow struct {
	MatchID   int64 `json:"match_id"`
	StartTime int64 `json:"start_time"`
}

// GetMatchHistory returns one page of a player's match history, newest first.
func (c *Client) GetMatchHistory(ctx context.Context, accountID int64, limit, offset int) ([]domain.MatchSummary, error) {
	endpoint := fmt.Sprintf("/players/%d/matches", accountID)
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var rows []matchHistoryRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode match history: %w", err)
	}

	matches := make([]domain.MatchSummary, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, domain.MatchSummary{
			MatchID:   row.MatchID,
			StartTime: time.Unix(row.StartTime, 0).UTC(),
		})
	}
	return matches, nil
}

// GetMatchDetails returns the raw detail payload for one match.
func (c *Client) GetMatchDetails(ctx context.Context, matchID int64) (*domain.MatchDetails, error) {
	endpoint := fmt.Sprintf("/matches/%d", matchID)

	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		MatchID   int64 `json:"match_id"`
		StartTime int64 `json:"start_time"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode match details: %w", err)
	}

	return &domain.MatchDetails{
		MatchID:   matchID,
		StartTime: time.Unix(payload.StartTime, 0).UTC(),
		RawJSON:   string(body),
	}, nil
}

// get performs one paced GET against the API, records a ledger entry for
// the call, and classifies failures into the transient/fatal taxonomy.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, endpoint, 0)
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// Network errors and client timeouts are retryable.
		return nil, &domain.UpstreamTransientError{
			Provider: domain.ProviderOpenDota,
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	c.record(ctx, endpoint, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &domain.UpstreamTransientError{
				Provider:   domain.ProviderOpenDota,
				StatusCode: resp.StatusCode,
				Message:    msg,
			}
		}
		return nil, &domain.UpstreamFatalError{
			Provider:   domain.ProviderOpenDota,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// record appends a usage ledger entry. Accounting must survive even when
// the call itself failed, so a ledger write error is logged, not returned.
func (c *Client) record(ctx context.Context, endpoint string, statusCode int) {
	cost := 0.0
	if c.apiKey != "" {
		cost = domain.CostPerKeyedCall
	}
	call := &domain.APICall{
		Provider:   domain.ProviderOpenDota,
		Endpoint:   endpoint,
		UsedAPIKey: c.apiKey != "",
		Cost:       cost,
		StatusCode: statusCode,
		Succeeded:  statusCode >= 200 && statusCode < 300,
	}
	if err := c.ledger.Insert(context.WithoutCancel(ctx), call); err != nil {
		c.logger.Warn("ledger insert failed", "endpoint", endpoint, "error", err)
	}
}
