// Package explorer resolves wall-clock timestamps to block numbers via the
// Etherscan V2 API. Block-explorer lookups are rate limited to stay inside
// the free-tier quota.
package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.etherscan.io/v2/api"

// Config holds configuration for the explorer client.
type Config struct {
	// APIKey is the Etherscan API key. Required.
	APIKey string

	// ChainID scopes requests to a network on the V2 multi-chain API.
	ChainID uint64

	// BaseURL overrides the API endpoint. Defaults to the public V2 URL.
	BaseURL string

	// Timeout is the per-request HTTP timeout. Defaults to 30s.
	Timeout time.Duration

	// RateLimitPerSec caps outgoing requests. Defaults to 2.
	RateLimitPerSec int

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// Client queries the explorer API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates an explorer client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("explorer api key is required")
	}
	if cfg.ChainID == 0 {
		return nil, fmt.Errorf("explorer chain id is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimitPerSec == 0 {
		cfg.RateLimitPerSec = 2
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), 1),
	}, nil
}

type blockNoResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// BlockAtOrBefore returns the number of the nearest block mined at or
// before the given unix timestamp.
func (c *Client) BlockAtOrBefore(ctx context.Context, timestamp uint64) (uint64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	params := url.Values{
		"chainid":   {strconv.FormatUint(c.cfg.ChainID, 10)},
		"module":    {"block"},
		"action":    {"getblocknobytime"},
		"timestamp": {strconv.FormatUint(timestamp, 10)},
		"closest":   {"before"},
		"apikey":    {c.cfg.APIKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("explorer request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read explorer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("explorer status %d: %s", resp.StatusCode, body)
	}

	var parsed blockNoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("parse explorer response: %w", err)
	}
	if parsed.Status != "1" {
		return 0, fmt.Errorf("explorer error: %s (%s)", parsed.Message, parsed.Result)
	}

	block, err := strconv.ParseUint(parsed.Result, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse block number %q: %w", parsed.Result, err)
	}
	return block, nil
}
