package usda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/macrolens/tracker/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds every call to the USDA API
	DefaultTimeout = 5 * time.Second

	maxBodyBytes = 4 << 20
	pageSize     = 10
)

// Client handles communication with the USDA FoodData Central API.
// It never retries: a failed call degrades to "no contribution".
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new USDA API client
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// USDA allows 1000 requests per hour
	// rate.Limit is requests per second, so 1000/3600 ≈ 0.278 requests/sec
	limiter := rate.NewLimiter(rate.Limit(0.278), 10) // burst of 10 requests

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		timeout:     timeout,
		rateLimiter: limiter,
		logger:      logger.With(zap.String("source", "usda")),
	}
}

// SearchFoods searches for foods in the USDA database by free text or GTIN/UPC.
// Returns domain.ErrProductNotFound when the search succeeds with zero hits and
// domain.ErrUSDAAPIFailure for throttling, transport, status or decode failures.
func (c *Client) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	if !c.rateLimiter.Allow() {
		c.logger.Warn("local quota exhausted, skipping search", zap.String("query", query))
		return nil, fmt.Errorf("%w: local quota exhausted", domain.ErrUSDAAPIFailure)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1/foods/search", c.baseURL)
	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", c.apiKey)
	params.Add("dataType", "Branded,Foundation,Survey (FNDDS),SR Legacy")
	params.Add("pageSize", fmt.Sprintf("%d", pageSize))

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		c.logger.Debug("request failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUSDAAPIFailure, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("unexpected status", zap.Int("status", resp.StatusCode), zap.String("query", query))
		return nil, fmt.Errorf("%w: status %d", domain.ErrUSDAAPIFailure, resp.StatusCode)
	}

	var searchResp domain.USDASearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUSDAAPIFailure, err)
	}

	if len(searchResp.Foods) == 0 {
		c.logger.Debug("no foods found", zap.String("query", query))
		return nil, domain.ErrProductNotFound
	}

	c.logger.Debug("search complete", zap.String("query", query), zap.Int("foods", len(searchResp.Foods)))
	return &searchResp, nil
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrUSDAAPIFailure, err)
	}
	req.Header.Set("User-Agent", "MacroLens/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUSDAAPIFailure, err)
	}

	return resp, nil
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
