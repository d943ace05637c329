package dsld

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
)

const (
	// DefaultTimeout bounds every call to the label database
	DefaultTimeout = 5 * time.Second

	maxBodyBytes = 4 << 20
	searchSize   = 10
)

// Client talks to the NIH Dietary Supplement Label Database API (v9)
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a new DSLD client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		timeout:    timeout,
		logger:     logger.With(zap.String("source", "dsld")),
	}
}

// Search runs a free-text label search.
// Zero hits is domain.ErrProductNotFound; every other failure is domain.ErrSourceUnavailable.
func (c *Client) Search(ctx context.Context, query string) ([]domain.DSLDSearchHit, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("size", fmt.Sprintf("%d", searchSize))

	var resp domain.DSLDSearchResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v9/search-filter?%s", c.baseURL, params.Encode()), &resp); err != nil {
		c.logger.Debug("search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	if len(resp.Hits) == 0 {
		return nil, domain.ErrProductNotFound
	}
	return resp.Hits, nil
}

// GetLabel fetches a full label by id
func (c *Client) GetLabel(ctx context.Context, id string) (*domain.DSLDLabel, error) {
	var label domain.DSLDLabel
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v9/label/%s", c.baseURL, url.PathEscape(id)), &label); err != nil {
		c.logger.Debug("label fetch failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if label.FullName == "" && len(label.IngredientRows) == 0 {
		return nil, domain.ErrProductNotFound
	}
	if label.ID == "" {
		label.ID = domain.FlexString(id)
	}
	return &label, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", domain.ErrSourceUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrProductNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrSourceUnavailable, err)
	}
	return nil
}
