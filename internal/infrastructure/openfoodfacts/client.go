package openfoodfacts

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
	// DefaultTimeout bounds every product lookup
	DefaultTimeout = 5 * time.Second

	maxBodyBytes = 2 << 20
)

// Client looks up consumer products by barcode in OpenFoodFacts
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a new OpenFoodFacts client
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = "MacroLens/1.0"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
		timeout:    timeout,
		logger:     logger.With(zap.String("source", "openfoodfacts")),
	}
}

// GetProduct fetches a product by barcode.
// It separates "the API answered but has no such product" (domain.ErrProductNotFound)
// from transport, status and decode failures (domain.ErrSourceUnavailable).
func (c *Client) GetProduct(ctx context.Context, barcode string) (*domain.OFFProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("barcode", barcode), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrSourceUnavailable, err)
	}

	// v2 answers 404 with a JSON body for unknown barcodes
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		c.logger.Debug("unexpected status", zap.Int("status", resp.StatusCode), zap.String("barcode", barcode))
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var envelope domain.OFFResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrSourceUnavailable, err)
	}

	if envelope.Status != 1 || envelope.Product == nil {
		c.logger.Debug("product not found", zap.String("barcode", barcode), zap.String("status", envelope.StatusVerbose))
		return nil, domain.ErrProductNotFound
	}

	if envelope.Product.Code == "" {
		envelope.Product.Code = barcode
	}
	return envelope.Product, nil
}
