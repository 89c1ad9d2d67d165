package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/imamhossain-git/e-commerce/internal/orders/domain"
)

// CatalogClient resolves product pricing from the catalog service.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *CatalogClient) GetProduct(ctx context.Context, productID int64) (*domain.ProductInfo, error) {
	url := fmt.Sprintf("%s/products/%d", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("catalog service returned %d", resp.StatusCode)
	}

	var body struct {
		ID            int64   `json:"id"`
		Name          string  `json:"name"`
		Price         float64 `json:"price"`
		ImageURL      string  `json:"image_url"`
		StockQuantity int     `json:"stock_quantity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}

	return &domain.ProductInfo{
		ID:        body.ID,
		Name:      body.Name,
		Price:     body.Price,
		ImageURL:  body.ImageURL,
		Available: body.StockQuantity > 0,
	}, nil
}
