// Package clients holds the HTTP clients the order service uses to talk to
// its collaborators (cart and catalog services).
package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/imamhossain-git/e-commerce/internal/orders/domain"
	"github.com/imamhossain-git/e-commerce/internal/session"
)

var (
	// ErrSessionMissing means the collaborator rejected the session identity.
	ErrSessionMissing = errors.New("session missing or invalid")
	// ErrProductNotFound means the catalog does not know the product id.
	ErrProductNotFound = errors.New("product not found")
)

// CartClient reads and clears cart snapshots over the cart service HTTP API.
type CartClient struct {
	baseURL string
	client  *http.Client
}

func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	return &CartClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetCart returns the current lines for the session. An empty cart is an
// empty slice, not an error.
func (c *CartClient) GetCart(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cart", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(session.Header, sessionID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrSessionMissing
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("cart service returned %d", resp.StatusCode)
	}

	var lines []domain.CartLine
	if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
		return nil, fmt.Errorf("decode cart response: %w", err)
	}
	return lines, nil
}

// ClearCart removes every line for the session and reports how many were
// removed. Clearing an already-empty cart succeeds with 0.
func (c *CartClient) ClearCart(ctx context.Context, sessionID string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/cart", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set(session.Header, sessionID)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("cart service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("cart service returned %d", resp.StatusCode)
	}

	var body struct {
		ItemsRemoved int `json:"items_removed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode clear response: %w", err)
	}
	return body.ItemsRemoved, nil
}
