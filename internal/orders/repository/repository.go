package repository

import (
	"context"
	"errors"

	"github.com/imamhossain-git/e-commerce/internal/orders/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository is the ledger: the one place order state is committed.
// CreateOrder applies the order row and all of its item rows atomically.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id int64, sessionID string) (*domain.Order, error)
	ListOrders(ctx context.Context, sessionID string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, sessionID string, status domain.OrderStatus) (*domain.Order, error)
	Close() error
}
