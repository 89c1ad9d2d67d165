package service

import (
	"context"
	"sync"
	"time"

	"github.com/imamhossain-git/e-commerce/internal/orders/clients"
	"github.com/imamhossain-git/e-commerce/internal/orders/domain"
	"github.com/imamhossain-git/e-commerce/internal/orders/repository"
)

// fakeLedger implements repository.OrderRepository in memory.
type fakeLedger struct {
	mu      sync.Mutex
	nextID  int64
	orders  []*domain.Order
	failErr error // returned by CreateOrder when set
}

func (f *fakeLedger) CreateOrder(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	f.orders = append(f.orders, &stored)
	return nil
}

func (f *fakeLedger) GetOrder(_ context.Context, id int64, sessionID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id && o.SessionID == sessionID {
			return o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (f *fakeLedger) ListOrders(_ context.Context, sessionID string) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Order
	for _, o := range f.orders {
		if o.SessionID == sessionID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeLedger) UpdateStatus(_ context.Context, id int64, sessionID string, status domain.OrderStatus) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id && o.SessionID == sessionID {
			o.Status = status
			o.UpdatedAt = time.Now()
			return o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (f *fakeLedger) Close() error { return nil }

// fakeCart implements CartClient.
type fakeCart struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	getErr   error
	clearErr error
	cleared  int // times ClearCart was called
}

func (f *fakeCart) GetCart(_ context.Context, _ string) ([]domain.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.lines, nil
}

func (f *fakeCart) ClearCart(_ context.Context, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	if f.clearErr != nil {
		return 0, f.clearErr
	}
	removed := len(f.lines)
	f.lines = nil
	return removed, nil
}

// fakeCatalog implements CatalogClient with per-product prices and errors.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[int64]*domain.ProductInfo
	errs     map[int64]error // per-product lookup failure
	calls    int
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int64) (*domain.ProductInfo, error) {
	f.mu.Lock()
	f.calls++
	err := f.errs[id]
	p := f.products[id]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, clients.ErrProductNotFound
	}
	return p, nil
}

// fakeEvents records published events.
type fakeEvents struct {
	mu      sync.Mutex
	created []int64
	changed []int64
}

func (f *fakeEvents) OrderCreated(_ context.Context, order *domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, order.ID)
}

func (f *fakeEvents) OrderStatusChanged(_ context.Context, order *domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, order.ID)
}
