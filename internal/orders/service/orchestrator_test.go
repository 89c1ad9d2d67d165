package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamhossain-git/e-commerce/internal/orders/domain"
	"github.com/imamhossain-git/e-commerce/internal/orders/repository"
)

func newTestOrchestrator(ledger *fakeLedger, cart *fakeCart, catalog *fakeCatalog, events EventPublisher) *Orchestrator {
	return NewOrchestrator(ledger, cart, catalog, events, 5*time.Second, slog.Default())
}

func TestCreateOrder_Success(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{
		{ProductID: 42, Quantity: 2},
		{ProductID: 7, Quantity: 1},
	}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Name: "Keyboard", Price: 10.00, Available: true},
		7:  {ID: 7, Name: "Mouse Pad", Price: 5.00, Available: true},
	}}
	events := &fakeEvents{}
	orch := newTestOrchestrator(ledger, cart, catalog, events)

	order, err := orch.CreateOrder(context.Background(), "S1")
	require.NoError(t, err)

	assert.Equal(t, 25.00, order.Total)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(42), order.Items[0].ProductID)
	assert.Equal(t, 10.00, order.Items[0].Price)
	assert.Equal(t, int64(7), order.Items[1].ProductID)
	assert.Equal(t, 5.00, order.Items[1].Price)

	// cart was cleared after the commit
	assert.Equal(t, 1, cart.cleared)
	lines, _ := cart.GetCart(context.Background(), "S1")
	assert.Empty(t, lines)

	assert.Equal(t, []int64{order.ID}, events.created)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{}
	orch := newTestOrchestrator(ledger, cart, &fakeCatalog{}, nil)

	_, err := orch.CreateOrder(context.Background(), "S1")
	assert.ErrorIs(t, err, ErrCartEmpty)
	assert.Empty(t, ledger.orders)
	assert.Zero(t, cart.cleared)
}

func TestCreateOrder_MissingSession(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{}, &fakeCart{}, &fakeCatalog{}, nil)

	_, err := orch.CreateOrder(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestCreateOrder_UnknownProductFailsFast(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{
		{ProductID: 42, Quantity: 2},
		{ProductID: 999, Quantity: 1}, // not in catalog
	}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Price: 10.00},
	}}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	_, err := orch.CreateOrder(context.Background(), "S1")

	var productErr *ProductUnavailableError
	require.ErrorAs(t, err, &productErr)
	assert.Equal(t, int64(999), productErr.ProductID)

	// no order committed, cart untouched
	assert.Empty(t, ledger.orders)
	assert.Zero(t, cart.cleared)
}

func TestCreateOrder_CatalogTimeoutIsDependencyError(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{
		{ProductID: 42, Quantity: 2},
		{ProductID: 7, Quantity: 1},
	}}
	catalog := &fakeCatalog{
		products: map[int64]*domain.ProductInfo{42: {ID: 42, Price: 10.00}},
		errs:     map[int64]error{7: context.DeadlineExceeded},
	}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	_, err := orch.CreateOrder(context.Background(), "S1")

	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "products", depErr.Backend)
	assert.Empty(t, ledger.orders)
}

func TestCreateOrder_CartUnreachable(t *testing.T) {
	cart := &fakeCart{getErr: errors.New("connection refused")}
	orch := newTestOrchestrator(&fakeLedger{}, cart, &fakeCatalog{}, nil)

	_, err := orch.CreateOrder(context.Background(), "S1")

	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "cart", depErr.Backend)
}

func TestCreateOrder_LedgerFailureRollsBack(t *testing.T) {
	ledger := &fakeLedger{failErr: errors.New("deadlock detected")}
	cart := &fakeCart{lines: []domain.CartLine{{ProductID: 42, Quantity: 1}}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Price: 10.00},
	}}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	_, err := orch.CreateOrder(context.Background(), "S1")

	var ledgerErr *LedgerError
	require.ErrorAs(t, err, &ledgerErr)
	// commit failed: the cart must not be cleared
	assert.Zero(t, cart.cleared)
	assert.Empty(t, ledger.orders)
}

func TestCreateOrder_ClearFailureDoesNotFailOrder(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{
		lines:    []domain.CartLine{{ProductID: 42, Quantity: 1}},
		clearErr: errors.New("cart service down"),
	}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Price: 10.00},
	}}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	order, err := orch.CreateOrder(context.Background(), "S1")
	require.NoError(t, err)
	assert.NotZero(t, order.ID)

	// the clear was attempted, its failure swallowed; order stands
	assert.Equal(t, 1, cart.cleared)
	stored, err := ledger.GetOrder(context.Background(), order.ID, "S1")
	require.NoError(t, err)
	assert.Equal(t, order.Total, stored.Total)
}

func TestCreateOrder_PriceSnapshotIsolation(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{{ProductID: 42, Quantity: 2}}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Price: 10.00},
	}}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	order, err := orch.CreateOrder(context.Background(), "S1")
	require.NoError(t, err)
	require.Equal(t, 20.00, order.Total)

	// raise the catalog price after the commit
	catalog.mu.Lock()
	catalog.products[42] = &domain.ProductInfo{ID: 42, Price: 99.99}
	catalog.mu.Unlock()

	stored, err := orch.GetOrder(context.Background(), order.ID, "S1")
	require.NoError(t, err)
	assert.Equal(t, 10.00, stored.Items[0].Price)
	assert.Equal(t, 20.00, stored.Total)
}

func TestCreateOrder_SurvivesClientDisconnect(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{{ProductID: 42, Quantity: 1}}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Price: 10.00},
	}}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // client already gone

	order, err := orch.CreateOrder(ctx, "S1")
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}

func TestSetOrderStatus(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{{ProductID: 42, Quantity: 1}}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Price: 10.00},
	}}
	events := &fakeEvents{}
	orch := newTestOrchestrator(ledger, cart, catalog, events)

	order, err := orch.CreateOrder(context.Background(), "S1")
	require.NoError(t, err)

	updated, err := orch.SetOrderStatus(context.Background(), order.ID, "S1", "shipped")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)
	assert.Equal(t, []int64{order.ID}, events.changed)

	// any status may follow any status
	updated, err = orch.SetOrderStatus(context.Background(), order.ID, "S1", "pending")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, updated.Status)
}

func TestSetOrderStatus_InvalidStatus(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{}, &fakeCart{}, &fakeCatalog{}, nil)

	_, err := orch.SetOrderStatus(context.Background(), 1, "S1", "teleported")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetOrderStatus_WrongSession(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{{ProductID: 42, Quantity: 1}}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Price: 10.00},
	}}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	order, err := orch.CreateOrder(context.Background(), "S1")
	require.NoError(t, err)

	_, err = orch.SetOrderStatus(context.Background(), order.ID, "S2", "shipped")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestGetOrder_NotFound(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{}, &fakeCart{}, &fakeCatalog{}, nil)

	_, err := orch.GetOrder(context.Background(), 12345, "S1")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestCreateOrder_AllLinesLookedUp(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 2},
		{ProductID: 3, Quantity: 3},
	}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		1: {ID: 1, Price: 1.00},
		2: {ID: 2, Price: 2.00},
		3: {ID: 3, Price: 3.00},
	}}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	order, err := orch.CreateOrder(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.calls)
	assert.Equal(t, 14.00, order.Total) // 1 + 4 + 9

	// item order matches the cart snapshot despite concurrent lookups
	require.Len(t, order.Items, 3)
	for i, want := range []int64{1, 2, 3} {
		assert.Equal(t, want, order.Items[i].ProductID)
	}
}

func TestGetOrder_EnrichesItemsFromCatalog(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{{ProductID: 42, Quantity: 1}}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Name: "Keyboard", Price: 10.00, ImageURL: "/img/keyboard.png", Available: true},
	}}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	created, err := orch.CreateOrder(context.Background(), "S1")
	require.NoError(t, err)

	order, err := orch.GetOrder(context.Background(), created.ID, "S1")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Keyboard", order.Items[0].ProductName)
	assert.Equal(t, "/img/keyboard.png", order.Items[0].ProductImage)
}

func TestGetOrder_DelistedProductGetsPlaceholder(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{{ProductID: 42, Quantity: 1}}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Name: "Keyboard", Price: 10.00, Available: true},
	}}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	created, err := orch.CreateOrder(context.Background(), "S1")
	require.NoError(t, err)

	// the product disappears from the catalog after the sale
	catalog.mu.Lock()
	delete(catalog.products, 42)
	catalog.mu.Unlock()

	order, err := orch.GetOrder(context.Background(), created.ID, "S1")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Product not found", order.Items[0].ProductName)
	assert.Empty(t, order.Items[0].ProductImage)
	// the committed price snapshot is untouched
	assert.Equal(t, 10.00, order.Items[0].Price)
}

func TestListOrders_CatalogOutageDoesNotFailReads(t *testing.T) {
	ledger := &fakeLedger{}
	cart := &fakeCart{lines: []domain.CartLine{
		{ProductID: 42, Quantity: 1},
		{ProductID: 7, Quantity: 2},
	}}
	catalog := &fakeCatalog{products: map[int64]*domain.ProductInfo{
		42: {ID: 42, Name: "Keyboard", Price: 10.00, ImageURL: "/img/keyboard.png", Available: true},
		7:  {ID: 7, Name: "Mouse Pad", Price: 5.00, Available: true},
	}}
	orch := newTestOrchestrator(ledger, cart, catalog, nil)

	_, err := orch.CreateOrder(context.Background(), "S1")
	require.NoError(t, err)

	// one product's lookups start failing after the commit
	catalog.mu.Lock()
	catalog.errs = map[int64]error{7: errors.New("connection refused")}
	catalog.mu.Unlock()

	orders, err := orch.ListOrders(context.Background(), "S1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 2)

	byProduct := map[int64]domain.OrderItem{}
	for _, item := range orders[0].Items {
		byProduct[item.ProductID] = item
	}
	assert.Equal(t, "Keyboard", byProduct[42].ProductName)
	assert.Equal(t, "/img/keyboard.png", byProduct[42].ProductImage)
	assert.Equal(t, "Product not found", byProduct[7].ProductName)
	assert.Empty(t, byProduct[7].ProductImage)
}
