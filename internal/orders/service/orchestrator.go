package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imamhossain-git/e-commerce/internal/orders/clients"
	"github.com/imamhossain-git/e-commerce/internal/orders/domain"
	"github.com/imamhossain-git/e-commerce/internal/orders/repository"
)

// CartClient is the cart snapshot provider. GetCart returns the session's
// current lines; ClearCart is the idempotent compensating action.
type CartClient interface {
	GetCart(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	ClearCart(ctx context.Context, sessionID string) (int, error)
}

// CatalogClient resolves current product pricing for re-validation.
type CatalogClient interface {
	GetProduct(ctx context.Context, productID int64) (*domain.ProductInfo, error)
}

// EventPublisher emits order lifecycle events. Implementations must be
// fire-and-forget; a publish failure never fails the operation.
type EventPublisher interface {
	OrderCreated(ctx context.Context, order *domain.Order)
	OrderStatusChanged(ctx context.Context, order *domain.Order)
}

// Orchestrator runs the order-creation saga: cart snapshot, re-pricing
// against the catalog, one atomic ledger commit, then a best-effort cart
// clear. events may be nil.
type Orchestrator struct {
	ledger      repository.OrderRepository
	cart        CartClient
	catalog     CatalogClient
	events      EventPublisher
	callTimeout time.Duration
	log         *slog.Logger
}

func NewOrchestrator(ledger repository.OrderRepository, cart CartClient, catalog CatalogClient, events EventPublisher, callTimeout time.Duration, log *slog.Logger) *Orchestrator {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &Orchestrator{
		ledger:      ledger,
		cart:        cart,
		catalog:     catalog,
		events:      events,
		callTimeout: callTimeout,
		log:         log,
	}
}

// CreateOrder turns the session's cart into a committed order.
//
// Failures before the commit leave no order state behind. After a successful
// commit the cart clear is best-effort: a stale cart is a UX defect, a failed
// purchase would be a correctness defect.
func (o *Orchestrator) CreateOrder(ctx context.Context, sessionID string) (*domain.Order, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	// a client disconnect must not tear down an in-flight ledger
	// transaction; the saga runs to completion either way
	ctx = context.WithoutCancel(ctx)

	fetchCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	lines, err := o.cart.GetCart(fetchCtx, sessionID)
	if err != nil {
		if errors.Is(err, clients.ErrSessionMissing) {
			return nil, ErrSessionRequired
		}
		return nil, &DependencyError{Backend: "cart", Err: err}
	}
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	items, total, err := o.priceLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		SessionID: sessionID,
		Total:     total,
		Status:    domain.OrderStatusPending,
		Items:     items,
	}

	commitCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	if err := o.ledger.CreateOrder(commitCtx, order); err != nil {
		return nil, &LedgerError{Err: err}
	}

	o.clearCart(ctx, order)

	if o.events != nil {
		o.events.OrderCreated(ctx, order)
	}

	o.log.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"session_id", sessionID,
		"total", order.Total,
		"item_count", len(order.Items),
	)
	return order, nil
}

// priceLines resolves every cart line concurrently and snapshots unit
// prices. The first failure cancels the remaining lookups and aborts the
// whole operation; no partial pricing ever reaches the ledger.
func (o *Orchestrator) priceLines(ctx context.Context, lines []domain.CartLine) ([]domain.OrderItem, float64, error) {
	g, gctx := errgroup.WithContext(ctx)
	items := make([]domain.OrderItem, len(lines))

	for i, line := range lines {
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gctx, o.callTimeout)
			defer cancel()

			product, err := o.catalog.GetProduct(lookupCtx, line.ProductID)
			if err != nil {
				if errors.Is(err, clients.ErrProductNotFound) {
					return &ProductUnavailableError{ProductID: line.ProductID}
				}
				return &DependencyError{Backend: "products", Err: err}
			}

			items[i] = domain.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return items, total, nil
}

// clearCart is the compensating action. Its failure is recorded, never
// surfaced: the committed order stands.
func (o *Orchestrator) clearCart(ctx context.Context, order *domain.Order) {
	clearCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	if _, err := o.cart.ClearCart(clearCtx, order.SessionID); err != nil {
		o.log.WarnContext(ctx, "failed to clear cart after order creation",
			"order_id", order.ID,
			"session_id", order.SessionID,
			"error", err,
		)
	}
}

// SetOrderStatus updates the status of an order owned by the session. Any
// status may follow any status; only enum membership is enforced.
func (o *Orchestrator) SetOrderStatus(ctx context.Context, orderID int64, sessionID, status string) (*domain.Order, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return nil, ErrInvalidStatus
	}

	opCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	order, err := o.ledger.UpdateStatus(opCtx, orderID, sessionID, parsed)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, &LedgerError{Err: err}
	}

	if o.events != nil {
		o.events.OrderStatusChanged(ctx, order)
	}
	return order, nil
}

func (o *Orchestrator) GetOrder(ctx context.Context, orderID int64, sessionID string) (*domain.Order, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	opCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	order, err := o.ledger.GetOrder(opCtx, orderID, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, &LedgerError{Err: err}
	}
	o.enrichItems(ctx, order)
	return order, nil
}

func (o *Orchestrator) ListOrders(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	opCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	orders, err := o.ledger.ListOrders(opCtx, sessionID)
	if err != nil {
		return nil, &LedgerError{Err: err}
	}
	o.enrichItems(ctx, orders...)
	return orders, nil
}

// enrichItems decorates order items with the current catalog name and image.
// Lookups are tolerant: a delisted product or a catalog outage yields a
// placeholder, never an error, so order history stays readable.
func (o *Orchestrator) enrichItems(ctx context.Context, orders ...*domain.Order) {
	var g errgroup.Group
	for _, order := range orders {
		for i := range order.Items {
			item := &order.Items[i]
			g.Go(func() error {
				lookupCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
				defer cancel()

				product, err := o.catalog.GetProduct(lookupCtx, item.ProductID)
				if err != nil {
					o.log.WarnContext(ctx, "product lookup failed for order item",
						"product_id", item.ProductID,
						"error", err,
					)
					item.ProductName = "Product not found"
					item.ProductImage = ""
					return nil
				}
				item.ProductName = product.Name
				item.ProductImage = product.ImageURL
				return nil
			})
		}
	}
	_ = g.Wait()
}
