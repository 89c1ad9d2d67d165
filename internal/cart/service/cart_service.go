package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/imamhossain-git/e-commerce/internal/cart/cache"
	"github.com/imamhossain-git/e-commerce/internal/cart/domain"
	"github.com/imamhossain-git/e-commerce/internal/cart/repository"
)

var (
	ErrUnknownProduct  = errors.New("unknown product")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrItemNotFound    = repository.ErrItemNotFound
)

// ProductCatalog is the slice of the catalog the cart needs: existence checks
// before an add, detail lookups when lines are read back for display.
type ProductCatalog interface {
	ProductExists(ctx context.Context, productID int64) (bool, error)
	GetProduct(ctx context.Context, productID int64) (*domain.ProductDetails, error)
}

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog ProductCatalog
	sfg     singleflight.Group // Prevents cache stampede
	log     *slog.Logger
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog ProductCatalog, log *slog.Logger) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		log:     log,
	}
}

// GetCart reads through the cache. A session without a cart gets an empty
// cart, never an error.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get error", "error", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, sessionID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return &domain.Cart{
				SessionID: sessionID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// fill the cache off the request path
		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, sessionID, cart); errSet != nil {
				s.log.Warn("cache set error", "error", errSet)
			}
		}()

		return cart, nil // cart was not in cache, return it from repo
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// DescribeLines resolves catalog details for a set of cart lines, one lookup
// per line, concurrently. Lookups are tolerant: a delisted product or a
// catalog outage yields a placeholder so the cart stays readable.
func (s *CartService) DescribeLines(ctx context.Context, items []domain.CartItem) map[int64]domain.ProductDetails {
	details := make([]domain.ProductDetails, len(items))

	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			d, err := s.catalog.GetProduct(ctx, item.ProductID)
			if err != nil {
				s.log.WarnContext(ctx, "product lookup failed for cart line",
					"product_id", item.ProductID,
					"error", err,
				)
				details[i] = domain.ProductDetails{Name: "Product not found"}
				return nil
			}
			details[i] = *d
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[int64]domain.ProductDetails, len(items))
	for i, item := range items {
		out[item.ProductID] = details[i]
	}
	return out
}

// AddItem validates the product against the catalog before touching storage.
func (s *CartService) AddItem(ctx context.Context, sessionID string, productID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	exists, err := s.catalog.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUnknownProduct
	}

	item := domain.CartItem{ProductID: productID, Quantity: quantity}
	if errAdd := s.repo.AddItem(ctx, sessionID, item); errAdd != nil {
		s.log.ErrorContext(ctx, "repo add item error", "error", errAdd)
		return errAdd
	}

	s.invalidateCache(sessionID)
	return nil
}

// UpdateQuantity sets the line quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, productID)
	}

	if errUpdate := s.repo.UpdateItemQuantity(ctx, sessionID, productID, quantity); errUpdate != nil {
		if errors.Is(errUpdate, repository.ErrItemNotFound) {
			return ErrItemNotFound
		}
		s.log.ErrorContext(ctx, "repo update item quantity error", "error", errUpdate)
		return errUpdate
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID int64) error {
	if errRemove := s.repo.RemoveItem(ctx, sessionID, productID); errRemove != nil {
		if errors.Is(errRemove, repository.ErrItemNotFound) {
			return ErrItemNotFound
		}
		s.log.ErrorContext(ctx, "repo remove item error", "error", errRemove)
		return errRemove
	}

	s.invalidateCache(sessionID)
	return nil
}

// ClearCart is idempotent: clearing a session without a cart reports zero
// removed lines, never an error.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) (int, error) {
	removed, err := s.repo.ClearCart(ctx, sessionID)
	if err != nil {
		s.log.ErrorContext(ctx, "repo clear cart error", "error", err)
		return 0, err
	}

	s.invalidateCache(sessionID)
	return removed, nil
}

func (s *CartService) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.Warn("cache invalidate error", "error", err)
	}
}
