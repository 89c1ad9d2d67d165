package service

import (
	"errors"
	"fmt"
)

var (
	ErrCartEmpty       = errors.New("cart is empty")
	ErrSessionRequired = errors.New("session ID required")
	ErrInvalidStatus   = errors.New("invalid order status")
)

// ProductUnavailableError aborts order creation before anything is committed:
// a cart line references a product the catalog does not know.
type ProductUnavailableError struct {
	ProductID int64
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %d not found or unavailable", e.ProductID)
}

// DependencyError wraps a collaborator being unreachable or timing out.
// Safe for the client to retry.
type DependencyError struct {
	Backend string
	Err     error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s service unavailable: %v", e.Backend, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// LedgerError wraps a failed ledger transaction. The order is guaranteed not
// to exist when this is returned.
type LedgerError struct {
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger transaction failed: %v", e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }
