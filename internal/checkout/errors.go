package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest         = errors.New("invalid checkout request")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrProductNotFound        = errors.New("product not found")
	ErrProductUnavailable     = errors.New("product is no longer available")
	ErrConcurrentSale         = errors.New("product was sold to another buyer")
	ErrStorage                = errors.New("storage failure")
	ErrReconciliationRequired = errors.New("checkout requires manual reconciliation")
)

// ProductNotFoundError reports a cart line whose product no longer exists.
type ProductNotFoundError struct {
	ProductID int
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool { return target == ErrProductNotFound }

// ProductUnavailableError reports a product that was not available when the
// cart was validated. Nothing was mutated.
type ProductUnavailableError struct {
	ProductID int
	Title     string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %q is no longer available", e.Title)
}

func (e *ProductUnavailableError) Is(target error) bool { return target == ErrProductUnavailable }

// ConflictError means another checkout sold the product between validation
// and the status change. The checkout was fully undone and may be retried.
type ConflictError struct {
	ProductID int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("product %d was sold to another buyer", e.ProductID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConcurrentSale }

// StorageError wraps a store failure. RolledBack is true when no effect of the
// checkout remains visible.
type StorageError struct {
	Op         string
	Err        error
	RolledBack bool
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("checkout %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// ReconciliationError means the checkout stopped half-way and could not be
// undone or completed automatically. OrderID is set when the order exists;
// ProductIDs lists products left sold without an order.
type ReconciliationError struct {
	OrderID    string
	ProductIDs []int
	Op         string
	Err        error
}

func (e *ReconciliationError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("order %s: %s failed: %v", e.OrderID, e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed for products %v: %v", e.Op, e.ProductIDs, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

func (e *ReconciliationError) Is(target error) bool { return target == ErrReconciliationRequired }

// Retryable reports whether the client can safely repeat the checkout.
func Retryable(err error) bool {
	if errors.Is(err, ErrConcurrentSale) {
		return true
	}
	var se *StorageError
	return errors.As(err, &se) && se.RolledBack
}
