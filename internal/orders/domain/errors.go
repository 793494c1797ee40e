package domain

import (
	"errors"
	"fmt"
)

// Error codes surfaced to API callers.
const (
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeValidation        = "VALIDATION_ERROR"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// Uniqueness violations surfaced by the order store under concurrent
	// retries. The orchestrator resolves them by re-fetching, they are
	// never shown to callers.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	ErrDuplicateOrderNumber    = errors.New("duplicate order number")
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

type InsufficientStockError struct {
	ProductID int64
	Size      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	if e.Size != "" {
		return fmt.Sprintf("insufficient stock for product %d size %s: available %d, requested %d",
			e.ProductID, e.Size, e.Available, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
