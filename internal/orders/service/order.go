package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nublack-orders/internal/catalog"
	"nublack-orders/internal/connections/database"
	"nublack-orders/internal/orders/domain"
)

// PlaceOrder converts a cart-like item list into a durable order. All
// validation and stock mutation happens inside one transaction; row locks
// taken during the validation pass are held until commit so two concurrent
// placements against the same product cannot both pass validation.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		existing, found, err := s.orders.FindByIdempotencyKey(ctx, s.db, userID, key)
		if err != nil {
			return domain.CreateOrderResponse{}, fmt.Errorf("idempotency lookup: %w", err)
		}
		if found {
			s.metrics.Placed.WithLabelValues("replayed").Inc()
			return replayResponse(existing), nil
		}
	}

	if err := validateRequest(req); err != nil {
		s.metrics.Rejected.WithLabelValues("validation").Inc()
		return domain.CreateOrderResponse{}, err
	}

	order := buildOrder(userID, key, req)

	var placed *domain.Order
	txErr := s.db.WithinTx(ctx, func(ctx context.Context, q database.Querier) error {
		lines := make([]domain.OrderLine, 0, len(req.Items))

		// Validation pass: lock and check every product before any mutation,
		// so a late failure never leaves partial decrements.
		for _, item := range req.Items {
			p, err := s.ledger.GetForUpdate(ctx, q, item.ProductID)
			if errors.Is(err, catalog.ErrProductNotFound) {
				return &domain.ProductNotFoundError{ProductID: item.ProductID}
			}
			if err != nil {
				return err
			}

			available := p.Available(item.Size)
			if available < item.Quantity {
				return &domain.InsufficientStockError{
					ProductID: item.ProductID,
					Size:      item.Size,
					Available: available,
					Requested: item.Quantity,
				}
			}

			lines = append(lines, buildLine(item, p))
		}

		if err := s.orders.Create(ctx, q, order, lines); err != nil {
			return err
		}

		// Reservation pass: every product passed validation and is still
		// locked, so these decrements cannot oversell.
		for _, item := range req.Items {
			if err := s.ledger.Reserve(ctx, q, item.ProductID, item.Quantity, item.Size); err != nil {
				return err
			}
		}

		placed = order
		return nil
	})

	if txErr != nil {
		return s.resolvePlacementError(ctx, userID, key, txErr)
	}

	s.metrics.Placed.WithLabelValues("created").Inc()
	s.lg.Info("order_placed", map[string]any{
		"order_number": placed.OrderNumber,
		"user_id":      userID,
		"items":        len(placed.Lines),
	})

	// Post-commit side effects are best effort: they never fail the order
	// and never roll it back.
	if err := s.carts.Clear(ctx, s.db, userID); err != nil {
		s.lg.Error("cart_clear_failed", err, map[string]any{"user_id": userID})
	}
	s.notifier.OrderConfirmed(ctx, placed)

	return domain.CreateOrderResponse{
		OrderNumber: placed.OrderNumber,
		Status:      domain.ToExternal(placed.Status),
	}, nil
}

// resolvePlacementError turns uniqueness races under concurrent identical
// retries into a success carrying the already-persisted order.
func (s *OrderService) resolvePlacementError(ctx context.Context, userID int64, key string, txErr error) (domain.CreateOrderResponse, error) {
	if key != "" && (errors.Is(txErr, domain.ErrDuplicateIdempotencyKey) || errors.Is(txErr, domain.ErrDuplicateOrderNumber)) {
		existing, found, err := s.orders.FindByIdempotencyKey(ctx, s.db, userID, key)
		if err == nil && found {
			s.metrics.Placed.WithLabelValues("replayed").Inc()
			return replayResponse(existing), nil
		}
	}

	var insufficient *domain.InsufficientStockError
	var notFound *domain.ProductNotFoundError
	switch {
	case errors.As(txErr, &insufficient):
		s.metrics.Rejected.WithLabelValues("insufficient_stock").Inc()
	case errors.As(txErr, &notFound):
		s.metrics.Rejected.WithLabelValues("product_not_found").Inc()
	}
	return domain.CreateOrderResponse{}, txErr
}

func replayResponse(existing *domain.Order) domain.CreateOrderResponse {
	return domain.CreateOrderResponse{
		OrderNumber:      existing.OrderNumber,
		Status:           domain.ToExternal(existing.Status),
		AlreadyProcessed: true,
	}
}

func validateRequest(req domain.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return &domain.ValidationError{Message: "at least one item is required"}
	}

	lineSum := decimal.Zero
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return &domain.ValidationError{Message: "item product id is required"}
		}
		if item.Quantity <= 0 {
			return &domain.ValidationError{Message: fmt.Sprintf("invalid quantity for product %d", item.ProductID)}
		}
		if item.UnitPrice.IsNegative() {
			return &domain.ValidationError{Message: fmt.Sprintf("invalid unit price for product %d", item.ProductID)}
		}
		lineSum = lineSum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if req.Totals.Subtotal.IsNegative() || req.Totals.Shipping.IsNegative() || req.Totals.Total.IsNegative() {
		return &domain.ValidationError{Message: "totals must be non-negative"}
	}
	if !req.Totals.Subtotal.Equal(lineSum) {
		return &domain.ValidationError{Message: "subtotal does not match the sum of line subtotals"}
	}
	if !req.Totals.Total.Equal(req.Totals.Subtotal.Add(req.Totals.Shipping)) {
		return &domain.ValidationError{Message: "total must equal subtotal plus shipping"}
	}
	return nil
}

func buildOrder(userID int64, key string, req domain.CreateOrderRequest) *domain.Order {
	return &domain.Order{
		OrderNumber:       newOrderNumber(),
		UserID:            userID,
		Status:            domain.StatusPending,
		CustomerName:      orDefault(req.PersonalInfo.Name, "Customer"),
		DocumentID:        orDefault(req.PersonalInfo.Document, "0000"),
		ContactPhone:      orDefault(req.PersonalInfo.Phone, "0000"),
		Email:             req.PersonalInfo.Email,
		ShippingAddress:   orDefault(req.DeliveryInfo.Address, "not specified"),
		AddressReference:  req.DeliveryInfo.Reference,
		DeliveryNotes:     req.DeliveryInfo.Notes,
		PreferredSchedule: req.DeliveryInfo.Schedule,
		PaymentMethod:     domain.NormalizePaymentMethod(req.PaymentInfo.Method),
		Subtotal:          req.Totals.Subtotal,
		Shipping:          req.Totals.Shipping,
		Total:             req.Totals.Total,
		IdempotencyKey:    key,
	}
}

// buildLine snapshots the item; request-supplied fields win so the order
// reflects what the customer saw, with the catalog record as fallback.
func buildLine(item domain.ItemInput, p *catalog.Product) domain.OrderLine {
	size := item.Size
	if size == "" {
		size = domain.NoSize
	}
	return domain.OrderLine{
		ProductID:          item.ProductID,
		ProductName:        orDefault(item.Name, p.Name),
		ProductDescription: orDefault(item.Description, p.Description),
		ProductImage:       orDefault(item.Image, p.Image),
		Quantity:           item.Quantity,
		Size:               size,
		UnitPrice:          item.UnitPrice,
		Subtotal:           item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}
}

// newOrderNumber is unique enough in practice; the order store's
// uniqueness constraint is the final arbiter.
func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%03d", time.Now().UnixMilli(), rand.IntN(1000))
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
