package service

import (
	"context"
	"fmt"
	"strings"

	"nublack-orders/internal/connections/database"
	"nublack-orders/internal/orders/domain"
)

const defaultCancelReason = "cancelled by customer"

// SetStatus applies an operator-driven lifecycle change. The external
// vocabulary is translated first; known statuses must respect the state
// machine, unknown values are persisted as-is (permissive passthrough,
// kept from the original behavior). Repeating the current status is a
// no-op update, not an error.
func (s *OrderService) SetStatus(ctx context.Context, orderID int64, ext domain.ExternalStatus, reason string) (*domain.Order, error) {
	target, known := domain.ToInternal(ext)

	var updated *domain.Order
	err := s.db.WithinTx(ctx, func(ctx context.Context, q database.Querier) error {
		order, err := s.orders.GetByIDForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}

		if known && order.Status.Known() && target != order.Status && !order.Status.CanTransitionTo(target) {
			return &domain.InvalidTransitionError{From: order.Status, To: target}
		}
		if target == domain.StatusRejected && strings.TrimSpace(reason) == "" {
			return &domain.ValidationError{Message: "a reason is required to reject an order"}
		}

		if err := s.orders.UpdateStatus(ctx, q, orderID, target, reason); err != nil {
			return err
		}
		order.Status = target
		order.RejectionReason = reason
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusChanges.WithLabelValues(string(target)).Inc()
	s.lg.Info("order_status_changed", map[string]any{
		"order_id": orderID,
		"status":   string(target),
	})
	s.notifier.StatusChanged(ctx, updated)
	return updated, nil
}

// Cancel is only legal for the owner of a pending order. Inventory for
// every line is restored and the status flips to cancelled, all inside one
// transaction under the same order-row lock used by fulfilment.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID int64, reason string) error {
	if strings.TrimSpace(reason) == "" {
		reason = defaultCancelReason
	}

	var cancelled *domain.Order
	err := s.db.WithinTx(ctx, func(ctx context.Context, q database.Querier) error {
		order, err := s.orders.GetByIDForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		// Ownership failures look identical to missing orders on purpose.
		if order.UserID != userID {
			return domain.ErrOrderNotFound
		}
		if order.Status != domain.StatusPending {
			return &domain.InvalidTransitionError{From: order.Status, To: domain.StatusCancelled}
		}

		lines, err := s.orders.ListLines(ctx, q, orderID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			size := line.Size
			if size == domain.NoSize {
				size = ""
			}
			if err := s.ledger.Restore(ctx, q, line.ProductID, line.Quantity, size); err != nil {
				return fmt.Errorf("restore stock for product %d: %w", line.ProductID, err)
			}
		}

		if err := s.orders.UpdateStatus(ctx, q, orderID, domain.StatusCancelled, reason); err != nil {
			return err
		}
		order.Status = domain.StatusCancelled
		order.RejectionReason = reason
		order.Lines = lines
		cancelled = order
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.Cancelled.Inc()
	s.lg.Info("order_cancelled", map[string]any{
		"order_id": orderID,
		"user_id":  userID,
	})
	s.notifier.StatusChanged(ctx, cancelled)
	return nil
}
