package service

import (
	"context"

	"nublack-orders/internal/common/logger"
	"nublack-orders/internal/connections/database"
	"nublack-orders/internal/metrics"
	"nublack-orders/internal/notifier"
	"nublack-orders/internal/orders/domain"
	"nublack-orders/internal/orders/repository"

	"nublack-orders/internal/catalog"
)

type OrderServiceInterface interface {
	PlaceOrder(ctx context.Context, userID int64, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	SetStatus(ctx context.Context, orderID int64, status domain.ExternalStatus, reason string) (*domain.Order, error)
	Cancel(ctx context.Context, orderID, userID int64, reason string) error
}

// CartClearer is the cart collaborator: invoked post-commit, failure ignored.
type CartClearer interface {
	Clear(ctx context.Context, q database.Querier, userID int64) error
}

type OrderService struct {
	db       database.TxRunner
	orders   repository.OrderRepositoryInterface
	ledger   catalog.Ledger
	carts    CartClearer
	notifier notifier.Notifier
	metrics  *metrics.OrderMetrics
	lg       *logger.Logger
}

func New(
	db database.TxRunner,
	orders repository.OrderRepositoryInterface,
	ledger catalog.Ledger,
	carts CartClearer,
	n notifier.Notifier,
	m *metrics.OrderMetrics,
	lg *logger.Logger,
) *OrderService {
	return &OrderService{
		db:       db,
		orders:   orders,
		ledger:   ledger,
		carts:    carts,
		notifier: n,
		metrics:  m,
		lg:       lg,
	}
}

func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, s.db, userID)
}

func (s *OrderService) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListAll(ctx, s.db)
}
