package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nublack-orders/internal/catalog"
	"nublack-orders/internal/orders/domain"
)

func seedPendingOrder(env *testEnv, userID int64, lines ...domain.OrderLine) *domain.Order {
	order := &domain.Order{
		OrderNumber: fmt.Sprintf("ORD-1700000000000-%03d", userID),
		UserID:      userID,
		Status:      domain.StatusPending,
		Subtotal:    money(200),
		Total:       money(200),
	}
	env.repo.seed(order, lines...)
	return order
}

func TestSetStatus_ApprovesPendingOrder(t *testing.T) {
	env := newTestEnv()
	order := seedPendingOrder(env, 7)

	updated, err := env.svc.SetStatus(context.Background(), order.ID, domain.ExternalApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, updated.Status)

	stored, err := env.repo.GetByIDForUpdate(context.Background(), env.db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, stored.Status)

	require.Len(t, env.notif.changes, 1)
	assert.Equal(t, order.OrderNumber, env.notif.changes[0].orderNumber)
	assert.Equal(t, domain.StatusAccepted, env.notif.changes[0].status)
}

func TestSetStatus_RejectsIllegalTransition(t *testing.T) {
	env := newTestEnv()
	order := seedPendingOrder(env, 7)
	require.NoError(t, env.repo.UpdateStatus(context.Background(), env.db, order.ID, domain.StatusDelivered, ""))

	_, err := env.svc.SetStatus(context.Background(), order.ID, domain.ExternalApproved, "")

	var transition *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, domain.StatusDelivered, transition.From)
	assert.Equal(t, domain.StatusAccepted, transition.To)
	assert.Empty(t, env.notif.changes)
}

func TestSetStatus_SameStatusIsNoOp(t *testing.T) {
	env := newTestEnv()
	order := seedPendingOrder(env, 7)

	updated, err := env.svc.SetStatus(context.Background(), order.ID, domain.ExternalPending, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, updated.Status)
}

func TestSetStatus_UnknownStatusPassesThrough(t *testing.T) {
	env := newTestEnv()
	order := seedPendingOrder(env, 7)

	updated, err := env.svc.SetStatus(context.Background(), order.ID, domain.ExternalStatus("on_hold"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.Status("on_hold"), updated.Status)
}

func TestSetStatus_RejectRequiresReason(t *testing.T) {
	env := newTestEnv()
	order := seedPendingOrder(env, 7)

	_, err := env.svc.SetStatus(context.Background(), order.ID, domain.ExternalRejected, "  ")
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)

	updated, err := env.svc.SetStatus(context.Background(), order.ID, domain.ExternalRejected, "address unreachable")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, updated.Status)
	assert.Equal(t, "address unreachable", updated.RejectionReason)
}

func TestSetStatus_OrderNotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.SetStatus(context.Background(), 404, domain.ExternalApproved, "")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestCancel_RestoresStockAndFlipsStatus(t *testing.T) {
	env := newTestEnv(sizedProduct(42, 3, catalog.SizeStock{"M": 3}))
	order := seedPendingOrder(env, 7, domain.OrderLine{
		ProductID: 42,
		Quantity:  2,
		Size:      "M",
		UnitPrice: money(100),
		Subtotal:  money(200),
	})

	require.NoError(t, env.svc.Cancel(context.Background(), order.ID, 7, ""))

	assert.Equal(t, 5, env.ledger.sizeStock(42, "M"))
	assert.Equal(t, 5, env.ledger.stock(42))

	stored, err := env.repo.GetByIDForUpdate(context.Background(), env.db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
	assert.Equal(t, defaultCancelReason, stored.RejectionReason)

	require.Len(t, env.notif.changes, 1)
	assert.Equal(t, domain.StatusCancelled, env.notif.changes[0].status)
}

func TestCancel_SizelessLineRestoresGlobalOnly(t *testing.T) {
	env := newTestEnv(&catalog.Product{ID: 9, Name: "Cap", Price: money(40), Stock: 1})
	order := seedPendingOrder(env, 7, domain.OrderLine{
		ProductID: 9,
		Quantity:  3,
		Size:      domain.NoSize,
		UnitPrice: money(40),
		Subtotal:  money(120),
	})

	require.NoError(t, env.svc.Cancel(context.Background(), order.ID, 7, "changed my mind"))
	assert.Equal(t, 4, env.ledger.stock(9))

	stored, err := env.repo.GetByIDForUpdate(context.Background(), env.db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed my mind", stored.RejectionReason)
}

func TestCancel_NonPendingOrderIsRefused(t *testing.T) {
	env := newTestEnv(sizedProduct(42, 3, catalog.SizeStock{"M": 3}))
	order := seedPendingOrder(env, 7, domain.OrderLine{ProductID: 42, Quantity: 2, Size: "M"})
	require.NoError(t, env.repo.UpdateStatus(context.Background(), env.db, order.ID, domain.StatusShipped, ""))

	err := env.svc.Cancel(context.Background(), order.ID, 7, "")

	var transition *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, domain.StatusShipped, transition.From)
	assert.Equal(t, 3, env.ledger.sizeStock(42, "M"), "no stock moved")
	assert.Empty(t, env.notif.changes)
}

func TestCancel_WrongOwnerLooksLikeMissingOrder(t *testing.T) {
	env := newTestEnv(sizedProduct(42, 3, catalog.SizeStock{"M": 3}))
	order := seedPendingOrder(env, 7, domain.OrderLine{ProductID: 42, Quantity: 2, Size: "M"})

	err := env.svc.Cancel(context.Background(), order.ID, 8, "")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Equal(t, 3, env.ledger.sizeStock(42, "M"))
}

func TestListByUser_ReturnsOnlyOwnOrders(t *testing.T) {
	env := newTestEnv()
	mine := seedPendingOrder(env, 7)
	seedPendingOrder(env, 8)

	orders, err := env.svc.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.OrderNumber, orders[0].OrderNumber)

	all, err := env.svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
