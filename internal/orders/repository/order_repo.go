package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"nublack-orders/internal/connections/database"
	"nublack-orders/internal/orders/domain"
)

type OrderRepositoryInterface interface {
	FindByIdempotencyKey(ctx context.Context, q database.Querier, userID int64, key string) (*domain.Order, bool, error)
	Create(ctx context.Context, q database.Querier, order *domain.Order, lines []domain.OrderLine) error
	GetByIDForUpdate(ctx context.Context, q database.Querier, orderID int64) (*domain.Order, error)
	ListLines(ctx context.Context, q database.Querier, orderID int64) ([]domain.OrderLine, error)
	UpdateStatus(ctx context.Context, q database.Querier, orderID int64, status domain.Status, reason string) error
	ListByUser(ctx context.Context, q database.Querier, userID int64) ([]domain.Order, error)
	ListAll(ctx context.Context, q database.Querier) ([]domain.Order, error)
}

type OrderRepository struct{}

func New() *OrderRepository { return &OrderRepository{} }

const orderColumns = `
id, order_number, user_id, status, COALESCE(rejection_reason, ''),
customer_name, document_id, contact_phone, COALESCE(email, ''),
shipping_address, COALESCE(address_reference, ''), COALESCE(delivery_notes, ''), COALESCE(preferred_schedule, ''),
payment_method, subtotal, shipping, total, COALESCE(idempotency_key, ''),
created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status, method string
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &status, &o.RejectionReason,
		&o.CustomerName, &o.DocumentID, &o.ContactPhone, &o.Email,
		&o.ShippingAddress, &o.AddressReference, &o.DeliveryNotes, &o.PreferredSchedule,
		&method, &o.Subtotal, &o.Shipping, &o.Total, &o.IdempotencyKey,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	o.PaymentMethod = domain.PaymentMethod(method)
	return &o, nil
}

// FindByIdempotencyKey looks up a previously placed order for the same
// requester and key; key uniqueness is scoped per requester, not global.
func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, q database.Querier, userID int64, key string) (*domain.Order, bool, error) {
	o, err := scanOrder(q.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders WHERE user_id = $1 AND idempotency_key = $2
`, userID, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find order by idempotency key: %w", err)
	}
	return o, true, nil
}

// Create inserts the order header and its lines on the caller's
// transaction. Unique-constraint violations map to sentinel errors so the
// orchestrator can resolve concurrent-retry races by re-fetching.
func (r *OrderRepository) Create(ctx context.Context, q database.Querier, order *domain.Order, lines []domain.OrderLine) error {
	err := q.QueryRow(ctx, `
INSERT INTO orders
    (order_number, user_id, status, customer_name, document_id, contact_phone, email,
     shipping_address, address_reference, delivery_notes, preferred_schedule,
     payment_method, subtotal, shipping, total, idempotency_key, created_at, updated_at)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
RETURNING id, created_at, updated_at
`,
		order.OrderNumber, order.UserID, string(order.Status),
		order.CustomerName, order.DocumentID, order.ContactPhone, nullIfEmpty(order.Email),
		order.ShippingAddress, nullIfEmpty(order.AddressReference), nullIfEmpty(order.DeliveryNotes), nullIfEmpty(order.PreferredSchedule),
		string(order.PaymentMethod), order.Subtotal, order.Shipping, order.Total,
		nullIfEmpty(order.IdempotencyKey),
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}

	for i := range lines {
		lines[i].OrderID = order.ID
		err := q.QueryRow(ctx, `
INSERT INTO order_lines
    (order_id, product_id, product_name, product_description, product_image,
     quantity, size, unit_price, subtotal, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
RETURNING id, created_at
`,
			lines[i].OrderID, lines[i].ProductID, lines[i].ProductName,
			nullIfEmpty(lines[i].ProductDescription), nullIfEmpty(lines[i].ProductImage),
			lines[i].Quantity, lines[i].Size, lines[i].UnitPrice, lines[i].Subtotal,
		).Scan(&lines[i].ID, &lines[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order line for product %d: %w", lines[i].ProductID, err)
		}
	}
	order.Lines = lines
	return nil
}

// GetByIDForUpdate locks the order row; cancellation and fulfilment must
// not interleave on the same order.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, q database.Querier, orderID int64) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders WHERE id = $1
FOR UPDATE
`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	return o, nil
}

func (r *OrderRepository) ListLines(ctx context.Context, q database.Querier, orderID int64) ([]domain.OrderLine, error) {
	rows, err := q.Query(ctx, `
SELECT id, order_id, product_id, product_name, COALESCE(product_description, ''), COALESCE(product_image, ''),
       quantity, size, unit_price, subtotal, created_at
FROM order_lines WHERE order_id = $1
ORDER BY id
`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list lines for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.ProductDescription, &l.ProductImage,
			&l.Quantity, &l.Size, &l.UnitPrice, &l.Subtotal, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, q database.Querier, orderID int64, status domain.Status, reason string) error {
	tag, err := q.Exec(ctx, `
UPDATE orders SET status = $2, rejection_reason = $3, updated_at = NOW()
WHERE id = $1
`, orderID, string(status), nullIfEmpty(reason))
	if err != nil {
		return fmt.Errorf("update status for order %d: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, q database.Querier, userID int64) ([]domain.Order, error) {
	return r.list(ctx, q, `
SELECT `+orderColumns+`
FROM orders WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
}

func (r *OrderRepository) ListAll(ctx context.Context, q database.Querier) ([]domain.Order, error) {
	return r.list(ctx, q, `
SELECT `+orderColumns+`
FROM orders
ORDER BY created_at DESC
`)
}

func (r *OrderRepository) list(ctx context.Context, q database.Querier, sql string, args ...any) ([]domain.Order, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		lines, err := r.ListLines(ctx, q, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Lines = lines
	}
	return out, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "idempotency") {
			return domain.ErrDuplicateIdempotencyKey
		}
		return domain.ErrDuplicateOrderNumber
	}
	return fmt.Errorf("insert order: %w", err)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
