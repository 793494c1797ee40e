package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"nublack-orders/internal/catalog"
	"nublack-orders/internal/connections/database"
	"nublack-orders/internal/orders/domain"
)

// fakeDB serializes WithinTx with one mutex, which stands in for the
// row-level locking the real pool provides: two placement transactions
// never interleave.
type fakeDB struct{ mu sync.Mutex }

func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }

func (f *fakeDB) WithinTx(ctx context.Context, fn func(context.Context, database.Querier) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx, f)
}

// fakeLedger mirrors the clamp-at-zero and size/global coupling of the
// real repository.
type fakeLedger struct {
	mu       sync.Mutex
	products map[int64]*catalog.Product
}

func newFakeLedger(products ...*catalog.Product) *fakeLedger {
	l := &fakeLedger{products: make(map[int64]*catalog.Product)}
	for _, p := range products {
		l.products[p.ID] = p
	}
	return l
}

func (l *fakeLedger) GetForUpdate(_ context.Context, _ database.Querier, productID int64) (*catalog.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[productID]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	clone := *p
	clone.Sizes = p.Sizes.Clone()
	return &clone, nil
}

func (l *fakeLedger) Reserve(_ context.Context, _ database.Querier, productID int64, quantity int, size string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[productID]
	if !ok {
		return catalog.ErrProductNotFound
	}
	if size != "" && p.Sizes.Tracked() {
		if current, ok := p.Sizes[size]; ok {
			next := current - quantity
			if next < 0 {
				next = 0
			}
			p.Sizes[size] = next
		}
	}
	p.Stock -= quantity
	if p.Stock < 0 {
		p.Stock = 0
	}
	return nil
}

func (l *fakeLedger) Restore(_ context.Context, _ database.Querier, productID int64, quantity int, size string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[productID]
	if !ok {
		return catalog.ErrProductNotFound
	}
	if size != "" && p.Sizes.Tracked() {
		p.Sizes[size] += quantity
	}
	p.Stock += quantity
	return nil
}

func (l *fakeLedger) stock(productID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.products[productID].Stock
}

func (l *fakeLedger) sizeStock(productID int64, size string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.products[productID].Sizes.Get(size)
}

// fakeOrderRepo enforces the same uniqueness rules as the real store.
// missFinds makes the next N idempotency lookups miss, which is how the
// tests reproduce the lookup-then-insert race between concurrent retries.
type fakeOrderRepo struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]*domain.Order
	missFinds int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*domain.Order)}
}

func (f *fakeOrderRepo) FindByIdempotencyKey(_ context.Context, _ database.Querier, userID int64, key string) (*domain.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missFinds > 0 {
		f.missFinds--
		return nil, false, nil
	}
	for _, o := range f.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			clone := *o
			return &clone, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeOrderRepo) Create(_ context.Context, _ database.Querier, order *domain.Order, lines []domain.OrderLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if order.IdempotencyKey != "" && o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
			return domain.ErrDuplicateIdempotencyKey
		}
		if o.OrderNumber == order.OrderNumber {
			return domain.ErrDuplicateOrderNumber
		}
	}

	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	for i := range lines {
		f.nextID++
		lines[i].ID = f.nextID
		lines[i].OrderID = order.ID
	}
	order.Lines = lines

	clone := *order
	clone.Lines = append([]domain.OrderLine(nil), lines...)
	f.orders[order.ID] = &clone
	return nil
}

func (f *fakeOrderRepo) GetByIDForUpdate(_ context.Context, _ database.Querier, orderID int64) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (f *fakeOrderRepo) ListLines(_ context.Context, _ database.Querier, orderID int64) ([]domain.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	return append([]domain.OrderLine(nil), o.Lines...), nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, _ database.Querier, orderID int64, status domain.Status, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	o.RejectionReason = reason
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, _ database.Querier, userID int64) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeOrderRepo) ListAll(_ context.Context, _ database.Querier) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeOrderRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeOrderRepo) byNumber(number string) *domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == number {
			clone := *o
			return &clone
		}
	}
	return nil
}

func (f *fakeOrderRepo) seed(o *domain.Order, lines ...domain.OrderLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	o.ID = f.nextID
	for i := range lines {
		f.nextID++
		lines[i].ID = f.nextID
		lines[i].OrderID = o.ID
	}
	o.Lines = lines
	f.orders[o.ID] = o
}

type statusChange struct {
	orderNumber string
	status      domain.Status
}

type fakeNotifier struct {
	mu        sync.Mutex
	confirmed []string
	changes   []statusChange
}

func (n *fakeNotifier) OrderConfirmed(_ context.Context, order *domain.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, order.OrderNumber)
}

func (n *fakeNotifier) StatusChanged(_ context.Context, order *domain.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, statusChange{orderNumber: order.OrderNumber, status: order.Status})
}

type fakeCarts struct {
	mu      sync.Mutex
	cleared []int64
	err     error
}

func (c *fakeCarts) Clear(_ context.Context, _ database.Querier, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.cleared = append(c.cleared, userID)
	return nil
}
