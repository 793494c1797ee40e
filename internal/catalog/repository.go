package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"nublack-orders/internal/common/logger"
	"nublack-orders/internal/connections/database"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID          int64
	Name        string
	Description string
	Image       string
	Price       decimal.Decimal
	Stock       int
	Sizes       SizeStock
}

// Available is the quantity that can be promised for the requested size:
// the size counter when the product tracks sizes and a size was asked for,
// the global counter otherwise. A tracked product with no entry for the
// requested size has zero available.
func (p *Product) Available(size string) int {
	if size != "" && p.Sizes.Tracked() {
		return p.Sizes.Get(size)
	}
	return p.Stock
}

// Ledger is the inventory contract the placement orchestrator and the
// lifecycle controller depend on. Every method runs on the caller's
// querier so reservations share the caller's transaction.
type Ledger interface {
	GetForUpdate(ctx context.Context, q database.Querier, productID int64) (*Product, error)
	Reserve(ctx context.Context, q database.Querier, productID int64, quantity int, size string) error
	Restore(ctx context.Context, q database.Querier, productID int64, quantity int, size string) error
}

type Repository struct {
	lg *logger.Logger
}

func NewRepository(lg *logger.Logger) *Repository { return &Repository{lg: lg} }

// GetForUpdate loads the product under a row-level exclusive lock. The lock
// is held until the surrounding transaction commits, which is what
// serializes concurrent reservations against the same product.
func (r *Repository) GetForUpdate(ctx context.Context, q database.Querier, productID int64) (*Product, error) {
	var (
		p        Product
		sizesRaw []byte
	)
	err := q.QueryRow(ctx, `
SELECT id, name, COALESCE(description, ''), COALESCE(image, ''), price, stock, COALESCE(sizes, 'null'::jsonb)
FROM products
WHERE id = $1
FOR UPDATE
`, productID).Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.Price, &p.Stock, &sizesRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", productID, err)
	}
	if err := json.Unmarshal(sizesRaw, &p.Sizes); err != nil {
		p.Sizes = SizeStock{}
	}
	return &p, nil
}

// Reserve decrements stock for a confirmed order line. With a size and
// size-level data present, the size counter and the global counter move
// together; both are clamped at zero to tolerate prior data drift. A clamp
// is logged since it means the counters had already diverged.
func (r *Repository) Reserve(ctx context.Context, q database.Querier, productID int64, quantity int, size string) error {
	if quantity <= 0 {
		return fmt.Errorf("reserve product %d: quantity must be positive, got %d", productID, quantity)
	}

	if size != "" {
		p, err := r.GetForUpdate(ctx, q, productID)
		if err != nil {
			return err
		}
		if p.Sizes.Tracked() {
			if current, ok := p.Sizes[size]; ok {
				next := current - quantity
				if next < 0 {
					r.lg.Debug("stock_clamped", map[string]any{
						"product_id": productID, "size": size,
						"available": current, "requested": quantity,
					})
					next = 0
				}
				p.Sizes[size] = next
			}
			// Missing size entry: fall through to the global decrement only.
			buf, err := json.Marshal(p.Sizes)
			if err != nil {
				return fmt.Errorf("encode sizes for product %d: %w", productID, err)
			}
			_, err = q.Exec(ctx, `
UPDATE products SET sizes = $2, stock = GREATEST(0, stock - $3), updated_at = NOW()
WHERE id = $1
`, productID, buf, quantity)
			if err != nil {
				return fmt.Errorf("reserve product %d: %w", productID, err)
			}
			return nil
		}
	}

	_, err := q.Exec(ctx, `
UPDATE products SET stock = GREATEST(0, stock - $2), updated_at = NOW()
WHERE id = $1
`, productID, quantity)
	if err != nil {
		return fmt.Errorf("reserve product %d: %w", productID, err)
	}
	return nil
}

// Restore is the inverse of Reserve, used on cancellation: the global
// counter always comes back, and the size counter too when the line
// carried a size and the product tracks sizes.
func (r *Repository) Restore(ctx context.Context, q database.Querier, productID int64, quantity int, size string) error {
	if quantity <= 0 {
		return fmt.Errorf("restore product %d: quantity must be positive, got %d", productID, quantity)
	}

	if size != "" {
		p, err := r.GetForUpdate(ctx, q, productID)
		if err != nil {
			return err
		}
		if p.Sizes.Tracked() {
			p.Sizes[size] += quantity
			buf, err := json.Marshal(p.Sizes)
			if err != nil {
				return fmt.Errorf("encode sizes for product %d: %w", productID, err)
			}
			_, err = q.Exec(ctx, `
UPDATE products SET sizes = $2, stock = stock + $3, updated_at = NOW()
WHERE id = $1
`, productID, buf, quantity)
			if err != nil {
				return fmt.Errorf("restore product %d: %w", productID, err)
			}
			return nil
		}
	}

	_, err := q.Exec(ctx, `
UPDATE products SET stock = stock + $2, updated_at = NOW()
WHERE id = $1
`, productID, quantity)
	if err != nil {
		return fmt.Errorf("restore product %d: %w", productID, err)
	}
	return nil
}
