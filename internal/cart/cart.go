package cart

import (
	"context"

	"nublack-orders/internal/connections/database"
)

// Repository clears a requester's cart after a successful placement. The
// orchestrator treats failures here as best-effort: logged, never surfaced.
type Repository struct{}

func New() *Repository { return &Repository{} }

func (r *Repository) Clear(ctx context.Context, q database.Querier, userID int64) error {
	_, err := q.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
