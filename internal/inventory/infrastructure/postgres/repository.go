package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Stock runs stock updates on a caller-owned transaction.
type Stock struct {
	db Execer
}

func NewStock(db Execer) *Stock {
	return &Stock{db: db}
}

// TryDecrement is a single conditional UPDATE, so concurrent approvals of
// orders for the same product serialize on the row and cannot oversell.
func (s *Stock) TryDecrement(ctx context.Context, productID int64, qty int) (bool, error) {
	ct, err := s.db.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
