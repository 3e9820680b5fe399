package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront/internal/notification/domain"
	order "github.com/dmehra2102/storefront/internal/order/domain"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Save(ctx context.Context, n domain.Notification) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO admin_notifications (event_key, order_id, kind, message)
		VALUES ($1, NULLIF($2, 0), $3, $4)
		ON CONFLICT (event_key) DO NOTHING`,
		n.EventKey, n.OrderID, n.Kind, n.Message)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *Repository) List(ctx context.Context, limit int) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_key, COALESCE(order_id, 0), kind, message, created_at
		FROM admin_notifications
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Notification, error) {
		var n domain.Notification
		err := row.Scan(&n.ID, &n.EventKey, &n.OrderID, &n.Kind, &n.Message, &n.CreatedAt)
		return n, err
	})
}

func (r *Repository) CountOrders(ctx context.Context, status order.OrderStatus, placedBefore time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE status = $1 AND created_at < $2`,
		status, placedBefore).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}
