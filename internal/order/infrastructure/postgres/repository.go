package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	inventorypg "github.com/dmehra2102/storefront/internal/inventory/infrastructure/postgres"
	"github.com/dmehra2102/storefront/internal/order/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx application.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, &orderTx{Stock: inventorypg.NewStock(tx), tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// orderTx runs order statements and stock updates on one pgx transaction.
type orderTx struct {
	*inventorypg.Stock
	tx pgx.Tx
}

func (t *orderTx) InsertOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, full_name, phone_number, address, payment_method, payment_screenshot, total_amount, status)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8)
		RETURNING id, created_at, updated_at`,
		o.UserID, o.FullName, o.PhoneNumber, o.Address, o.PaymentMethod, o.PaymentScreenshot, o.TotalAmount, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	o.Items = nil
	return o, nil
}

func (t *orderTx) InsertItems(ctx context.Context, orderID int64, items []domain.OrderItem) ([]domain.OrderItem, error) {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1,$2,$3,$4)
			RETURNING id`,
			orderID, it.ProductID, it.Quantity, it.Price)
	}
	br := t.tx.SendBatch(ctx, batch)

	out := make([]domain.OrderItem, len(items))
	for i, it := range items {
		it.OrderID = orderID
		if err := br.QueryRow().Scan(&it.ID); err != nil {
			_ = br.Close()
			return nil, classify(err)
		}
		out[i] = it
	}
	if err := br.Close(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (t *orderTx) LockOrder(ctx context.Context, id int64) (domain.Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, selectOrder+` WHERE o.id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Order{}, err
	}
	o.Items, err = loadItems(ctx, t.tx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (t *orderTx) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (time.Time, error) {
	var updatedAt time.Time
	err := t.tx.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`, id, status).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("update order status: %w", err)
	}
	return updatedAt, nil
}

func (t *orderTx) AppendEvent(ctx context.Context, ev outbox.Event) error {
	return outbox.Append(ctx, t.tx, ev)
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, selectOrder+` WHERE o.id = $1`, id))
	if err != nil {
		return domain.Order{}, err
	}
	o.Items, err = loadItems(ctx, r.pool, id)
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrder+`
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return collectOrders(rows)
}

func (r *Repository) List(ctx context.Context, f domain.ListFilter) ([]domain.Order, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, selectOrder+`
		WHERE ($1 = '' OR o.status = $1)
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $2`, string(f.Status), limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return collectOrders(rows)
}

const selectOrder = `
	SELECT o.id, o.user_id, o.full_name, o.phone_number, o.address, o.payment_method,
	       COALESCE(o.payment_screenshot, ''), o.total_amount, o.status, o.created_at, o.updated_at
	FROM orders o`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.FullName, &o.PhoneNumber, &o.Address, &o.PaymentMethod,
		&o.PaymentScreenshot, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadItems(ctx context.Context, q querier, orderID int64) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, COALESCE(p.name, ''), i.quantity, i.price
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// classify turns constraint violations on order items into an integrity
// error the shopper sees as "order failed".
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation, pgCheckViolation:
			return apperr.Wrap(apperr.KindIntegrity, domain.ErrOrderFailed.Message, err)
		}
	}
	return fmt.Errorf("insert order items: %w", err)
}
