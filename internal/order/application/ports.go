package application

import (
	"context"
	"time"

	cart "github.com/dmehra2102/storefront/internal/cart/domain"
	inventory "github.com/dmehra2102/storefront/internal/inventory/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	payment "github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/filestore"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

// Tx is one database transaction. Everything done through it commits or
// rolls back together.
type Tx interface {
	inventory.Stock

	InsertOrder(ctx context.Context, o domain.Order) (domain.Order, error)
	// InsertItems returns the items with their ids and order id set.
	InsertItems(ctx context.Context, orderID int64, items []domain.OrderItem) ([]domain.OrderItem, error)
	// LockOrder loads the order with its items and holds its row until the
	// transaction ends.
	LockOrder(ctx context.Context, id int64) (domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (time.Time, error)
	AppendEvent(ctx context.Context, ev outbox.Event) error
}

type OrderRepository interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Get(ctx context.Context, id int64) (domain.Order, error)
	// ListByUser returns the user's orders, newest first, without items.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, f domain.ListFilter) ([]domain.Order, error)
}

type Cart interface {
	Checkout(ctx context.Context, sessionID string, place func(context.Context, cart.Snapshot) error) error
}

type Proofs interface {
	StoreProof(ctx context.Context, method payment.Method, proof *filestore.Upload) (string, error)
	Discard(ctx context.Context, rel string)
}
