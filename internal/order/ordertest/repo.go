// Package ordertest provides an in-memory order store for tests.
package ordertest

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/dmehra2102/storefront/internal/order/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

// Repo keeps orders, product stock and outbox rows in memory. InTx works
// on copies and only publishes them when fn succeeds.
type Repo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]domain.Order
	stock  map[int64]int
	events []outbox.Event
	// FailItems makes InsertItems fail the way a foreign key violation does.
	FailItems bool
}

// NewRepo starts with the given units in stock per product id.
func NewRepo(stock map[int64]int) *Repo {
	return &Repo{orders: map[int64]domain.Order{}, stock: stock}
}

type memTx struct {
	r      *Repo
	nextID int64
	orders map[int64]domain.Order
	stock  map[int64]int
	events []outbox.Event
}

func (r *Repo) InTx(ctx context.Context, fn func(context.Context, application.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memTx{
		r:      r,
		nextID: r.nextID,
		orders: maps.Clone(r.orders),
		stock:  maps.Clone(r.stock),
		events: append([]outbox.Event(nil), r.events...),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.nextID, r.orders, r.stock, r.events = tx.nextID, tx.orders, tx.stock, tx.events
	return nil
}

func (t *memTx) InsertOrder(_ context.Context, o domain.Order) (domain.Order, error) {
	t.nextID++
	o.ID = t.nextID
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	o.Items = nil
	t.orders[o.ID] = o
	return o, nil
}

func (t *memTx) InsertItems(_ context.Context, orderID int64, items []domain.OrderItem) ([]domain.OrderItem, error) {
	if t.r.FailItems {
		return nil, apperr.Wrap(apperr.KindIntegrity, domain.ErrOrderFailed.Message, errFK)
	}
	out := make([]domain.OrderItem, len(items))
	for i, it := range items {
		it.ID = int64(i + 1)
		it.OrderID = orderID
		out[i] = it
	}
	o := t.orders[orderID]
	o.Items = out
	t.orders[orderID] = o
	return out, nil
}

func (t *memTx) LockOrder(_ context.Context, id int64) (domain.Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (t *memTx) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) (time.Time, error) {
	o := t.orders[id]
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	t.orders[id] = o
	return o.UpdatedAt, nil
}

func (t *memTx) TryDecrement(_ context.Context, productID int64, qty int) (bool, error) {
	have, ok := t.stock[productID]
	if !ok || have < qty {
		return false, nil
	}
	t.stock[productID] = have - qty
	return true, nil
}

func (t *memTx) AppendEvent(_ context.Context, ev outbox.Event) error {
	t.events = append(t.events, ev)
	return nil
}

func (r *Repo) Get(_ context.Context, id int64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (r *Repo) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for id := r.nextID; id > 0; id-- {
		if o, ok := r.orders[id]; ok && o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *Repo) List(_ context.Context, f domain.ListFilter) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for id := r.nextID; id > 0; id-- {
		if o, ok := r.orders[id]; ok && (f.Status == "" || o.Status == f.Status) {
			out = append(out, o)
		}
	}
	return out, nil
}

// EventTypes lists the outbox rows committed so far, oldest first.
func (r *Repo) EventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []string
	for _, ev := range r.events {
		types = append(types, ev.Type)
	}
	return types
}

var errFK = errors.New("insert or update on table \"order_items\" violates foreign key constraint")

// Stock returns the units left for productID.
func (r *Repo) Stock(productID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stock[productID]
}

// StockLevels returns a copy of every product's units.
func (r *Repo) StockLevels() map[int64]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.stock)
}

// Len is the number of committed orders.
func (r *Repo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// Events returns the committed outbox rows.
func (r *Repo) Events() []outbox.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]outbox.Event(nil), r.events...)
}
