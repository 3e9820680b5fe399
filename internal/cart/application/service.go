package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/cart/domain"
	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/session"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

// SessionKey is where the cart lives inside the session.
const SessionKey = "cart"

var (
	ErrOutOfStock = apperr.New(apperr.KindUserInput, "not enough stock for this product")
	// ErrLockLost means the session lock expired while checkout was running
	// and the order was rolled back.
	ErrLockLost = apperr.New(apperr.KindConflict, "checkout took too long, please retry")
)

type Service struct {
	log          *slog.Logger
	store        session.Store
	locker       session.Locker
	products     domain.ProductFinder
	enforceStock bool
}

type Option func(*Service)

// WithStockCheck refuses to add more units than the product has in stock.
func WithStockCheck(enabled bool) Option {
	return func(s *Service) { s.enforceStock = enabled }
}

func NewService(log *slog.Logger, store session.Store, locker session.Locker, products domain.ProductFinder, opts ...Option) *Service {
	s := &Service{log: log, store: store, locker: locker, products: products}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	raw, ok, err := s.store.Get(ctx, sessionID, SessionKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !ok {
		return domain.New(), nil
	}
	c, err := domain.Decode(raw)
	if err != nil {
		s.log.WarnContext(ctx, "discarding unreadable cart", "err", err)
		return domain.New(), nil
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, sessionID string, c *domain.Cart) error {
	if c.IsEmpty() {
		return s.store.Clear(ctx, sessionID, SessionKey)
	}
	raw, err := c.Encode()
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.store.Set(ctx, sessionID, SessionKey, raw)
}

// update runs a read-modify-write of the cart under the session lock.
func (s *Service) update(ctx context.Context, sessionID string, fn func(*domain.Cart) error) error {
	ctx, unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return s.save(ctx, sessionID, c)
}

func (s *Service) skipped(ctx context.Context) func(int64) {
	return func(id int64) {
		s.log.InfoContext(ctx, "cart line skipped, product no longer exists", "product_id", id)
	}
}

// View resolves the cart against current catalog prices.
func (s *Service) View(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Collect(c.Lines(ctx, s.products, s.skipped(ctx)))
}

// Count is the number of units in the cart, for the header badge.
func (s *Service) Count(ctx context.Context, sessionID string) (int, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

// Add puts one unit of productID in the cart and returns its new quantity.
func (s *Service) Add(ctx context.Context, sessionID string, productID int64) (int, error) {
	p, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	if !p.IsActive {
		return 0, catalog.ErrProductNotFound
	}

	var qty int
	err = s.update(ctx, sessionID, func(c *domain.Cart) error {
		if s.enforceStock && !p.InStock(c.Quantity(productID)+1) {
			return ErrOutOfStock
		}
		qty = c.Add(productID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.InfoContext(ctx, "cart item added", "product_id", productID, "quantity", qty)
	return qty, nil
}

func (s *Service) Remove(ctx context.Context, sessionID string, productID int64) error {
	return s.update(ctx, sessionID, func(c *domain.Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.update(ctx, sessionID, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
}

// Checkout hands a resolved snapshot of the cart to place while holding the
// session lock. The cart is cleared only if place succeeds, so a concurrent
// second checkout waits and then finds an empty cart. place runs on the held
// context and is aborted if the lock is lost before it returns.
func (s *Service) Checkout(ctx context.Context, sessionID string, place func(context.Context, domain.Snapshot) error) error {
	held, unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.load(held, sessionID)
	if err != nil {
		return err
	}
	snap, err := domain.Collect(c.Lines(held, s.products, s.skipped(held)))
	if err != nil {
		return err
	}
	if err := place(held, snap); err != nil {
		if held.Err() != nil && ctx.Err() == nil {
			return ErrLockLost
		}
		return err
	}

	c.Clear()
	if err := s.save(ctx, sessionID, c); err != nil {
		// The order exists; a stale cart is the lesser failure.
		s.log.ErrorContext(ctx, "clear cart after checkout failed", "err", err)
	}
	return nil
}
