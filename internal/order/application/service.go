package application

import (
	"context"
	"log/slog"

	cart "github.com/dmehra2102/storefront/internal/cart/domain"
	inventoryapp "github.com/dmehra2102/storefront/internal/inventory/application"
	inventory "github.com/dmehra2102/storefront/internal/inventory/domain"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/filestore"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

const eventSource = "storefront"

type Service struct {
	log    *slog.Logger
	repo   OrderRepository
	cart   Cart
	proofs Proofs
	stock  *inventoryapp.Service
}

func NewService(log *slog.Logger, repo OrderRepository, cart Cart, proofs Proofs, stock *inventoryapp.Service) *Service {
	return &Service{log: log, repo: repo, cart: cart, proofs: proofs, stock: stock}
}

func (s *Service) event(ctx context.Context, o domain.Order, eventType string, payload any) (outbox.Event, error) {
	return outbox.NewEvent(domain.AggregateType, o.Key(), eventType, payload,
		map[string]string{"source": eventSource}, tracing.Traceparent(ctx))
}

// PlaceOrder turns the session's cart into an order. The order, its items
// and the OrderPlaced event are written in one transaction; the cart is
// cleared only once that transaction has committed.
func (s *Service) PlaceOrder(ctx context.Context, userID, sessionID string, form domain.Form, proof *filestore.Upload) (domain.Order, error) {
	var placed domain.Order
	err := s.cart.Checkout(ctx, sessionID, func(ctx context.Context, snap cart.Snapshot) error {
		if snap.IsEmpty() {
			return domain.ErrEmptyCart
		}
		method, err := form.Validate()
		if err != nil {
			return err
		}
		screenshot, err := s.proofs.StoreProof(ctx, method, proof)
		if err != nil {
			return err
		}

		o := domain.NewOrder(userID, form, method, screenshot, snap)
		err = s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
			created, err := tx.InsertOrder(ctx, o)
			if err != nil {
				return err
			}
			created.Items, err = tx.InsertItems(ctx, created.ID, o.Items)
			if err != nil {
				return err
			}
			ev, err := s.event(ctx, created, domain.EventOrderPlaced, domain.NewOrderPlaced(created))
			if err != nil {
				return err
			}
			if err := tx.AppendEvent(ctx, ev); err != nil {
				return err
			}
			placed = created
			return nil
		})
		if err != nil {
			s.proofs.Discard(context.WithoutCancel(ctx), screenshot)
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.log.InfoContext(ctx, "order placed", "order_id", placed.ID, "user_id", userID,
		"total", placed.TotalAmount.StringFixed(2), "payment_method", placed.PaymentMethod)
	return placed, nil
}

// ChangeStatus sets a new status. Moving into the approved status takes the
// order's items out of stock, in the same transaction and exactly once.
func (s *Service) ChangeStatus(ctx context.Context, id int64, status string) (domain.Order, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Order{}, err
	}

	var out domain.Order
	err = s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		prev := o.Status

		var (
			adjusted  bool
			shortfall []int64
		)
		if domain.ShouldAdjustStock(prev, next) {
			lines := make([]inventory.Line, 0, len(o.Items))
			for _, it := range o.Items {
				lines = append(lines, inventory.Line{ProductID: it.ProductID, Quantity: it.Quantity})
			}
			res, err := s.stock.Apply(ctx, tx, o.ID, lines)
			if err != nil {
				return err
			}
			adjusted = res.Applied()
			for _, a := range res.Skipped() {
				shortfall = append(shortfall, a.ProductID)
			}
		}

		if o.UpdatedAt, err = tx.UpdateStatus(ctx, o.ID, next); err != nil {
			return err
		}
		o.Status = next

		if prev != next {
			ev, err := s.event(ctx, o, domain.EventOrderStatusChanged, domain.OrderStatusChanged{
				OrderID: o.ID, From: prev, To: next, StockAdjusted: adjusted, StockShortfall: shortfall,
			})
			if err != nil {
				return err
			}
			if err := tx.AppendEvent(ctx, ev); err != nil {
				return err
			}
		}
		out = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.log.InfoContext(ctx, "order status saved", "order_id", id, "status", next)
	return out, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one of the user's orders. Orders of other users look missing.
func (s *Service) Get(ctx context.Context, userID string, id int64) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if o.UserID != userID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

// List is the back-office view. An empty status lists every order.
func (s *Service) List(ctx context.Context, status string) ([]domain.Order, error) {
	var f domain.ListFilter
	if status != "" {
		st, err := domain.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	return s.repo.List(ctx, f)
}
