package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/inventory/domain"
)

type Service struct {
	log *slog.Logger
}

func NewService(log *slog.Logger) *Service {
	return &Service{log: log}
}

// Apply takes every line out of stock. A line that cannot be covered is
// skipped and logged: the order still goes through and no other line is
// affected.
func (s *Service) Apply(ctx context.Context, stock Stock, orderID int64, lines []domain.Line) (domain.Result, error) {
	res := domain.Result{Adjustments: make([]domain.Adjustment, 0, len(lines))}
	for _, l := range lines {
		ok, err := stock.TryDecrement(ctx, l.ProductID, l.Quantity)
		if err != nil {
			return domain.Result{}, fmt.Errorf("decrement product %d: %w", l.ProductID, err)
		}
		adj := domain.Adjustment{ProductID: l.ProductID, Quantity: l.Quantity, Outcome: domain.Decremented}
		if !ok {
			adj.Outcome = domain.Skipped
			s.log.WarnContext(ctx, "stock adjustment skipped, insufficient stock",
				"order_id", orderID, "product_id", l.ProductID, "quantity", l.Quantity)
		}
		res.Adjustments = append(res.Adjustments, adj)
	}
	s.log.InfoContext(ctx, "stock adjusted", "order_id", orderID,
		"lines", len(lines), "skipped", len(res.Skipped()))
	return res, nil
}
