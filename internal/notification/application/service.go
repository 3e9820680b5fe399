package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront/internal/notification/domain"
	order "github.com/dmehra2102/storefront/internal/order/domain"
)

const listLimit = 100

type Repository interface {
	// Save reports false when an entry with the same event key already exists.
	Save(ctx context.Context, n domain.Notification) (bool, error)
	List(ctx context.Context, limit int) ([]domain.Notification, error)
	CountOrders(ctx context.Context, status order.OrderStatus, placedBefore time.Time) (int, error)
}

type Service struct {
	log  *slog.Logger
	repo Repository
	now  func() time.Time
}

func NewService(log *slog.Logger, repo Repository) *Service {
	return &Service{log: log, repo: repo, now: time.Now}
}

// Handle records the inbox entry for one delivered order event.
func (s *Service) Handle(ctx context.Context, key, eventType string, payload []byte) error {
	n, ok, err := domain.FromEvent(key, eventType, payload)
	if err != nil {
		return err
	}
	if !ok {
		s.log.DebugContext(ctx, "event ignored", "type", eventType, "key", key)
		return nil
	}
	saved, err := s.repo.Save(ctx, n)
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	if !saved {
		s.log.InfoContext(ctx, "notification already recorded", "key", key)
		return nil
	}
	s.log.InfoContext(ctx, "admin notified", "kind", n.Kind, "order_id", n.OrderID)
	return nil
}

// RemindPending records a reminder when orders have been pending for longer
// than age.
func (s *Service) RemindPending(ctx context.Context, age time.Duration) error {
	now := s.now().UTC()
	n, err := s.repo.CountOrders(ctx, order.StatusPending, now.Add(-age))
	if err != nil {
		return fmt.Errorf("count pending orders: %w", err)
	}
	if n == 0 {
		return nil
	}
	if _, err := s.repo.Save(ctx, domain.PendingReminder(now, n)); err != nil {
		return fmt.Errorf("save reminder: %w", err)
	}
	s.log.InfoContext(ctx, "pending order reminder recorded", "pending", n)
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.Notification, error) {
	return s.repo.List(ctx, listLimit)
}
