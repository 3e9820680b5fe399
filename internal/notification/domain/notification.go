package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	order "github.com/dmehra2102/storefront/internal/order/domain"
)

type Kind string

const (
	KindNewOrder        Kind = "new_order"
	KindStatusChanged   Kind = "status_changed"
	KindPendingReminder Kind = "pending_reminder"
)

// Notification is one entry in the admin inbox. EventKey is unique so a
// redelivered event never produces a second entry.
type Notification struct {
	ID        int64     `json:"id"`
	EventKey  string    `json:"event_key"`
	OrderID   int64     `json:"order_id,omitempty"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// FromEvent builds the inbox entry for an order event. ok is false for event
// types the inbox does not care about.
func FromEvent(key, eventType string, payload []byte) (n Notification, ok bool, err error) {
	switch eventType {
	case order.EventOrderPlaced:
		var ev order.OrderPlaced
		if err := json.Unmarshal(payload, &ev); err != nil {
			return Notification{}, false, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return Notification{
			EventKey: key,
			OrderID:  ev.OrderID,
			Kind:     KindNewOrder,
			Message: fmt.Sprintf("Order #%d (%s, %d items, %s) is waiting for approval.",
				ev.OrderID, ev.PaymentMethod, len(ev.Items), ev.TotalAmount.StringFixed(2)),
		}, true, nil

	case order.EventOrderStatusChanged:
		var ev order.OrderStatusChanged
		if err := json.Unmarshal(payload, &ev); err != nil {
			return Notification{}, false, fmt.Errorf("decode %s: %w", eventType, err)
		}
		msg := fmt.Sprintf("Order #%d moved from %s to %s.", ev.OrderID, ev.From, ev.To)
		if ev.StockAdjusted {
			msg += " Stock was adjusted."
		}
		if len(ev.StockShortfall) > 0 {
			ids := make([]string, len(ev.StockShortfall))
			for i, id := range ev.StockShortfall {
				ids[i] = fmt.Sprintf("#%d", id)
			}
			msg += fmt.Sprintf(" Not enough stock for products %s, left unchanged.", strings.Join(ids, ", "))
		}
		return Notification{EventKey: key, OrderID: ev.OrderID, Kind: KindStatusChanged, Message: msg}, true, nil
	}
	return Notification{}, false, nil
}

// PendingReminder summarizes orders still waiting for a decision. The key is
// per day so a rerun on the same day does not repeat the entry.
func PendingReminder(day time.Time, pending int) Notification {
	return Notification{
		EventKey: "reminder:" + day.Format(time.DateOnly),
		Kind:     KindPendingReminder,
		Message:  fmt.Sprintf("%d orders are still pending approval.", pending),
	}
}
