package domain

import (
	"github.com/shopspring/decimal"

	payment "github.com/dmehra2102/storefront/internal/payment/domain"
)

const (
	AggregateType = "order"

	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type PlacedItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderPlaced struct {
	OrderID       int64           `json:"order_id"`
	UserID        string          `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod payment.Method  `json:"payment_method"`
	Items         []PlacedItem    `json:"items"`
}

type OrderStatusChanged struct {
	OrderID       int64       `json:"order_id"`
	From          OrderStatus `json:"from"`
	To            OrderStatus `json:"to"`
	// StockAdjusted is set when the change took at least one line out of stock.
	StockAdjusted bool `json:"stock_adjusted"`
	// StockShortfall lists the products whose stock could not cover the order
	// and was left untouched.
	StockShortfall []int64 `json:"stock_shortfall,omitempty"`
}

func NewOrderPlaced(o Order) OrderPlaced {
	items := make([]PlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, PlacedItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return OrderPlaced{
		OrderID:       o.ID,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		Items:         items,
	}
}
