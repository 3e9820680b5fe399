package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	cart "github.com/dmehra2102/storefront/internal/cart/domain"
	payment "github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusRejected  OrderStatus = "REJECTED"

	// StatusApproved is the status whose arrival takes the order out of stock.
	StatusApproved = StatusConfirmed
)

var (
	ErrEmptyCart     = apperr.New(apperr.KindUserInput, "Your cart is empty.")
	ErrOrderNotFound = apperr.New(apperr.KindNotFound, "order not found")
	ErrOrderFailed   = apperr.New(apperr.KindIntegrity, "order failed")
	ErrUnknownStatus = apperr.New(apperr.KindUserInput, "unknown order status")
)

func ParseStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusRejected:
		return st, nil
	default:
		return "", ErrUnknownStatus
	}
}

// ShouldAdjustStock is true only on the move into the approved status. Saving
// an order that is already approved never adjusts stock again.
func ShouldAdjustStock(prev, next OrderStatus) bool {
	return prev != StatusApproved && next == StatusApproved
}

type Order struct {
	ID                int64           `json:"id"`
	UserID            string          `json:"user_id"`
	FullName          string          `json:"full_name"`
	PhoneNumber       string          `json:"phone_number"`
	Address           string          `json:"address"`
	PaymentMethod     payment.Method  `json:"payment_method"`
	PaymentScreenshot string          `json:"payment_screenshot,omitempty"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            OrderStatus     `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Items             []OrderItem     `json:"items,omitempty"`
}

func (o Order) Key() string {
	return strconv.FormatInt(o.ID, 10)
}

// OrderItem is frozen at checkout: Price is the catalog price of that moment.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Form is what the shopper submits at checkout, as typed.
type Form struct {
	FullName      string
	PhoneNumber   string
	Address       string
	PaymentMethod string
}

const (
	maxFullName = 255
	maxPhone    = 15
)

// Validate checks the contact fields and returns the parsed payment method.
func (f Form) Validate() (payment.Method, error) {
	fields := map[string]string{}
	if strings.TrimSpace(f.FullName) == "" {
		fields["full_name"] = "This field is required."
	} else if utf8.RuneCountInString(f.FullName) > maxFullName {
		fields["full_name"] = "Ensure this field has at most 255 characters."
	}
	if strings.TrimSpace(f.PhoneNumber) == "" {
		fields["phone_number"] = "This field is required."
	} else if utf8.RuneCountInString(f.PhoneNumber) > maxPhone {
		fields["phone_number"] = "Ensure this field has at most 15 characters."
	}
	if strings.TrimSpace(f.Address) == "" {
		fields["address"] = "This field is required."
	}
	method, err := payment.ParseMethod(f.PaymentMethod)
	if err != nil {
		fields["payment_method"] = "Select a valid choice."
	}
	if len(fields) > 0 {
		return "", apperr.Validation(fields)
	}
	return method, nil
}

// NewOrder builds a pending order from a resolved cart. Items snapshot the
// current price and the total is computed here, once.
func NewOrder(userID string, f Form, method payment.Method, screenshot string, snap cart.Snapshot) Order {
	items := make([]OrderItem, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, OrderItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			Price:       l.Price,
		})
	}
	return Order{
		UserID:            userID,
		FullName:          strings.TrimSpace(f.FullName),
		PhoneNumber:       strings.TrimSpace(f.PhoneNumber),
		Address:           strings.TrimSpace(f.Address),
		PaymentMethod:     method,
		PaymentScreenshot: screenshot,
		TotalAmount:       snap.Total,
		Status:            StatusPending,
		Items:             items,
	}
}

// ListFilter narrows the admin order list. An empty Status lists everything.
type ListFilter struct {
	Status OrderStatus
	Limit  int
}
