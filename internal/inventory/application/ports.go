package application

import "context"

// Stock is bound to the transaction that changes the order status.
type Stock interface {
	// TryDecrement takes qty units from the product only if that leaves stock
	// non-negative, and reports whether it did.
	TryDecrement(ctx context.Context, productID int64, qty int) (bool, error)
}
