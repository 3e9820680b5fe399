package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

// Entry is the stored state of one cart line. The live price is never stored.
type Entry struct {
	Quantity int `json:"quantity"`
}

// Cart maps product ids, as strings, to quantities. Every stored quantity is
// at least 1.
type Cart struct {
	entries map[string]Entry
}

func New() *Cart {
	return &Cart{entries: make(map[string]Entry)}
}

// Decode restores a cart from its session encoding. Entries with a malformed
// key or a non-positive quantity are dropped.
func Decode(data []byte) (*Cart, error) {
	c := New()
	if len(data) == 0 {
		return c, nil
	}
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	for k, e := range raw {
		if _, err := strconv.ParseInt(k, 10, 64); err != nil || e.Quantity < 1 {
			continue
		}
		c.entries[k] = e
	}
	return c, nil
}

func (c *Cart) Encode() ([]byte, error) {
	return json.Marshal(c.entries)
}

// Add puts one more unit of productID in the cart and returns the new quantity.
func (c *Cart) Add(productID int64) int {
	k := key(productID)
	e := c.entries[k]
	e.Quantity++
	c.entries[k] = e
	return e.Quantity
}

// Remove drops the whole line. Removing an absent product does nothing.
func (c *Cart) Remove(productID int64) {
	delete(c.entries, key(productID))
}

func (c *Cart) Clear() {
	clear(c.entries)
}

func (c *Cart) Quantity(productID int64) int {
	return c.entries[key(productID)].Quantity
}

// Len is the number of distinct products.
func (c *Cart) Len() int {
	return len(c.entries)
}

func (c *Cart) IsEmpty() bool {
	return len(c.entries) == 0
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

// ProductIDs lists the products in ascending id order.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.entries))
	for k := range c.entries {
		id, _ := strconv.ParseInt(k, 10, 64)
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// LineItem is a cart line resolved against the live catalog.
type LineItem struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type ProductFinder interface {
	FindProduct(ctx context.Context, id int64) (catalog.Product, error)
}

// Lines resolves every entry to a live product, in ascending product id
// order. Products that no longer exist are reported to skipped and left out;
// any other lookup failure is yielded and ends the sequence. Each range over
// the result reads the catalog afresh.
func (c *Cart) Lines(ctx context.Context, products ProductFinder, skipped func(productID int64)) iter.Seq2[LineItem, error] {
	ids := c.ProductIDs()
	return func(yield func(LineItem, error) bool) {
		for _, id := range ids {
			p, err := products.FindProduct(ctx, id)
			if apperr.IsKind(err, apperr.KindNotFound) {
				if skipped != nil {
					skipped(id)
				}
				continue
			}
			if err != nil {
				yield(LineItem{}, fmt.Errorf("resolve cart product %d: %w", id, err))
				return
			}
			line := LineItem{Product: p, Quantity: c.Quantity(id), Price: p.Price}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// Total sums price times quantity, rounded to the currency's minor unit.
func Total(lines []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum.Round(2)
}

// Snapshot is the resolved content of a cart at one instant.
type Snapshot struct {
	Lines []LineItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Collect drains a line sequence into a Snapshot.
func Collect(seq iter.Seq2[LineItem, error]) (Snapshot, error) {
	lines := []LineItem{}
	count := 0
	for l, err := range seq {
		if err != nil {
			return Snapshot{}, err
		}
		lines = append(lines, l)
		count += l.Quantity
	}
	return Snapshot{Lines: lines, Total: Total(lines), Count: count}, nil
}

func key(productID int64) string {
	return strconv.FormatInt(productID, 10)
}
