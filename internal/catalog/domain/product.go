package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

var (
	ErrProductNotFound  = apperr.New(apperr.KindNotFound, "product not found")
	ErrCategoryNotFound = apperr.New(apperr.KindNotFound, "category not found")
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Product struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"category_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	Images      []Image         `json:"images,omitempty"`
}

type Image struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
}

// Key is the product id as the cart stores it.
func (p Product) Key() string {
	return strconv.FormatInt(p.ID, 10)
}

// InStock reports whether qty units can be taken from stock.
func (p Product) InStock(qty int) bool {
	return qty > 0 && p.Stock >= qty
}

// Filter narrows product listings. Zero values mean "no constraint".
type Filter struct {
	CategorySlug string
	ActiveOnly   bool
	Limit        int
}
