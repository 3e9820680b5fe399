package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
)

type CatalogRepository interface {
	FindProduct(ctx context.Context, id int64) (domain.Product, error)
	ProductBySlug(ctx context.Context, slug string) (domain.Product, error)
	// ListProducts orders by creation time, newest first.
	ListProducts(ctx context.Context, f domain.Filter) ([]domain.Product, error)
	// Search matches query case-insensitively against name or description.
	Search(ctx context.Context, query string) ([]domain.Product, error)
	ProductImages(ctx context.Context, productID int64) ([]domain.Image, error)
	CategoryBySlug(ctx context.Context, slug string) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}
