package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
)

const NewArrivalsLimit = 5

type Service struct {
	repo CatalogRepository
}

func NewService(repo CatalogRepository) *Service {
	return &Service{repo: repo}
}

type Home struct {
	Products    []domain.Product `json:"products"`
	NewArrivals []domain.Product `json:"new_arrivals"`
}

type CategoryPage struct {
	Category domain.Category  `json:"category"`
	Products []domain.Product `json:"products"`
}

func (s *Service) Home(ctx context.Context) (Home, error) {
	all, err := s.repo.ListProducts(ctx, domain.Filter{})
	if err != nil {
		return Home{}, fmt.Errorf("list products: %w", err)
	}
	fresh, err := s.repo.ListProducts(ctx, domain.Filter{ActiveOnly: true, Limit: NewArrivalsLimit})
	if err != nil {
		return Home{}, fmt.Errorf("list new arrivals: %w", err)
	}
	return Home{Products: all, NewArrivals: fresh}, nil
}

// Product returns a product with its gallery.
func (s *Service) Product(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return s.withGallery(ctx, p)
}

func (s *Service) ProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	p, err := s.repo.ProductBySlug(ctx, slug)
	if err != nil {
		return domain.Product{}, err
	}
	return s.withGallery(ctx, p)
}

func (s *Service) withGallery(ctx context.Context, p domain.Product) (domain.Product, error) {
	images, err := s.repo.ProductImages(ctx, p.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product images: %w", err)
	}
	p.Images = images
	return p, nil
}

func (s *Service) FindProduct(ctx context.Context, id int64) (domain.Product, error) {
	return s.repo.FindProduct(ctx, id)
}

func (s *Service) Category(ctx context.Context, slug string) (CategoryPage, error) {
	c, err := s.repo.CategoryBySlug(ctx, slug)
	if err != nil {
		return CategoryPage{}, err
	}
	products, err := s.repo.ListProducts(ctx, domain.Filter{CategorySlug: slug})
	if err != nil {
		return CategoryPage{}, fmt.Errorf("list category products: %w", err)
	}
	return CategoryPage{Category: c, Products: products}, nil
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// Search never touches the store for a blank query.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Product, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []domain.Product{}, nil
	}
	return s.repo.Search(ctx, q)
}
