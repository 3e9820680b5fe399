// Package catalogtest provides an in-memory catalog for tests of packages
// that read products.
package catalogtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
)

type Repo struct {
	mu         sync.Mutex
	categories map[int64]domain.Category
	products   map[int64]domain.Product
	images     map[int64][]domain.Image
	// Err, when set, is returned by every read.
	Err error
	// Calls counts reads, to assert that a path never hit the store.
	Calls int
}

func NewRepo() *Repo {
	return &Repo{
		categories: make(map[int64]domain.Category),
		products:   make(map[int64]domain.Product),
		images:     make(map[int64][]domain.Image),
	}
}

func (r *Repo) AddCategory(c domain.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = c
}

// AddProduct stores p; a zero CreatedAt is filled so that later adds are newer.
func (r *Repo) AddProduct(p domain.Product) domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(p.ID) * time.Minute)
	}
	r.products[p.ID] = p
	return p
}

func (r *Repo) AddImage(productID int64, img domain.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[productID] = append(r.images[productID], img)
}

// SetPrice changes a product's live price.
func (r *Repo) SetPrice(id int64, price string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.products[id]
	p.Price = decimal.RequireFromString(price)
	r.products[id] = p
}

func (r *Repo) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
}

func (r *Repo) read() error {
	r.Calls++
	return r.Err
}

func (r *Repo) FindProduct(ctx context.Context, id int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read(); err != nil {
		return domain.Product{}, err
	}
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (r *Repo) ProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read(); err != nil {
		return domain.Product{}, err
	}
	for _, p := range r.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (r *Repo) ListProducts(ctx context.Context, f domain.Filter) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read(); err != nil {
		return nil, err
	}
	var catID int64 = -1
	if f.CategorySlug != "" {
		for _, c := range r.categories {
			if c.Slug == f.CategorySlug {
				catID = c.ID
			}
		}
		if catID == -1 {
			return []domain.Product{}, nil
		}
	}
	out := []domain.Product{}
	for _, p := range r.products {
		if catID != -1 && p.CategoryID != catID {
			continue
		}
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	newestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *Repo) Search(ctx context.Context, query string) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read(); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := []domain.Product{}
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	newestFirst(out)
	return out, nil
}

func (r *Repo) ProductImages(ctx context.Context, productID int64) ([]domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read(); err != nil {
		return nil, err
	}
	return append([]domain.Image{}, r.images[productID]...), nil
}

func (r *Repo) CategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read(); err != nil {
		return domain.Category{}, err
	}
	for _, c := range r.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrCategoryNotFound
}

func (r *Repo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read(); err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func newestFirst(ps []domain.Product) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID > ps[j].ID
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}

// Product builds an active product priced from a decimal string.
func Product(id, categoryID int64, name, price string, stock int) domain.Product {
	return domain.Product{
		ID:         id,
		CategoryID: categoryID,
		Name:       name,
		Slug:       strings.ReplaceAll(strings.ToLower(name), " ", "-"),
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   true,
	}
}
