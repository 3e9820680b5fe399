package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const productColumns = `p.id, p.category_id, p.name, p.slug, p.description, p.price, p.stock, p.is_active, p.created_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) FindProduct(ctx context.Context, id int64) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("find product %d: %w", id, err)
	}
	return p, nil
}

func (r *Repository) ProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("product by slug %q: %w", slug, err)
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context, f domain.Filter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.CategorySlug != "" {
		args = append(args, f.CategorySlug)
		where = append(where, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if f.ActiveOnly {
		where = append(where, "p.is_active")
	}

	q := `SELECT ` + productColumns + ` FROM products p JOIN categories c ON c.id = p.category_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY p.created_at DESC, p.id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

func (r *Repository) Search(ctx context.Context, query string) ([]domain.Product, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.name ILIKE $1 ESCAPE '\' OR p.description ILIKE $1 ESCAPE '\'
		ORDER BY p.created_at DESC, p.id DESC`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return collectProducts(rows)
}

func (r *Repository) ProductImages(ctx context.Context, productID int64) ([]domain.Image, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, image FROM product_images WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("product images: %w", err)
	}
	defer rows.Close()

	images := []domain.Image{}
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.Path); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *Repository) CategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, slug FROM categories WHERE slug = $1`, slug).Scan(&c.ID, &c.Name, &c.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("category by slug %q: %w", slug, err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
