package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront/internal/customrequest/domain"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, c domain.CustomRequest) (domain.CustomRequest, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO custom_requests (name, phone_number, idea_description, reference_image)
		VALUES ($1,$2,$3,NULLIF($4,''))
		RETURNING id, submitted_at`,
		c.Name, c.PhoneNumber, c.IdeaDescription, c.ReferenceImage,
	).Scan(&c.ID, &c.SubmittedAt)
	if err != nil {
		return domain.CustomRequest{}, fmt.Errorf("insert custom request: %w", err)
	}
	return c, nil
}

func (r *Repository) List(ctx context.Context, limit int) ([]domain.CustomRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, phone_number, idea_description, COALESCE(reference_image, ''), submitted_at
		FROM custom_requests
		ORDER BY submitted_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list custom requests: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CustomRequest, error) {
		var c domain.CustomRequest
		err := row.Scan(&c.ID, &c.Name, &c.PhoneNumber, &c.IdeaDescription, &c.ReferenceImage, &c.SubmittedAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan custom requests: %w", err)
	}
	return out, nil
}
