package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/customrequest/domain"
	"github.com/dmehra2102/storefront/pkg/filestore"
)

type Repository interface {
	Insert(ctx context.Context, c domain.CustomRequest) (domain.CustomRequest, error)
	// List returns requests newest first.
	List(ctx context.Context, limit int) ([]domain.CustomRequest, error)
}

type FileStore interface {
	PutImage(ctx context.Context, dir string, up filestore.Upload) (string, error)
	Delete(ctx context.Context, rel string) error
}
