package application

import (
	"context"

	"github.com/dmehra2102/storefront/pkg/filestore"
)

type FileStore interface {
	PutImage(ctx context.Context, dir string, up filestore.Upload) (string, error)
	Delete(ctx context.Context, rel string) error
}
