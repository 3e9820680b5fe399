//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	catalogpg "github.com/dmehra2102/storefront/internal/catalog/infrastructure/postgres"
	"github.com/dmehra2102/storefront/pkg/logging"
)

func TestCatalogRepository(t *testing.T) {
	ctx := context.Background()
	repo := catalogpg.NewRepository(logging.Discard(), pool)
	id := seedProduct(t, "velvet-rose", "12.50", 4)

	p, err := repo.FindProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "12.50", p.Price.StringFixed(2))
	assert.True(t, p.IsActive)

	found, err := repo.Search(ctx, "VELVET")
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, id, found[0].ID)

	none, err := repo.Search(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, none, "wildcards in the query are literal")

	_, err = repo.FindProduct(ctx, 987654)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	listed, err := repo.ListProducts(ctx, domain.Filter{CategorySlug: "cat-velvet-rose", ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
