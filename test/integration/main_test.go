//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/storefront/migrations"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/migrate"
)

var (
	env  *Env
	pool *pgxpool.Pool
	rdb  *redis.Client
)

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()
	var err error
	env, err = Setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "containers:", err)
		return 1
	}
	defer env.Teardown(ctx)

	pool, err = pgxpool.New(ctx, env.PGURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pg connect:", err)
		return 1
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, logging.Discard(), pool, migrations.FS); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		return 1
	}
	// A second run must be a no-op.
	if err := migrate.Apply(ctx, logging.Discard(), pool, migrations.FS); err != nil {
		fmt.Fprintln(os.Stderr, "migrate again:", err)
		return 1
	}

	rdb = redis.NewClient(&redis.Options{Addr: env.RedisAddr})
	defer rdb.Close()

	return m.Run()
}

// seedProduct inserts a category and an active product and returns the
// product id.
func seedProduct(t *testing.T, slug, price string, stock int) int64 {
	t.Helper()
	ctx := context.Background()
	var catID, id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO categories (name, slug) VALUES ($1, $1)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, "cat-"+slug).Scan(&catID)
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO products (category_id, name, slug, description, price, stock)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id`, catID, "Product "+slug, slug, "hand made "+slug, price, stock).Scan(&id)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}
