package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/internal/catalog/catalogtest"
)

func TestAddSameProductTwiceIncrementsQuantity(t *testing.T) {
	c := New()
	assert.Equal(t, 1, c.Add(7))
	assert.Equal(t, 2, c.Add(7))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Quantity(7))
	assert.Equal(t, 2, c.Count())
}

func TestRemoveAbsentProductIsNoop(t *testing.T) {
	c := New()
	c.Add(1)

	c.Remove(42)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Quantity(1))

	c.Remove(1)
	assert.True(t, c.IsEmpty())
}

func TestClear(t *testing.T) {
	c := New()
	c.Add(1)
	c.Add(2)
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.Count())
}

func TestEncodeDecode(t *testing.T) {
	c := New()
	c.Add(3)
	c.Add(3)
	c.Add(10)

	data, err := c.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"3":{"quantity":2},"10":{"quantity":1}}`, string(data))

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 10}, back.ProductIDs())
	assert.Equal(t, 2, back.Quantity(3))
}

func TestDecodeDropsInvalidEntries(t *testing.T) {
	c, err := Decode([]byte(`{"x":{"quantity":2},"4":{"quantity":0},"5":{"quantity":1}}`))
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, c.ProductIDs())

	empty, err := Decode(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = Decode([]byte(`[`))
	assert.Error(t, err)
}

func TestTotalUsesCurrentPrices(t *testing.T) {
	repo := catalogtest.NewRepo()
	repo.AddProduct(catalogtest.Product(1, 1, "Rose", "10.00", 5))
	repo.AddProduct(catalogtest.Product(2, 1, "Tulip", "5.00", 5))

	c := New()
	c.Add(1)
	c.Add(1)
	c.Add(2)

	snap, err := Collect(c.Lines(context.Background(), repo, nil))
	require.NoError(t, err)
	assert.Equal(t, "25", snap.Total.String())
	assert.Equal(t, 3, snap.Count)

	repo.SetPrice(2, "6.25")
	snap, err = Collect(c.Lines(context.Background(), repo, nil))
	require.NoError(t, err)
	assert.Equal(t, "26.25", snap.Total.String())
	assert.Equal(t, "6.25", snap.Lines[1].Price.String())
}

// A product deleted after it was added is skipped, not an error.
func TestLinesSkipDeletedProducts(t *testing.T) {
	repo := catalogtest.NewRepo()
	repo.AddProduct(catalogtest.Product(1, 1, "Rose", "10.00", 5))
	repo.AddProduct(catalogtest.Product(2, 1, "Tulip", "5.00", 5))

	c := New()
	c.Add(2)
	c.Add(1)
	repo.Delete(2)

	var skipped []int64
	snap, err := Collect(c.Lines(context.Background(), repo, func(id int64) { skipped = append(skipped, id) }))
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, int64(1), snap.Lines[0].Product.ID)
	assert.Equal(t, []int64{2}, skipped)
	assert.Equal(t, "10", snap.Total.String())
	assert.Equal(t, 2, c.Len())
}

func TestLinesSurfaceStoreFailures(t *testing.T) {
	repo := catalogtest.NewRepo()
	repo.Err = errors.New("connection reset")

	c := New()
	c.Add(1)

	_, err := Collect(c.Lines(context.Background(), repo, nil))
	assert.ErrorContains(t, err, "connection reset")
}

func TestLinesAreOrderedByProductID(t *testing.T) {
	repo := catalogtest.NewRepo()
	for _, id := range []int64{30, 4, 12} {
		repo.AddProduct(catalogtest.Product(id, 1, "P", "1.00", 1))
	}
	c := New()
	c.Add(30)
	c.Add(4)
	c.Add(12)

	var got []int64
	for l, err := range c.Lines(context.Background(), repo, nil) {
		require.NoError(t, err)
		got = append(got, l.Product.ID)
	}
	assert.Equal(t, []int64{4, 12, 30}, got)
}
