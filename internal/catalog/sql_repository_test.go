package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *SQLRepository {
	// Use in-memory database for tests
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(db, "sqlite", "./migrations"))

	return NewSQLRepository(db)
}

func TestGetProduct_ReturnsSeededProduct(t *testing.T) {
	repo := setupTestDB(t)

	product, err := repo.GetProduct(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Blue Code Gloves", product.Name)
	assert.Equal(t, 10.00, product.Price)
	assert.Equal(t, "Gloves", product.Type)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	product, err := repo.GetProduct(context.Background(), 999)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, product)
}

func TestGetDeliveryMethod_ReturnsSeededMethod(t *testing.T) {
	repo := setupTestDB(t)

	method, err := repo.GetDeliveryMethod(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "UPS2", method.ShortName)
	assert.Equal(t, 5.00, method.Price)
}

func TestGetDeliveryMethod_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	method, err := repo.GetDeliveryMethod(context.Background(), 999)
	assert.ErrorIs(t, err, ErrDeliveryMethodNotFound)
	assert.Nil(t, method)
}

func TestListDeliveryMethods_OrderedByPriceDesc(t *testing.T) {
	repo := setupTestDB(t)

	methods, err := repo.ListDeliveryMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 4)
	assert.Equal(t, "UPS1", methods[0].ShortName)
	assert.Equal(t, "FREE", methods[3].ShortName)
}

func TestGetProduct_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetProduct(ctx, 1)
	assert.Error(t, err)
}
