package bundles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/foodkoop/grouporder-backend/pkg/db/models"
)

func setupBundlesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	units := `
CREATE TABLE IF NOT EXISTS units (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  order_name TEXT NOT NULL DEFAULT '',
  divisor INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  unit_id TEXT NOT NULL,
  price NUMERIC,
  available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	groups := `
CREATE TABLE IF NOT EXISTS groups (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  enclosure INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	bundles := `
CREATE TABLE IF NOT EXISTS bundles (
  id TEXT PRIMARY KEY,
  start DATETIME,
  open INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  group_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  bundle_id TEXT NOT NULL,
  amount INTEGER NOT NULL DEFAULT 0,
  delivered INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`
	uniqueIdx := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_group_product_bundle
  ON orders (group_id, product_id, bundle_id);`

	require.NoError(t, db.Exec(units).Error)
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(groups).Error)
	require.NoError(t, db.Exec(bundles).Error)
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(uniqueIdx).Error)
	return db
}

func seedRepoCatalog(t *testing.T, db *gorm.DB) (*models.Group, *models.Product) {
	t.Helper()

	liter := newUnit("liter", 1)
	require.NoError(t, db.Create(liter).Error)

	milk := newProduct("milk", liter, "1.53")
	require.NoError(t, db.Create(milk).Error)

	group := &models.Group{ID: uuid.New(), Name: "Alpha", Enclosure: true}
	require.NoError(t, db.Create(group).Error)
	return group, milk
}

func TestRepositoryUpsertAmountLastWriteWins(t *testing.T) {
	db := setupBundlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	group, milk := seedRepoCatalog(t, db)
	bundle, err := repo.Create(ctx)
	require.NoError(t, err)

	key := OrderKey{BundleID: bundle.ID, GroupID: group.ID, ProductID: milk.ID}

	first, err := repo.UpsertAmount(ctx, key, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.Amount)

	second, err := repo.UpsertAmount(ctx, key, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), second.Amount)
	assert.Equal(t, first.ID, second.ID, "conflict path must keep the existing row")

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Where("bundle_id = ?", bundle.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryUpsertAmountPreloadsRelations(t *testing.T) {
	db := setupBundlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	group, milk := seedRepoCatalog(t, db)
	bundle, err := repo.Create(ctx)
	require.NoError(t, err)

	order, err := repo.UpsertAmount(ctx, OrderKey{BundleID: bundle.ID, GroupID: group.ID, ProductID: milk.ID}, 2)
	require.NoError(t, err)
	require.NotNil(t, order.Product)
	require.NotNil(t, order.Product.Unit)
	require.NotNil(t, order.Group)
	assert.Equal(t, "milk", order.Product.Name)
	assert.Equal(t, "liter", order.Product.Unit.Name)
}

func TestRepositoryUpsertDeliveredCreatesRowWithZeroAmount(t *testing.T) {
	db := setupBundlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	group, milk := seedRepoCatalog(t, db)
	bundle, err := repo.Create(ctx)
	require.NoError(t, err)

	// The group never ordered milk; the delivery write still creates a row.
	order, err := repo.UpsertDelivered(ctx, OrderKey{BundleID: bundle.ID, GroupID: group.ID, ProductID: milk.ID}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), order.Amount)
	require.NotNil(t, order.Delivered)
	assert.Equal(t, int64(2), *order.Delivered)
}

func TestRepositoryUpsertDeliveredKeepsAmount(t *testing.T) {
	db := setupBundlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	group, milk := seedRepoCatalog(t, db)
	bundle, err := repo.Create(ctx)
	require.NoError(t, err)

	key := OrderKey{BundleID: bundle.ID, GroupID: group.ID, ProductID: milk.ID}
	_, err = repo.UpsertAmount(ctx, key, 3)
	require.NoError(t, err)

	order, err := repo.UpsertDelivered(ctx, key, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(3), order.Amount)
	require.NotNil(t, order.Delivered)
	assert.Equal(t, int64(4), *order.Delivered)
}

func TestRepositorySumDeliveredIgnoresNullRows(t *testing.T) {
	db := setupBundlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	group, milk := seedRepoCatalog(t, db)
	other := &models.Group{ID: uuid.New(), Name: "Beta", Enclosure: true}
	require.NoError(t, db.Create(other).Error)

	bundle, err := repo.Create(ctx)
	require.NoError(t, err)

	_, err = repo.UpsertAmount(ctx, OrderKey{BundleID: bundle.ID, GroupID: group.ID, ProductID: milk.ID}, 3)
	require.NoError(t, err)
	_, err = repo.UpsertDelivered(ctx, OrderKey{BundleID: bundle.ID, GroupID: other.ID, ProductID: milk.ID}, 5)
	require.NoError(t, err)

	// Alpha's row has no delivered value yet and must not fall back to its
	// ordered amount in this sum.
	total, err := repo.SumDelivered(ctx, bundle.ID, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestRepositoryFindOrdersFilters(t *testing.T) {
	db := setupBundlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	group, milk := seedRepoCatalog(t, db)
	other := &models.Group{ID: uuid.New(), Name: "Beta", Enclosure: true}
	require.NoError(t, db.Create(other).Error)

	bundle, err := repo.Create(ctx)
	require.NoError(t, err)
	otherBundle, err := repo.Create(ctx)
	require.NoError(t, err)

	_, err = repo.UpsertAmount(ctx, OrderKey{BundleID: bundle.ID, GroupID: group.ID, ProductID: milk.ID}, 3)
	require.NoError(t, err)
	_, err = repo.UpsertAmount(ctx, OrderKey{BundleID: bundle.ID, GroupID: other.ID, ProductID: milk.ID}, 2)
	require.NoError(t, err)
	_, err = repo.UpsertAmount(ctx, OrderKey{BundleID: otherBundle.ID, GroupID: group.ID, ProductID: milk.ID}, 9)
	require.NoError(t, err)

	all, err := repo.FindOrders(ctx, bundle.ID, OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := repo.FindOrders(ctx, bundle.ID, OrderFilter{GroupID: &group.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(3), mine[0].Amount)
}

func TestRepositoryDeleteBundle(t *testing.T) {
	db := setupBundlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	bundle, err := repo.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, bundle.ID))
	assert.Equal(t, gorm.ErrRecordNotFound, repo.Delete(ctx, bundle.ID))

	_, err = repo.FindByID(ctx, bundle.ID)
	assert.Equal(t, gorm.ErrRecordNotFound, err)
}

func TestRepositorySetOpen(t *testing.T) {
	db := setupBundlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	bundle, err := repo.Create(ctx)
	require.NoError(t, err)
	require.True(t, bundle.Open)

	closed, err := repo.SetOpen(ctx, bundle.ID, false)
	require.NoError(t, err)
	assert.False(t, closed.Open)

	_, err = repo.SetOpen(ctx, uuid.New(), false)
	assert.Equal(t, gorm.ErrRecordNotFound, err)
}
