package bundles

import (
	"context"

	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderKey identifies the unique (group, product, bundle) order row.
type OrderKey struct {
	BundleID  uuid.UUID
	GroupID   uuid.UUID
	ProductID uuid.UUID
}

// OrderFilter narrows an order query within a bundle.
type OrderFilter struct {
	GroupID   *uuid.UUID
	ProductID *uuid.UUID
}

// Repository is the persistence surface the bundle service depends on. Order
// reads preload the product (with unit) and group relations so the pricing
// functions can run without further queries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context) (*models.Bundle, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
	List(ctx context.Context) ([]models.Bundle, error)
	Latest(ctx context.Context) (*models.Bundle, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetOpen(ctx context.Context, id uuid.UUID, open bool) (*models.Bundle, error)

	FindOrders(ctx context.Context, bundleID uuid.UUID, filter OrderFilter) ([]models.Order, error)
	UpsertAmount(ctx context.Context, key OrderKey, amount int64) (*models.Order, error)
	UpsertDelivered(ctx context.Context, key OrderKey, delivered int64) (*models.Order, error)
	SumDelivered(ctx context.Context, bundleID, productID uuid.UUID) (int64, error)
}

// GroupFinder resolves groups referenced by order writes.
type GroupFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
}

// ProductFinder resolves products referenced by order writes.
type ProductFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}
