package bundles

import (
	"context"
	"time"

	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bundle repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context) (*models.Bundle, error) {
	bundle := models.Bundle{ID: uuid.New(), Open: true}
	if err := r.db.WithContext(ctx).Create(&bundle).Error; err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&bundle).Error
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *repository) List(ctx context.Context) ([]models.Bundle, error) {
	var out []models.Bundle
	err := r.db.WithContext(ctx).
		Order("start DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Latest(ctx context.Context) (*models.Bundle, error) {
	var bundle models.Bundle
	err := r.db.WithContext(ctx).
		Order("start DESC").
		First(&bundle).Error
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Bundle{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetOpen(ctx context.Context, id uuid.UUID, open bool) (*models.Bundle, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Bundle{}).
		Where("id = ?", id).
		Update("open", open)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *repository) FindOrders(ctx context.Context, bundleID uuid.UUID, filter OrderFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Product.Unit").
		Preload("Group").
		Where("bundle_id = ?", bundleID)
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}

	var orders []models.Order
	if err := query.Order("created_at ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpsertAmount writes the ordered amount for the unique (group, product,
// bundle) row, creating it when absent. The storage-level unique index makes
// concurrent first-writes converge on a single row.
func (r *repository) UpsertAmount(ctx context.Context, key OrderKey, amount int64) (*models.Order, error) {
	return r.upsert(ctx, key, map[string]any{"amount": amount, "updated_at": time.Now()}, func(o *models.Order) {
		o.Amount = amount
	})
}

// UpsertDelivered writes the delivered quantity, creating the row with a zero
// amount when the group never ordered the product.
func (r *repository) UpsertDelivered(ctx context.Context, key OrderKey, delivered int64) (*models.Order, error) {
	return r.upsert(ctx, key, map[string]any{"delivered": delivered, "updated_at": time.Now()}, func(o *models.Order) {
		o.Delivered = &delivered
	})
}

func (r *repository) upsert(ctx context.Context, key OrderKey, assignments map[string]any, apply func(*models.Order)) (*models.Order, error) {
	order := models.Order{
		ID:        uuid.New(),
		GroupID:   key.GroupID,
		ProductID: key.ProductID,
		BundleID:  key.BundleID,
	}
	apply(&order)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "group_id"},
				{Name: "product_id"},
				{Name: "bundle_id"},
			},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(&order).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller sees the canonical row (the conflict path keeps
	// the existing primary key).
	var out models.Order
	err = r.db.WithContext(ctx).
		Preload("Product.Unit").
		Preload("Group").
		Where("group_id = ? AND product_id = ? AND bundle_id = ?", key.GroupID, key.ProductID, key.BundleID).
		First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SumDelivered totals the raw delivered column for one product across all
// groups in a bundle. Rows whose delivered value is still null are counted as
// zero here, not as their ordered amount; the effective-delivered fallback
// applies only to cost aggregation.
func (r *repository) SumDelivered(ctx context.Context, bundleID, productID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(delivered), 0)").
		Where("bundle_id = ? AND product_id = ?", bundleID, productID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
