package products

import (
	"context"

	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows a product listing.
type ListFilter struct {
	// AvailableOnly keeps only products flagged available, the set shown on
	// the ordering table.
	AvailableOnly bool
}

// Repository is the persistence surface for products. Reads preload the unit
// so Multiplier works on the returned rows.
type Repository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a product repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, product.ID)
}

func (r *repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, product.ID)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Unit").
		Order("name ASC")
	if filter.AvailableOnly {
		query = query.Where("available = ?", true)
	}

	var out []models.Product
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
