package units

import (
	"context"

	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the persistence surface for measurement units.
type Repository interface {
	Create(ctx context.Context, unit *models.Unit) (*models.Unit, error)
	Update(ctx context.Context, unit *models.Unit) (*models.Unit, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	List(ctx context.Context) ([]models.Unit, error)
	CountProducts(ctx context.Context, unitID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a unit repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, unit *models.Unit) (*models.Unit, error) {
	if err := r.db.WithContext(ctx).Create(unit).Error; err != nil {
		return nil, err
	}
	return unit, nil
}

func (r *repository) Update(ctx context.Context, unit *models.Unit) (*models.Unit, error) {
	if err := r.db.WithContext(ctx).Save(unit).Error; err != nil {
		return nil, err
	}
	return unit, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Unit{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) List(ctx context.Context) ([]models.Unit, error) {
	var out []models.Unit
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) CountProducts(ctx context.Context, unitID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("unit_id = ?", unitID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
