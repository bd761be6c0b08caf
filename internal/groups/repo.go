package groups

import (
	"context"

	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the persistence surface for ordering groups.
type Repository interface {
	Create(ctx context.Context, group *models.Group) (*models.Group, error)
	Update(ctx context.Context, group *models.Group) (*models.Group, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a group repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, group *models.Group) (*models.Group, error) {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

func (r *repository) Update(ctx context.Context, group *models.Group) (*models.Group, error) {
	if err := r.db.WithContext(ctx).Save(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Group{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) List(ctx context.Context) ([]models.Group, error) {
	var out []models.Group
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
