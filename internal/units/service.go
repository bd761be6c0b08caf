package units

import (
	"context"
	"fmt"
	"strings"

	"github.com/foodkoop/grouporder-backend/pkg/db"
	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateUnitInput carries the fields for a new measurement unit.
type CreateUnitInput struct {
	Name      string
	OrderName string
	Divisor   int64
}

// UpdateUnitInput carries a partial unit update. Nil fields are untouched.
type UpdateUnitInput struct {
	Name      *string
	OrderName *string
	Divisor   *int64
}

// Service exposes unit administration.
type Service interface {
	Create(ctx context.Context, input CreateUnitInput) (*models.Unit, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUnitInput) (*models.Unit, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	List(ctx context.Context) ([]models.Unit, error)
}

type service struct {
	repo Repository
}

// NewService builds a unit service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("unit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateUnitInput) (*models.Unit, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit name required")
	}
	divisor := input.Divisor
	if divisor == 0 {
		divisor = 1
	}
	if divisor < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "divisor must be a positive integer")
	}

	unit := &models.Unit{
		ID:        uuid.New(),
		Name:      name,
		OrderName: strings.TrimSpace(input.OrderName),
		Divisor:   divisor,
	}
	created, err := s.repo.Create(ctx, unit)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "unit name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create unit")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUnitInput) (*models.Unit, error) {
	unit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit name required")
		}
		unit.Name = name
	}
	if input.OrderName != nil {
		unit.OrderName = strings.TrimSpace(*input.OrderName)
	}
	if input.Divisor != nil {
		if *input.Divisor < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "divisor must be a positive integer")
		}
		unit.Divisor = *input.Divisor
	}
	updated, err := s.repo.Update(ctx, unit)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "unit name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update unit")
	}
	return updated, nil
}

// Delete refuses to remove a unit that products still reference; repricing
// those products first is up to the operator.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unit products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "unit is still referenced by products").
			WithDetails(map[string]any{"product_count": count})
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete unit")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.Unit, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list units")
	}
	return out, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}
	return unit, nil
}
