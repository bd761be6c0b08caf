package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/foodkoop/grouporder-backend/pkg/db"
	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitFinder resolves the unit a product is priced in.
type UnitFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
}

// CreateProductInput carries the fields for a new product. A nil price means
// the price is not known yet.
type CreateProductInput struct {
	Name      string
	UnitID    uuid.UUID
	Price     *decimal.Decimal
	Available *bool
}

// UpdateProductInput carries a partial product update. Nil fields are
// untouched; ClearPrice removes a previously known price.
type UpdateProductInput struct {
	Name       *string
	UnitID     *uuid.UUID
	Price      *decimal.Decimal
	ClearPrice bool
	Available  *bool
}

// Service exposes product administration.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
}

type service struct {
	repo  Repository
	units UnitFinder
}

// NewService builds a product service.
func NewService(repo Repository, units UnitFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if units == nil {
		return nil, fmt.Errorf("unit finder required")
	}
	return &service{repo: repo, units: units}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if err := s.ensureUnit(ctx, input.UnitID); err != nil {
		return nil, err
	}

	available := true
	if input.Available != nil {
		available = *input.Available
	}
	product := &models.Product{
		ID:        uuid.New(),
		Name:      name,
		UnitID:    input.UnitID,
		Price:     input.Price,
		Available: available,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		product.Name = name
	}
	if input.UnitID != nil {
		if err := s.ensureUnit(ctx, *input.UnitID); err != nil {
			return nil, err
		}
		product.UnitID = *input.UnitID
		product.Unit = nil
	}
	switch {
	case input.ClearPrice:
		product.Price = nil
	case input.Price != nil:
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		product.Price = input.Price
	}
	if input.Available != nil {
		product.Available = *input.Available
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	out, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return out, nil
}

func (s *service) ensureUnit(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit id required")
	}
	if _, err := s.units.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
