package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
)

type stubRepo struct {
	products map[uuid.UUID]*models.Product
}

func newStubRepo() *stubRepo {
	return &stubRepo{products: map[uuid.UUID]*models.Product{}}
}

func (s *stubRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	s.products[product.ID] = product
	return product, nil
}

func (s *stubRepo) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	s.products[product.ID] = product
	return product, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.AvailableOnly && !p.Available {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

type stubUnits struct {
	units map[uuid.UUID]*models.Unit
}

func (s *stubUnits) FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	u, ok := s.units[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func newTestService(t *testing.T) (Service, *stubRepo, *models.Unit) {
	t.Helper()
	repo := newStubRepo()
	unit := &models.Unit{ID: uuid.New(), Name: "liter", Divisor: 1}
	svc, err := NewService(repo, &stubUnits{units: map[uuid.UUID]*models.Unit{unit.ID: unit}})
	require.NoError(t, err)
	return svc, repo, unit
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestServiceCreateProduct(t *testing.T) {
	svc, _, unit := newTestService(t)

	product, err := svc.Create(context.Background(), CreateProductInput{
		Name:   " milk ",
		UnitID: unit.ID,
		Price:  decimalPtr("1.53"),
	})
	require.NoError(t, err)
	assert.Equal(t, "milk", product.Name)
	assert.True(t, product.Available)
	require.NotNil(t, product.Price)
	assert.Equal(t, "1.53", product.Price.StringFixed(2))
}

func TestServiceCreateProductWithoutPrice(t *testing.T) {
	svc, _, unit := newTestService(t)

	product, err := svc.Create(context.Background(), CreateProductInput{Name: "cheese", UnitID: unit.ID})
	require.NoError(t, err)
	assert.Nil(t, product.Price)
	assert.False(t, product.HasPrice())
}

func TestServiceCreateProductValidation(t *testing.T) {
	svc, _, unit := newTestService(t)

	_, err := svc.Create(context.Background(), CreateProductInput{Name: " ", UnitID: unit.ID})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), CreateProductInput{Name: "milk", UnitID: unit.ID, Price: decimalPtr("-1")})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), CreateProductInput{Name: "milk", UnitID: uuid.Nil})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), CreateProductInput{Name: "milk", UnitID: uuid.New()})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceUpdateClearPrice(t *testing.T) {
	svc, _, unit := newTestService(t)

	product, err := svc.Create(context.Background(), CreateProductInput{
		Name:   "milk",
		UnitID: unit.ID,
		Price:  decimalPtr("1.53"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), product.ID, UpdateProductInput{ClearPrice: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Price)
}

func TestServiceUpdateAvailability(t *testing.T) {
	svc, _, unit := newTestService(t)

	product, err := svc.Create(context.Background(), CreateProductInput{Name: "milk", UnitID: unit.ID})
	require.NoError(t, err)

	off := false
	updated, err := svc.Update(context.Background(), product.ID, UpdateProductInput{Available: &off})
	require.NoError(t, err)
	assert.False(t, updated.Available)

	listed, err := svc.List(context.Background(), ListFilter{AvailableOnly: true})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestServiceDeleteUnknownProduct(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Delete(context.Background(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
