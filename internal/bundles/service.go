package bundles

import (
	"context"
	"fmt"

	"github.com/foodkoop/grouporder-backend/pkg/db"
	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderUniqueIndex = "idx_orders_group_product_bundle"

// Service exposes the bundle lifecycle plus the pricing and reconciliation
// operations computed over a bundle's orders.
type Service interface {
	Create(ctx context.Context) (*models.Bundle, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
	List(ctx context.Context) ([]models.Bundle, error)
	Latest(ctx context.Context) (*models.Bundle, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
	Reopen(ctx context.Context, id uuid.UUID) (*models.Bundle, error)

	PriceForGroup(ctx context.Context, bundleID, groupID uuid.UUID, useDelivered bool) (decimal.Decimal, error)
	PriceForAll(ctx context.Context, bundleID uuid.UUID, useDelivered bool) (decimal.Decimal, error)
	HasUnknownPrice(ctx context.Context, bundleID uuid.UUID, groupID *uuid.UUID, useDelivered bool) (bool, error)
	OrderSummary(ctx context.Context, bundleID uuid.UUID) (*OrderSummary, error)
	OutputSummary(ctx context.Context, bundleID uuid.UUID) (*OutputSummary, error)
	GroupOrders(ctx context.Context, bundleID, groupID uuid.UUID) ([]models.Order, error)

	RecordOrder(ctx context.Context, input RecordOrderInput) (*OrderReceipt, error)
	RecordDelivery(ctx context.Context, input RecordDeliveryInput) (*DeliveryReceipt, error)
}

type service struct {
	repo     Repository
	groups   GroupFinder
	products ProductFinder
}

// NewService builds a bundle service with the required dependencies.
func NewService(repo Repository, groups GroupFinder, products ProductFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bundle repository required")
	}
	if groups == nil {
		return nil, fmt.Errorf("group finder required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &service{repo: repo, groups: groups, products: products}, nil
}

func (s *service) Create(ctx context.Context) (*models.Bundle, error) {
	bundle, err := s.repo.Create(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bundle")
	}
	return bundle, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	return s.loadBundle(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.Bundle, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bundles")
	}
	return out, nil
}

func (s *service) Latest(ctx context.Context) (*models.Bundle, error) {
	bundle, err := s.repo.Latest(ctx)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no bundles exist yet")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest bundle")
	}
	return bundle, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete bundle")
	}
	return nil
}

func (s *service) Close(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	return s.setOpen(ctx, id, false)
}

func (s *service) Reopen(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	return s.setOpen(ctx, id, true)
}

func (s *service) setOpen(ctx context.Context, id uuid.UUID, open bool) (*models.Bundle, error) {
	bundle, err := s.repo.SetOpen(ctx, id, open)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bundle state")
	}
	return bundle, nil
}

// PriceForGroup sums the group's orders in the bundle: the ordered amounts,
// or the effective-delivered quantities when useDelivered is set. A group
// without orders prices at zero. Rounding is left to the caller.
func (s *service) PriceForGroup(ctx context.Context, bundleID, groupID uuid.UUID, useDelivered bool) (decimal.Decimal, error) {
	if _, err := s.loadBundle(ctx, bundleID); err != nil {
		return decimal.Zero, err
	}
	orders, err := s.repo.FindOrders(ctx, bundleID, OrderFilter{GroupID: &groupID})
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group orders")
	}
	return TotalCost(orders, useDelivered), nil
}

// PriceForAll is PriceForGroup over every order in the bundle; it equals the
// sum of PriceForGroup across all groups with orders.
func (s *service) PriceForAll(ctx context.Context, bundleID uuid.UUID, useDelivered bool) (decimal.Decimal, error) {
	if _, err := s.loadBundle(ctx, bundleID); err != nil {
		return decimal.Zero, err
	}
	orders, err := s.repo.FindOrders(ctx, bundleID, OrderFilter{})
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle orders")
	}
	return TotalCost(orders, useDelivered), nil
}

// HasUnknownPrice reports whether the bundle (optionally restricted to one
// group) contains an order with positive relevant quantity for a product
// without a price.
func (s *service) HasUnknownPrice(ctx context.Context, bundleID uuid.UUID, groupID *uuid.UUID, useDelivered bool) (bool, error) {
	if _, err := s.loadBundle(ctx, bundleID); err != nil {
		return false, err
	}
	orders, err := s.repo.FindOrders(ctx, bundleID, OrderFilter{GroupID: groupID})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle orders")
	}
	return ContainsUnknownPrice(orders, useDelivered), nil
}

func (s *service) OrderSummary(ctx context.Context, bundleID uuid.UUID) (*OrderSummary, error) {
	if _, err := s.loadBundle(ctx, bundleID); err != nil {
		return nil, err
	}
	orders, err := s.repo.FindOrders(ctx, bundleID, OrderFilter{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle orders")
	}
	summary := SummarizeOrders(orders)
	return &summary, nil
}

func (s *service) OutputSummary(ctx context.Context, bundleID uuid.UUID) (*OutputSummary, error) {
	if _, err := s.loadBundle(ctx, bundleID); err != nil {
		return nil, err
	}
	orders, err := s.repo.FindOrders(ctx, bundleID, OrderFilter{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle orders")
	}
	summary := SummarizeOutput(orders)
	return &summary, nil
}

// GroupOrders returns one group's order rows in a bundle, relations loaded.
func (s *service) GroupOrders(ctx context.Context, bundleID, groupID uuid.UUID) ([]models.Order, error) {
	if _, err := s.loadBundle(ctx, bundleID); err != nil {
		return nil, err
	}
	orders, err := s.repo.FindOrders(ctx, bundleID, OrderFilter{GroupID: &groupID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group orders")
	}
	return orders, nil
}

// RecordOrder upserts the ordered amount for one (group, product, bundle)
// triple. Last write wins; repeated calls overwrite, never add. The bundle
// must be open and the group must have paid its enclosure.
func (s *service) RecordOrder(ctx context.Context, input RecordOrderInput) (*OrderReceipt, error) {
	if input.Amount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	bundle, err := s.loadBundle(ctx, input.BundleID)
	if err != nil {
		return nil, err
	}
	if !bundle.Open {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "bundle is closed")
	}

	group, err := s.loadGroup(ctx, input.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.Enclosure {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group has not paid its enclosure")
	}

	if _, err := s.loadProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}

	key := OrderKey{BundleID: input.BundleID, GroupID: input.GroupID, ProductID: input.ProductID}
	order, err := s.upsertAmount(ctx, key, input.Amount)
	if err != nil {
		return nil, err
	}

	price, err := s.PriceForGroup(ctx, input.BundleID, input.GroupID, false)
	if err != nil {
		return nil, err
	}
	return &OrderReceipt{Order: *order, PriceForGroup: price}, nil
}

// RecordDelivery upserts the delivered quantity. Deliveries are reconciled
// after the bundle closes, so no open check applies.
func (s *service) RecordDelivery(ctx context.Context, input RecordDeliveryInput) (*DeliveryReceipt, error) {
	if input.Delivered < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivered must not be negative")
	}

	if _, err := s.loadBundle(ctx, input.BundleID); err != nil {
		return nil, err
	}
	if _, err := s.loadGroup(ctx, input.GroupID); err != nil {
		return nil, err
	}
	if _, err := s.loadProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}

	key := OrderKey{BundleID: input.BundleID, GroupID: input.GroupID, ProductID: input.ProductID}
	order, err := s.upsertDelivered(ctx, key, input.Delivered)
	if err != nil {
		return nil, err
	}

	productDelivered, err := s.repo.SumDelivered(ctx, input.BundleID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum delivered")
	}
	groupPrice, err := s.PriceForGroup(ctx, input.BundleID, input.GroupID, true)
	if err != nil {
		return nil, err
	}
	totalPrice, err := s.PriceForAll(ctx, input.BundleID, true)
	if err != nil {
		return nil, err
	}
	return &DeliveryReceipt{
		Order:            *order,
		ProductDelivered: productDelivered,
		PriceForGroup:    groupPrice,
		PriceForAll:      totalPrice,
	}, nil
}

// upsertAmount retries once when a concurrent first-write trips the unique
// index; the second attempt lands on the now-existing row.
func (s *service) upsertAmount(ctx context.Context, key OrderKey, amount int64) (*models.Order, error) {
	order, err := s.repo.UpsertAmount(ctx, key, amount)
	if err != nil && db.IsUniqueViolation(err, orderUniqueIndex) {
		order, err = s.repo.UpsertAmount(ctx, key, amount)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert order amount")
	}
	return order, nil
}

func (s *service) upsertDelivered(ctx context.Context, key OrderKey, delivered int64) (*models.Order, error) {
	order, err := s.repo.UpsertDelivered(ctx, key, delivered)
	if err != nil && db.IsUniqueViolation(err, orderUniqueIndex) {
		order, err = s.repo.UpsertDelivered(ctx, key, delivered)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert order delivery")
	}
	return order, nil
}

func (s *service) loadBundle(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	bundle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle")
	}
	return bundle, nil
}

func (s *service) loadGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
	}
	return group, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
