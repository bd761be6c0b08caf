package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/foodkoop/grouporder-backend/api/responses"
	"github.com/foodkoop/grouporder-backend/api/validators"
	"github.com/foodkoop/grouporder-backend/internal/activegroup"
	bundlesvc "github.com/foodkoop/grouporder-backend/internal/bundles"
	productsvc "github.com/foodkoop/grouporder-backend/internal/products"
	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/foodkoop/grouporder-backend/pkg/logger"
)

// ListBundles returns all bundles, newest first.
func ListBundles(svc bundlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		bundles, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bundles)
	}
}

// CreateBundle opens a fresh, empty bundle.
func CreateBundle(svc bundlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		bundle, err := svc.Create(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bundle)
	}
}

// LatestBundle returns the most recently started bundle.
func LatestBundle(svc bundlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		bundle, err := svc.Latest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bundle)
	}
}

type bundleProductRow struct {
	Product models.Product `json:"product"`
	Order   *models.Order  `json:"order,omitempty"`
}

type bundleDetailResponse struct {
	Bundle          models.Bundle      `json:"bundle"`
	ActiveGroup     *models.Group      `json:"active_group,omitempty"`
	Products        []bundleProductRow `json:"products"`
	Costs           string             `json:"costs"`
	HasUnknownPrice bool               `json:"has_unknown_price"`
}

// GetBundle renders the ordering view of a bundle: the available products,
// the active group's current order rows, and the group's running cost. The
// active group comes from the "group" query parameter or the caller's
// session.
func GetBundle(svc bundlesvc.Service, products productsvc.Service, resolver *activegroup.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || products == nil || resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		bundleID, err := validators.ParsePathUUID(chi.URLParam(r, "bundleID"), "bundleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bundle, err := svc.Get(r.Context(), bundleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := resolver.Resolve(w, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		available, err := products.List(r.Context(), productsvc.ListFilter{AvailableOnly: true})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := bundleDetailResponse{
			Bundle:   *bundle,
			Products: make([]bundleProductRow, 0, len(available)),
			Costs:    "0.00",
		}

		var groupOrders []models.Order
		if group != nil {
			resp.ActiveGroup = group
			groupOrders, err = svc.GroupOrders(r.Context(), bundleID, group.ID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			resp.Costs = bundlesvc.TotalCost(groupOrders, false).StringFixed(2)
			resp.HasUnknownPrice = bundlesvc.ContainsUnknownPrice(groupOrders, false)
		}

		ordersByProduct := make(map[uuid.UUID]*models.Order, len(groupOrders))
		for i := range groupOrders {
			ordersByProduct[groupOrders[i].ProductID] = &groupOrders[i]
		}
		for _, product := range available {
			resp.Products = append(resp.Products, bundleProductRow{
				Product: product,
				Order:   ordersByProduct[product.ID],
			})
		}

		responses.WriteSuccess(w, resp)
	}
}

// DeleteBundle removes a bundle and all of its orders.
func DeleteBundle(svc bundlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "bundleID"), "bundleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}

// CloseBundle ends the ordering phase of a bundle.
func CloseBundle(svc bundlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return setBundleOpen(svc, logg, false)
}

// ReopenBundle reverts a close, admitting order changes again.
func ReopenBundle(svc bundlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return setBundleOpen(svc, logg, true)
}

func setBundleOpen(svc bundlesvc.Service, logg *logger.Logger, open bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "bundleID"), "bundleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var bundle *models.Bundle
		if open {
			bundle, err = svc.Reopen(r.Context(), id)
		} else {
			bundle, err = svc.Close(r.Context(), id)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bundle)
	}
}

type bundlePriceResponse struct {
	Price           string `json:"price"`
	HasUnknownPrice bool   `json:"has_unknown_price"`
}

// BundlePrice reports the bundle's cost: for one group when ?group is given,
// otherwise across all groups. ?delivered=true switches from ordered amounts
// to effective-delivered quantities. The unknown-price flag warns when the
// figure silently omits unpriced products.
func BundlePrice(svc bundlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}
		bundleID, err := validators.ParsePathUUID(chi.URLParam(r, "bundleID"), "bundleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := validators.ParseQueryUUID(r, "group")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		useDelivered, err := validators.ParseQueryBool(r, "delivered", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var price string
		if groupID != nil {
			value, err := svc.PriceForGroup(r.Context(), bundleID, *groupID, useDelivered)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			price = value.StringFixed(2)
		} else {
			value, err := svc.PriceForAll(r.Context(), bundleID, useDelivered)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			price = value.StringFixed(2)
		}

		unknown, err := svc.HasUnknownPrice(r.Context(), bundleID, groupID, useDelivered)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bundlePriceResponse{
			Price:           price,
			HasUnknownPrice: unknown,
		})
	}
}
