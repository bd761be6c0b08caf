package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/foodkoop/grouporder-backend/api/responses"
	"github.com/foodkoop/grouporder-backend/api/validators"
	"github.com/foodkoop/grouporder-backend/internal/activegroup"
	bundlesvc "github.com/foodkoop/grouporder-backend/internal/bundles"
	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/foodkoop/grouporder-backend/pkg/logger"
)

type recordOrderRequest struct {
	GroupID   *string `json:"group_id,omitempty" validate:"omitempty,uuid"`
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Amount    int64   `json:"amount" validate:"min=0"`
}

type recordOrderResponse struct {
	Order         models.Order `json:"order"`
	PriceForGroup string       `json:"price_for_group"`
}

// RecordOrder sets a group's ordered amount for one product in a bundle.
// The group comes from the body when given, otherwise from the caller's
// active-group session. Writing the same triple again overwrites.
func RecordOrder(svc bundlesvc.Service, resolver *activegroup.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		bundleID, err := validators.ParsePathUUID(chi.URLParam(r, "bundleID"), "bundleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload recordOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		groupID, err := orderGroupID(w, r, resolver, payload.GroupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.RecordOrder(r.Context(), bundlesvc.RecordOrderInput{
			BundleID:  bundleID,
			GroupID:   groupID,
			ProductID: productID,
			Amount:    payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recordOrderResponse{
			Order:         receipt.Order,
			PriceForGroup: receipt.PriceForGroup.StringFixed(2),
		})
	}
}

// orderGroupID picks the group for a write: an explicit body group_id wins,
// the session's active group is the fallback.
func orderGroupID(w http.ResponseWriter, r *http.Request, resolver *activegroup.Resolver, bodyGroupID *string) (uuid.UUID, error) {
	if bodyGroupID != nil {
		id, err := uuid.Parse(*bodyGroupID)
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid group id")
		}
		return id, nil
	}
	group, err := resolver.Resolve(w, r)
	if err != nil {
		return uuid.Nil, err
	}
	if group == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "no group selected")
	}
	return group.ID, nil
}

type recordDeliveryRequest struct {
	GroupID   string `json:"group_id" validate:"required,uuid"`
	ProductID string `json:"product_id" validate:"required,uuid"`
	Delivered int64  `json:"delivered" validate:"min=0"`
}

type recordDeliveryResponse struct {
	Order            models.Order `json:"order"`
	ProductDelivered int64        `json:"product_delivered"`
	PriceForGroup    string       `json:"price_for_group"`
	PriceForAll      string       `json:"price_for_all"`
}

// RecordDelivery sets the delivered quantity for one order row and reports
// the refreshed reconciliation figures.
func RecordDelivery(svc bundlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		bundleID, err := validators.ParsePathUUID(chi.URLParam(r, "bundleID"), "bundleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload recordDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := uuid.Parse(payload.GroupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid group id"))
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		receipt, err := svc.RecordDelivery(r.Context(), bundlesvc.RecordDeliveryInput{
			BundleID:  bundleID,
			GroupID:   groupID,
			ProductID: productID,
			Delivered: payload.Delivered,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recordDeliveryResponse{
			Order:            receipt.Order,
			ProductDelivered: receipt.ProductDelivered,
			PriceForGroup:    receipt.PriceForGroup.StringFixed(2),
			PriceForAll:      receipt.PriceForAll.StringFixed(2),
		})
	}
}

// OrderSummary aggregates a bundle's orders per product for the distributor
// order sheet.
func OrderSummary(svc bundlesvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		summary, err := svc.OrderSummary(r.Context(), bundleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// OutputSummary renders the delivery-reconciliation view: every group's
// rows and cost, per-product delivered totals, and the grand total.
func OutputSummary(svc bundlesvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		summary, err := svc.OutputSummary(r.Context(), bundleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
