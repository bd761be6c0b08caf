package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foodkoop/grouporder-backend/api/responses"
	"github.com/foodkoop/grouporder-backend/api/validators"
	productsvc "github.com/foodkoop/grouporder-backend/internal/products"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/foodkoop/grouporder-backend/pkg/logger"
)

type createProductRequest struct {
	Name      string           `json:"name" validate:"required"`
	UnitID    string           `json:"unit_id" validate:"required,uuid"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Available *bool            `json:"available,omitempty"`
}

type updateProductRequest struct {
	Name       *string          `json:"name,omitempty"`
	UnitID     *string          `json:"unit_id,omitempty" validate:"omitempty,uuid"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	ClearPrice bool             `json:"clear_price,omitempty"`
	Available  *bool            `json:"available,omitempty"`
}

// ListProducts returns products sorted by name; ?available=true narrows to
// the orderable set.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		availableOnly, err := validators.ParseQueryBool(r, "available", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := svc.List(r.Context(), productsvc.ListFilter{AvailableOnly: availableOnly})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// CreateProduct registers a new product.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitID, err := uuid.Parse(payload.UnitID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit id"))
			return
		}
		product, err := svc.Create(r.Context(), productsvc.CreateProductInput{
			Name:      payload.Name,
			UnitID:    unitID,
			Price:     payload.Price,
			Available: payload.Available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct applies a partial update; clear_price removes a price that
// turned out to be wrong.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.UpdateProductInput{
			Name:       payload.Name,
			Price:      payload.Price,
			ClearPrice: payload.ClearPrice,
			Available:  payload.Available,
		}
		if payload.UnitID != nil {
			unitID, err := uuid.Parse(*payload.UnitID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit id"))
				return
			}
			input.UnitID = &unitID
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes a product and its orders.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
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
