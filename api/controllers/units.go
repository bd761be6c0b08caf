package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodkoop/grouporder-backend/api/responses"
	"github.com/foodkoop/grouporder-backend/api/validators"
	unitsvc "github.com/foodkoop/grouporder-backend/internal/units"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/foodkoop/grouporder-backend/pkg/logger"
)

type createUnitRequest struct {
	Name      string `json:"name" validate:"required"`
	OrderName string `json:"order_name"`
	Divisor   int64  `json:"divisor" validate:"omitempty,min=1"`
}

type updateUnitRequest struct {
	Name      *string `json:"name,omitempty"`
	OrderName *string `json:"order_name,omitempty"`
	Divisor   *int64  `json:"divisor,omitempty" validate:"omitempty,min=1"`
}

// ListUnits returns all measurement units sorted by name.
func ListUnits(svc unitsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unit service unavailable"))
			return
		}
		units, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, units)
	}
}

// CreateUnit registers a new measurement unit.
func CreateUnit(svc unitsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unit service unavailable"))
			return
		}
		var payload createUnitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unit, err := svc.Create(r.Context(), unitsvc.CreateUnitInput{
			Name:      payload.Name,
			OrderName: payload.OrderName,
			Divisor:   payload.Divisor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, unit)
	}
}

// UpdateUnit applies a partial update to a unit.
func UpdateUnit(svc unitsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unit service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "unitID"), "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateUnitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unit, err := svc.Update(r.Context(), id, unitsvc.UpdateUnitInput{
			Name:      payload.Name,
			OrderName: payload.OrderName,
			Divisor:   payload.Divisor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unit)
	}
}

// DeleteUnit removes a unit that no product references anymore.
func DeleteUnit(svc unitsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unit service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "unitID"), "unitID")
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
