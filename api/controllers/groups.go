package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodkoop/grouporder-backend/api/responses"
	"github.com/foodkoop/grouporder-backend/api/validators"
	groupsvc "github.com/foodkoop/grouporder-backend/internal/groups"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/foodkoop/grouporder-backend/pkg/logger"
)

type createGroupRequest struct {
	Name      string `json:"name" validate:"required"`
	Enclosure bool   `json:"enclosure"`
}

type updateGroupRequest struct {
	Name      *string `json:"name,omitempty"`
	Enclosure *bool   `json:"enclosure,omitempty"`
}

// ListGroups returns all ordering groups sorted by name.
func ListGroups(svc groupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group service unavailable"))
			return
		}
		groups, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, groups)
	}
}

// CreateGroup registers a new ordering group.
func CreateGroup(svc groupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group service unavailable"))
			return
		}
		var payload createGroupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := svc.Create(r.Context(), groupsvc.CreateGroupInput{
			Name:      payload.Name,
			Enclosure: payload.Enclosure,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, group)
	}
}

// UpdateGroup applies a partial update to a group.
func UpdateGroup(svc groupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "groupID"), "groupID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateGroupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := svc.Update(r.Context(), id, groupsvc.UpdateGroupInput{
			Name:      payload.Name,
			Enclosure: payload.Enclosure,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, group)
	}
}

// DeleteGroup removes a group and its orders.
func DeleteGroup(svc groupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "groupID"), "groupID")
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
