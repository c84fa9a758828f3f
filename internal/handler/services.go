package handler

import (
	"net/http"
	"strconv"

	"github.com/mynurseshift/backend/internal/domain"
	"github.com/mynurseshift/backend/internal/utils"
)

// ListServices lists all services, or those of one pole with ?poleId=.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	var poleID *int64
	if raw := r.URL.Query().Get("poleId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.errorResponse(w, r, domain.NewError(domain.KindValidationFailed, "invalid poleId"))
			return
		}
		poleID = &id
	}

	services, err := h.store.ListServices(r.Context(), poleID)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "services retrieved", services)
}

func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	service, err := h.store.GetServiceByID(r.Context(), id)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "service retrieved", service)
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required,max=200"`
		Description string `json:"description" validate:"max=2000"`
		Capacity    int32  `json:"capacity"`
		Status      string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
		PoleID      int64  `json:"poleId" validate:"required,gt=0"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}
	if err := utils.ValidateServiceCapacity(req.Capacity); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	service := &domain.Service{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Status:      domain.UnitStatusActive,
		PoleID:      req.PoleID,
	}
	if req.Status != "" {
		service.Status = domain.UnitStatus(req.Status)
	}

	if err := h.store.CreateService(r.Context(), service); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.createdResponse(w, r, "service created", service)
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	var req struct {
		Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
		Description *string `json:"description" validate:"omitempty,max=2000"`
		Capacity    *int32  `json:"capacity"`
		Status      *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
		PoleID      *int64  `json:"poleId" validate:"omitempty,gt=0"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	service, err := h.store.GetServiceByID(r.Context(), id)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if req.Name != nil {
		service.Name = *req.Name
	}
	if req.Description != nil {
		service.Description = *req.Description
	}
	if req.Capacity != nil {
		if err := utils.ValidateServiceCapacity(*req.Capacity); err != nil {
			h.errorResponse(w, r, err)
			return
		}
		service.Capacity = *req.Capacity
	}
	if req.Status != nil {
		service.Status = domain.UnitStatus(*req.Status)
	}
	if req.PoleID != nil && *req.PoleID != service.PoleID {
		service.PoleID = *req.PoleID
		service.Pole = nil
	}

	if err := h.store.UpdateService(r.Context(), service); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "service updated", service)
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if err := h.store.DeleteService(r.Context(), id); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "service deleted", nil)
}
