package handler

import (
	"net/http"
	"strings"

	"github.com/mynurseshift/backend/internal/domain"
	"github.com/mynurseshift/backend/internal/utils"
)

func (h *Handler) ListPoles(w http.ResponseWriter, r *http.Request) {
	poles, err := h.store.ListPoles(r.Context())
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "poles retrieved", poles)
}

func (h *Handler) GetPole(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	pole, err := h.store.GetPoleByID(r.Context(), id)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "pole retrieved", pole)
}

func (h *Handler) CreatePole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required,max=200"`
		Code        string `json:"code" validate:"required"`
		Description string `json:"description" validate:"max=2000"`
		Status      string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if err := utils.ValidatePoleCode(code); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	pole := &domain.Pole{
		Name:        req.Name,
		Code:        code,
		Description: req.Description,
		Status:      domain.UnitStatusActive,
	}
	if req.Status != "" {
		pole.Status = domain.UnitStatus(req.Status)
	}

	if err := h.store.CreatePole(r.Context(), pole); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.createdResponse(w, r, "pole created", pole)
}

func (h *Handler) UpdatePole(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	var req struct {
		Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
		Code        *string `json:"code"`
		Description *string `json:"description" validate:"omitempty,max=2000"`
		Status      *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	pole, err := h.store.GetPoleByID(r.Context(), id)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if req.Name != nil {
		pole.Name = *req.Name
	}
	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		if err := utils.ValidatePoleCode(code); err != nil {
			h.errorResponse(w, r, err)
			return
		}
		pole.Code = code
	}
	if req.Description != nil {
		pole.Description = *req.Description
	}
	if req.Status != nil {
		pole.Status = domain.UnitStatus(*req.Status)
	}

	if err := h.store.UpdatePole(r.Context(), pole); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "pole updated", pole)
}

func (h *Handler) DeletePole(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if err := h.store.DeletePole(r.Context(), id); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "pole deleted", nil)
}
