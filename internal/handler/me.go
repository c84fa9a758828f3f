package handler

import (
	"net/http"

	"github.com/mynurseshift/backend/internal/auth"
	"github.com/mynurseshift/backend/internal/domain"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "profile retrieved", principalFrom(r))
}

// UpdateMyInfo edits the caller's own profile. Role, service and supervisor
// are not part of the request and are rejected as unknown fields.
func (h *Handler) UpdateMyInfo(w http.ResponseWriter, r *http.Request) {
	me := principalFrom(r)

	var req struct {
		FirstName    *string                           `json:"firstName" validate:"omitempty,min=1,max=100"`
		LastName     *string                           `json:"lastName" validate:"omitempty,min=1,max=100"`
		Phone        domain.Nullable[string]           `json:"phone"`
		Position     domain.Nullable[string]           `json:"position"`
		WorkingHours domain.Nullable[domain.JSONValue] `json:"workingHours"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}
	if err := h.validateContact(req.Phone, req.Position); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	account, err := h.lifecycle.UpdateProfile(r.Context(), me, me.ID, auth.ProfileUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Position:     req.Position,
		WorkingHours: req.WorkingHours,
	})
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "profile updated", account)
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if err := h.lifecycle.ChangePassword(r.Context(), principalFrom(r), req.OldPassword, req.NewPassword); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "password updated", nil)
}
