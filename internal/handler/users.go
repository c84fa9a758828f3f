package handler

import (
	"net/http"

	"github.com/mynurseshift/backend/internal/auth"
	"github.com/mynurseshift/backend/internal/domain"
)

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request, status *domain.Status) {
	scope, err := h.gate.Scope(r.Context(), principalFrom(r))
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	accounts, err := h.store.ListAccounts(r.Context(), domain.AccountFilter{
		ServiceID: scope.ServiceID(),
		Status:    status,
	})
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "accounts retrieved", accounts)
}

// ListUsers lists the accounts in the caller's scope, optionally by ?status=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var status *domain.Status
	if code := r.URL.Query().Get("status"); code != "" {
		s, err := domain.ParseStatus(code)
		if err != nil {
			h.errorResponse(w, r, err)
			return
		}
		status = &s
	}

	h.listAccounts(w, r, status)
}

func (h *Handler) ListPendingUsers(w http.ResponseWriter, r *http.Request) {
	pending := domain.StatusPending
	h.listAccounts(w, r, &pending)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req newAccountRequest
	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	account, err := h.lifecycle.Create(r.Context(), principalFrom(r), req.toNewAccount())
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.createdResponse(w, r, "account created", account)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "account retrieved", accountInfoFrom(r))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        *string                           `json:"email" validate:"omitempty,email"`
		FirstName    *string                           `json:"firstName" validate:"omitempty,min=1,max=100"`
		LastName     *string                           `json:"lastName" validate:"omitempty,min=1,max=100"`
		Phone        domain.Nullable[string]           `json:"phone"`
		Position     domain.Nullable[string]           `json:"position"`
		WorkingHours domain.Nullable[domain.JSONValue] `json:"workingHours"`
		Role         *domain.Role                      `json:"role"`
		ServiceID    domain.Nullable[int64]            `json:"serviceId"`
		SupervisorID domain.Nullable[int64]            `json:"supervisorId"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}
	if err := h.validateContact(req.Phone, req.Position); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	account, err := h.lifecycle.UpdateProfile(r.Context(), principalFrom(r), accountInfoFrom(r).ID, auth.ProfileUpdate{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Position:     req.Position,
		WorkingHours: req.WorkingHours,
		Role:         req.Role,
		ServiceID:    req.ServiceID,
		SupervisorID: req.SupervisorID,
	})
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "account updated", account)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.lifecycle.Delete(r.Context(), principalFrom(r), accountInfoFrom(r).ID); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "account deleted", nil)
}

func (h *Handler) DecideUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Approved     *bool  `json:"approved" validate:"required"`
		ApproverName string `json:"approverName" validate:"max=200"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	account, err := h.lifecycle.Decide(r.Context(), principalFrom(r), accountInfoFrom(r).ID, *req.Approved, req.ApproverName)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "decision recorded", account)
}

func (h *Handler) SetUserPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if err := h.lifecycle.SetPassword(r.Context(), principalFrom(r), accountInfoFrom(r).ID, req.Password); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "password updated", nil)
}

func (h *Handler) NotifyUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    string           `json:"type" validate:"required,max=200"`
		Details domain.JSONValue `json:"details"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if err := h.lifecycle.Notify(r.Context(), principalFrom(r), accountInfoFrom(r).ID, req.Type, req.Details); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "notification sent", nil)
}
