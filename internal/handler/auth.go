package handler

import (
	"net/http"
	"time"

	"github.com/mynurseshift/backend/internal/auth"
	"github.com/mynurseshift/backend/internal/domain"
)

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     h.config.JWT.CookieName,
		Value:    value,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}

	if h.config.IsProduction() {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}
	return cookie
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	result, err := h.verifier.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(result.Token, result.ExpiresAt))

	h.successResponse(w, r, "logged in", result)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", time.Now().Add(-time.Hour)))

	h.successResponse(w, r, "logged out", nil)
}

type newAccountRequest struct {
	Email        string           `json:"email" validate:"required,email"`
	Password     string           `json:"password" validate:"required,min=8"`
	FirstName    string           `json:"firstName" validate:"required,max=100"`
	LastName     string           `json:"lastName" validate:"required,max=100"`
	Phone        *string          `json:"phone" validate:"omitempty,max=32"`
	Position     *string          `json:"position" validate:"omitempty,max=100"`
	WorkingHours domain.JSONValue `json:"workingHours"`
	Role         domain.Role      `json:"role"`
	Status       domain.Status    `json:"status"`
	ServiceID    *int64           `json:"serviceId" validate:"omitempty,gt=0"`
	SupervisorID *int64           `json:"supervisorId" validate:"omitempty,gt=0"`
}

func (req newAccountRequest) toNewAccount() auth.NewAccount {
	return auth.NewAccount{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Position:     req.Position,
		WorkingHours: req.WorkingHours,
		Role:         req.Role,
		Status:       req.Status,
		ServiceID:    req.ServiceID,
		SupervisorID: req.SupervisorID,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req newAccountRequest
	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	account, err := h.lifecycle.Register(r.Context(), req.toNewAccount())
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.createdResponse(w, r, "account created, awaiting approval", account)
}

func (h *Handler) RequireResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if err := h.lifecycle.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	// same answer whether or not the account exists
	h.successResponse(w, r, "if the account exists, a reset email has been sent", nil)
}

func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.decode(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if err := h.lifecycle.ResetPassword(r.Context(), req.Email, req.Token, req.Password); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "password reset", nil)
}
