package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mynurseshift/backend/internal/domain"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	h.logger.Error("internal server error",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
}

// readJSON decodes the body into v. Malformed input is a ValidationFailed error.
func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var domainErr *domain.Error
		switch {
		case errors.As(err, &domainErr):
			return domainErr
		case errors.Is(err, io.EOF):
			return domain.NewError(domain.KindValidationFailed, "request body must not be empty")
		default:
			return domain.WrapError(domain.KindValidationFailed, "malformed request body", err)
		}
	}
	return nil
}

// decode reads and validates a request body.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := h.readJSON(w, r, v); err != nil {
		return err
	}
	if err := h.validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return domain.WrapError(domain.KindValidationFailed, validationErrors[0].Translate(h.translator), err)
		}
		return err
	}
	return nil
}

// validateVar checks a single value against a validator tag; the message is
// prefixed with the JSON field name.
func (h *Handler) validateVar(field string, value any, tag string) error {
	if err := h.validate.Var(value, tag); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return domain.WrapError(domain.KindValidationFailed, field+validationErrors[0].Translate(h.translator), err)
		}
		return err
	}
	return nil
}

// validateContact checks the optional phone and position of a profile update.
func (h *Handler) validateContact(phone, position domain.Nullable[string]) error {
	if phone.Value != nil {
		if err := h.validateVar("phone", *phone.Value, "max=32"); err != nil {
			return err
		}
	}
	if position.Value != nil {
		if err := h.validateVar("position", *position.Value, "max=100"); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

var statusByKind = map[domain.Kind]int{
	domain.KindUnauthenticated:    http.StatusUnauthorized,
	domain.KindInvalidCredentials: http.StatusUnauthorized,
	domain.KindInvalidToken:       http.StatusUnauthorized,
	domain.KindAccountNotFound:    http.StatusUnauthorized,
	domain.KindForbidden:          http.StatusForbidden,
	domain.KindAccountNotActive:   http.StatusForbidden,
	domain.KindNotFound:           http.StatusNotFound,
	domain.KindConflict:           http.StatusConflict,
	domain.KindValidationFailed:   http.StatusBadRequest,
}

// errorResponse writes the status and message of an expected failure; any
// other error is logged and reported as a bare 500.
func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		if status, ok := statusByKind[domainErr.Kind]; ok {
			h.writeJSON(w, r, status, Response{
				Success: false,
				Code:    string(domainErr.Kind),
				Message: domainErr.Message,
				Data:    nil,
			})
			return
		}
	}

	h.internalServerError(w, r, err)
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Code:    "INTERNAL",
		Message: "internal server error",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Code:    "OK",
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) createdResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Code:    "OK",
		Message: msg,
		Data:    data,
	})
}
