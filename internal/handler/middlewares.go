package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mynurseshift/backend/internal/auth"
	"github.com/mynurseshift/backend/internal/domain"
	"go.uber.org/zap"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

const requestIDHeader = "X-Request-ID"

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDCtxKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		h.logger.Info("request handled",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Int("status", rw.StatusCode),
			zap.String("ip", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.logger.Error("panic recovered", zap.Any("panic", err), zap.ByteString("stack", debug.Stack()))
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// bearerToken reads the token from the Authorization header, falling back
// to the session cookie.
func (h *Handler) bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	cookie, err := r.Cookie(h.config.JWT.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// authenticate resolves the request principal from the token on every
// request; the account is re-read so role or status changes apply at once.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := h.authenticator.Authenticate(r.Context(), h.bearerToken(r))
		if err != nil {
			h.errorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalCtxKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) RequiredRole(roles ...domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Authorize(principalFrom(r), roles...); err != nil {
				h.errorResponse(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewError(domain.KindValidationFailed, "invalid id")
	}
	return id, nil
}

// accountInfo loads the account named by the {id} URL parameter and checks
// it is in the caller's scope. Below SuperAdministrator a missing account and
// an out-of-scope one get the same Forbidden answer.
func (h *Handler) accountInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			h.errorResponse(w, r, err)
			return
		}

		principal := principalFrom(r)
		account, err := h.store.GetAccountByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) && principal.Role != domain.RoleSuperAdministrator {
				err = domain.ErrForbidden
			}
			h.errorResponse(w, r, err)
			return
		}

		// one's own account is always readable, whatever the data scope
		if account.ID != principal.ID {
			if err := h.gate.CheckAccount(r.Context(), principal, account); err != nil {
				h.errorResponse(w, r, err)
				return
			}
		}

		ctx := context.WithValue(r.Context(), AccountInfoCtx, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var errInitialAdmin = domain.NewError(domain.KindForbidden, "the initial administrator cannot be modified")

func (h *Handler) preventOperateInitialAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if account := accountInfoFrom(r); account != nil && account.Email == h.config.InitialAdmin.Email {
			h.errorResponse(w, r, errInitialAdmin)
			return
		}
		next.ServeHTTP(w, r)
	})
}
