package handler

import (
	"net/http"

	"go.uber.org/zap"
)

// GetDashboardStats reports global counts to a SuperAdministrator and the
// counts of their own service to a Manager.
func (h *Handler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	scope, err := h.gate.Scope(r.Context(), principalFrom(r))
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	stats, err := h.store.DashboardStats(r.Context(), scope.ServiceID())
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "statistics retrieved", stats)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		h.writeJSON(w, r, http.StatusServiceUnavailable, Response{
			Success: false,
			Code:    "UNAVAILABLE",
			Message: "database unreachable",
		})
		return
	}

	h.successResponse(w, r, "ok", nil)
}
