package repository

import (
	"context"

	"github.com/mynurseshift/backend/internal/domain"
)

// DashboardStats counts accounts, services and poles. With a service id the
// account counts are limited to that service and the unit counts are one.
func (r *Repository) DashboardStats(ctx context.Context, serviceID *int64) (*domain.DashboardStats, error) {
	pending, active := domain.StatusPending, domain.StatusActive

	stats := &domain.DashboardStats{}
	var err error

	if stats.TotalUsers, err = r.CountAccounts(ctx, domain.AccountFilter{ServiceID: serviceID}); err != nil {
		return nil, err
	}
	if stats.PendingUsers, err = r.CountAccounts(ctx, domain.AccountFilter{ServiceID: serviceID, Status: &pending}); err != nil {
		return nil, err
	}
	if stats.ActiveUsers, err = r.CountAccounts(ctx, domain.AccountFilter{ServiceID: serviceID, Status: &active}); err != nil {
		return nil, err
	}

	if serviceID != nil {
		stats.TotalServices, stats.TotalPoles = 1, 1
		return stats, nil
	}

	if stats.TotalServices, err = r.CountServices(ctx); err != nil {
		return nil, err
	}
	if stats.TotalPoles, err = r.CountPoles(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
