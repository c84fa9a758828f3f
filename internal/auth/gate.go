package auth

import (
	"context"
	"errors"
	"slices"

	"github.com/mynurseshift/backend/internal/domain"
)

// Authorize checks the principal against a required-role set. An empty set
// admits any authenticated principal; routes open to anonymous callers do
// not go through the gate at all.
func Authorize(principal *domain.Account, roles ...domain.Role) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}
	if len(roles) == 0 {
		return nil
	}
	if !slices.Contains(roles, principal.Role) {
		return domain.ErrForbidden
	}
	return nil
}

// Scope is the set of accounts a principal may read or write.
type Scope struct {
	all       bool
	serviceID int64
	selfID    int64
}

// All reports whether the scope is unrestricted.
func (s Scope) All() bool {
	return s.all
}

// ServiceID returns the service a Manager scope is bound to, nil otherwise.
func (s Scope) ServiceID() *int64 {
	if s.all || s.serviceID == 0 {
		return nil
	}
	id := s.serviceID
	return &id
}

func (s Scope) Allows(target *domain.Account) bool {
	switch {
	case s.all:
		return true
	case s.serviceID != 0:
		return target.InService(s.serviceID) && target.Role != domain.RoleSuperAdministrator
	default:
		return target.ID == s.selfID
	}
}

// Gate derives data scopes on top of role checks.
type Gate struct {
	accounts AccountStore
}

func NewGate(accounts AccountStore) *Gate {
	return &Gate{accounts: accounts}
}

// Scope re-reads the principal on every call, so a Manager moved to another
// service is scoped to the new one on the next request.
func (g *Gate) Scope(ctx context.Context, principal *domain.Account) (Scope, error) {
	if principal == nil {
		return Scope{}, domain.ErrUnauthenticated
	}

	switch principal.Role {
	case domain.RoleSuperAdministrator:
		return Scope{all: true}, nil
	case domain.RoleManager:
		current, err := g.accounts.GetAccountByID(ctx, principal.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return Scope{}, domain.ErrAccountNotFound
			}
			return Scope{}, err
		}
		if current.ServiceID == nil {
			return Scope{}, domain.NewError(domain.KindForbidden, "manager is not attached to a service")
		}
		return Scope{serviceID: *current.ServiceID}, nil
	default:
		return Scope{selfID: principal.ID}, nil
	}
}

// CheckAccount fails with Forbidden when target is outside the principal's scope.
func (g *Gate) CheckAccount(ctx context.Context, principal *domain.Account, target *domain.Account) error {
	scope, err := g.Scope(ctx, principal)
	if err != nil {
		return err
	}
	if !scope.Allows(target) {
		return domain.ErrForbidden
	}
	return nil
}
