package handler

import (
	"context"
	"net/http"

	"github.com/mynurseshift/backend/internal/domain"
)

type ContextKey string

var (
	RequestIDCtxKey ContextKey = "requestID"
	PrincipalCtxKey ContextKey = "principal"
	AccountInfoCtx  ContextKey = "accountInfo"
)

// principal returns the authenticated account of the request, nil on public routes.
func principalFrom(r *http.Request) *domain.Account {
	p, _ := r.Context().Value(PrincipalCtxKey).(*domain.Account)
	return p
}

func accountInfoFrom(r *http.Request) *domain.Account {
	a, _ := r.Context().Value(AccountInfoCtx).(*domain.Account)
	return a
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDCtxKey).(string)
	return id
}
