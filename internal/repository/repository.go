package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mynurseshift/backend/internal/config"
	"github.com/mynurseshift/backend/internal/domain"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.QueryTimeout())
}

// Postgres error codes and constraint names the repository translates.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

var constraintMessages = map[string]string{
	"accounts_email_key":          "email is already in use",
	"poles_code_key":              "pole code is already in use",
	"services_pole_id_fkey":       "pole does not exist",
	"accounts_service_id_fkey":    "service does not exist",
	"accounts_supervisor_id_fkey": "supervisor does not exist",
}

var dependentMessages = map[string]string{
	"services_pole_id_fkey":    "pole still has services",
	"accounts_service_id_fkey": "service still has accounts",
}

// translateWriteError maps insert/update failures onto domain errors.
func translateWriteError(err error, notFound *domain.Error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		msg, known := constraintMessages[pgErr.ConstraintName]
		switch pgErr.Code {
		case uniqueViolation:
			if !known {
				msg = "duplicate value"
			}
			return domain.WrapError(domain.KindConflict, msg, err)
		case foreignKeyViolation:
			if !known {
				msg = "referenced entity does not exist"
			}
			return domain.WrapError(domain.KindValidationFailed, msg, err)
		case checkViolation:
			return domain.WrapError(domain.KindValidationFailed, "value out of range", err)
		}
	}
	return err
}

// translateDeleteError maps a foreign key violation on delete onto Conflict:
// rows that still have dependents are never removed.
func translateDeleteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		msg, ok := dependentMessages[pgErr.ConstraintName]
		if !ok {
			msg = "entity still has dependents"
		}
		return domain.WrapError(domain.KindConflict, msg, err)
	}
	return err
}

func checkAffected(res sql.Result, notFound *domain.Error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var (
	errAccountNotFound = domain.NewError(domain.KindNotFound, "account not found")
	errPoleNotFound    = domain.NewError(domain.KindNotFound, "pole not found")
	errServiceNotFound = domain.NewError(domain.KindNotFound, "service not found")
	errStaleAccount    = domain.NewError(domain.KindConflict, "account was modified concurrently, please retry")
)

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.dbpool.PingContext(ctx)
}
