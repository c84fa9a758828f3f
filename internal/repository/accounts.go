package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mynurseshift/backend/internal/domain"
)

const accountSelect = `
	SELECT a.id, a.email, a.password_hash, a.first_name, a.last_name, a.phone, a.position,
		a.working_hours, a.role, a.status, a.service_id, s.name, a.supervisor_id,
		sup.first_name, sup.last_name, sup.email, a.created_at, a.updated_at, a.version
	FROM accounts a
	LEFT JOIN services s ON s.id = a.service_id
	LEFT JOIN accounts sup ON sup.id = a.supervisor_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		account                     domain.Account
		phone, position             sql.NullString
		role, status                string
		serviceID, supervisorID     sql.NullInt64
		serviceName                 sql.NullString
		supFirst, supLast, supEmail sql.NullString
	)

	dst := []any{
		&account.ID, &account.Email, &account.PasswordHash, &account.FirstName, &account.LastName, &phone, &position,
		&account.WorkingHours, &role, &status, &serviceID, &serviceName, &supervisorID,
		&supFirst, &supLast, &supEmail, &account.CreatedAt, &account.UpdatedAt, &account.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	var err error
	if account.Role, err = domain.RoleFromStore(role); err != nil {
		return nil, err
	}
	if account.Status, err = domain.StatusFromStore(status); err != nil {
		return nil, err
	}

	if phone.Valid {
		account.Phone = &phone.String
	}
	if position.Valid {
		account.Position = &position.String
	}
	if serviceID.Valid {
		account.ServiceID = &serviceID.Int64
		account.Service = &domain.ServiceRef{ID: serviceID.Int64, Name: serviceName.String}
	}
	if supervisorID.Valid {
		account.SupervisorID = &supervisorID.Int64
		if supEmail.Valid {
			account.Supervisor = &domain.AccountRef{
				ID:        supervisorID.Int64,
				FirstName: supFirst.String,
				LastName:  supLast.String,
				Email:     supEmail.String,
			}
		}
	}

	return &account, nil
}

func (r *Repository) getAccount(ctx context.Context, where string, arg any) (*domain.Account, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	account, err := scanAccount(r.dbpool.QueryRowContext(ctx, accountSelect+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.getAccount(ctx, "WHERE a.id = $1", id)
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getAccount(ctx, "WHERE a.email = $1", strings.TrimSpace(email))
}

func accountFilterClause(filter domain.AccountFilter, alias string) (string, []any) {
	conds := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.ServiceID != nil {
		args = append(args, *filter.ServiceID)
		conds = append(conds, fmt.Sprintf("%sservice_id = $%d", alias, len(args)))
	}
	if filter.Status != nil {
		if *filter.Status == domain.StatusInactive {
			conds = append(conds, fmt.Sprintf("%sstatus IN ('INACTIVE', 'REJECTED')", alias))
		} else {
			args = append(args, filter.Status.StoreCode())
			conds = append(conds, fmt.Sprintf("%sstatus = $%d", alias, len(args)))
		}
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListAccounts returns the accounts matching the filter, newest first.
func (r *Repository) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	where, args := accountFilterClause(filter, "a.")
	query := accountSelect + where + " ORDER BY a.created_at DESC, a.id DESC"

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *Repository) CountAccounts(ctx context.Context, filter domain.AccountFilter) (int64, error) {
	where, args := accountFilterClause(filter, "")

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.dbpool.QueryRowContext(ctx, "SELECT count(*) FROM accounts"+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (email, password_hash, first_name, last_name, phone, position, working_hours,
			role, status, service_id, supervisor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at, version
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{
		account.Email, account.PasswordHash, account.FirstName, account.LastName, account.Phone, account.Position,
		account.WorkingHours, account.Role.StoreCode(), account.Status.StoreCode(), account.ServiceID, account.SupervisorID,
	}
	dst := []any{&account.ID, &account.CreatedAt, &account.UpdatedAt, &account.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return translateWriteError(err, errAccountNotFound)
	}

	return nil
}

// UpdateAccount writes every mutable column back. The row is only changed
// when its version still matches; a concurrent writer yields a Conflict.
func (r *Repository) UpdateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET
			email = $1,
			password_hash = $2,
			first_name = $3,
			last_name = $4,
			phone = $5,
			position = $6,
			working_hours = $7,
			role = $8,
			status = $9,
			service_id = $10,
			supervisor_id = $11,
			updated_at = now(),
			version = version + 1
		WHERE id = $12 AND version = $13
		RETURNING updated_at, version
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{
		account.Email, account.PasswordHash, account.FirstName, account.LastName, account.Phone, account.Position,
		account.WorkingHours, account.Role.StoreCode(), account.Status.StoreCode(), account.ServiceID, account.SupervisorID,
		account.ID, account.Version,
	}
	dst := []any{&account.UpdatedAt, &account.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return translateWriteError(err, errStaleAccount)
	}

	return nil
}

// UpdateAccountStatus sets the status unconditionally and returns the
// refreshed account.
func (r *Repository) UpdateAccountStatus(ctx context.Context, id int64, status domain.Status) (*domain.Account, error) {
	query := `
		UPDATE accounts SET status = $1, updated_at = now(), version = version + 1 WHERE id = $2
	`

	execCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(execCtx, query, status.StoreCode(), id)
	if err != nil {
		return nil, translateWriteError(err, errAccountNotFound)
	}
	if err := checkAffected(res, errAccountNotFound); err != nil {
		return nil, err
	}

	return r.GetAccountByID(ctx, id)
}

// DeleteAccount removes the account. Subordinates lose their supervisor; an
// account still referenced elsewhere is reported as a Conflict.
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, "DELETE FROM accounts WHERE id = $1", id)
	if err != nil {
		return translateDeleteError(err)
	}
	return checkAffected(res, errAccountNotFound)
}
