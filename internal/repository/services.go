package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mynurseshift/backend/internal/domain"
)

const serviceSelect = `
	SELECT s.id, s.name, s.description, s.capacity, s.status, s.pole_id, p.name, p.code, s.created_at, s.updated_at
	FROM services s
	JOIN poles p ON p.id = s.pole_id
`

func scanService(row rowScanner) (*domain.Service, error) {
	service := &domain.Service{Pole: &domain.PoleRef{}}
	dst := []any{
		&service.ID, &service.Name, &service.Description, &service.Capacity, &service.Status, &service.PoleID,
		&service.Pole.Name, &service.Pole.Code, &service.CreatedAt, &service.UpdatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	service.Pole.ID = service.PoleID
	return service, nil
}

func (r *Repository) GetServiceByID(ctx context.Context, id int64) (*domain.Service, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	service, err := scanService(r.dbpool.QueryRowContext(ctx, serviceSelect+"WHERE s.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errServiceNotFound
		}
		return nil, err
	}
	return service, nil
}

// ListServices returns all services, or only those of one pole.
func (r *Repository) ListServices(ctx context.Context, poleID *int64) ([]*domain.Service, error) {
	query := serviceSelect
	args := make([]any, 0, 1)
	if poleID != nil {
		query += "WHERE s.pole_id = $1 "
		args = append(args, *poleID)
	}
	query += "ORDER BY s.name, s.id"

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]*domain.Service, 0)
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return services, nil
}

func (r *Repository) CreateService(ctx context.Context, service *domain.Service) error {
	query := `
		INSERT INTO services (name, description, capacity, status, pole_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{service.Name, service.Description, service.Capacity, service.Status, service.PoleID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&service.ID, &service.CreatedAt, &service.UpdatedAt); err != nil {
		return translateWriteError(err, errServiceNotFound)
	}

	return nil
}

func (r *Repository) UpdateService(ctx context.Context, service *domain.Service) error {
	query := `
		UPDATE services
		SET name = $1, description = $2, capacity = $3, status = $4, pole_id = $5, updated_at = now()
		WHERE id = $6
		RETURNING created_at, updated_at
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{service.Name, service.Description, service.Capacity, service.Status, service.PoleID, service.ID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&service.CreatedAt, &service.UpdatedAt); err != nil {
		return translateWriteError(err, errServiceNotFound)
	}

	return nil
}

// DeleteService refuses to remove a service that still has accounts.
func (r *Repository) DeleteService(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, "DELETE FROM services WHERE id = $1", id)
	if err != nil {
		return translateDeleteError(err)
	}
	return checkAffected(res, errServiceNotFound)
}

func (r *Repository) CountServices(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.dbpool.QueryRowContext(ctx, "SELECT count(*) FROM services").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
