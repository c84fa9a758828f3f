package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mynurseshift/backend/internal/domain"
)

const poleSelect = `
	SELECT id, name, code, description, status, created_at, updated_at FROM poles
`

func scanPole(row rowScanner) (*domain.Pole, error) {
	pole := &domain.Pole{Services: make([]domain.ServiceRef, 0)}
	dst := []any{&pole.ID, &pole.Name, &pole.Code, &pole.Description, &pole.Status, &pole.CreatedAt, &pole.UpdatedAt}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return pole, nil
}

func (r *Repository) GetPoleByID(ctx context.Context, id int64) (*domain.Pole, error) {
	queryCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	pole, err := scanPole(r.dbpool.QueryRowContext(queryCtx, poleSelect+"WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errPoleNotFound
		}
		return nil, err
	}

	if err := r.attachPoleServices(ctx, []*domain.Pole{pole}); err != nil {
		return nil, err
	}
	return pole, nil
}

// ListPoles returns every pole with the services it contains.
func (r *Repository) ListPoles(ctx context.Context) ([]*domain.Pole, error) {
	queryCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(queryCtx, poleSelect+"ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	poles := make([]*domain.Pole, 0)
	for rows.Next() {
		pole, err := scanPole(rows)
		if err != nil {
			return nil, err
		}
		poles = append(poles, pole)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachPoleServices(ctx, poles); err != nil {
		return nil, err
	}
	return poles, nil
}

func (r *Repository) attachPoleServices(ctx context.Context, poles []*domain.Pole) error {
	if len(poles) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Pole, len(poles))
	ids := make([]int64, 0, len(poles))
	for _, pole := range poles {
		byID[pole.ID] = pole
		ids = append(ids, pole.ID)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, "SELECT id, name, pole_id FROM services WHERE pole_id = ANY($1) ORDER BY name, id", ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ref    domain.ServiceRef
			poleID int64
		)
		if err := rows.Scan(&ref.ID, &ref.Name, &poleID); err != nil {
			return err
		}
		if pole, ok := byID[poleID]; ok {
			pole.Services = append(pole.Services, ref)
		}
	}

	return rows.Err()
}

func (r *Repository) CreatePole(ctx context.Context, pole *domain.Pole) error {
	query := `
		INSERT INTO poles (name, code, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{pole.Name, pole.Code, pole.Description, pole.Status}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&pole.ID, &pole.CreatedAt, &pole.UpdatedAt); err != nil {
		return translateWriteError(err, errPoleNotFound)
	}
	if pole.Services == nil {
		pole.Services = make([]domain.ServiceRef, 0)
	}

	return nil
}

func (r *Repository) UpdatePole(ctx context.Context, pole *domain.Pole) error {
	query := `
		UPDATE poles
		SET name = $1, code = $2, description = $3, status = $4, updated_at = now()
		WHERE id = $5
		RETURNING created_at, updated_at
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{pole.Name, pole.Code, pole.Description, pole.Status, pole.ID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&pole.CreatedAt, &pole.UpdatedAt); err != nil {
		return translateWriteError(err, errPoleNotFound)
	}

	return nil
}

// DeletePole refuses to remove a pole that still has services.
func (r *Repository) DeletePole(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, "DELETE FROM poles WHERE id = $1", id)
	if err != nil {
		return translateDeleteError(err)
	}
	return checkAffected(res, errPoleNotFound)
}

func (r *Repository) CountPoles(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.dbpool.QueryRowContext(ctx, "SELECT count(*) FROM poles").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
