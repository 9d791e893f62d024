package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed doctor repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const doctorCols = `id, name, role_tier, pin_code, created_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Tier, &d.PIN, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, name, role_tier, pin_code)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		d.ID, d.Name, d.Tier, d.PIN).Scan(&d.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+doctorCols+` FROM doctors ORDER BY role_tier, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("doctor %s: %w", id, ErrNotFound)
	}
	return nil
}
