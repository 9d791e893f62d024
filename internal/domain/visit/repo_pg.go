package visit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicq/clinicq/internal/domain/triage"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository backed by PostgreSQL.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const visitCols = `id, patient_phone, symptoms_raw, symptoms_extracted, severity_score,
	assigned_tier, status, doctor_notes, prescription, doctor_id, created_at, completed_at`

func (r *repoPG) scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.PatientPhone, &v.SymptomsRaw, &v.SymptomsExtracted, &v.SeverityScore,
		&v.AssignedTier, &v.Status, &v.DoctorNotes, &v.Prescription, &v.DoctorID, &v.CreatedAt, &v.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO visits (id, patient_phone, symptoms_raw, symptoms_extracted,
			severity_score, assigned_tier, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		v.ID, v.PatientPhone, v.SymptomsRaw, v.SymptomsExtracted,
		v.SeverityScore, v.AssignedTier, v.Status)
	return row.Scan(&v.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return r.scanVisit(r.pool.QueryRow(ctx, `SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
}

func (r *repoPG) ListByTierAndStatus(ctx context.Context, tier triage.Tier, statuses ...Status) ([]*Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitCols+` FROM visits
		WHERE assigned_tier = $1 AND status = ANY($2)
		ORDER BY severity_score DESC, created_at ASC, id ASC`,
		tier, statusStrings(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *repoPG) ListByPatient(ctx context.Context, phone string, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM visits WHERE patient_phone = $1`, phone).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitCols+` FROM visits WHERE patient_phone = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, phone, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	return items, total, err
}

func (r *repoPG) List(ctx context.Context, status *Status, limit, offset int) ([]*Visit, int, error) {
	query := `SELECT ` + visitCols + ` FROM visits WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM visits WHERE 1=1`
	var args []interface{}
	idx := 1

	if status != nil {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, *status)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	return items, total, err
}

// Start claims a WAITING visit with a single conditional UPDATE, so two
// doctors racing for the same visit cannot both win.
func (r *repoPG) Start(ctx context.Context, id, doctorID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE visits SET status = $3, doctor_id = $2
		WHERE id = $1 AND status = $4`,
		id, doctorID, StatusInProgress, StatusWaiting)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM visits WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

// Update is a compare-and-swap like Start: the row is written only while it
// still holds the status the caller read, so two doctors editing the same
// visit cannot clobber each other's transition.
func (r *repoPG) Update(ctx context.Context, v *Visit, expected Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE visits SET doctor_notes=$2, prescription=$3, status=$4, completed_at=$5
		WHERE id = $1 AND status = $6`,
		v.ID, v.DoctorNotes, v.Prescription, v.Status, v.CompletedAt, expected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM visits WHERE id = $1)`, v.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("visit %s changed status: %w", v.ID, ErrConflict)
}

func (r *repoPG) collect(rows pgx.Rows) ([]*Visit, error) {
	var items []*Visit
	for rows.Next() {
		v, err := r.scanVisit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
