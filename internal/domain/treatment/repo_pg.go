package treatment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medicare/emr/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type treatmentRepoPG struct{ pool *pgxpool.Pool }

func NewTreatmentRepoPG(pool *pgxpool.Pool) TreatmentRepository {
	return &treatmentRepoPG{pool: pool}
}

func (r *treatmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const treatmentCols = `id, patient_id, patient_name, treatment_type, description, diagnosis,
	notes, status, priority, scheduled_date, completed_date, created_by, created_by_name,
	assigned_to, assigned_to_name, created_at, updated_at`

func (r *treatmentRepoPG) scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	err := row.Scan(&t.ID, &t.PatientID, &t.PatientName, &t.TreatmentType, &t.Description,
		&t.Diagnosis, &t.Notes, &t.Status, &t.Priority, &t.ScheduledDate, &t.CompletedDate,
		&t.CreatedBy, &t.CreatedByName, &t.AssignedTo, &t.AssignedToName, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *treatmentRepoPG) Create(ctx context.Context, t *Treatment) error {
	t.ID = uuid.New()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatments (id, patient_id, patient_name, treatment_type, description,
			diagnosis, notes, status, priority, scheduled_date, completed_date, created_by,
			created_by_name, assigned_to, assigned_to_name, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		t.ID, t.PatientID, t.PatientName, t.TreatmentType, t.Description, t.Diagnosis,
		t.Notes, t.Status, t.Priority, t.ScheduledDate, t.CompletedDate, t.CreatedBy,
		t.CreatedByName, t.AssignedTo, t.AssignedToName, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *treatmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	return r.scanTreatment(r.conn(ctx).QueryRow(ctx, `SELECT `+treatmentCols+` FROM treatments WHERE id = $1`, id))
}

func (r *treatmentRepoPG) Update(ctx context.Context, t *Treatment) error {
	t.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatments SET treatment_type=$2, description=$3, diagnosis=$4, notes=$5,
			status=$6, priority=$7, scheduled_date=$8, completed_date=$9, assigned_to=$10,
			assigned_to_name=$11, updated_at=$12
		WHERE id = $1`,
		t.ID, t.TreatmentType, t.Description, t.Diagnosis, t.Notes, t.Status, t.Priority,
		t.ScheduledDate, t.CompletedDate, t.AssignedTo, t.AssignedToName, t.UpdatedAt)
	return err
}

func (r *treatmentRepoPG) Transition(ctx context.Context, id uuid.UUID, from []string, to string, completedAt *time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatments SET status = $2, completed_date = COALESCE($3, completed_date), updated_at = $4
		WHERE id = $1 AND status = ANY($5)`,
		id, to, completedAt, time.Now().UTC(), from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *treatmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	return err
}

func (r *treatmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Treatment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM treatments`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+treatmentCols+` FROM treatments ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *treatmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Treatment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM treatments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+treatmentCols+` FROM treatments WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *treatmentRepoPG) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+treatmentCols+` FROM treatments
		WHERE status = 'scheduled' AND scheduled_date >= $1
		ORDER BY scheduled_date ASC LIMIT $2`, from, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *treatmentRepoPG) CountByStatus(ctx context.Context, statuses ...string) (int, error) {
	var total int
	if len(statuses) == 0 {
		err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM treatments`).Scan(&total)
		return total, err
	}
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM treatments WHERE status = ANY($1)`, statuses).Scan(&total)
	return total, err
}

func (r *treatmentRepoPG) collect(rows pgx.Rows) ([]*Treatment, error) {
	defer rows.Close()
	var items []*Treatment
	for rows.Next() {
		t, err := r.scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
