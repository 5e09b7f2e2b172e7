package prescription

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

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const rxCols = `id, patient_id, patient_name, medication, dosage, frequency, duration,
	instructions, prescribed_by, prescribed_by_name, status, dispensed, dispensed_at,
	dispensed_by, created_at, updated_at`

func (r *prescriptionRepoPG) scanPrescription(row pgx.Row) (*Prescription, error) {
	var rx Prescription
	err := row.Scan(&rx.ID, &rx.PatientID, &rx.PatientName, &rx.Medication, &rx.Dosage,
		&rx.Frequency, &rx.Duration, &rx.Instructions, &rx.PrescribedBy, &rx.PrescribedByName,
		&rx.Status, &rx.Dispensed, &rx.DispensedAt, &rx.DispensedBy, &rx.CreatedAt, &rx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rx, nil
}

func (r *prescriptionRepoPG) Create(ctx context.Context, rx *Prescription) error {
	rx.ID = uuid.New()
	now := time.Now().UTC()
	rx.CreatedAt, rx.UpdatedAt = now, now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (id, patient_id, patient_name, medication, dosage, frequency,
			duration, instructions, prescribed_by, prescribed_by_name, status, dispensed,
			dispensed_at, dispensed_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		rx.ID, rx.PatientID, rx.PatientName, rx.Medication, rx.Dosage, rx.Frequency,
		rx.Duration, rx.Instructions, rx.PrescribedBy, rx.PrescribedByName, rx.Status,
		rx.Dispensed, rx.DispensedAt, rx.DispensedBy, rx.CreatedAt, rx.UpdatedAt)
	return err
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return r.scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) Update(ctx context.Context, rx *Prescription) error {
	rx.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescriptions SET medication=$2, dosage=$3, frequency=$4, duration=$5,
			instructions=$6, status=$7, dispensed=$8, dispensed_at=$9, dispensed_by=$10,
			updated_at=$11
		WHERE id = $1`,
		rx.ID, rx.Medication, rx.Dosage, rx.Frequency, rx.Duration, rx.Instructions,
		rx.Status, rx.Dispensed, rx.DispensedAt, rx.DispensedBy, rx.UpdatedAt)
	return err
}

func (r *prescriptionRepoPG) MarkDispensed(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	changed := false
	err := db.InTx(ctx, r.pool, func(ctx context.Context) error {
		var status string
		var dispensed bool
		err := r.conn(ctx).QueryRow(ctx,
			`SELECT status, dispensed FROM prescriptions WHERE id = $1 FOR UPDATE`, id).Scan(&status, &dispensed)
		if err != nil {
			return err
		}
		if dispensed || status == StatusCancelled {
			return nil
		}
		tag, err := r.conn(ctx).Exec(ctx, `
			UPDATE prescriptions SET dispensed = true, dispensed_at = $2, dispensed_by = $3,
				status = $4, updated_at = $5
			WHERE id = $1 AND dispensed = false AND status <> $6`,
			id, at, by, StatusCompleted, time.Now().UTC(), StatusCancelled)
		if err != nil {
			return err
		}
		changed = tag.RowsAffected() == 1
		return nil
	})
	return changed, err
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	return err
}

func (r *prescriptionRepoPG) List(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+rxCols+` FROM prescriptions ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *prescriptionRepoPG) CountByStatus(ctx context.Context, statuses ...string) (int, error) {
	var total int
	if len(statuses) == 0 {
		err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`).Scan(&total)
		return total, err
	}
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions WHERE status = ANY($1)`, statuses).Scan(&total)
	return total, err
}

func (r *prescriptionRepoPG) collect(rows pgx.Rows) ([]*Prescription, error) {
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		rx, err := r.scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rx)
	}
	return items, rows.Err()
}
