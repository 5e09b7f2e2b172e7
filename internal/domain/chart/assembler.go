// Package chart gathers a patient's full record set for report generation.
package chart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medicare/emr/internal/domain/patient"
	"github.com/medicare/emr/internal/domain/prescription"
	"github.com/medicare/emr/internal/domain/treatment"
	"github.com/medicare/emr/internal/platform/report"
)

const pageSize = 100

type PatientSource interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type PrescriptionSource interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*prescription.Prescription, int, error)
}

type TreatmentSource interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*treatment.Treatment, int, error)
}

// Assembler implements report.DataFetcher on top of the domain services.
type Assembler struct {
	patients      PatientSource
	prescriptions PrescriptionSource
	treatments    TreatmentSource
}

func NewAssembler(patients PatientSource, prescriptions PrescriptionSource, treatments TreatmentSource) *Assembler {
	return &Assembler{patients: patients, prescriptions: prescriptions, treatments: treatments}
}

// ReportInput loads the patient and every prescription and treatment
// recorded for them, newest first, as report snapshots.
func (a *Assembler) ReportInput(ctx context.Context, patientID uuid.UUID) (report.Input, error) {
	p, err := a.patients.GetPatient(ctx, patientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report.Input{}, report.ErrPatientNotFound
		}
		return report.Input{}, fmt.Errorf("load patient %s: %w", patientID, err)
	}

	rxs, err := collect(ctx, patientID, a.prescriptions.ListByPatient)
	if err != nil {
		return report.Input{}, fmt.Errorf("load prescriptions: %w", err)
	}
	txs, err := collect(ctx, patientID, a.treatments.ListByPatient)
	if err != nil {
		return report.Input{}, fmt.Errorf("load treatments: %w", err)
	}

	in := report.Input{
		Patient:       p.Snapshot(),
		Prescriptions: make([]report.Prescription, 0, len(rxs)),
		Treatments:    make([]report.Treatment, 0, len(txs)),
	}
	for _, rx := range rxs {
		in.Prescriptions = append(in.Prescriptions, rx.Snapshot())
	}
	for _, t := range txs {
		in.Treatments = append(in.Treatments, t.Snapshot())
	}
	return in, nil
}

// collect drains a paged listing.
func collect[T any](ctx context.Context, patientID uuid.UUID,
	list func(context.Context, uuid.UUID, int, int) ([]T, int, error)) ([]T, error) {
	var all []T
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, total, err := list(ctx, patientID, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			return all, nil
		}
	}
}
