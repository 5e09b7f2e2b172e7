package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PrescriptionRepository interface {
	Create(ctx context.Context, rx *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, rx *Prescription) error
	// MarkDispensed dispenses and completes the prescription only if it is
	// neither dispensed nor cancelled. It reports whether the row changed.
	MarkDispensed(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Prescription, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	CountByStatus(ctx context.Context, statuses ...string) (int, error)
}
