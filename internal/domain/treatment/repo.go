package treatment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TreatmentRepository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error)
	Update(ctx context.Context, t *Treatment) error
	// Transition sets status to "to" only while the stored status is one of
	// from. A non-nil completedAt is stamped as the completion date. It
	// reports whether the row changed.
	Transition(ctx context.Context, id uuid.UUID, from []string, to string, completedAt *time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Treatment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Treatment, int, error)
	// ListUpcoming returns scheduled treatments due at or after from,
	// soonest first.
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]*Treatment, error)
	CountByStatus(ctx context.Context, statuses ...string) (int, error)
}
