package patient

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByUserID(ctx context.Context, userID string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// Search matches q case-insensitively against first name, last name,
	// email and phone.
	Search(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error)
	CountByStatus(ctx context.Context, statuses ...string) (int, error)
}
