package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/emr/internal/domain/patient"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusPending   = "pending"
)

var validStatuses = map[string]bool{
	StatusActive: true, StatusCompleted: true, StatusCancelled: true, StatusPending: true,
}

var (
	ErrAlreadyDispensed = errors.New("prescription already dispensed")
	ErrNotDispensable   = errors.New("cancelled prescriptions cannot be dispensed")
)

// PatientLookup resolves the patient a prescription is written for.
type PatientLookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	prescriptions PrescriptionRepository
	patients      PatientLookup
	now           func() time.Time
}

// NewService builds the prescription service. patients may be nil, in which
// case the denormalised patient name is taken from the request as is.
func NewService(prescriptions PrescriptionRepository, patients PatientLookup) *Service {
	return &Service{prescriptions: prescriptions, patients: patients, now: time.Now}
}

func (s *Service) CreatePrescription(ctx context.Context, rx *Prescription) error {
	if rx.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if rx.Status == "" {
		rx.Status = StatusPending
	}
	if err := clean(rx); err != nil {
		return err
	}
	if s.patients != nil {
		p, err := s.patients.GetPatient(ctx, rx.PatientID)
		if err != nil {
			return fmt.Errorf("patient %s not found", rx.PatientID)
		}
		rx.PatientName = p.FullName()
	}
	rx.Dispensed = false
	rx.DispensedAt = nil
	rx.DispensedBy = nil
	return s.prescriptions.Create(ctx, rx)
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

// UpdatePrescription edits the medication details and status. Ownership and
// dispensing fields keep their stored values.
func (s *Service) UpdatePrescription(ctx context.Context, rx *Prescription) error {
	existing, err := s.prescriptions.GetByID(ctx, rx.ID)
	if err != nil {
		return err
	}
	rx.PatientID = existing.PatientID
	rx.PatientName = existing.PatientName
	rx.PrescribedBy = existing.PrescribedBy
	rx.PrescribedByName = existing.PrescribedByName
	rx.Dispensed = existing.Dispensed
	rx.DispensedAt = existing.DispensedAt
	rx.DispensedBy = existing.DispensedBy
	rx.CreatedAt = existing.CreatedAt
	if rx.Status == "" {
		rx.Status = existing.Status
	}
	if err := clean(rx); err != nil {
		return err
	}
	return s.prescriptions.Update(ctx, rx)
}

func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	return s.prescriptions.Delete(ctx, id)
}

func (s *Service) ListPrescriptions(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

// Dispense marks a prescription as handed out by the pharmacist "by" and
// completes it. The store applies the change only while the prescription is
// still undispensed, so of two concurrent calls exactly one succeeds.
func (s *Service) Dispense(ctx context.Context, id uuid.UUID, by string) (*Prescription, error) {
	rx, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := dispensable(rx); err != nil {
		return nil, err
	}
	changed, err := s.prescriptions.MarkDispensed(ctx, id, by, s.now().UTC())
	if err != nil {
		return nil, err
	}
	current, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !changed {
		if err := dispensable(current); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyDispensed
	}
	return current, nil
}

func dispensable(rx *Prescription) error {
	switch {
	case rx.Dispensed:
		return ErrAlreadyDispensed
	case rx.Status == StatusCancelled:
		return ErrNotDispensable
	}
	return nil
}

func (s *Service) CountPrescriptions(ctx context.Context, statuses ...string) (int, error) {
	return s.prescriptions.CountByStatus(ctx, statuses...)
}

func (s *Service) RecentPrescriptions(ctx context.Context, n int) ([]*Prescription, error) {
	items, _, err := s.prescriptions.List(ctx, n, 0)
	return items, err
}

func clean(rx *Prescription) error {
	rx.Medication = strings.TrimSpace(rx.Medication)
	rx.Dosage = strings.TrimSpace(rx.Dosage)
	rx.Frequency = strings.TrimSpace(rx.Frequency)
	rx.Duration = strings.TrimSpace(rx.Duration)
	switch {
	case rx.Medication == "":
		return fmt.Errorf("medication is required")
	case rx.Dosage == "":
		return fmt.Errorf("dosage is required")
	case rx.Frequency == "":
		return fmt.Errorf("frequency is required")
	case rx.Duration == "":
		return fmt.Errorf("duration is required")
	}
	if !validStatuses[rx.Status] {
		return fmt.Errorf("invalid status: %q", rx.Status)
	}
	if rx.Instructions != nil {
		v := strings.TrimSpace(*rx.Instructions)
		if v == "" {
			rx.Instructions = nil
		} else {
			rx.Instructions = &v
		}
	}
	return nil
}
