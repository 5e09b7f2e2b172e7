package treatment

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
	StatusScheduled  = "scheduled"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusInProgress: true, StatusCompleted: true, StatusCancelled: true,
}

var validPriorities = map[string]bool{
	"low": true, "medium": true, "high": true, "urgent": true,
}

// ErrInvalidTransition is returned by Start and Complete when the treatment
// is not in a state the transition applies to.
var ErrInvalidTransition = errors.New("invalid treatment status transition")

type PatientLookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	treatments TreatmentRepository
	patients   PatientLookup
	now        func() time.Time
}

// NewService builds the treatment service. patients may be nil.
func NewService(treatments TreatmentRepository, patients PatientLookup) *Service {
	return &Service{treatments: treatments, patients: patients, now: time.Now}
}

func (s *Service) CreateTreatment(ctx context.Context, t *Treatment) error {
	if t.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if t.Status == "" {
		t.Status = StatusScheduled
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if err := clean(t); err != nil {
		return err
	}
	if s.patients != nil {
		p, err := s.patients.GetPatient(ctx, t.PatientID)
		if err != nil {
			return fmt.Errorf("patient %s not found", t.PatientID)
		}
		t.PatientName = p.FullName()
	}
	if t.Status == StatusCompleted && t.CompletedDate == nil {
		at := s.now().UTC()
		t.CompletedDate = &at
	}
	return s.treatments.Create(ctx, t)
}

func (s *Service) GetTreatment(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	return s.treatments.GetByID(ctx, id)
}

func (s *Service) UpdateTreatment(ctx context.Context, t *Treatment) error {
	existing, err := s.treatments.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	t.PatientID = existing.PatientID
	t.PatientName = existing.PatientName
	t.CreatedBy = existing.CreatedBy
	t.CreatedByName = existing.CreatedByName
	t.CreatedAt = existing.CreatedAt
	if t.Status == "" {
		t.Status = existing.Status
	}
	if t.Priority == "" {
		t.Priority = existing.Priority
	}
	if err := clean(t); err != nil {
		return err
	}
	switch {
	case t.Status == StatusCompleted && t.CompletedDate == nil:
		if existing.CompletedDate != nil {
			t.CompletedDate = existing.CompletedDate
		} else {
			at := s.now().UTC()
			t.CompletedDate = &at
		}
	case t.Status != StatusCompleted:
		t.CompletedDate = nil
	}
	return s.treatments.Update(ctx, t)
}

func (s *Service) DeleteTreatment(ctx context.Context, id uuid.UUID) error {
	return s.treatments.Delete(ctx, id)
}

func (s *Service) ListTreatments(ctx context.Context, limit, offset int) ([]*Treatment, int, error) {
	return s.treatments.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Treatment, int, error) {
	return s.treatments.ListByPatient(ctx, patientID, limit, offset)
}

// StartTreatment moves a scheduled treatment to in-progress.
func (s *Service) StartTreatment(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	return s.transition(ctx, id, "start", StatusInProgress, nil, StatusScheduled)
}

// CompleteTreatment closes a scheduled or in-progress treatment and stamps
// its completion date.
func (s *Service) CompleteTreatment(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	at := s.now().UTC()
	return s.transition(ctx, id, "complete", StatusCompleted, &at, StatusScheduled, StatusInProgress)
}

// transition applies a status change through a conditional store update, so
// a concurrent change to the same treatment makes this one fail instead of
// overwriting it.
func (s *Service) transition(ctx context.Context, id uuid.UUID, verb, to string, completedAt *time.Time, from ...string) (*Treatment, error) {
	t, err := s.treatments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !oneOf(t.Status, from) {
		return nil, fmt.Errorf("%w: cannot %s a %s treatment", ErrInvalidTransition, verb, t.Status)
	}
	changed, err := s.treatments.Transition(ctx, id, from, to, completedAt)
	if err != nil {
		return nil, err
	}
	current, err := s.treatments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: cannot %s a %s treatment", ErrInvalidTransition, verb, current.Status)
	}
	return current, nil
}

func oneOf(status string, set []string) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}

func (s *Service) CountTreatments(ctx context.Context, statuses ...string) (int, error) {
	return s.treatments.CountByStatus(ctx, statuses...)
}

func (s *Service) UpcomingTreatments(ctx context.Context, n int) ([]*Treatment, error) {
	return s.treatments.ListUpcoming(ctx, s.now().UTC(), n)
}

func clean(t *Treatment) error {
	t.TreatmentType = strings.TrimSpace(t.TreatmentType)
	t.Description = strings.TrimSpace(t.Description)
	if t.TreatmentType == "" {
		return fmt.Errorf("treatment_type is required")
	}
	if t.Description == "" {
		return fmt.Errorf("description is required")
	}
	if !validStatuses[t.Status] {
		return fmt.Errorf("invalid status: %q", t.Status)
	}
	if !validPriorities[t.Priority] {
		return fmt.Errorf("invalid priority: %q", t.Priority)
	}
	t.Diagnosis = optional(t.Diagnosis)
	t.Notes = optional(t.Notes)
	return nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
