package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusCritical = "critical"
)

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true,
}

var validStatuses = map[string]bool{
	StatusActive: true, StatusInactive: true, StatusCritical: true,
}

var validBloodTypes = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

type Service struct {
	patients PatientRepository
}

func NewService(patients PatientRepository) *Service {
	return &Service{patients: patients}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Status == "" {
		p.Status = StatusActive
	}
	if err := clean(p); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// GetPatientByUser returns the record linked to a portal account.
func (s *Service) GetPatientByUser(ctx context.Context, userID string) (*Patient, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.patients.GetByUserID(ctx, userID)
}

// UpdatePatient replaces the editable fields of an existing record. The
// creation audit fields are carried over from the stored row.
func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	existing, err := s.patients.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedBy = existing.CreatedBy
	p.CreatedAt = existing.CreatedAt
	if p.Status == "" {
		p.Status = existing.Status
	}
	if err := clean(p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) SearchPatients(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, 0, fmt.Errorf("q is required")
	}
	return s.patients.Search(ctx, q, limit, offset)
}

// CountPatients counts patients in any of statuses, or all patients when
// none are given.
func (s *Service) CountPatients(ctx context.Context, statuses ...string) (int, error) {
	return s.patients.CountByStatus(ctx, statuses...)
}

func (s *Service) RecentPatients(ctx context.Context, n int) ([]*Patient, error) {
	items, _, err := s.patients.List(ctx, n, 0)
	return items, err
}

// clean trims and validates p in place.
func clean(p *Patient) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	p.DateOfBirth = strings.TrimSpace(p.DateOfBirth)
	if p.DateOfBirth == "" {
		return fmt.Errorf("date_of_birth is required")
	}
	if _, err := time.Parse("2006-01-02", p.DateOfBirth); err != nil {
		return fmt.Errorf("date_of_birth must be YYYY-MM-DD: %w", err)
	}
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	if !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %q", p.Gender)
	}
	if !validStatuses[p.Status] {
		return fmt.Errorf("invalid status: %q", p.Status)
	}

	p.Email = optional(p.Email)
	p.Phone = optional(p.Phone)
	p.Address = optional(p.Address)
	p.BloodType = optional(p.BloodType)
	p.EmergencyContactName = optional(p.EmergencyContactName)
	p.EmergencyContactPhone = optional(p.EmergencyContactPhone)
	if p.Email != nil && !strings.Contains(*p.Email, "@") {
		return fmt.Errorf("invalid email: %q", *p.Email)
	}
	if p.BloodType != nil {
		bt := strings.ToUpper(*p.BloodType)
		if !validBloodTypes[bt] {
			return fmt.Errorf("invalid blood_type: %q", *p.BloodType)
		}
		p.BloodType = &bt
	}

	p.Allergies = entries(p.Allergies)
	p.MedicalHistory = entries(p.MedicalHistory)
	p.CurrentMedications = entries(p.CurrentMedications)
	return nil
}

// optional trims s and drops it when blank.
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

func entries(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
