package appointment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medicare/emr/internal/domain/patient"
)

var validStatuses = map[string]bool{
	"scheduled": true, "confirmed": true, "completed": true, "cancelled": true,
}

type PatientLookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	appointments AppointmentRepository
	patients     PatientLookup
}

// NewService builds the appointment service. patients may be nil.
func NewService(appointments AppointmentRepository, patients PatientLookup) *Service {
	return &Service{appointments: appointments, patients: patients}
}

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.Status == "" {
		a.Status = "scheduled"
	}
	if err := clean(a); err != nil {
		return err
	}
	if s.patients != nil {
		p, err := s.patients.GetPatient(ctx, a.PatientID)
		if err != nil {
			return fmt.Errorf("patient %s not found", a.PatientID)
		}
		a.PatientName = p.FullName()
	}
	return s.appointments.Create(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	existing, err := s.appointments.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	a.PatientID = existing.PatientID
	a.PatientName = existing.PatientName
	a.CreatedAt = existing.CreatedAt
	if a.DoctorID == uuid.Nil {
		a.DoctorID = existing.DoctorID
		a.DoctorName = existing.DoctorName
	}
	if a.Status == "" {
		a.Status = existing.Status
	}
	if err := clean(a); err != nil {
		return err
	}
	return s.appointments.Update(ctx, a)
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.appointments.Delete(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

func clean(a *Appointment) error {
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.AppointmentDate.IsZero() {
		return fmt.Errorf("appointment_date is required")
	}
	a.AppointmentType = strings.TrimSpace(a.AppointmentType)
	if a.AppointmentType == "" {
		return fmt.Errorf("appointment_type is required")
	}
	if !validStatuses[a.Status] {
		return fmt.Errorf("invalid status: %q", a.Status)
	}
	a.DoctorName = strings.TrimSpace(a.DoctorName)
	return nil
}
