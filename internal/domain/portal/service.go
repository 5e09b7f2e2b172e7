// Package portal serves a signed-in patient their own records.
package portal

import (
	"context"

	"github.com/google/uuid"

	"github.com/medicare/emr/internal/domain/appointment"
	"github.com/medicare/emr/internal/domain/patient"
	"github.com/medicare/emr/internal/domain/prescription"
	"github.com/medicare/emr/internal/domain/treatment"
)

type PatientReader interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type PrescriptionReader interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*prescription.Prescription, int, error)
}

type TreatmentReader interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*treatment.Treatment, int, error)
}

type AppointmentReader interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*appointment.Appointment, int, error)
}

// Service is a read-only view over the clinical services, always scoped
// to one patient id.
type Service struct {
	patients      PatientReader
	prescriptions PrescriptionReader
	treatments    TreatmentReader
	appointments  AppointmentReader
}

func NewService(patients PatientReader, prescriptions PrescriptionReader, treatments TreatmentReader, appointments AppointmentReader) *Service {
	return &Service{
		patients:      patients,
		prescriptions: prescriptions,
		treatments:    treatments,
		appointments:  appointments,
	}
}

func (s *Service) Profile(ctx context.Context, patientID uuid.UUID) (*patient.Patient, error) {
	return s.patients.GetPatient(ctx, patientID)
}

func (s *Service) Prescriptions(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*prescription.Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Treatments(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*treatment.Treatment, int, error) {
	return s.treatments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Appointments(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*appointment.Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}
