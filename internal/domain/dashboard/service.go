// Package dashboard aggregates the staff landing page figures.
package dashboard

import (
	"context"
	"fmt"

	"github.com/medicare/emr/internal/domain/patient"
	"github.com/medicare/emr/internal/domain/prescription"
	"github.com/medicare/emr/internal/domain/treatment"
	"github.com/medicare/emr/internal/platform/auth"
)

const recentLimit = 5

var roleWelcome = map[string]string{
	auth.RoleDoctor:     "Ready to provide excellent patient care today.",
	auth.RoleNurse:      "Your patients are waiting for your compassionate care.",
	auth.RolePharmacist: "Prescriptions are ready for your review.",
}

type PatientStats interface {
	CountPatients(ctx context.Context, statuses ...string) (int, error)
	RecentPatients(ctx context.Context, n int) ([]*patient.Patient, error)
}

type PrescriptionStats interface {
	CountPrescriptions(ctx context.Context, statuses ...string) (int, error)
	RecentPrescriptions(ctx context.Context, n int) ([]*prescription.Prescription, error)
}

type TreatmentStats interface {
	CountTreatments(ctx context.Context, statuses ...string) (int, error)
	UpcomingTreatments(ctx context.Context, n int) ([]*treatment.Treatment, error)
}

type Stats struct {
	Welcome             string                       `json:"welcome"`
	TotalPatients       int                          `json:"total_patients"`
	ActivePrescriptions int                          `json:"active_prescriptions"`
	OngoingTreatments   int                          `json:"ongoing_treatments"`
	CriticalPatients    int                          `json:"critical_patients"`
	RecentPatients      []*patient.Patient           `json:"recent_patients"`
	RecentPrescriptions []*prescription.Prescription `json:"recent_prescriptions"`
	UpcomingTreatments  []*treatment.Treatment       `json:"upcoming_treatments"`
}

type Service struct {
	patients      PatientStats
	prescriptions PrescriptionStats
	treatments    TreatmentStats
}

func NewService(patients PatientStats, prescriptions PrescriptionStats, treatments TreatmentStats) *Service {
	return &Service{patients: patients, prescriptions: prescriptions, treatments: treatments}
}

// Welcome returns the greeting for the first role that has one. Roles
// without a greeting of their own get the doctor's.
func Welcome(roles []string) string {
	for _, r := range roles {
		if msg, ok := roleWelcome[r]; ok {
			return msg
		}
	}
	return roleWelcome[auth.RoleDoctor]
}

func (s *Service) Stats(ctx context.Context, roles []string) (*Stats, error) {
	st := &Stats{Welcome: Welcome(roles)}
	var err error

	if st.TotalPatients, err = s.patients.CountPatients(ctx); err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}
	if st.CriticalPatients, err = s.patients.CountPatients(ctx, patient.StatusCritical); err != nil {
		return nil, fmt.Errorf("count critical patients: %w", err)
	}
	if st.ActivePrescriptions, err = s.prescriptions.CountPrescriptions(ctx,
		prescription.StatusActive, prescription.StatusPending); err != nil {
		return nil, fmt.Errorf("count prescriptions: %w", err)
	}
	if st.OngoingTreatments, err = s.treatments.CountTreatments(ctx,
		treatment.StatusInProgress, treatment.StatusScheduled); err != nil {
		return nil, fmt.Errorf("count treatments: %w", err)
	}

	if st.RecentPatients, err = s.patients.RecentPatients(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("recent patients: %w", err)
	}
	if st.RecentPrescriptions, err = s.prescriptions.RecentPrescriptions(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("recent prescriptions: %w", err)
	}
	if st.UpcomingTreatments, err = s.treatments.UpcomingTreatments(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("upcoming treatments: %w", err)
	}
	if st.RecentPatients == nil {
		st.RecentPatients = []*patient.Patient{}
	}
	if st.RecentPrescriptions == nil {
		st.RecentPrescriptions = []*prescription.Prescription{}
	}
	if st.UpcomingTreatments == nil {
		st.UpcomingTreatments = []*treatment.Treatment{}
	}
	return st, nil
}
