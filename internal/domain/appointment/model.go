package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	PatientName     string    `db:"patient_name" json:"patient_name"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DoctorName      string    `db:"doctor_name" json:"doctor_name"`
	AppointmentDate time.Time `db:"appointment_date" json:"appointment_date"`
	AppointmentType string    `db:"appointment_type" json:"appointment_type"`
	Reason          *string   `db:"reason" json:"reason,omitempty"`
	Status          string    `db:"status" json:"status"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
