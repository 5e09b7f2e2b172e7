package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/emr/internal/platform/report"
)

type Patient struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	FirstName             string    `db:"first_name" json:"first_name"`
	LastName              string    `db:"last_name" json:"last_name"`
	DateOfBirth           string    `db:"date_of_birth" json:"date_of_birth"`
	Gender                string    `db:"gender" json:"gender"`
	Email                 *string   `db:"email" json:"email,omitempty"`
	Phone                 *string   `db:"phone" json:"phone,omitempty"`
	Address               *string   `db:"address" json:"address,omitempty"`
	BloodType             *string   `db:"blood_type" json:"blood_type,omitempty"`
	Allergies             []string  `db:"allergies" json:"allergies"`
	MedicalHistory        []string  `db:"medical_history" json:"medical_history"`
	CurrentMedications    []string  `db:"current_medications" json:"current_medications"`
	EmergencyContactName  *string   `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string   `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	Status                string    `db:"status" json:"status"`
	UserID                *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedBy             string    `db:"created_by" json:"created_by"`
	UpdatedBy             *string   `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// normalize replaces nil list fields with empty lists.
func (p *Patient) normalize() {
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
	if p.MedicalHistory == nil {
		p.MedicalHistory = []string{}
	}
	if p.CurrentMedications == nil {
		p.CurrentMedications = []string{}
	}
}

// Snapshot copies the patient into the shape the report engine renders.
func (p *Patient) Snapshot() *report.Patient {
	return &report.Patient{
		ID:                    p.ID,
		FirstName:             p.FirstName,
		LastName:              p.LastName,
		DateOfBirth:           p.DateOfBirth,
		Gender:                p.Gender,
		Email:                 p.Email,
		Phone:                 p.Phone,
		Address:               p.Address,
		BloodType:             p.BloodType,
		Allergies:             append([]string{}, p.Allergies...),
		MedicalHistory:        append([]string{}, p.MedicalHistory...),
		CurrentMedications:    append([]string{}, p.CurrentMedications...),
		EmergencyContactName:  p.EmergencyContactName,
		EmergencyContactPhone: p.EmergencyContactPhone,
		Status:                p.Status,
	}
}
