package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Input is the point-in-time record set a report is generated from.
// Generate never modifies it.
type Input struct {
	Patient       *Patient       `json:"patient"`
	Prescriptions []Prescription `json:"prescriptions"`
	Treatments    []Treatment    `json:"treatments"`
}

type Patient struct {
	ID                    uuid.UUID `json:"id"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	DateOfBirth           string    `json:"date_of_birth"`
	Gender                string    `json:"gender"`
	Email                 *string   `json:"email,omitempty"`
	Phone                 *string   `json:"phone,omitempty"`
	Address               *string   `json:"address,omitempty"`
	BloodType             *string   `json:"blood_type,omitempty"`
	Allergies             []string  `json:"allergies"`
	MedicalHistory        []string  `json:"medical_history"`
	CurrentMedications    []string  `json:"current_medications"`
	EmergencyContactName  *string   `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string   `json:"emergency_contact_phone,omitempty"`
	Status                string    `json:"status"`
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type Prescription struct {
	ID               uuid.UUID `json:"id"`
	PatientID        uuid.UUID `json:"patient_id"`
	PatientName      string    `json:"patient_name"`
	Medication       string    `json:"medication"`
	Dosage           string    `json:"dosage"`
	Frequency        string    `json:"frequency"`
	Duration         string    `json:"duration"`
	Instructions     *string   `json:"instructions,omitempty"`
	PrescribedByName string    `json:"prescribed_by_name"`
	Status           string    `json:"status"`
	Dispensed        bool      `json:"dispensed"`
}

type Treatment struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	PatientName   string     `json:"patient_name"`
	TreatmentType string     `json:"treatment_type"`
	Description   string     `json:"description"`
	Diagnosis     *string    `json:"diagnosis,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	CreatedByName string     `json:"created_by_name"`
}

// present returns the trimmed value of an optional field and whether it
// should be rendered at all.
func present(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

// orFallback substitutes fallback for a blank value.
func orFallback(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
