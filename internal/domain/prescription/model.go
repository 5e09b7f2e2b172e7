package prescription

import (
	"time"

	"github.com/google/uuid"

	"github.com/medicare/emr/internal/platform/report"
)

type Prescription struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName      string     `db:"patient_name" json:"patient_name"`
	Medication       string     `db:"medication" json:"medication"`
	Dosage           string     `db:"dosage" json:"dosage"`
	Frequency        string     `db:"frequency" json:"frequency"`
	Duration         string     `db:"duration" json:"duration"`
	Instructions     *string    `db:"instructions" json:"instructions,omitempty"`
	PrescribedBy     string     `db:"prescribed_by" json:"prescribed_by"`
	PrescribedByName string     `db:"prescribed_by_name" json:"prescribed_by_name"`
	Status           string     `db:"status" json:"status"`
	Dispensed        bool       `db:"dispensed" json:"dispensed"`
	DispensedAt      *time.Time `db:"dispensed_at" json:"dispensed_at,omitempty"`
	DispensedBy      *string    `db:"dispensed_by" json:"dispensed_by,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

func (rx *Prescription) Snapshot() report.Prescription {
	return report.Prescription{
		ID:               rx.ID,
		PatientID:        rx.PatientID,
		PatientName:      rx.PatientName,
		Medication:       rx.Medication,
		Dosage:           rx.Dosage,
		Frequency:        rx.Frequency,
		Duration:         rx.Duration,
		Instructions:     rx.Instructions,
		PrescribedByName: rx.PrescribedByName,
		Status:           rx.Status,
		Dispensed:        rx.Dispensed,
	}
}
