package treatment

import (
	"time"

	"github.com/google/uuid"

	"github.com/medicare/emr/internal/platform/report"
)

type Treatment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName    string     `db:"patient_name" json:"patient_name"`
	TreatmentType  string     `db:"treatment_type" json:"treatment_type"`
	Description    string     `db:"description" json:"description"`
	Diagnosis      *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	Status         string     `db:"status" json:"status"`
	Priority       string     `db:"priority" json:"priority"`
	ScheduledDate  *time.Time `db:"scheduled_date" json:"scheduled_date,omitempty"`
	CompletedDate  *time.Time `db:"completed_date" json:"completed_date,omitempty"`
	CreatedBy      string     `db:"created_by" json:"created_by"`
	CreatedByName  string     `db:"created_by_name" json:"created_by_name"`
	AssignedTo     *string    `db:"assigned_to" json:"assigned_to,omitempty"`
	AssignedToName *string    `db:"assigned_to_name" json:"assigned_to_name,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

func (t *Treatment) Snapshot() report.Treatment {
	return report.Treatment{
		ID:            t.ID,
		PatientID:     t.PatientID,
		PatientName:   t.PatientName,
		TreatmentType: t.TreatmentType,
		Description:   t.Description,
		Diagnosis:     t.Diagnosis,
		Notes:         t.Notes,
		Status:        t.Status,
		Priority:      t.Priority,
		ScheduledDate: t.ScheduledDate,
		CreatedByName: t.CreatedByName,
	}
}
