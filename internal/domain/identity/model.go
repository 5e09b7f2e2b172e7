package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff or portal account. Subject is the token subject the
// account signs in with.
type User struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Subject       string     `db:"subject" json:"subject"`
	Email         string     `db:"email" json:"email"`
	DisplayName   string     `db:"display_name" json:"display_name"`
	PhotoURL      *string    `db:"photo_url" json:"photo_url,omitempty"`
	Role          string     `db:"role" json:"role"`
	Department    *string    `db:"department" json:"department,omitempty"`
	LicenseNumber *string    `db:"license_number" json:"license_number,omitempty"`
	PatientID     *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CurrentUser is what GET /me returns: the caller's token identity plus the
// stored account when one exists.
type CurrentUser struct {
	UserID    string     `json:"user_id"`
	Roles     []string   `json:"roles"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
	Account   *User      `json:"account,omitempty"`
}
