package report

import (
	"fmt"
	"strings"
	"time"
)

// Section names one part of a report body.
type Section string

const (
	SectionPatient       Section = "patient"
	SectionEmergency     Section = "emergency"
	SectionHistory       Section = "history"
	SectionPrescriptions Section = "prescriptions"
	SectionTreatments    Section = "treatments"
	SectionSignature     Section = "signature"
	SectionNotice        Section = "notice"
)

// Geometry fixes the page frame of a style.
type Geometry struct {
	Margin  float64
	Top     float64
	Reserve float64
}

// Labels is the text a style puts around the record values. A blank
// NoHistory or NoAllergies means empty lists are omitted instead.
type Labels struct {
	Title         string
	Patient       string
	Emergency     string
	History       string
	Prescriptions string
	Treatments    string

	Name           string
	BirthDate      string
	Age            string
	Gender         string
	Phone          string
	BloodType      string
	Email          string
	Address        string
	ContactName    string
	ContactPhone   string
	MedicalHistory string
	Allergies      string
	Medications    string

	Dosage       string
	Frequency    string
	Duration     string
	Status       string
	PrescribedBy string
	Instructions string

	Description string
	Diagnosis   string
	Priority    string
	Scheduled   string
	CreatedBy   string
	Notes       string

	Signature string
	Continued string

	NoHistory   string
	NoAllergies string
}

// Style is one visual assembly of the patient record: section order, label
// set and the renderer that draws them.
type Style struct {
	Name       string
	FilePrefix string
	Geometry   Geometry
	Sections   []Section
	Labels     Labels
	// DateLayout formats the generation date stamp.
	DateLayout string
	// ScheduledLayout formats treatment schedule times.
	ScheduledLayout string

	render renderer
}

type renderer interface {
	// decorate draws the fixed header and footer of the current page.
	decorate(d *document)
	opening(d *document)
	section(d *document, s Section)
	// stamp writes the page number; it runs after all content is laid out.
	stamp(d *document, page, total int)
}

var (
	ClinicalStyle = Style{
		Name:       "clinical",
		FilePrefix: "MediCare",
		Geometry:   Geometry{Margin: 15, Top: 12, Reserve: 12},
		Sections: []Section{
			SectionPatient, SectionEmergency, SectionHistory,
			SectionPrescriptions, SectionTreatments, SectionNotice,
		},
		Labels: Labels{
			Title:          "Patient Medical Record",
			Patient:        "Patient Information",
			Emergency:      "Emergency Contact",
			History:        "General Medical History",
			Prescriptions:  "Prescription History",
			Treatments:     "Treatment History",
			BirthDate:      "Birth Date",
			Gender:         "Gender",
			Phone:          "Phone",
			BloodType:      "Blood Type",
			Email:          "Email",
			Address:        "Address",
			ContactName:    "Contact Name",
			ContactPhone:   "Contact Phone",
			MedicalHistory: "Medical History",
			Allergies:      "Allergies",
			Dosage:         "Dosage",
			Frequency:      "Frequency",
			Duration:       "Duration",
			Status:         "Status",
			PrescribedBy:   "Prescribed By",
			Instructions:   "Instructions",
			Description:    "Description",
			Diagnosis:      "Diagnosis",
			Priority:       "Priority",
			Scheduled:      "Scheduled",
			CreatedBy:      "Created By",
			Notes:          "Notes",
			Continued:      "(continued)",
			NoHistory:      "No significant medical history recorded",
			NoAllergies:    "No known allergies",
		},
		DateLayout:      "1/2/2006",
		ScheduledLayout: "1/2/2006 3:04:05 PM",
		render:          clinical{},
	}

	FormStyle = Style{
		Name:       "form",
		FilePrefix: "Ordonnance",
		Geometry:   Geometry{Margin: 20, Top: 15, Reserve: 8},
		Sections: []Section{
			SectionPatient, SectionEmergency, SectionHistory,
			SectionPrescriptions, SectionTreatments, SectionSignature, SectionNotice,
		},
		Labels: Labels{
			Title:          "ORDONNANCE / PRESCRIPTION",
			Patient:        "PATIENT",
			Prescriptions:  "PRESCRIPTIONS",
			Treatments:     "TREATMENTS / TRAITEMENTS",
			Name:           "Nom / Name",
			BirthDate:      "Date de naissance / Date of birth",
			Age:            "Âge / Age",
			Gender:         "Sexe / Sex",
			Phone:          "Téléphone / Phone",
			BloodType:      "Groupe sanguin / Blood type",
			Email:          "Courriel / Email",
			Address:        "Adresse / Address",
			ContactName:    "Contact d'urgence / Emergency contact",
			ContactPhone:   "Tél. urgence / Emergency phone",
			MedicalHistory: "Antécédents / Medical history",
			Allergies:      "Allergies / Allergies",
			Medications:    "Traitement en cours / Current medications",
			Dosage:         "Posologie / Dosage",
			Frequency:      "Fréquence / Frequency",
			Duration:       "Durée / Duration",
			Status:         "Statut / Status",
			PrescribedBy:   "Prescrit par / Prescribed by",
			Instructions:   "Instructions / Instructions",
			Description:    "Description / Description",
			Diagnosis:      "Diagnostic / Diagnosis",
			Priority:       "Priorité / Priority",
			Scheduled:      "Prévu le / Scheduled",
			CreatedBy:      "Par / By",
			Notes:          "Notes / Notes",
			Signature:      "Signature et cachet du médecin / Doctor's signature and stamp",
			Continued:      "(suite / continued)",
		},
		DateLayout:      "02/01/2006",
		ScheduledLayout: "02/01/2006 15:04",
		render:          form{},
	}
)

// ParseStyle resolves a style by name ("clinical" or "form").
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ClinicalStyle.Name:
		return ClinicalStyle, nil
	case FormStyle.Name:
		return FormStyle, nil
	default:
		return Style{}, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
}

// document is the state of one Generate call.
type document struct {
	c     Canvas
	ls    *LayoutState
	est   Estimator
	style *Style
	in    Input
	now   time.Time
	loc   *time.Location
}

func (d *document) newPage(int) {
	d.c.AddPage()
	d.style.render.decorate(d)
}

func (d *document) labels() *Labels {
	return &d.style.Labels
}

// text returns a single-line row drawing s at dx from the column edge.
func text(font Font, color Color, s string, height, baseline, dx float64) line {
	return line{height: height, draw: func(c Canvas, x, top float64) {
		font.apply(c)
		c.SetTextColor(color)
		c.Text(x+dx, top+baseline, s, AlignLeft)
	}}
}

// centered returns a row drawing s centred on cx, regardless of column.
func centered(font Font, color Color, s string, height, baseline, cx float64) line {
	return line{height: height, draw: func(c Canvas, _, top float64) {
		font.apply(c)
		c.SetTextColor(color)
		c.Text(cx, top+baseline, s, AlignCenter)
	}}
}

// joinRows places gap spacers between row groups.
func joinRows(gap float64, rows ...[]line) []line {
	var out []line
	for _, r := range rows {
		if len(r) == 0 {
			continue
		}
		if len(out) > 0 && gap > 0 {
			out = append(out, spacer(gap))
		}
		out = append(out, r...)
	}
	return out
}

func (d *document) formatScheduled(t *time.Time) (string, bool) {
	if t == nil || t.IsZero() {
		return "", false
	}
	return t.In(d.loc).Format(d.style.ScheduledLayout), true
}
