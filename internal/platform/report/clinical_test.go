package report

import (
	"math"
	"strings"
	"testing"
)

func TestClinical_FallbackTexts(t *testing.T) {
	in := sampleInput()
	in.Patient.MedicalHistory = []string{}
	in.Patient.Allergies = []string{}

	_, rc := generateRecorded(t, in, ClinicalStyle)
	text := rc.allText()
	for _, s := range []string{"No significant medical history recorded", "No known allergies", "Medical History", "Allergies"} {
		if !strings.Contains(text, s) {
			t.Errorf("expected %q in the clinical report", s)
		}
	}
}

func TestClinical_PrescriptionBoxHeightMatchesContent(t *testing.T) {
	instructions := strings.TrimSpace(strings.Repeat("Take one tablet after breakfast with a full glass of water. ", 5))
	if n := len([]rune(instructions)); n < 290 || n > 310 {
		t.Fatalf("fixture should be about 300 characters, got %d", n)
	}
	rx := Prescription{
		PatientID: testPatientID, Medication: "Metformin",
		Dosage: "500mg", Frequency: "Twice daily", Duration: "7 days",
		Instructions: &instructions, PrescribedByName: "Dr. Gregory House", Status: "active",
	}

	rc := newRecordingCanvas()
	d := testDocument(rc)
	r := clinical{}

	wrapped := WrapText(instructions, r.fullWidth(d)-5, func(s string) float64 { return fakeWidth(s, valueFont.Size) })
	if len(wrapped) < 2 {
		t.Fatalf("fixture should wrap, got %d line", len(wrapped))
	}
	// dosage, frequency, duration: three one-line fields with two gaps
	columns := 3*(labelH+lineH) + 2*rowGap
	want := float64(boxPadTop+titleH+columns+fullGap+labelH+boxPadBottom) + float64(len(wrapped))*lineH

	b := r.prescriptionBox(d, &rx)
	if b.Height() != want {
		t.Fatalf("estimated height %v, want %v", b.Height(), want)
	}

	before := d.ls.Y
	b.place(d)
	if got := d.ls.Y - before; got != want+boxSpacing {
		t.Errorf("cursor advanced %v, want %v", got, want+boxSpacing)
	}
	blk := d.ls.Blocks[len(d.ls.Blocks)-1]
	if blk.Kind != "prescription" || blk.Height != want {
		t.Errorf("recorded block %+v, want height %v", blk, want)
	}

	var border rectOp
	for _, rect := range rc.rects {
		if rect.style == Stroke {
			border = rect
		}
	}
	if border.h != want || border.y != blk.Top {
		t.Errorf("border %+v does not match block %+v", border, blk)
	}
	last, ok := rc.findText(wrapped[len(wrapped)-1])
	if !ok {
		t.Fatal("last instruction line not drawn")
	}
	if last.y > blk.Bottom() {
		t.Errorf("instruction text at %v is below the box bottom %v", last.y, blk.Bottom())
	}
}

func TestClinical_GeneratedBlockMatchesEstimate(t *testing.T) {
	in := sampleInput()
	res, _ := generateRecorded(t, in, ClinicalStyle)

	rc := newRecordingCanvas()
	d := testDocument(rc)
	want := clinical{}.prescriptionBox(d, &in.Prescriptions[0]).Height()

	for _, b := range res.Blocks {
		if b.Kind == "prescription" {
			if b.Height != want {
				t.Errorf("first prescription block is %v high, estimate %v", b.Height, want)
			}
			return
		}
	}
	t.Fatal("no prescription block recorded")
}

func TestClinical_PatientBlock(t *testing.T) {
	in := sampleInput()
	in.Patient.Status = "critical"
	_, rc := generateRecorded(t, in, ClinicalStyle)
	text := rc.allText()

	for _, s := range []string{"Jane Doe", "CRITICAL", "Birth Date", "1985-06-20", "Female", "O+", "jane.doe@example.com", "Contact Name", "John Doe"} {
		if !strings.Contains(text, s) {
			t.Errorf("expected %q in the patient block", s)
		}
	}

	badge := false
	for _, r := range rc.rects {
		if r.page == 1 && r.style == Fill && r.h == 5 {
			badge = true
		}
	}
	if !badge {
		t.Error("expected a status badge next to the name")
	}
}

func TestClinical_StatusBadgeColor(t *testing.T) {
	tests := []struct {
		status string
		label  string
		want   Color
	}{
		{"active", "ACTIVE", Color{34, 197, 94}},
		{"inactive", "INACTIVE", Color{156, 163, 175}},
		{"critical", "CRITICAL", Color{239, 68, 68}},
		{"Critical ", "CRITICAL", Color{239, 68, 68}},
		{"archived", "ARCHIVED", Color{34, 197, 94}},
		{"", "ACTIVE", Color{34, 197, 94}},
	}
	for _, tt := range tests {
		t.Run(tt.label+"/"+tt.status, func(t *testing.T) {
			in := sampleInput()
			in.Patient.Status = tt.status
			_, rc := generateRecorded(t, in, ClinicalStyle)

			// The label is drawn 2 units inside the badge's left edge.
			var badge *rectOp
			for _, label := range rc.texts {
				if label.s != tt.label || badge != nil {
					continue
				}
				for i, r := range rc.rects {
					if r.page == label.page && r.style == Fill && r.h == 5 && math.Abs(r.x-(label.x-2)) < 0.01 {
						badge = &rc.rects[i]
					}
				}
			}
			if badge == nil {
				t.Fatal("expected a filled badge behind the status label")
			}
			if badge.fill != tt.want {
				t.Errorf("expected badge color %v, got %v", tt.want, badge.fill)
			}
		})
	}
}

func TestClinical_OptionalFieldsOmitted(t *testing.T) {
	in := sampleInput()
	in.Patient.Phone = nil
	in.Patient.Email = strPtr("  ")
	in.Patient.BloodType = nil
	in.Patient.Address = nil
	in.Patient.EmergencyContactName = nil
	in.Patient.EmergencyContactPhone = nil
	in.Prescriptions[0].Instructions = nil
	in.Treatments[0].Diagnosis = nil
	in.Treatments[0].Notes = nil
	in.Treatments[0].ScheduledDate = nil

	_, rc := generateRecorded(t, in, ClinicalStyle)
	text := rc.allText()
	for _, s := range []string{"Phone\n", "Email\n", "Blood Type", "Address", "Emergency Contact", "Instructions", "Diagnosis", "Notes", "Scheduled"} {
		if strings.Contains(text, s) {
			t.Errorf("absent field rendered: %q", s)
		}
	}
	if !strings.Contains(text, "Created By") {
		t.Error("Created By is always rendered")
	}
}

func TestClinical_TreatmentFormatting(t *testing.T) {
	_, rc := generateRecorded(t, sampleInput(), ClinicalStyle)
	text := rc.allText()
	for _, s := range []string{"MEDIUM", "SCHEDULED", "3/20/2024 9:15:00 AM", "Nurse Joy", "ACTIVE", "PENDING"} {
		if !strings.Contains(text, s) {
			t.Errorf("expected %q in treatment/prescription blocks", s)
		}
	}
}

func TestClinical_DecorationOnEveryPage(t *testing.T) {
	res, rc := generateRecorded(t, largeInput(), ClinicalStyle)
	for p := 1; p <= res.Pages; p++ {
		found := false
		for _, s := range rc.pageTexts(p) {
			if s == "MediCare Health System" {
				found = true
			}
		}
		if !found {
			t.Errorf("page %d has no footer", p)
		}
	}
	last := rc.pageTexts(res.Pages)
	if !strings.Contains(strings.Join(last, "\n"), "CONFIDENTIAL MEDICAL RECORD") {
		t.Error("confidentiality notice should close the report")
	}
}
