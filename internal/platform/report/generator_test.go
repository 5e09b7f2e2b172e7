package report

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	testPatientID = uuid.MustParse("6f1c2b9e-0d5c-4a53-9a4f-2a7f1f0c8e11")
	genDay        = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
)

func fixedClock() time.Time { return genDay }

func strPtr(s string) *string { return &s }

func samplePatient() *Patient {
	return &Patient{
		ID:                    testPatientID,
		FirstName:             "Jane",
		LastName:              "Doe",
		DateOfBirth:           "1985-06-20",
		Gender:                "female",
		Email:                 strPtr("jane.doe@example.com"),
		Phone:                 strPtr("555-0100"),
		Address:               strPtr("42 Elm Street, Springfield"),
		BloodType:             strPtr("O+"),
		Allergies:             []string{"Penicillin"},
		MedicalHistory:        []string{"Hypertension", "Asthma"},
		CurrentMedications:    []string{"Lisinopril"},
		EmergencyContactName:  strPtr("John Doe"),
		EmergencyContactPhone: strPtr("555-0101"),
		Status:                "active",
	}
}

func sampleInput() Input {
	sched := time.Date(2024, 3, 20, 9, 15, 0, 0, time.UTC)
	return Input{
		Patient: samplePatient(),
		Prescriptions: []Prescription{
			{
				ID: uuid.New(), PatientID: testPatientID, Medication: "Amoxicillin",
				Dosage: "500mg", Frequency: "Twice daily", Duration: "7 days",
				Instructions: strPtr("Take with food."), PrescribedByName: "Dr. Gregory House", Status: "active",
			},
			{
				ID: uuid.New(), PatientID: testPatientID, Medication: "Salbutamol",
				Dosage: "100mcg", Frequency: "As needed", Duration: "30 days",
				PrescribedByName: "Dr. Gregory House", Status: "pending",
			},
		},
		Treatments: []Treatment{
			{
				ID: uuid.New(), PatientID: testPatientID, TreatmentType: "Physiotherapy",
				Description: "Breathing exercises", Diagnosis: strPtr("Asthma"),
				Notes: strPtr("Weekly sessions"), Status: "scheduled", Priority: "medium",
				ScheduledDate: &sched, CreatedByName: "Nurse Joy",
			},
		},
	}
}

// largeInput produces enough content for several pages.
func largeInput() Input {
	in := sampleInput()
	long := strings.Repeat("Monitor blood pressure daily and report any dizziness. ", 6)
	for i := 0; i < 25; i++ {
		in.Prescriptions = append(in.Prescriptions, Prescription{
			ID: uuid.New(), PatientID: testPatientID, Medication: fmt.Sprintf("Medication %d", i),
			Dosage: "10mg", Frequency: "Once daily", Duration: "90 days",
			Instructions: strPtr(long), PrescribedByName: "Dr. Who", Status: "active",
		})
	}
	for i := 0; i < 15; i++ {
		in.Treatments = append(in.Treatments, Treatment{
			ID: uuid.New(), PatientID: testPatientID, TreatmentType: fmt.Sprintf("Session %d", i),
			Description: long, Notes: strPtr(long), Status: "in-progress", Priority: "high",
			CreatedByName: "Dr. Who",
		})
	}
	return in
}

func generateRecorded(t *testing.T, in Input, style Style, opts ...Option) (*Result, *recordingCanvas) {
	t.Helper()
	rc := newRecordingCanvas()
	res, err := Generate(in, style, append([]Option{WithClock(fixedClock), recorder(rc)}, opts...)...)
	if err != nil {
		t.Fatalf("Generate(%s): %v", style.Name, err)
	}
	return res, rc
}

var allStyles = []Style{ClinicalStyle, FormStyle}

func TestGenerate_Idempotent(t *testing.T) {
	for _, style := range allStyles {
		t.Run(style.Name, func(t *testing.T) {
			res1, rc1 := generateRecorded(t, largeInput(), style)
			res2, rc2 := generateRecorded(t, largeInput(), style)
			if res1.Pages != res2.Pages {
				t.Fatalf("page counts differ: %d vs %d", res1.Pages, res2.Pages)
			}
			for p := 1; p <= res1.Pages; p++ {
				if !reflect.DeepEqual(rc1.pageTexts(p), rc2.pageTexts(p)) {
					t.Errorf("page %d text differs between runs", p)
				}
			}
		})
	}
}

func TestGenerate_IdempotentPDFBytes(t *testing.T) {
	in := sampleInput()
	res1, err := Generate(in, ClinicalStyle, WithClock(fixedClock))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	res2, err := Generate(in, ClinicalStyle, WithClock(fixedClock))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(res1.Content, []byte("%PDF")) {
		t.Fatalf("expected PDF content")
	}
	if !bytes.Equal(res1.Content, res2.Content) {
		t.Error("equal inputs should encode to equal bytes")
	}
}

func TestGenerate_TimestampIsolated(t *testing.T) {
	in := largeInput()
	_, rc1 := generateRecorded(t, in, ClinicalStyle)
	_, rc2 := generateRecorded(t, in, ClinicalStyle, WithClock(func() time.Time {
		return time.Date(2025, 11, 2, 8, 0, 0, 0, time.UTC)
	}))

	if len(rc1.texts) != len(rc2.texts) {
		t.Fatalf("text op counts differ: %d vs %d", len(rc1.texts), len(rc2.texts))
	}
	var diffs []int
	for i := range rc1.texts {
		if rc1.texts[i].s != rc2.texts[i].s {
			diffs = append(diffs, i)
		}
	}
	if len(diffs) != 1 {
		t.Fatalf("expected exactly one differing text, got %d", len(diffs))
	}
	d := rc1.texts[diffs[0]]
	if d.page != 1 || d.s != "3/15/2024" {
		t.Errorf("the differing text should be the page 1 date, got %+v", d)
	}
}

func TestGenerate_BlocksStayAboveBottomMargin(t *testing.T) {
	for _, style := range allStyles {
		t.Run(style.Name, func(t *testing.T) {
			in := largeInput()
			in.Prescriptions = append(in.Prescriptions, Prescription{
				ID: uuid.New(), PatientID: testPatientID, Medication: "Long protocol",
				Dosage: "1", Frequency: "1", Duration: "1", Status: "active", PrescribedByName: "Dr. Who",
				Instructions: strPtr(strings.Repeat("Step follows step in this tapering protocol. ", 150)),
			})
			res, rc := generateRecorded(t, in, style)

			if res.Pages < 3 {
				t.Fatalf("expected a multi-page report, got %d pages", res.Pages)
			}
			if rc.pages != res.Pages {
				t.Errorf("canvas has %d pages, result reports %d", rc.pages, res.Pages)
			}
			limit := 297 - style.Geometry.Margin - style.Geometry.Reserve
			for _, b := range res.Blocks {
				if b.Bottom() > limit+1e-9 {
					t.Errorf("%s block on page %d ends at %.2f, limit %.2f", b.Kind, b.Page, b.Bottom(), limit)
				}
				if b.Top < style.Geometry.Top-1e-9 {
					t.Errorf("%s block on page %d starts at %.2f above the top %.2f", b.Kind, b.Page, b.Top, style.Geometry.Top)
				}
			}
		})
	}
}

func TestGenerate_PageStamps(t *testing.T) {
	res, rc := generateRecorded(t, largeInput(), ClinicalStyle)
	for p := 1; p <= res.Pages; p++ {
		want := fmt.Sprintf("Page %d of %d", p, res.Pages)
		found := false
		for _, s := range rc.pageTexts(p) {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("page %d is missing %q", p, want)
		}
	}

	res, rc = generateRecorded(t, largeInput(), FormStyle)
	for p := 1; p <= res.Pages; p++ {
		want := fmt.Sprintf("%d/%d", p, res.Pages)
		found := false
		for _, s := range rc.pageTexts(p) {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("page %d is missing %q", p, want)
		}
	}
}

func TestGenerate_SuppressesEmptySections(t *testing.T) {
	in := sampleInput()
	in.Prescriptions = nil
	in.Treatments = []Treatment{}

	_, rc := generateRecorded(t, in, ClinicalStyle)
	text := rc.allText()
	for _, s := range []string{"Prescription History", "Treatment History"} {
		if strings.Contains(text, s) {
			t.Errorf("clinical report should not contain %q", s)
		}
	}

	_, rc = generateRecorded(t, in, FormStyle)
	text = rc.allText()
	for _, s := range []string{"PRESCRIPTIONS", "TREATMENTS / TRAITEMENTS"} {
		if strings.Contains(text, s) {
			t.Errorf("form report should not contain %q", s)
		}
	}
}

func TestGenerate_SectionsPresentWithRecords(t *testing.T) {
	_, rc := generateRecorded(t, sampleInput(), ClinicalStyle)
	text := rc.allText()
	for _, s := range []string{"Prescription History", "Treatment History", "Amoxicillin", "Physiotherapy"} {
		if !strings.Contains(text, s) {
			t.Errorf("expected %q in the report", s)
		}
	}
}

func TestGenerate_FileNames(t *testing.T) {
	in := Input{Patient: &Patient{FirstName: "Jane", LastName: "Doe"}}

	res, _ := generateRecorded(t, in, ClinicalStyle)
	if res.FileName != "MediCare_Doe_Jane_2024-03-15.pdf" {
		t.Errorf("clinical file name: %s", res.FileName)
	}
	res, _ = generateRecorded(t, in, FormStyle)
	if res.FileName != "Ordonnance_Doe_Jane_2024-03-15.pdf" {
		t.Errorf("form file name: %s", res.FileName)
	}
	if res.Style != "form" {
		t.Errorf("expected style form, got %s", res.Style)
	}
}

func TestGenerate_FileNameUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	late := func() time.Time { return time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC) }
	rc := newRecordingCanvas()
	res, err := Generate(Input{Patient: &Patient{FirstName: "Jane", LastName: "Doe"}}, ClinicalStyle,
		WithClock(late), WithLocation(tokyo), recorder(rc))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.FileName != "MediCare_Doe_Jane_2024-03-16.pdf" {
		t.Errorf("expected the date in the report zone, got %s", res.FileName)
	}
}

func TestGenerate_Errors(t *testing.T) {
	foreign := sampleInput()
	foreign.Treatments[0].PatientID = uuid.New()

	tests := []struct {
		name  string
		in    Input
		style Style
		want  error
	}{
		{"nil patient", Input{}, ClinicalStyle, ErrMissingPatientName},
		{"blank last name", Input{Patient: &Patient{FirstName: "Jane", LastName: "  "}}, FormStyle, ErrMissingPatientName},
		{"foreign treatment", foreign, ClinicalStyle, ErrForeignRecord},
		{"zero style", sampleInput(), Style{}, ErrUnknownStyle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Generate(tt.in, tt.style, WithClock(fixedClock), recorder(newRecordingCanvas()))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if res != nil {
				t.Error("no result may be returned on failure")
			}
		})
	}
}

func TestGenerate_ForeignCheckNeedsPatientID(t *testing.T) {
	in := sampleInput()
	in.Patient.ID = uuid.Nil
	if _, err := Generate(in, ClinicalStyle, WithClock(fixedClock), recorder(newRecordingCanvas())); err != nil {
		t.Errorf("records cannot be checked against a patient without id: %v", err)
	}
}

func TestGenerate_CanvasFailurePropagates(t *testing.T) {
	rc := newRecordingCanvas()
	rc.failAfter = 25
	res, err := Generate(sampleInput(), ClinicalStyle, WithClock(fixedClock), recorder(rc))
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RenderError, got %v", err)
	}
	if rerr.Op != "draw" || rerr.Err.Error() != "unsupported font" {
		t.Errorf("unexpected render error: %+v", rerr)
	}
	if res != nil {
		t.Error("a failed generation must not return content")
	}
}

func TestGenerate_CanvasPanicBecomesError(t *testing.T) {
	rc := newRecordingCanvas()
	rc.panicOn = "Amoxicillin"
	res, err := Generate(sampleInput(), ClinicalStyle, WithClock(fixedClock), recorder(rc))
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RenderError, got %v", err)
	}
	if res != nil {
		t.Error("a failed generation must not return content")
	}
}

func TestGenerate_DoesNotMutateInput(t *testing.T) {
	in := sampleInput()
	before := fmt.Sprintf("%+v %+v %+v", *in.Patient, in.Prescriptions, in.Treatments)
	generateRecorded(t, in, ClinicalStyle)
	generateRecorded(t, in, FormStyle)
	after := fmt.Sprintf("%+v %+v %+v", *in.Patient, in.Prescriptions, in.Treatments)
	if before != after {
		t.Error("Generate modified its input")
	}
}

func TestParseStyle(t *testing.T) {
	for name, want := range map[string]string{"clinical": "clinical", " Form ": "form"} {
		s, err := ParseStyle(name)
		if err != nil || s.Name != want {
			t.Errorf("ParseStyle(%q) = %q, %v", name, s.Name, err)
		}
	}
	if _, err := ParseStyle("letter"); !errors.Is(err, ErrUnknownStyle) {
		t.Errorf("expected ErrUnknownStyle, got %v", err)
	}
}
