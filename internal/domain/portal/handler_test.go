package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medicare/emr/internal/domain/appointment"
	"github.com/medicare/emr/internal/domain/patient"
	"github.com/medicare/emr/internal/domain/prescription"
	"github.com/medicare/emr/internal/domain/treatment"
	"github.com/medicare/emr/internal/platform/auth"
	"github.com/medicare/emr/pkg/pagination"
)

var (
	janeID = uuid.MustParse("7f6c1f0e-9a43-4c8e-bb0a-2d1f1e3c9a01")
	johnID = uuid.MustParse("9d8c7b6a-5f4e-4d3c-8b2a-1f0e9d8c7b6a")
)

type fakeRecords struct{}

func (fakeRecords) GetPatient(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if id != janeID && id != johnID {
		return nil, fmt.Errorf("not found")
	}
	return &patient.Patient{ID: id, FirstName: "Jane", LastName: "Doe"}, nil
}

type fakePrescriptions []*prescription.Prescription

func (f fakePrescriptions) ListByPatient(_ context.Context, id uuid.UUID, limit, offset int) ([]*prescription.Prescription, int, error) {
	var mine []*prescription.Prescription
	for _, rx := range f {
		if rx.PatientID == id {
			mine = append(mine, rx)
		}
	}
	return pagination.Page(mine, limit, offset), len(mine), nil
}

type fakeTreatments []*treatment.Treatment

func (f fakeTreatments) ListByPatient(_ context.Context, id uuid.UUID, limit, offset int) ([]*treatment.Treatment, int, error) {
	var mine []*treatment.Treatment
	for _, t := range f {
		if t.PatientID == id {
			mine = append(mine, t)
		}
	}
	return pagination.Page(mine, limit, offset), len(mine), nil
}

type fakeAppointments []*appointment.Appointment

func (f fakeAppointments) ListByPatient(_ context.Context, id uuid.UUID, limit, offset int) ([]*appointment.Appointment, int, error) {
	var mine []*appointment.Appointment
	for _, a := range f {
		if a.PatientID == id {
			mine = append(mine, a)
		}
	}
	return pagination.Page(mine, limit, offset), len(mine), nil
}

func newTestHandler() (*Handler, *echo.Echo) {
	rxs := fakePrescriptions{
		{ID: uuid.New(), PatientID: janeID, Medication: "Amoxicillin"},
		{ID: uuid.New(), PatientID: johnID, Medication: "Ibuprofen"},
	}
	txs := fakeTreatments{{ID: uuid.New(), PatientID: janeID, TreatmentType: "Physiotherapy"}}
	appts := fakeAppointments{
		{ID: uuid.New(), PatientID: janeID, AppointmentDate: time.Now()},
		{ID: uuid.New(), PatientID: janeID, AppointmentDate: time.Now()},
	}
	return NewHandler(NewService(fakeRecords{}, rxs, txs, appts)), echo.New()
}

func patientRequest(patientID *uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(auth.WithIdentity(req.Context(), "portal-1", []string{auth.RolePatient}, patientID))
}

func total(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return int(resp["total"].(float64))
}

func TestHandler_ListPrescriptions_OwnOnly(t *testing.T) {
	h, e := newTestHandler()
	id := janeID
	rec := httptest.NewRecorder()
	c := e.NewContext(patientRequest(&id), rec)

	if err := h.ListPrescriptions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := total(t, rec); got != 1 {
		t.Errorf("expected only the caller's prescription, got %d", got)
	}
}

func TestHandler_ListTreatmentsAndAppointments(t *testing.T) {
	h, e := newTestHandler()
	id := janeID

	rec := httptest.NewRecorder()
	if err := h.ListTreatments(e.NewContext(patientRequest(&id), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := total(t, rec); got != 1 {
		t.Errorf("expected 1 treatment, got %d", got)
	}

	rec = httptest.NewRecorder()
	if err := h.ListAppointments(e.NewContext(patientRequest(&id), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := total(t, rec); got != 2 {
		t.Errorf("expected 2 appointments, got %d", got)
	}
}

func TestHandler_Me(t *testing.T) {
	h, e := newTestHandler()
	id := janeID
	rec := httptest.NewRecorder()
	if err := h.Me(e.NewContext(patientRequest(&id), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var p patient.Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.ID != janeID {
		t.Errorf("expected own record, got %s", p.ID)
	}
}

func TestHandler_Me_StaleLink(t *testing.T) {
	h, e := newTestHandler()
	id := uuid.New()
	err := h.Me(e.NewContext(patientRequest(&id), httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_Unlinked(t *testing.T) {
	h, e := newTestHandler()
	err := h.ListPrescriptions(e.NewContext(patientRequest(nil), httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestRoutes_RejectStaff(t *testing.T) {
	h, e := newTestHandler()
	e.Pre(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithIdentity(c.Request().Context(), "admin-1", []string{auth.RoleAdmin}, nil)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	h.RegisterRoutes(e.Group("/api/v1"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/portal/prescriptions", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for admin on portal route, got %d", rec.Code)
	}
}
