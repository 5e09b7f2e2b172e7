package treatment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medicare/emr/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestService()), echo.New()
}

func TestHandler_CreateTreatment(t *testing.T) {
	h, e := newTestHandler()
	body := `{"patient_id":"` + testPatientID.String() + `","treatment_type":"Physiotherapy","description":"Knee","priority":"high"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithIdentity(req.Context(), "nurse-1", []string{auth.RoleNurse}, nil))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateTreatment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got Treatment
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.CreatedBy != "nurse-1" || got.Priority != "high" {
		t.Errorf("unexpected treatment %+v", got)
	}
}

func TestHandler_CreateTreatment_BadRequest(t *testing.T) {
	h, e := newTestHandler()
	body := `{"patient_id":"` + testPatientID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := h.CreateTreatment(c); err == nil {
		t.Error("expected error for missing treatment_type")
	}
}

func TestHandler_StartTreatment(t *testing.T) {
	h, e := newTestHandler()
	tr := validTreatment()
	h.svc.CreateTreatment(nil, tr)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tr.ID.String())

	if err := h.StartTreatment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Treatment
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != StatusInProgress {
		t.Errorf("expected in-progress, got %s", got.Status)
	}
}

func TestHandler_CompleteTreatment_Conflict(t *testing.T) {
	h, e := newTestHandler()
	tr := validTreatment()
	tr.Status = StatusCancelled
	h.svc.CreateTreatment(nil, tr)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(tr.ID.String())

	err := h.CompleteTreatment(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestHandler_StartTreatment_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("00000000-0000-0000-0000-000000000009")

	err := h.StartTreatment(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_ListPatientTreatments(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreateTreatment(nil, validTreatment())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(testPatientID.String())

	if err := h.ListPatientTreatments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["total"].(float64) != 1 {
		t.Errorf("expected 1, got %v", resp["total"])
	}
}

func TestHandler_UpdateTreatment_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("00000000-0000-0000-0000-000000000009")

	err := h.UpdateTreatment(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
