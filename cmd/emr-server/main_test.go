package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicare/emr/internal/config"
	"github.com/medicare/emr/internal/platform/auth"
	"github.com/medicare/emr/internal/platform/blobstore"
	"github.com/medicare/emr/internal/platform/db"
	"github.com/medicare/emr/internal/platform/report"
)

const sampleRecord = `{
  "patient": {
    "id": "6f1c2b9e-0d5c-4a53-9a4f-2a7f1f0c8e11",
    "first_name": "Jane",
    "last_name": "Doe",
    "date_of_birth": "1985-06-20",
    "gender": "female",
    "allergies": ["Penicillin"],
    "medical_history": [],
    "current_medications": [],
    "status": "active"
  },
  "prescriptions": [],
  "treatments": []
}`

func fixedNow() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }

func TestRenderReport_WritesPDF(t *testing.T) {
	dir := t.TempDir()
	path, pages, err := renderReport(strings.NewReader(sampleRecord), "clinical", dir, report.WithClock(fixedNow))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "MediCare_Doe_Jane_2024-03-15.pdf"); path != want {
		t.Errorf("expected %s, got %s", want, path)
	}
	if pages < 1 {
		t.Errorf("expected at least one page, got %d", pages)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("expected PDF content")
	}
}

func TestRenderReport_FormStyle(t *testing.T) {
	dir := t.TempDir()
	path, _, err := renderReport(strings.NewReader(sampleRecord), "form", dir, report.WithClock(fixedNow))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "Ordonnance_Doe_Jane_2024-03-15.pdf" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}
}

func TestRenderReport_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, _, err := renderReport(strings.NewReader("{"), "clinical", dir); err == nil {
		t.Error("expected decode error")
	}

	_, _, err := renderReport(strings.NewReader(sampleRecord), "poster", dir)
	if !errors.Is(err, report.ErrUnknownStyle) {
		t.Errorf("expected ErrUnknownStyle, got %v", err)
	}

	_, _, err = renderReport(strings.NewReader(`{"patient":{"first_name":"Jane"}}`), "clinical", dir)
	if !errors.Is(err, report.ErrMissingPatientName) {
		t.Errorf("expected ErrMissingPatientName, got %v", err)
	}
}

func TestReportCmd_RequiresInput(t *testing.T) {
	cmd := reportCmd()
	cmd.SetArgs([]string{"--out", t.TempDir()})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error without --input")
	}
}

func TestReportCmd_WritesFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "record.json")
	if err := os.WriteFile(input, []byte(sampleRecord), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := reportCmd()
	cmd.SetArgs([]string{"--input", input, "--out", dir, "--style", "form", "--timezone", "Europe/Paris"})
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Ordonnance_Doe_Jane_") {
		t.Errorf("expected output to name the file, got %q", out.String())
	}
}

func TestPrintStatus(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, []db.MigrationStatus{
		{Version: 1, Name: "core", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "reports", Applied: false},
	})
	out := buf.String()
	if !strings.Contains(out, "applied") || !strings.Contains(out, "2024-01-02 03:04:05") {
		t.Errorf("expected applied row, got %q", out)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("expected pending row, got %q", out)
	}
}

func TestAuthMiddleware_DevAllowsAnonymousAsAdmin(t *testing.T) {
	mw := authMiddleware(&config.Config{Env: "development"})
	if mw == nil {
		t.Fatal("expected middleware")
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var roles []string
	err := mw(func(c echo.Context) error {
		roles = auth.RolesFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 1 || roles[0] != auth.RoleAdmin {
		t.Errorf("expected admin role, got %v", roles)
	}
}

func TestAuthMiddleware_ProductionRejectsAnonymous(t *testing.T) {
	mw := authMiddleware(&config.Config{Env: "production", AuthSigningKey: strings.Repeat("k", 32)})
	if mw == nil {
		t.Fatal("expected middleware")
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	if called {
		t.Error("handler should not run without a token")
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestNewArchive_InMemoryWithoutBucket(t *testing.T) {
	store, err := newArchive(t.Context(), &config.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*blobstore.InMemoryBlobStore); !ok {
		t.Errorf("expected in-memory store, got %T", store)
	}
}

func TestNewServer_HealthAndSecurityHeaders(t *testing.T) {
	cfg := &config.Config{Env: "development", CORSOrigins: []string{"http://localhost:5173"}, RateLimitRPS: 100, RateLimitBurst: 200}
	e := newServer(cfg, zerolog.Nop(), nil)
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on response")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}
