package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	RoleAdmin      = "admin"
	RoleDoctor     = "doctor"
	RoleNurse      = "nurse"
	RolePharmacist = "pharmacist"
	RolePatient    = "patient"
)

// ClinicalRoles are the staff roles that may see the dashboard.
var ClinicalRoles = []string{RoleAdmin, RoleDoctor, RoleNurse, RolePharmacist}

// HasRole reports whether roles grants one of want. Admin satisfies any
// staff role but never the patient role.
func HasRole(roles []string, want ...string) bool {
	for _, required := range want {
		for _, has := range roles {
			if has == required || (has == RoleAdmin && required != RolePatient) {
				return true
			}
		}
	}
	return false
}

// RequireRole returns middleware that checks the caller has at least one of
// the given roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HasRole(RolesFromContext(c.Request().Context()), roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequirePatient gates portal routes: the caller must hold the patient role
// and carry a linked patient record.
func RequirePatient() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if !HasRole(RolesFromContext(ctx), RolePatient) {
				return echo.NewHTTPError(http.StatusForbidden, "required role: patient")
			}
			if _, ok := PatientIDFromContext(ctx); !ok {
				return echo.NewHTTPError(http.StatusForbidden, "account is not linked to a patient record")
			}
			return next(c)
		}
	}
}
