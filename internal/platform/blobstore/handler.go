package blobstore

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medicare/emr/internal/platform/auth"
	"github.com/medicare/emr/pkg/pagination"
)

// ArchiveHandler exposes the reports archived for a patient.
type ArchiveHandler struct {
	store BlobStore
}

func NewArchiveHandler(store BlobStore) *ArchiveHandler {
	return &ArchiveHandler{store: store}
}

func (h *ArchiveHandler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RoleNurse))
	read.GET("/patients/:id/reports", h.List)
	read.GET("/patients/:id/reports/:reportId", h.Download)

	del := api.Group("", auth.RequireRole(auth.RoleAdmin))
	del.DELETE("/patients/:id/reports/:reportId", h.Delete)
}

func patientParam(c echo.Context) (string, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id.String(), nil
}

func reportParam(c echo.Context) (string, error) {
	id, err := uuid.Parse(c.Param("reportId"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	return id.String(), nil
}

func (h *ArchiveHandler) List(c echo.Context) error {
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.store.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*BlobMetadata{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *ArchiveHandler) Download(c echo.Context) error {
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	reportID, err := reportParam(c)
	if err != nil {
		return err
	}
	rc, meta, err := h.store.Download(c.Request().Context(), patientID, reportID)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func (h *ArchiveHandler) Delete(c echo.Context) error {
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	reportID, err := reportParam(c)
	if err != nil {
		return err
	}
	if err := h.store.Delete(c.Request().Context(), patientID, reportID); err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
