package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/service"
)

// ManagerView is what a regional manager sees.
type ManagerView interface {
	ManagerDetail(ctx context.Context, managerID string) (*service.ManagerDetail, error)
}

// EngineerView is what a field engineer sees.
type EngineerView interface {
	ForEngineer(ctx context.Context, engineerID string) ([]model.Hospital, error)
	Detail(ctx context.Context, id string) (*service.HospitalListing, error)
	Device(ctx context.Context, id string) (*model.Device, error)
}

// FieldHandler serves the manager and engineer dashboards.
type FieldHandler struct {
	base
	managers  ManagerView
	engineers EngineerView
}

// NewFieldHandler wires a FieldHandler.
func NewFieldHandler(managers ManagerView, engineers EngineerView, timeout time.Duration) *FieldHandler {
	return &FieldHandler{base: newBase(timeout), managers: managers, engineers: engineers}
}

// ManagerDashboard lists the caller's engineers and their hospitals.
func (h *FieldHandler) ManagerDashboard(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	d, err := h.managers.ManagerDetail(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// EngineerDashboard lists the hospitals assigned to the caller.
func (h *FieldHandler) EngineerDashboard(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	hospitals, err := h.engineers.ForEngineer(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"hospitals": hospitals})
}

// EngineerHospital shows an assigned hospital with the units at it.
// Hospitals not assigned to the caller read as not found.
func (h *FieldHandler) EngineerHospital(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	id := c.Param("id")
	hospitals, err := h.engineers.ForEngineer(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	assigned := false
	for _, hosp := range hospitals {
		if hosp.ID == id {
			assigned = true
			break
		}
	}
	if !assigned {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hospital not found"})
	}
	row, err := h.engineers.Detail(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

// EngineerDevice shows one unit.
func (h *FieldHandler) EngineerDevice(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	d, err := h.engineers.Device(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
