package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/pincode"
	"github.com/iliyamo/device-ops-dashboard/internal/service"
)

// HospitalService is the hospital management workflow.
type HospitalService interface {
	List(ctx context.Context, query, zone string) ([]service.HospitalListing, error)
	Detail(ctx context.Context, id string) (*service.HospitalListing, error)
	FormOptions(ctx context.Context) (*service.HospitalFormOptions, error)
	Create(ctx context.Context, f service.HospitalForm) (*model.Hospital, error)
	Update(ctx context.Context, id string, f service.HospitalForm) (*model.Hospital, error)
	LookupPincode(ctx context.Context, code string) (pincode.Location, error)
	AssignEngineer(ctx context.Context, hospitalID, engineerID, assignedBy string) error
	RemoveEngineer(ctx context.Context, hospitalID, engineerID string) error
	AssignDevice(ctx context.Context, hospitalID, deviceID string) error
	ReturnDevice(ctx context.Context, hospitalID, deviceID string) error
}

// HospitalHandler serves /admin/hospitals.
type HospitalHandler struct {
	base
	hospitals HospitalService
}

// NewHospitalHandler wires a HospitalHandler.
func NewHospitalHandler(hospitals HospitalService, timeout time.Duration) *HospitalHandler {
	return &HospitalHandler{base: newBase(timeout), hospitals: hospitals}
}

// List filters by ?q= (name, city, state, address) and ?zone=.
func (h *HospitalHandler) List(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rows, err := h.hospitals.List(ctx, c.QueryParam("q"), c.QueryParam("zone"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"hospitals": rows})
}

// Get returns one hospital with its engineers and units.
func (h *HospitalHandler) Get(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	row, err := h.hospitals.Detail(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

// FormOptions returns the region tree, assignable units and engineers.
func (h *HospitalHandler) FormOptions(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	opts, err := h.hospitals.FormOptions(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}

// Create saves a new hospital.
func (h *HospitalHandler) Create(c echo.Context) error {
	var f service.HospitalForm
	if err := c.Bind(&f); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	hosp, err := h.hospitals.Create(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, hosp)
}

// Update edits a hospital. A blank name keeps the stored one.
func (h *HospitalHandler) Update(c echo.Context) error {
	var f service.HospitalForm
	if err := c.Bind(&f); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	hosp, err := h.hospitals.Update(ctx, c.Param("id"), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, hosp)
}

// Pincode fills city and state for the form. Failures come back as a
// warning with status 200 so the form stays usable.
func (h *HospitalHandler) Pincode(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	loc, err := h.hospitals.LookupPincode(ctx, c.Param("code"))
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"warning": err.Error()})
	}
	return c.JSON(http.StatusOK, loc)
}

type engineerBody struct {
	EngineerID string `json:"engineer_id"`
}

// AssignEngineer links an engineer to the hospital.
func (h *HospitalHandler) AssignEngineer(c echo.Context) error {
	var b engineerBody
	if err := c.Bind(&b); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.hospitals.AssignEngineer(ctx, c.Param("id"), b.EngineerID, caller(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveEngineer unlinks an engineer from the hospital.
func (h *HospitalHandler) RemoveEngineer(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.hospitals.RemoveEngineer(ctx, c.Param("id"), c.Param("engineerID")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type deviceBody struct {
	DeviceID string `json:"device_id"`
}

// AssignDevice moves a warehouse unit to the hospital.
func (h *HospitalHandler) AssignDevice(c echo.Context) error {
	var b deviceBody
	if err := c.Bind(&b); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.hospitals.AssignDevice(ctx, c.Param("id"), b.DeviceID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ReturnDevice sends a unit from the hospital back to the default
// warehouse.
func (h *HospitalHandler) ReturnDevice(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.hospitals.ReturnDevice(ctx, c.Param("id"), c.Param("deviceID")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
