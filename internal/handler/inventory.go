package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/service"
)

// InventoryService reads the inventory views.
type InventoryService interface {
	Summary(ctx context.Context) (*service.InventoryOverview, error)
	Dashboard(ctx context.Context) (*service.AdminDashboard, error)
	ModelDevices(ctx context.Context, modelID string) (*service.ModelUnits, error)
	Export(ctx context.Context) ([]byte, error)
}

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryHandler serves the admin dashboard, the inventory pages, the
// export and /api/inventory.
type InventoryHandler struct {
	base
	inventory InventoryService
	now       func() time.Time
}

// NewInventoryHandler wires an InventoryHandler.
func NewInventoryHandler(inventory InventoryService, timeout time.Duration) *InventoryHandler {
	return &InventoryHandler{base: newBase(timeout), inventory: inventory, now: time.Now}
}

// Dashboard is the admin landing page.
func (h *InventoryHandler) Dashboard(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	d, err := h.inventory.Dashboard(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Summary serves both the inventory page and GET /api/inventory.
func (h *InventoryHandler) Summary(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	ov, err := h.inventory.Summary(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, ov)
}

// ModelDevices lists the units of one model.
func (h *InventoryHandler) ModelDevices(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	units, err := h.inventory.ModelDevices(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, units)
}

// Export downloads the inventory workbook.
func (h *InventoryHandler) Export(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	data, err := h.inventory.Export(ctx)
	if err != nil {
		return fail(c, err)
	}
	name := fmt.Sprintf("inventory-%s.xlsx", h.now().Format(time.DateOnly))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxMIME, data)
}
