package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/service"
)

// DemoService is the demo assignment workflow.
type DemoService interface {
	AssignmentOptions(ctx context.Context, f service.AssignmentFilter) (*service.AssignmentOptions, error)
	CreateSession(ctx context.Context, d service.SessionDraft, createdBy string) (string, error)
	ListSessions(ctx context.Context, tab model.DemoTab, today time.Time) ([]model.DemoSession, error)
	Overview(ctx context.Context) (*service.DemoOverview, error)
}

// DemoHandler serves /admin/demo-management and /api/demo.
type DemoHandler struct {
	base
	demo DemoService
	now  func() time.Time
}

// NewDemoHandler wires a DemoHandler.
func NewDemoHandler(demo DemoService, timeout time.Duration) *DemoHandler {
	return &DemoHandler{base: newBase(timeout), demo: demo, now: func() time.Time { return time.Now().UTC() }}
}

// Options returns the picker state for the query filters: hospitals,
// owners, categories, models, candidate units and highlighted units.
func (h *DemoHandler) Options(c echo.Context) error {
	var f service.AssignmentFilter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	opts, err := h.demo.AssignmentOptions(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}

// Sessions lists the sessions of the ?tab= bucket, ongoing by default.
func (h *DemoHandler) Sessions(c echo.Context) error {
	tab := model.ParseDemoTab(c.QueryParam("tab"))
	ctx, cancel := h.ctx(c)
	defer cancel()
	sessions, err := h.demo.ListSessions(ctx, tab, h.now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tab": tab, "sessions": sessions})
}

// CreateSession books the selected units for a hospital.
func (h *DemoHandler) CreateSession(c echo.Context) error {
	var d service.SessionDraft
	if err := c.Bind(&d); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	id, err := h.demo.CreateSession(ctx, d, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "message": "Demo session created."})
}

// Overview is GET /api/demo: the demo summary and the latest movements.
func (h *DemoHandler) Overview(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	ov, err := h.demo.Overview(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, ov)
}
