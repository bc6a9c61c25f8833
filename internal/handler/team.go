package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/service"
)

// TeamService is the team and approval workflow.
type TeamService interface {
	Directory(ctx context.Context) (*service.TeamDirectory, error)
	ManagerDetail(ctx context.Context, managerID string) (*service.ManagerDetail, error)
	Approve(ctx context.Context, userID string, role model.Role, decidedBy string) (*model.Profile, error)
	Reject(ctx context.Context, userID, reason, decidedBy string) (*model.Profile, error)
	Activate(ctx context.Context, userID, decidedBy string) error
	Deactivate(ctx context.Context, userID, decidedBy string) error
	AssignRegionalManager(ctx context.Context, userID, regionID string) error
	RemoveRegionalManager(ctx context.Context, userID string) error
	UpsertProfile(ctx context.Context, f service.ProfileForm) (*model.Profile, error)
	CreateTeamUser(ctx context.Context, u service.NewTeamUser) (*model.Profile, error)
	DeleteTeamUser(ctx context.Context, userID string) error
	AssignEngineerHospital(ctx context.Context, engineerID, hospitalID, assignedBy string) error
	RemoveEngineerHospital(ctx context.Context, engineerID, hospitalID string) error
}

// TeamHandler serves /admin/team.
type TeamHandler struct {
	base
	team TeamService
}

// NewTeamHandler wires a TeamHandler.
func NewTeamHandler(team TeamService, timeout time.Duration) *TeamHandler {
	return &TeamHandler{base: newBase(timeout), team: team}
}

// Directory lists managers, members and the approval queues.
func (h *TeamHandler) Directory(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	d, err := h.team.Directory(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Manager shows one manager's engineers, hospitals and unit counts.
func (h *TeamHandler) Manager(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	d, err := h.team.ManagerDetail(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

type decisionBody struct {
	Role   model.Role `json:"role"`
	Reason string     `json:"reason"`
}

// Approve approves a pending or rejected application with a role.
func (h *TeamHandler) Approve(c echo.Context) error {
	var b decisionBody
	if err := c.Bind(&b); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	p, err := h.team.Approve(ctx, c.Param("id"), b.Role, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Reject declines a pending application.
func (h *TeamHandler) Reject(c echo.Context) error {
	var b decisionBody
	if err := c.Bind(&b); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	p, err := h.team.Reject(ctx, c.Param("id"), b.Reason, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Activate re-enables an approved member.
func (h *TeamHandler) Activate(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.team.Activate(ctx, c.Param("id"), caller(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Deactivate disables an approved member and detaches their reports.
func (h *TeamHandler) Deactivate(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.team.Deactivate(ctx, c.Param("id"), caller(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type managerBody struct {
	RegionID string `json:"region_id"`
}

// AssignRegionalManager makes a member the manager of a primary region.
func (h *TeamHandler) AssignRegionalManager(c echo.Context) error {
	var b managerBody
	if err := c.Bind(&b); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.team.AssignRegionalManager(ctx, c.Param("id"), b.RegionID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveRegionalManager clears the regional manager flag.
func (h *TeamHandler) RemoveRegionalManager(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.team.RemoveRegionalManager(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpsertProfile creates or edits the profile in the path.
func (h *TeamHandler) UpsertProfile(c echo.Context) error {
	var f service.ProfileForm
	if err := c.Bind(&f); err != nil {
		return badBody(c)
	}
	f.UserID = c.Param("id")
	ctx, cancel := h.ctx(c)
	defer cancel()
	p, err := h.team.UpsertProfile(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// CreateUser creates an identity account and an approved profile.
func (h *TeamHandler) CreateUser(c echo.Context) error {
	var u service.NewTeamUser
	if err := c.Bind(&u); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	p, err := h.team.CreateTeamUser(ctx, u)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// DeleteUser removes the identity account and the profile.
func (h *TeamHandler) DeleteUser(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.team.DeleteTeamUser(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type hospitalLinkBody struct {
	HospitalID string `json:"hospital_id"`
}

// AssignHospital links the engineer in the path to a hospital.
func (h *TeamHandler) AssignHospital(c echo.Context) error {
	var b hospitalLinkBody
	if err := c.Bind(&b); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.team.AssignEngineerHospital(ctx, c.Param("id"), b.HospitalID, caller(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveHospital unlinks the engineer in the path from a hospital.
func (h *TeamHandler) RemoveHospital(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.team.RemoveEngineerHospital(ctx, c.Param("id"), c.Param("hospitalID")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
