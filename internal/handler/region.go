package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// RegionService manages the region tree.
type RegionService interface {
	Tree(ctx context.Context) ([]model.RegionNode, error)
	CreateSubregion(ctx context.Context, parentID, name, code string) (*model.Region, error)
	UpdateSubregion(ctx context.Context, id, name, code string) error
	DeleteSubregion(ctx context.Context, id string) error
}

// RegionHandler serves /admin/regions.
type RegionHandler struct {
	base
	regions RegionService
}

// NewRegionHandler wires a RegionHandler.
func NewRegionHandler(regions RegionService, timeout time.Duration) *RegionHandler {
	return &RegionHandler{base: newBase(timeout), regions: regions}
}

type regionBody struct {
	ParentID string `json:"parent_id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
}

// Tree lists the primary regions with their subregions.
func (h *RegionHandler) Tree(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	tree, err := h.regions.Tree(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"regions": tree})
}

// Create adds a subregion under a primary region.
func (h *RegionHandler) Create(c echo.Context) error {
	var b regionBody
	if err := c.Bind(&b); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	r, err := h.regions.CreateSubregion(ctx, b.ParentID, b.Name, b.Code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// Update renames a subregion.
func (h *RegionHandler) Update(c echo.Context) error {
	var b regionBody
	if err := c.Bind(&b); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.regions.UpdateSubregion(ctx, c.Param("id"), b.Name, b.Code); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a subregion.
func (h *RegionHandler) Delete(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.regions.DeleteSubregion(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
