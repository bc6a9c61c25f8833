package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/service"
)

// CatalogService manages categories, models and units.
type CatalogService interface {
	Categories(ctx context.Context) ([]model.DeviceCategory, error)
	CreateCategory(ctx context.Context, f service.CategoryForm) (*model.DeviceCategory, error)
	Models(ctx context.Context, categoryID string) ([]model.DeviceModel, error)
	CreateModel(ctx context.Context, f service.ModelForm) (*model.DeviceModel, error)
	UpdateModel(ctx context.Context, id string, f service.ModelForm) (*model.DeviceModel, error)
	DeleteModel(ctx context.Context, id string) error
	Devices(ctx context.Context) ([]model.Device, error)
	Warehouses(ctx context.Context) ([]model.Warehouse, error)
	CreateDevice(ctx context.Context, f service.DeviceForm) (*model.Device, error)
	UpdateDevice(ctx context.Context, id string, f service.DeviceForm) (*model.Device, error)
	DeleteDevice(ctx context.Context, id string) error
}

// MaxImageBytes caps category image uploads.
const MaxImageBytes = 5 << 20

// CatalogHandler serves /admin/devices.
type CatalogHandler struct {
	base
	catalog CatalogService
}

// NewCatalogHandler wires a CatalogHandler.
func NewCatalogHandler(catalog CatalogService, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{base: newBase(timeout), catalog: catalog}
}

// Overview returns everything the device page needs in one response.
func (h *CatalogHandler) Overview(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	cats, err := h.catalog.Categories(ctx)
	if err != nil {
		return fail(c, err)
	}
	models, err := h.catalog.Models(ctx, "")
	if err != nil {
		return fail(c, err)
	}
	devices, err := h.catalog.Devices(ctx)
	if err != nil {
		return fail(c, err)
	}
	warehouses, err := h.catalog.Warehouses(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"categories": cats,
		"models":     models,
		"devices":    devices,
		"warehouses": warehouses,
	})
}

// Categories lists categories with their image URLs.
func (h *CatalogHandler) Categories(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	cats, err := h.catalog.Categories(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}

const msgImageTooLarge = "Image must be 5 MB or smaller."

// readImage reads the optional "image" part of a multipart form.
func readImage(c echo.Context) (*service.Image, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > MaxImageBytes {
		return nil, model.Invalid(msgImageTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageBytes {
		return nil, model.Invalid(msgImageTooLarge)
	}
	return &service.Image{Filename: fh.Filename, ContentType: fh.Header.Get(echo.HeaderContentType), Data: data}, nil
}

// CreateCategory accepts a multipart form with name, description and an
// optional image.
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	img, err := readImage(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	cat, err := h.catalog.CreateCategory(ctx, service.CategoryForm{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Image:       img,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

// Models lists models, filtered by ?category_id=.
func (h *CatalogHandler) Models(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	models, err := h.catalog.Models(ctx, c.QueryParam("category_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"models": models})
}

// CreateModel adds a model.
func (h *CatalogHandler) CreateModel(c echo.Context) error {
	var f service.ModelForm
	if err := c.Bind(&f); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	m, err := h.catalog.CreateModel(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// UpdateModel edits a model.
func (h *CatalogHandler) UpdateModel(c echo.Context) error {
	var f service.ModelForm
	if err := c.Bind(&f); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	m, err := h.catalog.UpdateModel(ctx, c.Param("id"), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// DeleteModel removes a model.
func (h *CatalogHandler) DeleteModel(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.catalog.DeleteModel(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateDevice adds a unit to a warehouse.
func (h *CatalogHandler) CreateDevice(c echo.Context) error {
	var f service.DeviceForm
	if err := c.Bind(&f); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	d, err := h.catalog.CreateDevice(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

// UpdateDevice edits a unit.
func (h *CatalogHandler) UpdateDevice(c echo.Context) error {
	var f service.DeviceForm
	if err := c.Bind(&f); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	d, err := h.catalog.UpdateDevice(ctx, c.Param("id"), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// DeleteDevice removes a unit.
func (h *CatalogHandler) DeleteDevice(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.catalog.DeleteDevice(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
