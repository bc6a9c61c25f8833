package service

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/storage"
)

// CatalogStore persists categories and models.
type CatalogStore interface {
	CatalogReader
	CreateCategory(ctx context.Context, c *model.DeviceCategory) error
	SetCategoryImage(ctx context.Context, id, path string) error
	GetModel(ctx context.Context, id string) (*model.DeviceModel, error)
	CreateModel(ctx context.Context, m *model.DeviceModel) error
	UpdateModel(ctx context.Context, m *model.DeviceModel) error
	DeleteModel(ctx context.Context, id string) error
}

// DeviceStore persists units.
type DeviceStore interface {
	List(ctx context.Context) ([]model.Device, error)
	ListByModel(ctx context.Context, modelID string) ([]model.Device, error)
	Get(ctx context.Context, id string) (*model.Device, error)
	Create(ctx context.Context, d *model.Device) error
	Update(ctx context.Context, d *model.Device) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores category images.
type ObjectStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, data []byte) error
	PublicURL(objectPath string) string
}

// CatalogService manages categories, models and units.
type CatalogService struct {
	catalog    CatalogStore
	devices    DeviceStore
	warehouses WarehouseReader
	storage    ObjectStorage
	logger     *zap.Logger
}

// NewCatalogService wires a CatalogService.
func NewCatalogService(catalog CatalogStore, devices DeviceStore, warehouses WarehouseReader, store ObjectStorage, logger *zap.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, devices: devices, warehouses: warehouses, storage: store, logger: logger.Named("catalog")}
}

// Categories lists categories with their public image URL resolved.
func (s *CatalogService) Categories(ctx context.Context) ([]model.DeviceCategory, error) {
	cats, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		if cats[i].ImagePath != nil && *cats[i].ImagePath != "" {
			cats[i].ImageURL = s.storage.PublicURL(*cats[i].ImagePath)
		}
	}
	return cats, nil
}

// Image is an uploaded file.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CategoryForm creates a category with an optional image.
type CategoryForm struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Image       *Image `json:"-"`
}

// CreateCategory stores the category, then uploads its image and records
// the object path. An upload failure leaves the category without an image
// and is returned.
func (s *CatalogService) CreateCategory(ctx context.Context, f CategoryForm) (*model.DeviceCategory, error) {
	f.Name = strings.TrimSpace(f.Name)
	if err := check(f, map[string]string{"Name": "Category name is required."}); err != nil {
		return nil, err
	}
	c := &model.DeviceCategory{Name: f.Name, Description: clean(f.Description)}
	if err := s.catalog.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	if f.Image == nil || len(f.Image.Data) == 0 {
		return c, nil
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(f.Image.Filename)), ".")
	objectPath := storage.CategoryImagePath(c.ID, ext)
	if err := s.storage.Upload(ctx, objectPath, f.Image.ContentType, f.Image.Data); err != nil {
		return c, err
	}
	if err := s.catalog.SetCategoryImage(ctx, c.ID, objectPath); err != nil {
		return c, err
	}
	c.ImagePath = &objectPath
	c.ImageURL = s.storage.PublicURL(objectPath)
	return c, nil
}

// Models lists the models of a category, or every model when categoryID
// is empty.
func (s *CatalogService) Models(ctx context.Context, categoryID string) ([]model.DeviceModel, error) {
	return s.catalog.ListModels(ctx, strings.TrimSpace(categoryID))
}

// ModelForm creates or edits a model.
type ModelForm struct {
	ModelName    string `json:"model_name" validate:"required"`
	ModelCode    string `json:"model_code" validate:"required"`
	CategoryID   string `json:"category_id" validate:"required"`
	Manufacturer string `json:"manufacturer"`
	Description  string `json:"description"`
	Specs        string `json:"specs"`
}

var modelMessages = map[string]string{
	"ModelName":  "SKU name is required.",
	"ModelCode":  "SKU code is required.",
	"CategoryID": "Category is required.",
}

func buildModel(f ModelForm) (*model.DeviceModel, error) {
	f.ModelName, f.ModelCode, f.CategoryID = strings.TrimSpace(f.ModelName), strings.TrimSpace(f.ModelCode), strings.TrimSpace(f.CategoryID)
	if err := check(f, modelMessages); err != nil {
		return nil, err
	}
	m := &model.DeviceModel{
		CategoryID:   f.CategoryID,
		ModelName:    &f.ModelName,
		ModelCode:    f.ModelCode,
		Manufacturer: clean(f.Manufacturer),
		Description:  clean(f.Description),
	}
	if specs := strings.TrimSpace(f.Specs); specs != "" {
		if !json.Valid([]byte(specs)) {
			return nil, model.Invalid("Specs must be valid JSON.")
		}
		m.Specs = json.RawMessage(specs)
	}
	return m, nil
}

// CreateModel validates and stores a new model.
func (s *CatalogService) CreateModel(ctx context.Context, f ModelForm) (*model.DeviceModel, error) {
	m, err := buildModel(f)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.CreateModel(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateModel validates and overwrites a model.
func (s *CatalogService) UpdateModel(ctx context.Context, id string, f ModelForm) (*model.DeviceModel, error) {
	m, err := buildModel(f)
	if err != nil {
		return nil, err
	}
	m.ID = id
	if err := s.catalog.UpdateModel(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteModel removes a model.
func (s *CatalogService) DeleteModel(ctx context.Context, id string) error {
	return s.catalog.DeleteModel(ctx, id)
}

// Devices lists every unit.
func (s *CatalogService) Devices(ctx context.Context) ([]model.Device, error) {
	return s.devices.List(ctx)
}

// Warehouses lists the warehouses for the device form.
func (s *CatalogService) Warehouses(ctx context.Context) ([]model.Warehouse, error) {
	return s.warehouses.List(ctx)
}

// DeviceForm creates or edits a unit.
type DeviceForm struct {
	SerialNumber  string              `json:"serial_number" validate:"required"`
	Barcode       string              `json:"barcode" validate:"required"`
	DeviceModelID string              `json:"device_model_id" validate:"required"`
	WarehouseID   string              `json:"warehouse_id" validate:"required"`
	OwnershipType model.OwnershipType `json:"ownership_type" validate:"omitempty,oneof=COMPANY CUSTOMER"`
	UsageType     model.UsageType     `json:"usage_type" validate:"oneof=DEMO SOLD"`
	Status        model.DeviceStatus  `json:"status" validate:"omitempty,oneof=IN_INVENTORY DEPLOYED UNDER_SERVICE REPAIR SCRAPPED"`
	DemoStatus    model.DemoStatus    `json:"demo_status" validate:"required_if=UsageType DEMO"`
}

var deviceMessages = map[string]string{
	"SerialNumber":  "Serial number is required.",
	"Barcode":       "Barcode is required.",
	"DeviceModelID": "Device model is required.",
	"WarehouseID":   "Warehouse is required.",
	"OwnershipType": "Ownership type must be COMPANY or CUSTOMER.",
	"UsageType":     "Usage type must be DEMO or SOLD.",
	"Status":        "Select a valid device status.",
	"DemoStatus":    "Demo status is required for DEMO devices.",
}

func buildDevice(f DeviceForm) (*model.Device, error) {
	f.SerialNumber = strings.TrimSpace(f.SerialNumber)
	f.Barcode = strings.TrimSpace(f.Barcode)
	f.DeviceModelID = strings.TrimSpace(f.DeviceModelID)
	f.WarehouseID = strings.TrimSpace(f.WarehouseID)
	if err := check(f, deviceMessages); err != nil {
		return nil, err
	}
	if f.OwnershipType == "" {
		f.OwnershipType = model.OwnershipCompany
	}
	if f.Status == "" {
		f.Status = model.StatusInInventory
	}
	d := &model.Device{
		SerialNumber:  f.SerialNumber,
		Barcode:       &f.Barcode,
		DeviceModelID: f.DeviceModelID,
		OwnershipType: f.OwnershipType,
		UsageType:     f.UsageType,
		Status:        f.Status,
		Location:      model.AtWarehouse(f.WarehouseID),
	}
	if f.UsageType == model.UsageDemo {
		if !f.DemoStatus.Valid() {
			return nil, model.Invalid(msgDemoStatus)
		}
		st := f.DemoStatus
		d.DemoStatus = &st
	}
	return d, nil
}

// CreateDevice validates and stores a unit in the chosen warehouse.
func (s *CatalogService) CreateDevice(ctx context.Context, f DeviceForm) (*model.Device, error) {
	d, err := buildDevice(f)
	if err != nil {
		return nil, err
	}
	if err := s.devices.Create(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info("device created", zap.String("device_id", d.ID), zap.String("serial", d.SerialNumber))
	return d, nil
}

// UpdateDevice validates and overwrites a unit, placing it in the chosen
// warehouse.
func (s *CatalogService) UpdateDevice(ctx context.Context, id string, f DeviceForm) (*model.Device, error) {
	d, err := buildDevice(f)
	if err != nil {
		return nil, err
	}
	d.ID = id
	if err := s.devices.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDevice removes a unit.
func (s *CatalogService) DeleteDevice(ctx context.Context, id string) error {
	return s.devices.Delete(ctx, id)
}
