package service

import (
	"context"

	"github.com/iliyamo/device-ops-dashboard/internal/export"
	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// InventoryReader reads the inventory read models.
type InventoryReader interface {
	Inventory(ctx context.Context) (model.InventorySummary, error)
	InventoryByModel(ctx context.Context) ([]model.InventoryByModel, error)
}

// ModelUnitReader resolves a model and its units.
type ModelUnitReader interface {
	GetModel(ctx context.Context, id string) (*model.DeviceModel, error)
}

// InventoryService serves the inventory pages, the dashboard and the
// spreadsheet export.
type InventoryService struct {
	summary InventoryReader
	demo    DemoSummaryReader
	models  ModelUnitReader
	devices DeviceStore
}

// NewInventoryService wires an InventoryService.
func NewInventoryService(summary InventoryReader, demo DemoSummaryReader, models ModelUnitReader, devices DeviceStore) *InventoryService {
	return &InventoryService{summary: summary, demo: demo, models: models, devices: devices}
}

// InventoryOverview is the inventory summary with one row per model.
type InventoryOverview struct {
	Summary model.InventorySummary   `json:"summary"`
	Models  []model.InventoryByModel `json:"models"`
}

// Summary reads both inventory views.
func (s *InventoryService) Summary(ctx context.Context) (*InventoryOverview, error) {
	sum, err := s.summary.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.summary.InventoryByModel(ctx)
	if err != nil {
		return nil, err
	}
	return &InventoryOverview{Summary: sum, Models: rows}, nil
}

// AdminDashboard is the landing page of admins.
type AdminDashboard struct {
	Inventory model.InventorySummary `json:"inventory"`
	Demo      model.DemoSummary      `json:"demo"`
}

// Dashboard reads the inventory and demo summaries. Empty views read as
// zeros.
func (s *InventoryService) Dashboard(ctx context.Context) (*AdminDashboard, error) {
	inv, err := s.summary.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	demo, err := s.demo.Demo(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminDashboard{Inventory: inv, Demo: demo}, nil
}

// ModelUnits is a model with its units.
type ModelUnits struct {
	Model   model.DeviceModel `json:"model"`
	Devices []model.Device    `json:"devices"`
}

// ModelDevices resolves a model and lists its units.
func (s *InventoryService) ModelDevices(ctx context.Context, modelID string) (*ModelUnits, error) {
	m, err := s.models.GetModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	devices, err := s.devices.ListByModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return &ModelUnits{Model: *m, Devices: devices}, nil
}

// Export renders the inventory as an XLSX workbook.
func (s *InventoryService) Export(ctx context.Context) ([]byte, error) {
	ov, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return export.InventoryWorkbook(ov.Summary, ov.Models)
}
