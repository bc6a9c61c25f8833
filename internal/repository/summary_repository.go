package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// SummaryRepo reads the aggregate views and the movement log.
type SummaryRepo struct {
	db *sql.DB
}

// NewSummaryRepo constructs a SummaryRepo with the given DB handle.
func NewSummaryRepo(db *sql.DB) *SummaryRepo {
	return &SummaryRepo{db: db}
}

// Inventory reads inventory_summary. An empty view yields zeros.
func (r *SummaryRepo) Inventory(ctx context.Context) (model.InventorySummary, error) {
	var s model.InventorySummary
	err := r.db.QueryRowContext(ctx,
		`SELECT total_devices, in_inventory, deployed, under_service, scrapped, demo_deployed, sold_deployed
		   FROM inventory_summary LIMIT 1`).
		Scan(&s.TotalDevices, &s.InInventory, &s.Deployed, &s.UnderService, &s.Scrapped, &s.DemoDeployed, &s.SoldDeployed)
	if errors.Is(err, sql.ErrNoRows) {
		return model.InventorySummary{}, nil
	}
	return s, err
}

// InventoryByModel reads inventory_by_model ordered by model name.
func (r *SummaryRepo) InventoryByModel(ctx context.Context) ([]model.InventoryByModel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT model_id, model_name, category, model_code, manufacturer, description,
		        total, in_inventory, deployed, demo_deployed, sold_deployed
		   FROM inventory_by_model ORDER BY model_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.InventoryByModel, 0)
	for rows.Next() {
		var m model.InventoryByModel
		if err := rows.Scan(&m.ModelID, &m.ModelName, &m.Category, &m.ModelCode, &m.Manufacturer, &m.Description,
			&m.Total, &m.InInventory, &m.Deployed, &m.DemoDeployed, &m.SoldDeployed); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Demo reads demo_summary. An empty view yields zeros.
func (r *SummaryRepo) Demo(ctx context.Context) (model.DemoSummary, error) {
	var s model.DemoSummary
	err := r.db.QueryRowContext(ctx,
		`SELECT in_use, idle_deployed, returned, last_used_at FROM demo_summary LIMIT 1`).
		Scan(&s.InUse, &s.IdleDeployed, &s.Returned, &s.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DemoSummary{}, nil
	}
	return s, err
}

// LatestMovements returns the most recent movements with the device serial
// and readable from and to labels.
func (r *SummaryRepo) LatestMovements(ctx context.Context, limit int) ([]model.DeviceMovement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT mv.id, mv.device_id, mv.moved_at, mv.reason, mv.notes,
		        mv.from_location_type, mv.to_location_type,
		        mv.from_hospital_id, mv.to_hospital_id, mv.from_warehouse_id, mv.to_warehouse_id,
		        d.serial_number,
		        COALESCE(fh.name, fw.name), COALESCE(th.name, tw.name)
		   FROM device_movements mv
		   LEFT JOIN devices d     ON d.id = mv.device_id
		   LEFT JOIN hospitals fh  ON fh.id = mv.from_hospital_id
		   LEFT JOIN warehouses fw ON fw.id = mv.from_warehouse_id
		   LEFT JOIN hospitals th  ON th.id = mv.to_hospital_id
		   LEFT JOIN warehouses tw ON tw.id = mv.to_warehouse_id
		  ORDER BY mv.moved_at DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.DeviceMovement, 0)
	for rows.Next() {
		var (
			m    model.DeviceMovement
			from *string
		)
		if err := rows.Scan(&m.ID, &m.DeviceID, &m.MovedAt, &m.Reason, &m.Notes,
			&from, &m.ToLocationType,
			&m.FromHospitalID, &m.ToHospitalID, &m.FromWarehouseID, &m.ToWarehouseID,
			&m.DeviceSerial, &m.FromLocationLabel, &m.ToLocationLabel); err != nil {
			return nil, err
		}
		if from != nil {
			m.FromLocationType = model.LocationType(*from)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
