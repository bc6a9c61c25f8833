package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// DeviceRepo persists devices and records their movements.
type DeviceRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewDeviceRepo constructs a DeviceRepo with the given DB handle.
func NewDeviceRepo(db *sql.DB) *DeviceRepo {
	return &DeviceRepo{db: db, now: time.Now}
}

const deviceSelect = `SELECT d.id, d.serial_number, d.barcode, d.device_model_id, d.ownership_type, d.usage_type,
       d.status, d.demo_status, d.demo_last_used_at, d.demo_assigned_hospital_id,
       d.current_location_type, d.current_hospital_id, d.current_warehouse_id,
       m.model_name, c.name, h.name, w.name, dh.name
  FROM devices d
  LEFT JOIN device_models m ON m.id = d.device_model_id
  LEFT JOIN device_categories c ON c.id = m.category_id
  LEFT JOIN hospitals h ON h.id = d.current_hospital_id
  LEFT JOIN warehouses w ON w.id = d.current_warehouse_id
  LEFT JOIN hospitals dh ON dh.id = d.demo_assigned_hospital_id`

func scanDevice(sc interface{ Scan(...any) error }) (model.Device, error) {
	var d model.Device
	err := sc.Scan(&d.ID, &d.SerialNumber, &d.Barcode, &d.DeviceModelID, &d.OwnershipType, &d.UsageType,
		&d.Status, &d.DemoStatus, &d.DemoLastUsedAt, &d.DemoAssignedHospitalID,
		&d.Type, &d.HospitalID, &d.WarehouseID,
		&d.ModelName, &d.CategoryName, &d.HospitalName, &d.WarehouseName, &d.DemoAssignedHospital)
	return d, err
}

func queryDevices(ctx context.Context, q querier, where string, args ...any) ([]model.Device, error) {
	rows, err := q.QueryContext(ctx, deviceSelect+" "+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListDemo returns every DEMO unit ordered by serial.
func (r *DeviceRepo) ListDemo(ctx context.Context) ([]model.Device, error) {
	return queryDevices(ctx, r.db, `WHERE d.usage_type = 'DEMO' ORDER BY d.serial_number`)
}

// ListByModel returns the units of one model ordered by serial.
func (r *DeviceRepo) ListByModel(ctx context.Context, modelID string) ([]model.Device, error) {
	return queryDevices(ctx, r.db, `WHERE d.device_model_id = ? ORDER BY d.serial_number`, modelID)
}

// ListByHospital returns the units currently at a hospital.
func (r *DeviceRepo) ListByHospital(ctx context.Context, hospitalID string) ([]model.Device, error) {
	return queryDevices(ctx, r.db,
		`WHERE d.current_location_type = 'HOSPITAL' AND d.current_hospital_id = ? ORDER BY d.serial_number`, hospitalID)
}

// ListAtHospitals returns every unit currently placed at a hospital.
func (r *DeviceRepo) ListAtHospitals(ctx context.Context) ([]model.Device, error) {
	return queryDevices(ctx, r.db,
		`WHERE d.current_location_type = 'HOSPITAL' ORDER BY d.current_hospital_id, d.serial_number`)
}

// List returns every unit ordered by serial.
func (r *DeviceRepo) List(ctx context.Context) ([]model.Device, error) {
	return queryDevices(ctx, r.db, `ORDER BY d.serial_number`)
}

// ListInWarehouse returns the units sitting in any warehouse, for the
// hospital device picker.
func (r *DeviceRepo) ListInWarehouse(ctx context.Context) ([]model.Device, error) {
	return queryDevices(ctx, r.db,
		`WHERE d.current_location_type = 'WAREHOUSE' AND d.status = 'IN_INVENTORY' ORDER BY d.serial_number`)
}

// Get returns one unit or ErrNotFound.
func (r *DeviceRepo) Get(ctx context.Context, id string) (*model.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, deviceSelect+` WHERE d.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Create inserts d and sets its ID. demo_status is forced to NULL for
// units that are not DEMO.
func (r *DeviceRepo) Create(ctx context.Context, d *model.Device) error {
	if d.UsageType != model.UsageDemo {
		d.DemoStatus = nil
	}
	d.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (id, serial_number, barcode, device_model_id, ownership_type, usage_type, status,
		                      demo_status, current_location_type, current_hospital_id, current_warehouse_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SerialNumber, d.Barcode, d.DeviceModelID, d.OwnershipType, d.UsageType, d.Status,
		d.DemoStatus, d.Type, d.HospitalID, d.WarehouseID)
	return mapWriteErr(err)
}

// Update overwrites the editable columns of d, including its location.
// ErrNotFound is returned when no unit has d.ID.
func (r *DeviceRepo) Update(ctx context.Context, d *model.Device) error {
	if d.UsageType != model.UsageDemo {
		d.DemoStatus = nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE devices SET serial_number = ?, barcode = ?, device_model_id = ?, ownership_type = ?, usage_type = ?,
		        status = ?, demo_status = ?, current_location_type = ?, current_hospital_id = ?, current_warehouse_id = ?
		  WHERE id = ?`,
		d.SerialNumber, d.Barcode, d.DeviceModelID, d.OwnershipType, d.UsageType, d.Status,
		d.DemoStatus, d.Type, d.HospitalID, d.WarehouseID, d.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	// zero rows is also what MySQL reports for an unchanged row
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.Get(ctx, d.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a unit.
func (r *DeviceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

type lockedLocation struct {
	status model.DeviceStatus
	loc    model.Location
}

func lockDevice(ctx context.Context, tx *sql.Tx, id string) (lockedLocation, error) {
	var l lockedLocation
	err := tx.QueryRowContext(ctx,
		`SELECT status, current_location_type, current_hospital_id, current_warehouse_id
		   FROM devices WHERE id = ? FOR UPDATE`, id).
		Scan(&l.status, &l.loc.Type, &l.loc.HospitalID, &l.loc.WarehouseID)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrNotFound
	}
	return l, err
}

func (r *DeviceRepo) move(ctx context.Context, tx *sql.Tx, id string, from, to model.Location, status model.DeviceStatus, reason string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE devices SET current_location_type = ?, current_hospital_id = ?, current_warehouse_id = ?, status = ?
		  WHERE id = ?`,
		to.Type, to.HospitalID, to.WarehouseID, status, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO device_movements (id, device_id, moved_at, reason, from_location_type, from_hospital_id,
		                               from_warehouse_id, to_location_type, to_hospital_id, to_warehouse_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), id, r.now().UTC(), reason, from.Type, from.HospitalID, from.WarehouseID,
		to.Type, to.HospitalID, to.WarehouseID)
	return err
}

// AssignToHospital moves a unit out of its warehouse into a hospital and
// records the movement. The unit must be IN_INVENTORY in a warehouse with no
// hospital set, otherwise ErrConflict is returned.
func (r *DeviceRepo) AssignToHospital(ctx context.Context, deviceID, hospitalID string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		cur, err := lockDevice(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if cur.loc.Type != model.LocationWarehouse || cur.loc.HospitalID != nil || cur.status != model.StatusInInventory {
			return ErrConflict
		}
		return r.move(ctx, tx, deviceID, cur.loc, model.AtHospital(hospitalID), model.StatusDeployed, "ASSIGNED")
	})
}

// ReturnToWarehouse moves a unit from a hospital back into a warehouse and
// records the movement. The unit must currently be at hospitalID.
func (r *DeviceRepo) ReturnToWarehouse(ctx context.Context, deviceID, hospitalID, warehouseID string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		cur, err := lockDevice(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if !cur.loc.InHospital(hospitalID) {
			return ErrConflict
		}
		return r.move(ctx, tx, deviceID, cur.loc, model.AtWarehouse(warehouseID), model.StatusInInventory, "RETURNED")
	})
}
