package model

import (
	"encoding/json"
	"time"
)

// OwnershipType records who owns a physical unit.
type OwnershipType string

const (
	OwnershipCompany  OwnershipType = "COMPANY"
	OwnershipCustomer OwnershipType = "CUSTOMER"
)

// UsageType records what a unit is used for.
type UsageType string

const (
	UsageDemo UsageType = "DEMO"
	UsageSold UsageType = "SOLD"
)

// DeviceStatus is the lifecycle status of a unit.
type DeviceStatus string

const (
	StatusInInventory  DeviceStatus = "IN_INVENTORY"
	StatusDeployed     DeviceStatus = "DEPLOYED"
	StatusUnderService DeviceStatus = "UNDER_SERVICE"
	StatusRepair       DeviceStatus = "REPAIR"
	StatusScrapped     DeviceStatus = "SCRAPPED"
)

// DemoStatus is only meaningful for units whose usage type is DEMO.
type DemoStatus string

const (
	DemoAvailable DemoStatus = "AVAILABLE"
	DemoInUse     DemoStatus = "IN_USE"
	DemoReturned  DemoStatus = "RETURNED"
)

// LocationType says which of the two location keys is populated.
type LocationType string

const (
	LocationHospital  LocationType = "HOSPITAL"
	LocationWarehouse LocationType = "WAREHOUSE"
)

// Valid reports whether s is a known ownership type.
func (s OwnershipType) Valid() bool { return s == OwnershipCompany || s == OwnershipCustomer }

// Valid reports whether s is a known usage type.
func (s UsageType) Valid() bool { return s == UsageDemo || s == UsageSold }

// Valid reports whether s is a known device status.
func (s DeviceStatus) Valid() bool {
	switch s {
	case StatusInInventory, StatusDeployed, StatusUnderService, StatusRepair, StatusScrapped:
		return true
	}
	return false
}

// Valid reports whether s is a known demo status.
func (s DemoStatus) Valid() bool {
	return s == DemoAvailable || s == DemoInUse || s == DemoReturned
}

// Location is where a unit currently sits. Exactly one of HospitalID and
// WarehouseID is set, matching Type. Use AtHospital and AtWarehouse to build
// one so the other key is always cleared.
type Location struct {
	Type        LocationType `json:"current_location_type"`
	HospitalID  *string      `json:"current_hospital_id"`
	WarehouseID *string      `json:"current_warehouse_id"`
}

// AtHospital returns a location pointing at a hospital.
func AtHospital(hospitalID string) Location {
	id := hospitalID
	return Location{Type: LocationHospital, HospitalID: &id}
}

// AtWarehouse returns a location pointing at a warehouse.
func AtWarehouse(warehouseID string) Location {
	id := warehouseID
	return Location{Type: LocationWarehouse, WarehouseID: &id}
}

// InHospital reports whether the unit is at the given hospital.
func (l Location) InHospital(hospitalID string) bool {
	return l.Type == LocationHospital && l.HospitalID != nil && *l.HospitalID == hospitalID
}

// Device mirrors a row of the devices table with its model and category
// names resolved.
type Device struct {
	ID                     string        `json:"id"`
	SerialNumber           string        `json:"serial_number"`
	Barcode                *string       `json:"barcode,omitempty"`
	DeviceModelID          string        `json:"device_model_id"`
	OwnershipType          OwnershipType `json:"ownership_type"`
	UsageType              UsageType     `json:"usage_type"`
	Status                 DeviceStatus  `json:"status"`
	DemoStatus             *DemoStatus   `json:"demo_status"`
	DemoLastUsedAt         *time.Time    `json:"demo_last_used_at"`
	DemoAssignedHospitalID *string       `json:"demo_assigned_hospital_id"`
	Location

	ModelName            *string `json:"model_name"`
	CategoryName         *string `json:"category_name"`
	HospitalName         *string `json:"current_hospital_name,omitempty"`
	WarehouseName        *string `json:"current_warehouse_name,omitempty"`
	DemoAssignedHospital *string `json:"demo_assigned_hospital_name,omitempty"`
}

// IsAvailableDemo reports whether the unit can be put into a demo session.
func (d Device) IsAvailableDemo() bool {
	return d.UsageType == UsageDemo && d.DemoStatus != nil && *d.DemoStatus == DemoAvailable
}

// DeviceCategory groups device models.
type DeviceCategory struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	ImagePath   *string `json:"image_path,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// DeviceModel is a SKU within a category.
type DeviceModel struct {
	ID           string          `json:"id"`
	CategoryID   string          `json:"category_id"`
	CategoryName *string         `json:"category_name"`
	ModelName    *string         `json:"model_name"`
	ModelCode    string          `json:"model_code"`
	Manufacturer *string         `json:"manufacturer,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Specs        json.RawMessage `json:"specs,omitempty"`
}

// DisplayName returns the model name or a placeholder when it is unset.
func (m DeviceModel) DisplayName() string {
	if m.ModelName == nil || *m.ModelName == "" {
		return "Unknown SKU"
	}
	return *m.ModelName
}

// Warehouse is a storage location for units not deployed at a hospital.
type Warehouse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeviceMovement records a change of location for a unit.
type DeviceMovement struct {
	ID                string       `json:"id"`
	DeviceID          string       `json:"device_id"`
	MovedAt           time.Time    `json:"moved_at"`
	Reason            *string      `json:"reason"`
	Notes             *string      `json:"notes"`
	FromLocationType  LocationType `json:"from_location_type"`
	ToLocationType    LocationType `json:"to_location_type"`
	FromHospitalID    *string      `json:"from_hospital_id"`
	ToHospitalID      *string      `json:"to_hospital_id"`
	FromWarehouseID   *string      `json:"from_warehouse_id"`
	ToWarehouseID     *string      `json:"to_warehouse_id"`
	DeviceSerial      *string      `json:"device_serial,omitempty"`
	FromLocationLabel *string      `json:"from,omitempty"`
	ToLocationLabel   *string      `json:"to,omitempty"`
}
