package model

import "time"

// InventorySummary is the single row of the inventory_summary view.
type InventorySummary struct {
	TotalDevices int `json:"total_devices"`
	InInventory  int `json:"in_inventory"`
	Deployed     int `json:"deployed"`
	UnderService int `json:"under_service"`
	Scrapped     int `json:"scrapped"`
	DemoDeployed int `json:"demo_deployed"`
	SoldDeployed int `json:"sold_deployed"`
}

// InventoryByModel is a row of the inventory_by_model view.
type InventoryByModel struct {
	ModelID      string  `json:"model_id"`
	ModelName    string  `json:"model_name"`
	Category     string  `json:"category"`
	ModelCode    *string `json:"model_code"`
	Manufacturer *string `json:"manufacturer"`
	Description  *string `json:"description"`
	Total        int     `json:"total"`
	InInventory  int     `json:"in_inventory"`
	Deployed     int     `json:"deployed"`
	DemoDeployed int     `json:"demo_deployed"`
	SoldDeployed int     `json:"sold_deployed"`
}

// DemoSummary is the single row of the demo_summary view.
type DemoSummary struct {
	InUse        int        `json:"in_use"`
	IdleDeployed int        `json:"idle_deployed"`
	Returned     int        `json:"returned"`
	LastUsedAt   *time.Time `json:"last_used_at"`
}

// EngineerAssignment links a field engineer to a hospital.
type EngineerAssignment struct {
	ID           string    `json:"id"`
	EngineerID   string    `json:"engineer_id"`
	EngineerName *string   `json:"engineer_name"`
	HospitalID   string    `json:"hospital_id"`
	HospitalName string    `json:"hospital_name"`
	HospitalCity *string   `json:"hospital_city"`
	HospitalZone *string   `json:"hospital_zone"`
	AssignedBy   *string   `json:"assigned_by,omitempty"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// RegionalManager says which primary region a manager covers.
type RegionalManager struct {
	UserID   string  `json:"user_id"`
	RegionID string  `json:"region_id"`
	FullName *string `json:"full_name"`
}
