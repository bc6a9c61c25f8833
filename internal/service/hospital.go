package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/pincode"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
)

// HospitalStore persists hospitals.
type HospitalStore interface {
	List(ctx context.Context) ([]model.Hospital, error)
	ListByEngineer(ctx context.Context, engineerID string) ([]model.Hospital, error)
	Get(ctx context.Context, id string) (*model.Hospital, error)
	Create(ctx context.Context, h *model.Hospital) error
	Update(ctx context.Context, h *model.Hospital) error
}

// HospitalDeviceStore reads and moves units between warehouses and
// hospitals.
type HospitalDeviceStore interface {
	Get(ctx context.Context, id string) (*model.Device, error)
	ListByHospital(ctx context.Context, hospitalID string) ([]model.Device, error)
	ListAtHospitals(ctx context.Context) ([]model.Device, error)
	ListInWarehouse(ctx context.Context) ([]model.Device, error)
	AssignToHospital(ctx context.Context, deviceID, hospitalID string) error
	ReturnToWarehouse(ctx context.Context, deviceID, hospitalID, warehouseID string) error
}

// AssignmentStore persists engineer to hospital assignments.
type AssignmentStore interface {
	List(ctx context.Context) ([]model.EngineerAssignment, error)
	ListByEngineers(ctx context.Context, engineerIDs []string) ([]model.EngineerAssignment, error)
	ListByHospital(ctx context.Context, hospitalID string) ([]model.EngineerAssignment, error)
	Upsert(ctx context.Context, engineerID, hospitalID, assignedBy string) error
	Delete(ctx context.Context, engineerID, hospitalID string) error
}

// WarehouseReader resolves warehouses.
type WarehouseReader interface {
	List(ctx context.Context) ([]model.Warehouse, error)
	Default(ctx context.Context) (*model.Warehouse, error)
}

// PincodeLookup resolves a postal code to a city and state.
type PincodeLookup interface {
	Lookup(ctx context.Context, code string) (pincode.Location, error)
}

// HospitalService manages hospitals, their engineers and their units.
type HospitalService struct {
	hospitals   HospitalStore
	regions     RegionReader
	devices     HospitalDeviceStore
	assignments AssignmentStore
	warehouses  WarehouseReader
	profiles    ProfileLister
	pincodes    PincodeLookup
	logger      *zap.Logger
}

// NewHospitalService wires a HospitalService.
func NewHospitalService(hospitals HospitalStore, regions RegionReader, devices HospitalDeviceStore, assignments AssignmentStore,
	warehouses WarehouseReader, profiles ProfileLister, pincodes PincodeLookup, logger *zap.Logger) *HospitalService {
	return &HospitalService{
		hospitals:   hospitals,
		regions:     regions,
		devices:     devices,
		assignments: assignments,
		warehouses:  warehouses,
		profiles:    profiles,
		pincodes:    pincodes,
		logger:      logger.Named("hospital"),
	}
}

// HospitalListing is a hospital with its engineers and deployed units.
// AddressLine and Pincode are the stored address split for the edit form.
type HospitalListing struct {
	model.Hospital
	AddressLine string                     `json:"address_line"`
	Pincode     string                     `json:"pincode"`
	Engineers   []model.EngineerAssignment `json:"engineers"`
	Devices     []model.Device             `json:"devices"`
}

func withSubregion(idx model.RegionIndex, h model.Hospital) model.Hospital {
	if name := idx.SubregionName(h.RegionID); name != "" {
		h.Subregion = &name
	} else {
		h.Subregion = nil
	}
	return h
}

// List returns hospitals matching query (name, city, state or address) and
// zone, each with its engineers and units.
func (s *HospitalService) List(ctx context.Context, query, zone string) ([]HospitalListing, error) {
	hospitals, err := s.hospitals.List(ctx)
	if err != nil {
		return nil, err
	}
	regions, err := s.regions.List(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return nil, err
	}
	devices, err := s.devices.ListAtHospitals(ctx)
	if err != nil {
		return nil, err
	}

	byHospital := map[string][]model.EngineerAssignment{}
	for _, a := range assignments {
		byHospital[a.HospitalID] = append(byHospital[a.HospitalID], a)
	}
	unitsAt := map[string][]model.Device{}
	for _, d := range devices {
		if d.HospitalID != nil {
			unitsAt[*d.HospitalID] = append(unitsAt[*d.HospitalID], d)
		}
	}

	idx := model.IndexRegions(regions)
	zone = strings.TrimSpace(zone)
	out := make([]HospitalListing, 0, len(hospitals))
	for _, h := range hospitals {
		if !h.MatchesQuery(query) {
			continue
		}
		if zone != "" && deref(h.Zone) != zone {
			continue
		}
		line, pin := model.SplitPincode(deref(h.Address))
		l := HospitalListing{
			Hospital:    withSubregion(idx, h),
			AddressLine: line,
			Pincode:     pin,
			Engineers:   byHospital[h.ID],
			Devices:     unitsAt[h.ID],
		}
		if l.Engineers == nil {
			l.Engineers = []model.EngineerAssignment{}
		}
		if l.Devices == nil {
			l.Devices = []model.Device{}
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Detail returns one hospital with its engineers and units.
func (s *HospitalService) Detail(ctx context.Context, id string) (*HospitalListing, error) {
	h, err := s.hospitals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	regions, err := s.regions.List(ctx)
	if err != nil {
		return nil, err
	}
	engineers, err := s.assignments.ListByHospital(ctx, id)
	if err != nil {
		return nil, err
	}
	devices, err := s.devices.ListByHospital(ctx, id)
	if err != nil {
		return nil, err
	}
	line, pin := model.SplitPincode(deref(h.Address))
	return &HospitalListing{
		Hospital:    withSubregion(model.IndexRegions(regions), *h),
		AddressLine: line,
		Pincode:     pin,
		Engineers:   engineers,
		Devices:     devices,
	}, nil
}

// ForEngineer lists the hospitals an engineer is assigned to.
func (s *HospitalService) ForEngineer(ctx context.Context, engineerID string) ([]model.Hospital, error) {
	hospitals, err := s.hospitals.ListByEngineer(ctx, engineerID)
	if err != nil {
		return nil, err
	}
	regions, err := s.regions.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := model.IndexRegions(regions)
	for i := range hospitals {
		hospitals[i] = withSubregion(idx, hospitals[i])
	}
	return hospitals, nil
}

// HospitalFormOptions feeds the hospital form pickers.
type HospitalFormOptions struct {
	Regions          []model.RegionNode `json:"regions"`
	WarehouseDevices []model.Device     `json:"warehouse_devices"`
	Engineers        []model.Profile    `json:"engineers"`
}

// FormOptions returns the region tree, the units that can be assigned and
// the active field engineers.
func (s *HospitalService) FormOptions(ctx context.Context) (*HospitalFormOptions, error) {
	regions, err := s.regions.List(ctx)
	if err != nil {
		return nil, err
	}
	units, err := s.devices.ListInWarehouse(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	engineers := make([]model.Profile, 0)
	for _, p := range profiles {
		if role, ok := p.Role(); ok && role == model.RoleFieldEngineer && p.IsActive() {
			engineers = append(engineers, p)
		}
	}
	sort.SliceStable(engineers, func(i, j int) bool { return engineers[i].DisplayName() < engineers[j].DisplayName() })
	return &HospitalFormOptions{Regions: model.BuildRegionTree(regions), WarehouseDevices: units, Engineers: engineers}, nil
}

// HospitalForm is the create and edit form of a hospital.
type HospitalForm struct {
	Name            string      `json:"name"`
	AddressLine     string      `json:"address_line"`
	Pincode         string      `json:"pincode"`
	City            string      `json:"city"`
	State           string      `json:"state"`
	PrimaryRegionID string      `json:"primary_region_id"`
	SubregionID     string      `json:"subregion_id"`
	POC             []model.POC `json:"poc"`
}

const (
	msgHospitalName = "Hospital name is required."
	msgZone         = "Zone is required."
	msgZoneUnknown  = "Select a valid zone."
	msgSubregion    = "Subregion must belong to the selected zone."
)

// build validates f and turns it into a hospital row. nameRequired is
// false for edits, where a blank name keeps the stored one. The only store
// read happens after every field check has passed.
func (s *HospitalService) build(ctx context.Context, f HospitalForm, nameRequired bool) (*model.Hospital, error) {
	name := strings.TrimSpace(f.Name)
	if nameRequired && name == "" {
		return nil, model.Invalid(msgHospitalName)
	}
	poc, err := model.NormalizePOC(f.POC)
	if err != nil {
		return nil, err
	}
	primaryID := strings.TrimSpace(f.PrimaryRegionID)
	if primaryID == "" {
		return nil, model.Invalid(msgZone)
	}

	regions, err := s.regions.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := model.IndexRegions(regions)
	primary, ok := idx[primaryID]
	if !ok || !primary.IsPrimary() {
		return nil, model.Invalid(msgZoneUnknown)
	}
	regionID := primary.ID
	if subID := strings.TrimSpace(f.SubregionID); subID != "" {
		sub, ok := idx[subID]
		if !ok || sub.ParentRegionID == nil || *sub.ParentRegionID != primary.ID {
			return nil, model.Invalid(msgSubregion)
		}
		regionID = sub.ID
	}

	zone := primary.Name
	return &model.Hospital{
		Name:     name,
		Address:  clean(model.ComposeAddress(f.AddressLine, f.Pincode)),
		City:     clean(f.City),
		State:    clean(f.State),
		Zone:     &zone,
		RegionID: &regionID,
		POC:      poc,
	}, nil
}

// Create validates and stores a new hospital.
func (s *HospitalService) Create(ctx context.Context, f HospitalForm) (*model.Hospital, error) {
	h, err := s.build(ctx, f, true)
	if err != nil {
		return nil, err
	}
	if err := s.hospitals.Create(ctx, h); err != nil {
		return nil, err
	}
	s.logger.Info("hospital created", zap.String("hospital_id", h.ID), zap.String("zone", deref(h.Zone)))
	return h, nil
}

// Update validates and overwrites an existing hospital.
func (s *HospitalService) Update(ctx context.Context, id string, f HospitalForm) (*model.Hospital, error) {
	h, err := s.build(ctx, f, false)
	if err != nil {
		return nil, err
	}
	if h.Name == "" {
		cur, err := s.hospitals.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		h.Name = cur.Name
	}
	h.ID = id
	if err := s.hospitals.Update(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// LookupPincode resolves a pincode for the form. Errors are meant to be
// shown as a warning and never block saving.
func (s *HospitalService) LookupPincode(ctx context.Context, code string) (pincode.Location, error) {
	loc, err := s.pincodes.Lookup(ctx, code)
	if err != nil && !errors.Is(err, pincode.ErrInvalid) && !errors.Is(err, pincode.ErrNoLocation) {
		s.logger.Warn("pincode lookup failed", zap.String("pincode", strings.TrimSpace(code)), zap.Error(err))
	}
	return loc, err
}

const (
	msgEngineerHospital = "Engineer and hospital are required."
	msgHospitalDevice   = "Hospital and device are required."
	msgNoWarehouse      = "No warehouse available to return this device."
)

// AssignEngineer links an engineer to a hospital. Repeating it refreshes
// the assignment stamp.
func (s *HospitalService) AssignEngineer(ctx context.Context, hospitalID, engineerID, assignedBy string) error {
	hospitalID, engineerID = strings.TrimSpace(hospitalID), strings.TrimSpace(engineerID)
	if hospitalID == "" || engineerID == "" {
		return model.Invalid(msgEngineerHospital)
	}
	return s.assignments.Upsert(ctx, engineerID, hospitalID, assignedBy)
}

// RemoveEngineer unlinks an engineer from a hospital.
func (s *HospitalService) RemoveEngineer(ctx context.Context, hospitalID, engineerID string) error {
	hospitalID, engineerID = strings.TrimSpace(hospitalID), strings.TrimSpace(engineerID)
	if hospitalID == "" || engineerID == "" {
		return model.Invalid(msgEngineerHospital)
	}
	return s.assignments.Delete(ctx, engineerID, hospitalID)
}

// AssignDevice moves a warehouse unit into the hospital.
func (s *HospitalService) AssignDevice(ctx context.Context, hospitalID, deviceID string) error {
	hospitalID, deviceID = strings.TrimSpace(hospitalID), strings.TrimSpace(deviceID)
	if hospitalID == "" || deviceID == "" {
		return model.Invalid(msgHospitalDevice)
	}
	if err := s.devices.AssignToHospital(ctx, deviceID, hospitalID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("device is not in stock at a warehouse: %w", err)
		}
		return err
	}
	s.logger.Info("device assigned", zap.String("device_id", deviceID), zap.String("hospital_id", hospitalID))
	return nil
}

// ReturnDevice moves a unit from the hospital into the default warehouse.
func (s *HospitalService) ReturnDevice(ctx context.Context, hospitalID, deviceID string) error {
	hospitalID, deviceID = strings.TrimSpace(hospitalID), strings.TrimSpace(deviceID)
	if hospitalID == "" || deviceID == "" {
		return model.Invalid(msgHospitalDevice)
	}
	wh, err := s.warehouses.Default(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Invalid(msgNoWarehouse)
		}
		return err
	}
	if err := s.devices.ReturnToWarehouse(ctx, deviceID, hospitalID, wh.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("device is not at this hospital: %w", err)
		}
		return err
	}
	s.logger.Info("device returned", zap.String("device_id", deviceID), zap.String("warehouse_id", wh.ID))
	return nil
}

// Device returns one unit.
func (s *HospitalService) Device(ctx context.Context, id string) (*model.Device, error) {
	return s.devices.Get(ctx, id)
}
