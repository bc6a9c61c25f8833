package service

import (
	"context"
	"errors"
	"sort"

	"github.com/iliyamo/device-ops-dashboard/internal/identity"
	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/pincode"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
)

func strp(s string) *string { return &s }

type fakeRegions struct {
	regions  []model.Region
	managers []model.RegionalManager
	calls    int
	created  []string
	updated  []string
	deleted  []string
	dupe     bool
	assigned [][2]string
}

func (f *fakeRegions) List(context.Context) ([]model.Region, error) {
	f.calls++
	return f.regions, nil
}

func (f *fakeRegions) Managers(context.Context) ([]model.RegionalManager, error) {
	f.calls++
	return f.managers, nil
}

func (f *fakeRegions) Get(_ context.Context, id string) (*model.Region, error) {
	f.calls++
	for _, r := range f.regions {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRegions) CreateSubregion(_ context.Context, parentID, name, code string) (*model.Region, error) {
	f.calls++
	if f.dupe {
		return nil, repository.ErrDuplicate
	}
	f.created = append(f.created, name)
	return &model.Region{ID: "new-" + code, Name: name, Code: code, ParentRegionID: &parentID}, nil
}

func (f *fakeRegions) UpdateSubregion(_ context.Context, id, _, _ string) error {
	f.calls++
	if f.dupe {
		return repository.ErrDuplicate
	}
	f.updated = append(f.updated, id)
	return nil
}

func (f *fakeRegions) DeleteSubregion(_ context.Context, id string) error {
	f.calls++
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRegions) AssignManager(_ context.Context, userID, regionID string) error {
	f.assigned = append(f.assigned, [2]string{userID, regionID})
	return nil
}

// regionFixture is North (primary) with subregion North-A, and South.
func regionFixture() *fakeRegions {
	return &fakeRegions{regions: []model.Region{
		{ID: "north", Name: "North", Code: "N", IsLocked: true},
		{ID: "south", Name: "South", Code: "S", IsLocked: true},
		{ID: "north-a", Name: "North-A", Code: "NA", ParentRegionID: strp("north")},
		{ID: "south-a", Name: "South-A", Code: "SA", ParentRegionID: strp("south")},
	}}
}

type fakeHospitals struct {
	hospitals []model.Hospital
	calls     int
	saved     []model.Hospital
}

func (f *fakeHospitals) List(context.Context) ([]model.Hospital, error) {
	f.calls++
	return append([]model.Hospital(nil), f.hospitals...), nil
}

func (f *fakeHospitals) ListByEngineer(context.Context, string) ([]model.Hospital, error) {
	f.calls++
	return append([]model.Hospital(nil), f.hospitals...), nil
}

func (f *fakeHospitals) Get(_ context.Context, id string) (*model.Hospital, error) {
	f.calls++
	for _, h := range f.hospitals {
		if h.ID == id {
			h := h
			return &h, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeHospitals) Create(_ context.Context, h *model.Hospital) error {
	f.calls++
	h.ID = "h-new"
	f.saved = append(f.saved, *h)
	return nil
}

func (f *fakeHospitals) Update(_ context.Context, h *model.Hospital) error {
	f.calls++
	f.saved = append(f.saved, *h)
	return nil
}

type fakeDevices struct {
	devices  []model.Device
	assigned [][2]string
	returned [][3]string
	moveErr  error
	created  []model.Device
}

func (f *fakeDevices) List(context.Context) ([]model.Device, error) { return f.devices, nil }
func (f *fakeDevices) ListDemo(context.Context) ([]model.Device, error) {
	out := []model.Device{}
	for _, d := range f.devices {
		if d.UsageType == model.UsageDemo {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeDevices) ListByModel(_ context.Context, modelID string) ([]model.Device, error) {
	out := []model.Device{}
	for _, d := range f.devices {
		if d.DeviceModelID == modelID {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeDevices) ListByHospital(_ context.Context, hospitalID string) ([]model.Device, error) {
	out := []model.Device{}
	for _, d := range f.devices {
		if d.InHospital(hospitalID) {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeDevices) ListAtHospitals(context.Context) ([]model.Device, error) {
	out := []model.Device{}
	for _, d := range f.devices {
		if d.Type == model.LocationHospital {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeDevices) ListInWarehouse(context.Context) ([]model.Device, error) { return nil, nil }
func (f *fakeDevices) Get(_ context.Context, id string) (*model.Device, error) {
	for _, d := range f.devices {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}
func (f *fakeDevices) Create(_ context.Context, d *model.Device) error {
	d.ID = "d-new"
	f.created = append(f.created, *d)
	return nil
}
func (f *fakeDevices) Update(_ context.Context, d *model.Device) error {
	f.created = append(f.created, *d)
	return nil
}
func (f *fakeDevices) Delete(context.Context, string) error { return nil }
func (f *fakeDevices) AssignToHospital(_ context.Context, deviceID, hospitalID string) error {
	if f.moveErr != nil {
		return f.moveErr
	}
	f.assigned = append(f.assigned, [2]string{deviceID, hospitalID})
	return nil
}
func (f *fakeDevices) ReturnToWarehouse(_ context.Context, deviceID, hospitalID, warehouseID string) error {
	if f.moveErr != nil {
		return f.moveErr
	}
	f.returned = append(f.returned, [3]string{deviceID, hospitalID, warehouseID})
	return nil
}

type fakeAssignments struct {
	rows    []model.EngineerAssignment
	upserts [][3]string
	deletes [][2]string
}

func (f *fakeAssignments) List(context.Context) ([]model.EngineerAssignment, error) {
	return f.rows, nil
}
func (f *fakeAssignments) ListByEngineers(_ context.Context, ids []string) ([]model.EngineerAssignment, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []model.EngineerAssignment{}
	for _, a := range f.rows {
		if want[a.EngineerID] {
			out = append(out, a)
		}
	}
	return out, nil
}
func (f *fakeAssignments) ListByHospital(_ context.Context, hospitalID string) ([]model.EngineerAssignment, error) {
	out := []model.EngineerAssignment{}
	for _, a := range f.rows {
		if a.HospitalID == hospitalID {
			out = append(out, a)
		}
	}
	return out, nil
}
func (f *fakeAssignments) Upsert(_ context.Context, engineerID, hospitalID, assignedBy string) error {
	f.upserts = append(f.upserts, [3]string{engineerID, hospitalID, assignedBy})
	return nil
}
func (f *fakeAssignments) Delete(_ context.Context, engineerID, hospitalID string) error {
	f.deletes = append(f.deletes, [2]string{engineerID, hospitalID})
	return nil
}

type fakeWarehouses struct{ def *model.Warehouse }

func (f fakeWarehouses) List(context.Context) ([]model.Warehouse, error) {
	if f.def == nil {
		return []model.Warehouse{}, nil
	}
	return []model.Warehouse{*f.def}, nil
}
func (f fakeWarehouses) Default(context.Context) (*model.Warehouse, error) {
	if f.def == nil {
		return nil, repository.ErrNotFound
	}
	return f.def, nil
}

type fakePincodes struct {
	loc pincode.Location
	err error
}

func (f fakePincodes) Lookup(context.Context, string) (pincode.Location, error) { return f.loc, f.err }

type fakeProfiles struct {
	profiles  map[string]*model.Profile
	upserted  []model.Profile
	deleted   []string
	active    map[string]bool
	removed   []string
	upsertErr error
	deleteErr error
}

func newFakeProfiles(ps ...model.Profile) *fakeProfiles {
	f := &fakeProfiles{profiles: map[string]*model.Profile{}, active: map[string]bool{}}
	for i := range ps {
		p := ps[i]
		f.profiles[p.UserID] = &p
	}
	return f
}

func (f *fakeProfiles) List(context.Context) ([]model.Profile, error) {
	out := make([]model.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
func (f *fakeProfiles) ListReports(_ context.Context, managerID string) ([]model.Profile, error) {
	out := []model.Profile{}
	for _, p := range f.profiles {
		if p.ManagerID != nil && *p.ManagerID == managerID {
			out = append(out, *p)
		}
	}
	return out, nil
}
func (f *fakeProfiles) Get(_ context.Context, userID string) (*model.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}
func (f *fakeProfiles) Upsert(_ context.Context, p *model.Profile) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, *p)
	return nil
}
func (f *fakeProfiles) Delete(_ context.Context, userID string) error {
	f.deleted = append(f.deleted, userID)
	return f.deleteErr
}
func (f *fakeProfiles) Transition(_ context.Context, userID, decidedBy string,
	fn func(model.ApprovalState) (model.ApprovalState, error)) (*model.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next, err := fn(p.State)
	if err != nil {
		return nil, err
	}
	p.State = next
	p.DecisionBy = &decidedBy
	cp := *p
	return &cp, nil
}
func (f *fakeProfiles) SetActive(_ context.Context, userID string, active bool) error {
	if _, ok := f.profiles[userID]; !ok {
		return repository.ErrNotFound
	}
	f.active[userID] = active
	return nil
}
func (f *fakeProfiles) RemoveRegionalManager(_ context.Context, userID string) error {
	f.removed = append(f.removed, userID)
	return nil
}
func (f *fakeProfiles) SetManager(context.Context, string, *string) error { return nil }

type fakeIdentity struct {
	nextID  string
	created []identity.NewUser
	deleted []string
	err     error
}

func (f *fakeIdentity) CreateUser(_ context.Context, u identity.NewUser) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, u)
	return f.nextID, nil
}

func (f *fakeIdentity) DeleteUser(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

type recordedEvent struct {
	Type    string
	Payload any
}

type fakeEvents struct {
	events []recordedEvent
	err    error
}

func (f *fakeEvents) Publish(_ context.Context, eventType string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, recordedEvent{eventType, payload})
	return nil
}

var errStore = errors.New("store is down")
