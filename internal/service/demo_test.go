package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/queue"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
)

type fakeSessions struct {
	created  []repository.NewSession
	sessions []model.DemoSession
	err      error
}

func (f *fakeSessions) CreateWithDevices(_ context.Context, s repository.NewSession) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, s)
	return "s-new", nil
}

func (f *fakeSessions) List(context.Context) ([]model.DemoSession, error) { return f.sessions, nil }

type fakeCatalog struct {
	categories []model.DeviceCategory
	models     []model.DeviceModel
}

func (f fakeCatalog) ListCategories(context.Context) ([]model.DeviceCategory, error) {
	return append([]model.DeviceCategory(nil), f.categories...), nil
}

func (f fakeCatalog) ListModels(_ context.Context, categoryID string) ([]model.DeviceModel, error) {
	out := []model.DeviceModel{}
	for _, m := range f.models {
		if categoryID == "" || m.CategoryID == categoryID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeDemoSummary struct {
	limit int
}

func (f *fakeDemoSummary) Demo(context.Context) (model.DemoSummary, error) {
	return model.DemoSummary{InUse: 2}, nil
}

func (f *fakeDemoSummary) LatestMovements(_ context.Context, limit int) ([]model.DeviceMovement, error) {
	f.limit = limit
	return []model.DeviceMovement{}, nil
}

type demoEnv struct {
	svc      *DemoService
	sessions *fakeSessions
	events   *fakeEvents
	devices  *fakeDevices
}

func newDemoEnv() demoEnv {
	e := demoEnv{sessions: &fakeSessions{}, events: &fakeEvents{}, devices: &fakeDevices{}}
	hospitals := &fakeHospitals{hospitals: []model.Hospital{
		{ID: "A", Name: "Hospital A", RegionID: strp("north-a")},
		{ID: "B", Name: "Hospital B", RegionID: strp("north-a")},
		{ID: "C", Name: "Hospital C", RegionID: strp("south-a")},
	}}
	regions := regionFixture()
	regions.managers = []model.RegionalManager{{UserID: "mgr-n", RegionID: "north"}}
	profiles := newFakeProfiles(
		model.Profile{UserID: "mgr-n", FullName: strp("Nina"), State: model.Approved{Role: model.RoleRegionalManager, Active: true}},
		model.Profile{UserID: "eng-n", FullName: strp("Arun"), ManagerID: strp("mgr-n"), State: model.Approved{Role: model.RoleFieldEngineer, Active: true}},
		model.Profile{UserID: "eng-s", FullName: strp("Bela"), State: model.Approved{Role: model.RoleFieldEngineer, Active: true}},
		model.Profile{UserID: "admin", FullName: strp("Root"), State: model.Approved{Role: model.RoleAdmin, Active: true}},
		model.Profile{UserID: "gone", FullName: strp("Gone"), State: model.Approved{Role: model.RoleFieldEngineer, Active: false}},
		model.Profile{UserID: "new", State: model.Pending{}},
	)
	catalog := fakeCatalog{
		categories: []model.DeviceCategory{{ID: "c2", Name: "Ventilators"}, {ID: "c1", Name: "Monitors"}},
		models: []model.DeviceModel{
			{ID: "m2", CategoryID: "c1", ModelName: strp("Zeta")},
			{ID: "m1", CategoryID: "c1"},
			{ID: "m3", CategoryID: "c2", ModelName: strp("Vent")},
		},
	}
	e.svc = NewDemoService(e.sessions, e.devices, catalog, hospitals, regions, profiles, &fakeDemoSummary{}, e.events, zap.NewNop())
	return e
}

func unit(id, serial, modelID string, st model.DemoStatus, loc model.Location) model.Device {
	return model.Device{ID: id, SerialNumber: serial, DeviceModelID: modelID, UsageType: model.UsageDemo, DemoStatus: &st, Location: loc}
}

func TestAssignmentOptions(t *testing.T) {
	e := newDemoEnv()
	e.devices.devices = []model.Device{
		unit("d-at-b", "SN-200", "m1", model.DemoAvailable, model.AtHospital("B")),
		unit("d-at-a", "SN-100", "m1", model.DemoAvailable, model.AtHospital("A")),
		unit("d-at-c", "SN-300", "m1", model.DemoAvailable, model.AtHospital("C")),
		unit("d-busy", "SN-400", "m1", model.DemoInUse, model.AtHospital("B")),
		unit("d-wh", "SN-500", "m2", model.DemoAvailable, model.AtWarehouse("wh")),
	}

	opts, err := e.svc.AssignmentOptions(context.Background(), AssignmentFilter{
		HospitalID: "A", CategoryID: "c1", ModelID: "m1", GlobalQuery: "sn-5",
	})
	require.NoError(t, err)

	assert.Equal(t, "Monitors", opts.Categories[0].Name)
	require.Len(t, opts.Models, 2)
	assert.Equal(t, "Unknown SKU", opts.Models[0].Name)
	assert.Equal(t, "Zeta", opts.Models[1].Name)

	ids := func(ds []model.Device) []string {
		out := []string{}
		for _, d := range ds {
			out = append(out, d.ID)
		}
		return out
	}
	assert.Equal(t, []string{"d-at-a", "d-at-b", "d-at-c"}, ids(opts.Candidates))
	assert.Equal(t, []string{"d-wh"}, ids(opts.GlobalResults))
	assert.Equal(t, []string{"d-at-b"}, opts.Highlighted)

	names := func(ps []model.Profile) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.DisplayName())
		}
		return out
	}
	assert.Equal(t, []string{"Arun", "Nina"}, names(opts.PrimaryOwners))
	assert.Equal(t, []string{"Bela"}, names(opts.OtherOwners))
}

func TestAssignmentOptionsWithoutModel(t *testing.T) {
	e := newDemoEnv()
	e.devices.devices = []model.Device{unit("d1", "SN-1", "m1", model.DemoAvailable, model.AtWarehouse("wh"))}
	opts, err := e.svc.AssignmentOptions(context.Background(), AssignmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, opts.Candidates)
	assert.Empty(t, opts.Models)
	assert.Empty(t, opts.Highlighted)
	assert.Empty(t, opts.PrimaryOwners)
	assert.Len(t, opts.OtherOwners, 3)
}

func TestCreateSessionValidationOrder(t *testing.T) {
	full := SessionDraft{HospitalID: "A", OwnerProfileID: "eng-n", DeviceIDs: []string{"d1"}, StartDate: "2026-01-10", EndDate: "2026-01-20"}
	cases := []struct {
		name  string
		patch func(*SessionDraft)
		want  string
	}{
		{"hospital first", func(d *SessionDraft) { *d = SessionDraft{} }, "Select a hospital for this demo."},
		{"owner", func(d *SessionDraft) { d.OwnerProfileID = " "; d.DeviceIDs = nil }, "Assign a demo owner."},
		{"devices", func(d *SessionDraft) { d.DeviceIDs = []string{"", ""}; d.StartDate = "" }, "Select at least one device serial for this demo."},
		{"start", func(d *SessionDraft) { d.StartDate = "" }, "Select the demo start and end dates."},
		{"end", func(d *SessionDraft) { d.EndDate = "" }, "Select the demo start and end dates."},
		{"format", func(d *SessionDraft) { d.EndDate = "20/01/2026" }, "Dates must be in YYYY-MM-DD format."},
		{"order", func(d *SessionDraft) { d.EndDate = "2026-01-09" }, "The demo end date cannot be before the start date."},
		{"status", func(d *SessionDraft) { d.DemoStatus = "LOST" }, "Demo status must be IN_USE, AVAILABLE or RETURNED."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newDemoEnv()
			d := full
			tc.patch(&d)
			_, err := e.svc.CreateSession(context.Background(), d, "admin")
			require.Error(t, err)
			assert.True(t, model.IsValidation(err))
			assert.Equal(t, tc.want, err.Error())
			assert.Empty(t, e.sessions.created)
			assert.Empty(t, e.events.events)
		})
	}
}

func TestCreateSession(t *testing.T) {
	e := newDemoEnv()
	id, err := e.svc.CreateSession(context.Background(), SessionDraft{
		HospitalID: "A", OwnerProfileID: "eng-n", DeviceIDs: []string{"d1", "d2", "d1"},
		StartDate: "2026-01-10", EndDate: "2026-01-10",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "s-new", id)

	require.Len(t, e.sessions.created, 1)
	got := e.sessions.created[0]
	assert.Equal(t, []string{"d1", "d2"}, got.DeviceIDs)
	assert.Equal(t, model.DemoInUse, got.DemoStatus)
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), got.StartDate)

	require.Len(t, e.events.events, 1)
	assert.Equal(t, queue.TypeDemoSessionCreated, e.events.events[0].Type)
	ev := e.events.events[0].Payload.(queue.DemoSessionCreatedEvent)
	assert.Equal(t, "admin", ev.CreatedBy)
	assert.Equal(t, "IN_USE", ev.DemoStatus)
}

func TestCreateSessionStoreFailure(t *testing.T) {
	e := newDemoEnv()
	e.sessions.err = &repository.UnavailableError{Serials: []string{"SN-1"}}
	_, err := e.svc.CreateSession(context.Background(), SessionDraft{
		HospitalID: "A", OwnerProfileID: "eng-n", DeviceIDs: []string{"d1"}, StartDate: "2026-01-10", EndDate: "2026-01-11",
	}, "admin")
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.Empty(t, e.events.events)
}

func TestCreateSessionPublishFailureIsIgnored(t *testing.T) {
	e := newDemoEnv()
	e.events.err = errStore
	id, err := e.svc.CreateSession(context.Background(), SessionDraft{
		HospitalID: "A", OwnerProfileID: "eng-n", DeviceIDs: []string{"d1"}, StartDate: "2026-01-10", EndDate: "2026-01-11",
		DemoStatus: model.DemoAvailable,
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "s-new", id)
	assert.Equal(t, model.DemoAvailable, e.sessions.created[0].DemoStatus)
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestListSessions(t *testing.T) {
	e := newDemoEnv()
	returned, inUse := model.DemoReturned, model.DemoInUse
	e.sessions.sessions = []model.DemoSession{
		{ID: "ongoing", StartDate: day(2026, 1, 10), EndDate: day(2026, 1, 20), CreatedAt: day(2026, 1, 1)},
		{ID: "upcoming", StartDate: day(2026, 2, 1), EndDate: day(2026, 2, 5), CreatedAt: day(2026, 1, 2)},
		{ID: "past-old", StartDate: day(2025, 12, 1), EndDate: day(2025, 12, 5), CreatedAt: day(2025, 11, 1),
			Devices: []model.SessionDevice{{ID: "d1", DemoStatus: &returned}}},
		{ID: "past-new", StartDate: day(2026, 1, 1), EndDate: day(2026, 1, 14), CreatedAt: day(2025, 12, 20),
			Devices: []model.SessionDevice{{ID: "d2", DemoStatus: &inUse}}},
	}
	today := time.Date(2026, 1, 15, 18, 30, 0, 0, time.UTC)

	ongoing, err := e.svc.ListSessions(context.Background(), model.TabOngoing, today)
	require.NoError(t, err)
	require.Len(t, ongoing, 1)
	assert.Equal(t, "ongoing", ongoing[0].ID)
	assert.Nil(t, ongoing[0].PastStatus)

	upcoming, err := e.svc.ListSessions(context.Background(), model.TabUpcoming, today)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "upcoming", upcoming[0].ID)

	past, err := e.svc.ListSessions(context.Background(), model.TabPast, today)
	require.NoError(t, err)
	require.Len(t, past, 2)
	assert.Equal(t, "past-new", past[0].ID)
	assert.Equal(t, model.PastExpired, *past[0].PastStatus)
	assert.Equal(t, model.PastReturned, *past[1].PastStatus)
}

func TestOverview(t *testing.T) {
	sum := &fakeDemoSummary{}
	svc := NewDemoService(&fakeSessions{}, &fakeDevices{}, fakeCatalog{}, &fakeHospitals{}, regionFixture(),
		newFakeProfiles(), sum, &fakeEvents{}, zap.NewNop())
	ov, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ov.Summary.InUse)
	assert.Equal(t, MovementLimit, sum.limit)
}
