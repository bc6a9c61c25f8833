package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/device-ops-dashboard/internal/demo"
	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/queue"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
)

// DemoSessionStore persists demo sessions.
type DemoSessionStore interface {
	CreateWithDevices(ctx context.Context, s repository.NewSession) (string, error)
	List(ctx context.Context) ([]model.DemoSession, error)
}

// DemoDeviceStore lists demo units with their location.
type DemoDeviceStore interface {
	ListDemo(ctx context.Context) ([]model.Device, error)
}

// CatalogReader lists categories and models.
type CatalogReader interface {
	ListCategories(ctx context.Context) ([]model.DeviceCategory, error)
	ListModels(ctx context.Context, categoryID string) ([]model.DeviceModel, error)
}

// HospitalReader lists hospitals.
type HospitalReader interface {
	List(ctx context.Context) ([]model.Hospital, error)
}

// RegionReader lists regions and their managers.
type RegionReader interface {
	List(ctx context.Context) ([]model.Region, error)
	Managers(ctx context.Context) ([]model.RegionalManager, error)
}

// ProfileLister lists team member profiles.
type ProfileLister interface {
	List(ctx context.Context) ([]model.Profile, error)
}

// DemoSummaryReader reads the demo read model and recent movements.
type DemoSummaryReader interface {
	Demo(ctx context.Context) (model.DemoSummary, error)
	LatestMovements(ctx context.Context, limit int) ([]model.DeviceMovement, error)
}

// MovementLimit is how many recent movements the overview returns.
const MovementLimit = 10

// DemoService runs the demo assignment workflow.
type DemoService struct {
	sessions  DemoSessionStore
	devices   DemoDeviceStore
	catalog   CatalogReader
	hospitals HospitalReader
	regions   RegionReader
	profiles  ProfileLister
	summary   DemoSummaryReader
	events    EventPublisher
	logger    *zap.Logger
}

// NewDemoService wires a DemoService.
func NewDemoService(sessions DemoSessionStore, devices DemoDeviceStore, catalog CatalogReader, hospitals HospitalReader,
	regions RegionReader, profiles ProfileLister, summary DemoSummaryReader, events EventPublisher, logger *zap.Logger) *DemoService {
	return &DemoService{
		sessions:  sessions,
		devices:   devices,
		catalog:   catalog,
		hospitals: hospitals,
		regions:   regions,
		profiles:  profiles,
		summary:   summary,
		events:    events,
		logger:    logger.Named("demo"),
	}
}

// AssignmentFilter is the state of the assignment form.
type AssignmentFilter struct {
	HospitalID  string `query:"hospital_id"`
	CategoryID  string `query:"category_id"`
	ModelID     string `query:"model_id"`
	SerialQuery string `query:"serial"`
	GlobalQuery string `query:"global_serial"`
}

// ModelOption is a model as offered in the picker.
type ModelOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// AssignmentOptions is everything the assignment form needs for the
// current filter.
type AssignmentOptions struct {
	Hospitals     []model.Hospital       `json:"hospitals"`
	Categories    []model.DeviceCategory `json:"categories"`
	Models        []ModelOption          `json:"models"`
	PrimaryOwners []model.Profile        `json:"primary_owners"`
	OtherOwners   []model.Profile        `json:"other_owners"`
	Candidates    []model.Device         `json:"candidates"`
	GlobalResults []model.Device         `json:"global_results"`
	Highlighted   []string               `json:"highlighted"`
}

// AssignmentOptions resolves the pickers, owners and candidate units for f.
func (s *DemoService) AssignmentOptions(ctx context.Context, f AssignmentFilter) (*AssignmentOptions, error) {
	hospitals, err := s.hospitals.List(ctx)
	if err != nil {
		return nil, err
	}
	regions, err := s.regions.List(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })

	out := &AssignmentOptions{
		Hospitals:  hospitals,
		Categories: categories,
		Models:     []ModelOption{},
	}
	if f.CategoryID != "" {
		models, err := s.catalog.ListModels(ctx, f.CategoryID)
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			out.Models = append(out.Models, ModelOption{ID: m.ID, Name: m.DisplayName(), Code: m.ModelCode})
		}
		sort.SliceStable(out.Models, func(i, j int) bool { return out.Models[i].Name < out.Models[j].Name })
	}

	idx := model.IndexRegions(regions)
	subregionOf := make(map[string]string, len(hospitals))
	var target *model.Hospital
	for i := range hospitals {
		h := &hospitals[i]
		subregionOf[h.ID] = idx.SubregionName(h.RegionID)
		if name := subregionOf[h.ID]; name != "" {
			h.Subregion = &name
		}
		if h.ID == f.HospitalID {
			target = h
		}
	}

	primaryRegionID := ""
	if target != nil && target.RegionID != nil {
		if p, ok := idx.PrimaryOf(*target.RegionID); ok {
			primaryRegionID = p.ID
		}
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	managers, err := s.regions.Managers(ctx)
	if err != nil {
		return nil, err
	}
	out.PrimaryOwners, out.OtherOwners = demo.SplitOwners(profiles, managers, primaryRegionID)

	devices, err := s.devices.ListDemo(ctx)
	if err != nil {
		return nil, err
	}
	out.Candidates = demo.Candidates(devices, f.ModelID, f.SerialQuery)
	out.GlobalResults = demo.GlobalMatches(devices, f.GlobalQuery)
	out.Highlighted = make([]string, 0)
	for id := range demo.Highlighted(out.Candidates, f.HospitalID, subregionOf) {
		out.Highlighted = append(out.Highlighted, id)
	}
	sort.Strings(out.Highlighted)
	return out, nil
}

// SessionDraft is a demo session as submitted by the form.
type SessionDraft struct {
	HospitalID     string           `json:"hospital_id" validate:"required"`
	OwnerProfileID string           `json:"owner_profile_id" validate:"required"`
	DeviceIDs      []string         `json:"device_ids" validate:"min=1"`
	StartDate      string           `json:"start_date" validate:"required"`
	EndDate        string           `json:"end_date" validate:"required"`
	DemoStatus     model.DemoStatus `json:"demo_status"`
}

var draftMessages = map[string]string{
	"HospitalID":     "Select a hospital for this demo.",
	"OwnerProfileID": "Assign a demo owner.",
	"DeviceIDs":      "Select at least one device serial for this demo.",
	"StartDate":      "Select the demo start and end dates.",
	"EndDate":        "Select the demo start and end dates.",
}

const (
	msgBadDate        = "Dates must be in YYYY-MM-DD format."
	msgEndBeforeStart = "The demo end date cannot be before the start date."
	msgDemoStatus     = "Demo status must be IN_USE, AVAILABLE or RETURNED."
)

// CreateSession validates the draft and opens the session atomically. The
// returned id is that of the new session. createdBy is only used for the
// published event.
func (s *DemoService) CreateSession(ctx context.Context, d SessionDraft, createdBy string) (string, error) {
	d.HospitalID = strings.TrimSpace(d.HospitalID)
	d.OwnerProfileID = strings.TrimSpace(d.OwnerProfileID)
	d.StartDate = strings.TrimSpace(d.StartDate)
	d.EndDate = strings.TrimSpace(d.EndDate)
	d.DeviceIDs = demo.NewBin(d.DeviceIDs...).IDs()
	if err := check(d, draftMessages); err != nil {
		return "", err
	}
	start, err := time.Parse(time.DateOnly, d.StartDate)
	if err != nil {
		return "", model.Invalid(msgBadDate)
	}
	end, err := time.Parse(time.DateOnly, d.EndDate)
	if err != nil {
		return "", model.Invalid(msgBadDate)
	}
	if end.Before(start) {
		return "", model.Invalid(msgEndBeforeStart)
	}
	status := d.DemoStatus
	if status == "" {
		status = model.DemoInUse
	}
	if !status.Valid() {
		return "", model.Invalid(msgDemoStatus)
	}

	id, err := s.sessions.CreateWithDevices(ctx, repository.NewSession{
		HospitalID:     d.HospitalID,
		OwnerProfileID: d.OwnerProfileID,
		StartDate:      start,
		EndDate:        end,
		DeviceIDs:      d.DeviceIDs,
		DemoStatus:     status,
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("demo session created",
		zap.String("session_id", id), zap.String("hospital_id", d.HospitalID), zap.Int("devices", len(d.DeviceIDs)))

	ev := queue.DemoSessionCreatedEvent{
		SessionID:  id,
		HospitalID: d.HospitalID,
		OwnerID:    d.OwnerProfileID,
		StartDate:  d.StartDate,
		EndDate:    d.EndDate,
		DeviceIDs:  d.DeviceIDs,
		DemoStatus: string(status),
		CreatedBy:  createdBy,
	}
	if err := s.events.Publish(ctx, queue.TypeDemoSessionCreated, ev); err != nil {
		s.logger.Warn("demo session event not published", zap.String("session_id", id), zap.Error(err))
	}
	return id, nil
}

// ListSessions returns the sessions under tab for the given day, newest
// first. Past sessions carry their return status.
func (s *DemoService) ListSessions(ctx context.Context, tab model.DemoTab, today time.Time) ([]model.DemoSession, error) {
	all, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.DemoSession, 0, len(all))
	for _, sess := range all {
		if !sess.InTab(tab, today) {
			continue
		}
		if tab == model.TabPast {
			ps := model.ClassifyPast(sess.Devices)
			sess.PastStatus = &ps
		}
		out = append(out, sess)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DemoOverview is the demo summary plus the latest movements.
type DemoOverview struct {
	Summary   model.DemoSummary      `json:"summary"`
	Movements []model.DeviceMovement `json:"movements"`
}

// Overview reads the demo summary and the most recent movements.
func (s *DemoService) Overview(ctx context.Context) (*DemoOverview, error) {
	sum, err := s.summary.Demo(ctx)
	if err != nil {
		return nil, err
	}
	moves, err := s.summary.LatestMovements(ctx, MovementLimit)
	if err != nil {
		return nil, err
	}
	return &DemoOverview{Summary: sum, Movements: moves}, nil
}
