package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/device-ops-dashboard/internal/identity"
	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/queue"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
)

// ProfileStore persists team member profiles.
type ProfileStore interface {
	ProfileLister
	ListReports(ctx context.Context, managerID string) ([]model.Profile, error)
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Upsert(ctx context.Context, p *model.Profile) error
	Delete(ctx context.Context, userID string) error
	Transition(ctx context.Context, userID, decidedBy string,
		fn func(model.ApprovalState) (model.ApprovalState, error)) (*model.Profile, error)
	SetActive(ctx context.Context, userID string, active bool) error
	RemoveRegionalManager(ctx context.Context, userID string) error
	SetManager(ctx context.Context, userID string, managerID *string) error
}

// ManagerRegionStore records which primary region a manager covers.
type ManagerRegionStore interface {
	RegionReader
	AssignManager(ctx context.Context, userID, regionID string) error
}

// IdentityAdmin creates and deletes accounts at the identity provider.
type IdentityAdmin interface {
	CreateUser(ctx context.Context, u identity.NewUser) (string, error)
	DeleteUser(ctx context.Context, userID string) error
}

// DeployedLister lists units placed at hospitals.
type DeployedLister interface {
	ListAtHospitals(ctx context.Context) ([]model.Device, error)
}

// TeamService runs approvals and the team directory.
type TeamService struct {
	profiles    ProfileStore
	regions     ManagerRegionStore
	assignments AssignmentStore
	devices     DeployedLister
	identity    IdentityAdmin
	events      EventPublisher
	logger      *zap.Logger
}

// NewTeamService wires a TeamService.
func NewTeamService(profiles ProfileStore, regions ManagerRegionStore, assignments AssignmentStore, devices DeployedLister,
	idp IdentityAdmin, events EventPublisher, logger *zap.Logger) *TeamService {
	return &TeamService{
		profiles:    profiles,
		regions:     regions,
		assignments: assignments,
		devices:     devices,
		identity:    idp,
		events:      events,
		logger:      logger.Named("team"),
	}
}

// TeamDirectory is the admin team page.
type TeamDirectory struct {
	Managers    []model.Profile            `json:"managers"`
	Profiles    []model.Profile            `json:"profiles"`
	Approved    []model.Profile            `json:"approved"`
	Pending     []model.Profile            `json:"pending"`
	Rejected    []model.Profile            `json:"rejected"`
	Assignments []model.EngineerAssignment `json:"assignments"`
}

// Directory groups every profile by approval state.
func (s *TeamService) Directory(ctx context.Context) (*TeamDirectory, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return nil, err
	}
	d := &TeamDirectory{
		Managers:    []model.Profile{},
		Profiles:    profiles,
		Approved:    []model.Profile{},
		Pending:     []model.Profile{},
		Rejected:    []model.Profile{},
		Assignments: assignments,
	}
	for _, p := range profiles {
		switch p.State.(type) {
		case model.Approved:
			d.Approved = append(d.Approved, p)
			if p.IsRegionalManager && p.IsActive() {
				d.Managers = append(d.Managers, p)
			}
		case model.Pending:
			d.Pending = append(d.Pending, p)
		case model.Rejected:
			d.Rejected = append(d.Rejected, p)
		}
	}
	sort.SliceStable(d.Managers, func(i, j int) bool { return d.Managers[i].DisplayName() < d.Managers[j].DisplayName() })
	sort.SliceStable(d.Pending, func(i, j int) bool { return d.Pending[i].CreatedAt.After(d.Pending[j].CreatedAt) })
	sort.SliceStable(d.Rejected, func(i, j int) bool {
		a, b := d.Rejected[i].DecisionAt, d.Rejected[j].DecisionAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return d, nil
}

// EngineerDetail is a field engineer with the hospitals they cover.
type EngineerDetail struct {
	Profile   model.Profile              `json:"profile"`
	Hospitals []model.EngineerAssignment `json:"hospitals"`
}

// ManagerDetail is a regional manager with their engineers and the number
// of units deployed at each covered hospital.
type ManagerDetail struct {
	Manager      model.Profile    `json:"manager"`
	Engineers    []EngineerDetail `json:"engineers"`
	DeviceCounts map[string]int   `json:"device_counts"`
}

// ManagerDetail resolves a manager's team.
func (s *TeamService) ManagerDetail(ctx context.Context, managerID string) (*ManagerDetail, error) {
	manager, err := s.profiles.Get(ctx, managerID)
	if err != nil {
		return nil, err
	}
	reports, err := s.profiles.ListReports(ctx, managerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(reports))
	for _, p := range reports {
		ids = append(ids, p.UserID)
	}
	assignments := []model.EngineerAssignment{}
	if len(ids) > 0 {
		if assignments, err = s.assignments.ListByEngineers(ctx, ids); err != nil {
			return nil, err
		}
	}
	devices, err := s.devices.ListAtHospitals(ctx)
	if err != nil {
		return nil, err
	}

	byEngineer := map[string][]model.EngineerAssignment{}
	covered := map[string]bool{}
	for _, a := range assignments {
		byEngineer[a.EngineerID] = append(byEngineer[a.EngineerID], a)
		covered[a.HospitalID] = true
	}
	counts := map[string]int{}
	for h := range covered {
		counts[h] = 0
	}
	for _, d := range devices {
		if d.HospitalID != nil && covered[*d.HospitalID] {
			counts[*d.HospitalID]++
		}
	}

	out := &ManagerDetail{Manager: *manager, Engineers: make([]EngineerDetail, 0, len(reports)), DeviceCounts: counts}
	for _, p := range reports {
		hs := byEngineer[p.UserID]
		if hs == nil {
			hs = []model.EngineerAssignment{}
		}
		out.Engineers = append(out.Engineers, EngineerDetail{Profile: p, Hospitals: hs})
	}
	sort.SliceStable(out.Engineers, func(i, j int) bool {
		return out.Engineers[i].Profile.DisplayName() < out.Engineers[j].Profile.DisplayName()
	})
	return out, nil
}

const (
	msgUserID        = "User ID is required."
	msgUserIDRole    = "User ID and role are required."
	msgUserRegion    = "User ID and region are required."
	msgEmailPassword = "Email and password are required."
	msgEmail         = "Enter a valid email address."
	msgMissingFields = "Missing required fields"
	msgManagerRegion = "Regional managers can only cover a primary region."
	msgNotApproved   = "Only active approved members can manage a region."
)

// Approve grants role to a pending or rejected applicant.
func (s *TeamService) Approve(ctx context.Context, userID string, role model.Role, decidedBy string) (*model.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || !role.Valid() {
		return nil, model.Invalid(msgUserIDRole)
	}
	p, err := s.profiles.Transition(ctx, userID, decidedBy, func(st model.ApprovalState) (model.ApprovalState, error) {
		return model.Approve(st, role)
	})
	if err != nil {
		return nil, err
	}
	r := string(role)
	s.decided(ctx, queue.ProfileDecidedEvent{UserID: userID, Decision: "approved", Role: &r, DecidedBy: decidedBy})
	return p, nil
}

// Reject declines a pending applicant.
func (s *TeamService) Reject(ctx context.Context, userID, reason, decidedBy string) (*model.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, model.Invalid(msgUserID)
	}
	why := clean(reason)
	p, err := s.profiles.Transition(ctx, userID, decidedBy, func(st model.ApprovalState) (model.ApprovalState, error) {
		return model.Reject(st, why)
	})
	if err != nil {
		return nil, err
	}
	s.decided(ctx, queue.ProfileDecidedEvent{UserID: userID, Decision: "rejected", Reason: why, DecidedBy: decidedBy})
	return p, nil
}

// Activate re-enables an approved member.
func (s *TeamService) Activate(ctx context.Context, userID, decidedBy string) error {
	return s.setActive(ctx, userID, true, decidedBy)
}

// Deactivate disables an approved member, drops any regional manager role
// and detaches every report, in one transaction.
func (s *TeamService) Deactivate(ctx context.Context, userID, decidedBy string) error {
	return s.setActive(ctx, userID, false, decidedBy)
}

func (s *TeamService) setActive(ctx context.Context, userID string, active bool, decidedBy string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.Invalid(msgUserID)
	}
	if err := s.profiles.SetActive(ctx, userID, active); err != nil {
		return err
	}
	decision := "deactivated"
	if active {
		decision = "activated"
	}
	s.decided(ctx, queue.ProfileDecidedEvent{UserID: userID, Decision: decision, DecidedBy: decidedBy})
	return nil
}

// RemoveRegionalManager demotes a manager and detaches their reports.
func (s *TeamService) RemoveRegionalManager(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.Invalid(msgUserID)
	}
	if err := s.profiles.RemoveRegionalManager(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("regional manager removed", zap.String("user_id", userID))
	return nil
}

// AssignRegionalManager makes an active approved member the manager of a
// primary region.
func (s *TeamService) AssignRegionalManager(ctx context.Context, userID, regionID string) error {
	userID, regionID = strings.TrimSpace(userID), strings.TrimSpace(regionID)
	if userID == "" || regionID == "" {
		return model.Invalid(msgUserRegion)
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !p.IsActive() {
		return model.Invalid(msgNotApproved)
	}
	regions, err := s.regions.List(ctx)
	if err != nil {
		return err
	}
	if r, ok := model.IndexRegions(regions)[regionID]; !ok || !r.IsPrimary() {
		return model.Invalid(msgManagerRegion)
	}
	return s.regions.AssignManager(ctx, userID, regionID)
}

// ProfileForm is the admin edit form of a member.
type ProfileForm struct {
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	ManagerID string `json:"manager_id"`
	IsActive  *bool  `json:"is_active"`
}

// UpsertProfile creates or edits a member. New members are approved field
// engineers; existing ones keep their approval state and only an approved
// member's active flag follows the form.
func (s *TeamService) UpsertProfile(ctx context.Context, f ProfileForm) (*model.Profile, error) {
	f.UserID = strings.TrimSpace(f.UserID)
	if f.UserID == "" {
		return nil, model.Invalid(msgUserID)
	}
	active := f.IsActive == nil || *f.IsActive

	p, err := s.profiles.Get(ctx, f.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		p = &model.Profile{UserID: f.UserID, State: model.Approved{Role: model.RoleFieldEngineer, Active: active}}
	case err != nil:
		return nil, err
	default:
		if a, ok := p.State.(model.Approved); ok {
			a.Active = active
			p.State = a
		}
	}
	p.FullName = clean(f.FullName)
	p.Phone = clean(f.Phone)
	p.ManagerID = clean(f.ManagerID)
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewTeamUser is the admin form that creates an account and its profile.
type NewTeamUser struct {
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	ManagerID string `json:"manager_id"`
	IsActive  *bool  `json:"is_active"`
}

var newTeamUserMessages = map[string]string{
	"Email":    msgEmailPassword,
	"Password": msgEmailPassword,
}

// CreateTeamUser creates a confirmed account at the identity provider and
// an approved field engineer profile for it. When the profile cannot be
// written the account is removed again.
func (s *TeamService) CreateTeamUser(ctx context.Context, u NewTeamUser) (*model.Profile, error) {
	u.Email, u.Password = strings.TrimSpace(u.Email), strings.TrimSpace(u.Password)
	if err := check(u, newTeamUserMessages); err != nil {
		return nil, err
	}
	if err := validate.Var(u.Email, "email"); err != nil {
		return nil, model.Invalid(msgEmail)
	}
	id, err := s.identity.CreateUser(ctx, identity.NewUser{
		Email: u.Email, Password: u.Password, FullName: strings.TrimSpace(u.FullName), Phone: strings.TrimSpace(u.Phone),
	})
	if err != nil {
		return nil, err
	}
	active := u.IsActive == nil || *u.IsActive
	p := &model.Profile{
		UserID:    id,
		FullName:  clean(u.FullName),
		Phone:     clean(u.Phone),
		ManagerID: clean(u.ManagerID),
		State:     model.Approved{Role: model.RoleFieldEngineer, Active: active},
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		if derr := s.identity.DeleteUser(ctx, id); derr != nil {
			s.logger.Error("orphaned identity account", zap.String("user_id", id), zap.Error(derr))
		}
		return nil, err
	}
	s.logger.Info("team user created", zap.String("user_id", id))
	return p, nil
}

// SignUpForm is the public application form.
type SignUpForm struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var signUpMessages = map[string]string{
	"FullName": msgMissingFields,
	"Email":    msgMissingFields,
	"Password": msgMissingFields,
}

// SignUp creates an account and a pending profile awaiting approval.
func (s *TeamService) SignUp(ctx context.Context, f SignUpForm) (*model.Profile, error) {
	f.FullName, f.Email, f.Password = strings.TrimSpace(f.FullName), strings.TrimSpace(f.Email), strings.TrimSpace(f.Password)
	if err := check(f, signUpMessages); err != nil {
		return nil, err
	}
	if err := validate.Var(f.Email, "email"); err != nil {
		return nil, model.Invalid(msgEmail)
	}
	id, err := s.identity.CreateUser(ctx, identity.NewUser{
		Email: f.Email, Password: f.Password, FullName: f.FullName, Phone: strings.TrimSpace(f.Phone),
	})
	if err != nil {
		return nil, err
	}
	p := &model.Profile{UserID: id, FullName: clean(f.FullName), Phone: clean(f.Phone), State: model.Pending{}}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteTeamUser removes the account at the identity provider and then its
// profile. This cannot be undone.
func (s *TeamService) DeleteTeamUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.Invalid(msgUserID)
	}
	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		return err
	}
	if err := s.profiles.Delete(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	s.logger.Info("team user deleted", zap.String("user_id", userID))
	return nil
}

// AssignEngineerHospital links an engineer to a hospital on behalf of
// assignedBy.
func (s *TeamService) AssignEngineerHospital(ctx context.Context, engineerID, hospitalID, assignedBy string) error {
	engineerID, hospitalID = strings.TrimSpace(engineerID), strings.TrimSpace(hospitalID)
	if engineerID == "" || hospitalID == "" {
		return model.Invalid(msgEngineerHospital)
	}
	return s.assignments.Upsert(ctx, engineerID, hospitalID, assignedBy)
}

// RemoveEngineerHospital unlinks an engineer from a hospital.
func (s *TeamService) RemoveEngineerHospital(ctx context.Context, engineerID, hospitalID string) error {
	engineerID, hospitalID = strings.TrimSpace(engineerID), strings.TrimSpace(hospitalID)
	if engineerID == "" || hospitalID == "" {
		return model.Invalid(msgEngineerHospital)
	}
	return s.assignments.Delete(ctx, engineerID, hospitalID)
}

// Profile returns one member, used by the session guard.
func (s *TeamService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

func (s *TeamService) decided(ctx context.Context, ev queue.ProfileDecidedEvent) {
	s.logger.Info("profile decision", zap.String("user_id", ev.UserID), zap.String("decision", ev.Decision))
	if err := s.events.Publish(ctx, queue.TypeProfileDecided, ev); err != nil {
		s.logger.Warn("profile event not published", zap.String("user_id", ev.UserID), zap.Error(err))
	}
}
