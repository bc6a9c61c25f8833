package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role is a team member's role.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleRegionalManager Role = "REGIONAL_MANAGER"
	RoleFieldEngineer   Role = "FIELD_ENGINEER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleRegionalManager || r == RoleFieldEngineer
}

// Dashboard is the landing path for the role.
func (r Role) Dashboard() string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleRegionalManager:
		return "/manager/dashboard"
	default:
		return "/engineer/dashboard"
	}
}

// ApprovalStatus is the stored column value of an ApprovalState.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "PENDING"
	StatusApproved ApprovalStatus = "APPROVED"
	StatusRejected ApprovalStatus = "REJECTED"
)

// ApprovalState is one of Pending, Approved or Rejected. Only an approved
// profile carries a role and an active flag, so a rejected but active
// profile cannot be expressed.
type ApprovalState interface {
	Status() ApprovalStatus
	isApprovalState()
}

// Pending is a signup waiting for an admin decision.
type Pending struct{}

// Approved is a member that may sign in when Active.
type Approved struct {
	Role   Role
	Active bool
}

// Rejected is a declined signup with an optional reason.
type Rejected struct {
	Reason *string
}

func (Pending) Status() ApprovalStatus  { return StatusPending }
func (Approved) Status() ApprovalStatus { return StatusApproved }
func (Rejected) Status() ApprovalStatus { return StatusRejected }

func (Pending) isApprovalState()  {}
func (Approved) isApprovalState() {}
func (Rejected) isApprovalState() {}

// StateFromColumns rebuilds the tagged state from the profiles columns.
// A missing status is treated as approved, which matches rows created
// before approvals existed.
func StateFromColumns(status *string, role *string, active bool, reason *string) (ApprovalState, error) {
	st := StatusApproved
	if status != nil && *status != "" {
		st = ApprovalStatus(*status)
	}
	switch st {
	case StatusPending:
		return Pending{}, nil
	case StatusRejected:
		return Rejected{Reason: reason}, nil
	case StatusApproved:
		r := RoleFieldEngineer
		if role != nil && *role != "" {
			r = Role(*role)
		}
		return Approved{Role: r, Active: active}, nil
	}
	return nil, fmt.Errorf("unknown approval status %q", st)
}

// Columns flattens the state into the stored role, active flag and
// rejection reason. Role is nil unless approved.
func Columns(s ApprovalState) (status ApprovalStatus, role *string, active bool, reason *string) {
	switch v := s.(type) {
	case Approved:
		r := string(v.Role)
		return StatusApproved, &r, v.Active, nil
	case Rejected:
		return StatusRejected, nil, false, v.Reason
	default:
		return StatusPending, nil, false, nil
	}
}

// Profile is a team member record keyed by the identity provider's user id.
type Profile struct {
	UserID            string        `json:"user_id"`
	FullName          *string       `json:"full_name"`
	Phone             *string       `json:"phone"`
	ManagerID         *string       `json:"manager_id"`
	IsRegionalManager bool          `json:"is_regional_manager"`
	State             ApprovalState `json:"-"`
	DecisionBy        *string       `json:"decision_by,omitempty"`
	DecisionAt        *time.Time    `json:"decision_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// Role returns the member's role when approved.
func (p Profile) Role() (Role, bool) {
	if a, ok := p.State.(Approved); ok {
		return a.Role, true
	}
	return "", false
}

// IsActive reports whether the profile is approved and active.
func (p Profile) IsActive() bool {
	a, ok := p.State.(Approved)
	return ok && a.Active
}

// DisplayName is the full name, or the user id when the name is unset.
func (p Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.UserID
}

// Approve moves a pending or rejected profile to approved and active.
func Approve(s ApprovalState, role Role) (ApprovalState, error) {
	if !role.Valid() {
		return nil, Invalid("User ID and role are required.")
	}
	switch s.(type) {
	case Pending, Rejected:
		return Approved{Role: role, Active: true}, nil
	}
	return nil, fmt.Errorf("approve from %s: %w", s.Status(), ErrInvalidTransition)
}

// Reject declines a pending signup.
func Reject(s ApprovalState, reason *string) (ApprovalState, error) {
	if _, ok := s.(Pending); ok {
		return Rejected{Reason: reason}, nil
	}
	return nil, fmt.Errorf("reject from %s: %w", s.Status(), ErrInvalidTransition)
}

// SetActive toggles the active flag of an approved profile.
func SetActive(s ApprovalState, active bool) (ApprovalState, error) {
	a, ok := s.(Approved)
	if !ok {
		return nil, fmt.Errorf("toggle active from %s: %w", s.Status(), ErrInvalidTransition)
	}
	a.Active = active
	return a, nil
}

// profileJSON is the wire form of a Profile.
type profileJSON struct {
	UserID            string         `json:"user_id"`
	FullName          *string        `json:"full_name"`
	Phone             *string        `json:"phone"`
	ManagerID         *string        `json:"manager_id"`
	IsRegionalManager bool           `json:"is_regional_manager"`
	ApprovalStatus    ApprovalStatus `json:"approval_status"`
	Role              *string        `json:"role"`
	IsActive          bool           `json:"is_active"`
	RejectionReason   *string        `json:"rejection_reason,omitempty"`
	DecisionAt        *time.Time     `json:"decision_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// View flattens the profile for JSON responses.
func (p Profile) View() any {
	st, role, active, reason := Columns(p.State)
	return profileJSON{
		UserID:            p.UserID,
		FullName:          p.FullName,
		Phone:             p.Phone,
		ManagerID:         p.ManagerID,
		IsRegionalManager: p.IsRegionalManager,
		ApprovalStatus:    st,
		Role:              role,
		IsActive:          active,
		RejectionReason:   reason,
		DecisionAt:        p.DecisionAt,
		CreatedAt:         p.CreatedAt,
	}
}

// MarshalJSON renders the flattened view.
func (p Profile) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.View())
}
