package demo

import (
	"sort"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// Eligible reports whether p may own a demo session: approved, active and
// not an admin.
func Eligible(p model.Profile) bool {
	role, ok := p.Role()
	return ok && p.IsActive() && role != model.RoleAdmin
}

// SplitOwners partitions the eligible profiles into the team of the given
// primary region and everybody else. The region team is its regional
// managers plus the field engineers reporting to them. Both lists are
// sorted by display name.
func SplitOwners(profiles []model.Profile, managers []model.RegionalManager, primaryRegionID string) (primary, other []model.Profile) {
	leads := map[string]bool{}
	if primaryRegionID != "" {
		for _, m := range managers {
			if m.RegionID == primaryRegionID {
				leads[m.UserID] = true
			}
		}
	}
	primary = make([]model.Profile, 0)
	other = make([]model.Profile, 0)
	for _, p := range profiles {
		if !Eligible(p) {
			continue
		}
		if leads[p.UserID] || (p.ManagerID != nil && leads[*p.ManagerID]) {
			primary = append(primary, p)
		} else {
			other = append(other, p)
		}
	}
	byName(primary)
	byName(other)
	return primary, other
}

func byName(ps []model.Profile) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].DisplayName() < ps[j].DisplayName() })
}
