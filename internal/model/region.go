package model

import (
	"sort"
	"time"
)

// Region is a node of the two level region tree. Primary regions are
// locked and have no parent; subregions point at a primary.
type Region struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	ParentRegionID *string   `json:"parent_region_id"`
	IsLocked       bool      `json:"is_locked"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsPrimary reports whether r is a locked top level region.
func (r Region) IsPrimary() bool { return r.IsLocked && r.ParentRegionID == nil }

// IsSubregion reports whether r hangs under a primary region.
func (r Region) IsSubregion() bool { return r.ParentRegionID != nil }

// RegionIndex is a lookup of regions by id.
type RegionIndex map[string]Region

// IndexRegions builds a RegionIndex.
func IndexRegions(regions []Region) RegionIndex {
	idx := make(RegionIndex, len(regions))
	for _, r := range regions {
		idx[r.ID] = r
	}
	return idx
}

// SubregionName returns the subregion label for a region id. It is empty
// unless the region exists and has a parent.
func (idx RegionIndex) SubregionName(regionID *string) string {
	if regionID == nil {
		return ""
	}
	r, ok := idx[*regionID]
	if !ok || !r.IsSubregion() {
		return ""
	}
	return r.Name
}

// PrimaryOf resolves a region id to its primary region. A subregion yields
// its parent; a primary yields itself.
func (idx RegionIndex) PrimaryOf(regionID string) (Region, bool) {
	r, ok := idx[regionID]
	if !ok {
		return Region{}, false
	}
	if r.ParentRegionID == nil {
		return r, true
	}
	p, ok := idx[*r.ParentRegionID]
	return p, ok
}

// RegionNode is a primary region with its subregions.
type RegionNode struct {
	Region
	ManagerName *string  `json:"manager_name"`
	Subregions  []Region `json:"subregions"`
}

// BuildRegionTree groups subregions under their locked primary parents.
// Both levels are sorted by name. Subregions whose parent is not a primary
// are dropped.
func BuildRegionTree(regions []Region) []RegionNode {
	nodes := make([]RegionNode, 0)
	pos := map[string]int{}
	for _, r := range regions {
		if r.IsPrimary() {
			pos[r.ID] = len(nodes)
			nodes = append(nodes, RegionNode{Region: r, Subregions: []Region{}})
		}
	}
	for _, r := range regions {
		if !r.IsSubregion() {
			continue
		}
		if i, ok := pos[*r.ParentRegionID]; ok {
			nodes[i].Subregions = append(nodes[i].Subregions, r)
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	for i := range nodes {
		subs := nodes[i].Subregions
		sort.SliceStable(subs, func(a, b int) bool { return subs[a].Name < subs[b].Name })
	}
	return nodes
}
