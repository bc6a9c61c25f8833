package demo

import (
	"sort"
	"strings"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// GlobalSearchLimit caps the serial search that ignores the model filter.
const GlobalSearchLimit = 10

// Available keeps the demo units whose demo status is exactly AVAILABLE,
// sorted by serial number.
func Available(devices []model.Device) []model.Device {
	out := make([]model.Device, 0, len(devices))
	for _, d := range devices {
		if d.IsAvailableDemo() {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SerialNumber < out[j].SerialNumber })
	return out
}

// Candidates narrows the available units to one model and then to serials
// containing query, ignoring case. Without a model there are no candidates.
func Candidates(devices []model.Device, modelID, query string) []model.Device {
	if modelID == "" {
		return []model.Device{}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Device, 0)
	for _, d := range Available(devices) {
		if d.DeviceModelID != modelID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(d.SerialNumber), q) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// GlobalMatches searches every available unit by serial regardless of the
// selected model. A blank query yields nothing.
func GlobalMatches(devices []model.Device, query string) []model.Device {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Device, 0)
	if q == "" {
		return out
	}
	for _, d := range Available(devices) {
		if strings.Contains(strings.ToLower(d.SerialNumber), q) {
			out = append(out, d)
			if len(out) == GlobalSearchLimit {
				break
			}
		}
	}
	return out
}

// Highlighted returns the ids of candidates that currently sit at another
// hospital in the same subregion as the target. subregionOf maps a
// hospital id to its subregion name, empty when it has none. The result
// is advisory and never filters the candidate list.
func Highlighted(candidates []model.Device, targetHospitalID string, subregionOf map[string]string) map[string]bool {
	out := map[string]bool{}
	target := subregionOf[targetHospitalID]
	if targetHospitalID == "" || target == "" {
		return out
	}
	for _, d := range candidates {
		if d.Type != model.LocationHospital || d.HospitalID == nil {
			continue
		}
		at := *d.HospitalID
		if at == targetHospitalID {
			continue
		}
		if subregionOf[at] == target {
			out[d.ID] = true
		}
	}
	return out
}
