package model

import (
	"regexp"
	"strings"
)

// POC is a point of contact at a hospital.
type POC struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Hospital mirrors the hospitals table. Subregion is derived from RegionID
// with SubregionName and is never stored.
type Hospital struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	Zone      *string `json:"zone"`
	RegionID  *string `json:"region_id"`
	Subregion *string `json:"subregion"`
	POC       []POC   `json:"poc"`

	DevicesDeployed   int `json:"devices_deployed"`
	EngineersAssigned int `json:"engineers_assigned"`
}

var (
	ErrPOCRequired   = &ValidationError{Message: "At least one point of contact (POC) is required."}
	ErrPOCIncomplete = &ValidationError{Message: "Each POC must have both name and phone number."}
)

// NormalizePOC trims every entry and drops the ones with neither a name nor
// a phone. It fails when nothing is left or when an entry is half filled.
func NormalizePOC(entries []POC) ([]POC, error) {
	out := make([]POC, 0, len(entries))
	for _, e := range entries {
		n := POC{Name: strings.TrimSpace(e.Name), Phone: strings.TrimSpace(e.Phone)}
		if n.Name == "" && n.Phone == "" {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, ErrPOCRequired
	}
	for _, e := range out {
		if e.Name == "" || e.Phone == "" {
			return nil, ErrPOCIncomplete
		}
	}
	return out, nil
}

var trailingPincode = regexp.MustCompile(`(\d{6})\s*$`)

// ComposeAddress joins an address line and pincode the way they are stored.
func ComposeAddress(line, pincode string) string {
	line = strings.TrimSpace(line)
	pincode = strings.TrimSpace(pincode)
	switch {
	case line != "" && pincode != "":
		return line + ", " + pincode
	case line != "":
		return line
	default:
		return pincode
	}
}

// SplitPincode is the inverse of ComposeAddress. A stored address without
// a trailing six digit code comes back unchanged with an empty pincode.
func SplitPincode(address string) (line, pincode string) {
	m := trailingPincode.FindStringSubmatchIndex(address)
	if m == nil {
		return address, ""
	}
	pincode = address[m[2]:m[3]]
	line = strings.TrimRight(address[:m[0]], ", \t")
	return line, pincode
}

// MatchesQuery reports whether q appears in the hospital's name, city, state
// or address, ignoring case. An empty query matches everything.
func (h Hospital) MatchesQuery(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	hay := strings.ToLower(strings.Join([]string{h.Name, deref(h.City), deref(h.State), deref(h.Address)}, " "))
	return strings.Contains(hay, q)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
