package model

import "time"

// DemoTab is the timeline bucket a demo session is listed under.
type DemoTab string

const (
	TabOngoing  DemoTab = "ongoing"
	TabUpcoming DemoTab = "upcoming"
	TabPast     DemoTab = "past"
)

// ParseDemoTab maps a query value to a tab. Unknown values fall back to
// ongoing.
func ParseDemoTab(s string) DemoTab {
	switch DemoTab(s) {
	case TabUpcoming:
		return TabUpcoming
	case TabPast:
		return TabPast
	default:
		return TabOngoing
	}
}

// PastStatus summarises where the units of a finished session are.
type PastStatus string

const (
	PastReturned  PastStatus = "Returned"
	PastExpired   PastStatus = "Expired"
	PastInTransit PastStatus = "In Transit"
)

// SessionDevice is a unit attached to a demo session.
type SessionDevice struct {
	ID           string      `json:"id"`
	SerialNumber *string     `json:"serial_number"`
	DemoStatus   *DemoStatus `json:"demo_status"`
}

// DemoSession mirrors demo_sessions with owner, hospital and units resolved.
type DemoSession struct {
	ID             string          `json:"id"`
	HospitalID     string          `json:"hospital_id"`
	HospitalName   *string         `json:"hospital_name"`
	OwnerProfileID *string         `json:"owner_profile_id"`
	OwnerName      *string         `json:"owner_name"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	CreatedAt      time.Time       `json:"created_at"`
	Devices        []SessionDevice `json:"devices"`
	PastStatus     *PastStatus     `json:"past_status,omitempty"`
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDayIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Tab classifies the session relative to today. All three dates are
// compared as calendar days.
func (s DemoSession) Tab(today time.Time) DemoTab {
	t := Day(today)
	start := sameDayIn(s.StartDate, t.Location())
	end := sameDayIn(s.EndDate, t.Location())
	switch {
	case start.After(t):
		return TabUpcoming
	case end.Before(t):
		return TabPast
	default:
		return TabOngoing
	}
}

// InTab reports whether the session belongs under tab for the given day.
func (s DemoSession) InTab(tab DemoTab, today time.Time) bool {
	t := Day(today)
	start := sameDayIn(s.StartDate, t.Location())
	end := sameDayIn(s.EndDate, t.Location())
	switch tab {
	case TabOngoing:
		return !start.After(t) && !end.Before(t)
	case TabUpcoming:
		return start.After(t)
	default:
		return end.Before(t)
	}
}

// ClassifyPast derives the return status of a finished session's units.
// An empty list counts as expired.
func ClassifyPast(devices []SessionDevice) PastStatus {
	if len(devices) == 0 {
		return PastExpired
	}
	allReturned := true
	for _, d := range devices {
		if d.DemoStatus == nil || *d.DemoStatus != DemoReturned {
			allReturned = false
		}
	}
	if allReturned {
		return PastReturned
	}
	for _, d := range devices {
		if d.DemoStatus != nil && *d.DemoStatus == DemoInUse {
			return PastExpired
		}
	}
	return PastInTransit
}
