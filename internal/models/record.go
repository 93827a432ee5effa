package models

import "time"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the urgency rank used for ordering: critical sorts first,
// unrecognized severities sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 1
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 4
	default:
		return 5
	}
}

// HighPriority reports whether the severity qualifies for the live view's
// one-shot notification pass.
func (s Severity) HighPriority() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// StatusFound marks a record whose subject has been resolved (person located,
// item returned, incident closed).
const StatusFound = "found"

type Record struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Location    string    `json:"location"`
	AlertType   string    `json:"alert_type"`
	Source      string    `json:"source"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Active      bool      `json:"active"`

	// Optional fields carried by some record shapes.
	ImageURL           string  `json:"image_url,omitempty"`
	Age                int     `json:"age,omitempty"`
	Gender             string  `json:"gender,omitempty"`
	LastSeenDate       string  `json:"last_seen_date,omitempty"`
	Category           string  `json:"category,omitempty"`
	ContactInfo        string  `json:"contact_info,omitempty"`
	Lat                float64 `json:"lat,omitempty"`
	Lng                float64 `json:"lng,omitempty"`
	VolunteersNeeded   int     `json:"volunteers_needed,omitempty"`
	VolunteersAssigned int     `json:"volunteers_assigned,omitempty"`
}

// Less orders records by urgency rank ascending, newest first within the
// same rank.
func (r *Record) Less(other *Record) bool {
	ra, rb := r.Severity.Rank(), other.Severity.Rank()
	if ra != rb {
		return ra < rb
	}
	return r.CreatedAt.After(other.CreatedAt)
}
