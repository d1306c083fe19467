package domain

import "time"

// IssueStatus enumerates lifecycle states for reported issues.
type IssueStatus string

const (
	IssueStatusSubmitted    IssueStatus = "submitted"
	IssueStatusAcknowledged IssueStatus = "acknowledged"
	IssueStatusInProgress   IssueStatus = "in_progress"
	IssueStatusResolved     IssueStatus = "resolved"
	IssueStatusClosed       IssueStatus = "closed"
)

// IssueCategory is the citizen-chosen label on a report. The classifier never
// overrides it, only enriches it.
type IssueCategory string

const (
	CategoryRoad        IssueCategory = "Road"
	CategorySanitation  IssueCategory = "Sanitation"
	CategoryWater       IssueCategory = "Water"
	CategorySafety      IssueCategory = "Safety"
	CategoryElectricity IssueCategory = "Electricity"
	CategoryWaste       IssueCategory = "Waste"
)

// Severity is the low/medium/high grade driving the base priority score.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether the severity is one of the known grades.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Issue is the aggregate root for citizen reports. Votes and department
// assignment are satellite records referencing it by id.
type Issue struct {
	ID                    string
	Title                 string
	Description           string
	Category              IssueCategory
	Latitude              float64
	Longitude             float64
	LocationAddress       *string
	Ward                  *string
	City                  *string
	PhotoURL              *string
	AIDetectedCategory    *string
	AISeverity            *Severity
	AISuggestedDepartment *string
	AISuggestions         map[string]any
	PriorityScore         int
	Status                IssueStatus
	SubmittedBy           string
	AssignedToDepartment  *string
	AssignedToOfficer     *string
	ResolutionNotes       *string
	ResolutionPhotoURL    *string
	SubmittedAt           time.Time
	AcknowledgedAt        *time.Time
	ResolvedAt            *time.Time
	ClosedAt              *time.Time
	Escalated             bool
	EscalatedAt           *time.Time
}

// Resolved reports whether the issue reached a terminal resolved state.
func (i *Issue) Resolved() bool {
	return i.Status == IssueStatusResolved || i.Status == IssueStatusClosed
}
