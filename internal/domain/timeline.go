package domain

import "time"

// TimelineEntry is an immutable record of a status change on an issue.
type TimelineEntry struct {
	ID        string
	IssueID   string
	Status    IssueStatus
	Notes     *string
	UpdatedBy *string
	CreatedAt time.Time
}
