package domain

import "time"

// Feedback is a citizen rating left after resolution; ratings roll up into
// the city trust score on the transparency dashboard.
type Feedback struct {
	ID        string
	IssueID   string
	UserID    string
	Rating    int
	Comment   *string
	CreatedAt time.Time
}
