package domain

import "time"

// Vote marks a user as affected by an issue. The (issue, user) pair is unique
// at the store level; the aggregate count feeds the priority vote bonus.
type Vote struct {
	ID        string
	IssueID   string
	UserID    string
	CreatedAt time.Time
}
