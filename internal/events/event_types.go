package events

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueSubmitted     EventType = "issue_submitted"
	EventIssueClassified    EventType = "issue_classified"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueVoted         EventType = "issue_voted"
	EventIssueEscalated     EventType = "issue_escalated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueSubmittedPayload payload.
type IssueSubmittedPayload struct {
	Category domain.IssueCategory `json:"category"`
	Title    string               `json:"title"`
	Ward     *string              `json:"ward,omitempty"`
}

// IssueClassifiedPayload payload.
type IssueClassifiedPayload struct {
	Severity      domain.Severity `json:"severity"`
	Department    string          `json:"department"`
	PriorityScore int             `json:"priority_score"`
	FromAI        bool            `json:"from_ai"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	Notes     string             `json:"notes,omitempty"`
}

// IssueVotedPayload payload.
type IssueVotedPayload struct {
	Voted         bool `json:"voted"`
	VoteCount     int  `json:"vote_count"`
	PriorityScore int  `json:"priority_score"`
}

// IssueEscalatedPayload payload.
type IssueEscalatedPayload struct {
	Reason string `json:"reason"`
}
