package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Category        domain.IssueCategory `json:"category"`
	Latitude        float64              `json:"latitude"`
	Longitude       float64              `json:"longitude"`
	LocationAddress *string              `json:"location_address"`
	Ward            *string              `json:"ward"`
	City            *string              `json:"city"`
}

// IssueSummary response.
type IssueSummary struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Category      domain.IssueCategory `json:"category"`
	Status        domain.IssueStatus   `json:"status"`
	PriorityScore int                  `json:"priority_score"`
	AISeverity    *domain.Severity     `json:"ai_severity"`
	Latitude      float64              `json:"latitude"`
	Longitude     float64              `json:"longitude"`
	Ward          *string              `json:"ward"`
	City          *string              `json:"city"`
	PhotoURL      *string              `json:"photo_url"`
	Escalated     bool                 `json:"escalated"`
	SubmittedAt   time.Time            `json:"submitted_at"`
}

// IssueDetailResponse provides full issue info.
type IssueDetailResponse struct {
	ID                    string                  `json:"id"`
	Title                 string                  `json:"title"`
	Description           string                  `json:"description"`
	Category              domain.IssueCategory    `json:"category"`
	Latitude              float64                 `json:"latitude"`
	Longitude             float64                 `json:"longitude"`
	LocationAddress       *string                 `json:"location_address"`
	Ward                  *string                 `json:"ward"`
	City                  *string                 `json:"city"`
	PhotoURL              *string                 `json:"photo_url"`
	AISeverity            *domain.Severity        `json:"ai_severity"`
	AISuggestedDepartment *string                 `json:"ai_suggested_department"`
	AISuggestions         map[string]any          `json:"ai_suggestions"`
	PriorityScore         int                     `json:"priority_score"`
	Status                domain.IssueStatus      `json:"status"`
	SubmittedBy           string                  `json:"submitted_by"`
	AssignedToDepartment  *string                 `json:"assigned_to_department"`
	AssignedToOfficer     *string                 `json:"assigned_to_officer"`
	ResolutionNotes       *string                 `json:"resolution_notes"`
	SubmittedAt           time.Time               `json:"submitted_at"`
	AcknowledgedAt        *time.Time              `json:"acknowledged_at"`
	ResolvedAt            *time.Time              `json:"resolved_at"`
	ClosedAt              *time.Time              `json:"closed_at"`
	Escalated             bool                    `json:"escalated"`
	EscalatedAt           *time.Time              `json:"escalated_at"`
	VoteCount             int                     `json:"vote_count"`
	UserVoted             bool                    `json:"user_voted"`
	Timeline              []TimelineEntryResponse `json:"timeline"`
}

// TimelineEntryResponse is one lifecycle step of an issue.
type TimelineEntryResponse struct {
	ID        string             `json:"id"`
	Status    domain.IssueStatus `json:"status"`
	Notes     *string            `json:"notes"`
	UpdatedBy *string            `json:"updated_by"`
	CreatedAt time.Time          `json:"created_at"`
}

// VoteResponse reports the outcome of a vote toggle.
type VoteResponse struct {
	Voted         bool `json:"voted"`
	VoteCount     int  `json:"vote_count"`
	PriorityScore int  `json:"priority_score"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.IssueStatus `json:"status"`
	Notes  string             `json:"notes"`
}

// AssignOfficerRequest payload.
type AssignOfficerRequest struct {
	OfficerID string `json:"officer_id"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// CreateFeedbackRequest payload.
type CreateFeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// FeedbackResponse is a recorded citizen rating.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issue_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ClassificationResponse is the enrichment put on a freshly submitted issue.
type ClassificationResponse struct {
	Success       bool                 `json:"success"`
	Category      domain.IssueCategory `json:"category"`
	Severity      domain.Severity      `json:"severity"`
	Department    string               `json:"department"`
	PriorityScore int                  `json:"priorityScore"`
	Suggestions   map[string]any       `json:"suggestions"`
}

// IssueSummaryFromDomain maps an issue to its list representation.
func IssueSummaryFromDomain(issue *domain.Issue) IssueSummary {
	return IssueSummary{
		ID:            issue.ID,
		Title:         issue.Title,
		Category:      issue.Category,
		Status:        issue.Status,
		PriorityScore: issue.PriorityScore,
		AISeverity:    issue.AISeverity,
		Latitude:      issue.Latitude,
		Longitude:     issue.Longitude,
		Ward:          issue.Ward,
		City:          issue.City,
		PhotoURL:      issue.PhotoURL,
		Escalated:     issue.Escalated,
		SubmittedAt:   issue.SubmittedAt,
	}
}

// IssueSummariesFromDomain maps a slice of issues.
func IssueSummariesFromDomain(issues []domain.Issue) []IssueSummary {
	out := make([]IssueSummary, 0, len(issues))
	for i := range issues {
		out = append(out, IssueSummaryFromDomain(&issues[i]))
	}
	return out
}

// IssueDetailFromDomain maps a full issue plus satellite records.
func IssueDetailFromDomain(issue *domain.Issue, voteCount int, userVoted bool, timeline []domain.TimelineEntry) IssueDetailResponse {
	entries := make([]TimelineEntryResponse, 0, len(timeline))
	for _, entry := range timeline {
		entries = append(entries, TimelineEntryResponse{
			ID:        entry.ID,
			Status:    entry.Status,
			Notes:     entry.Notes,
			UpdatedBy: entry.UpdatedBy,
			CreatedAt: entry.CreatedAt,
		})
	}
	return IssueDetailResponse{
		ID:                    issue.ID,
		Title:                 issue.Title,
		Description:           issue.Description,
		Category:              issue.Category,
		Latitude:              issue.Latitude,
		Longitude:             issue.Longitude,
		LocationAddress:       issue.LocationAddress,
		Ward:                  issue.Ward,
		City:                  issue.City,
		PhotoURL:              issue.PhotoURL,
		AISeverity:            issue.AISeverity,
		AISuggestedDepartment: issue.AISuggestedDepartment,
		AISuggestions:         issue.AISuggestions,
		PriorityScore:         issue.PriorityScore,
		Status:                issue.Status,
		SubmittedBy:           issue.SubmittedBy,
		AssignedToDepartment:  issue.AssignedToDepartment,
		AssignedToOfficer:     issue.AssignedToOfficer,
		ResolutionNotes:       issue.ResolutionNotes,
		SubmittedAt:           issue.SubmittedAt,
		AcknowledgedAt:        issue.AcknowledgedAt,
		ResolvedAt:            issue.ResolvedAt,
		ClosedAt:              issue.ClosedAt,
		Escalated:             issue.Escalated,
		EscalatedAt:           issue.EscalatedAt,
		VoteCount:             voteCount,
		UserVoted:             userVoted,
		Timeline:              entries,
	}
}
