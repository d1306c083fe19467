package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/storage"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// IssueService coordinates the citizen and officer issue workflows.
type IssueService struct {
	issues     repository.IssueRepository
	votes      repository.VoteRepository
	feedback   repository.FeedbackRepository
	timeline   repository.TimelineRepository
	profiles   repository.ProfileRepository
	photos     storage.PhotoStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IssueDependencies bundles repositories for the issue service.
type IssueDependencies struct {
	IssueRepo    repository.IssueRepository
	VoteRepo     repository.VoteRepository
	FeedbackRepo repository.FeedbackRepository
	TimelineRepo repository.TimelineRepository
	ProfileRepo  repository.ProfileRepository
	Photos       storage.PhotoStore
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// IssueCreateInput describes a citizen submission.
type IssueCreateInput struct {
	Title           string
	Description     string
	Category        domain.IssueCategory
	Latitude        float64
	Longitude       float64
	LocationAddress *string
	Ward            *string
	City            *string
}

// IssueFeedInput describes community feed filters.
type IssueFeedInput struct {
	Statuses   []domain.IssueStatus
	Categories []domain.IssueCategory
	Ward       *string
	City       *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// IssueDetail aggregates an issue with its satellite records.
type IssueDetail struct {
	Issue     *domain.Issue
	VoteCount int
	UserVoted bool
	Timeline  []domain.TimelineEntry
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		issues:     deps.IssueRepo,
		votes:      deps.VoteRepo,
		feedback:   deps.FeedbackRepo,
		timeline:   deps.TimelineRepo,
		profiles:   deps.ProfileRepo,
		photos:     deps.Photos,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Submit records a new issue with neutral defaults; classification runs as a
// separate follow-up call and enriches the record afterwards.
func (s *IssueService) Submit(ctx context.Context, userID string, input IssueCreateInput) (*domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" || input.Category == "" {
		return nil, apperrors.NewValidationError("title, description, category required", nil)
	}

	issue := &domain.Issue{
		Title:           title,
		Description:     description,
		Category:        input.Category,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		LocationAddress: input.LocationAddress,
		Ward:            input.Ward,
		City:            input.City,
		PriorityScore:   defaultPriorityScore,
		Status:          domain.IssueStatusSubmitted,
		SubmittedBy:     userID,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordTimeline(ctx, issue.ID, issue.Status, nil, &userID)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueSubmitted,
		IssueID: issue.ID,
		ActorID: userID,
		Payload: events.IssueSubmittedPayload{
			Category: issue.Category,
			Title:    issue.Title,
			Ward:     issue.Ward,
		},
	})
	return issue, nil
}

// Get returns an issue with vote count, caller vote flag and timeline.
func (s *IssueService) Get(ctx context.Context, issueID, callerID string) (*IssueDetail, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	count, err := s.votes.CountByIssue(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	voted := false
	if callerID != "" {
		if voted, err = s.votes.Exists(ctx, issueID, callerID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	timeline, err := s.timeline.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &IssueDetail{Issue: issue, VoteCount: count, UserVoted: voted, Timeline: timeline}, nil
}

// ListMine returns the caller's submissions, newest first.
func (s *IssueService) ListMine(ctx context.Context, userID string, limit, offset int) ([]domain.Issue, error) {
	issues, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{
		SubmittedBy: &userID,
		OrderBy:     repository.OrderBySubmitted,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListFeed returns the community feed, highest priority first.
func (s *IssueService) ListFeed(ctx context.Context, input IssueFeedInput) ([]domain.Issue, error) {
	issues, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{
		Statuses:   input.Statuses,
		Categories: input.Categories,
		Ward:       input.Ward,
		City:       input.City,
		SearchTerm: input.SearchTerm,
		OrderBy:    repository.OrderByPriority,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListNear returns issues inside a bounding box around a point.
func (s *IssueService) ListNear(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]domain.Issue, error) {
	if radiusKm <= 0 {
		radiusKm = 5
	}
	// Rough degrees-per-km; fine for a city-scale bounding box.
	latDelta := radiusKm / 111.0
	lngDelta := radiusKm / 85.0
	issues, err := s.issues.ListInBounds(ctx, repository.BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: lng - lngDelta,
		MaxLng: lng + lngDelta,
	}, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListQueue returns the officer triage queue, highest priority first.
func (s *IssueService) ListQueue(ctx context.Context, statuses []domain.IssueStatus, limit, offset int) ([]domain.Issue, error) {
	filter := repository.IssueFilter{
		Statuses: statuses,
		OrderBy:  repository.OrderByPriority,
		Limit:    limit,
		Offset:   offset,
	}
	issues, err := s.issues.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

var allowedTransitions = map[domain.IssueStatus][]domain.IssueStatus{
	domain.IssueStatusSubmitted:    {domain.IssueStatusAcknowledged, domain.IssueStatusInProgress},
	domain.IssueStatusAcknowledged: {domain.IssueStatusInProgress, domain.IssueStatusResolved},
	domain.IssueStatusInProgress:   {domain.IssueStatusResolved},
	domain.IssueStatusResolved:     {domain.IssueStatusClosed, domain.IssueStatusInProgress},
	domain.IssueStatusClosed:       {},
}

func isValidTransition(current, next domain.IssueStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// UpdateStatus moves an issue through its lifecycle. Each milestone timestamp
// is set exactly once, the first time its status is reached.
func (s *IssueService) UpdateStatus(ctx context.Context, officer *domain.Profile, issueID string, newStatus domain.IssueStatus, notes string) (*domain.Issue, error) {
	if officer == nil {
		return nil, apperrors.NewUnauthorized("officer required")
	}
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(issue.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": issue.Status,
			"to":   newStatus,
		})
	}

	oldStatus := issue.Status
	now := time.Now()
	issue.Status = newStatus
	switch newStatus {
	case domain.IssueStatusAcknowledged:
		if issue.AcknowledgedAt == nil {
			issue.AcknowledgedAt = &now
		}
	case domain.IssueStatusResolved:
		if issue.ResolvedAt == nil {
			issue.ResolvedAt = &now
		}
	case domain.IssueStatusClosed:
		if issue.ClosedAt == nil {
			issue.ClosedAt = &now
		}
	}
	if trimmed := strings.TrimSpace(notes); trimmed != "" && newStatus == domain.IssueStatusResolved {
		issue.ResolutionNotes = &trimmed
	}

	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	var notesPtr *string
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		notesPtr = &trimmed
	}
	s.recordTimeline(ctx, issue.ID, newStatus, notesPtr, &officer.ID)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueStatusChanged,
		IssueID: issue.ID,
		ActorID: officer.ID,
		Payload: events.IssueStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Notes:     notes,
		},
	})
	return issue, nil
}

// AssignOfficer attaches an officer to an issue.
func (s *IssueService) AssignOfficer(ctx context.Context, actor *domain.Profile, issueID, officerID string) (*domain.Issue, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("officer required")
	}
	assignee, err := s.profiles.GetByID(ctx, officerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"profile_id": officerID})
		}
		return nil, apperrors.MapError(err)
	}
	if assignee.Role != domain.RoleOfficer && assignee.Role != domain.RoleAdmin {
		return nil, apperrors.NewConflict("assignee is not an officer", map[string]any{"profile_id": officerID})
	}

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	issue.AssignedToOfficer = &assignee.ID
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

// Escalate flags an issue for admin attention; the escalation timestamp is
// set once.
func (s *IssueService) Escalate(ctx context.Context, actorID, issueID, reason string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Escalated {
		return issue, nil
	}
	now := time.Now()
	issue.Escalated = true
	issue.EscalatedAt = &now
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueEscalated,
		IssueID: issue.ID,
		ActorID: actorID,
		Payload: events.IssueEscalatedPayload{Reason: reason},
	})
	return issue, nil
}

// AddFeedback records a citizen rating on a resolved issue.
func (s *IssueService) AddFeedback(ctx context.Context, userID, issueID string, rating int, comment string) (*domain.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !issue.Resolved() {
		return nil, apperrors.NewConflict("feedback requires a resolved issue", map[string]any{"status": issue.Status})
	}

	fb := &domain.Feedback{IssueID: issueID, UserID: userID, Rating: rating}
	if trimmed := strings.TrimSpace(comment); trimmed != "" {
		fb.Comment = &trimmed
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, apperrors.MapError(err)
	}
	return fb, nil
}

// AttachPhoto uploads an issue photo and stores its public URL.
func (s *IssueService) AttachPhoto(ctx context.Context, userID, issueID, fileName, contentType string, body io.Reader) (string, error) {
	if s.photos == nil {
		return "", apperrors.NewConflict("photo storage not configured", nil)
	}
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return "", err
	}
	if issue.SubmittedBy != userID {
		return "", apperrors.NewForbidden("only the reporter can attach a photo")
	}

	url, err := s.photos.Upload(ctx, storage.PhotoKey(issueID, fileName), body, contentType)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if err := s.issues.SetPhotoURL(ctx, issueID, url); err != nil {
		return "", apperrors.MapError(err)
	}
	return url, nil
}

func (s *IssueService) getIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

func (s *IssueService) recordTimeline(ctx context.Context, issueID string, status domain.IssueStatus, notes, updatedBy *string) {
	entry := &domain.TimelineEntry{
		IssueID:   issueID,
		Status:    status,
		Notes:     notes,
		UpdatedBy: updatedBy,
	}
	if err := s.timeline.Create(ctx, entry); err != nil {
		s.logger.Warn("record timeline", zap.String("issue_id", issueID), zap.Error(err))
	}
}
