package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// VoteResult reports the outcome of a toggle.
type VoteResult struct {
	Voted         bool
	VoteCount     int
	PriorityScore int
}

// VoteService implements the community voting feedback loop: each active vote
// is worth votePriorityStep points of priority, symmetrically applied on vote
// and un-vote, clamped to [0,100] by the store.
type VoteService struct {
	issues     repository.IssueRepository
	votes      repository.VoteRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewVoteService constructs the service.
func NewVoteService(issues repository.IssueRepository, votes repository.VoteRepository, dispatcher events.Dispatcher, logger *zap.Logger) *VoteService {
	return &VoteService{issues: issues, votes: votes, dispatcher: dispatcher, logger: logger}
}

// ToggleVote flips the caller's vote on an issue. Two concurrent toggles from
// the same user can both observe "no vote"; the unique (issue, user) pair in
// the store turns the losing insert into a no-op and the score is only
// adjusted for the winner.
func (s *VoteService) ToggleVote(ctx context.Context, issueID, userID string) (*VoteResult, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}

	voted, err := s.votes.Exists(ctx, issueID, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	score := issue.PriorityScore
	if voted {
		removed, err := s.votes.Delete(ctx, issueID, userID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if removed {
			if score, err = s.issues.AdjustPriorityScore(ctx, issueID, -votePriorityStep); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
		voted = false
	} else {
		inserted, err := s.votes.Insert(ctx, issueID, userID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if inserted {
			if score, err = s.issues.AdjustPriorityScore(ctx, issueID, votePriorityStep); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
		voted = true
	}

	// Display counts are always a fresh aggregate, never cached.
	count, err := s.votes.CountByIssue(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueVoted,
		IssueID: issueID,
		ActorID: userID,
		Payload: events.IssueVotedPayload{
			Voted:         voted,
			VoteCount:     count,
			PriorityScore: score,
		},
	})

	return &VoteResult{Voted: voted, VoteCount: count, PriorityScore: score}, nil
}

// VoteCount returns the fresh aggregate for an issue.
func (s *VoteService) VoteCount(ctx context.Context, issueID string) (int, error) {
	count, err := s.votes.CountByIssue(ctx, issueID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// VotedIssueIDs returns the issues the user currently has a vote on.
func (s *VoteService) VotedIssueIDs(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := s.votes.ListIssueIDsForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
