package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

type issueFixture struct {
	svc      *IssueService
	issues   *fakeIssueRepo
	votes    *fakeVoteRepo
	timeline *fakeTimelineRepo
	feedback *fakeFeedbackRepo
	profiles *fakeProfileRepo
}

func newIssueFixture(issues ...*domain.Issue) *issueFixture {
	fx := &issueFixture{
		issues:   newFakeIssueRepo(issues...),
		votes:    newFakeVoteRepo(),
		timeline: &fakeTimelineRepo{},
		feedback: &fakeFeedbackRepo{},
		profiles: newFakeProfileRepo(
			&domain.Profile{ID: "officer-1", FullName: "Pat Officer", Email: "pat@example.com", Role: domain.RoleOfficer},
			&domain.Profile{ID: "citizen-1", FullName: "Sam Citizen", Email: "sam@example.com", Role: domain.RoleCitizen},
		),
	}
	fx.svc = NewIssueService(IssueDependencies{
		IssueRepo:    fx.issues,
		VoteRepo:     fx.votes,
		FeedbackRepo: fx.feedback,
		TimelineRepo: fx.timeline,
		ProfileRepo:  fx.profiles,
		Dispatcher:   events.NewInMemoryDispatcher(),
		Logger:       zap.NewNop(),
	})
	return fx
}

func officerProfile() *domain.Profile {
	return &domain.Profile{ID: "officer-1", Role: domain.RoleOfficer}
}

func TestIssueService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("new issues start submitted at the neutral score", func(t *testing.T) {
		fx := newIssueFixture()

		issue, err := fx.svc.Submit(ctx, "citizen-1", IssueCreateInput{
			Title:       "Broken street light",
			Description: "Dark corner near the school",
			Category:    domain.CategorySafety,
			Latitude:    12.97,
			Longitude:   77.59,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.IssueStatusSubmitted, issue.Status)
		assert.Equal(t, 50, issue.PriorityScore)
		assert.Equal(t, "citizen-1", issue.SubmittedBy)
		assert.NotEmpty(t, issue.ID)

		entries, err := fx.timeline.ListByIssue(ctx, issue.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.IssueStatusSubmitted, entries[0].Status)
	})

	t.Run("blank fields are rejected", func(t *testing.T) {
		fx := newIssueFixture()

		_, err := fx.svc.Submit(ctx, "citizen-1", IssueCreateInput{Title: "   ", Description: "x", Category: domain.CategoryRoad})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})
}

func TestIssueService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("full lifecycle sets each milestone timestamp once", func(t *testing.T) {
		fx := newIssueFixture(potholeIssue())
		officer := officerProfile()

		issue, err := fx.svc.UpdateStatus(ctx, officer, "issue-1", domain.IssueStatusAcknowledged, "")
		require.NoError(t, err)
		require.NotNil(t, issue.AcknowledgedAt)
		firstAck := *issue.AcknowledgedAt

		issue, err = fx.svc.UpdateStatus(ctx, officer, "issue-1", domain.IssueStatusInProgress, "")
		require.NoError(t, err)

		issue, err = fx.svc.UpdateStatus(ctx, officer, "issue-1", domain.IssueStatusResolved, "patched the surface")
		require.NoError(t, err)
		require.NotNil(t, issue.ResolvedAt)
		require.NotNil(t, issue.ResolutionNotes)
		assert.Equal(t, "patched the surface", *issue.ResolutionNotes)

		// Reopen and re-resolve: the original timestamp survives.
		firstResolved := *issue.ResolvedAt
		issue, err = fx.svc.UpdateStatus(ctx, officer, "issue-1", domain.IssueStatusInProgress, "")
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
		issue, err = fx.svc.UpdateStatus(ctx, officer, "issue-1", domain.IssueStatusResolved, "")
		require.NoError(t, err)
		assert.Equal(t, firstResolved, *issue.ResolvedAt)
		assert.Equal(t, firstAck, *issue.AcknowledgedAt)

		issue, err = fx.svc.UpdateStatus(ctx, officer, "issue-1", domain.IssueStatusClosed, "")
		require.NoError(t, err)
		require.NotNil(t, issue.ClosedAt)
	})

	t.Run("invalid transitions are rejected", func(t *testing.T) {
		fx := newIssueFixture(potholeIssue())

		_, err := fx.svc.UpdateStatus(ctx, officerProfile(), "issue-1", domain.IssueStatusClosed, "")
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})

	t.Run("closed is terminal", func(t *testing.T) {
		issue := potholeIssue()
		issue.Status = domain.IssueStatusClosed
		fx := newIssueFixture(issue)

		_, err := fx.svc.UpdateStatus(ctx, officerProfile(), "issue-1", domain.IssueStatusInProgress, "")
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})

	t.Run("status changes append to the timeline", func(t *testing.T) {
		fx := newIssueFixture(potholeIssue())

		_, err := fx.svc.UpdateStatus(ctx, officerProfile(), "issue-1", domain.IssueStatusAcknowledged, "on it")
		require.NoError(t, err)

		entries, err := fx.timeline.ListByIssue(ctx, "issue-1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.IssueStatusAcknowledged, entries[0].Status)
		require.NotNil(t, entries[0].Notes)
		assert.Equal(t, "on it", *entries[0].Notes)
	})
}

func TestIssueService_AssignOfficer(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns an officer", func(t *testing.T) {
		fx := newIssueFixture(potholeIssue())

		issue, err := fx.svc.AssignOfficer(ctx, officerProfile(), "issue-1", "officer-1")
		require.NoError(t, err)
		require.NotNil(t, issue.AssignedToOfficer)
		assert.Equal(t, "officer-1", *issue.AssignedToOfficer)
	})

	t.Run("rejects citizens as assignees", func(t *testing.T) {
		fx := newIssueFixture(potholeIssue())

		_, err := fx.svc.AssignOfficer(ctx, officerProfile(), "issue-1", "citizen-1")
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})
}

func TestIssueService_Escalate(t *testing.T) {
	ctx := context.Background()

	t.Run("sets the escalation flag once", func(t *testing.T) {
		fx := newIssueFixture(potholeIssue())

		issue, err := fx.svc.Escalate(ctx, "admin-1", "issue-1", "stale")
		require.NoError(t, err)
		assert.True(t, issue.Escalated)
		require.NotNil(t, issue.EscalatedAt)
		first := *issue.EscalatedAt

		time.Sleep(time.Millisecond)
		issue, err = fx.svc.Escalate(ctx, "admin-1", "issue-1", "still stale")
		require.NoError(t, err)
		assert.Equal(t, first, *issue.EscalatedAt)
	})
}

func TestIssueService_AddFeedback(t *testing.T) {
	ctx := context.Background()

	t.Run("feedback requires a resolved issue", func(t *testing.T) {
		fx := newIssueFixture(potholeIssue())

		_, err := fx.svc.AddFeedback(ctx, "citizen-1", "issue-1", 4, "thanks")
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})

	t.Run("records a rating on a resolved issue", func(t *testing.T) {
		issue := potholeIssue()
		issue.Status = domain.IssueStatusResolved
		fx := newIssueFixture(issue)

		fb, err := fx.svc.AddFeedback(ctx, "citizen-1", "issue-1", 5, "quick fix")
		require.NoError(t, err)
		assert.Equal(t, 5, fb.Rating)
		require.NotNil(t, fb.Comment)
		assert.Equal(t, "quick fix", *fb.Comment)
	})

	t.Run("rating bounds are enforced", func(t *testing.T) {
		issue := potholeIssue()
		issue.Status = domain.IssueStatusResolved
		fx := newIssueFixture(issue)

		for _, rating := range []int{0, 6, -1} {
			_, err := fx.svc.AddFeedback(ctx, "citizen-1", "issue-1", rating, "")
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
		}
	})
}

func TestIssueService_ListNear(t *testing.T) {
	ctx := context.Background()

	near := potholeIssue()
	near.Latitude = 12.97
	near.Longitude = 77.59

	far := potholeIssue()
	far.ID = "issue-2"
	far.Latitude = 13.50
	far.Longitude = 78.50

	fx := newIssueFixture(near, far)

	issues, err := fx.svc.ListNear(ctx, 12.97, 77.59, 2, 50)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "issue-1", issues[0].ID)
}

func TestIssueService_Get(t *testing.T) {
	ctx := context.Background()
	fx := newIssueFixture(potholeIssue())

	_, err := fx.votes.Insert(ctx, "issue-1", "citizen-1")
	require.NoError(t, err)

	t.Run("includes caller vote state", func(t *testing.T) {
		detail, err := fx.svc.Get(ctx, "issue-1", "citizen-1")
		require.NoError(t, err)
		assert.Equal(t, 1, detail.VoteCount)
		assert.True(t, detail.UserVoted)
	})

	t.Run("anonymous callers see counts only", func(t *testing.T) {
		detail, err := fx.svc.Get(ctx, "issue-1", "")
		require.NoError(t, err)
		assert.Equal(t, 1, detail.VoteCount)
		assert.False(t, detail.UserVoted)
	})
}

func TestIssueService_AttachPhoto(t *testing.T) {
	ctx := context.Background()
	fx := newIssueFixture(potholeIssue())

	_, err := fx.svc.AttachPhoto(ctx, "user-1", "issue-1", "pothole.jpg", "image/jpeg", nil)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}
