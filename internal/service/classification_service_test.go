package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/ai"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/observability"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

func newClassifier(issues *fakeIssueRepo, votes *fakeVoteRepo, depts *fakeDepartmentRepo, backend *fakeBackend) *ClassificationService {
	deps := ClassificationDependencies{
		IssueRepo:      issues,
		VoteRepo:       votes,
		DepartmentRepo: depts,
		Dispatcher:     events.NewInMemoryDispatcher(),
		Metrics:        observability.NewMetrics(),
		Logger:         zap.NewNop(),
	}
	if backend != nil {
		deps.Backend = backend
	}
	return NewClassificationService(deps)
}

func potholeIssue() *domain.Issue {
	return &domain.Issue{
		ID:            "issue-1",
		Title:         "Large pothole on main street",
		Description:   "Deep pothole damaging vehicles near the market junction",
		Category:      domain.CategoryRoad,
		Status:        domain.IssueStatusSubmitted,
		PriorityScore: 50,
		SubmittedBy:   "user-1",
	}
}

func TestClassificationService_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("high severity from backend yields base 80", func(t *testing.T) {
		issues := newFakeIssueRepo(potholeIssue())
		backend := &fakeBackend{response: `{"severity":"high","department":"Roads & Transport","priorityScore":95,"suggestions":{"action":"repair within 48h"}}`}
		svc := newClassifier(issues, newFakeVoteRepo(), newFakeDepartmentRepo(), backend)

		result, err := svc.Classify(ctx, "issue-1", "", "", "")
		require.NoError(t, err)

		assert.Equal(t, domain.SeverityHigh, result.Severity)
		assert.Equal(t, "Roads & Transport", result.Department)
		// Deterministic base only; the backend's own 95 is advisory.
		assert.Equal(t, 80, result.PriorityScore)
		assert.True(t, result.FromAI)
		assert.Equal(t, "repair within 48h", result.Suggestions["action"])
	})

	t.Run("vote bonus is clamped at 100", func(t *testing.T) {
		issues := newFakeIssueRepo(potholeIssue())
		votes := newFakeVoteRepo()
		for i := 0; i < 20; i++ {
			_, err := votes.Insert(ctx, "issue-1", string(rune('a'+i)))
			require.NoError(t, err)
		}
		backend := &fakeBackend{response: `{"severity":"low"}`}
		svc := newClassifier(issues, votes, newFakeDepartmentRepo(), backend)

		result, err := svc.Classify(ctx, "issue-1", "", "", "")
		require.NoError(t, err)

		// low base 30 + 20 votes * 5 = 130, clamped.
		assert.Equal(t, 100, result.PriorityScore)
	})

	t.Run("medium with three votes scores 65", func(t *testing.T) {
		issues := newFakeIssueRepo(potholeIssue())
		votes := newFakeVoteRepo()
		for _, user := range []string{"u1", "u2", "u3"} {
			_, err := votes.Insert(ctx, "issue-1", user)
			require.NoError(t, err)
		}
		svc := newClassifier(issues, votes, newFakeDepartmentRepo(), nil)

		result, err := svc.Classify(ctx, "issue-1", "", "", "")
		require.NoError(t, err)

		assert.Equal(t, domain.SeverityMedium, result.Severity)
		assert.Equal(t, 65, result.PriorityScore)
	})

	t.Run("backend failure falls back to defaults", func(t *testing.T) {
		issues := newFakeIssueRepo(potholeIssue())
		backend := &fakeBackend{err: errors.New("model unavailable")}
		svc := newClassifier(issues, newFakeVoteRepo(), newFakeDepartmentRepo(), backend)

		result, err := svc.Classify(ctx, "issue-1", "", "", "")
		require.NoError(t, err)

		assert.Equal(t, domain.SeverityMedium, result.Severity)
		assert.Equal(t, 50, result.PriorityScore)
		assert.Equal(t, "Roads & Transport", result.Department)
		assert.False(t, result.FromAI)
	})

	t.Run("garbage backend output falls back to defaults", func(t *testing.T) {
		issues := newFakeIssueRepo(potholeIssue())
		backend := &fakeBackend{response: "I could not classify this issue, sorry."}
		svc := newClassifier(issues, newFakeVoteRepo(), newFakeDepartmentRepo(), backend)

		result, err := svc.Classify(ctx, "issue-1", "", "", "")
		require.NoError(t, err)

		assert.Equal(t, domain.SeverityMedium, result.Severity)
		assert.False(t, result.FromAI)
	})

	t.Run("JSON embedded in prose is extracted", func(t *testing.T) {
		issues := newFakeIssueRepo(potholeIssue())
		backend := &fakeBackend{response: "Here is the classification:\n```json\n{\"severity\":\"high\",\"department\":\"Roads & Transport\"}\n```\nLet me know."}
		svc := newClassifier(issues, newFakeVoteRepo(), newFakeDepartmentRepo(), backend)

		result, err := svc.Classify(ctx, "issue-1", "", "", "")
		require.NoError(t, err)

		assert.Equal(t, domain.SeverityHigh, result.Severity)
		assert.True(t, result.FromAI)
	})

	t.Run("unmapped category routes to General", func(t *testing.T) {
		issue := potholeIssue()
		issue.Category = domain.IssueCategory("Parks")
		issues := newFakeIssueRepo(issue)
		svc := newClassifier(issues, newFakeVoteRepo(), newFakeDepartmentRepo(), nil)

		result, err := svc.Classify(ctx, "issue-1", "", "", "")
		require.NoError(t, err)

		assert.Equal(t, "General", result.Department)
	})

	t.Run("department id resolved when one matches by name", func(t *testing.T) {
		issues := newFakeIssueRepo(potholeIssue())
		depts := newFakeDepartmentRepo(&domain.Department{ID: "dept-1", Name: "Roads & Transport"})
		svc := newClassifier(issues, newFakeVoteRepo(), depts, nil)

		_, err := svc.Classify(ctx, "issue-1", "", "", "")
		require.NoError(t, err)

		stored, err := issues.GetByID(ctx, "issue-1")
		require.NoError(t, err)
		require.NotNil(t, stored.AssignedToDepartment)
		assert.Equal(t, "dept-1", *stored.AssignedToDepartment)
	})

	t.Run("classification persists in a single update", func(t *testing.T) {
		issues := newFakeIssueRepo(potholeIssue())
		backend := &fakeBackend{response: `{"severity":"high","department":"Roads & Transport"}`}
		svc := newClassifier(issues, newFakeVoteRepo(), newFakeDepartmentRepo(), backend)

		_, err := svc.Classify(ctx, "issue-1", "", "", "")
		require.NoError(t, err)

		assert.Equal(t, 1, issues.classificationUpdates)

		stored, err := issues.GetByID(ctx, "issue-1")
		require.NoError(t, err)
		require.NotNil(t, stored.AISeverity)
		assert.Equal(t, domain.SeverityHigh, *stored.AISeverity)
		assert.Equal(t, 80, stored.PriorityScore)
	})

	t.Run("missing issue returns not found without mutation", func(t *testing.T) {
		issues := newFakeIssueRepo()
		svc := newClassifier(issues, newFakeVoteRepo(), newFakeDepartmentRepo(), nil)

		_, err := svc.Classify(ctx, "nope", "", "", "")
		require.Error(t, err)

		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
		assert.Zero(t, issues.classificationUpdates)
	})

	t.Run("prompt carries the issue text", func(t *testing.T) {
		issues := newFakeIssueRepo(potholeIssue())
		backend := &fakeBackend{response: `{"severity":"medium"}`}
		svc := newClassifier(issues, newFakeVoteRepo(), newFakeDepartmentRepo(), backend)

		_, err := svc.Classify(ctx, "issue-1", "", "", "")
		require.NoError(t, err)

		require.Len(t, backend.prompts, 1)
		assert.Contains(t, backend.prompts[0], "Large pothole on main street")
		assert.Contains(t, backend.prompts[0], "Road")
	})
}

func TestMergeWithDefaults(t *testing.T) {
	t.Run("invalid severity keeps default", func(t *testing.T) {
		parsed, err := ai.ExtractClassification(`{"severity":"catastrophic"}`)
		require.NoError(t, err)
		merged := mergeWithDefaults(parsed, defaultClassification())
		assert.Equal(t, domain.SeverityMedium, merged.severity)
	})

	t.Run("upper case severity is accepted", func(t *testing.T) {
		parsed, err := ai.ExtractClassification(`{"severity":"HIGH"}`)
		require.NoError(t, err)
		merged := mergeWithDefaults(parsed, defaultClassification())
		assert.Equal(t, domain.SeverityHigh, merged.severity)
	})

	t.Run("empty department keeps default for later category mapping", func(t *testing.T) {
		parsed, err := ai.ExtractClassification(`{"severity":"low","department":"  "}`)
		require.NoError(t, err)
		merged := mergeWithDefaults(parsed, defaultClassification())
		assert.Equal(t, "", merged.department)
	})
}
