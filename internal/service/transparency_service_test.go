package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func TestTransparencyService_Metrics(t *testing.T) {
	ctx := context.Background()

	submitted := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	resolved := submitted.AddDate(0, 0, 4)
	deptID := "dept-1"

	resolvedIssue := &domain.Issue{
		ID:                   "issue-1",
		Title:                "Overflowing bin",
		Category:             domain.CategoryWaste,
		Status:               domain.IssueStatusResolved,
		SubmittedBy:          "u1",
		AssignedToDepartment: &deptID,
		SubmittedAt:          submitted,
		ResolvedAt:           &resolved,
	}
	openIssue := &domain.Issue{
		ID:          "issue-2",
		Title:       "Pothole",
		Category:    domain.CategoryRoad,
		Status:      domain.IssueStatusSubmitted,
		SubmittedBy: "u2",
		SubmittedAt: submitted,
	}

	issues := newFakeIssueRepo(resolvedIssue, openIssue)
	depts := newFakeDepartmentRepo(&domain.Department{ID: deptID, Name: "Waste Management", TransparencyScore: 72})
	feedback := &fakeFeedbackRepo{}
	require.NoError(t, feedback.Create(ctx, &domain.Feedback{IssueID: "issue-1", UserID: "u1", Rating: 4}))

	svc := NewTransparencyService(issues, depts, feedback, nil, zap.NewNop())

	metrics, err := svc.Metrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.TotalIssues)
	assert.Equal(t, 1, metrics.ResolvedIssues)
	assert.InDelta(t, 4, metrics.AvgResolutionDays, 0.01)
	// One rating of 4 out of 5 -> 80.
	assert.Equal(t, 80, metrics.CityTrustScore)

	require.Len(t, metrics.Categories, 2)
	byCategory := map[domain.IssueCategory]CategoryStats{}
	for _, stats := range metrics.Categories {
		byCategory[stats.Category] = stats
	}
	assert.Equal(t, 1, byCategory[domain.CategoryWaste].Resolved)
	assert.Equal(t, 0, byCategory[domain.CategoryRoad].Resolved)

	require.Len(t, metrics.Departments, 1)
	dept := metrics.Departments[0]
	assert.Equal(t, "Waste Management", dept.Name)
	assert.Equal(t, 1, dept.IssueCount)
	assert.Equal(t, 1, dept.ResolvedCount)
	assert.InDelta(t, 4.0, dept.AvgFeedback, 0.01)
}

func TestTransparencyService_EmptyCity(t *testing.T) {
	svc := NewTransparencyService(newFakeIssueRepo(), newFakeDepartmentRepo(), &fakeFeedbackRepo{}, nil, zap.NewNop())

	metrics, err := svc.Metrics(context.Background())
	require.NoError(t, err)

	assert.Zero(t, metrics.TotalIssues)
	assert.Zero(t, metrics.ResolvedIssues)
	assert.Zero(t, metrics.AvgResolutionDays)
	assert.Zero(t, metrics.CityTrustScore)
}
