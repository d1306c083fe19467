package service

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

const (
	transparencyCacheKey = "transparency:metrics"
	transparencyCacheTTL = 5 * time.Minute
)

// CategoryStats is a per-category resolution rollup.
type CategoryStats struct {
	Category domain.IssueCategory `json:"category"`
	Total    int                  `json:"total"`
	Resolved int                  `json:"resolved"`
}

// DepartmentStats is a per-department accountability rollup.
type DepartmentStats struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	TransparencyScore float64 `json:"transparency_score"`
	AvgResolutionDays float64 `json:"avg_resolution_days"`
	IssueCount        int     `json:"issue_count"`
	ResolvedCount     int     `json:"resolved_count"`
	AvgFeedback       float64 `json:"avg_feedback"`
}

// TransparencyMetrics is the public accountability dashboard payload.
type TransparencyMetrics struct {
	TotalIssues       int               `json:"total_issues"`
	ResolvedIssues    int               `json:"resolved_issues"`
	AvgResolutionDays float64           `json:"avg_resolution_days"`
	CityTrustScore    int               `json:"city_trust_score"`
	Categories        []CategoryStats   `json:"categories"`
	Departments       []DepartmentStats `json:"departments"`
	ComputedAt        time.Time         `json:"computed_at"`
}

// TransparencyService computes city-wide accountability metrics. The rollup
// is a full table scan, so results are cached in Redis with a short TTL.
// Vote counts never go through this cache.
type TransparencyService struct {
	issues      repository.IssueRepository
	departments repository.DepartmentRepository
	feedback    repository.FeedbackRepository
	cache       *redis.Client
	logger      *zap.Logger
}

// NewTransparencyService constructs the service. Cache may be nil.
func NewTransparencyService(issues repository.IssueRepository, departments repository.DepartmentRepository, feedback repository.FeedbackRepository, cache *redis.Client, logger *zap.Logger) *TransparencyService {
	return &TransparencyService{
		issues:      issues,
		departments: departments,
		feedback:    feedback,
		cache:       cache,
		logger:      logger,
	}
}

// Metrics returns the dashboard payload, from cache when fresh.
func (s *TransparencyService) Metrics(ctx context.Context) (*TransparencyMetrics, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	metrics, err := s.compute(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.toCache(ctx, metrics)
	return metrics, nil
}

func (s *TransparencyService) compute(ctx context.Context) (*TransparencyMetrics, error) {
	issues, err := s.issues.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, err
	}
	feedbacks, err := s.feedback.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	metrics := &TransparencyMetrics{
		TotalIssues: len(issues),
		ComputedAt:  time.Now(),
	}

	var resolutionDays float64
	var resolutionSamples int
	categoryCounts := map[domain.IssueCategory]*CategoryStats{}
	deptIssues := map[string][]*domain.Issue{}

	for i := range issues {
		issue := &issues[i]
		stats, ok := categoryCounts[issue.Category]
		if !ok {
			stats = &CategoryStats{Category: issue.Category}
			categoryCounts[issue.Category] = stats
		}
		stats.Total++

		if issue.Resolved() {
			metrics.ResolvedIssues++
			stats.Resolved++
			if issue.ResolvedAt != nil {
				resolutionDays += issue.ResolvedAt.Sub(issue.SubmittedAt).Hours() / 24
				resolutionSamples++
			}
		}
		if issue.AssignedToDepartment != nil {
			deptIssues[*issue.AssignedToDepartment] = append(deptIssues[*issue.AssignedToDepartment], issue)
		}
	}
	if resolutionSamples > 0 {
		metrics.AvgResolutionDays = math.Round(resolutionDays / float64(resolutionSamples))
	}

	feedbackByIssue := map[string][]int{}
	var ratingSum, ratingCount int
	for _, fb := range feedbacks {
		feedbackByIssue[fb.IssueID] = append(feedbackByIssue[fb.IssueID], fb.Rating)
		ratingSum += fb.Rating
		ratingCount++
	}
	if ratingCount > 0 {
		avg := float64(ratingSum) / float64(ratingCount)
		metrics.CityTrustScore = int(math.Round(avg / 5 * 100))
	}

	for _, stats := range categoryCounts {
		metrics.Categories = append(metrics.Categories, *stats)
	}

	for _, dept := range departments {
		stats := DepartmentStats{
			ID:                dept.ID,
			Name:              dept.Name,
			TransparencyScore: dept.TransparencyScore,
			AvgResolutionDays: dept.AvgResolutionDays,
		}
		var deptRatingSum, deptRatingCount int
		for _, issue := range deptIssues[dept.ID] {
			stats.IssueCount++
			if issue.Resolved() {
				stats.ResolvedCount++
			}
			for _, rating := range feedbackByIssue[issue.ID] {
				deptRatingSum += rating
				deptRatingCount++
			}
		}
		if deptRatingCount > 0 {
			stats.AvgFeedback = float64(deptRatingSum) / float64(deptRatingCount)
		}
		metrics.Departments = append(metrics.Departments, stats)
	}

	return metrics, nil
}

func (s *TransparencyService) fromCache(ctx context.Context) *TransparencyMetrics {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, transparencyCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("transparency cache read", zap.Error(err))
		}
		return nil
	}
	var metrics TransparencyMetrics
	if err := json.Unmarshal(raw, &metrics); err != nil {
		return nil
	}
	return &metrics
}

func (s *TransparencyService) toCache(ctx context.Context, metrics *TransparencyMetrics) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, transparencyCacheKey, raw, transparencyCacheTTL).Err(); err != nil {
		s.logger.Warn("transparency cache write", zap.Error(err))
	}
}
