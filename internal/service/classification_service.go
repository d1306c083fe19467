package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/ai"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/observability"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// Deterministic base priority per severity grade.
var severityBaseScores = map[domain.Severity]int{
	domain.SeverityLow:    30,
	domain.SeverityMedium: 50,
	domain.SeverityHigh:   80,
}

// votePriorityStep is the single source of truth for how much one community
// vote is worth, both in the classification bonus and the toggle adjustment.
const votePriorityStep = 5

const (
	defaultPriorityScore = 50
	maxPriorityScore     = 100
)

// categoryDepartments maps citizen categories to responsible departments when
// the backend suggests none.
var categoryDepartments = map[domain.IssueCategory]string{
	domain.CategoryRoad:        "Roads & Transport",
	domain.CategorySanitation:  "Sanitation",
	domain.CategoryWater:       "Water Supply",
	domain.CategorySafety:      "Public Safety",
	domain.CategoryElectricity: "Electricity",
	domain.CategoryWaste:       "Waste Management",
}

const fallbackDepartment = "General"

// ClassificationResult is what Classify returns to the caller.
type ClassificationResult struct {
	Category      domain.IssueCategory
	Severity      domain.Severity
	Department    string
	PriorityScore int
	Suggestions   map[string]any
	FromAI        bool
}

// classification carries the per-stage pipeline state: each stage produces a
// new value instead of mutating shared locals.
type classification struct {
	severity    domain.Severity
	department  string
	suggestions map[string]any
}

// ClassificationService assigns severity, responsible department and a
// priority score to a submitted issue. The AI backend is optional; every
// failure on that path degrades to the deterministic defaults and is never
// surfaced to the caller.
type ClassificationService struct {
	issues      repository.IssueRepository
	votes       repository.VoteRepository
	departments repository.DepartmentRepository
	backend     ai.Backend
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// ClassificationDependencies bundles requirements for the service.
type ClassificationDependencies struct {
	IssueRepo      repository.IssueRepository
	VoteRepo       repository.VoteRepository
	DepartmentRepo repository.DepartmentRepository
	Backend        ai.Backend
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewClassificationService constructs the service. Backend may be nil.
func NewClassificationService(deps ClassificationDependencies) *ClassificationService {
	return &ClassificationService{
		issues:      deps.IssueRepo,
		votes:       deps.VoteRepo,
		departments: deps.DepartmentRepo,
		backend:     deps.Backend,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// Classify runs the full pipeline for an issue and persists the outcome in a
// single update. The issue must exist; everything past that never fails the
// caller except a broken issue lookup.
func (s *ClassificationService) Classify(ctx context.Context, issueID, title, description string, category domain.IssueCategory) (*ClassificationResult, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}

	// Callers may omit text fields; the stored issue is the fallback.
	if title == "" {
		title = issue.Title
	}
	if description == "" {
		description = issue.Description
	}
	if category == "" {
		category = issue.Category
	}

	defaults := defaultClassification()
	enriched, fromAI := s.enrich(ctx, defaults, title, description, category)

	score := s.scoreIssue(ctx, issueID, enriched.severity)
	department := resolveDepartment(enriched.department, category)

	var departmentID *string
	if dept, err := s.departments.GetByName(ctx, department); err == nil {
		departmentID = &dept.ID
	} else if !errors.Is(err, pgx.ErrNoRows) {
		s.logger.Warn("department lookup failed", zap.String("department", department), zap.Error(err))
	}

	detected := string(category)
	issue.AIDetectedCategory = &detected
	severity := enriched.severity
	issue.AISeverity = &severity
	issue.AISuggestedDepartment = &department
	issue.AISuggestions = enriched.suggestions
	issue.PriorityScore = score
	issue.AssignedToDepartment = departmentID

	// Persistence failures are logged, not returned: the caller still gets
	// a classification even if the stored copy is stale.
	if err := s.issues.UpdateClassification(ctx, issue); err != nil {
		s.logger.Error("persist classification", zap.String("issue_id", issueID), zap.Error(err))
	}

	source := "fallback"
	if fromAI {
		source = "ai"
	}
	s.metrics.RecordClassification(source)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueClassified,
		IssueID: issueID,
		Payload: events.IssueClassifiedPayload{
			Severity:      severity,
			Department:    department,
			PriorityScore: score,
			FromAI:        fromAI,
		},
	})

	return &ClassificationResult{
		Category:      category,
		Severity:      severity,
		Department:    department,
		PriorityScore: score,
		Suggestions:   enriched.suggestions,
		FromAI:        fromAI,
	}, nil
}

func defaultClassification() classification {
	return classification{
		severity:    domain.SeverityMedium,
		department:  "",
		suggestions: map[string]any{},
	}
}

// enrich consults the backend when configured and merges the parsed payload
// over the defaults. Any failure keeps the defaults.
func (s *ClassificationService) enrich(ctx context.Context, defaults classification, title, description string, category domain.IssueCategory) (classification, bool) {
	if s.backend == nil {
		return defaults, false
	}

	raw, err := s.backend.Generate(ctx, buildPrompt(title, description, category))
	if err != nil {
		s.logger.Warn("ai backend call failed", zap.Error(err))
		return defaults, false
	}

	parsed, err := ai.ExtractClassification(raw)
	if err != nil {
		s.logger.Warn("ai response unparseable", zap.Error(err))
		return defaults, false
	}

	return mergeWithDefaults(parsed, defaults), true
}

// mergeWithDefaults overlays parsed fields on the defaults, keeping a default
// wherever the model left a field out or produced garbage. The AI-suggested
// priorityScore is intentionally not merged: the final score is always the
// deterministic base plus the vote bonus.
func mergeWithDefaults(parsed ai.Classification, defaults classification) classification {
	merged := defaults
	if sev := domain.Severity(parsed.Severity); sev.Valid() {
		merged.severity = sev
	}
	if parsed.Department != "" {
		merged.department = parsed.Department
	}
	if parsed.Suggestions != nil {
		merged.suggestions = parsed.Suggestions
	}
	return merged
}

// scoreIssue computes min(100, base[severity] + votes*step). A vote-count
// read failure degrades to a zero bonus.
func (s *ClassificationService) scoreIssue(ctx context.Context, issueID string, severity domain.Severity) int {
	base, ok := severityBaseScores[severity]
	if !ok {
		base = defaultPriorityScore
	}

	voteCount, err := s.votes.CountByIssue(ctx, issueID)
	if err != nil {
		s.logger.Warn("vote count failed", zap.String("issue_id", issueID), zap.Error(err))
		voteCount = 0
	}

	score := base + voteCount*votePriorityStep
	if score > maxPriorityScore {
		score = maxPriorityScore
	}
	return score
}

func resolveDepartment(suggested string, category domain.IssueCategory) string {
	if suggested != "" {
		return suggested
	}
	if name, ok := categoryDepartments[category]; ok {
		return name
	}
	return fallbackDepartment
}

func buildPrompt(title, description string, category domain.IssueCategory) string {
	return fmt.Sprintf(`Analyze the following civic issue and provide:
1. Severity level (low/medium/high)
2. Most appropriate department
3. Priority score (0-100)
4. Brief solution suggestions

Title: %s
Description: %s
Reported Category: %s

Respond in JSON format with keys: severity, department, priorityScore, suggestions`,
		title, description, category)
}
