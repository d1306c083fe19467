package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// IssueFilter captures listing parameters.
type IssueFilter struct {
	SubmittedBy  *string
	DepartmentID *string
	OfficerID    *string
	Statuses     []domain.IssueStatus
	Categories   []domain.IssueCategory
	Ward         *string
	City         *string
	Escalated    *bool
	SearchTerm   *string
	SubmittedTo  *time.Time
	OrderBy      IssueOrder
	Limit        int
	Offset       int
}

// IssueOrder selects the sort column for listings.
type IssueOrder string

const (
	OrderByPriority  IssueOrder = "priority"
	OrderBySubmitted IssueOrder = "submitted"
)

// BoundingBox is a lat/lng rectangle for near-me queries.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Update(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	ListInBounds(ctx context.Context, box BoundingBox, limit int) ([]domain.Issue, error)
	ListAll(ctx context.Context) ([]domain.Issue, error)
	UpdateClassification(ctx context.Context, issue *domain.Issue) error
	AdjustPriorityScore(ctx context.Context, id string, delta int) (int, error)
	ListStaleUnresolved(ctx context.Context, olderThan time.Time) ([]domain.Issue, error)
	SetPhotoURL(ctx context.Context, id, url string) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, category, latitude, longitude, location_address,
        ward, city, photo_url, ai_detected_category, ai_severity, ai_suggested_department,
        ai_suggestions, priority_score, status, submitted_by, assigned_to_department,
        assigned_to_officer, resolution_notes, resolution_photo_url, submitted_at,
        acknowledged_at, resolved_at, closed_at, escalated, escalated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (title, description, category, latitude, longitude, location_address,
            ward, city, photo_url, priority_score, status, submitted_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, submitted_at`
	return r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Latitude,
		issue.Longitude,
		issue.LocationAddress,
		issue.Ward,
		issue.City,
		issue.PhotoURL,
		issue.PriorityScore,
		issue.Status,
		issue.SubmittedBy,
	).Scan(&issue.ID, &issue.SubmittedAt)
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET status=$1, assigned_to_department=$2, assigned_to_officer=$3,
            resolution_notes=$4, resolution_photo_url=$5, acknowledged_at=$6, resolved_at=$7,
            closed_at=$8, escalated=$9, escalated_at=$10, priority_score=$11
        WHERE id=$12`
	cmd, err := r.pool.Exec(ctx, query,
		issue.Status,
		issue.AssignedToDepartment,
		issue.AssignedToOfficer,
		issue.ResolutionNotes,
		issue.ResolutionPhotoURL,
		issue.AcknowledgedAt,
		issue.ResolvedAt,
		issue.ClosedAt,
		issue.Escalated,
		issue.EscalatedAt,
		issue.PriorityScore,
		issue.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateClassification persists only the classifier-owned fields; it is the
// single write the classification pipeline performs.
func (r *issueRepository) UpdateClassification(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET ai_detected_category=$1, ai_severity=$2, ai_suggested_department=$3,
            ai_suggestions=$4, priority_score=$5, assigned_to_department=$6
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		issue.AIDetectedCategory,
		issue.AISeverity,
		issue.AISuggestedDepartment,
		issue.AISuggestions,
		issue.PriorityScore,
		issue.AssignedToDepartment,
		issue.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AdjustPriorityScore atomically shifts the score, clamped to [0,100], and
// returns the new value.
func (r *issueRepository) AdjustPriorityScore(ctx context.Context, id string, delta int) (int, error) {
	const query = `
        UPDATE issues SET priority_score = LEAST(100, GREATEST(0, priority_score + $1))
        WHERE id=$2
        RETURNING priority_score`
	var score int
	if err := r.pool.QueryRow(ctx, query, delta, id).Scan(&score); err != nil {
		return 0, err
	}
	return score, nil
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &issues[0], nil
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmittedBy != nil {
		args = append(args, *filter.SubmittedBy)
		clauses = append(clauses, fmt.Sprintf("submitted_by=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_department=$%d", len(args)))
	}
	if filter.OfficerID != nil {
		args = append(args, *filter.OfficerID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_officer=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Ward != nil {
		args = append(args, *filter.Ward)
		clauses = append(clauses, fmt.Sprintf("ward=$%d", len(args)))
	}
	if filter.City != nil {
		args = append(args, *filter.City)
		clauses = append(clauses, fmt.Sprintf("city=$%d", len(args)))
	}
	if filter.Escalated != nil {
		args = append(args, *filter.Escalated)
		clauses = append(clauses, fmt.Sprintf("escalated=$%d", len(args)))
	}
	if filter.SubmittedTo != nil {
		args = append(args, *filter.SubmittedTo)
		clauses = append(clauses, fmt.Sprintf("submitted_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	order := "priority_score DESC, submitted_at DESC"
	if filter.OrderBy == OrderBySubmitted {
		order = "submitted_at DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		issueColumns, strings.Join(clauses, " AND "), order, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) ListInBounds(ctx context.Context, box BoundingBox, limit int) ([]domain.Issue, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
        SELECT %s FROM issues
        WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4
        ORDER BY priority_score DESC LIMIT %d`, issueColumns, limit)
	rows, err := r.pool.Query(ctx, query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

// ListAll returns every issue; used by the transparency aggregator.
func (r *issueRepository) ListAll(ctx context.Context) ([]domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues`, issueColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) ListStaleUnresolved(ctx context.Context, olderThan time.Time) ([]domain.Issue, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM issues
        WHERE escalated = FALSE AND status NOT IN ('resolved','closed') AND submitted_at < $1`,
		issueColumns)
	rows, err := r.pool.Query(ctx, query, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) SetPhotoURL(ctx context.Context, id, url string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE issues SET photo_url=$1 WHERE id=$2`, url, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(
			&issue.ID,
			&issue.Title,
			&issue.Description,
			&issue.Category,
			&issue.Latitude,
			&issue.Longitude,
			&issue.LocationAddress,
			&issue.Ward,
			&issue.City,
			&issue.PhotoURL,
			&issue.AIDetectedCategory,
			&issue.AISeverity,
			&issue.AISuggestedDepartment,
			&issue.AISuggestions,
			&issue.PriorityScore,
			&issue.Status,
			&issue.SubmittedBy,
			&issue.AssignedToDepartment,
			&issue.AssignedToOfficer,
			&issue.ResolutionNotes,
			&issue.ResolutionPhotoURL,
			&issue.SubmittedAt,
			&issue.AcknowledgedAt,
			&issue.ResolvedAt,
			&issue.ClosedAt,
			&issue.Escalated,
			&issue.EscalatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}
