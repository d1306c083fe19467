package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
)

type fakeIssueRepo struct {
	mu     sync.Mutex
	issues map[string]*domain.Issue

	classificationUpdates int
	failListStale         bool
}

func newFakeIssueRepo(issues ...*domain.Issue) *fakeIssueRepo {
	repo := &fakeIssueRepo{issues: map[string]*domain.Issue{}}
	for _, issue := range issues {
		copied := *issue
		repo.issues[issue.ID] = &copied
	}
	return repo
}

func (r *fakeIssueRepo) Create(ctx context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	if issue.SubmittedAt.IsZero() {
		issue.SubmittedAt = time.Now()
	}
	copied := *issue
	r.issues[issue.ID] = &copied
	return nil
}

func (r *fakeIssueRepo) Update(ctx context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.issues[issue.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *issue
	r.issues[issue.ID] = &copied
	return nil
}

func (r *fakeIssueRepo) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *issue
	return &copied, nil
}

func (r *fakeIssueRepo) ListWithFilter(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	return r.ListAll(ctx)
}

func (r *fakeIssueRepo) ListInBounds(ctx context.Context, box repository.BoundingBox, limit int) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Issue
	for _, issue := range r.issues {
		if issue.Latitude >= box.MinLat && issue.Latitude <= box.MaxLat &&
			issue.Longitude >= box.MinLng && issue.Longitude <= box.MaxLng {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (r *fakeIssueRepo) ListAll(ctx context.Context) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		out = append(out, *issue)
	}
	return out, nil
}

func (r *fakeIssueRepo) UpdateClassification(ctx context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.issues[issue.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *issue
	r.issues[issue.ID] = &copied
	r.classificationUpdates++
	return nil
}

func (r *fakeIssueRepo) AdjustPriorityScore(ctx context.Context, id string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	score := issue.PriorityScore + delta
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	issue.PriorityScore = score
	return score, nil
}

func (r *fakeIssueRepo) ListStaleUnresolved(ctx context.Context, olderThan time.Time) ([]domain.Issue, error) {
	if r.failListStale {
		return nil, pgx.ErrTxClosed
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Issue
	for _, issue := range r.issues {
		if !issue.Resolved() && !issue.Escalated && issue.SubmittedAt.Before(olderThan) {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (r *fakeIssueRepo) SetPhotoURL(ctx context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	issue.PhotoURL = &url
	return nil
}

type voteKey struct {
	issueID string
	userID  string
}

type fakeVoteRepo struct {
	mu    sync.Mutex
	votes map[voteKey]bool

	failCount bool
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: map[voteKey]bool{}}
}

func (r *fakeVoteRepo) Insert(ctx context.Context, issueID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := voteKey{issueID, userID}
	if r.votes[key] {
		return false, nil
	}
	r.votes[key] = true
	return true, nil
}

func (r *fakeVoteRepo) Delete(ctx context.Context, issueID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := voteKey{issueID, userID}
	if !r.votes[key] {
		return false, nil
	}
	delete(r.votes, key)
	return true, nil
}

func (r *fakeVoteRepo) Exists(ctx context.Context, issueID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.votes[voteKey{issueID, userID}], nil
}

func (r *fakeVoteRepo) CountByIssue(ctx context.Context, issueID string) (int, error) {
	if r.failCount {
		return 0, pgx.ErrTxClosed
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int
	for key := range r.votes {
		if key.issueID == issueID {
			count++
		}
	}
	return count, nil
}

func (r *fakeVoteRepo) ListIssueIDsForUser(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for key := range r.votes {
		if key.userID == userID {
			out = append(out, key.issueID)
		}
	}
	return out, nil
}

type fakeDepartmentRepo struct {
	mu    sync.Mutex
	depts map[string]*domain.Department
}

func newFakeDepartmentRepo(depts ...*domain.Department) *fakeDepartmentRepo {
	repo := &fakeDepartmentRepo{depts: map[string]*domain.Department{}}
	for _, dept := range depts {
		copied := *dept
		repo.depts[dept.ID] = &copied
	}
	return repo
}

func (r *fakeDepartmentRepo) Create(ctx context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	copied := *dept
	r.depts[dept.ID] = &copied
	return nil
}

func (r *fakeDepartmentRepo) Update(ctx context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *dept
	r.depts[dept.ID] = &copied
	return nil
}

func (r *fakeDepartmentRepo) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dept, ok := r.depts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *dept
	return &copied, nil
}

func (r *fakeDepartmentRepo) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dept := range r.depts {
		if dept.Name == name {
			copied := *dept
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDepartmentRepo) List(ctx context.Context) ([]domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Department, 0, len(r.depts))
	for _, dept := range r.depts {
		out = append(out, *dept)
	}
	return out, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
}

func newFakeProfileRepo(profiles ...*domain.Profile) *fakeProfileRepo {
	repo := &fakeProfileRepo{profiles: map[string]*domain.Profile{}}
	for _, profile := range profiles {
		copied := *profile
		repo.profiles[profile.ID] = &copied
	}
	return repo
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	copied := *profile
	r.profiles[profile.ID] = &copied
	return nil
}

func (r *fakeProfileRepo) Update(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *profile
	r.profiles[profile.ID] = &copied
	return nil
}

func (r *fakeProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *profile
	return &copied, nil
}

func (r *fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, profile := range r.profiles {
		if profile.Email == email {
			copied := *profile
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeTimelineRepo struct {
	mu      sync.Mutex
	entries []domain.TimelineEntry
}

func (r *fakeTimelineRepo) Create(ctx context.Context, entry *domain.TimelineEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeTimelineRepo) ListByIssue(ctx context.Context, issueID string) ([]domain.TimelineEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TimelineEntry
	for _, entry := range r.entries {
		if entry.IssueID == issueID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeFeedbackRepo struct {
	mu        sync.Mutex
	feedbacks []domain.Feedback
}

func (r *fakeFeedbackRepo) Create(ctx context.Context, feedback *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	feedback.CreatedAt = time.Now()
	r.feedbacks = append(r.feedbacks, *feedback)
	return nil
}

func (r *fakeFeedbackRepo) ListByIssue(ctx context.Context, issueID string) ([]domain.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Feedback
	for _, fb := range r.feedbacks {
		if fb.IssueID == issueID {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (r *fakeFeedbackRepo) ListAll(ctx context.Context) ([]domain.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Feedback(nil), r.feedbacks...), nil
}

// fakeBackend is a canned ai.Backend.
type fakeBackend struct {
	response string
	err      error
	prompts  []string
}

func (b *fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	b.prompts = append(b.prompts, prompt)
	if b.err != nil {
		return "", b.err
	}
	return b.response, nil
}
