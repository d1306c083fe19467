package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// VoteRepository manages the (issue, user) vote pairs. Uniqueness of the pair
// is enforced by the store; a racing duplicate insert is a no-op.
type VoteRepository interface {
	// Insert records a vote and reports whether a row was actually created.
	Insert(ctx context.Context, issueID, userID string) (bool, error)
	// Delete removes a vote and reports whether a row existed.
	Delete(ctx context.Context, issueID, userID string) (bool, error)
	Exists(ctx context.Context, issueID, userID string) (bool, error)
	// CountByIssue is always a fresh aggregate; counts are never cached.
	CountByIssue(ctx context.Context, issueID string) (int, error)
	ListIssueIDsForUser(ctx context.Context, userID string) ([]string, error)
}

type voteRepository struct {
	pool *pgxpool.Pool
}

// NewVoteRepository builds the repository.
func NewVoteRepository(pool *pgxpool.Pool) VoteRepository {
	return &voteRepository{pool: pool}
}

func (r *voteRepository) Insert(ctx context.Context, issueID, userID string) (bool, error) {
	const query = `
        INSERT INTO issue_votes (issue_id, user_id)
        VALUES ($1,$2)
        ON CONFLICT (issue_id, user_id) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query, issueID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *voteRepository) Delete(ctx context.Context, issueID, userID string) (bool, error) {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM issue_votes WHERE issue_id=$1 AND user_id=$2`, issueID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *voteRepository) Exists(ctx context.Context, issueID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM issue_votes WHERE issue_id=$1 AND user_id=$2)`,
		issueID, userID).Scan(&exists)
	return exists, err
}

func (r *voteRepository) CountByIssue(ctx context.Context, issueID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM issue_votes WHERE issue_id=$1`, issueID).Scan(&count)
	return count, err
}

func (r *voteRepository) ListIssueIDsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT issue_id FROM issue_votes WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
