package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/ecosphere/internal/pkg/dberrors"
)

// UpvoteRepository handles post upvotes
type UpvoteRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewUpvoteRepository creates a new UpvoteRepository
func NewUpvoteRepository(db DBTX) *UpvoteRepository {
	return &UpvoteRepository{db: db, sb: newBuilder()}
}

// WithTx returns a copy bound to tx
func (r *UpvoteRepository) WithTx(tx pgx.Tx) *UpvoteRepository {
	return &UpvoteRepository{db: tx, sb: r.sb}
}

// Remove deletes the (post, user) upvote and reports whether it existed
func (r *UpvoteRepository) Remove(ctx context.Context, postID, userID int64) (bool, error) {
	sql, args, err := r.sb.Delete("post_upvotes").
		Where(squirrel.Eq{"post_id": postID, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build remove upvote query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("failed to remove upvote: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Add inserts the (post, user) upvote. A row already present under
// uq_post_user_upvote is left alone and reported as inserted=false.
func (r *UpvoteRepository) Add(ctx context.Context, postID, userID int64) (inserted bool, err error) {
	sql, args, err := r.sb.Insert("post_upvotes").
		Columns("post_id", "user_id", "created_at").
		Values(postID, userID, time.Now()).
		Suffix("ON CONFLICT ON CONSTRAINT " + dberrors.ConstraintPostUserUpvote + " DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build add upvote query: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintPostUserUpvote) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add upvote: %w", err)
	}
	return true, nil
}

// Exists reports whether the user upvoted the post
func (r *UpvoteRepository) Exists(ctx context.Context, postID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM post_upvotes WHERE post_id = $1 AND user_id = $2)`, postID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check upvote: %w", err)
	}
	return exists, nil
}

// CountByPost returns the number of upvotes on a post
func (r *UpvoteRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM post_upvotes WHERE post_id = $1`, postID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count upvotes: %w", err)
	}
	return n, nil
}
