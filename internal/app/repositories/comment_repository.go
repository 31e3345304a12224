package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
)

var commentSelectColumns = []string{
	"c.id", "c.post_id", "c.user_id", "c.parent_id", "c.content", "c.is_deleted",
	"c.created_at", "c.updated_at", "u.username",
}

// CommentRepository handles comment database operations
type CommentRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db, sb: newBuilder()}
}

// WithTx returns a copy bound to tx
func (r *CommentRepository) WithTx(tx pgx.Tx) *CommentRepository {
	return &CommentRepository{db: tx, sb: r.sb}
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	c := &models.Comment{}
	err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.ParentID, &c.Content, &c.IsDeleted,
		&c.CreatedAt, &c.UpdatedAt, &c.AuthorUsername)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a comment and sets its ID and timestamps
func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	now := time.Now()
	sql, args, err := r.sb.Insert("comments").
		Columns("post_id", "user_id", "parent_id", "content", "created_at", "updated_at").
		Values(c.PostID, c.UserID, c.ParentID, c.Content, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create comment query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// ListByPost returns every comment of a post, oldest first, in one query
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error) {
	sql, args, err := r.sb.Select(commentSelectColumns...).
		From("comments c").
		LeftJoin("users u ON u.id = c.user_id").
		Where(squirrel.Eq{"c.post_id": postID}).
		OrderBy("c.created_at ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list comments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	sql, args, err := r.sb.Select(commentSelectColumns...).
		From("comments c").
		LeftJoin("users u ON u.id = c.user_id").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get comment query: %w", err)
	}

	c, err := scanComment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// CountByPost counts a post's live comments
func (r *CommentRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1 AND NOT is_deleted`, postID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return n, nil
}

// Delete removes a comment; replies go with it
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}
