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
	"github.com/yigit/ecosphere/internal/pkg/dberrors"
	"github.com/yigit/ecosphere/internal/pkg/logger"
)

var postSelectColumns = []string{
	"p.id", "p.title", "p.slug", "p.content", "p.image", "p.user_id", "p.pinned",
	"p.view_count", "p.is_deleted", "p.created_at", "p.updated_at",
	"u.username", "u.role", "u.avatar_filename",
	"(SELECT COUNT(*) FROM post_upvotes pu WHERE pu.post_id = p.id)",
	"(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id AND NOT cm.is_deleted)",
}

// PostRepository handles post and tag database operations
type PostRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db, sb: newBuilder()}
}

// WithTx returns a copy bound to tx
func (r *PostRepository) WithTx(tx pgx.Tx) *PostRepository {
	return &PostRepository{db: tx, sb: r.sb}
}

func scanPost(row pgx.Row) (*models.Post, error) {
	p := &models.Post{}
	var (
		username *string
		role     *models.RoleType
		avatar   *string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Image, &p.UserID, &p.Pinned,
		&p.ViewCount, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt,
		&username, &role, &avatar,
		&p.TotalUpvotes, &p.TotalComments,
	)
	if err != nil {
		return nil, err
	}
	if p.UserID != nil && username != nil {
		p.Author = &models.UserSummary{ID: *p.UserID, Username: *username, AvatarFilename: avatar}
		if role != nil {
			p.Author.Role = *role
		}
	}
	return p, nil
}

func (r *PostRepository) baseSelect() squirrel.SelectBuilder {
	return r.sb.Select(postSelectColumns...).
		From("posts p").
		LeftJoin("users u ON u.id = p.user_id")
}

// Create inserts a post and sets its ID and timestamps
func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	now := time.Now()
	sql, args, err := r.sb.Insert("posts").
		Columns("title", "slug", "content", "image", "user_id", "pinned", "created_at", "updated_at").
		Values(p.Title, p.Slug, p.Content, p.Image, p.UserID, p.Pinned, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create post query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&p.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintPostsSlug) {
			return apperrors.NewConflictError("post slug already exists")
		}
		logger.Error().Err(err).Str("slug", p.Slug).Msg("Error creating post")
		return fmt.Errorf("error creating post: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// SlugExists reports whether a post already uses slug
func (r *PostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check post slug: %w", err)
	}
	return exists, nil
}

// List returns live posts, pinned first then newest, with the total count
func (r *PostRepository) List(ctx context.Context, tagSlug *string, offset uint64, limit int) ([]*models.Post, int64, error) {
	filter := func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		q = q.Where(squirrel.Eq{"p.is_deleted": false})
		if tagSlug != nil && *tagSlug != "" {
			q = q.Where(squirrel.Expr(
				"EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = p.id AND t.slug = ?)",
				*tagSlug))
		}
		return q
	}

	countSQL, countArgs, err := filter(r.sb.Select("COUNT(*)").From("posts p")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count posts query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	q := filter(r.baseSelect()).OrderBy("p.pinned DESC", "p.created_at DESC", "p.id DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list posts query: %w", err)
	}

	posts, err := r.queryPosts(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachTags(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// RecentByUser returns the user's latest live posts
func (r *PostRepository) RecentByUser(ctx context.Context, userID int64, limit int) ([]*models.Post, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"p.user_id": userID, "p.is_deleted": false}).
		OrderBy("p.created_at DESC", "p.id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recent posts query: %w", err)
	}
	return r.queryPosts(ctx, sql, args...)
}

func (r *PostRepository) queryPosts(ctx context.Context, sql string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Post, error) {
	sql, args, err := r.baseSelect().Where(where).Where(squirrel.Eq{"p.is_deleted": false}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get post query: %w", err)
	}

	p, err := scanPost(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if err := r.attachTags(ctx, []*models.Post{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// GetBySlug retrieves a live post by slug
func (r *PostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return r.getOne(ctx, squirrel.Eq{"p.slug": slug})
}

// GetByID retrieves a live post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return r.getOne(ctx, squirrel.Eq{"p.id": id})
}

// IncrementViewCount bumps the view counter and returns the new value
func (r *PostRepository) IncrementViewCount(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := r.db.QueryRow(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`, id).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrPostNotFound
		}
		return 0, fmt.Errorf("failed to increment post views: %w", err)
	}
	return views, nil
}

// Delete removes a post together with its comments, upvotes and tag links
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}

// GetOrCreateTag returns the tag with slug, creating it with name if missing
func (r *PostRepository) GetOrCreateTag(ctx context.Context, name, slug string) (*models.Tag, error) {
	sql, args, err := r.sb.Insert("tags").
		Columns("name", "slug").
		Values(name, slug).
		Suffix("ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug RETURNING id, name, slug").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tag upsert query: %w", err)
	}

	t := &models.Tag{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.Name, &t.Slug); err != nil {
		return nil, fmt.Errorf("failed to upsert tag %s: %w", slug, err)
	}
	return t, nil
}

// LinkTag attaches a tag to a post
func (r *PostRepository) LinkTag(ctx context.Context, postID, tagID int64) error {
	sql, args, err := r.sb.Insert("post_tags").
		Columns("post_id", "tag_id").
		Values(postID, tagID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build link tag query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to link tag: %w", err)
	}
	return nil
}

// attachTags loads tags for all posts with one query
func (r *PostRepository) attachTags(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Post, len(posts))
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		p.Tags = []*models.Tag{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	sql, args, err := r.sb.Select("pt.post_id", "t.id", "t.name", "t.slug").
		From("post_tags pt").
		Join("tags t ON t.id = pt.tag_id").
		Where(squirrel.Eq{"pt.post_id": ids}).
		OrderBy("t.name ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build post tags query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to load post tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		t := &models.Tag{}
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug); err != nil {
			return fmt.Errorf("failed to scan post tag: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Tags = append(p.Tags, t)
		}
	}
	return rows.Err()
}
