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

var categoryColumns = []string{"id", "name", "slug", "description", "icon", "is_active", "created_at"}

// CategoryRepository handles category database operations
type CategoryRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db, sb: newBuilder()}
}

// WithTx returns a copy bound to tx
func (r *CategoryRepository) WithTx(tx pgx.Tx) *CategoryRepository {
	return &CategoryRepository{db: tx, sb: r.sb}
}

func scanCategory(row pgx.Row) (*models.Category, error) {
	c := &models.Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// ListActive returns active categories ordered by name
func (r *CategoryRepository) ListActive(ctx context.Context) ([]*models.Category, error) {
	sql, args, err := r.sb.Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list categories query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	sql, args, err := r.sb.Select(categoryColumns...).From("categories").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get category query: %w", err)
	}

	c, err := scanCategory(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// Ensure inserts the category unless one with the same slug exists.
// It reports whether a row was inserted.
func (r *CategoryRepository) Ensure(ctx context.Context, c *models.Category) (bool, error) {
	sql, args, err := r.sb.Insert("categories").
		Columns("name", "slug", "description", "icon", "is_active", "created_at").
		Values(c.Name, c.Slug, c.Description, c.Icon, true, time.Now()).
		Suffix("ON CONFLICT (slug) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build ensure category query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert category %s: %w", c.Slug, err)
	}
	return tag.RowsAffected() > 0, nil
}
