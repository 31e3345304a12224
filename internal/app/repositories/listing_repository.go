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

var listingSelectColumns = []string{
	"l.id", "l.title", "l.slug", "l.description", "l.listing_type", "l.quantity", "l.unit",
	"l.price", "l.currency", "l.location", "l.owner_id", "l.category_id", "l.is_active",
	"l.views", "l.contact_count", "l.created_at", "l.updated_at",
	"u.username", "u.role", "u.avatar_filename",
	"c.name", "c.slug", "c.icon",
}

// ListingRepository handles listing and listing image database operations
type ListingRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewListingRepository creates a new ListingRepository
func NewListingRepository(db DBTX) *ListingRepository {
	return &ListingRepository{db: db, sb: newBuilder()}
}

// WithTx returns a copy bound to tx
func (r *ListingRepository) WithTx(tx pgx.Tx) *ListingRepository {
	return &ListingRepository{db: tx, sb: r.sb}
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	l := &models.Listing{Owner: &models.UserSummary{}}
	var catName, catSlug, catIcon *string

	err := row.Scan(
		&l.ID, &l.Title, &l.Slug, &l.Description, &l.ListingType, &l.Quantity, &l.Unit,
		&l.Price, &l.Currency, &l.Location, &l.OwnerID, &l.CategoryID, &l.IsActive,
		&l.Views, &l.ContactCount, &l.CreatedAt, &l.UpdatedAt,
		&l.Owner.Username, &l.Owner.Role, &l.Owner.AvatarFilename,
		&catName, &catSlug, &catIcon,
	)
	if err != nil {
		return nil, err
	}

	l.Owner.ID = l.OwnerID
	if l.CategoryID != nil && catName != nil {
		l.Category = &models.Category{ID: *l.CategoryID, Name: *catName, Icon: catIcon, IsActive: true}
		if catSlug != nil {
			l.Category.Slug = *catSlug
		}
	}
	return l, nil
}

func (r *ListingRepository) baseSelect(columns ...string) squirrel.SelectBuilder {
	return r.sb.Select(columns...).
		From("listings l").
		Join("users u ON u.id = l.owner_id").
		LeftJoin("categories c ON c.id = l.category_id")
}

func applyListingFilter(q squirrel.SelectBuilder, f models.ListingFilter) squirrel.SelectBuilder {
	q = q.Where(squirrel.Eq{"l.is_active": true})
	if f.ListingType != nil {
		q = q.Where(squirrel.Eq{"l.listing_type": *f.ListingType})
	}
	if f.CategorySlug != nil {
		q = q.Where(squirrel.Eq{"c.slug": *f.CategorySlug})
	}
	if f.Search != nil && *f.Search != "" {
		q = q.Where(squirrel.ILike{"l.title": "%" + *f.Search + "%"})
	}
	if f.OwnerID != nil {
		q = q.Where(squirrel.Eq{"l.owner_id": *f.OwnerID})
	}
	return q
}

// Create inserts a listing and sets its ID and timestamps
func (r *ListingRepository) Create(ctx context.Context, l *models.Listing) error {
	now := time.Now()
	sql, args, err := r.sb.Insert("listings").
		Columns("title", "slug", "description", "listing_type", "quantity", "unit", "price",
			"currency", "location", "owner_id", "category_id", "is_active", "created_at", "updated_at").
		Values(l.Title, l.Slug, l.Description, l.ListingType, l.Quantity, l.Unit, l.Price,
			l.Currency, l.Location, l.OwnerID, l.CategoryID, true, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create listing query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&l.ID); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintListingsSlug):
			return apperrors.NewConflictError("listing slug already exists")
		case dberrors.IsForeignKeyViolation(err, dberrors.ConstraintListingsCategory):
			return apperrors.ErrCategoryNotFound
		}
		logger.Error().Err(err).Str("slug", l.Slug).Msg("Error creating listing")
		return fmt.Errorf("error creating listing: %w", err)
	}

	l.IsActive = true
	l.CreatedAt = now
	l.UpdatedAt = now
	return nil
}

// SlugExists reports whether a listing already uses slug
func (r *ListingRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM listings WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check listing slug: %w", err)
	}
	return exists, nil
}

// AddImage inserts an image row for a listing
func (r *ListingRepository) AddImage(ctx context.Context, img *models.ListingImage) error {
	sql, args, err := r.sb.Insert("listing_images").
		Columns("listing_id", "image_url", "alt_text", "position", "created_at").
		Values(img.ListingID, img.ImageURL, img.AltText, img.Position, time.Now()).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add image query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&img.ID, &img.CreatedAt); err != nil {
		return fmt.Errorf("failed to add listing image: %w", err)
	}
	return nil
}

// GetImages returns a listing's images ordered by position
func (r *ListingRepository) GetImages(ctx context.Context, listingID int64) ([]*models.ListingImage, error) {
	sql, args, err := r.sb.Select("id", "listing_id", "image_url", "alt_text", "position", "created_at").
		From("listing_images").
		Where(squirrel.Eq{"listing_id": listingID}).
		OrderBy("position ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get images query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing images: %w", err)
	}
	defer rows.Close()

	images := []*models.ListingImage{}
	for rows.Next() {
		img := &models.ListingImage{}
		if err := rows.Scan(&img.ID, &img.ListingID, &img.ImageURL, &img.AltText, &img.Position, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// List returns active listings newest first and the total matching the filter
func (r *ListingRepository) List(ctx context.Context, f models.ListingFilter) ([]*models.Listing, int64, error) {
	countSQL, countArgs, err := applyListingFilter(r.baseSelect("COUNT(*)"), f).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count listings query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	q := applyListingFilter(r.baseSelect(listingSelectColumns...), f).
		OrderBy("l.created_at DESC", "l.id DESC").
		Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list listings query: %w", err)
	}

	listings, err := r.queryListings(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *ListingRepository) queryListings(ctx context.Context, sql string, args ...any) ([]*models.Listing, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	listings := []*models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// GetBySlug retrieves an active listing with owner and category
func (r *ListingRepository) GetBySlug(ctx context.Context, slug string) (*models.Listing, error) {
	sql, args, err := r.baseSelect(listingSelectColumns...).
		Where(squirrel.Eq{"l.slug": slug, "l.is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get listing query: %w", err)
	}

	l, err := scanListing(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

// GetByID retrieves a listing regardless of its active flag
func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	sql, args, err := r.baseSelect(listingSelectColumns...).
		Where(squirrel.Eq{"l.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get listing query: %w", err)
	}

	l, err := scanListing(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

// IncrementViews bumps the view counter and returns the new value
func (r *ListingRepository) IncrementViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := r.db.QueryRow(ctx, `UPDATE listings SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrListingNotFound
		}
		return 0, fmt.Errorf("failed to increment listing views: %w", err)
	}
	return views, nil
}
