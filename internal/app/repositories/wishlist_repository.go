package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/ecosphere/internal/app/models"
)

// WishlistRepository handles saved listings
type WishlistRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewWishlistRepository creates a new WishlistRepository
func NewWishlistRepository(db DBTX) *WishlistRepository {
	return &WishlistRepository{db: db, sb: newBuilder()}
}

// WithTx returns a copy bound to tx
func (r *WishlistRepository) WithTx(tx pgx.Tx) *WishlistRepository {
	return &WishlistRepository{db: tx, sb: r.sb}
}

// Remove deletes the entry and reports whether it existed
func (r *WishlistRepository) Remove(ctx context.Context, userID, listingID int64) (bool, error) {
	sql, args, err := r.sb.Delete("wishlist").
		Where(squirrel.Eq{"user_id": userID, "listing_id": listingID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build wishlist delete query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("failed to remove wishlist entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Add inserts the entry; an existing entry is left untouched
func (r *WishlistRepository) Add(ctx context.Context, userID, listingID int64) error {
	sql, args, err := r.sb.Insert("wishlist").
		Columns("user_id", "listing_id", "created_at").
		Values(userID, listingID, time.Now()).
		Suffix("ON CONFLICT ON CONSTRAINT wishlist_pkey DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build wishlist insert query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to add wishlist entry: %w", err)
	}
	return nil
}

// ListByUser returns the user's saved active listings, most recently saved first
func (r *WishlistRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Listing, error) {
	sql, args, err := r.sb.Select(listingSelectColumns...).
		From("wishlist w").
		Join("listings l ON l.id = w.listing_id").
		Join("users u ON u.id = l.owner_id").
		LeftJoin("categories c ON c.id = l.category_id").
		Where(squirrel.Eq{"w.user_id": userID, "l.is_active": true}).
		OrderBy("w.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build wishlist query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	listings := []*models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
