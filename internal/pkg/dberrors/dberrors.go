package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
)

// Constraint names declared in the migrations
const (
	ConstraintUsersUsername    = "users_username_key"
	ConstraintUsersEmail       = "users_email_key"
	ConstraintPostUserUpvote   = "uq_post_user_upvote"
	ConstraintListingsSlug     = "listings_slug_key"
	ConstraintPostsSlug        = "posts_slug_key"
	ConstraintTagsSlug         = "tags_slug_key"
	ConstraintWishlistPKey     = "wishlist_pkey"
	ConstraintListingsCategory = "listings_category_id_fkey"
)

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.Code == UniqueViolation && pgErr.ConstraintName == constraintName
}

// IsUniqueViolation reports any unique violation regardless of constraint
func IsUniqueViolation(err error) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.Code == UniqueViolation
}

// IsForeignKeyViolation reports a foreign key violation for the named constraint,
// or for any constraint when constraintName is empty.
func IsForeignKeyViolation(err error, constraintName string) bool {
	pgErr, ok := asPgError(err)
	if !ok || pgErr.Code != ForeignKeyViolation {
		return false
	}
	return constraintName == "" || pgErr.ConstraintName == constraintName
}
