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

var userColumns = []string{
	"id", "username", "email", "password", "role", "is_verified", "is_deleted",
	"full_name", "bio", "location", "avatar_filename", "twitter", "instagram", "github",
	"last_seen", "created_at", "updated_at",
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	FullName  *string
	Bio       *string
	Location  *string
	Twitter   *string
	Instagram *string
	Github    *string
}

// UserRepository handles user database operations
type UserRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db, sb: newBuilder()}
}

// WithTx returns a copy bound to tx
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	return &UserRepository{db: tx, sb: r.sb}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password, &u.Role, &u.IsVerified, &u.IsDeleted,
		&u.FullName, &u.Bio, &u.Location, &u.AvatarFilename, &u.Twitter, &u.Instagram, &u.Github,
		&u.LastSeen, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts the user and sets its ID. Unique violations map to the
// username/email sentinels.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	sql, args, err := r.sb.Insert("users").
		Columns("username", "email", "password", "role", "is_verified", "last_seen", "created_at", "updated_at").
		Values(user.Username, user.Email, user.Password, user.Role, user.IsVerified, now, now, now).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintUsersUsername):
			return apperrors.ErrUsernameAlreadyExists
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintUsersEmail):
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("username", user.Username).Msg("Error creating user")
		return fmt.Errorf("error creating user: %w", err)
	}
	user.LastSeen = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email (case-insensitive)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Expr("LOWER(email) = LOWER(?)", email))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

func (r *UserRepository) exists(ctx context.Context, where squirrel.Sqlizer) (bool, error) {
	sub, args, err := r.sb.Select("1").From("users").Where(where).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists query: %w", err)
	}
	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS("+sub+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking user existence: %w", err)
	}
	return exists, nil
}

// UsernameExists checks if a username is taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"username": username})
}

// EmailExists checks if an email is taken
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, squirrel.Expr("LOWER(email) = LOWER(?)", email))
}

// UpdateLastSeen stamps the user's last activity
func (r *UserRepository) UpdateLastSeen(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("users").
		Set("last_seen", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build last seen query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	return nil
}

// MarkVerified sets is_verified on the user
func (r *UserRepository) MarkVerified(ctx context.Context, userID int64) error {
	return r.update(ctx, userID, map[string]any{"is_verified": true})
}

// UpdateProfile overwrites the editable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, p ProfileUpdate) error {
	return r.update(ctx, userID, map[string]any{
		"full_name": p.FullName,
		"bio":       p.Bio,
		"location":  p.Location,
		"twitter":   p.Twitter,
		"instagram": p.Instagram,
		"github":    p.Github,
	})
}

// UpdateAvatar sets or clears the avatar filename
func (r *UserRepository) UpdateAvatar(ctx context.Context, userID int64, filename *string) error {
	return r.update(ctx, userID, map[string]any{"avatar_filename": filename})
}

func (r *UserRepository) update(ctx context.Context, userID int64, values map[string]any) error {
	values["updated_at"] = time.Now()
	sql, args, err := r.sb.Update("users").
		SetMap(values).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error updating user")
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Delete removes the user row, cascading per the schema
func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Delete("users").Where(squirrel.Eq{"id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete user query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetStats counts the user's active listings, live posts and upvotes received
func (r *UserRepository) GetStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM listings WHERE owner_id = $1 AND is_active),
			(SELECT COUNT(*) FROM posts WHERE user_id = $1 AND NOT is_deleted),
			(SELECT COUNT(*) FROM post_upvotes pu JOIN posts p ON p.id = pu.post_id
				WHERE p.user_id = $1 AND NOT p.is_deleted)`

	stats := &models.UserStats{}
	if err := r.db.QueryRow(ctx, query, userID).Scan(&stats.TotalListings, &stats.TotalPosts, &stats.TotalUpvotesReceived); err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	return stats, nil
}

