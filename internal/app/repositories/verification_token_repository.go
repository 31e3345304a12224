package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
)

// VerificationTokenRepository handles database operations for email verification tokens
type VerificationTokenRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewVerificationTokenRepository creates a new VerificationTokenRepository
func NewVerificationTokenRepository(db DBTX) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db, sb: newBuilder()}
}

// WithTx returns a copy bound to tx
func (r *VerificationTokenRepository) WithTx(tx pgx.Tx) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: tx, sb: r.sb}
}

// CreateToken creates a new email verification token for a user
func (r *VerificationTokenRepository) CreateToken(ctx context.Context, userID int64, token string, expiryDate time.Time) error {
	sql, args, err := r.sb.Insert("email_verification_tokens").
		Columns("user_id", "token", "expiry_date", "created_at").
		Values(userID, token, expiryDate, time.Now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error creating verification token: %w", err)
	}
	return nil
}

// GetTokenInfo returns the user and expiry of a token, ErrInvalidEmailToken when unknown
func (r *VerificationTokenRepository) GetTokenInfo(ctx context.Context, token string) (int64, time.Time, error) {
	sql, args, err := r.sb.Select("user_id", "expiry_date").
		From("email_verification_tokens").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("error building SQL: %w", err)
	}

	var (
		userID     int64
		expiryDate time.Time
	)
	if err = r.db.QueryRow(ctx, sql, args...).Scan(&userID, &expiryDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, time.Time{}, apperrors.ErrInvalidEmailToken
		}
		return 0, time.Time{}, fmt.Errorf("error getting token info: %w", err)
	}
	return userID, expiryDate, nil
}

// DeleteToken deletes a verification token
func (r *VerificationTokenRepository) DeleteToken(ctx context.Context, token string) error {
	sql, args, err := r.sb.Delete("email_verification_tokens").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error deleting verification token: %w", err)
	}
	return nil
}
