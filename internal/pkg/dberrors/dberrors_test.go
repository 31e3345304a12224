package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	err := fmt.Errorf("insert upvote: %w", &pgconn.PgError{Code: UniqueViolation, ConstraintName: ConstraintPostUserUpvote})

	assert.True(t, IsDuplicateConstraintError(err, ConstraintPostUserUpvote))
	assert.False(t, IsDuplicateConstraintError(err, ConstraintUsersEmail))
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err, ""))
}

func TestIsForeignKeyViolation(t *testing.T) {
	err := &pgconn.PgError{Code: ForeignKeyViolation, ConstraintName: ConstraintListingsCategory}

	assert.True(t, IsForeignKeyViolation(err, ""))
	assert.True(t, IsForeignKeyViolation(err, ConstraintListingsCategory))
	assert.False(t, IsForeignKeyViolation(err, "comments_parent_id_fkey"))
}

func TestNonPostgresErrors(t *testing.T) {
	plain := errors.New("connection reset")

	assert.False(t, IsUniqueViolation(plain))
	assert.False(t, IsDuplicateConstraintError(plain, ConstraintUsersUsername))
	assert.False(t, IsForeignKeyViolation(nil, ""))
}
