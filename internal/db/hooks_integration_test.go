//go:build integration

package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/ecosphere/internal/db"
	"github.com/yigit/ecosphere/internal/testutil"
)

func TestIntegration_WithTransactionCommitHooks(t *testing.T) {
	database := testutil.Postgres(t)
	ctx := context.Background()

	t.Run("hooks dropped on rollback", func(t *testing.T) {
		ran := false
		errBoom := errors.New("boom")

		err := database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			db.AfterCommit(ctx, func() { ran = true })
			assert.True(t, db.InTransaction(ctx))
			return errBoom
		})

		assert.ErrorIs(t, err, errBoom)
		assert.False(t, ran, "hook must not run when the transaction rolls back")
	})

	t.Run("hooks run after commit", func(t *testing.T) {
		var ran bool
		var inTx bool

		err := database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			db.AfterCommit(ctx, func() { ran = true })
			_, err := tx.Exec(ctx, "SELECT 1")
			inTx = db.InTransaction(ctx)
			return err
		})

		require.NoError(t, err)
		assert.True(t, inTx)
		assert.True(t, ran)
	})
}
