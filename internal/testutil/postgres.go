//go:build integration

// Package testutil starts a throwaway PostgreSQL for integration tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	appMigrations "github.com/yigit/ecosphere/internal/app/migrations"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/db"
)

// Postgres starts a PostgreSQL container, applies the migrations and returns
// a database bound to it. The container is terminated when the test ends.
func Postgres(t *testing.T) *db.PostgresDB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ecosphere_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = appMigrations.NewMigrator(pool, appMigrations.Files, appMigrations.Dir, zerolog.Nop()).Up(ctx)
	require.NoError(t, err, "failed to apply migrations")

	return db.NewFromPool(pool)
}

var userSeq atomic.Int64

// CreateUser inserts a verified user with a unique username
func CreateUser(t *testing.T, repos *repositories.Repositories, role models.RoleType) *models.User {
	t.Helper()
	n := userSeq.Add(1)
	user := &models.User{
		Username:   fmt.Sprintf("user%d", n),
		Email:      fmt.Sprintf("user%d@example.com", n),
		Password:   "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3FmvXl4J0O4cZ9gG4hb7G1C",
		Role:       role,
		IsVerified: true,
	}
	require.NoError(t, repos.UserRepository.Create(context.Background(), user))
	return user
}

// CreateCategory inserts an active category
func CreateCategory(t *testing.T, repos *repositories.Repositories, name, slug string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, Slug: slug, IsActive: true}
	_, err := repos.CategoryRepository.Ensure(context.Background(), category)
	require.NoError(t, err)

	categories, err := repos.CategoryRepository.ListActive(context.Background())
	require.NoError(t, err)
	for _, c := range categories {
		if c.Slug == slug {
			return c
		}
	}
	t.Fatalf("category %s not found after insert", slug)
	return nil
}

// CreatePost inserts a post authored by userID
func CreatePost(t *testing.T, repos *repositories.Repositories, userID int64, title, slug string) *models.Post {
	t.Helper()
	post := &models.Post{Title: title, Slug: slug, Content: "Some content about recycling", UserID: &userID}
	require.NoError(t, repos.PostRepository.Create(context.Background(), post))
	return post
}
