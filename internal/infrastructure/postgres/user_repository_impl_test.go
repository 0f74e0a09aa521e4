package postgres

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
)

func ptr[T any](v T) *T { return &v }

func TestBuildUpdate_OnlySuppliedFields(t *testing.T) {
	query, args := buildUpdate(7, entity.UserPatch{
		Name:      ptr("Ada"),
		Followers: ptr(5),
	})

	assert.Equal(t, "UPDATE users SET name = $1, followers = $2 WHERE id = $3 RETURNING "+userColumns, query)
	assert.Equal(t, []any{"Ada", 5, int64(7)}, args)
}

func TestBuildUpdate_AllFields(t *testing.T) {
	query, args := buildUpdate(1, entity.UserPatch{
		Email:     ptr("a@b.com"),
		Name:      ptr("A"),
		AvatarURL: ptr("http://img"),
		IsActive:  ptr(false),
		Followers: ptr(0),
	})

	assert.Contains(t, query, "email = $1, name = $2, avatar_url = $3, is_active = $4, followers = $5 WHERE id = $6")
	assert.Len(t, args, 6)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(io.EOF))
}

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := NewPool(context.Background(), dsn, PoolOptions{MaxConns: 2})
	if err != nil {
		t.Skipf("failed to connect to test database: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	require.NoError(t, Migrate(dsn, "../../../db/migrations", logger))

	_, err = pool.Exec(context.Background(), "TRUNCATE users RESTART IDENTITY")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestUserRepository_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	created, err := repo.Insert(ctx, entity.NewUser{Email: "a@b.com"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 0, created.Followers)
	assert.True(t, created.IsActive)
	assert.False(t, created.RegisteredAt.IsZero())
	assert.Nil(t, created.Name)

	_, err = repo.Insert(ctx, entity.NewUser{Email: "a@b.com"})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)

	updated, err := repo.UpdateByID(ctx, created.ID, entity.UserPatch{Followers: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Followers)
	assert.Equal(t, "a@b.com", updated.Email)

	other, err := repo.Insert(ctx, entity.NewUser{Email: "c@d.com"})
	require.NoError(t, err)
	_, err = repo.UpdateByID(ctx, other.ID, entity.UserPatch{Email: ptr("a@b.com")})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.DeleteByID(ctx, created.ID))
	assert.ErrorIs(t, repo.DeleteByID(ctx, created.ID), repository.ErrUserNotFound)
	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	_, err = repo.UpdateByID(ctx, created.ID, entity.UserPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
