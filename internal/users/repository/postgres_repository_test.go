package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/imamhossain-git/e-commerce/internal/users/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%d/testdb?sslmode=disable", host, port.Int())

	repo, err := NewRepository(dsn)
	require.NoError(t, err)

	err = repo.RunMigrations("./migrations")
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestUser(email string) *domain.User {
	return &domain.User{
		Email:        email,
		Name:         "Sam",
		PasswordHash: "$2a$10$fakehashfakehashfakehashfakehashfakehashfakehashfake",
	}
}

func TestCreateUser(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser("a@b.com")

	err := repo.CreateUser(ctx, user)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	fetched, err := repo.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, fetched.ID)
	assert.Equal(t, "Sam", fetched.Name)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, newTestUser("a@b.com")))

	err := repo.CreateUser(ctx, newTestUser("a@b.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetUserByEmail(context.Background(), "nobody@b.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSessionBinding(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	alice := newTestUser("alice@b.com")
	require.NoError(t, repo.CreateUser(ctx, alice))
	bob := newTestUser("bob@b.com")
	require.NoError(t, repo.CreateUser(ctx, bob))

	require.NoError(t, repo.LinkSession(ctx, "session-1", alice.ID))

	fetched, err := repo.GetUserBySession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, fetched.ID)

	// re-linking the session moves it to the other account
	require.NoError(t, repo.LinkSession(ctx, "session-1", bob.ID))
	fetched, err = repo.GetUserBySession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, fetched.ID)
}

func TestGetUserBySession_Unknown(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetUserBySession(context.Background(), "never-linked")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
