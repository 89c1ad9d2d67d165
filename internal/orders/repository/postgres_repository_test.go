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

	"github.com/imamhossain-git/e-commerce/internal/orders/domain"
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

func newTestOrder(sessionID string) *domain.Order {
	return &domain.Order{
		SessionID: sessionID,
		Total:     25.00,
		Status:    domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{ProductID: 42, Quantity: 2, Price: 10.00},
			{ProductID: 7, Quantity: 1, Price: 5.00},
		},
	}
}

func TestCreateOrder_Success(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("session-1")

	err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	// the ledger assigned identity
	assert.NotZero(t, order.ID)
	assert.False(t, order.CreatedAt.IsZero())
	for _, item := range order.Items {
		assert.NotZero(t, item.ID)
	}

	fetched, err := repo.GetOrder(ctx, order.ID, "session-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, 25.00, fetched.Total)
	assert.Equal(t, domain.OrderStatusPending, fetched.Status)
	require.Len(t, fetched.Items, 2)
	assert.Equal(t, int64(42), fetched.Items[0].ProductID)
	assert.Equal(t, 10.00, fetched.Items[0].Price)
}

func TestCreateOrder_InvalidItemRollsBackOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("session-rollback")
	order.Items[1].Quantity = 0 // violates the quantity check

	err := repo.CreateOrder(ctx, order)
	require.Error(t, err)

	// the order row must not exist either
	orders, err := repo.ListOrders(ctx, "session-rollback")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestGetOrder_WrongSession(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("session-owner")
	require.NoError(t, repo.CreateOrder(ctx, order))

	_, err := repo.GetOrder(ctx, order.ID, "session-other")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrder(context.Background(), 424242, "session-1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	sessionID := "session-list"

	order1 := newTestOrder(sessionID)
	require.NoError(t, repo.CreateOrder(ctx, order1))

	// Small sleep to ensure different created_at timestamps
	time.Sleep(10 * time.Millisecond)

	order2 := newTestOrder(sessionID)
	order2.Total = 5.00
	order2.Items = []domain.OrderItem{{ProductID: 7, Quantity: 1, Price: 5.00}}
	require.NoError(t, repo.CreateOrder(ctx, order2))

	// another session's order must not show up
	other := newTestOrder("session-someone-else")
	require.NoError(t, repo.CreateOrder(ctx, other))

	orders, err := repo.ListOrders(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// newest first
	assert.Equal(t, order2.ID, orders[0].ID)
	assert.Equal(t, order1.ID, orders[1].ID)
	assert.Len(t, orders[0].Items, 1)
	assert.Len(t, orders[1].Items, 2)
}

func TestUpdateStatus(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("session-status")
	require.NoError(t, repo.CreateOrder(ctx, order))

	updated, err := repo.UpdateStatus(ctx, order.ID, "session-status", domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)
	assert.True(t, updated.UpdatedAt.After(order.UpdatedAt) || updated.UpdatedAt.Equal(order.UpdatedAt))
	// items survive the status change
	assert.Len(t, updated.Items, 2)
}

func TestUpdateStatus_WrongSession(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("session-status-owner")
	require.NoError(t, repo.CreateOrder(ctx, order))

	_, err := repo.UpdateStatus(ctx, order.ID, "session-intruder", domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
