package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/imamhossain-git/e-commerce/internal/orders/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsDirPath string) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// CreateOrder inserts the order row and every item row in one transaction.
// On any failure the whole order rolls back; readers never observe a partial
// order. The ledger assigns ID and timestamps.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// no-op once committed; releases the connection on every other exit path
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (session_id, total, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		order.SessionID, order.Total, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			order.ID, item.ProductID, item.Quantity, item.Price,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64, sessionID string) (*domain.Order, error) {
	orders, err := r.queryOrders(ctx,
		`SELECT o.id, o.session_id, o.total, o.status, o.created_at, o.updated_at,
		        oi.id, oi.product_id, oi.quantity, oi.price
		 FROM orders o
		 LEFT JOIN order_items oi ON oi.order_id = o.id
		 WHERE o.id = $1 AND o.session_id = $2
		 ORDER BY oi.id`,
		id, sessionID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return orders[0], nil
}

func (r *Repository) ListOrders(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT o.id, o.session_id, o.total, o.status, o.created_at, o.updated_at,
		        oi.id, oi.product_id, oi.quantity, oi.price
		 FROM orders o
		 LEFT JOIN order_items oi ON oi.order_id = o.id
		 WHERE o.session_id = $1
		 ORDER BY o.created_at DESC, o.id DESC, oi.id`,
		sessionID)
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, sessionID string, status domain.OrderStatus) (*domain.Order, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND session_id = $3`,
		status, id, sessionID)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrOrderNotFound
	}
	return r.GetOrder(ctx, id, sessionID)
}

// queryOrders scans joined order/item rows into orders, keeping the row
// order produced by the query.
func (r *Repository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []*domain.Order
		byID   = map[int64]*domain.Order{}
	)
	for rows.Next() {
		var (
			o         domain.Order
			itemID    sql.NullInt64
			productID sql.NullInt64
			quantity  sql.NullInt64
			price     sql.NullFloat64
		)
		if err := rows.Scan(
			&o.ID, &o.SessionID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt,
			&itemID, &productID, &quantity, &price,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		order, seen := byID[o.ID]
		if !seen {
			o.Items = []domain.OrderItem{}
			order = &o
			byID[o.ID] = order
			orders = append(orders, order)
		}
		if itemID.Valid {
			order.Items = append(order.Items, domain.OrderItem{
				ID:        itemID.Int64,
				ProductID: productID.Int64,
				Quantity:  int(quantity.Int64),
				Price:     price.Float64,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
