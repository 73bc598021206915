package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go-storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Connect opens the postgres ledger database.
func Connect(cred *Credentials) (*sql.DB, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return db, nil
}

// RunMigrations applies the ledger schema. driverName is "postgres" in
// production and "sqlite" in tests.
func RunMigrations(db *sql.DB, driverName, migrationsPath string) error {
	var driver database.Driver
	var err error
	switch driverName {
	case "postgres":
		driver, err = postgres.WithInstance(db, &postgres.Config{
			MigrationsTable: "orders_schema_migrations",
		})
	case "sqlite":
		driver, err = sqlite.WithInstance(db, &sqlite.Config{
			MigrationsTable: "orders_schema_migrations",
		})
	default:
		return fmt.Errorf("unsupported migration driver: %s", driverName)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		driverName,
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

type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const orderColumns = `id, buyer_email, shipping_address, delivery_method, payment_summary, items, subtotal, discount, payment_intent_id, status, created_at, updated_at`

func (r *SQLRepository) Create(ctx context.Context, order *domain.Order) error {
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}
	deliveryJSON, err := json.Marshal(order.Delivery)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery snapshot: %w", err)
	}
	summaryJSON, err := json.Marshal(order.PaymentSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal payment summary: %w", err)
	}
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.ID.String(),
		order.BuyerEmail,
		addressJSON,
		deliveryJSON,
		summaryJSON,
		itemsJSON,
		order.Subtotal,
		order.Discount,
		order.PaymentIntentID,
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt)

	if insertErr != nil {
		if isUniqueViolation(insertErr) {
			return ErrDuplicateIntent
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id uuid.UUID, buyerEmail string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND buyer_email = $2`
	return scanOrder(r.db.QueryRowContext(ctx, query, id.String(), buyerEmail))
}

func (r *SQLRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_intent_id = $1`
	return scanOrder(r.db.QueryRowContext(ctx, query, intentID))
}

func (r *SQLRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_email = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, buyerEmail)
	if err != nil {
		return nil, fmt.Errorf("query orders by buyer: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

// Settle moves the order for the intent id out of Pending. Zero rows affected
// means another delivery already settled it; the caller must treat that as
// "already done" and skip side effects. The outbox event rides in the same
// transaction as the status change.
func (r *SQLRepository) Settle(ctx context.Context, intentID string, status domain.OrderStatus) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin settle tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE payment_intent_id = $3 AND status = $4`,
		string(status), now, intentID, string(domain.OrderStatusPending))
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("settle rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	order, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_intent_id = $1`, intentID))
	if err != nil {
		return false, fmt.Errorf("load settled order: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"order_id":          order.ID.String(),
		"buyer_email":       order.BuyerEmail,
		"payment_intent_id": order.PaymentIntentID,
		"status":            string(order.Status),
		"total_amount":      order.TotalCents(),
		"settled_at":        now,
	})
	if err != nil {
		return false, fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_events (id, aggregate_id, event_type, payload, published, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), order.ID.String(), "order.settled", payload, false, now)
	if err != nil {
		return false, fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit settle tx: %w", err)
	}
	return true, nil
}

func (r *SQLRepository) GetUnpublishedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM order_events WHERE published = false ORDER BY created_at LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		ev := &OutboxEvent{}
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *SQLRepository) MarkEventPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE order_events SET published = true WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var idStr, status string
	var addressJSON, deliveryJSON, summaryJSON, itemsJSON []byte

	err := row.Scan(
		&idStr,
		&order.BuyerEmail,
		&addressJSON,
		&deliveryJSON,
		&summaryJSON,
		&itemsJSON,
		&order.Subtotal,
		&order.Discount,
		&order.PaymentIntentID,
		&status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order row: %w", err)
	}

	order.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse order id: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal(deliveryJSON, &order.Delivery); err != nil {
		return nil, fmt.Errorf("unmarshal delivery snapshot: %w", err)
	}
	if err := json.Unmarshal(summaryJSON, &order.PaymentSummary); err != nil {
		return nil, fmt.Errorf("unmarshal payment summary: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}

	return &order, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	// sqlite (tests) reports constraint violations as plain strings
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
