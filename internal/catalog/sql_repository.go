package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go-storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// RunMigrations applies the catalog schema. driverName is "postgres" in
// production and "sqlite" in tests.
func RunMigrations(db *sql.DB, driverName, migrationsPath string) error {
	var driver database.Driver
	var err error
	switch driverName {
	case "postgres":
		driver, err = postgres.WithInstance(db, &postgres.Config{
			MigrationsTable: "catalog_schema_migrations",
		})
	case "sqlite":
		driver, err = sqlite.WithInstance(db, &sqlite.Config{
			MigrationsTable: "catalog_schema_migrations",
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

func (r *SQLRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, picture_url, brand, type
		FROM products
		WHERE id = $1
	`

	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.PictureURL,
		&p.Brand,
		&p.Type,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

func (r *SQLRepository) GetDeliveryMethod(ctx context.Context, id int64) (*domain.DeliveryMethod, error) {
	query := `
		SELECT id, short_name, delivery_time, description, price
		FROM delivery_methods
		WHERE id = $1
	`

	var d domain.DeliveryMethod
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.ShortName,
		&d.DeliveryTime,
		&d.Description,
		&d.Price,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeliveryMethodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery method: %w", err)
	}

	return &d, nil
}

func (r *SQLRepository) ListDeliveryMethods(ctx context.Context) ([]*domain.DeliveryMethod, error) {
	query := `
		SELECT id, short_name, delivery_time, description, price
		FROM delivery_methods
		ORDER BY price DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery methods: %w", err)
	}
	defer rows.Close()

	var methods []*domain.DeliveryMethod
	for rows.Next() {
		d := &domain.DeliveryMethod{}
		if err := rows.Scan(&d.ID, &d.ShortName, &d.DeliveryTime, &d.Description, &d.Price); err != nil {
			return nil, fmt.Errorf("failed to scan delivery method: %w", err)
		}
		methods = append(methods, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return methods, nil
}
