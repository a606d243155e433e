// Package db reads the delivery fraud dataset from SQLite. It issues
// read-only queries against the five analysis tables and adapts rows
// into the typed records the derivation layer consumes; no business
// logic lives here.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/fraud"
)

type DB struct {
	*sql.DB
}

// OpenDB opens the SQLite database without touching the schema.
// Migrations manage the schema; use NewDB for open-plus-migrate.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DB{sqlDB}, nil
}

// NewDB opens the SQLite database and applies any pending migrations
// from the embedded migration files.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

const dateLayout = "2006-01-02"
const hourLayout = "15:04:05"

// Orders returns every order row. Rows whose date or delivery hour
// cannot be parsed are skipped and counted in a single log line rather
// than failing the whole load.
func (db *DB) Orders(ctx context.Context) ([]fraud.Order, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT order_id, date, delivery_hour, driver_id, customer_id,
		       region, order_amount, items_delivered, items_missing
		FROM orders
		ORDER BY date, order_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []fraud.Order
	skipped := 0
	for rows.Next() {
		var (
			o          fraud.Order
			date, hour string
		)
		if err := rows.Scan(
			&o.OrderID,
			&date,
			&hour,
			&o.DriverID,
			&o.CustomerID,
			&o.Region,
			&o.Amount,
			&o.ItemsDelivered,
			&o.ItemsMissing,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		parsedDate, err := time.Parse(dateLayout, date)
		if err != nil {
			skipped++
			continue
		}
		o.Date = parsedDate

		parsedHour, err := time.Parse(hourLayout, hour)
		if err != nil {
			skipped++
			continue
		}
		o.Hour = parsedHour.Hour()

		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Printf("orders: skipped %d rows with unparseable date or delivery_hour", skipped)
	}
	return orders, nil
}

// Drivers returns the driver roster.
func (db *DB) Drivers(ctx context.Context) ([]fraud.Driver, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT driver_id, driver_name, age, trips
		FROM drivers
		ORDER BY driver_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query drivers: %w", err)
	}
	defer rows.Close()

	var drivers []fraud.Driver
	for rows.Next() {
		var d fraud.Driver
		if err := rows.Scan(&d.DriverID, &d.Name, &d.Age, &d.Trips); err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// Customers returns the customer table.
func (db *DB) Customers(ctx context.Context) ([]fraud.Customer, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT customer_id, customer_name, age, region
		FROM customers
		ORDER BY customer_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []fraud.Customer
	for rows.Next() {
		var c fraud.Customer
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.Age, &c.Region); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Products returns the product catalog.
func (db *DB) Products(ctx context.Context) ([]fraud.Product, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT product_id, product_name, category, price
		FROM products
		ORDER BY product_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []fraud.Product
	for rows.Next() {
		var p fraud.Product
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Category, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// MissingItems returns the missing-item reports, one row per reported
// item.
func (db *DB) MissingItems(ctx context.Context) ([]fraud.MissingItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT order_id, product_id
		FROM missing_items
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing items: %w", err)
	}
	defer rows.Close()

	var items []fraud.MissingItem
	for rows.Next() {
		var m fraud.MissingItem
		if err := rows.Scan(&m.OrderID, &m.ProductID); err != nil {
			return nil, fmt.Errorf("failed to scan missing item: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Seed bulk-inserts a dataset, for local development and tests. Writes
// happen in one transaction; existing rows with the same primary key
// are replaced.
func (db *DB) Seed(ctx context.Context, ds *fraud.Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, o := range ds.Orders {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO orders (
				order_id, date, delivery_hour, driver_id, customer_id,
				region, order_amount, items_delivered, items_missing
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.OrderID,
			o.Date.Format(dateLayout),
			fmt.Sprintf("%02d:00:00", o.Hour),
			o.DriverID,
			o.CustomerID,
			o.Region,
			o.Amount,
			o.ItemsDelivered,
			o.ItemsMissing,
		); err != nil {
			return fmt.Errorf("failed to seed order %s: %w", o.OrderID, err)
		}
	}
	for _, d := range ds.Drivers {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO drivers (driver_id, driver_name, age, trips)
			VALUES (?, ?, ?, ?)`,
			d.DriverID, d.Name, d.Age, d.Trips,
		); err != nil {
			return fmt.Errorf("failed to seed driver %s: %w", d.DriverID, err)
		}
	}
	for _, c := range ds.Customers {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO customers (customer_id, customer_name, age, region)
			VALUES (?, ?, ?, ?)`,
			c.CustomerID, c.Name, c.Age, c.Region,
		); err != nil {
			return fmt.Errorf("failed to seed customer %s: %w", c.CustomerID, err)
		}
	}
	for _, p := range ds.Products {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO products (product_id, product_name, category, price)
			VALUES (?, ?, ?, ?)`,
			p.ProductID, p.Name, p.Category, p.Price,
		); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ProductID, err)
		}
	}
	for _, m := range ds.MissingItems {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO missing_items (order_id, product_id) VALUES (?, ?)`,
			m.OrderID, m.ProductID,
		); err != nil {
			return fmt.Errorf("failed to seed missing item for order %s: %w", m.OrderID, err)
		}
	}

	return tx.Commit()
}
