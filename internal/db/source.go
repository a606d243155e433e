package db

import (
	"context"
	"fmt"
	"log"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/fraud"
)

// Source loads the complete dataset the derivation layer works from.
// The real store and the synthetic generator satisfy the same
// interface so the rest of the pipeline never knows which one it got;
// the choice is made once, by dependency injection at startup.
type Source interface {
	// Load returns a fresh dataset. Implementations must be safe for
	// concurrent use.
	Load(ctx context.Context) (*fraud.Dataset, error)

	// Origin labels datasets produced by this source.
	Origin() string
}

// SQLiteSource reads the dataset from the SQLite store.
type SQLiteSource struct {
	db *DB
}

// NewSQLiteSource returns a Source backed by db.
func NewSQLiteSource(db *DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

func (s *SQLiteSource) Origin() string { return "sqlite" }

// Load reads all five tables. Any query failure fails the whole load;
// callers decide whether to fall back to synthetic data.
func (s *SQLiteSource) Load(ctx context.Context) (*fraud.Dataset, error) {
	orders, err := s.db.Orders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	drivers, err := s.db.Drivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load drivers: %w", err)
	}
	customers, err := s.db.Customers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	products, err := s.db.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	missing, err := s.db.MissingItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load missing items: %w", err)
	}

	return &fraud.Dataset{
		Origin:       s.Origin(),
		Orders:       orders,
		Drivers:      drivers,
		Customers:    customers,
		Products:     products,
		MissingItems: missing,
	}, nil
}

// FallbackSource tries the primary source and substitutes the fallback
// when the primary fails, so the dashboard keeps rendering when the
// store is unavailable. The substituted dataset keeps the fallback's
// origin label, which every payload carries to the user.
type FallbackSource struct {
	primary  Source
	fallback Source
}

// NewFallbackSource wraps primary with fallback.
func NewFallbackSource(primary, fallback Source) *FallbackSource {
	return &FallbackSource{primary: primary, fallback: fallback}
}

func (s *FallbackSource) Origin() string { return s.primary.Origin() }

// Load returns the primary dataset, or the fallback's after logging
// the primary failure. Only if both fail does Load return an error.
func (s *FallbackSource) Load(ctx context.Context) (*fraud.Dataset, error) {
	ds, err := s.primary.Load(ctx)
	if err == nil {
		return ds, nil
	}
	log.Printf("primary source %q failed (%v); serving %q data", s.primary.Origin(), err, s.fallback.Origin())

	ds, ferr := s.fallback.Load(ctx)
	if ferr != nil {
		return nil, fmt.Errorf("primary source failed (%v) and fallback failed: %w", err, ferr)
	}
	return ds, nil
}
