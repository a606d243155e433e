// Command seed populates a SQLite database with a deterministic
// synthetic delivery dataset so the dashboard can be exercised without
// production data.
package main

import (
	"context"
	"flag"
	"log"

	_ "modernc.org/sqlite"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/db"
)

var (
	dbFile = flag.String("db", "fraud.db", "Path to the SQLite database")
	seed   = flag.Int64("seed", 42, "Seed for the synthetic dataset")
)

func main() {
	flag.Parse()

	store, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	ds, err := db.NewSyntheticSource(*seed).Load(ctx)
	if err != nil {
		log.Fatalf("Failed to generate dataset: %v", err)
	}

	if err := store.Seed(ctx, ds); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	log.Printf("Seeded %s: %d orders, %d drivers, %d customers, %d products, %d missing item reports",
		*dbFile, len(ds.Orders), len(ds.Drivers), len(ds.Customers), len(ds.Products), len(ds.MissingItems))
}
