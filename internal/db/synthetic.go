package db

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/fraud"
)

// SyntheticOrigin labels data from the synthetic source so no one
// mistakes demo numbers for the real dataset.
const SyntheticOrigin = "synthetic"

var (
	syntheticRegions    = []string{"North", "South", "East", "West", "Central", "Northeast", "Southeast"}
	syntheticCategories = []string{"Electronics", "Groceries", "Clothing", "Home", "Beauty", "Toys", "Sports"}
)

// SyntheticSource generates a deterministic demonstration dataset. It
// stands in for the SQLite store when the database is unavailable and
// seeds local development databases. The same seed always yields the
// same dataset.
type SyntheticSource struct {
	seed    int64
	drivers int
	days    int
}

// NewSyntheticSource returns a generator with the default shape:
// 100 drivers, 50 products, 200 customers, a year of orders.
func NewSyntheticSource(seed int64) *SyntheticSource {
	return &SyntheticSource{seed: seed, drivers: 100, days: 365}
}

func (s *SyntheticSource) Origin() string { return SyntheticOrigin }

// Load generates the dataset. It never fails; the error return exists
// only to satisfy Source.
func (s *SyntheticSource) Load(ctx context.Context) (*fraud.Dataset, error) {
	rng := rand.New(rand.NewSource(s.seed))

	ds := &fraud.Dataset{Origin: s.Origin()}

	for i := 1; i <= s.drivers; i++ {
		ds.Drivers = append(ds.Drivers, fraud.Driver{
			DriverID: fmt.Sprintf("D%03d", i),
			Name:     fmt.Sprintf("Driver %d", i),
			Age:      20 + rng.Intn(40),
			Trips:    10 + rng.Intn(490),
		})
	}

	const customers = 200
	for i := 1; i <= customers; i++ {
		ds.Customers = append(ds.Customers, fraud.Customer{
			CustomerID: fmt.Sprintf("C%03d", i),
			Name:       fmt.Sprintf("Customer %d", i),
			Age:        18 + rng.Intn(52),
			Region:     syntheticRegions[rng.Intn(len(syntheticRegions))],
		})
	}

	const products = 50
	for i := 1; i <= products; i++ {
		ds.Products = append(ds.Products, fraud.Product{
			ProductID: fmt.Sprintf("P%03d", i),
			Name:      fmt.Sprintf("Product %d", i),
			Category:  syntheticCategories[rng.Intn(len(syntheticCategories))],
			Price:     10 + rng.Float64()*490,
		})
	}

	// A handful of drivers misbehave far more often than the rest, so
	// the suspicious classification and anomaly flagging have real
	// structure to find.
	badDrivers := make(map[int]bool)
	for len(badDrivers) < s.drivers/10 {
		badDrivers[rng.Intn(s.drivers)] = true
	}

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	orderNum := 0
	for day := 0; day < s.days; day++ {
		date := start.AddDate(0, 0, day)
		ordersToday := 3 + rng.Intn(6)
		for n := 0; n < ordersToday; n++ {
			orderNum++
			driverIdx := rng.Intn(s.drivers)
			delivered := 1 + rng.Intn(12)

			missing := 0
			missingChance := 0.05
			if badDrivers[driverIdx] {
				missingChance = 0.45
			}
			if rng.Float64() < missingChance {
				missing = 1 + rng.Intn(3)
			}

			o := fraud.Order{
				OrderID:        fmt.Sprintf("O%06d", orderNum),
				Date:           date,
				Hour:           rng.Intn(24),
				DriverID:       fmt.Sprintf("D%03d", driverIdx+1),
				CustomerID:     fmt.Sprintf("C%03d", 1+rng.Intn(customers)),
				Region:         syntheticRegions[rng.Intn(len(syntheticRegions))],
				Amount:         20 + rng.Float64()*180,
				ItemsDelivered: delivered,
				ItemsMissing:   missing,
			}
			ds.Orders = append(ds.Orders, o)

			for m := 0; m < missing; m++ {
				ds.MissingItems = append(ds.MissingItems, fraud.MissingItem{
					OrderID:   o.OrderID,
					ProductID: fmt.Sprintf("P%03d", 1+rng.Intn(products)),
				})
			}
		}
	}

	return ds, nil
}
