// Package filter narrows derived fraud tables by user-selected date
// ranges, categories and regions. Every function is pure: it returns a
// new slice, never mutates its input, and filtering twice with the
// same parameters equals filtering once.
package filter

import (
	"time"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/fraud"
)

// All is the sentinel category/region value meaning "no filter".
const All = "All"

// ByDateRange keeps the date buckets with start <= date <= end. A zero
// start or end leaves that side of the range open.
func ByDateRange(buckets []fraud.DateBucket, start, end time.Time) []fraud.DateBucket {
	out := make([]fraud.DateBucket, 0, len(buckets))
	for _, b := range buckets {
		if !start.IsZero() && b.Date.Before(start) {
			continue
		}
		if !end.IsZero() && b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// OrdersByDateRange keeps the orders with start <= date <= end, for
// narrowing the raw dataset before derivation.
func OrdersByDateRange(orders []fraud.Order, start, end time.Time) []fraud.Order {
	out := make([]fraud.Order, 0, len(orders))
	for _, o := range orders {
		if !start.IsZero() && o.Date.Before(start) {
			continue
		}
		if !end.IsZero() && o.Date.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// ByCategory keeps the product aggregates in the given category. The
// All sentinel (or an empty string) is a no-op.
func ByCategory(products []fraud.ProductAggregate, category string) []fraud.ProductAggregate {
	if category == "" || category == All {
		return products
	}
	out := make([]fraud.ProductAggregate, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// ByRegion keeps the region aggregates for the given region. The All
// sentinel (or an empty string) is a no-op.
func ByRegion(regions []fraud.RegionAggregate, region string) []fraud.RegionAggregate {
	if region == "" || region == All {
		return regions
	}
	out := make([]fraud.RegionAggregate, 0, len(regions))
	for _, r := range regions {
		if r.Region == region {
			out = append(out, r)
		}
	}
	return out
}

// OrdersByRegion keeps the orders delivered in the given region. The
// All sentinel (or an empty string) is a no-op.
func OrdersByRegion(orders []fraud.Order, region string) []fraud.Order {
	if region == "" || region == All {
		return orders
	}
	out := make([]fraud.Order, 0, len(orders))
	for _, o := range orders {
		if o.Region == region {
			out = append(out, o)
		}
	}
	return out
}
