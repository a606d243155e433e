// Package export serializes derived fraud tables for download. This
// is pure serialization of already-computed aggregates; nothing here
// recomputes a metric.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/fraud"
)

// Table is the row-and-column shape shared by the CSV and Markdown
// writers.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Filename returns a download name carrying the table name and a
// unique run id, e.g. fraud-drivers-3f2a….csv.
func (t Table) Filename(ext string) string {
	return fmt.Sprintf("fraud-%s-%s.%s", t.Name, uuid.NewString(), ext)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// DriversTable flattens driver aggregates.
func DriversTable(drivers []fraud.DriverAggregate) Table {
	t := Table{
		Name:    "drivers",
		Headers: []string{"driver_id", "driver_name", "age", "total_deliveries", "missing_items", "avg_missing_items", "complaint_rate", "suspicious"},
	}
	for _, d := range drivers {
		t.Rows = append(t.Rows, []string{
			d.DriverID,
			d.Name,
			strconv.Itoa(d.Age),
			strconv.Itoa(d.Deliveries),
			strconv.Itoa(d.MissingItems),
			ftoa(d.AvgMissing),
			ftoa(d.ComplaintRate),
			strconv.FormatBool(d.Suspicious),
		})
	}
	return t
}

// CustomersTable flattens customer aggregates.
func CustomersTable(customers []fraud.CustomerAggregate) Table {
	t := Table{
		Name:    "customers",
		Headers: []string{"customer_id", "customer_name", "customer_age", "total_orders", "missing_items", "avg_missing_items", "complaint_rate"},
	}
	for _, c := range customers {
		t.Rows = append(t.Rows, []string{
			c.CustomerID,
			c.Name,
			strconv.Itoa(c.Age),
			strconv.Itoa(c.Orders),
			strconv.Itoa(c.MissingItems),
			ftoa(c.AvgMissing),
			ftoa(c.ComplaintRate),
		})
	}
	return t
}

// RegionsTable flattens region aggregates.
func RegionsTable(regions []fraud.RegionAggregate) Table {
	t := Table{
		Name:    "regions",
		Headers: []string{"region", "total_orders", "total_missing_items", "avg_missing_items", "complaint_rate", "order_amount_total", "risk_score"},
	}
	for _, r := range regions {
		t.Rows = append(t.Rows, []string{
			r.Region,
			strconv.Itoa(r.Orders),
			strconv.Itoa(r.MissingItems),
			ftoa(r.AvgMissing),
			ftoa(r.ComplaintRate),
			ftoa(r.AmountTotal),
			ftoa(r.RiskScore),
		})
	}
	return t
}

// ProductsTable flattens product aggregates.
func ProductsTable(products []fraud.ProductAggregate) Table {
	t := Table{
		Name:    "products",
		Headers: []string{"product_id", "product_name", "category", "price", "total_reports", "value_lost"},
	}
	for _, p := range products {
		t.Rows = append(t.Rows, []string{
			p.ProductID,
			p.Name,
			p.Category,
			ftoa(p.Price),
			strconv.Itoa(p.Reports),
			ftoa(p.ValueLost),
		})
	}
	return t
}

// HourlyTable flattens hour buckets.
func HourlyTable(buckets []fraud.HourBucket) Table {
	t := Table{
		Name:    "hourly",
		Headers: []string{"hour", "period_of_day", "total_orders", "missing_items", "complaint_rate"},
	}
	for _, b := range buckets {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(b.Hour),
			string(b.Period),
			strconv.Itoa(b.Orders),
			strconv.Itoa(b.MissingItems),
			ftoa(b.ComplaintRate),
		})
	}
	return t
}

// TrendTable flattens date buckets.
func TrendTable(buckets []fraud.DateBucket) Table {
	t := Table{
		Name:    "trend",
		Headers: []string{"date", "weekday", "month", "quarter", "iso_week", "total_orders", "missing_items", "complaint_rate", "rolling_avg_7d", "rolling_avg_30d"},
	}
	for _, b := range buckets {
		t.Rows = append(t.Rows, []string{
			b.Date.Format(time.DateOnly),
			b.Weekday,
			strconv.Itoa(b.Month),
			strconv.Itoa(b.Quarter),
			strconv.Itoa(b.ISOWeek),
			strconv.Itoa(b.Orders),
			strconv.Itoa(b.MissingItems),
			ftoa(b.ComplaintRate),
			ftoa(b.Rolling7),
			ftoa(b.Rolling30),
		})
	}
	return t
}
