// Package fraud derives the fraud metrics shown on every dashboard page
// from the raw delivery tables. All derived values are recomputed per
// call; nothing in this package is persisted.
package fraud

import "time"

// Order is one delivery order as read from storage. Source of truth;
// immutable once read.
type Order struct {
	OrderID        string    `json:"order_id"`
	Date           time.Time `json:"date"`
	Hour           int       `json:"delivery_hour"`
	DriverID       string    `json:"driver_id"`
	CustomerID     string    `json:"customer_id"`
	Region         string    `json:"region"`
	Amount         float64   `json:"order_amount"`
	ItemsDelivered int       `json:"items_delivered"`
	ItemsMissing   int       `json:"items_missing"`
}

// TotalItems returns the number of items the order should have contained.
func (o Order) TotalItems() int {
	return o.ItemsDelivered + o.ItemsMissing
}

// MissingRatio returns the fraction of the order's items reported missing.
func (o Order) MissingRatio() float64 {
	total := o.TotalItems()
	if total == 0 {
		return 0
	}
	return float64(o.ItemsMissing) / float64(total)
}

// Driver is one row of the driver roster.
type Driver struct {
	DriverID string `json:"driver_id"`
	Name     string `json:"driver_name"`
	Age      int    `json:"age"`
	Trips    int    `json:"trips"`
}

// Customer is one row of the customer table.
type Customer struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"customer_name"`
	Age        int    `json:"age"`
	Region     string `json:"region"`
}

// Product is one row of the product catalog.
type Product struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"product_name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
}

// MissingItem is one reported missing item, joining an order to the
// product that never arrived.
type MissingItem struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
}

// Dataset is everything the derivation layer needs for one refresh.
// Origin is "sqlite" for the real store or "synthetic" for the labeled
// fallback data.
type Dataset struct {
	Origin       string        `json:"origin"`
	Orders       []Order       `json:"orders"`
	Drivers      []Driver      `json:"drivers"`
	Customers    []Customer    `json:"customers"`
	Products     []Product     `json:"products"`
	MissingItems []MissingItem `json:"missing_items"`
}

// Empty reports whether the dataset has no orders to analyse.
func (ds *Dataset) Empty() bool {
	return ds == nil || len(ds.Orders) == 0
}

/// DriverAggregate is the per-driver rollup: deliveries, missing items
// and the derived complaint rate. Recomputed from orders on every call.
type DriverAggregate struct {
	DriverID      string  `json:"driver_id"`
	Name          string  `json:"driver_name"`
	Age           int     `json:"age"`
	Deliveries    int     `json:"total_deliveries"`
	MissingItems  int     `json:"missing_items"`
	AvgMissing    float64 `json:"avg_missing_items"`
	ComplaintRate float64 `json:"complaint_rate"`
	Suspicious    bool    `json:"suspicious"`
}

// CustomerAggregate is the per-customer rollup used for the suspicious
// customer ranking.
type CustomerAggregate struct {
	CustomerID    string  `json:"customer_id"`
	Name          string  `json:"customer_name"`
	Age           int     `json:"customer_age"`
	Orders        int     `json:"total_orders"`
	MissingItems  int     `json:"missing_items"`
	AvgMissing    float64 `json:"avg_missing_items"`
	ComplaintRate float64 `json:"complaint_rate"`
}

// RegionAggregate is the per-region rollup with the weighted risk score.
type RegionAggregate struct {
	Region        string  `json:"region"`
	Orders        int     `json:"total_orders"`
	MissingItems  int     `json:"total_missing_items"`
	AvgMissing    float64 `json:"avg_missing_items"`
	ComplaintRate float64 `json:"complaint_rate"`
	AmountTotal   float64 `json:"order_amount_total"`
	RiskScore     float64 `json:"risk_score"`
}

// ProductAggregate counts missing-item reports per catalog product.
type ProductAggregate struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"product_name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Reports   int     `json:"total_reports"`
	ValueLost float64 `json:"value_lost"`
}

// CategorySummary groups product aggregates by catalog category.
type CategorySummary struct {
	Category  string  `json:"category"`
	Products  int     `json:"product_count"`
	Reports   int     `json:"total_reports"`
	MeanPrice float64 `json:"mean_price"`
	ValueLost float64 `json:"value_lost"`
}

// HourBucket is the hour-of-day rollup.
type HourBucket struct {
	Hour          int     `json:"hour"`
	Period        Period  `json:"period_of_day"`
	Orders        int     `json:"total_orders"`
	MissingItems  int     `json:"missing_items"`
	ComplaintRate float64 `json:"complaint_rate"`
}

// DateBucket is the calendar-date rollup, with the derived calendar
// fields and rolling averages the trend page plots. Buckets are always
// chronologically sorted and deduplicated by date.
type DateBucket struct {
	Date          time.Time `json:"date"`
	Orders        int       `json:"total_orders"`
	MissingItems  int       `json:"missing_items"`
	ComplaintRate float64   `json:"complaint_rate"`
	Weekday       string    `json:"weekday"`
	Month         int       `json:"month"`
	Quarter       int       `json:"quarter"`
	ISOWeek       int       `json:"iso_week"`
	Rolling7      float64   `json:"rolling_avg_7d"`
	Rolling30     float64   `json:"rolling_avg_30d"`
}
