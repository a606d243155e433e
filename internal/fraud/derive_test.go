package fraud

import (
	"math"
	"testing"
	"time"
)

func TestPeriodOfDay(t *testing.T) {
	cases := []struct {
		hour int
		want Period
	}{
		{0, PeriodNight},
		{5, PeriodNight},
		{6, PeriodMorning},
		{11, PeriodMorning},
		{12, PeriodAfternoon},
		{17, PeriodAfternoon},
		{18, PeriodEvening},
		{23, PeriodEvening},
		{24, PeriodNight},
		{-1, PeriodEvening},
	}
	for _, c := range cases {
		if got := PeriodOfDay(c.hour); got != c.want {
			t.Errorf("PeriodOfDay(%d) = %q, want %q", c.hour, got, c.want)
		}
	}
}

func TestFraudRate(t *testing.T) {
	if got := FraudRate(0, 0); got != 0 {
		t.Errorf("FraudRate(0, 0) = %v, want 0", got)
	}
	if got := FraudRate(5, 0); got != 0 {
		t.Errorf("FraudRate(5, 0) = %v, want 0", got)
	}
	if got := FraudRate(-1, 10); got != 0 {
		t.Errorf("FraudRate(-1, 10) = %v, want 0", got)
	}
	if got := FraudRate(1, 10); got != 10.0 {
		t.Errorf("FraudRate(1, 10) = %v, want 10", got)
	}
	// Three orders missing 0, 1 and 2 items: 3 missing over 3 orders.
	if got := FraudRate(3, 3); got != 100.0 {
		t.Errorf("FraudRate(3, 3) = %v, want 100", got)
	}
	// Not clamped: more missing items than orders pushes past 100.
	if got := FraudRate(6, 3); got != 200.0 {
		t.Errorf("FraudRate(6, 3) = %v, want 200", got)
	}
}

func TestFraudRateNeverNegative(t *testing.T) {
	for missing := -3; missing <= 3; missing++ {
		for total := -3; total <= 3; total++ {
			if got := FraudRate(missing, total); got < 0 {
				t.Errorf("FraudRate(%d, %d) = %v, want >= 0", missing, total, got)
			}
		}
	}
}

func TestRollingAverage(t *testing.T) {
	series := []float64{10, 20, 30, 40}
	got := RollingAverage(series, 2)
	want := []float64{10, 15, 25, 35}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("RollingAverage(%v, 2) = %v, want %v", series, got, want)
		}
	}
}

func TestRollingAverageShrinkingHead(t *testing.T) {
	series := []float64{4, 8, 12}
	got := RollingAverage(series, 7)
	// Window shrinks at the head: each element is the mean of
	// everything seen so far.
	want := []float64{4, 6, 8}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("RollingAverage(%v, 7) = %v, want %v", series, got, want)
		}
	}
}

func TestRollingAverageEmpty(t *testing.T) {
	if got := RollingAverage(nil, 7); len(got) != 0 {
		t.Errorf("RollingAverage(nil, 7) = %v, want empty", got)
	}
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func testDataset() *Dataset {
	return &Dataset{
		Origin: "test",
		Orders: []Order{
			{OrderID: "o1", Date: day("2024-01-01"), Hour: 9, DriverID: "d1", CustomerID: "c1", Region: "North", Amount: 50, ItemsDelivered: 5, ItemsMissing: 0},
			{OrderID: "o2", Date: day("2024-01-01"), Hour: 20, DriverID: "d1", CustomerID: "c2", Region: "North", Amount: 80, ItemsDelivered: 4, ItemsMissing: 1},
			{OrderID: "o3", Date: day("2024-01-02"), Hour: 20, DriverID: "d2", CustomerID: "c1", Region: "South", Amount: 30, ItemsDelivered: 2, ItemsMissing: 2},
			{OrderID: "o4", Date: day("2024-01-03"), Hour: 14, DriverID: "d2", CustomerID: "c2", Region: "South", Amount: 60, ItemsDelivered: 6, ItemsMissing: 0},
		},
		Drivers: []Driver{
			{DriverID: "d1", Name: "Ana", Age: 31},
			{DriverID: "d2", Name: "Bruno", Age: 45},
			{DriverID: "d3", Name: "Carla", Age: 28},
		},
		Customers: []Customer{
			{CustomerID: "c1", Name: "Diego", Age: 50, Region: "North"},
			{CustomerID: "c2", Name: "Elisa", Age: 22, Region: "South"},
		},
		Products: []Product{
			{ProductID: "p1", Name: "Batteries", Category: "Electronics", Price: 12.50},
			{ProductID: "p2", Name: "Shampoo", Category: "Beauty", Price: 8.00},
		},
		MissingItems: []MissingItem{
			{OrderID: "o2", ProductID: "p1"},
			{OrderID: "o3", ProductID: "p1"},
			{OrderID: "o3", ProductID: "p2"},
		},
	}
}

func TestBuildDriverAggregates(t *testing.T) {
	drivers := BuildDriverAggregates(testDataset())
	if len(drivers) != 3 {
		t.Fatalf("got %d drivers, want 3 (roster stays complete)", len(drivers))
	}

	// d2 has the highest complaint rate, so it sorts first.
	if drivers[0].DriverID != "d2" {
		t.Errorf("top driver = %s, want d2", drivers[0].DriverID)
	}
	if drivers[0].Deliveries != 2 || drivers[0].MissingItems != 2 {
		t.Errorf("d2 deliveries=%d missing=%d, want 2/2", drivers[0].Deliveries, drivers[0].MissingItems)
	}
	if drivers[0].ComplaintRate != 100.0 {
		t.Errorf("d2 complaint rate = %v, want 100", drivers[0].ComplaintRate)
	}
	if drivers[0].Name != "Bruno" || drivers[0].Age != 45 {
		t.Errorf("d2 roster join gave name=%q age=%d", drivers[0].Name, drivers[0].Age)
	}

	// d3 has no orders but stays in the output with zero counts.
	var d3 *DriverAggregate
	for i := range drivers {
		if drivers[i].DriverID == "d3" {
			d3 = &drivers[i]
		}
	}
	if d3 == nil {
		t.Fatal("driver with no orders dropped from aggregates")
	}
	if d3.Deliveries != 0 || d3.ComplaintRate != 0 {
		t.Errorf("d3 deliveries=%d rate=%v, want zeros", d3.Deliveries, d3.ComplaintRate)
	}
}

func TestBuildDriverAggregatesUnknownDriver(t *testing.T) {
	ds := &Dataset{
		Orders: []Order{{OrderID: "o1", DriverID: "ghost", ItemsMissing: 1}},
	}
	drivers := BuildDriverAggregates(ds)
	if len(drivers) != 1 {
		t.Fatalf("got %d drivers, want 1", len(drivers))
	}
	if drivers[0].DriverID != "ghost" || drivers[0].Name != "ghost" {
		t.Errorf("unknown driver got id=%q name=%q", drivers[0].DriverID, drivers[0].Name)
	}
}

func TestBuildCustomerAggregates(t *testing.T) {
	customers := BuildCustomerAggregates(testDataset())
	if len(customers) != 2 {
		t.Fatalf("got %d customers, want 2", len(customers))
	}
	if customers[0].CustomerID != "c1" {
		t.Errorf("top customer = %s, want c1", customers[0].CustomerID)
	}
	if customers[0].Orders != 2 || customers[0].MissingItems != 2 {
		t.Errorf("c1 orders=%d missing=%d, want 2/2", customers[0].Orders, customers[0].MissingItems)
	}
	if customers[0].Name != "Diego" {
		t.Errorf("c1 name = %q, want Diego", customers[0].Name)
	}
}

func TestBuildRegionAggregates(t *testing.T) {
	regions := BuildRegionAggregates(testDataset())
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}
	// South has the worse rate so it carries the top risk score.
	if regions[0].Region != "South" {
		t.Errorf("top region = %s, want South", regions[0].Region)
	}
	if regions[0].ComplaintRate != 100.0 {
		t.Errorf("South complaint rate = %v, want 100", regions[0].ComplaintRate)
	}
	if regions[0].AmountTotal != 90.0 {
		t.Errorf("South amount total = %v, want 90", regions[0].AmountTotal)
	}
	// The region with both maxima scores exactly 0.7+0.3.
	if regions[0].RiskScore != 1.0 {
		t.Errorf("South risk score = %v, want 1.0", regions[0].RiskScore)
	}
	if regions[1].RiskScore >= regions[0].RiskScore {
		t.Errorf("risk scores not descending: %v then %v", regions[0].RiskScore, regions[1].RiskScore)
	}
}

func TestApplyRiskScoresAllZero(t *testing.T) {
	regions := []RegionAggregate{
		{Region: "A"},
		{Region: "B"},
	}
	ApplyRiskScores(regions)
	for _, r := range regions {
		if r.RiskScore != 0 {
			t.Errorf("region %s risk score = %v, want 0 when every rate is zero", r.Region, r.RiskScore)
		}
	}
}

func TestProblematicRegions(t *testing.T) {
	regions := []RegionAggregate{
		{Region: "A", ComplaintRate: 2},
		{Region: "B", ComplaintRate: 3},
		{Region: "C", ComplaintRate: 2.5},
		{Region: "D", ComplaintRate: 40},
	}
	out := ProblematicRegions(regions)
	if len(out) != 1 || out[0].Region != "D" {
		t.Fatalf("ProblematicRegions = %+v, want only D", out)
	}
}

func TestProblematicRegionsTooFew(t *testing.T) {
	if out := ProblematicRegions([]RegionAggregate{{Region: "A", ComplaintRate: 50}}); out != nil {
		t.Errorf("single region flagged as problematic: %+v", out)
	}
}

func TestBuildHourBuckets(t *testing.T) {
	buckets := BuildHourBuckets(testDataset())
	if len(buckets) != 3 {
		t.Fatalf("got %d hour buckets, want 3", len(buckets))
	}
	if buckets[0].Hour != 9 || buckets[1].Hour != 14 || buckets[2].Hour != 20 {
		t.Errorf("hours not ascending: %v %v %v", buckets[0].Hour, buckets[1].Hour, buckets[2].Hour)
	}
	if buckets[0].Period != PeriodMorning {
		t.Errorf("hour 9 period = %q, want Morning", buckets[0].Period)
	}
	if buckets[2].Orders != 2 || buckets[2].MissingItems != 3 {
		t.Errorf("hour 20 orders=%d missing=%d, want 2/3", buckets[2].Orders, buckets[2].MissingItems)
	}
	if buckets[2].ComplaintRate != 150.0 {
		t.Errorf("hour 20 complaint rate = %v, want 150", buckets[2].ComplaintRate)
	}
}

func TestBuildDateBuckets(t *testing.T) {
	buckets := BuildDateBuckets(testDataset())
	if len(buckets) != 3 {
		t.Fatalf("got %d date buckets, want 3", len(buckets))
	}
	if !buckets[0].Date.Equal(day("2024-01-01")) {
		t.Errorf("first bucket date = %v, want 2024-01-01", buckets[0].Date)
	}
	if buckets[0].Orders != 2 {
		t.Errorf("2024-01-01 orders = %d, want 2", buckets[0].Orders)
	}
	if buckets[0].Weekday != "Monday" {
		t.Errorf("2024-01-01 weekday = %q, want Monday", buckets[0].Weekday)
	}
	if buckets[0].Quarter != 1 {
		t.Errorf("2024-01-01 quarter = %d, want 1", buckets[0].Quarter)
	}
	// Rolling mean with the shrinking head starts at the daily value.
	if buckets[0].Rolling7 != buckets[0].ComplaintRate {
		t.Errorf("rolling7[0] = %v, want %v", buckets[0].Rolling7, buckets[0].ComplaintRate)
	}
	// Day 2 rolling mean is the mean of days 1 and 2.
	wantR7 := math.Round((buckets[0].ComplaintRate+buckets[1].ComplaintRate)/2*100) / 100
	if buckets[1].Rolling7 != wantR7 {
		t.Errorf("rolling7[1] = %v, want %v", buckets[1].Rolling7, wantR7)
	}
}

func TestBuildProductAggregates(t *testing.T) {
	products := BuildProductAggregates(testDataset())
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].ProductID != "p1" || products[0].Reports != 2 {
		t.Errorf("top product = %s reports=%d, want p1/2", products[0].ProductID, products[0].Reports)
	}
	if products[0].ValueLost != 25.0 {
		t.Errorf("p1 value lost = %v, want 25", products[0].ValueLost)
	}
}

func TestBuildProductAggregatesMissingCatalogEntry(t *testing.T) {
	ds := &Dataset{
		Orders:       []Order{{OrderID: "o1"}},
		MissingItems: []MissingItem{{OrderID: "o1", ProductID: "p99"}},
	}
	products := BuildProductAggregates(ds)
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}
	if products[0].Name != "Product p99" || products[0].Category != "Unknown" {
		t.Errorf("placeholder product got name=%q category=%q", products[0].Name, products[0].Category)
	}
}

func TestBuildCategorySummaries(t *testing.T) {
	summaries := BuildCategorySummaries(BuildProductAggregates(testDataset()))
	if len(summaries) != 2 {
		t.Fatalf("got %d categories, want 2", len(summaries))
	}
	if summaries[0].Category != "Electronics" {
		t.Errorf("top category = %s, want Electronics", summaries[0].Category)
	}
	if summaries[0].ValueLost != 25.0 {
		t.Errorf("Electronics value lost = %v, want 25", summaries[0].ValueLost)
	}
}

func TestBuildersEmptyDataset(t *testing.T) {
	for _, ds := range []*Dataset{nil, {}} {
		if got := BuildCustomerAggregates(ds); got != nil {
			t.Errorf("BuildCustomerAggregates(%v) = %v, want nil", ds, got)
		}
		if got := BuildRegionAggregates(ds); got != nil {
			t.Errorf("BuildRegionAggregates(%v) = %v, want nil", ds, got)
		}
		if got := BuildHourBuckets(ds); got != nil {
			t.Errorf("BuildHourBuckets(%v) = %v, want nil", ds, got)
		}
		if got := BuildDateBuckets(ds); got != nil {
			t.Errorf("BuildDateBuckets(%v) = %v, want nil", ds, got)
		}
		if got := BuildProductAggregates(ds); got != nil {
			t.Errorf("BuildProductAggregates(%v) = %v, want nil", ds, got)
		}
	}
}
