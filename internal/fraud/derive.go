package fraud

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Period is one of the four fixed time-of-day buckets.
type Period string

const (
	PeriodNight     Period = "Night"     // [0,6)
	PeriodMorning   Period = "Morning"   // [6,12)
	PeriodAfternoon Period = "Afternoon" // [12,18)
	PeriodEvening   Period = "Evening"   // [18,24)
)

// PeriodOfDay maps an hour of day to its period. Intervals are
// half-open, so boundary hours belong to the later bucket. Hours
// outside [0,24) are folded back into range.
func PeriodOfDay(hour int) Period {
	hour = ((hour % 24) + 24) % 24
	switch {
	case hour < 6:
		return PeriodNight
	case hour < 12:
		return PeriodMorning
	case hour < 18:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}

// FraudRate returns missing/total as a percentage. A zero or negative
// total yields 0 rather than a division error. The result is not
// clamped: multiple missing items per order can push it past 100.
func FraudRate(missing, total int) float64 {
	if total <= 0 || missing <= 0 {
		return 0
	}
	return float64(missing) / float64(total) * 100
}

// RollingAverage returns the simple moving average of series over the
// trailing window. The window shrinks at the head of the series, so
// out[0] == series[0] and no element is ever undefined.
func RollingAverage(series []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(series))
	var sum float64
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// BuildDriverAggregates rolls orders up per driver and joins the driver
// roster for name and age. Drivers with no orders are included with
// zero counts so the roster stays complete. Output is sorted by
// complaint rate descending, then driver id for determinism.
func BuildDriverAggregates(ds *Dataset) []DriverAggregate {
	if ds.Empty() && (ds == nil || len(ds.Drivers) == 0) {
		return nil
	}

	byID := make(map[string]*DriverAggregate)
	order := make([]string, 0, len(ds.Drivers))
	for _, d := range ds.Drivers {
		if _, ok := byID[d.DriverID]; ok {
			continue
		}
		byID[d.DriverID] = &DriverAggregate{DriverID: d.DriverID, Name: d.Name, Age: d.Age}
		order = append(order, d.DriverID)
	}
	for _, o := range ds.Orders {
		agg, ok := byID[o.DriverID]
		if !ok {
			// Order references a driver missing from the roster.
			agg = &DriverAggregate{DriverID: o.DriverID, Name: o.DriverID}
			byID[o.DriverID] = agg
			order = append(order, o.DriverID)
		}
		agg.Deliveries++
		agg.MissingItems += o.ItemsMissing
	}

	out := make([]DriverAggregate, 0, len(order))
	for _, id := range order {
		agg := byID[id]
		if agg.Deliveries > 0 {
			agg.AvgMissing = round2(float64(agg.MissingItems) / float64(agg.Deliveries))
		}
		agg.ComplaintRate = round2(FraudRate(agg.MissingItems, agg.Deliveries))
		out = append(out, *agg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ComplaintRate != out[j].ComplaintRate {
			return out[i].ComplaintRate > out[j].ComplaintRate
		}
		return out[i].DriverID < out[j].DriverID
	})
	return out
}

// BuildCustomerAggregates rolls orders up per customer, joining the
// customer table for name and age.
func BuildCustomerAggregates(ds *Dataset) []CustomerAggregate {
	if ds.Empty() {
		return nil
	}

	names := make(map[string]Customer, len(ds.Customers))
	for _, c := range ds.Customers {
		names[c.CustomerID] = c
	}

	byID := make(map[string]*CustomerAggregate)
	var order []string
	for _, o := range ds.Orders {
		agg, ok := byID[o.CustomerID]
		if !ok {
			agg = &CustomerAggregate{CustomerID: o.CustomerID}
			if c, found := names[o.CustomerID]; found {
				agg.Name = c.Name
				agg.Age = c.Age
			} else {
				agg.Name = o.CustomerID
			}
			byID[o.CustomerID] = agg
			order = append(order, o.CustomerID)
		}
		agg.Orders++
		agg.MissingItems += o.ItemsMissing
	}

	out := make([]CustomerAggregate, 0, len(order))
	for _, id := range order {
		agg := byID[id]
		if agg.Orders > 0 {
			agg.AvgMissing = round2(float64(agg.MissingItems) / float64(agg.Orders))
		}
		agg.ComplaintRate = round2(FraudRate(agg.MissingItems, agg.Orders))
		out = append(out, *agg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ComplaintRate != out[j].ComplaintRate {
			return out[i].ComplaintRate > out[j].ComplaintRate
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out
}

// BuildRegionAggregates rolls orders up per region and computes the
// weighted risk score across the result. Output is sorted by risk
// score descending.
func BuildRegionAggregates(ds *Dataset) []RegionAggregate {
	if ds.Empty() {
		return nil
	}

	byRegion := make(map[string]*RegionAggregate)
	var order []string
	for _, o := range ds.Orders {
		region := o.Region
		if region == "" {
			region = "Unknown"
		}
		agg, ok := byRegion[region]
		if !ok {
			agg = &RegionAggregate{Region: region}
			byRegion[region] = agg
			order = append(order, region)
		}
		agg.Orders++
		agg.MissingItems += o.ItemsMissing
		agg.AmountTotal += o.Amount
	}

	out := make([]RegionAggregate, 0, len(order))
	for _, region := range order {
		agg := byRegion[region]
		if agg.Orders > 0 {
			agg.AvgMissing = round2(float64(agg.MissingItems) / float64(agg.Orders))
		}
		agg.ComplaintRate = round2(FraudRate(agg.MissingItems, agg.Orders))
		agg.AmountTotal = round2(agg.AmountTotal)
		out = append(out, *agg)
	}
	ApplyRiskScores(out)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RiskScore != out[j].RiskScore {
			return out[i].RiskScore > out[j].RiskScore
		}
		return out[i].Region < out[j].Region
	})
	return out
}

// Risk score weights: complaint rate dominates, average missing items
// per order breaks ties between equally noisy regions.
const (
	riskRateWeight    = 0.7
	riskMissingWeight = 0.3
)

// ApplyRiskScores fills in RiskScore for every region as the weighted
// sum of the normalized complaint rate and normalized average missing
// items. Columns whose maximum is zero normalize to zero.
func ApplyRiskScores(regions []RegionAggregate) {
	var maxRate, maxMissing float64
	for _, r := range regions {
		if r.ComplaintRate > maxRate {
			maxRate = r.ComplaintRate
		}
		if r.AvgMissing > maxMissing {
			maxMissing = r.AvgMissing
		}
	}
	for i := range regions {
		var score float64
		if maxRate > 0 {
			score += riskRateWeight * regions[i].ComplaintRate / maxRate
		}
		if maxMissing > 0 {
			score += riskMissingWeight * regions[i].AvgMissing / maxMissing
		}
		regions[i].RiskScore = round2(score)
	}
}

// ProblematicRegions returns the regions whose complaint rate exceeds
// mean+std of the per-region rates. With fewer than two regions the
// standard deviation is undefined and no region is flagged.
func ProblematicRegions(regions []RegionAggregate) []RegionAggregate {
	if len(regions) < 2 {
		return nil
	}
	rates := make([]float64, len(regions))
	for i, r := range regions {
		rates[i] = r.ComplaintRate
	}
	mean, std := stat.MeanStdDev(rates, nil)
	threshold := mean + std

	var out []RegionAggregate
	for _, r := range regions {
		if r.ComplaintRate > threshold {
			out = append(out, r)
		}
	}
	return out
}

// BuildHourBuckets rolls orders up per delivery hour. Only hours that
// occur in the data are emitted, sorted ascending.
func BuildHourBuckets(ds *Dataset) []HourBucket {
	if ds.Empty() {
		return nil
	}

	byHour := make(map[int]*HourBucket)
	for _, o := range ds.Orders {
		hour := ((o.Hour % 24) + 24) % 24
		b, ok := byHour[hour]
		if !ok {
			b = &HourBucket{Hour: hour, Period: PeriodOfDay(hour)}
			byHour[hour] = b
		}
		b.Orders++
		b.MissingItems += o.ItemsMissing
	}

	out := make([]HourBucket, 0, len(byHour))
	for _, b := range byHour {
		b.ComplaintRate = round2(FraudRate(b.MissingItems, b.Orders))
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// BuildDateBuckets rolls orders up per calendar date, adds the derived
// calendar fields, and computes the 7-day and 30-day rolling averages
// of the complaint rate. Output is chronologically sorted and
// deduplicated by date.
func BuildDateBuckets(ds *Dataset) []DateBucket {
	if ds.Empty() {
		return nil
	}

	byDate := make(map[time.Time]*DateBucket)
	for _, o := range ds.Orders {
		if o.Date.IsZero() {
			continue
		}
		day := o.Date.Truncate(24 * time.Hour)
		b, ok := byDate[day]
		if !ok {
			_, week := day.ISOWeek()
			b = &DateBucket{
				Date:    day,
				Weekday: day.Weekday().String(),
				Month:   int(day.Month()),
				Quarter: (int(day.Month())-1)/3 + 1,
				ISOWeek: week,
			}
			byDate[day] = b
		}
		b.Orders++
		b.MissingItems += o.ItemsMissing
	}

	out := make([]DateBucket, 0, len(byDate))
	for _, b := range byDate {
		b.ComplaintRate = round2(FraudRate(b.MissingItems, b.Orders))
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	rates := make([]float64, len(out))
	for i := range out {
		rates[i] = out[i].ComplaintRate
	}
	r7 := RollingAverage(rates, 7)
	r30 := RollingAverage(rates, 30)
	for i := range out {
		out[i].Rolling7 = round2(r7[i])
		out[i].Rolling30 = round2(r30[i])
	}
	return out
}

// BuildProductAggregates counts missing-item reports per product and
// joins the catalog for name, category and price. Reports against
// products missing from the catalog get a placeholder entry instead of
// being dropped. Output is sorted by reports descending.
func BuildProductAggregates(ds *Dataset) []ProductAggregate {
	if ds == nil || len(ds.MissingItems) == 0 {
		return nil
	}

	catalog := make(map[string]Product, len(ds.Products))
	for _, p := range ds.Products {
		catalog[p.ProductID] = p
	}

	counts := make(map[string]int)
	var order []string
	for _, m := range ds.MissingItems {
		if m.ProductID == "" {
			continue
		}
		if _, ok := counts[m.ProductID]; !ok {
			order = append(order, m.ProductID)
		}
		counts[m.ProductID]++
	}

	out := make([]ProductAggregate, 0, len(order))
	for _, id := range order {
		agg := ProductAggregate{ProductID: id, Reports: counts[id]}
		if p, ok := catalog[id]; ok {
			agg.Name = p.Name
			agg.Category = p.Category
			agg.Price = p.Price
		} else {
			agg.Name = fmt.Sprintf("Product %s", id)
			agg.Category = "Unknown"
		}
		agg.ValueLost = round2(agg.Price * float64(agg.Reports))
		out = append(out, agg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Reports != out[j].Reports {
			return out[i].Reports > out[j].Reports
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// BuildCategorySummaries groups product aggregates by category.
// Output is sorted by value lost descending.
func BuildCategorySummaries(products []ProductAggregate) []CategorySummary {
	if len(products) == 0 {
		return nil
	}

	byCat := make(map[string]*CategorySummary)
	var order []string
	sums := make(map[string]float64)
	for _, p := range products {
		s, ok := byCat[p.Category]
		if !ok {
			s = &CategorySummary{Category: p.Category}
			byCat[p.Category] = s
			order = append(order, p.Category)
		}
		s.Products++
		s.Reports += p.Reports
		s.ValueLost += p.ValueLost
		sums[p.Category] += p.Price
	}

	out := make([]CategorySummary, 0, len(order))
	for _, cat := range order {
		s := byCat[cat]
		if s.Products > 0 {
			s.MeanPrice = round2(sums[cat] / float64(s.Products))
		}
		s.ValueLost = round2(s.ValueLost)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ValueLost != out[j].ValueLost {
			return out[i].ValueLost > out[j].ValueLost
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// round2 matches the two-decimal rounding the derived tables have
// always displayed.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
