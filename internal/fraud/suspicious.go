package fraud

// Thresholds is the single canonical configuration for the suspicious
// classification. A driver or customer is suspicious only when its
// complaint rate exceeds RatePct AND its volume reaches MinVolume:
// rate alone is not enough, so one bad delivery out of two cannot
// dominate the ranking.
type Thresholds struct {
	RatePct   float64 `json:"suspicious_rate_pct"`
	MinVolume int     `json:"suspicious_min_volume"`
}

// DefaultThresholds returns the canonical cutoffs: a complaint rate
// above 10% over at least 10 deliveries.
func DefaultThresholds() Thresholds {
	return Thresholds{RatePct: 10.0, MinVolume: 10}
}

// Exceeds reports whether a rate/volume pair clears both cutoffs.
func (t Thresholds) Exceeds(rate float64, volume int) bool {
	return rate > t.RatePct && volume >= t.MinVolume
}

// MarkSuspicious sets the Suspicious flag on every driver aggregate
// that clears the thresholds and returns how many were flagged.
func MarkSuspicious(drivers []DriverAggregate, t Thresholds) int {
	flagged := 0
	for i := range drivers {
		drivers[i].Suspicious = t.Exceeds(drivers[i].ComplaintRate, drivers[i].Deliveries)
		if drivers[i].Suspicious {
			flagged++
		}
	}
	return flagged
}

// SuspiciousDrivers returns the driver aggregates that clear the
// thresholds, flagged, preserving the input's ordering.
func SuspiciousDrivers(drivers []DriverAggregate, t Thresholds) []DriverAggregate {
	var out []DriverAggregate
	for _, d := range drivers {
		if t.Exceeds(d.ComplaintRate, d.Deliveries) {
			d.Suspicious = true
			out = append(out, d)
		}
	}
	return out
}

// SuspiciousCustomers returns the customer aggregates that clear the
// thresholds, preserving the input's ordering.
func SuspiciousCustomers(customers []CustomerAggregate, t Thresholds) []CustomerAggregate {
	var out []CustomerAggregate
	for _, c := range customers {
		if t.Exceeds(c.ComplaintRate, c.Orders) {
			out = append(out, c)
		}
	}
	return out
}
