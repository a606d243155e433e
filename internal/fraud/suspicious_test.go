package fraud

import "testing"

func TestThresholdsExceeds(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		rate   float64
		volume int
		want   bool
	}{
		{10.0, 10, false}, // rate must strictly exceed the cutoff
		{10.01, 10, true},
		{10.01, 9, false}, // volume cutoff is inclusive
		{50.0, 1, false},  // one bad delivery out of two is not enough
		{9.99, 100, false},
	}
	for _, c := range cases {
		if got := th.Exceeds(c.rate, c.volume); got != c.want {
			t.Errorf("Exceeds(%v, %d) = %v, want %v", c.rate, c.volume, got, c.want)
		}
	}
}

func TestMarkSuspicious(t *testing.T) {
	drivers := []DriverAggregate{
		{DriverID: "d1", ComplaintRate: 45.0, Deliveries: 120},
		{DriverID: "d2", ComplaintRate: 5.0, Deliveries: 200},
		{DriverID: "d3", ComplaintRate: 50.0, Deliveries: 2},
	}
	flagged := MarkSuspicious(drivers, DefaultThresholds())
	if flagged != 1 {
		t.Fatalf("flagged = %d, want 1", flagged)
	}
	if !drivers[0].Suspicious || drivers[1].Suspicious || drivers[2].Suspicious {
		t.Errorf("suspicious flags = %v %v %v, want true false false",
			drivers[0].Suspicious, drivers[1].Suspicious, drivers[2].Suspicious)
	}
}

func TestSuspiciousDrivers(t *testing.T) {
	drivers := []DriverAggregate{
		{DriverID: "d1", ComplaintRate: 45.0, Deliveries: 120},
		{DriverID: "d2", ComplaintRate: 30.0, Deliveries: 80},
		{DriverID: "d3", ComplaintRate: 5.0, Deliveries: 300},
	}
	out := SuspiciousDrivers(drivers, DefaultThresholds())
	if len(out) != 2 {
		t.Fatalf("got %d suspicious drivers, want 2", len(out))
	}
	if out[0].DriverID != "d1" || out[1].DriverID != "d2" {
		t.Errorf("ordering not preserved: %s, %s", out[0].DriverID, out[1].DriverID)
	}
	for _, d := range out {
		if !d.Suspicious {
			t.Errorf("driver %s returned without the suspicious flag", d.DriverID)
		}
	}
	// The input slice is not mutated.
	if drivers[0].Suspicious {
		t.Error("SuspiciousDrivers mutated its input")
	}
}

func TestSuspiciousCustomers(t *testing.T) {
	customers := []CustomerAggregate{
		{CustomerID: "c1", ComplaintRate: 80.0, Orders: 15},
		{CustomerID: "c2", ComplaintRate: 80.0, Orders: 3},
	}
	out := SuspiciousCustomers(customers, DefaultThresholds())
	if len(out) != 1 || out[0].CustomerID != "c1" {
		t.Fatalf("SuspiciousCustomers = %+v, want only c1", out)
	}
}

func TestSuspiciousCustomThresholds(t *testing.T) {
	th := Thresholds{RatePct: 50.0, MinVolume: 1}
	customers := []CustomerAggregate{
		{CustomerID: "c1", ComplaintRate: 80.0, Orders: 1},
		{CustomerID: "c2", ComplaintRate: 40.0, Orders: 100},
	}
	out := SuspiciousCustomers(customers, th)
	if len(out) != 1 || out[0].CustomerID != "c1" {
		t.Fatalf("SuspiciousCustomers with custom thresholds = %+v, want only c1", out)
	}
}
