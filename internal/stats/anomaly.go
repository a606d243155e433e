// Package stats holds the two statistical utilities shared across the
// dashboard pages: interquartile-range outlier flagging and
// standardized k-means clustering. Both are stateless and re-run per
// invocation; there is no trained model retained across calls.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultIQRFactor is the conventional whisker multiplier.
const DefaultIQRFactor = 1.5

// Bounds are the acceptance limits computed from the quartiles.
// Values strictly outside [Lower, Upper] are anomalous.
type Bounds struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	IQR   float64 `json:"iqr"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// FlagAnomalies marks the values falling outside Q1-k*IQR..Q3+k*IQR.
// Quartiles use linear interpolation. Deterministic; a column of
// identical values has IQR zero, the bounds collapse onto the constant
// and nothing is flagged. k <= 0 falls back to DefaultIQRFactor.
func FlagAnomalies(values []float64, k float64) ([]bool, Bounds) {
	flags := make([]bool, len(values))
	if len(values) == 0 {
		return flags, Bounds{}
	}
	if k <= 0 {
		k = DefaultIQRFactor
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	b := Bounds{
		Q1: stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Q3: stat.Quantile(0.75, stat.LinInterp, sorted, nil),
	}
	b.IQR = b.Q3 - b.Q1
	b.Lower = b.Q1 - k*b.IQR
	b.Upper = b.Q3 + k*b.IQR

	for i, v := range values {
		flags[i] = v < b.Lower || v > b.Upper
	}
	return flags, b
}
