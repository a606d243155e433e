package stats

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// clusterSeed fixes the centroid initialization so repeated runs over
// the same data assign the same cluster ids.
const clusterSeed = 42

const maxKMeansIterations = 100

// ClusterResult carries the per-row cluster assignment. Warning is
// non-empty when clustering was skipped and Labels mirrors the input
// unchanged (all zeros).
type ClusterResult struct {
	Labels   []int  `json:"labels"`
	Clusters int    `json:"clusters"`
	Warning  string `json:"warning,omitempty"`
}

// Cluster standardizes the feature matrix (zero mean, unit variance
// per column, missing values mean-imputed first) and runs k-means with
// a fixed seed. rows is row-major: rows[i][j] is row i's value for
// feature j; NaN marks a missing value.
//
// The row count of the result always equals len(rows). If fewer than
// two feature columns are supplied, or fewer than n distinct rows
// exist, the input is returned unchanged with a warning instead of an
// error.
func Cluster(rows [][]float64, n int) ClusterResult {
	res := ClusterResult{Labels: make([]int, len(rows)), Clusters: n}
	if len(rows) == 0 {
		res.Warning = "no rows to cluster"
		return res
	}
	cols := len(rows[0])
	if cols < 2 {
		res.Warning = "need at least 2 numeric columns for clustering"
		return res
	}
	if n < 1 {
		res.Warning = "cluster count must be at least 1"
		return res
	}

	features := standardize(imputeMeans(rows, cols), cols)

	if distinctRows(features) < n {
		res.Warning = "fewer distinct rows than requested clusters"
		return res
	}

	res.Labels = kmeans(features, n)
	return res
}

// imputeMeans replaces NaN cells with the column mean. A column with
// no usable values at all imputes to zero.
func imputeMeans(rows [][]float64, cols int) *mat.Dense {
	m := mat.NewDense(len(rows), cols, nil)
	for j := 0; j < cols; j++ {
		var sum float64
		var count int
		for _, row := range rows {
			if j < len(row) && !math.IsNaN(row[j]) {
				sum += row[j]
				count++
			}
		}
		mean := 0.0
		if count > 0 {
			mean = sum / float64(count)
		}
		for i, row := range rows {
			v := mean
			if j < len(row) && !math.IsNaN(row[j]) {
				v = row[j]
			}
			m.Set(i, j, v)
		}
	}
	return m
}

// standardize rescales each column to zero mean and unit variance.
// Constant columns are left at zero after centering.
func standardize(m *mat.Dense, cols int) *mat.Dense {
	rows, _ := m.Dims()
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		mean, std := stat.MeanStdDev(col, nil)
		for i := 0; i < rows; i++ {
			v := col[i] - mean
			if std > 0 {
				v /= std
			}
			m.Set(i, j, v)
		}
	}
	return m
}

func distinctRows(m *mat.Dense) int {
	rows, cols := m.Dims()
	seen := make(map[string]struct{}, rows)
	buf := make([]byte, 0, cols*8)
	for i := 0; i < rows; i++ {
		buf = buf[:0]
		for j := 0; j < cols; j++ {
			bits := math.Float64bits(m.At(i, j))
			for s := 0; s < 64; s += 8 {
				buf = append(buf, byte(bits>>s))
			}
		}
		seen[string(buf)] = struct{}{}
	}
	return len(seen)
}

// kmeans runs Lloyd's algorithm with seeded random initial centroids
// drawn from distinct data rows.
func kmeans(m *mat.Dense, n int) []int {
	rows, cols := m.Dims()
	rng := rand.New(rand.NewSource(clusterSeed))

	centroids := initialCentroids(m, n, rng)
	labels := make([]int, rows)
	row := make([]float64, cols)

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i := 0; i < rows; i++ {
			mat.Row(row, i, m)
			best, bestDist := 0, math.Inf(1)
			for c := range centroids {
				d := floats.Distance(row, centroids[c], 2)
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, n)
		sums := make([][]float64, n)
		for c := range sums {
			sums[c] = make([]float64, cols)
		}
		for i := 0; i < rows; i++ {
			mat.Row(row, i, m)
			floats.Add(sums[labels[i]], row)
			counts[labels[i]]++
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Empty cluster keeps its previous centroid.
				continue
			}
			floats.ScaleTo(centroids[c], 1/float64(counts[c]), sums[c])
		}
	}
	return labels
}

func initialCentroids(m *mat.Dense, n int, rng *rand.Rand) [][]float64 {
	rows, cols := m.Dims()
	centroids := make([][]float64, 0, n)
	used := make(map[string]struct{}, n)

	for _, i := range rng.Perm(rows) {
		row := make([]float64, cols)
		mat.Row(row, i, m)
		key := rowKey(row)
		if _, ok := used[key]; ok {
			continue
		}
		used[key] = struct{}{}
		centroids = append(centroids, row)
		if len(centroids) == n {
			break
		}
	}
	return centroids
}

func rowKey(row []float64) string {
	buf := make([]byte, 0, len(row)*8)
	for _, v := range row {
		bits := math.Float64bits(v)
		for s := 0; s < 64; s += 8 {
			buf = append(buf, byte(bits>>s))
		}
	}
	return string(buf)
}
