package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/export"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/filter"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/fraud"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/stats"
)

// envelope wraps every list payload with the dataset origin so
// synthetic fallback data is always visibly labeled.
type envelope struct {
	Origin  string `json:"origin"`
	Data    any    `json:"data"`
	Warning string `json:"warning,omitempty"`
}

// Summary is the KPI card payload for the overview page.
type Summary struct {
	Origin            string  `json:"origin"`
	TotalOrders       int     `json:"total_orders"`
	TotalMissingItems int     `json:"total_missing_items"`
	ComplaintRate     float64 `json:"complaint_rate"`
	Drivers           int     `json:"drivers"`
	Regions           int     `json:"regions"`
	SuspiciousDrivers int     `json:"suspicious_drivers"`
	FirstDate         string  `json:"first_date,omitempty"`
	LastDate          string  `json:"last_date,omitempty"`
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}

	summary := Summary{Origin: ds.Origin}
	missing := 0
	for _, o := range ds.Orders {
		missing += o.ItemsMissing
	}
	summary.TotalOrders = len(ds.Orders)
	summary.TotalMissingItems = missing
	summary.ComplaintRate = fraud.FraudRate(missing, len(ds.Orders))

	drivers := fraud.BuildDriverAggregates(ds)
	summary.Drivers = len(drivers)
	summary.SuspiciousDrivers = fraud.MarkSuspicious(drivers, s.Thresholds())
	summary.Regions = len(fraud.BuildRegionAggregates(ds))

	if buckets := fraud.BuildDateBuckets(ds); len(buckets) > 0 {
		summary.FirstDate = buckets[0].Date.Format(time.DateOnly)
		summary.LastDate = buckets[len(buckets)-1].Date.Format(time.DateOnly)
	}

	s.writeJSON(w, summary)
}

func (s *Server) listDrivers(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	drivers := fraud.BuildDriverAggregates(ds)
	fraud.MarkSuspicious(drivers, s.Thresholds())
	s.writeJSON(w, envelope{Origin: ds.Origin, Data: drivers})
}

func (s *Server) listSuspiciousDrivers(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	suspicious := fraud.SuspiciousDrivers(fraud.BuildDriverAggregates(ds), s.Thresholds())
	s.writeJSON(w, envelope{Origin: ds.Origin, Data: suspicious})
}

func (s *Server) listSuspiciousCustomers(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	suspicious := fraud.SuspiciousCustomers(fraud.BuildCustomerAggregates(ds), s.Thresholds())
	s.writeJSON(w, envelope{Origin: ds.Origin, Data: suspicious})
}

func (s *Server) listRegions(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	regions := filter.ByRegion(fraud.BuildRegionAggregates(ds), r.URL.Query().Get("region"))
	s.writeJSON(w, envelope{Origin: ds.Origin, Data: regions})
}

func (s *Server) listProblematicRegions(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	regions := fraud.BuildRegionAggregates(ds)
	problematic := fraud.ProblematicRegions(regions)
	resp := envelope{Origin: ds.Origin, Data: problematic}
	if len(regions) < 2 {
		resp.Warning = "need at least 2 regions to compute the mean+std threshold"
	}
	s.writeJSON(w, resp)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	products := filter.ByCategory(fraud.BuildProductAggregates(ds), r.URL.Query().Get("category"))
	s.writeJSON(w, envelope{Origin: ds.Origin, Data: products})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	summaries := fraud.BuildCategorySummaries(fraud.BuildProductAggregates(ds))
	s.writeJSON(w, envelope{Origin: ds.Origin, Data: summaries})
}

func (s *Server) listHourly(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	s.writeJSON(w, envelope{Origin: ds.Origin, Data: fraud.BuildHourBuckets(ds)})
}

// parseDateRange reads optional start/end query parameters in
// YYYY-MM-DD form.
func parseDateRange(r *http.Request) (start, end time.Time, err error) {
	if q := r.URL.Query().Get("start"); q != "" {
		start, err = time.Parse(time.DateOnly, q)
		if err != nil {
			return start, end, fmt.Errorf("invalid 'start' parameter %q", q)
		}
	}
	if q := r.URL.Query().Get("end"); q != "" {
		end, err = time.Parse(time.DateOnly, q)
		if err != nil {
			return start, end, fmt.Errorf("invalid 'end' parameter %q", q)
		}
	}
	return start, end, nil
}

func (s *Server) listTrend(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	buckets := filter.ByDateRange(fraud.BuildDateBuckets(ds), start, end)
	s.writeJSON(w, envelope{Origin: ds.Origin, Data: buckets})
}

// anomalyResponse reports the IQR bounds and the rows flagged outside
// them.
type anomalyResponse struct {
	Origin    string       `json:"origin"`
	Dataset   string       `json:"dataset"`
	Column    string       `json:"column"`
	Bounds    stats.Bounds `json:"bounds"`
	Total     int          `json:"total_rows"`
	Flagged   int          `json:"flagged_rows"`
	Anomalies any          `json:"anomalies"`
}

func (s *Server) showAnomalies(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}

	k := s.cfg.IQRFactor()
	if q := r.URL.Query().Get("k"); q != "" {
		parsed, err := strconv.ParseFloat(q, 64)
		if err != nil || parsed <= 0 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'k' parameter")
			return
		}
		k = parsed
	}

	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}

	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		dataset = "drivers"
	}
	column := r.URL.Query().Get("column")

	resp := anomalyResponse{Origin: ds.Origin, Dataset: dataset, Column: column}

	switch dataset {
	case "drivers":
		rows := fraud.BuildDriverAggregates(ds)
		if column == "" {
			column = "complaint_rate"
		}
		values := make([]float64, len(rows))
		for i, row := range rows {
			switch column {
			case "complaint_rate":
				values[i] = row.ComplaintRate
			case "avg_missing_items":
				values[i] = row.AvgMissing
			default:
				s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown column %q for drivers", column))
				return
			}
		}
		flags, bounds := stats.FlagAnomalies(values, k)
		var anomalies []fraud.DriverAggregate
		for i, flagged := range flags {
			if flagged {
				anomalies = append(anomalies, rows[i])
			}
		}
		resp.Column, resp.Bounds, resp.Total, resp.Flagged, resp.Anomalies = column, bounds, len(rows), len(anomalies), anomalies

	case "regions":
		rows := fraud.BuildRegionAggregates(ds)
		if column == "" {
			column = "complaint_rate"
		}
		values := make([]float64, len(rows))
		for i, row := range rows {
			switch column {
			case "complaint_rate":
				values[i] = row.ComplaintRate
			case "risk_score":
				values[i] = row.RiskScore
			default:
				s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown column %q for regions", column))
				return
			}
		}
		flags, bounds := stats.FlagAnomalies(values, k)
		var anomalies []fraud.RegionAggregate
		for i, flagged := range flags {
			if flagged {
				anomalies = append(anomalies, rows[i])
			}
		}
		resp.Column, resp.Bounds, resp.Total, resp.Flagged, resp.Anomalies = column, bounds, len(rows), len(anomalies), anomalies

	case "products":
		rows := fraud.BuildProductAggregates(ds)
		if column == "" {
			column = "value_lost"
		}
		values := make([]float64, len(rows))
		for i, row := range rows {
			switch column {
			case "value_lost":
				values[i] = row.ValueLost
			case "total_reports":
				values[i] = float64(row.Reports)
			default:
				s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown column %q for products", column))
				return
			}
		}
		flags, bounds := stats.FlagAnomalies(values, k)
		var anomalies []fraud.ProductAggregate
		for i, flagged := range flags {
			if flagged {
				anomalies = append(anomalies, rows[i])
			}
		}
		resp.Column, resp.Bounds, resp.Total, resp.Flagged, resp.Anomalies = column, bounds, len(rows), len(anomalies), anomalies

	default:
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown dataset %q", dataset))
		return
	}

	s.writeJSON(w, resp)
}

// clusterAssignment pairs an entity with its cluster id.
type clusterAssignment struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Cluster int    `json:"cluster"`
}

type clusterResponse struct {
	Origin      string              `json:"origin"`
	Dataset     string              `json:"dataset"`
	Clusters    int                 `json:"clusters"`
	Sizes       []int               `json:"sizes"`
	Assignments []clusterAssignment `json:"assignments"`
	Warning     string              `json:"warning,omitempty"`
}

func (s *Server) showClusters(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}

	n := s.cfg.Clusters()
	if q := r.URL.Query().Get("n"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 || parsed > 10 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'n' parameter")
			return
		}
		n = parsed
	}

	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}

	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		dataset = "drivers"
	}

	var (
		features [][]float64
		ids      []string
		names    []string
	)
	switch dataset {
	case "drivers":
		rows := fraud.BuildDriverAggregates(ds)
		for _, row := range rows {
			features = append(features, []float64{
				float64(row.Deliveries),
				float64(row.MissingItems),
				row.AvgMissing,
				row.ComplaintRate,
			})
			ids = append(ids, row.DriverID)
			names = append(names, row.Name)
		}
	case "customers":
		rows := fraud.BuildCustomerAggregates(ds)
		for _, row := range rows {
			features = append(features, []float64{
				float64(row.Orders),
				float64(row.MissingItems),
				row.AvgMissing,
				row.ComplaintRate,
			})
			ids = append(ids, row.CustomerID)
			names = append(names, row.Name)
		}
	case "regions":
		rows := fraud.BuildRegionAggregates(ds)
		for _, row := range rows {
			features = append(features, []float64{
				float64(row.Orders),
				row.AvgMissing,
				row.ComplaintRate,
			})
			ids = append(ids, row.Region)
			names = append(names, row.Region)
		}
	default:
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown dataset %q", dataset))
		return
	}

	result := stats.Cluster(features, n)
	resp := clusterResponse{
		Origin:   ds.Origin,
		Dataset:  dataset,
		Clusters: result.Clusters,
		Sizes:    make([]int, n),
		Warning:  result.Warning,
	}
	for i, label := range result.Labels {
		resp.Assignments = append(resp.Assignments, clusterAssignment{ID: ids[i], Name: names[i], Cluster: label})
		if label >= 0 && label < n {
			resp.Sizes[label]++
		}
	}
	s.writeJSON(w, resp)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.writeJSON(w, map[string]any{
		"origin":                s.source.Origin(),
		"suspicious_rate_pct":   s.cfg.RatePct(),
		"suspicious_min_volume": s.cfg.MinVolume(),
		"anomaly_iqr_factor":    s.cfg.IQRFactor(),
		"cluster_count":         s.cfg.Clusters(),
		"cache_ttl":             s.cfg.TTL().String(),
	})
}

// exportTable builds the named derived table for download endpoints.
func (s *Server) exportTable(r *http.Request, ds *fraud.Dataset) (export.Table, error) {
	dataset := r.URL.Query().Get("dataset")
	switch dataset {
	case "", "drivers":
		drivers := fraud.BuildDriverAggregates(ds)
		fraud.MarkSuspicious(drivers, s.Thresholds())
		return export.DriversTable(drivers), nil
	case "customers":
		return export.CustomersTable(fraud.BuildCustomerAggregates(ds)), nil
	case "regions":
		return export.RegionsTable(fraud.BuildRegionAggregates(ds)), nil
	case "products":
		return export.ProductsTable(fraud.BuildProductAggregates(ds)), nil
	case "hourly":
		return export.HourlyTable(fraud.BuildHourBuckets(ds)), nil
	case "trend":
		return export.TrendTable(fraud.BuildDateBuckets(ds)), nil
	default:
		return export.Table{}, fmt.Errorf("unknown dataset %q", dataset)
	}
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	table, err := s.exportTable(r, ds)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", table.Filename("csv")))
	if err := export.WriteCSV(w, table); err != nil {
		log.Printf("failed to write CSV export: %v", err)
	}
}

func (s *Server) exportMarkdown(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	table, err := s.exportTable(r, ds)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", table.Filename("md")))
	if err := export.WriteMarkdown(w, table); err != nil {
		log.Printf("failed to write Markdown export: %v", err)
	}
}

func (s *Server) exportTrendPNG(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ds, err := s.Dataset(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}
	buckets := filter.ByDateRange(fraud.BuildDateBuckets(ds), start, end)
	if len(buckets) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no trend data in the selected range")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := export.WriteTrendPNG(w, buckets); err != nil {
		log.Printf("failed to write trend plot: %v", err)
	}
}
