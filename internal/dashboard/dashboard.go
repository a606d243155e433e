// Package dashboard renders the server-side ECharts pages for the
// fraud analysis UI. Each page is a self-contained HTML document so it
// can be inspected without any frontend build step.
package dashboard

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/api"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/config"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/filter"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/fraud"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/stats"
)

// viridisPalette is used for every VisualMap gradient so the pages
// share one visual language.
var viridisPalette = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// Dashboard serves the chart pages on top of the API server's cached
// dataset.
type Dashboard struct {
	srv *api.Server
	cfg *config.AnalysisConfig
}

func New(srv *api.Server, cfg *config.AnalysisConfig) *Dashboard {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Dashboard{srv: srv, cfg: cfg}
}

// ServeMux returns the /dashboard/* routes.
func (d *Dashboard) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard/", d.showOverview)
	mux.HandleFunc("/dashboard/overview", d.showOverview)
	mux.HandleFunc("/dashboard/regions", d.showRegions)
	mux.HandleFunc("/dashboard/drivers", d.showDrivers)
	mux.HandleFunc("/dashboard/hours", d.showHours)
	mux.HandleFunc("/dashboard/trend", d.showTrend)
	mux.HandleFunc("/dashboard/products", d.showProducts)
	mux.HandleFunc("/dashboard/patterns", d.showPatterns)
	return mux
}

func (d *Dashboard) renderError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<html><body><h2>Dashboard error</h2><p>%s</p></body></html>", msg)
}

func renderPage(w http.ResponseWriter, page *components.Page) {
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		http.Error(w, fmt.Sprintf("render error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// originSubtitle labels every chart with the dataset origin so a
// synthetic fallback is never mistaken for live data.
func originSubtitle(ds *fraud.Dataset, extra string) string {
	s := fmt.Sprintf("source=%s orders=%d", ds.Origin, len(ds.Orders))
	if extra != "" {
		s += " " + extra
	}
	return s
}

func (d *Dashboard) showOverview(w http.ResponseWriter, r *http.Request) {
	ds, err := d.srv.Dataset(r.Context())
	if err != nil {
		d.renderError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load dataset: %v", err))
		return
	}

	regions := fraud.BuildRegionAggregates(ds)
	x := make([]string, 0, len(regions))
	rates := make([]opts.BarData, 0, len(regions))
	for _, reg := range regions {
		x = append(x, reg.Region)
		rates = append(rates, opts.BarData{Value: reg.ComplaintRate})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Fraud Overview", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Complaint Rate by Region", Subtitle: originSubtitle(ds, "")}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("complaint rate (%)", rates,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	buckets := fraud.BuildDateBuckets(ds)
	dates := make([]string, 0, len(buckets))
	daily := make([]opts.LineData, 0, len(buckets))
	rolling := make([]opts.LineData, 0, len(buckets))
	for _, b := range buckets {
		dates = append(dates, b.Date.Format(time.DateOnly))
		daily = append(daily, opts.LineData{Value: b.ComplaintRate})
		rolling = append(rolling, opts.LineData{Value: b.Rolling7})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Daily Complaint Rate", Subtitle: fmt.Sprintf("days=%d", len(buckets))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(dates).
		AddSeries("daily", daily).
		AddSeries("7-day mean", rolling,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		)

	page := components.NewPage()
	page.PageTitle = "Fraud Overview"
	page.AddCharts(bar, line)
	renderPage(w, page)
}

func (d *Dashboard) showRegions(w http.ResponseWriter, r *http.Request) {
	ds, err := d.srv.Dataset(r.Context())
	if err != nil {
		d.renderError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load dataset: %v", err))
		return
	}

	regions := filter.ByRegion(fraud.BuildRegionAggregates(ds), r.URL.Query().Get("region"))
	if len(regions) == 0 {
		d.renderError(w, http.StatusNotFound, "no regions in the dataset")
		return
	}

	x := make([]string, 0, len(regions))
	risk := make([]opts.BarData, 0, len(regions))
	rate := make([]opts.BarData, 0, len(regions))
	for _, reg := range regions {
		x = append(x, reg.Region)
		risk = append(risk, opts.BarData{Value: reg.RiskScore})
		rate = append(rate, opts.BarData{Value: reg.ComplaintRate})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Regions", Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Region Risk", Subtitle: originSubtitle(ds, fmt.Sprintf("regions=%d", len(regions)))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("risk score", risk).
		AddSeries("complaint rate (%)", rate)

	page := components.NewPage()
	page.PageTitle = "Regions"
	page.AddCharts(bar)
	renderPage(w, page)
}

// showDrivers plots every driver as deliveries vs complaint rate with
// the average missing items driving the color gradient. Suspicious
// drivers cluster in the upper right.
func (d *Dashboard) showDrivers(w http.ResponseWriter, r *http.Request) {
	ds, err := d.srv.Dataset(r.Context())
	if err != nil {
		d.renderError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load dataset: %v", err))
		return
	}

	drivers := fraud.BuildDriverAggregates(ds)
	flagged := fraud.MarkSuspicious(drivers, d.srv.Thresholds())
	if len(drivers) == 0 {
		d.renderError(w, http.StatusNotFound, "no drivers in the dataset")
		return
	}

	data := make([]opts.ScatterData, 0, len(drivers))
	maxAvg := 0.0
	for _, drv := range drivers {
		if drv.AvgMissing > maxAvg {
			maxAvg = drv.AvgMissing
		}
		data = append(data, opts.ScatterData{
			Name:  drv.Name,
			Value: []interface{}{drv.Deliveries, drv.ComplaintRate, drv.AvgMissing},
		})
	}
	if maxAvg == 0 {
		maxAvg = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Drivers", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Drivers: Deliveries vs Complaint Rate", Subtitle: originSubtitle(ds, fmt.Sprintf("drivers=%d suspicious=%d", len(drivers), flagged))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "deliveries", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "complaint rate (%)", NameLocation: "middle", NameGap: 35}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxAvg),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisPalette},
		}),
	)
	scatter.AddSeries("drivers", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	page := components.NewPage()
	page.PageTitle = "Drivers"
	page.AddCharts(scatter)
	renderPage(w, page)
}

func (d *Dashboard) showHours(w http.ResponseWriter, r *http.Request) {
	ds, err := d.srv.Dataset(r.Context())
	if err != nil {
		d.renderError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load dataset: %v", err))
		return
	}

	buckets := fraud.BuildHourBuckets(ds)
	if len(buckets) == 0 {
		d.renderError(w, http.StatusNotFound, "no hourly data in the dataset")
		return
	}

	x := make([]string, 0, len(buckets))
	rates := make([]opts.BarData, 0, len(buckets))
	orders := make([]opts.BarData, 0, len(buckets))
	for _, b := range buckets {
		x = append(x, fmt.Sprintf("%02d:00 (%s)", b.Hour, b.Period))
		rates = append(rates, opts.BarData{Value: b.ComplaintRate})
		orders = append(orders, opts.BarData{Value: b.Orders})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Hours", Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Complaints by Delivery Hour", Subtitle: originSubtitle(ds, "")}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("complaint rate (%)", rates).
		AddSeries("orders", orders)

	page := components.NewPage()
	page.PageTitle = "Hours"
	page.AddCharts(bar)
	renderPage(w, page)
}

func (d *Dashboard) showTrend(w http.ResponseWriter, r *http.Request) {
	ds, err := d.srv.Dataset(r.Context())
	if err != nil {
		d.renderError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load dataset: %v", err))
		return
	}

	buckets := fraud.BuildDateBuckets(ds)
	if start := r.URL.Query().Get("start"); start != "" {
		if t, err := time.Parse(time.DateOnly, start); err == nil {
			buckets = filter.ByDateRange(buckets, t, time.Time{})
		}
	}
	if end := r.URL.Query().Get("end"); end != "" {
		if t, err := time.Parse(time.DateOnly, end); err == nil {
			buckets = filter.ByDateRange(buckets, time.Time{}, t)
		}
	}
	if len(buckets) == 0 {
		d.renderError(w, http.StatusNotFound, "no trend data in the selected range")
		return
	}

	dates := make([]string, 0, len(buckets))
	daily := make([]opts.LineData, 0, len(buckets))
	week := make([]opts.LineData, 0, len(buckets))
	month := make([]opts.LineData, 0, len(buckets))
	for _, b := range buckets {
		dates = append(dates, b.Date.Format(time.DateOnly))
		daily = append(daily, opts.LineData{Value: b.ComplaintRate})
		week = append(week, opts.LineData{Value: b.Rolling7})
		month = append(month, opts.LineData{Value: b.Rolling30})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Trend", Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Complaint Rate Trend", Subtitle: originSubtitle(ds, fmt.Sprintf("days=%d", len(buckets)))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(dates).
		AddSeries("daily", daily).
		AddSeries("7-day mean", week, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)})).
		AddSeries("30-day mean", month, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	page := components.NewPage()
	page.PageTitle = "Trend"
	page.AddCharts(line)
	renderPage(w, page)
}

func (d *Dashboard) showProducts(w http.ResponseWriter, r *http.Request) {
	ds, err := d.srv.Dataset(r.Context())
	if err != nil {
		d.renderError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load dataset: %v", err))
		return
	}

	products := filter.ByCategory(fraud.BuildProductAggregates(ds), r.URL.Query().Get("category"))
	if len(products) == 0 {
		d.renderError(w, http.StatusNotFound, "no products in the dataset")
		return
	}
	// Aggregates arrive sorted by report count, keep the top slice
	// readable.
	const topN = 20
	if len(products) > topN {
		products = products[:topN]
	}

	x := make([]string, 0, len(products))
	reports := make([]opts.BarData, 0, len(products))
	lost := make([]opts.BarData, 0, len(products))
	for _, p := range products {
		x = append(x, p.Name)
		reports = append(reports, opts.BarData{Value: p.Reports})
		lost = append(lost, opts.BarData{Value: p.ValueLost})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Products", Width: "100%", Height: "560px"}),
		charts.WithTitleOpts(opts.Title{Title: "Most Reported Products", Subtitle: originSubtitle(ds, fmt.Sprintf("showing=%d", len(products)))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("reports", reports).
		AddSeries("value lost ($)", lost)

	page := components.NewPage()
	page.PageTitle = "Products"
	page.AddCharts(bar)
	renderPage(w, page)
}

// showPatterns clusters drivers on their delivery behaviour and plots
// the result with each cluster driving the color gradient.
func (d *Dashboard) showPatterns(w http.ResponseWriter, r *http.Request) {
	ds, err := d.srv.Dataset(r.Context())
	if err != nil {
		d.renderError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load dataset: %v", err))
		return
	}

	drivers := fraud.BuildDriverAggregates(ds)
	if len(drivers) == 0 {
		d.renderError(w, http.StatusNotFound, "no drivers in the dataset")
		return
	}

	features := make([][]float64, 0, len(drivers))
	for _, drv := range drivers {
		features = append(features, []float64{
			float64(drv.Deliveries),
			float64(drv.MissingItems),
			drv.AvgMissing,
			drv.ComplaintRate,
		})
	}
	result := stats.Cluster(features, d.cfg.Clusters())
	extra := fmt.Sprintf("clusters=%d", result.Clusters)
	if result.Warning != "" {
		extra += " warning: " + result.Warning
	}

	data := make([]opts.ScatterData, 0, len(drivers))
	for i, drv := range drivers {
		label := 0
		if i < len(result.Labels) {
			label = result.Labels[i]
		}
		data = append(data, opts.ScatterData{
			Name:  drv.Name,
			Value: []interface{}{drv.Deliveries, drv.ComplaintRate, label},
		})
	}

	maxLabel := result.Clusters - 1
	if maxLabel < 1 {
		maxLabel = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Patterns", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Driver Behaviour Clusters", Subtitle: originSubtitle(ds, extra)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "deliveries", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "complaint rate (%)", NameLocation: "middle", NameGap: 35}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxLabel),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisPalette},
		}),
	)
	scatter.AddSeries("drivers", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 9}))

	page := components.NewPage()
	page.PageTitle = "Patterns"
	page.AddCharts(scatter)
	renderPage(w, page)
}
