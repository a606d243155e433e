// Package api serves the derived fraud tables as JSON. Handlers read
// from the TTL-cached dataset, apply the query-string filters, and
// never write to storage.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/cache"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/config"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/db"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/fraud"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const datasetCacheKey = "dataset"

type Server struct {
	source db.Source
	cache  *cache.Cache
	cfg    *config.AnalysisConfig
}

func NewServer(source db.Source, c *cache.Cache, cfg *config.AnalysisConfig) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		source: source,
		cache:  c,
		cfg:    cfg,
	}
}

// Dataset returns the current dataset, loading through the cache so
// storage is read at most once per expiry window.
func (s *Server) Dataset(ctx context.Context) (*fraud.Dataset, error) {
	return cache.Through(s.cache, datasetCacheKey, func() (*fraud.Dataset, error) {
		return s.source.Load(ctx)
	})
}

// Thresholds returns the configured suspicious cutoffs.
func (s *Server) Thresholds() fraud.Thresholds {
	return fraud.Thresholds{RatePct: s.cfg.RatePct(), MinVolume: s.cfg.MinVolume()}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the JSON API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/summary", s.showSummary)
	mux.HandleFunc("/drivers", s.listDrivers)
	mux.HandleFunc("/drivers/suspicious", s.listSuspiciousDrivers)
	mux.HandleFunc("/customers/suspicious", s.listSuspiciousCustomers)
	mux.HandleFunc("/regions", s.listRegions)
	mux.HandleFunc("/regions/problematic", s.listProblematicRegions)
	mux.HandleFunc("/products", s.listProducts)
	mux.HandleFunc("/categories", s.listCategories)
	mux.HandleFunc("/hourly", s.listHourly)
	mux.HandleFunc("/trend", s.listTrend)
	mux.HandleFunc("/anomalies", s.showAnomalies)
	mux.HandleFunc("/clusters", s.showClusters)
	mux.HandleFunc("/config", s.showConfig)
	mux.HandleFunc("/export/csv", s.exportCSV)
	mux.HandleFunc("/export/markdown", s.exportMarkdown)
	mux.HandleFunc("/export/trend.png", s.exportTrendPNG)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// requireGet enforces the read-only contract of the analysis API.
func (s *Server) requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
