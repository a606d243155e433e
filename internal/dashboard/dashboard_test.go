package dashboard

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/api"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/cache"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/config"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/db"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/timeutil"
)

func testDashboard(t *testing.T) *Dashboard {
	t.Helper()
	c := cache.New(10*time.Minute, timeutil.NewMockClock(time.Now()))
	srv := api.NewServer(db.NewSyntheticSource(42), c, config.DefaultConfig())
	return New(srv, config.DefaultConfig())
}

func TestDashboardPagesRender(t *testing.T) {
	d := testDashboard(t)
	mux := d.ServeMux()

	pages := []string{
		"/dashboard/overview",
		"/dashboard/regions",
		"/dashboard/drivers",
		"/dashboard/hours",
		"/dashboard/trend",
		"/dashboard/products",
		"/dashboard/patterns",
	}
	for _, page := range pages {
		t.Run(strings.TrimPrefix(page, "/dashboard/"), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, page, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("content type = %q, want text/html", ct)
			}
			body := rec.Body.String()
			if !strings.Contains(body, "echarts") {
				t.Error("page does not embed an ECharts chart")
			}
			// Every chart labels its data source.
			if !strings.Contains(body, "source=synthetic") {
				t.Error("page does not label the dataset origin")
			}
		})
	}
}

func TestDashboardRootAlias(t *testing.T) {
	d := testDashboard(t)
	req := httptest.NewRequest(http.MethodGet, "/dashboard/", nil)
	rec := httptest.NewRecorder()
	d.ServeMux().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDashboardRegionFilter(t *testing.T) {
	d := testDashboard(t)
	req := httptest.NewRequest(http.MethodGet, "/dashboard/regions?region=Atlantis", nil)
	rec := httptest.NewRecorder()
	d.ServeMux().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for an unknown region", rec.Code)
	}
}
