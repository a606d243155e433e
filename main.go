package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/api"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/cache"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/config"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/dashboard"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/db"
	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/timeutil"
)

var (
	devMode    = flag.Bool("dev", false, "Serve deterministic synthetic data instead of the database")
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "fraud.db", "Path to the SQLite database")
	configFile = flag.String("config", "", "Path to an analysis config JSON file")
	cacheTTL   = flag.Duration("cache-ttl", 0, "Override the dataset cache TTL from config")
	seed       = flag.Int64("seed", 42, "Seed for the synthetic dataset in dev mode")
)

func main() {
	flag.Parse()

	// "migrate" subcommand manages the schema and exits.
	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], *dbFile)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	synthetic := db.NewSyntheticSource(*seed)

	var (
		source db.Source
		store  *db.DB
	)
	if *devMode {
		log.Printf("dev mode: serving synthetic data (seed=%d)", *seed)
		source = synthetic
	} else {
		var err error
		store, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer store.Close()
		// Fall back to synthetic data when the database is empty or
		// unreadable so the dashboard always has something to show.
		source = db.NewFallbackSource(db.NewSQLiteSource(store), synthetic)
	}

	ttl := cfg.TTL()
	if *cacheTTL > 0 {
		ttl = *cacheTTL
	}
	datasetCache := cache.New(ttl, timeutil.NewRealClock())
	srv := api.NewServer(source, datasetCache, cfg)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		if store != nil {
			store.AttachAdminRoutes(mux)
		}

		mux.Handle("/api/", http.StripPrefix("/api", srv.ServeMux()))
		mux.Handle("/dashboard/", dashboard.New(srv, cfg).ServeMux())
		mux.Handle("/", http.RedirectHandler("/dashboard/overview", http.StatusFound))

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
