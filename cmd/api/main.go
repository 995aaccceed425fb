package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Riesling1623/honeydash/internal/adapter/controller/http/handlers"
	"github.com/Riesling1623/honeydash/internal/adapter/controller/http/middleware"
	"github.com/Riesling1623/honeydash/internal/adapter/external/geoip"
	"github.com/Riesling1623/honeydash/internal/adapter/repository/clickhouse"
	"github.com/Riesling1623/honeydash/internal/adapter/repository/filestore"
	"github.com/Riesling1623/honeydash/internal/adapter/repository/sshsource"
	"github.com/Riesling1623/honeydash/internal/config"
	"github.com/Riesling1623/honeydash/internal/metrics"
	"github.com/Riesling1623/honeydash/internal/usecase/analysis"
	"github.com/Riesling1623/honeydash/internal/usecase/reports"
)

var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := config.SetupLogger(cfg)
	logger.Info("Starting honeydash analysis API",
		"version", version,
		"env", cfg.App.Env,
		"port", cfg.App.Port,
		"source", cfg.Data.Source,
	)

	m := metrics.NewMetrics()
	deps := map[string]handlers.Pinger{}

	// ClickHouse is needed for the clickhouse source and for persisted geolocations
	var ch *clickhouse.Connection
	if cfg.Data.Source == config.SourceClickHouse || (cfg.GeoIP.Enabled && cfg.GeoIP.Persist) {
		ch, err = clickhouse.NewConnection(&cfg.ClickHouse, logger)
		if err != nil {
			logger.Error("Failed to connect to ClickHouse", "error", err)
			os.Exit(1)
		}
		defer ch.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = ch.EnsureSchema(ctx)
		cancel()
		if err != nil {
			logger.Error("Failed to create ClickHouse schema", "error", err)
			os.Exit(1)
		}
		deps["clickhouse"] = ch
	}

	source, err := newSource(cfg, ch, logger)
	if err != nil {
		logger.Error("Failed to set up data source", "error", err)
		os.Exit(1)
	}

	geo, err := newGeoLocator(cfg, ch, m, logger)
	if err != nil {
		logger.Error("Failed to set up geolocation", "error", err)
		os.Exit(1)
	}

	analysisService := analysis.NewService(source, geo, analysis.Options{
		MaxRangeDays: cfg.Data.MaxRangeDays,
	}, logger)
	reportService := reports.NewService(analysisService, logger)
	analysisHandler := handlers.NewAnalysisHandler(analysisService, reportService, m.ObserveAnalysis)

	r := newRouter(cfg, logger, m, analysisHandler, deps)

	// Create server. No write timeout: wide ranges with cold geolocation caches take a while.
	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

func newRouter(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, h *handlers.AnalysisHandler, deps map[string]handlers.Pinger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(m.RequestTrackingMiddleware)
	r.Use(chimw.Compress(5, "application/json", "application/xml"))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Rate limiting
	if cfg.HTTP.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.HTTP.RateLimitPerMinute, time.Minute))
	}

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", handlers.HealthCheck(cfg, version, deps))
	r.Handle("/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BasicAuth(cfg.Auth.Username, cfg.Auth.PasswordHash))

		r.Get("/analysis", h.GetAnalysis)
		r.Get("/available-dates", h.GetAvailableDates)
		r.Get("/session/{id}", h.GetSession)
		r.Get("/export", h.ExportSessions)
		r.Get("/report", h.GenerateReport)
	})

	return r
}

func newSource(cfg *config.Config, ch *clickhouse.Connection, logger *slog.Logger) (analysis.ReportSource, error) {
	switch cfg.Data.Source {
	case config.SourceClickHouse:
		return clickhouse.NewSessionsRepository(ch), nil
	case config.SourceSSH:
		if cfg.SSH.Host == "" {
			return nil, fmt.Errorf("SSH_HOST is required for the ssh source")
		}
		return sshsource.New(sshsource.Config{
			Host:    cfg.SSH.Host,
			Port:    cfg.SSH.Port,
			User:    cfg.SSH.User,
			KeyPath: cfg.SSH.KeyPath,
			DataDir: cfg.SSH.DataDir,
			Timeout: cfg.SSH.Timeout,
		}, logger), nil
	default:
		return filestore.New(cfg.Data.Dir, logger), nil
	}
}

func newGeoLocator(cfg *config.Config, ch *clickhouse.Connection, m *metrics.Metrics, logger *slog.Logger) (analysis.GeoLocator, error) {
	if !cfg.GeoIP.Enabled {
		logger.Info("Geolocation disabled")
		return nil, nil
	}

	static := geoip.DefaultStaticTable()
	if cfg.GeoIP.StaticFile != "" {
		loaded, err := geoip.LoadStaticTable(cfg.GeoIP.StaticFile)
		if err != nil {
			return nil, err
		}
		static = loaded
	}

	var store geoip.Store
	if cfg.GeoIP.Persist && ch != nil {
		store = clickhouse.NewGeolocationRepository(ch)
	}

	client := geoip.NewClient(geoip.Config{
		APIURL:        cfg.GeoIP.APIURL,
		CacheTTL:      cfg.GeoIP.CacheTTL,
		Timeout:       cfg.GeoIP.Timeout,
		MaxCacheSize:  cfg.GeoIP.CacheSize,
		RatePerMinute: cfg.GeoIP.RatePerMinute,
		MapPrivate:    cfg.GeoIP.MapPrivate,
		OnLookup:      m.RecordGeoIPLookup,
	}, static, store, logger)
	m.WatchGeoIPCache(client.CacheSize)

	return client, nil
}
