// Command media-bridge serves a media directory as a media library over
// HTTP: collections, paginated photo and video listings, thumbnails, full
// images and streamed video exports.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/handlers"
	"media-bridge/internal/indexer"
	"media-bridge/internal/library"
	"media-bridge/internal/logging"
	"media-bridge/internal/media"
	"media-bridge/internal/metrics"
	"media-bridge/internal/middleware"
	"media-bridge/internal/permission"
	"media-bridge/internal/startup"
	"media-bridge/internal/transcoder"
	"media-bridge/internal/workers"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize media tools
	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, falling back to pure Go decoding: %v", err)
	}
	defer media.ShutdownVips()
	startup.LogMediaToolsInit(config.ExportsEnabled, media.IsVipsAvailable())

	exporter := transcoder.New(config.MediaDir, config.ExportDir, workers.ForExports(config.ExportWorkers), config.ExportRetention)
	if _, err := exporter.ClearExports(); err != nil {
		logging.Warn("Failed to clear stale exports: %v", err)
	}
	exporter.Start()

	// Initialize indexer
	indexWorkers := workers.ForIndexing(config.IndexWorkers)
	startup.LogIndexerInit(config.IndexInterval, indexWorkers)
	idx := indexer.New(db, config.MediaDir, config.IndexInterval, indexWorkers)

	// Start indexer in background (non-blocking)
	go func() {
		if err := idx.Start(); err != nil {
			logging.Error("Failed to start indexer: %v", err)
		}
	}()
	startup.LogIndexerStarted()

	// Metrics
	metrics.InitializeMetrics()
	collector := metrics.NewCollector(db, time.Minute)
	collector.Start()

	service := library.NewService(
		db,
		media.NewRenderer(config.MediaDir),
		exporter,
		permission.NewDirectory(config.MediaDir, config.MediaDirCreate),
	)
	h := handlers.New(service, exporter, idx, db)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogRenditions, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogRenditions = config.LogRenditions
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(loggedHandler)

	// Create server. Export streams run for as long as ffmpeg does, so
	// there is no overall write timeout; each event write carries its own.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(config.MetricsPort, h.MetricsHandler())
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, idx, exporter, collector)
		close(done)
	}()

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Library API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/authorization", h.GetAuthorization).Methods("GET")
	api.HandleFunc("/authorization", h.RequestAuthorization).Methods("POST")
	api.HandleFunc("/collections", h.ListCollections).Methods("GET")
	api.HandleFunc("/photos", h.ListPhotos).Methods("GET", "POST")
	api.HandleFunc("/videos", h.ListVideos).Methods("GET", "POST")
	api.HandleFunc("/cancel", h.CancelListing).Methods("POST")
	api.HandleFunc("/thumbnail/{id:.+}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/image/{id:.+}", h.GetImage).Methods("GET")
	api.HandleFunc("/video/{id:.+}", h.ExportVideo).Methods("POST")
	api.HandleFunc("/exports/{token}", h.DownloadExport).Methods("GET", "HEAD")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/reindex", h.TriggerReindex).Methods("POST")

	return r
}

func startMetricsServer(port string, handler http.Handler) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

func handleShutdown(srv, metricsSrv *http.Server, idx *indexer.Indexer, exporter *transcoder.Exporter, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Cancelling exports")
	exporter.Cleanup()
	startup.LogShutdownStepComplete("Export cleanup complete")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
