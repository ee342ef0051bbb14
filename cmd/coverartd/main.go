package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"coverart/internal/cover"
	"coverart/internal/database"
	"coverart/internal/filesystem"
	"coverart/internal/handlers"
	"coverart/internal/indexer"
	"coverart/internal/logging"
	"coverart/internal/media"
	"coverart/internal/memory"
	"coverart/internal/metrics"
	"coverart/internal/middleware"
	"coverart/internal/startup"
	"coverart/internal/vips"

	"github.com/gorilla/mux"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media":   config.MediaDir,
		"default": filepath.Dir(config.Cover.DefaultCoverPath),
	}))

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	coverStart := time.Now()
	pictures := media.NewTagPictureSource()
	grabber, err := cover.New(config.Cover, db, pictures, newCodec(config))
	if err != nil {
		_ = db.Close()
		startup.LogFatal("Failed to initialize cover service: %v", err)
	}
	startup.LogCoverInit(config.Codec, vips.IsAvailable(), time.Since(coverStart))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	collector := metrics.NewCollector(grabber, config.DatabasePath, config.MetricsInterval)
	collector.Start()
	go updateDBMetrics(ctx, db, config.MetricsInterval)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	if config.IndexInterval > 0 {
		idx := indexer.New(db, config.MediaDir, pictures)
		idx.SetThrottle(monitor)
		go runIndexer(ctx, idx, grabber, config.IndexInterval)
	}

	h := handlers.New(grabber, db)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      wrapMiddleware(router, config),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(h, config.MetricsPort)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, collector, monitor, stop, db, config.Codec)
		close(done)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

// newCodec returns the libvips codec when COVER_CODEC=vips, otherwise the
// pure Go imaging codec.
func newCodec(config *startup.Config) media.Codec {
	if config.Codec == startup.CodecVips {
		return vips.NewCodec(config.Cover.JPEGQuality)
	}
	return media.NewImagingCodec(config.Cover.JPEGQuality)
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.RegisterRoutes(r)
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)
	return r
}

// wrapMiddleware applies the outer middleware: request IDs first so the
// access log can record them.
func wrapMiddleware(router http.Handler, config *startup.Config) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	return middleware.RequestID(middleware.Logger(loggingConfig)(router))
}

func newMetricsServer(h *handlers.Handlers, port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h.MetricsHandler())
	mux.HandleFunc("/health", h.LivenessCheck)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

func updateDBMetrics(ctx context.Context, db *database.Database, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	db.UpdateDBMetrics()
	for {
		select {
		case <-ticker.C:
			db.UpdateDBMetrics()
		case <-ctx.Done():
			return
		}
	}
}

// runIndexer indexes the library now and then every interval. The cover
// cache is flushed after each successful run since paths and embedded
// pictures may have changed.
func runIndexer(ctx context.Context, idx *indexer.Indexer, grabber *cover.Grabber, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := idx.Index(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Error("Library index failed: %v", err)
		} else {
			grabber.FlushCache()
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, monitor *memory.Monitor, stop context.CancelFunc, db *database.Database, codec string) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping background workers")
	collector.Stop()
	monitor.Stop()
	stop()
	startup.LogShutdownStepComplete("Background workers stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	if codec == startup.CodecVips {
		startup.LogShutdownStep("Shutting down libvips")
		vips.Shutdown()
		startup.LogShutdownStepComplete("libvips stopped")
	}

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
