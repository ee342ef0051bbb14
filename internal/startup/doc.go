// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded by [LoadConfig] (or [Load], which skips the banner)
// from an optional TOML file named by CONFIG_FILE and from environment
// variables. Environment variables override the file, which overrides the
// built-in defaults:
//
//   - CONFIG_FILE: Path to a TOML configuration file (default: none)
//   - MEDIA_DIR: Path to media directory (default: /media)
//   - DATABASE_PATH: Path to the library database (default: /database/coverart.db)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - METRICS_INTERVAL: Database metrics refresh interval (default: 1m)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - INDEX_INTERVAL: Re-index MEDIA_DIR in the server this often, e.g. "6h" (default: 0, disabled)
//   - COVER_DEFAULT_PATH: Image served when no cover is found (default: /usr/share/coverart/default.jpg)
//   - COVER_CACHE_MAX_SIZE: Cover cache budget, e.g. "30MiB" (default: 30MiB)
//   - COVER_MAX_FILE_SIZE: Largest image file read from disk (default: 10MiB)
//   - COVER_JPEG_QUALITY: JPEG encoder quality, 1-100 (default: 75)
//   - COVER_PREFERRED_NAMES: Comma separated preferred file stems (default: cover,front)
//   - COVER_IGNORE_HAS_COVER: Read embedded pictures even when the library says there are none (default: false)
//   - COVER_CODEC: imaging or vips (default: imaging)
//   - COVER_WORKERS: Worker pool size of batch commands (default: auto)
//
// Paths starting with "~" are expanded to the user's home directory.
//
// A configuration file uses the same settings in snake case:
//
//	media_dir = "~/Music"
//	database_path = "~/.local/share/coverart/library.db"
//	log_level = "debug"
//
//	[metrics]
//	enabled = false
//
//	[cover]
//	default_path = "/srv/coverart/default.jpg"
//	cache_max_size = "64MiB"
//	preferred_names = ["folder", "cover", "front"]
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogDatabaseInit(dbInitDuration)
//	startup.LogCoverInit(config.Codec, vipsAvailable, coverInitDuration)
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
//
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	startup.LogShutdownComplete()
package startup
