package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"coverart/internal/cover"
	"coverart/internal/logging"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Codec names accepted by COVER_CODEC.
const (
	CodecImaging = "imaging"
	CodecVips    = "vips"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	ConfigFile      string
	MediaDir        string
	DatabasePath    string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	MetricsInterval time.Duration
	LogHealthChecks bool
	// IndexInterval re-indexes MEDIA_DIR periodically in the server. Zero
	// disables in-process indexing.
	IndexInterval time.Duration

	// Codec selects the image codec: CodecImaging or CodecVips.
	Codec string
	// Workers overrides the worker pool size of batch commands. Zero sizes
	// pools from the available CPUs.
	Workers int

	Cover cover.Config
}

// fileConfig is the optional TOML configuration file. Environment variables
// override every value it sets.
type fileConfig struct {
	MediaDir        string `toml:"media_dir"`
	DatabasePath    string `toml:"database_path"`
	Port            string `toml:"port"`
	LogLevel        string `toml:"log_level"`
	LogHealthChecks *bool  `toml:"log_health_checks"`
	IndexInterval   string `toml:"index_interval"`

	Metrics struct {
		Enabled  *bool  `toml:"enabled"`
		Port     string `toml:"port"`
		Interval string `toml:"interval"`
	} `toml:"metrics"`

	Cover struct {
		DefaultPath    string   `toml:"default_path"`
		CacheMaxSize   string   `toml:"cache_max_size"`
		MaxFileSize    string   `toml:"max_file_size"`
		JPEGQuality    *int     `toml:"jpeg_quality"`
		PreferredNames []string `toml:"preferred_names"`
		Codec          string   `toml:"codec"`
		IgnoreHasCover *bool    `toml:"ignore_has_cover"`
		Workers        *int     `toml:"workers"`
	} `toml:"cover"`
}

// LoadConfig prints the startup banner, then loads and validates the
// configuration.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()
	return Load()
}

// Load reads the optional CONFIG_FILE and the environment, validates the
// result and prepares the database directory.
func Load() (*Config, error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	configFile, err := expandPath(getEnv("CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}
	fc, err := readConfigFile(configFile)
	if err != nil {
		return nil, err
	}
	applyFileLogLevel(fc.LogLevel)

	cfg := &Config{
		ConfigFile:      configFile,
		Port:            getEnv("PORT", orDefault(fc.Port, "8080")),
		MetricsPort:     getEnv("METRICS_PORT", orDefault(fc.Metrics.Port, "9090")),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", boolOr(fc.Metrics.Enabled, true)),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", boolOr(fc.LogHealthChecks, true)),
		Codec:           strings.ToLower(getEnv("COVER_CODEC", orDefault(fc.Cover.Codec, CodecImaging))),
		Workers:         getEnvInt("COVER_WORKERS", intOr(fc.Cover.Workers, 0)),
	}

	if cfg.MediaDir, err = expandPath(getEnv("MEDIA_DIR", orDefault(fc.MediaDir, "/media"))); err != nil {
		return nil, err
	}
	if cfg.DatabasePath, err = expandPath(getEnv("DATABASE_PATH", orDefault(fc.DatabasePath, "/database/coverart.db"))); err != nil {
		return nil, err
	}

	intervalStr := getEnv("METRICS_INTERVAL", orDefault(fc.Metrics.Interval, "1m"))
	cfg.MetricsInterval, err = time.ParseDuration(intervalStr)
	if err != nil || cfg.MetricsInterval <= 0 {
		logging.Warn("  Invalid METRICS_INTERVAL %q, using default: 1m", intervalStr)
		cfg.MetricsInterval = time.Minute
	}

	indexStr := getEnv("INDEX_INTERVAL", orDefault(fc.IndexInterval, "0"))
	cfg.IndexInterval, err = time.ParseDuration(indexStr)
	if err != nil || cfg.IndexInterval < 0 {
		return nil, fmt.Errorf("invalid INDEX_INTERVAL %q", indexStr)
	}

	if cfg.Cover, err = loadCoverConfig(fc); err != nil {
		return nil, err
	}

	switch cfg.Codec {
	case CodecImaging, CodecVips:
	default:
		return nil, fmt.Errorf("invalid COVER_CODEC %q (want %s or %s)", cfg.Codec, CodecImaging, CodecVips)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid COVER_WORKERS %d", cfg.Workers)
	}

	logConfig(cfg)

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if cfg.MediaDir, err = filepath.Abs(cfg.MediaDir); err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	if cfg.DatabasePath, err = filepath.Abs(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	logging.Info("  Media directory (absolute): %s", cfg.MediaDir)
	logging.Info("  Database path (absolute):   %s", cfg.DatabasePath)

	checkMediaDirectory(cfg.MediaDir)

	databaseDir := filepath.Dir(cfg.DatabasePath)
	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	if info, err := os.Stat(cfg.Cover.DefaultCoverPath); err != nil || info.IsDir() {
		logging.Warn("  Default cover %s is not a readable file; the cover service will not start", cfg.Cover.DefaultCoverPath)
	} else {
		logging.Info("  [OK] Default cover found (%s)", humanize.IBytes(uint64(info.Size())))
	}

	return cfg, nil
}

func loadCoverConfig(fc fileConfig) (cover.Config, error) {
	var (
		cc  cover.Config
		err error
	)

	if cc.DefaultCoverPath, err = expandPath(getEnv("COVER_DEFAULT_PATH",
		orDefault(fc.Cover.DefaultPath, "/usr/share/coverart/default.jpg"))); err != nil {
		return cc, err
	}
	if cc.MaxCacheBytes, err = getEnvBytes("COVER_CACHE_MAX_SIZE", orDefault(fc.Cover.CacheMaxSize, "30MiB")); err != nil {
		return cc, err
	}
	if cc.MaxFileSize, err = getEnvBytes("COVER_MAX_FILE_SIZE", orDefault(fc.Cover.MaxFileSize, "10MiB")); err != nil {
		return cc, err
	}

	cc.JPEGQuality = getEnvInt("COVER_JPEG_QUALITY", intOr(fc.Cover.JPEGQuality, 75))
	if cc.JPEGQuality < 1 || cc.JPEGQuality > 100 {
		return cc, fmt.Errorf("invalid COVER_JPEG_QUALITY %d (must be 1..100)", cc.JPEGQuality)
	}

	names := strings.Join(fc.Cover.PreferredNames, ",")
	cc.PreferredNames = splitList(getEnv("COVER_PREFERRED_NAMES", orDefault(names, "cover,front")))
	cc.IgnoreHasCover = getEnvBool("COVER_IGNORE_HAS_COVER", boolOr(fc.Cover.IgnoreHasCover, false))
	return cc, nil
}

func logConfig(cfg *Config) {
	if cfg.ConfigFile != "" {
		logging.Info("  CONFIG_FILE:            %s", cfg.ConfigFile)
	}
	logging.Info("  MEDIA_DIR:              %s", cfg.MediaDir)
	logging.Info("  DATABASE_PATH:          %s", cfg.DatabasePath)
	logging.Info("  PORT:                   %s", cfg.Port)
	logging.Info("  METRICS_PORT:           %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:        %v", cfg.MetricsEnabled)
	logging.Info("  METRICS_INTERVAL:       %s", cfg.MetricsInterval)
	logging.Info("  LOG_HEALTH_CHECKS:      %v", cfg.LogHealthChecks)
	if cfg.IndexInterval > 0 {
		logging.Info("  INDEX_INTERVAL:         %s", cfg.IndexInterval)
	} else {
		logging.Info("  INDEX_INTERVAL:         disabled")
	}
	logging.Info("  LOG_LEVEL:              %s", logging.GetLevel())
	logging.Info("  COVER_DEFAULT_PATH:     %s", cfg.Cover.DefaultCoverPath)
	logging.Info("  COVER_CACHE_MAX_SIZE:   %s", humanize.IBytes(uint64(cfg.Cover.MaxCacheBytes)))
	logging.Info("  COVER_MAX_FILE_SIZE:    %s", humanize.IBytes(uint64(cfg.Cover.MaxFileSize)))
	logging.Info("  COVER_JPEG_QUALITY:     %d", cfg.Cover.JPEGQuality)
	logging.Info("  COVER_PREFERRED_NAMES:  %s", strings.Join(cfg.Cover.PreferredNames, ", "))
	logging.Info("  COVER_IGNORE_HAS_COVER: %v", cfg.Cover.IgnoreHasCover)
	logging.Info("  COVER_CODEC:            %s", cfg.Codec)
	if cfg.Workers > 0 {
		logging.Info("  COVER_WORKERS:          %d", cfg.Workers)
	} else {
		logging.Info("  COVER_WORKERS:          auto")
	}
}

// readConfigFile decodes the TOML file at path. An empty path yields an empty
// configuration.
func readConfigFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fc, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fc, fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	logging.Info("  Loaded configuration file %s", path)
	return fc, nil
}

// applyFileLogLevel sets the log level from the config file unless LOG_LEVEL
// or DEBUG already chose one.
func applyFileLogLevel(level string) {
	if level == "" || os.Getenv("LOG_LEVEL") != "" || os.Getenv("DEBUG") != "" {
		return
	}
	parsed, ok := logging.ParseLevel(level)
	if !ok {
		logging.Warn("  Invalid log_level %q in config file, keeping %s", level, logging.GetLevel())
		return
	}
	logging.SetLevel(parsed)
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogCoverInit logs cover service initialization
func LogCoverInit(codec string, vipsAvailable bool, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("COVER SERVICE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Codec: %s", codec)
	if codec == CodecVips && !vipsAvailable {
		logging.Warn("  libvips is not available, covers will fail to transcode")
	}
	logging.Info("  [OK] Default cover loaded in %v", duration)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Covers:        http://0.0.0.0:%s/api/cover/{kind}/{id}", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
                                           _
   ___ _____   _____ _ __ __ _ _ __| |_
  / __/ _ \ \ / / _ \ '__/ _' | '__| __|
 | (_| (_) \ V /  __/ | | (_| | |  | |_
  \___\___/ \_/ \___|_|  \__,_|_|   \__|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// checkMediaDirectory warns when the media directory is missing. It is never
// created: it should be a mount.
func checkMediaDirectory(path string) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logging.Warn("  Media directory %s does not exist", path)
	case err != nil:
		logging.Warn("  Media directory issue: %v", err)
	case !info.IsDir():
		logging.Warn("  Media path %s is not a directory", path)
	default:
		logging.Debug("  [OK] Media directory exists")
	}
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand path %q: %w", path, err)
	}
	return expanded, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvBytes parses a byte size such as "30MiB", "512kB" or "1048576".
func getEnvBytes(key, defaultValue string) (int64, error) {
	value := getEnv(key, defaultValue)
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return int64(n), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func boolOr(value *bool, defaultValue bool) bool {
	if value != nil {
		return *value
	}
	return defaultValue
}

func intOr(value *int, defaultValue int) int {
	if value != nil {
		return *value
	}
	return defaultValue
}
