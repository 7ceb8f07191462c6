package startup

import (
	"fmt"
	"path/filepath"
	"time"

	"media-bridge/internal/logging"
)

// Config holds all application configuration
type Config struct {
	MediaDir        string
	CacheDir        string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	IndexInterval   time.Duration
	IndexWorkers    int
	ExportRetention time.Duration
	ExportWorkers   int
	LogRenditions   bool
	LogHealthChecks bool
	MetricsEnabled  bool
	MediaDirCreate  bool

	// Derived paths
	DatabasePath string
	ExportDir    string

	// ExportsEnabled is false when ExportDir could not be prepared.
	ExportsEnabled bool
}

// LoadConfig reads configuration from the environment, logs it and prepares
// the database and export directories.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	config, err := configFromEnv()
	if err != nil {
		return nil, err
	}
	config.log()

	section("DIRECTORY SETUP")

	// Whether the media directory may be created is an authorization
	// decision made at request time, so it is only inspected here.
	if err := checkDirectory(config.MediaDir, "media"); err != nil {
		logging.Warn("  Media directory %s: %v", config.MediaDir, err)
	}

	if err := ensureDirectory(config.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable: %w", err)
	}
	logging.Info("  [OK] Database directory %s is writable", config.DatabaseDir)

	config.ExportsEnabled = prepareOptionalDir(config.ExportDir, "exports")
	if !config.ExportsEnabled {
		config.ExportDir = ""
	}

	logging.Info("")
	logging.Info("  Video export: %s", enabledString(config.ExportsEnabled))
	logging.Info("  Metrics:      %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// configFromEnv reads the environment and resolves directories to
// absolute paths without touching the filesystem.
func configFromEnv() (*Config, error) {
	config := &Config{
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		IndexInterval:   getEnvDuration("INDEX_INTERVAL", 30*time.Minute),
		IndexWorkers:    getEnvInt("INDEX_WORKERS", 0),
		ExportRetention: getEnvDuration("EXPORT_RETENTION", 10*time.Minute),
		ExportWorkers:   getEnvInt("EXPORT_WORKERS", 0),
		LogRenditions:   getEnvBool("LOG_RENDITIONS", false),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		MediaDirCreate:  getEnvBool("MEDIA_DIR_CREATE", false),
	}

	dirs := []struct {
		key, def string
		dest     *string
	}{
		{"MEDIA_DIR", "/media", &config.MediaDir},
		{"CACHE_DIR", "/cache", &config.CacheDir},
		{"DATABASE_DIR", "/database", &config.DatabaseDir},
	}
	for _, d := range dirs {
		abs, err := filepath.Abs(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s path: %w", d.key, err)
		}
		*d.dest = abs
	}

	config.DatabasePath = filepath.Join(config.DatabaseDir, "media.db")
	config.ExportDir = filepath.Join(config.CacheDir, "exports")
	return config, nil
}

// settings lists the configuration as environment name and value pairs, in
// the order they are logged.
func (c *Config) settings() [][2]string {
	return [][2]string{
		{"MEDIA_DIR", c.MediaDir},
		{"MEDIA_DIR_CREATE", fmt.Sprint(c.MediaDirCreate)},
		{"CACHE_DIR", c.CacheDir},
		{"DATABASE_DIR", c.DatabaseDir},
		{"PORT", c.Port},
		{"METRICS_PORT", c.MetricsPort},
		{"METRICS_ENABLED", fmt.Sprint(c.MetricsEnabled)},
		{"INDEX_INTERVAL", c.IndexInterval.String()},
		{"INDEX_WORKERS", fmt.Sprint(c.IndexWorkers)},
		{"EXPORT_RETENTION", c.ExportRetention.String()},
		{"EXPORT_WORKERS", fmt.Sprint(c.ExportWorkers)},
		{"LOG_RENDITIONS", fmt.Sprint(c.LogRenditions)},
		{"LOG_HEALTH_CHECKS", fmt.Sprint(c.LogHealthChecks)},
		{"LOG_LEVEL", logging.GetLevel().String()},
	}
}

func (c *Config) log() {
	section("CONFIGURATION")
	for _, kv := range c.settings() {
		logging.Info("  %-18s %s", kv[0]+":", kv[1])
	}
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}
