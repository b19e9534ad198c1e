package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Schemas    SchemasConfig
	Processing ProcessingConfig
	Monitor    MonitorConfig
	Cache      CacheConfig
	History    HistoryConfig
	Log        LogConfig
	CORS       CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// SchemasConfig holds the index schema library settings.
type SchemasConfig struct {
	Directory string `mapstructure:"directory"`
}

// ProcessingConfig holds batch export settings.
type ProcessingConfig struct {
	OutputDirectory    string `mapstructure:"output_directory"`
	ConflictStrategy   string `mapstructure:"conflict_strategy"`
	PDFQuality         string `mapstructure:"pdf_quality"`
	WriteMetadata      bool   `mapstructure:"write_metadata"`
	PreserveTimestamps bool   `mapstructure:"preserve_timestamps"`
	WriteSummary       bool   `mapstructure:"write_summary"`
}

// MonitorConfig holds staging directory watcher settings.
type MonitorConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	StagingDirectory string        `mapstructure:"staging_directory"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
}

// CacheConfig holds thumbnail cache settings.
type CacheConfig struct {
	MaxBytes        int64 `mapstructure:"max_bytes"`
	ThumbnailWidth  int   `mapstructure:"thumbnail_width"`
	ThumbnailHeight int   `mapstructure:"thumbnail_height"`
}

// HistoryConfig holds processing history database settings.
type HistoryConfig struct {
	DatabasePath  string `mapstructure:"database_path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// dataDir returns the default location for application state.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scandex"
	}
	return filepath.Join(home, ".scandex")
}

// Load reads configuration from an optional JSON file merged over defaults,
// then environment variables with the SCANDEX_ prefix on top. filePath may be
// empty, in which case <data dir>/config.json is used if present.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCANDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	base := dataDir()

	// Server defaults
	v.SetDefault("server.port", ":8138")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// Schema library defaults
	v.SetDefault("schemas.directory", filepath.Join(base, "schemas"))

	// Processing defaults
	v.SetDefault("processing.output_directory", filepath.Join(base, "output"))
	v.SetDefault("processing.conflict_strategy", "auto_rename")
	v.SetDefault("processing.pdf_quality", "high")
	v.SetDefault("processing.write_metadata", true)
	v.SetDefault("processing.preserve_timestamps", false)
	v.SetDefault("processing.write_summary", true)

	// Monitor defaults
	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.staging_directory", filepath.Join(base, "staging"))
	v.SetDefault("monitor.poll_interval", "2s")

	// Cache defaults
	v.SetDefault("cache.max_bytes", 100*1024*1024)
	v.SetDefault("cache.thumbnail_width", 200)
	v.SetDefault("cache.thumbnail_height", 280)

	// History defaults
	v.SetDefault("history.database_path", filepath.Join(base, "history.db"))
	v.SetDefault("history.retention_days", 365)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (local frontend during development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "SCANDEX_SERVER_PORT",
		"server.read_timeout":            "SCANDEX_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "SCANDEX_SERVER_WRITE_TIMEOUT",
		"server.environment":             "SCANDEX_SERVER_ENVIRONMENT",
		"schemas.directory":              "SCANDEX_SCHEMAS_DIRECTORY",
		"processing.output_directory":    "SCANDEX_PROCESSING_OUTPUT_DIRECTORY",
		"processing.conflict_strategy":   "SCANDEX_PROCESSING_CONFLICT_STRATEGY",
		"processing.pdf_quality":         "SCANDEX_PROCESSING_PDF_QUALITY",
		"processing.write_metadata":      "SCANDEX_PROCESSING_WRITE_METADATA",
		"processing.preserve_timestamps": "SCANDEX_PROCESSING_PRESERVE_TIMESTAMPS",
		"processing.write_summary":       "SCANDEX_PROCESSING_WRITE_SUMMARY",
		"monitor.enabled":                "SCANDEX_MONITOR_ENABLED",
		"monitor.staging_directory":      "SCANDEX_MONITOR_STAGING_DIRECTORY",
		"monitor.poll_interval":          "SCANDEX_MONITOR_POLL_INTERVAL",
		"cache.max_bytes":                "SCANDEX_CACHE_MAX_BYTES",
		"cache.thumbnail_width":          "SCANDEX_CACHE_THUMBNAIL_WIDTH",
		"cache.thumbnail_height":         "SCANDEX_CACHE_THUMBNAIL_HEIGHT",
		"history.database_path":          "SCANDEX_HISTORY_DATABASE_PATH",
		"history.retention_days":         "SCANDEX_HISTORY_RETENTION_DAYS",
		"log.level":                      "SCANDEX_LOG_LEVEL",
		"log.format":                     "SCANDEX_LOG_FORMAT",
		"cors.allowed_origins":           "SCANDEX_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	// Optional JSON config file layered between defaults and environment.
	if filePath == "" {
		if candidate := filepath.Join(base, "config.json"); fileExists(candidate) {
			filePath = candidate
		}
	}
	if filePath != "" {
		v.SetConfigFile(filePath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", filePath, err)
		}
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if SCANDEX_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SCANDEX_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Schemas = SchemasConfig{
		Directory: v.GetString("schemas.directory"),
	}
	cfg.Processing = ProcessingConfig{
		OutputDirectory:    v.GetString("processing.output_directory"),
		ConflictStrategy:   v.GetString("processing.conflict_strategy"),
		PDFQuality:         v.GetString("processing.pdf_quality"),
		WriteMetadata:      v.GetBool("processing.write_metadata"),
		PreserveTimestamps: v.GetBool("processing.preserve_timestamps"),
		WriteSummary:       v.GetBool("processing.write_summary"),
	}
	cfg.Monitor = MonitorConfig{
		Enabled:          v.GetBool("monitor.enabled"),
		StagingDirectory: v.GetString("monitor.staging_directory"),
		PollInterval:     v.GetDuration("monitor.poll_interval"),
	}
	cfg.Cache = CacheConfig{
		MaxBytes:        v.GetInt64("cache.max_bytes"),
		ThumbnailWidth:  v.GetInt("cache.thumbnail_width"),
		ThumbnailHeight: v.GetInt("cache.thumbnail_height"),
	}
	cfg.History = HistoryConfig{
		DatabasePath:  v.GetString("history.database_path"),
		RetentionDays: v.GetInt("history.retention_days"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
