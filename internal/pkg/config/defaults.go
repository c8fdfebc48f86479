package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultShutdownTimeout = 15 * time.Second

	// Processing defaults
	DefaultTaskTimeout     = 60 * time.Second
	DefaultCacheTTL        = 60 * time.Minute
	DefaultCleanupInterval = 1 * time.Hour
	DefaultMaxUploadSizeMB = 32

	// Formatter defaults
	DefaultStrict         = false
	DefaultMaxMediaWidth  = 400
	DefaultMaxMediaHeight = 300
	DefaultGroupWindow    = 420 * time.Second

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// DefaultConfigFile: путь к YAML-файлу конфигурации по умолчанию.
	DefaultConfigFile = "config.yml"
)
