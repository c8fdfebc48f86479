// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию HTTP-сервера
type Server struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Processing содержит конфигурацию фоновой обработки задач
type Processing struct {
	TaskTimeout     time.Duration `json:"task_timeout" yaml:"task_timeout"` // 0 - без ограничений
	CacheTTL        time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	MaxUploadSizeMB int64         `json:"max_upload_size_mb" yaml:"max_upload_size_mb"`
}

// Formatter содержит настройки конвейера форматирования
type Formatter struct {
	Strict         bool          `json:"strict" yaml:"strict"`
	MaxMediaWidth  int           `json:"max_media_width" yaml:"max_media_width"`
	MaxMediaHeight int           `json:"max_media_height" yaml:"max_media_height"`
	GroupWindow    time.Duration `json:"group_window" yaml:"group_window"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server     Server     `json:"server" yaml:"server"`
	Processing Processing `json:"processing" yaml:"processing"`
	Formatter  Formatter  `json:"formatter" yaml:"formatter"`
	Logging    Logging    `json:"logging" yaml:"logging"`
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем config.yml
// (путь можно переопределить через CONFIG_FILE), затем переменные окружения,
// в том числе из .env файла.
func LoadConfig() (*Config, error) {
	// Отсутствие .env файла не является ошибкой
	_ = godotenv.Load()

	cfg := defaultConfig()
	if err := loadFromYAML(getEnv("CONFIG_FILE", DefaultConfigFile), cfg); err != nil {
		return nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Processing: Processing{
			TaskTimeout:     DefaultTaskTimeout,
			CacheTTL:        DefaultCacheTTL,
			CleanupInterval: DefaultCleanupInterval,
			MaxUploadSizeMB: DefaultMaxUploadSizeMB,
		},
		Formatter: Formatter{
			Strict:         DefaultStrict,
			MaxMediaWidth:  DefaultMaxMediaWidth,
			MaxMediaHeight: DefaultMaxMediaHeight,
			GroupWindow:    DefaultGroupWindow,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// loadFromYAML накладывает значения из YAML-файла поверх cfg.
// Отсутствующий файл не считается ошибкой.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	return nil
}

// loadFromEnv накладывает значения из переменных окружения поверх cfg
func loadFromEnv(cfg *Config) error {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	if value := os.Getenv("SERVER_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("недопустимый SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if value := os.Getenv("FORMATTER_STRICT"); value != "" {
		strict, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("недопустимый FORMATTER_STRICT: %w", err)
		}
		cfg.Formatter.Strict = strict
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"TASK_TIMEOUT", &cfg.Processing.TaskTimeout},
		{"CACHE_TTL", &cfg.Processing.CacheTTL},
		{"GROUP_WINDOW", &cfg.Formatter.GroupWindow},
	}
	for _, d := range durations {
		value := os.Getenv(d.key)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("недопустимый %s: %w", d.key, err)
		}
		*d.target = parsed
	}

	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxUploadSize возвращает максимальный размер загружаемого файла в байтах
func (c *Config) MaxUploadSize() int64 {
	return c.Processing.MaxUploadSizeMB << 20
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}

	if c.Processing.TaskTimeout < 0 {
		return fmt.Errorf("processing.task_timeout должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if c.Processing.CacheTTL <= 0 {
		return fmt.Errorf("processing.cache_ttl должно быть положительным")
	}

	if c.Processing.CleanupInterval <= 0 {
		return fmt.Errorf("processing.cleanup_interval должно быть положительным")
	}

	if c.Processing.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("processing.max_upload_size_mb должно быть положительным")
	}

	if c.Formatter.MaxMediaWidth <= 0 || c.Formatter.MaxMediaHeight <= 0 {
		return fmt.Errorf("formatter.max_media_width и formatter.max_media_height должны быть положительными")
	}

	if c.Formatter.GroupWindow <= 0 {
		return fmt.Errorf("formatter.group_window должно быть положительным")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
