package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the command server configuration. BufferSize is the
// fixed read buffer per connection: one read is one command, and payloads
// past the buffer truncate silently. Replies are written in full; a reply
// longer than the buffer is only cut by the client's own fixed-size read.
type ServerConfig struct {
	Host       string `mapstructure:"host" validate:"required"`
	Port       int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	BufferSize int    `mapstructure:"buffer_size" validate:"gte=64"`
}

// AdminConfig holds the ops HTTP surface configuration.
type AdminConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	Port              int  `mapstructure:"port" validate:"gte=1,lte=65535"`
	RateLimitRequests int  `mapstructure:"rate_limit_requests" validate:"gte=1"`
}

// SnapshotConfig holds the whole-store snapshot configuration.
type SnapshotConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	Output     string `mapstructure:"output" validate:"oneof=stdout file"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load loads configuration from the environment, an optional .env file, and
// built-in defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "TaskHub")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 9999)
	v.SetDefault("server.buffer_size", 2048)

	// Admin defaults
	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.port", 9090)
	v.SetDefault("admin.rate_limit_requests", 100)

	// Snapshot defaults
	v.SetDefault("snapshot.enabled", true)
	v.SetDefault("snapshot.path", "resources/backup.json")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.filename", "taskhub.log")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 28)
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.version", "APP_VERSION")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")

	// Server
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.buffer_size", "SERVER_BUFFER_SIZE")

	// Admin
	v.BindEnv("admin.enabled", "ADMIN_ENABLED")
	v.BindEnv("admin.port", "ADMIN_PORT")
	v.BindEnv("admin.rate_limit_requests", "ADMIN_RATE_LIMIT_REQUESTS")

	// Snapshot
	v.BindEnv("snapshot.enabled", "SNAPSHOT_ENABLED")
	v.BindEnv("snapshot.path", "SNAPSHOT_PATH")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
	v.BindEnv("logger.output", "LOG_OUTPUT")
	v.BindEnv("logger.filename", "LOG_FILENAME")
	v.BindEnv("logger.max_size_mb", "LOG_MAX_SIZE_MB")
	v.BindEnv("logger.max_backups", "LOG_MAX_BACKUPS")
	v.BindEnv("logger.max_age_days", "LOG_MAX_AGE_DAYS")
}

// Addr returns the command server listen address.
func (cfg *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Addr returns the admin surface listen address.
func (cfg *AdminConfig) Addr() string {
	return fmt.Sprintf(":%d", cfg.Port)
}

// IsDevelopment returns true if the environment is development.
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}
