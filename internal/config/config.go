// Package config holds the scoring constants and the runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
	RabbitMQ    RabbitMQConfig `mapstructure:"rabbitmq"`
	MinIO       MinIOConfig    `mapstructure:"minio"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Heatmap     HeatmapConfig  `mapstructure:"heatmap"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	MaxHeaderBytes int      `mapstructure:"max_header_bytes"`
	AllowOrigins   []string `mapstructure:"allow_origins"`
}

// DatabaseConfig contains the PostgreSQL DSN
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChangeChannel string `mapstructure:"change_channel"`
}

// AuthConfig contains JWT settings
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
	Issuer        string `mapstructure:"issuer"`
}

// TelegramConfig contains notifier settings. An empty token disables notifications.
type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	AdminChatID int64  `mapstructure:"admin_chat_id"`
	Language    string `mapstructure:"language"`
	LocalesPath string `mapstructure:"locales_path"`
}

// RabbitMQConfig contains the event queue settings
type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

// MinIOConfig contains export storage settings
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// HeatmapConfig contains the H3 resolution used for cell aggregation
type HeatmapConfig struct {
	Resolution int `mapstructure:"resolution"`
}

// Load loads configuration from an optional YAML file, .env and environment variables.
// An empty configPath skips the file.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("CIVICDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	overrideWithEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings every entrypoint needs.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database url required (DATABASE_URL)")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret required (JWT_SECRET)")
	}
	if c.Heatmap.Resolution < 0 || c.Heatmap.Resolution > MaxHeatmapResolution {
		return fmt.Errorf("heatmap resolution must be within 0..%d", MaxHeatmapResolution)
	}
	return nil
}

// IsProduction reports whether the production logger and gin mode apply.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.change_channel", "civicdesk:changes")

	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("auth.issuer", "civicdesk")

	v.SetDefault("telegram.language", "en")
	v.SetDefault("telegram.locales_path", "")

	v.SetDefault("rabbitmq.queue", "complaint_events")

	v.SetDefault("minio.bucket", "exports")

	// empty lets the logger pick debug in development and info in production
	v.SetDefault("logging.level", "")

	v.SetDefault("heatmap.resolution", DefaultHeatmapResolution)

	// AutomaticEnv only overrides keys viper knows, so keys without a real
	// default are registered empty.
	for _, key := range []string{
		"database.url",
		"redis.password",
		"auth.jwt_secret",
		"telegram.bot_token",
		"rabbitmq.url",
		"minio.endpoint",
		"minio.access_key",
		"minio.secret_key",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("minio.use_ssl", false)
}

// overrideWithEnvVars maps the conventional unprefixed variables onto config keys.
func overrideWithEnvVars(v *viper.Viper) {
	envKeys := map[string]string{
		"ENVIRONMENT":            "environment",
		"PORT":                   "server.port",
		"DATABASE_URL":           "database.url",
		"REDIS_ADDR":             "redis.addr",
		"REDIS_PASSWORD":         "redis.password",
		"JWT_SECRET":             "auth.jwt_secret",
		"TELEGRAM_BOT_TOKEN":     "telegram.bot_token",
		"TELEGRAM_ADMIN_CHAT_ID": "telegram.admin_chat_id",
		"RABBITMQ_URL":           "rabbitmq.url",
		"MINIO_ENDPOINT":         "minio.endpoint",
		"MINIO_ACCESS_KEY":       "minio.access_key",
		"MINIO_SECRET_KEY":       "minio.secret_key",
		"LOG_LEVEL":              "logging.level",
	}
	for env, key := range envKeys {
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		v.Set("server.allow_origins", strings.Split(origins, ","))
	}
}
