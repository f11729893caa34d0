package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	FileLog  FileLogConfig  `mapstructure:"filelog"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port          string  `mapstructure:"port"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	RateBurst     int     `mapstructure:"rate_burst"`
	// EnableDemo mounts the sample shop routes for trying the audit
	// trail without an upstream application.
	EnableDemo bool `mapstructure:"enable_demo"`
}

type AuthConfig struct {
	Admins []AdminConfig `mapstructure:"admins"`
}

// AdminConfig maps an API key to the actor identity stamped onto log rows.
type AdminConfig struct {
	ID     int64  `mapstructure:"id"`
	Name   string `mapstructure:"name"`
	APIKey string `mapstructure:"api_key"`
}

type DatabaseConfig struct {
	DSN                    string `mapstructure:"dsn"`
	RetentionDays          int    `mapstructure:"retention_days"`
	CleanupIntervalMinutes int    `mapstructure:"cleanup_interval_minutes"`
}

type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	RecentListKey string `mapstructure:"recent_list_key"`
	RecentListMax int    `mapstructure:"recent_list_max"`
}

type FileLogConfig struct {
	Dir        string `mapstructure:"dir"`
	BufferSize int    `mapstructure:"buffer_size"`
}

// RouteRef names an endpoint by its module/controller/action triple.
type RouteRef struct {
	Module     string `mapstructure:"module"`
	Controller string `mapstructure:"controller"`
	Action     string `mapstructure:"action"`
}

type AuditConfig struct {
	// SkipRequestLog lists endpoints whose requests are never written to
	// the request log (high-volume or sensitive routes).
	SkipRequestLog []RouteRef `mapstructure:"skip_request_log"`
	// CaptureBody lists endpoints whose raw request body is stored.
	CaptureBody []RouteRef `mapstructure:"capture_body"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. AUDITGATE_DATABASE_DSN
	viper.SetEnvPrefix("auditgate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.rate_per_second", 50.0)
	viper.SetDefault("server.rate_burst", 100)
	viper.SetDefault("server.enable_demo", false)
	viper.SetDefault("database.retention_days", 30)
	viper.SetDefault("database.cleanup_interval_minutes", 60)
	viper.SetDefault("redis.recent_list_key", "request_logs:recent")
	viper.SetDefault("redis.recent_list_max", 10000)
	viper.SetDefault("filelog.dir", "./logs")
	viper.SetDefault("filelog.buffer_size", 1000)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
