package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Share     ShareConfig     `yaml:"share"`
	Stats     StatsConfig     `yaml:"stats"`
	Activity  ActivityConfig  `yaml:"activity"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	CORS      CORSConfig      `yaml:"cors"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig selects the GORM dialector. For sqlite only DSN is used.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	BasePath          string   `yaml:"base_path"`
	MaxFileSize       int64    `yaml:"max_file_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type AuthConfig struct {
	DefaultUserID uint   `yaml:"default_user_id"`
	UserHeader    string `yaml:"user_header"`
}

type ShareConfig struct {
	BaseURL            string `yaml:"base_url"`
	DefaultExpiryHours int    `yaml:"default_expiry_hours"`
	TokenBytes         int    `yaml:"token_bytes"`
}

type StatsConfig struct {
	ExpiringWithinDays int `yaml:"expiring_within_days"`
	CacheTTLSeconds    int `yaml:"cache_ttl_seconds"`
}

type ActivityConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

type ThumbnailConfig struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
	Quality int  `yaml:"quality"`
}

type CleanupConfig struct {
	Enabled              bool `yaml:"enabled"`
	IntervalMinutes      int  `yaml:"interval_minutes"`
	OrphanRetentionHours int  `yaml:"orphan_retention_hours"`
	ShareRetentionHours  int  `yaml:"share_retention_hours"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	AppConfig = &cfg
	return &cfg, nil
}

// Default returns a config with every default applied and nothing read from disk.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN == "" {
		cfg.Database.DSN = "docshelf.db"
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = "utf8mb4"
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 50
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "127.0.0.1"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./storage"
	}
	if cfg.Storage.MaxFileSize == 0 {
		cfg.Storage.MaxFileSize = 100 << 20
	}
	if cfg.Auth.DefaultUserID == 0 {
		cfg.Auth.DefaultUserID = 1
	}
	if cfg.Auth.UserHeader == "" {
		cfg.Auth.UserHeader = "X-User-ID"
	}
	if cfg.Share.BaseURL == "" {
		cfg.Share.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	cfg.Share.BaseURL = strings.TrimRight(cfg.Share.BaseURL, "/")
	if cfg.Share.TokenBytes < 16 {
		cfg.Share.TokenBytes = 32
	}
	if cfg.Stats.ExpiringWithinDays == 0 {
		cfg.Stats.ExpiringWithinDays = 7
	}
	if cfg.Activity.DefaultLimit == 0 {
		cfg.Activity.DefaultLimit = 50
	}
	if cfg.Activity.MaxLimit == 0 {
		cfg.Activity.MaxLimit = 500
	}
	if cfg.Thumbnail.Width == 0 {
		cfg.Thumbnail.Width = 256
	}
	if cfg.Thumbnail.Height == 0 {
		cfg.Thumbnail.Height = 256
	}
	if cfg.Thumbnail.Quality == 0 {
		cfg.Thumbnail.Quality = 80
	}
	if cfg.Cleanup.IntervalMinutes == 0 {
		cfg.Cleanup.IntervalMinutes = 60
	}
	if cfg.Cleanup.OrphanRetentionHours == 0 {
		cfg.Cleanup.OrphanRetentionHours = 24
	}
	if cfg.Cleanup.ShareRetentionHours == 0 {
		cfg.Cleanup.ShareRetentionHours = 24 * 7
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/api/metrics"
	}
	if len(cfg.CORS.AllowOrigins) == 0 {
		cfg.CORS.AllowOrigins = []string{"*"}
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DOCSHELF_DB_DRIVER"); v != "" {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("DOCSHELF_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DOCSHELF_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DOCSHELF_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DOCSHELF_STORAGE_PATH"); v != "" {
		cfg.Storage.BasePath = v
	}
	if v := os.Getenv("DOCSHELF_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DOCSHELF_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DOCSHELF_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// RedisAddr prefers an explicit addr over host and port.
func (c RedisConfig) RedisAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
