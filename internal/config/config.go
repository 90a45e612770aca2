package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Dispatch  DispatchConfig
	Storage   StorageConfig
	CORS      CORSConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	Env      string
	Port     string
	LogLevel string
}

// IsProduction reports whether the service runs in production mode
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the PostgreSQL connection string
func (d DBConfig) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=" + d.SSLMode +
		" TimeZone=UTC"
}

// URL returns the PostgreSQL connection URL (for golang-migrate)
func (d DBConfig) URL() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.Name + "?sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether a Redis host was configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns the Redis address
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// DispatchConfig selects how push notifications leave the service
type DispatchConfig struct {
	Driver             string // edge or fcm
	URL                string // hosted function endpoint
	Key                string // bearer credential for the function
	FCMCredentialsFile string
	RateLimit          float64 // manual sends per second
	RateBurst          int
}

type StorageConfig struct {
	Driver string // minio or s3
	MinIO  MinIOConfig
	S3     S3Config
}

type MinIOConfig struct {
	Endpoint  string
	PublicURL string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

type CORSConfig struct {
	Origins []string
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
	LockTTL  time.Duration
}

// Load reads configuration from .env file and environment variables
func Load() *Config {
	// A missing .env is fine, e.g. in Docker
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnv("APP_PORT", "8080"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", ""),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Dispatch: DispatchConfig{
			Driver:             strings.ToLower(getEnv("DISPATCH_DRIVER", "edge")),
			URL:                getEnv("DISPATCH_URL", ""),
			Key:                getEnv("DISPATCH_KEY", ""),
			FCMCredentialsFile: getEnv("FCM_CREDENTIALS_FILE", ""),
			RateLimit:          getFloat("DISPATCH_RATE_LIMIT", 0.2),
			RateBurst:          getInt("DISPATCH_RATE_BURST", 3),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", "minio")),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
				SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
				Bucket:    getEnv("MINIO_BUCKET", "images"),
				UseSSL:    getBool("MINIO_USE_SSL", false),
			},
			S3: S3Config{
				Region:    getEnv("S3_REGION", "us-east-1"),
				Bucket:    getEnv("S3_BUCKET", ""),
				AccessKey: getEnv("S3_ACCESS_KEY", ""),
				SecretKey: getEnv("S3_SECRET_KEY", ""),
				PublicURL: getEnv("S3_PUBLIC_URL", ""),
			},
		},
		CORS: CORSConfig{
			Origins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ","),
		},
		Scheduler: SchedulerConfig{
			Enabled:  getBool("SCHEDULER_ENABLED", true),
			Interval: getDuration("SCHEDULER_INTERVAL", time.Minute),
			LockTTL:  getDuration("SCHEDULER_LOCK_TTL", 55*time.Second),
		},
	}
}

// Validate reports every missing required setting at once
func (c *Config) Validate() error {
	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	require("DB_HOST", c.DB.Host)
	require("DB_USER", c.DB.User)
	require("DB_NAME", c.DB.Name)

	switch c.Dispatch.Driver {
	case "edge":
		require("DISPATCH_URL", c.Dispatch.URL)
		require("DISPATCH_KEY", c.Dispatch.Key)
	case "fcm":
		require("FCM_CREDENTIALS_FILE", c.Dispatch.FCMCredentialsFile)
	default:
		return fmt.Errorf("unknown DISPATCH_DRIVER %q (want edge or fcm)", c.Dispatch.Driver)
	}

	switch c.Storage.Driver {
	case "minio":
	case "s3":
		require("S3_BUCKET", c.Storage.S3.Bucket)
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want minio or s3)", c.Storage.Driver)
	}

	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}
