package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageDriverS3    = "s3"
	StorageDriverMinio = "minio"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort  string
	CORSOrigins []string
	LogLevel    string

	JWTSecret string

	AccessTokenMaxAge  int
	RefreshTokenMaxAge int

	RedisURL    string
	WorkerCount int

	AuthRateLimit int // requests per minute per client on login/register

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable behind a proxy that overwrites them.
	TrustProxyHeaders bool

	Storage StorageConfig
}

// StorageConfig configures the object store holding videos and images.
type StorageConfig struct {
	Driver          string
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	UseSSL          bool
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, relying on environment variables")
	}

	accessTokenMaxAge := getInt("ACCESS_TOKEN_MAX_AGE", 900)
	refreshTokenMaxAge := getInt("REFRESH_TOKEN_MAX_AGE", 2592000)

	cfg := &Config{
		DBHost:     getString("DB_HOST", "localhost"),
		DBPort:     getString("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getString("DB_NAME", "streamify"),
		DBSSLMode:  getString("DB_SSLMODE", "disable"),

		ServerPort:  getString("SERVER_PORT", "8000"),
		CORSOrigins: splitList(getString("CORS_ORIGINS", "*")),
		LogLevel:    getString("LOG_LEVEL", "info"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AccessTokenMaxAge:  accessTokenMaxAge,
		RefreshTokenMaxAge: refreshTokenMaxAge,

		RedisURL:    getString("REDIS_URL", "redis://localhost:6379"),
		WorkerCount: getInt("WORKER_COUNT", 2),

		AuthRateLimit:     getInt("AUTH_RATE_LIMIT", 20),
		TrustProxyHeaders: getBool("TRUST_PROXY_HEADERS", false),

		Storage: StorageConfig{
			Driver:          strings.ToLower(getString("STORAGE_DRIVER", StorageDriverS3)),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			Region:          getString("S3_REGION", "auto"),
			Bucket:          os.Getenv("S3_BUCKET"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			PublicURL:       strings.TrimSuffix(os.Getenv("S3_PUBLIC_URL"), "/"),
			UseSSL:          getBool("MINIO_USE_SSL", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DBUser == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.Storage.Driver {
	case StorageDriverS3, StorageDriverMinio:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not supported", c.Storage.Driver))
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required"))
	}
	if c.Storage.Driver == StorageDriverMinio && c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("S3_ENDPOINT is required for the minio driver"))
	}
	return errors.Join(errs...)
}

// DSN returns the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
