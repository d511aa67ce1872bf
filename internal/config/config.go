package config

import (
	"strings"
	"time"

	"github.com/qooqz/certificates/internal/env"
)

type Config struct {
	Port        string
	ENV         string
	App         AppConfig
	DB          DatabaseConfig
	RateLimiter RateLimiterConfig
	QR          QRServiceConfig
	Auth        AuthConfig
}

type AppConfig struct {
	// BaseURL is the public origin used to build verification URLs that end
	// up inside QR codes, e.g. https://certificates.example.com
	BaseURL string

	// StorageDir is the root directory for derived certificate assets
	// (QR PNGs and rendered PDFs).
	StorageDir string

	// TemplateDir holds the edition template PDF files, one per template
	// code (e.g. ar_gcc.pdf).
	TemplateDir string
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type AuthConfig struct {
	JWT_SECRET string
}

type QRServiceConfig struct {
	// Endpoint of the external QR image service. Default matches the
	// qrserver.com create-qr-code API.
	Endpoint  string
	PixelSize int
	Timeout   time.Duration
}

type DatabaseConfig struct {
	DB_HOST      string
	DB_PORT      string
	DB_DATABASE  string
	DB_USERNAME  string
	DB_PASSWORD  string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  string
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.ENV, "production")
}

func GetConfig() Config {
	rateLimiteTimeFrame, err := time.ParseDuration(env.GetString("RATE_LIMIT_TIME_FRAME", "1m"))
	if err != nil {
		rateLimiteTimeFrame = 60 * time.Second
	}

	qrTimeout, err := time.ParseDuration(env.GetString("QR_SERVICE_TIMEOUT", "10s"))
	if err != nil {
		qrTimeout = 10 * time.Second
	}

	return Config{
		Port: env.GetString("PORT", "8080"),
		ENV:  env.GetString("ENV", "development"),
		App: AppConfig{
			BaseURL:     env.GetString("APP_BASE_URL", "http://localhost:8080"),
			StorageDir:  env.GetString("APP_STORAGE_DIR", "storage/certificates"),
			TemplateDir: env.GetString("APP_TEMPLATE_DIR", "storage/templates"),
		},
		DB: DatabaseConfig{
			DB_HOST:      env.GetString("DB_HOST", "127.0.0.1"),
			DB_PORT:      env.GetString("DB_PORT", "5432"),
			DB_USERNAME:  env.GetString("DB_USERNAME", "root"),
			DB_PASSWORD:  env.GetString("DB_PASSWORD", ""),
			DB_DATABASE:  env.GetString("DB_DATABASE", "certificates"),
			MaxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 30),
			MaxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 30),
			MaxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
		// By default if not specified, we allow 5000 requests per minute on all routes
		RateLimiter: RateLimiterConfig{
			RequestsPerTimeFrame: env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 5000),
			TimeFrame:            rateLimiteTimeFrame,
			Enabled:              env.GetBool("RATE_LIMIT_ENABLED", true),
		},
		QR: QRServiceConfig{
			Endpoint:  env.GetString("QR_SERVICE_ENDPOINT", "https://api.qrserver.com/v1/create-qr-code/"),
			PixelSize: env.GetInt("QR_SERVICE_PIXEL_SIZE", 200),
			Timeout:   qrTimeout,
		},
		Auth: AuthConfig{
			JWT_SECRET: env.GetString("AUTH_JWT_SECRET", ""),
		},
	}
}
